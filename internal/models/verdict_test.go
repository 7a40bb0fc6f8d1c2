package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerdictFromCounts(t *testing.T) {
	assert.Equal(t, VerdictNone, VerdictFromCounts(0, 0))
	assert.Equal(t, VerdictNone, VerdictFromCounts(0, 5))
	assert.Equal(t, VerdictSome, VerdictFromCounts(3, 5))
	assert.Equal(t, VerdictAll, VerdictFromCounts(5, 5))
}

func TestCombineVerdicts(t *testing.T) {
	assert.Equal(t, VerdictNone, CombineVerdicts())
	assert.Equal(t, VerdictAll, CombineVerdicts(VerdictAll, VerdictAll))
	assert.Equal(t, VerdictNone, CombineVerdicts(VerdictNone, VerdictNone))
	assert.Equal(t, VerdictSome, CombineVerdicts(VerdictAll, VerdictNone))
	assert.Equal(t, VerdictSome, CombineVerdicts(VerdictSome, VerdictAll))
	assert.Equal(t, VerdictSome, CombineVerdicts(VerdictSome, VerdictNone))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "ALL", VerdictAll.String())
	assert.Equal(t, "SOME", VerdictSome.String())
	assert.Equal(t, "NONE", VerdictNone.String())
}
