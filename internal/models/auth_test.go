package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimsPrincipal(t *testing.T) {
	var claims *JWTClaims
	p := claims.Principal()
	assert.True(t, p.Anonymous)
	assert.False(t, p.IsKnown())

	claims = &JWTClaims{
		UserID:        "u1",
		Roles:         []Role{RoleArchivist},
		DepositorOf:   []string{"ds1"},
		AcceptedTerms: true,
	}
	p = claims.Principal()
	assert.True(t, p.IsArchivist())
	assert.True(t, p.IsDepositorOf("ds1"))
	assert.False(t, p.IsDepositorOf("ds2"))
	assert.True(t, p.IsKnown())
}
