package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVisibleTo(t *testing.T) {
	for _, raw := range []string{"ANYONE", "KNOWN_USER", "NONE"} {
		scope, err := ParseVisibleTo(raw)
		require.NoError(t, err)
		assert.Equal(t, VisibleTo(raw), scope)
	}
}

func TestParseVisibleToRejectsRetiredScopes(t *testing.T) {
	_, err := ParseVisibleTo("RESTRICTED_GROUP")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled by policy")

	_, err = ParseVisibleTo("RESTRICTED_REQUEST")
	require.Error(t, err)
}

func TestParseAccessibleToRejectsUnknown(t *testing.T) {
	_, err := ParseAccessibleTo("EVERYBODY")
	require.Error(t, err)

	_, err = ParseAccessibleTo("")
	require.Error(t, err)

	_, err = ParseAccessibleTo("RESTRICTED_GROUP")
	require.Error(t, err)
}

func TestItemValidate(t *testing.T) {
	file := Item{
		ID:           "f1",
		Kind:         KindFile,
		VisibleTo:    VisibleToAnyone,
		AccessibleTo: AccessibleToKnownUser,
		SizeBytes:    42,
	}
	require.NoError(t, file.Validate())

	folder := Item{
		ID:           "d1",
		Kind:         KindFolder,
		VisibleTo:    VisibleToAnyone,
		AccessibleTo: AccessibleToAnyone,
	}
	require.NoError(t, folder.Validate())
}

func TestItemValidateRejectsRetiredScope(t *testing.T) {
	item := Item{
		ID:           "f1",
		Kind:         KindFile,
		VisibleTo:    VisibleTo("RESTRICTED_GROUP"),
		AccessibleTo: AccessibleToAnyone,
	}
	require.Error(t, item.Validate())
}

func TestItemValidateRejectsSizedFolder(t *testing.T) {
	item := Item{
		ID:           "d1",
		Kind:         KindFolder,
		VisibleTo:    VisibleToAnyone,
		AccessibleTo: AccessibleToAnyone,
		SizeBytes:    10,
	}
	require.Error(t, item.Validate())
}
