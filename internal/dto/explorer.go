package dto

import "github.com/open-depot/archive-api/internal/models"

// OpenExplorerResponse returns the new browsing session and its dataset.
type OpenExplorerResponse struct {
	SessionID string          `json:"sessionId"`
	Dataset   *models.Dataset `json:"dataset"`
	RootID    string          `json:"rootId"`
}

// FolderEntry is one row in a folder listing. Readable is set for files,
// Verdict for folders. Policy columns are only populated for principals
// entitled to see them (archivist, depositor).
type FolderEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	SizeBytes    int64  `json:"sizeBytes,omitempty"`
	Readable     *bool  `json:"readable,omitempty"`
	Verdict      string `json:"verdict,omitempty"`
	Selected     bool   `json:"selected"`
	CreatorRole  string `json:"creatorRole,omitempty"`
	VisibleTo    string `json:"visibleTo,omitempty"`
	AccessibleTo string `json:"accessibleTo,omitempty"`
}

// FolderFilter narrows a folder listing to files whose policy values fall
// in the given sets. An empty axis leaves that axis unconstrained. Filtering
// is an archivist tool; requests carrying a filter are rejected for other
// principals.
type FolderFilter struct {
	CreatorRoles []string `form:"creator"`
	VisibleTo    []string `form:"visibleTo"`
	AccessibleTo []string `form:"accessibleTo"`
}

// Empty reports whether no axis is constrained.
func (f *FolderFilter) Empty() bool {
	return f == nil || (len(f.CreatorRoles) == 0 && len(f.VisibleTo) == 0 && len(f.AccessibleTo) == 0)
}

// ListFolderResponse lists a folder's discoverable children together with
// the folder's own aggregate verdict for the "some files restricted" badge.
type ListFolderResponse struct {
	FolderID string        `json:"folderId"`
	Verdict  string        `json:"verdict"`
	Entries  []FolderEntry `json:"entries"`
}

// SelectionRequest mutates the session selection.
type SelectionRequest struct {
	Action string `json:"action" binding:"required,oneof=toggle all none" validate:"required,oneof=toggle all none"`
	ItemID string `json:"itemId,omitempty" validate:"required_if=Action toggle"`
}

// SelectionSnapshot reports the current selection.
type SelectionSnapshot struct {
	Files   []string `json:"files"`
	Folders []string `json:"folders"`
	Count   int      `json:"count"`
}

// DownloadConfirmation is the slow-path payload: the user sees what will
// actually be delivered before confirming.
type DownloadConfirmation struct {
	RequestedCount  int      `json:"requestedCount"`
	SelectedCount   int      `json:"selectedCount"`
	RequestedIDs    []string `json:"requestedIds"`
	RequiresLicense bool     `json:"requiresLicense"`
	TermsAccepted   bool     `json:"termsAccepted"`
}

// RightsUpdateRequest changes scopes on the selected items. At least one of
// the two fields must be set.
type RightsUpdateRequest struct {
	VisibleTo    *string `json:"visibleTo,omitempty"`
	AccessibleTo *string `json:"accessibleTo,omitempty"`
}
