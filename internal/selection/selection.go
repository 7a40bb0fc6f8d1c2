package selection

import "github.com/open-depot/archive-api/internal/models"

// Selection tracks the user's ad-hoc choice of files and folders within the
// currently open dataset. Files and folders live in two disjoint ordered
// sets; an id is never present in both. The selection is cleared whenever
// the active folder changes, a filter is reapplied, or a bulk operation
// completes.
type Selection struct {
	files   []string
	folders []string
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{}
}

// Toggle adds the id to the set matching its kind, or removes it when
// already selected.
func (s *Selection) Toggle(id string, kind models.ItemKind) {
	set := &s.files
	if kind == models.KindFolder {
		set = &s.folders
	}
	for i, existing := range *set {
		if existing == id {
			*set = append((*set)[:i], (*set)[i+1:]...)
			return
		}
	}
	*set = append(*set, id)
}

// SelectAll replaces the selection with every given item.
func (s *Selection) SelectAll(items []models.Item) {
	s.Clear()
	for _, item := range items {
		if item.Kind == models.KindFile {
			s.files = append(s.files, item.ID)
		} else {
			s.folders = append(s.folders, item.ID)
		}
	}
}

// Clear empties both sets.
func (s *Selection) Clear() {
	s.files = nil
	s.folders = nil
}

// Remove drops the id from whichever set holds it.
func (s *Selection) Remove(id string) {
	s.files = removeID(s.files, id)
	s.folders = removeID(s.folders, id)
}

// Contains reports whether the id is selected.
func (s *Selection) Contains(id string) bool {
	for _, f := range s.files {
		if f == id {
			return true
		}
	}
	for _, f := range s.folders {
		if f == id {
			return true
		}
	}
	return false
}

// Files returns the selected file ids in selection order.
func (s *Selection) Files() []string {
	return append([]string(nil), s.files...)
}

// Folders returns the selected folder ids in selection order.
func (s *Selection) Folders() []string {
	return append([]string(nil), s.folders...)
}

// Count returns the total number of selected items.
func (s *Selection) Count() int {
	return len(s.files) + len(s.folders)
}

// Empty reports whether nothing is selected. An empty selection means
// "everything in the current folder" to the coordinator.
func (s *Selection) Empty() bool {
	return s.Count() == 0
}

func removeID(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
