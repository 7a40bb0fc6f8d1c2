package models

import "fmt"

// ItemKind distinguishes leaf files from folders.
type ItemKind string

const (
	KindFile   ItemKind = "FILE"
	KindFolder ItemKind = "FOLDER"
)

// CreatorRole records who deposited an item. Informational only, it grants
// no permission by itself.
type CreatorRole string

const (
	CreatorDepositor CreatorRole = "DEPOSITOR"
	CreatorArchivist CreatorRole = "ARCHIVIST"
)

// ParseCreatorRole validates a raw creator role value.
func ParseCreatorRole(raw string) (CreatorRole, error) {
	switch CreatorRole(raw) {
	case CreatorDepositor, CreatorArchivist:
		return CreatorRole(raw), nil
	}
	return "", fmt.Errorf("unknown creator role %q", raw)
}

// Item is one node in a dataset's folder/file tree. Each node carries its
// own visibility and accessibility policy; a folder's policy applies to the
// folder as a unit and is never inherited by its descendants.
type Item struct {
	ID           string       `db:"id" json:"id"`
	DatasetID    string       `db:"dataset_id" json:"datasetId"`
	ParentID     *string      `db:"parent_id" json:"parentId,omitempty"`
	Name         string       `db:"name" json:"name"`
	Kind         ItemKind     `db:"kind" json:"kind"`
	CreatorRole  CreatorRole  `db:"creator_role" json:"creatorRole"`
	VisibleTo    VisibleTo    `db:"visible_to" json:"visibleTo"`
	AccessibleTo AccessibleTo `db:"accessible_to" json:"accessibleTo"`
	SizeBytes    int64        `db:"size_bytes" json:"sizeBytes"`
	MimeType     string       `db:"mime_type" json:"mimeType,omitempty"`
	StorageKey   string       `db:"storage_key" json:"-"`
}

// IsFile reports whether the item is a leaf.
func (i *Item) IsFile() bool {
	return i.Kind == KindFile
}

// Validate rejects structurally invalid items at construction time so the
// evaluation engine never has to handle unsupported policy values.
func (i *Item) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("item has no id")
	}
	switch i.Kind {
	case KindFile, KindFolder:
	default:
		return fmt.Errorf("item %s: unknown kind %q", i.ID, i.Kind)
	}
	if _, err := ParseVisibleTo(string(i.VisibleTo)); err != nil {
		return fmt.Errorf("item %s: %w", i.ID, err)
	}
	if _, err := ParseAccessibleTo(string(i.AccessibleTo)); err != nil {
		return fmt.Errorf("item %s: %w", i.ID, err)
	}
	if i.Kind == KindFolder && i.SizeBytes != 0 {
		return fmt.Errorf("item %s: folders carry no size", i.ID)
	}
	return nil
}
