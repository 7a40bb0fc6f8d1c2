package models

import "time"

// DatasetState tracks the administrative lifecycle of a dataset.
type DatasetState string

const (
	DatasetDraft     DatasetState = "DRAFT"
	DatasetSubmitted DatasetState = "SUBMITTED"
	DatasetPublished DatasetState = "PUBLISHED"
)

// Dataset is the archival unit a browsing session operates on.
type Dataset struct {
	ID                   string       `db:"id" json:"id"`
	Title                string       `db:"title" json:"title"`
	State                DatasetState `db:"state" json:"state"`
	DepositorID          string       `db:"depositor_id" json:"depositorId"`
	RootFolderID         string       `db:"root_folder_id" json:"rootFolderId"`
	HasAdditionalLicense bool         `db:"has_additional_license" json:"hasAdditionalLicense"`
	CreatedAt            time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time    `db:"updated_at" json:"updatedAt"`
}

// Mutable reports whether items may still be edited or deleted.
// Published datasets are read-only.
func (d *Dataset) Mutable() bool {
	return d != nil && d.State != DatasetPublished
}
