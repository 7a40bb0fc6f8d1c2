package models

import "time"

// AuditAction names an audited archive operation.
type AuditAction string

const (
	AuditActionDownload     AuditAction = "CONTENT_DOWNLOAD"
	AuditActionRightsUpdate AuditAction = "RIGHTS_UPDATE"
	AuditActionItemDelete   AuditAction = "ITEM_DELETE"
)

// AuditLog is one audit-trail row.
type AuditLog struct {
	ID        string      `db:"id" json:"id"`
	UserID    string      `db:"user_id" json:"userId"`
	Action    AuditAction `db:"action" json:"action"`
	DatasetID string      `db:"dataset_id" json:"datasetId"`
	ItemIDs   string      `db:"item_ids" json:"itemIds"`
	Detail    string      `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}
