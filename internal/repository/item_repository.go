package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/open-depot/archive-api/internal/models"
	appErrors "github.com/open-depot/archive-api/pkg/errors"
)

// ItemRepository persists the dataset item tree. It backs the session tree
// as its provider and serves as the rights and deletion sink for bulk
// mutations. Every folder row carries a version that is bumped whenever its
// content or the policy of a descendant changes, so session caches can
// detect concurrent edits.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository constructs the repository.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, dataset_id, parent_id, name, kind, creator_role, visible_to, accessible_to, size_bytes, mime_type, storage_key`

// GetItem retrieves one tree node.
func (r *ItemRepository) GetItem(ctx context.Context, id string) (*models.Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM dataset_items WHERE id = $1`, itemColumns)
	var item models.Item
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found: "+id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "load item")
	}
	return &item, nil
}

// LoadChildren materializes the ordered children of a folder together with
// the folder's current version. Folders sort before files, then by name.
func (r *ItemRepository) LoadChildren(ctx context.Context, folderID string) ([]models.Item, int64, error) {
	version, err := r.FolderVersion(ctx, folderID)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM dataset_items WHERE parent_id = $1 ORDER BY kind DESC, name ASC`, itemColumns)
	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, query, folderID); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "load children")
	}
	return items, version, nil
}

// FolderVersion returns the folder's mutation counter.
func (r *ItemRepository) FolderVersion(ctx context.Context, folderID string) (int64, error) {
	const query = `SELECT version FROM dataset_items WHERE id = $1 AND kind = 'FOLDER'`
	var version int64
	if err := r.db.GetContext(ctx, &version, query, folderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "folder not found: "+folderID)
		}
		return 0, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "load folder version")
	}
	return version, nil
}

// ApplyRights updates the scopes of the given items and, for folders, of
// every descendant. Parent folder versions are bumped in the same
// transaction so stale session caches are detected on the next read.
func (r *ItemRepository) ApplyRights(ctx context.Context, itemIDs []string, visibleTo *models.VisibleTo, accessibleTo *models.AccessibleTo) error {
	if len(itemIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rights update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `
	WITH RECURSIVE affected AS (
		SELECT id FROM dataset_items WHERE id = ANY($1)
		UNION
		SELECT i.id FROM dataset_items i JOIN affected a ON i.parent_id = a.id
	)
	UPDATE dataset_items SET
		visible_to = COALESCE($2, visible_to),
		accessible_to = COALESCE($3, accessible_to)
	WHERE id IN (SELECT id FROM affected)`

	var vis, acc interface{}
	if visibleTo != nil {
		vis = string(*visibleTo)
	}
	if accessibleTo != nil {
		acc = string(*accessibleTo)
	}
	if _, err := tx.ExecContext(ctx, update, pq.Array(itemIDs), vis, acc); err != nil {
		return fmt.Errorf("apply rights: %w", err)
	}

	if err := bumpParentVersions(ctx, tx, itemIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rights update: %w", err)
	}
	return nil
}

// Delete removes the given items and their descendants.
func (r *ItemRepository) Delete(ctx context.Context, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := bumpParentVersions(ctx, tx, itemIDs); err != nil {
		return err
	}

	const remove = `
	WITH RECURSIVE doomed AS (
		SELECT id FROM dataset_items WHERE id = ANY($1)
		UNION
		SELECT i.id FROM dataset_items i JOIN doomed d ON i.parent_id = d.id
	)
	DELETE FROM dataset_items WHERE id IN (SELECT id FROM doomed)`
	if _, err := tx.ExecContext(ctx, remove, pq.Array(itemIDs)); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func bumpParentVersions(ctx context.Context, tx *sqlx.Tx, itemIDs []string) error {
	const bump = `
	UPDATE dataset_items SET version = version + 1
	WHERE kind = 'FOLDER' AND (id = ANY($1) OR id IN (
		SELECT DISTINCT parent_id FROM dataset_items WHERE id = ANY($1) AND parent_id IS NOT NULL
	))`
	if _, err := tx.ExecContext(ctx, bump, pq.Array(itemIDs)); err != nil {
		return fmt.Errorf("bump folder versions: %w", err)
	}
	return nil
}
