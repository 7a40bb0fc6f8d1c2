package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/open-depot/archive-api/internal/models"
	appErrors "github.com/open-depot/archive-api/pkg/errors"
)

// DatasetRepository reads dataset metadata.
type DatasetRepository struct {
	db *sqlx.DB
}

// NewDatasetRepository constructs the repository.
func NewDatasetRepository(db *sqlx.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// GetByID retrieves one dataset row.
func (r *DatasetRepository) GetByID(ctx context.Context, id string) (*models.Dataset, error) {
	const query = `SELECT id, title, state, depositor_id, root_folder_id, has_additional_license, created_at, updated_at
	FROM datasets WHERE id = $1`
	var dataset models.Dataset
	if err := r.db.GetContext(ctx, &dataset, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "dataset not found: "+id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "load dataset")
	}
	return &dataset, nil
}
