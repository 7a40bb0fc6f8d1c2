package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/open-depot/archive-api/internal/models"
	appErrors "github.com/open-depot/archive-api/pkg/errors"
)

func newItemRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func itemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "dataset_id", "parent_id", "name", "kind", "creator_role", "visible_to", "accessible_to", "size_bytes", "mime_type", "storage_key"})
}

func TestItemRepositoryGetItem(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()

	repo := NewItemRepository(db)
	rows := itemRows().
		AddRow("item-1", "ds-1", nil, "survey.csv", "FILE", "DEPOSITOR", "ANYONE", "KNOWN_USER", 2048, "text/csv", "ds-1/survey.csv")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, dataset_id, parent_id")).
		WithArgs("item-1").
		WillReturnRows(rows)

	item, err := repo.GetItem(context.Background(), "item-1")
	require.NoError(t, err)
	require.Equal(t, "item-1", item.ID)
	require.Equal(t, models.KindFile, item.Kind)
	require.Equal(t, models.AccessibleToKnownUser, item.AccessibleTo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepositoryGetItemNotFound(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()

	repo := NewItemRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, dataset_id, parent_id")).
		WithArgs("ghost").
		WillReturnRows(itemRows())

	_, err := repo.GetItem(context.Background(), "ghost")
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepositoryLoadChildren(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()

	repo := NewItemRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM dataset_items")).
		WithArgs("folder-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(7))

	rows := itemRows().
		AddRow("sub-1", "ds-1", "folder-1", "raw", "FOLDER", "DEPOSITOR", "ANYONE", "ANYONE", 0, "", "").
		AddRow("file-1", "ds-1", "folder-1", "notes.txt", "FILE", "DEPOSITOR", "ANYONE", "NONE", 100, "text/plain", "ds-1/notes.txt")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, dataset_id, parent_id")).
		WithArgs("folder-1").
		WillReturnRows(rows)

	items, version, err := repo.LoadChildren(context.Background(), "folder-1")
	require.NoError(t, err)
	require.EqualValues(t, 7, version)
	require.Len(t, items, 2)
	require.Equal(t, models.KindFolder, items[0].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepositoryFolderVersionNotFound(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()

	repo := NewItemRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM dataset_items")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	_, err := repo.FolderVersion(context.Background(), "ghost")
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestItemRepositoryApplyRights(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()

	repo := NewItemRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("WITH RECURSIVE affected").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE dataset_items SET version = version + 1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	vis := models.VisibleToKnownUser
	err := repo.ApplyRights(context.Background(), []string{"item-1", "folder-1"}, &vis, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepositoryApplyRightsEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()

	repo := NewItemRepository(db)
	require.NoError(t, repo.ApplyRights(context.Background(), nil, nil, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()

	repo := NewItemRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE dataset_items SET version = version + 1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("WITH RECURSIVE doomed").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), []string{"item-1"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepositoryDeleteRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newItemRepoMock(t)
	defer cleanup()

	repo := NewItemRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE dataset_items SET version = version + 1")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), []string{"item-1"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
