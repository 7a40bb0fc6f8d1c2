package selection

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-depot/archive-api/internal/authz"
	"github.com/open-depot/archive-api/internal/models"
	"github.com/open-depot/archive-api/internal/tree"
	appErrors "github.com/open-depot/archive-api/pkg/errors"
)

type stubProvider struct {
	children map[string][]models.Item
}

func (f *stubProvider) LoadChildren(_ context.Context, folderID string) ([]models.Item, int64, error) {
	return f.children[folderID], 1, nil
}

func (f *stubProvider) FolderVersion(context.Context, string) (int64, error) {
	return 1, nil
}

type stubPackager struct {
	limits   PackageLimits
	calls    int
	lastSeen []models.Item
	err      error
}

func (p *stubPackager) Limits() PackageLimits {
	return p.limits
}

func (p *stubPackager) Package(_ context.Context, dataset *models.Dataset, items []models.Item, _ *models.Principal) (*PackageResult, error) {
	p.calls++
	p.lastSeen = items
	if p.err != nil {
		return nil, p.err
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return &PackageResult{
		Content:  io.NopCloser(strings.NewReader("zip")),
		Filename: dataset.ID + ".zip",
		ItemIDs:  ids,
	}, nil
}

type stubRights struct {
	calls int
	ids   []string
	err   error
}

func (s *stubRights) ApplyRights(_ context.Context, itemIDs []string, _ *models.VisibleTo, _ *models.AccessibleTo) error {
	s.calls++
	s.ids = itemIDs
	return s.err
}

type stubDeletions struct {
	calls int
	ids   []string
	err   error
}

func (s *stubDeletions) Delete(_ context.Context, itemIDs []string) error {
	s.calls++
	s.ids = itemIDs
	return s.err
}

func selFolder(id string) models.Item {
	return models.Item{
		ID:           id,
		Kind:         models.KindFolder,
		VisibleTo:    models.VisibleToAnyone,
		AccessibleTo: models.AccessibleToAnyone,
	}
}

func selFile(id string, accessibleTo models.AccessibleTo, size int64) models.Item {
	return models.Item{
		ID:           id,
		Kind:         models.KindFile,
		VisibleTo:    models.VisibleToAnyone,
		AccessibleTo: accessibleTo,
		SizeBytes:    size,
	}
}

func knownUser() *models.Principal {
	return &models.Principal{UserID: "u1", AcceptedTerms: true}
}

// fixture builds a tree with five files in root, three of them readable by a
// known user.
func fixture(t *testing.T) (*tree.Tree, *authz.Strategy) {
	t.Helper()
	provider := &stubProvider{children: map[string][]models.Item{
		"root": {
			selFile("a", models.AccessibleToAnyone, 10),
			selFile("b", models.AccessibleToKnownUser, 20),
			selFile("c", models.AccessibleToKnownUser, 30),
			selFile("d", models.AccessibleToNone, 40),
			selFile("e", models.AccessibleToNone, 50),
		},
	}}
	tr := tree.New(provider, selFolder("root"), nil)
	return tr, authz.New(tr)
}

func TestResolveEmptySelectionUsesCurrentFolder(t *testing.T) {
	tr, strategy := fixture(t)
	pack := &stubPackager{}
	c := NewCoordinator(tr, strategy, pack, &stubRights{}, &stubDeletions{}, nil)

	items, err := c.ResolveRequestedItems(context.Background(), NewSelection(), "root", knownUser())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
	assert.Equal(t, "c", items[2].ID)
}

func TestResolveDropsUnreadableSelection(t *testing.T) {
	tr, strategy := fixture(t)
	c := NewCoordinator(tr, strategy, &stubPackager{}, &stubRights{}, &stubDeletions{}, nil)

	// Materialize the tree first so selected ids resolve.
	_, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)

	sel := NewSelection()
	sel.Toggle("a", models.KindFile)
	sel.Toggle("d", models.KindFile)
	sel.Toggle("ghost", models.KindFile)

	items, err := c.ResolveRequestedItems(context.Background(), sel, "root", knownUser())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
}

func TestResolveDropsFolderWithNothingReadable(t *testing.T) {
	provider := &stubProvider{children: map[string][]models.Item{
		"root": {selFolder("sub"), selFolder("locked")},
		"sub":  {selFile("a", models.AccessibleToAnyone, 1)},
		"locked": {
			selFile("x", models.AccessibleToNone, 1),
		},
	}}
	tr := tree.New(provider, selFolder("root"), nil)
	c := NewCoordinator(tr, authz.New(tr), &stubPackager{}, &stubRights{}, &stubDeletions{}, nil)

	items, err := c.ResolveRequestedItems(context.Background(), NewSelection(), "root", knownUser())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "sub", items[0].ID)
}

func TestDecideDownloadPath(t *testing.T) {
	tr, strategy := fixture(t)
	c := NewCoordinator(tr, strategy, &stubPackager{}, &stubRights{}, &stubDeletions{}, nil)

	requested := []models.Item{selFile("a", models.AccessibleToAnyone, 1)}

	// Empty request never streams.
	assert.Equal(t, SlowPath, c.DecideDownloadPath(nil, 0, models.VerdictAll, false, true))

	// Dataset-wide ALL streams even when folders were expanded.
	assert.Equal(t, FastPath, c.DecideDownloadPath(requested, 3, models.VerdictAll, false, true))

	// Filtered request without ALL goes through the dialog.
	assert.Equal(t, SlowPath, c.DecideDownloadPath(requested, 3, models.VerdictSome, false, true))

	// Exact match streams without ALL.
	assert.Equal(t, FastPath, c.DecideDownloadPath(requested, 1, models.VerdictSome, false, true))

	// License and terms gates are independent.
	assert.Equal(t, SlowPath, c.DecideDownloadPath(requested, 1, models.VerdictAll, true, true))
	assert.Equal(t, SlowPath, c.DecideDownloadPath(requested, 1, models.VerdictAll, false, false))
}

func TestDownloadSlowPathSkipsPackager(t *testing.T) {
	tr, strategy := fixture(t)
	pack := &stubPackager{limits: PackageLimits{MaxFiles: 100, MaxTotalSize: 1 << 20}}
	c := NewCoordinator(tr, strategy, pack, &stubRights{}, &stubDeletions{}, nil)

	dataset := &models.Dataset{ID: "ds1"}
	outcome, err := c.Download(context.Background(), dataset, NewSelection(), "root", knownUser())
	require.NoError(t, err)

	// Two files were silently filtered, so the dialog is shown.
	assert.Equal(t, SlowPath, outcome.Decision)
	assert.Len(t, outcome.Requested, 3)
	assert.Nil(t, outcome.Package)
	assert.Equal(t, 0, pack.calls)
}

func TestDownloadFastPathPackages(t *testing.T) {
	tr, strategy := fixture(t)
	pack := &stubPackager{limits: PackageLimits{MaxFiles: 100, MaxTotalSize: 1 << 20}}
	c := NewCoordinator(tr, strategy, pack, &stubRights{}, &stubDeletions{}, nil)

	_, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)

	sel := NewSelection()
	sel.Toggle("a", models.KindFile)
	sel.Toggle("b", models.KindFile)

	dataset := &models.Dataset{ID: "ds1"}
	outcome, err := c.Download(context.Background(), dataset, sel, "root", knownUser())
	require.NoError(t, err)

	assert.Equal(t, FastPath, outcome.Decision)
	require.NotNil(t, outcome.Package)
	assert.Equal(t, 1, pack.calls)
	assert.Equal(t, []string{"a", "b"}, outcome.Package.ItemIDs)

	// Downloads never consume the selection.
	assert.Equal(t, 2, sel.Count())
}

func TestDownloadNeedsTermsForGatedContent(t *testing.T) {
	tr, strategy := fixture(t)
	pack := &stubPackager{limits: PackageLimits{MaxFiles: 100, MaxTotalSize: 1 << 20}}
	c := NewCoordinator(tr, strategy, pack, &stubRights{}, &stubDeletions{}, nil)

	noTerms := &models.Principal{UserID: "u2"}
	dataset := &models.Dataset{ID: "ds1"}
	outcome, err := c.Download(context.Background(), dataset, NewSelection(), "root", noTerms)
	require.NoError(t, err)
	assert.Equal(t, SlowPath, outcome.Decision)
	assert.Equal(t, 0, pack.calls)
}

func TestDispatchRejectsTooManyFiles(t *testing.T) {
	tr, strategy := fixture(t)
	pack := &stubPackager{limits: PackageLimits{MaxFiles: 2, MaxTotalSize: 1 << 20}}
	c := NewCoordinator(tr, strategy, pack, &stubRights{}, &stubDeletions{}, nil)

	dataset := &models.Dataset{ID: "ds1"}
	_, err := c.ConfirmDownload(context.Background(), dataset, NewSelection(), "root", knownUser())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrTooManyItems))
	assert.Equal(t, 0, pack.calls)
}

func TestDispatchRejectsOversizedPayload(t *testing.T) {
	tr, strategy := fixture(t)
	pack := &stubPackager{limits: PackageLimits{MaxFiles: 100, MaxTotalSize: 15}}
	c := NewCoordinator(tr, strategy, pack, &stubRights{}, &stubDeletions{}, nil)

	dataset := &models.Dataset{ID: "ds1"}
	_, err := c.ConfirmDownload(context.Background(), dataset, NewSelection(), "root", knownUser())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrContentTooLarge))
	assert.Equal(t, 0, pack.calls)
}

func TestApplyRightsChangeClearsSelectionOnSuccess(t *testing.T) {
	tr, strategy := fixture(t)
	rights := &stubRights{}
	c := NewCoordinator(tr, strategy, &stubPackager{}, rights, &stubDeletions{}, nil)

	_, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)

	sel := NewSelection()
	sel.Toggle("a", models.KindFile)

	vis := models.VisibleToKnownUser
	err = c.ApplyRightsChange(context.Background(), sel, "root", &vis, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rights.calls)
	assert.Equal(t, []string{"a"}, rights.ids)
	assert.True(t, sel.Empty())
}

func TestApplyRightsChangeKeepsSelectionOnFailure(t *testing.T) {
	tr, strategy := fixture(t)
	rights := &stubRights{err: appErrors.Clone(appErrors.ErrStoreUnavailable, "down")}
	c := NewCoordinator(tr, strategy, &stubPackager{}, rights, &stubDeletions{}, nil)

	_, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)

	sel := NewSelection()
	sel.Toggle("a", models.KindFile)

	vis := models.VisibleToNone
	err = c.ApplyRightsChange(context.Background(), sel, "root", &vis, nil)
	require.Error(t, err)
	assert.Equal(t, 1, sel.Count())
}

func TestApplyRightsChangeValidation(t *testing.T) {
	tr, strategy := fixture(t)
	c := NewCoordinator(tr, strategy, &stubPackager{}, &stubRights{}, &stubDeletions{}, nil)

	sel := NewSelection()
	sel.Toggle("a", models.KindFile)
	require.Error(t, c.ApplyRightsChange(context.Background(), sel, "root", nil, nil))

	vis := models.VisibleToAnyone
	require.Error(t, c.ApplyRightsChange(context.Background(), NewSelection(), "root", &vis, nil))
}

func TestApplyDeleteDetachesAndClears(t *testing.T) {
	tr, strategy := fixture(t)
	deletions := &stubDeletions{}
	c := NewCoordinator(tr, strategy, &stubPackager{}, &stubRights{}, deletions, nil)

	_, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)

	sel := NewSelection()
	sel.Toggle("a", models.KindFile)
	sel.Toggle("b", models.KindFile)

	err = c.ApplyDelete(context.Background(), sel, "root")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, deletions.ids)
	assert.True(t, sel.Empty())

	_, err = tr.Item("a")
	require.Error(t, err)
}

func TestApplyDeleteKeepsStateOnFailure(t *testing.T) {
	tr, strategy := fixture(t)
	deletions := &stubDeletions{err: appErrors.Clone(appErrors.ErrStoreUnavailable, "down")}
	c := NewCoordinator(tr, strategy, &stubPackager{}, &stubRights{}, deletions, nil)

	_, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)

	sel := NewSelection()
	sel.Toggle("a", models.KindFile)

	err = c.ApplyDelete(context.Background(), sel, "root")
	require.Error(t, err)
	assert.Equal(t, 1, sel.Count())

	_, err = tr.Item("a")
	require.NoError(t, err)
}
