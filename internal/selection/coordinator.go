package selection

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/open-depot/archive-api/internal/authz"
	"github.com/open-depot/archive-api/internal/models"
	"github.com/open-depot/archive-api/internal/tree"
	appErrors "github.com/open-depot/archive-api/pkg/errors"
	"github.com/open-depot/archive-api/pkg/export"
)

// State tracks where the coordinator is in one bulk operation.
type State int

const (
	StateIdle State = iota
	StateBuildingRequest
	StateDispatched
)

// PathDecision selects between streaming content immediately and presenting
// a confirmation dialog first.
type PathDecision int

const (
	SlowPath PathDecision = iota
	FastPath
)

func (d PathDecision) String() string {
	if d == FastPath {
		return "FAST"
	}
	return "SLOW"
}

// PackageLimits are the adapter-declared bounds checked before dispatch.
type PackageLimits struct {
	MaxFiles     int
	MaxTotalSize int64
}

// PackageResult is the packaged download handed back by the adapter.
type PackageResult struct {
	Content   io.ReadCloser
	Filename  string
	SizeBytes int64
	Manifest  export.Manifest
	ItemIDs   []string
}

// Packager zips the requested items into a downloadable stream.
type Packager interface {
	Limits() PackageLimits
	Package(ctx context.Context, dataset *models.Dataset, items []models.Item, principal *models.Principal) (*PackageResult, error)
}

// RightsSink persists VisibleTo/AccessibleTo changes.
type RightsSink interface {
	ApplyRights(ctx context.Context, itemIDs []string, visibleTo *models.VisibleTo, accessibleTo *models.AccessibleTo) error
}

// DeletionSink removes items from the backing store.
type DeletionSink interface {
	Delete(ctx context.Context, itemIDs []string) error
}

// DownloadOutcome reports what the coordinator decided for a download
// request. Package is set only on the fast path.
type DownloadOutcome struct {
	Decision      PathDecision
	Requested     []models.Item
	SelectedCount int
	Package       *PackageResult
}

// Coordinator reconciles the user's selection with per-item permissions and
// drives bulk operations through the external adapters. It performs no
// internal parallelism: adapter calls block until they respond or the
// context expires, and no operation is retried automatically.
type Coordinator struct {
	tree      *tree.Tree
	strategy  *authz.Strategy
	packager  Packager
	rights    RightsSink
	deletions DeletionSink
	logger    *zap.Logger

	state State
}

// NewCoordinator wires the coordinator to its session tree and adapters.
func NewCoordinator(t *tree.Tree, strategy *authz.Strategy, packager Packager, rights RightsSink, deletions DeletionSink, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		tree:      t,
		strategy:  strategy,
		packager:  packager,
		rights:    rights,
		deletions: deletions,
		logger:    logger,
		state:     StateIdle,
	}
}

// State returns the coordinator's current operation state.
func (c *Coordinator) State() State {
	return c.state
}

// ResolveRequestedItems translates the selection into the concrete list of
// items a bulk operation will act on. An empty selection means everything in
// the current folder. Unreadable items are silently dropped, never included:
// the user is not blocked, but content they may not read never ships.
func (c *Coordinator) ResolveRequestedItems(ctx context.Context, sel *Selection, currentFolderID string, principal *models.Principal) ([]models.Item, error) {
	if sel.Empty() {
		children, err := c.tree.ChildrenOf(ctx, currentFolderID)
		if err != nil {
			return nil, err
		}
		return c.filterReadable(ctx, children, principal)
	}

	ids := append(sel.Files(), sel.Folders()...)
	items := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		item, err := c.tree.Item(id)
		if err != nil {
			if appErrors.Is(err, appErrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		items = append(items, *item)
	}
	return c.filterReadable(ctx, items, principal)
}

func (c *Coordinator) filterReadable(ctx context.Context, items []models.Item, principal *models.Principal) ([]models.Item, error) {
	result := make([]models.Item, 0, len(items))
	for i := range items {
		item := items[i]
		if item.IsFile() {
			if c.strategy.CanRead(principal, &item) {
				result = append(result, item)
			}
			continue
		}
		verdict, err := c.strategy.AggregateRead(ctx, principal, item.ID)
		if err != nil {
			return nil, err
		}
		if verdict != models.VerdictNone {
			result = append(result, item)
		}
	}
	return result, nil
}

// DecideDownloadPath chooses between immediate streaming and a confirmation
// dialog. The fast path requires a non-empty request, either a dataset-wide
// ALL verdict or a request that exactly matches the user's selection (no
// silent filtering happened), no additional license gate, and previously
// accepted usage terms. Everything else routes to the slow path so the user
// sees what will actually be delivered.
func (c *Coordinator) DecideDownloadPath(requested []models.Item, selectedCount int, datasetVerdict models.ReadVerdict, hasAdditionalLicense, acceptedTerms bool) PathDecision {
	if len(requested) == 0 {
		return SlowPath
	}
	if datasetVerdict != models.VerdictAll && len(requested) != selectedCount {
		return SlowPath
	}
	if hasAdditionalLicense {
		return SlowPath
	}
	if !acceptedTerms {
		return SlowPath
	}
	return FastPath
}

// Download resolves the selection, decides the delivery path, and on the
// fast path packages the content. The slow path returns the resolved
// request for the confirmation dialog without touching the packager. The
// selection itself is never mutated by a download.
func (c *Coordinator) Download(ctx context.Context, dataset *models.Dataset, sel *Selection, currentFolderID string, principal *models.Principal) (*DownloadOutcome, error) {
	c.state = StateBuildingRequest
	defer func() { c.state = StateIdle }()

	requested, err := c.ResolveRequestedItems(ctx, sel, currentFolderID, principal)
	if err != nil {
		return nil, err
	}

	datasetVerdict, err := c.strategy.AggregateRead(ctx, principal, c.tree.RootID())
	if err != nil {
		return nil, err
	}

	outcome := &DownloadOutcome{
		Requested:     requested,
		SelectedCount: sel.Count(),
	}
	outcome.Decision = c.DecideDownloadPath(requested, sel.Count(), datasetVerdict, dataset.HasAdditionalLicense, principal.AcceptedTerms)
	if outcome.Decision == SlowPath {
		return outcome, nil
	}

	pkg, err := c.dispatchPackage(ctx, dataset, requested, principal)
	if err != nil {
		return nil, err
	}
	outcome.Package = pkg
	return outcome, nil
}

// ConfirmDownload packages whatever the selection resolves to, skipping the
// path decision. Used after the user confirmed the slow-path dialog.
func (c *Coordinator) ConfirmDownload(ctx context.Context, dataset *models.Dataset, sel *Selection, currentFolderID string, principal *models.Principal) (*PackageResult, error) {
	c.state = StateBuildingRequest
	defer func() { c.state = StateIdle }()

	requested, err := c.ResolveRequestedItems(ctx, sel, currentFolderID, principal)
	if err != nil {
		return nil, err
	}
	if len(requested) == 0 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no readable items in request")
	}
	return c.dispatchPackage(ctx, dataset, requested, principal)
}

// dispatchPackage enforces the adapter-declared limits before any packaging
// IO happens, then hands the request to the packager.
func (c *Coordinator) dispatchPackage(ctx context.Context, dataset *models.Dataset, requested []models.Item, principal *models.Principal) (*PackageResult, error) {
	limits := c.packager.Limits()
	fileCount, totalBytes, err := c.countPayload(ctx, requested, principal)
	if err != nil {
		return nil, err
	}
	if limits.MaxFiles > 0 && fileCount > limits.MaxFiles {
		return nil, appErrors.TooManyItems(limits.MaxFiles, fileCount)
	}
	if limits.MaxTotalSize > 0 && totalBytes > limits.MaxTotalSize {
		return nil, appErrors.ContentTooLarge(limits.MaxTotalSize, totalBytes)
	}

	c.state = StateDispatched
	pkg, err := c.packager.Package(ctx, dataset, requested, principal)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "packaging failed")
	}
	c.logger.Info("package dispatched",
		zap.String("dataset_id", dataset.ID),
		zap.Int("files", fileCount),
		zap.Int64("bytes", totalBytes))
	return pkg, nil
}

// countPayload expands requested folders into their readable file
// descendants and totals file count and byte size.
func (c *Coordinator) countPayload(ctx context.Context, requested []models.Item, principal *models.Principal) (int, int64, error) {
	files := 0
	var bytes int64
	for i := range requested {
		item := requested[i]
		if item.IsFile() {
			files++
			bytes += item.SizeBytes
			continue
		}
		f, b, err := c.countFolderPayload(ctx, item.ID, principal)
		if err != nil {
			return 0, 0, err
		}
		files += f
		bytes += b
	}
	return files, bytes, nil
}

func (c *Coordinator) countFolderPayload(ctx context.Context, folderID string, principal *models.Principal) (int, int64, error) {
	children, err := c.tree.ChildrenOf(ctx, folderID)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrNotFound) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	files := 0
	var bytes int64
	for i := range children {
		child := children[i]
		if child.IsFile() {
			if c.strategy.CanRead(principal, &child) {
				files++
				bytes += child.SizeBytes
			}
			continue
		}
		f, b, err := c.countFolderPayload(ctx, child.ID, principal)
		if err != nil {
			return 0, 0, err
		}
		files += f
		bytes += b
	}
	return files, bytes, nil
}

// ApplyRightsChange persists new scopes for every selected item. On success
// each affected folder's cached children are invalidated (cached aggregate
// verdicts are stale once policy changed) and the selection is cleared. On
// failure both selection and tree are left untouched.
func (c *Coordinator) ApplyRightsChange(ctx context.Context, sel *Selection, currentFolderID string, visibleTo *models.VisibleTo, accessibleTo *models.AccessibleTo) error {
	if visibleTo == nil && accessibleTo == nil {
		return appErrors.Clone(appErrors.ErrValidation, "no rights change requested")
	}
	if sel.Empty() {
		return appErrors.Clone(appErrors.ErrValidation, "nothing selected")
	}

	c.state = StateBuildingRequest
	defer func() { c.state = StateIdle }()

	ids := append(sel.Files(), sel.Folders()...)

	c.state = StateDispatched
	if err := c.rights.ApplyRights(ctx, ids, visibleTo, accessibleTo); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "rights update failed")
	}

	c.tree.Invalidate(currentFolderID)
	for _, folderID := range sel.Folders() {
		c.tree.Invalidate(folderID)
	}
	sel.Clear()
	return nil
}

// ApplyDelete removes every selected item through the deletion sink. On
// success the deleted nodes are detached from the current folder without a
// store round trip and the selection is cleared.
func (c *Coordinator) ApplyDelete(ctx context.Context, sel *Selection, currentFolderID string) error {
	if sel.Empty() {
		return appErrors.Clone(appErrors.ErrValidation, "nothing selected")
	}

	c.state = StateBuildingRequest
	defer func() { c.state = StateIdle }()

	ids := append(sel.Files(), sel.Folders()...)

	c.state = StateDispatched
	if err := c.deletions.Delete(ctx, ids); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "delete failed")
	}

	for _, id := range ids {
		c.tree.RemoveChild(currentFolderID, id)
	}
	sel.Clear()
	return nil
}
