package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/open-depot/archive-api/internal/authz"
	"github.com/open-depot/archive-api/internal/dto"
	"github.com/open-depot/archive-api/internal/models"
	"github.com/open-depot/archive-api/internal/selection"
	"github.com/open-depot/archive-api/internal/tree"
	appErrors "github.com/open-depot/archive-api/pkg/errors"
)

type itemStore interface {
	tree.Provider
	GetItem(ctx context.Context, id string) (*models.Item, error)
	ApplyRights(ctx context.Context, itemIDs []string, visibleTo *models.VisibleTo, accessibleTo *models.AccessibleTo) error
	Delete(ctx context.Context, itemIDs []string) error
}

type packagerFactory interface {
	ForTree(t *tree.Tree, strategy *authz.Strategy) selection.Packager
}

// session is one user's live view of one dataset's item tree. All state is
// private to the owning user and discarded when the session expires.
type session struct {
	ID              string
	DatasetID       string
	OwnerID         string
	CurrentFolderID string

	tree        *tree.Tree
	strategy    *authz.Strategy
	sel         *selection.Selection
	coordinator *selection.Coordinator
	filter      *models.ItemFilter

	mu         sync.Mutex
	lastAccess time.Time
}

func (s *session) touch() {
	s.lastAccess = time.Now()
}

// ExplorerService owns the browsing sessions. Opening a session snapshots
// the dataset's tree lazily; every subsequent call is scoped to a session ID
// and rejected when the session expired or belongs to another user.
type ExplorerService struct {
	items     itemStore
	datasets  *DatasetService
	packers   packagerFactory
	audit     *AuditService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	sessionTTL time.Duration

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewExplorerService(items itemStore, datasets *DatasetService, packers packagerFactory, audit *AuditService, metrics *MetricsService, sessionTTL time.Duration, logger *zap.Logger) *ExplorerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExplorerService{
		items:      items,
		datasets:   datasets,
		packers:    packers,
		audit:      audit,
		metrics:    metrics,
		validator:  validator.New(),
		logger:     logger,
		sessionTTL: sessionTTL,
		sessions:   make(map[string]*session),
	}
}

// StartCleanup evicts idle sessions until ctx is cancelled.
func (s *ExplorerService) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evictExpired()
			}
		}
	}()
}

func (s *ExplorerService) evictExpired() {
	cutoff := time.Now().Add(-s.sessionTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.lastAccess.Before(cutoff) {
			delete(s.sessions, id)
			s.metrics.SessionClosed()
			s.logger.Debug("session expired", zap.String("session_id", id))
		}
	}
}

// Open creates a browsing session rooted at the dataset's root folder.
func (s *ExplorerService) Open(ctx context.Context, datasetID string, principal *models.Principal) (*dto.OpenExplorerResponse, error) {
	dataset, err := s.datasets.Get(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	root, err := s.items.GetItem(ctx, dataset.RootFolderID)
	if err != nil {
		return nil, err
	}

	t := tree.New(s.items, *root, s.logger)
	strategy := authz.New(t)

	sess := &session{
		ID:              uuid.New().String(),
		DatasetID:       dataset.ID,
		OwnerID:         principal.UserID,
		CurrentFolderID: root.ID,
		tree:            t,
		strategy:        strategy,
		sel:             selection.NewSelection(),
		lastAccess:      time.Now(),
	}
	sess.coordinator = selection.NewCoordinator(t, strategy, s.packers.ForTree(t, strategy), s.items, s.items, s.logger)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.metrics.SessionOpened()

	s.logger.Info("explorer session opened",
		zap.String("session_id", sess.ID),
		zap.String("dataset_id", dataset.ID),
		zap.String("user_id", principal.UserID))

	return &dto.OpenExplorerResponse{
		SessionID: sess.ID,
		Dataset:   dataset,
		RootID:    root.ID,
	}, nil
}

// Close discards a session explicitly.
func (s *ExplorerService) Close(sessionID string, principal *models.Principal) error {
	sess, err := s.lookup(sessionID, principal)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()
	s.metrics.SessionClosed()
	return nil
}

func (s *ExplorerService) lookup(sessionID string, principal *models.Principal) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.ErrSessionExpired
	}
	if sess.OwnerID != principal.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "session belongs to another user")
	}
	if time.Since(sess.lastAccess) > s.sessionTTL {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		s.metrics.SessionClosed()
		return nil, appErrors.ErrSessionExpired
	}
	return sess, nil
}

// ListFolder navigates the session to folderID and lists its discoverable
// children. Navigating to a different folder or changing the listing filter
// clears the selection so stale picks never leak into a bulk operation.
func (s *ExplorerService) ListFolder(ctx context.Context, sessionID, folderID string, filter *dto.FolderFilter, principal *models.Principal) (*dto.ListFolderResponse, error) {
	var itemFilter *models.ItemFilter
	if !filter.Empty() {
		if !principal.IsArchivist() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "listing filters are restricted to archivists")
		}
		var err error
		itemFilter, err = models.NewItemFilter(filter.CreatorRoles, filter.VisibleTo, filter.AccessibleTo)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid listing filter")
		}
	}

	sess, err := s.lookup(sessionID, principal)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	folder, err := sess.tree.Item(folderID)
	if err != nil {
		return nil, err
	}
	if folder.IsFile() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "item is not a folder")
	}
	if !sess.strategy.CanDiscover(principal, folder) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
	}

	if sess.CurrentFolderID != folderID {
		sess.CurrentFolderID = folderID
		sess.sel.Clear()
	}
	if itemFilter.Key() != sess.filter.Key() {
		sess.filter = itemFilter
		sess.sel.Clear()
	}

	children, err := sess.tree.ChildrenOf(ctx, folderID)
	if err != nil {
		return nil, err
	}

	verdict, err := sess.strategy.AggregateRead(ctx, principal, folderID)
	if err != nil {
		return nil, err
	}

	showPolicy := principal.IsArchivist() || principal.IsDepositorOf(sess.DatasetID)
	entries := make([]dto.FolderEntry, 0, len(children))
	for i := range children {
		child := children[i]
		if !sess.strategy.CanDiscover(principal, &child) {
			continue
		}
		if child.IsFile() && !sess.filter.Matches(&child) {
			continue
		}
		entry := dto.FolderEntry{
			ID:       child.ID,
			Name:     child.Name,
			Kind:     string(child.Kind),
			Selected: sess.sel.Contains(child.ID),
		}
		if showPolicy {
			entry.CreatorRole = string(child.CreatorRole)
			entry.VisibleTo = string(child.VisibleTo)
			entry.AccessibleTo = string(child.AccessibleTo)
		}
		if child.IsFile() {
			readable := sess.strategy.CanRead(principal, &child)
			entry.Readable = &readable
			entry.SizeBytes = child.SizeBytes
		} else {
			childVerdict, err := sess.strategy.AggregateRead(ctx, principal, child.ID)
			if err != nil {
				return nil, err
			}
			entry.Verdict = childVerdict.String()
		}
		entries = append(entries, entry)
	}

	return &dto.ListFolderResponse{
		FolderID: folderID,
		Verdict:  verdict.String(),
		Entries:  entries,
	}, nil
}

// UpdateSelection applies one selection mutation and returns the new snapshot.
func (s *ExplorerService) UpdateSelection(ctx context.Context, sessionID string, req *dto.SelectionRequest, principal *models.Principal) (*dto.SelectionSnapshot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection payload")
	}
	sess, err := s.lookup(sessionID, principal)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	switch req.Action {
	case "toggle":
		if _, err := sess.tree.ChildrenOf(ctx, sess.CurrentFolderID); err != nil {
			return nil, err
		}
		item, err := sess.tree.Item(req.ItemID)
		if err != nil {
			return nil, err
		}
		if !sess.strategy.CanDiscover(principal, item) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		sess.sel.Toggle(item.ID, item.Kind)
	case "all":
		children, err := sess.tree.ChildrenOf(ctx, sess.CurrentFolderID)
		if err != nil {
			return nil, err
		}
		visible := make([]models.Item, 0, len(children))
		for i := range children {
			if !sess.strategy.CanDiscover(principal, &children[i]) {
				continue
			}
			if children[i].IsFile() && !sess.filter.Matches(&children[i]) {
				continue
			}
			visible = append(visible, children[i])
		}
		sess.sel.SelectAll(visible)
	case "none":
		sess.sel.Clear()
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown selection action")
	}

	return snapshotOf(sess.sel), nil
}

// Selection returns the current selection without mutating it.
func (s *ExplorerService) Selection(sessionID string, principal *models.Principal) (*dto.SelectionSnapshot, error) {
	sess, err := s.lookup(sessionID, principal)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()
	return snapshotOf(sess.sel), nil
}

func snapshotOf(sel *selection.Selection) *dto.SelectionSnapshot {
	return &dto.SelectionSnapshot{
		Files:   sel.Files(),
		Folders: sel.Folders(),
		Count:   sel.Count(),
	}
}

// Download resolves the selection and either returns the packaged content
// (fast path) or the confirmation payload (slow path).
func (s *ExplorerService) Download(ctx context.Context, sessionID string, principal *models.Principal) (*selection.DownloadOutcome, *dto.DownloadConfirmation, error) {
	sess, err := s.lookup(sessionID, principal)
	if err != nil {
		return nil, nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	dataset, err := s.datasets.Get(ctx, sess.DatasetID)
	if err != nil {
		return nil, nil, err
	}

	started := time.Now()
	outcome, err := sess.coordinator.Download(ctx, dataset, sess.sel, sess.CurrentFolderID, principal)
	if err != nil {
		return nil, nil, err
	}

	if outcome.Decision == selection.SlowPath {
		ids := make([]string, 0, len(outcome.Requested))
		for i := range outcome.Requested {
			ids = append(ids, outcome.Requested[i].ID)
		}
		return outcome, &dto.DownloadConfirmation{
			RequestedCount:  len(outcome.Requested),
			SelectedCount:   outcome.SelectedCount,
			RequestedIDs:    ids,
			RequiresLicense: dataset.HasAdditionalLicense,
			TermsAccepted:   principal.AcceptedTerms,
		}, nil
	}

	s.metrics.ObserveDownload(outcome.Decision.String(), outcome.Package.SizeBytes, time.Since(started))
	s.audit.Record(principal.UserID, models.AuditActionDownload, sess.DatasetID, outcome.Package.ItemIDs, "fast path")
	return outcome, nil, nil
}

// ConfirmDownload packages the selection after the user accepted the
// slow-path dialog.
func (s *ExplorerService) ConfirmDownload(ctx context.Context, sessionID string, principal *models.Principal) (*selection.PackageResult, error) {
	sess, err := s.lookup(sessionID, principal)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	dataset, err := s.datasets.Get(ctx, sess.DatasetID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	pkg, err := sess.coordinator.ConfirmDownload(ctx, dataset, sess.sel, sess.CurrentFolderID, principal)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveDownload(selection.SlowPath.String(), pkg.SizeBytes, time.Since(started))
	s.audit.Record(principal.UserID, models.AuditActionDownload, sess.DatasetID, pkg.ItemIDs, "confirmed")
	return pkg, nil
}

// ApplyRights changes VisibleTo and/or AccessibleTo on the selected items.
// Archivists only, and only while the dataset is not published.
func (s *ExplorerService) ApplyRights(ctx context.Context, sessionID string, req *dto.RightsUpdateRequest, principal *models.Principal) error {
	sess, err := s.lookup(sessionID, principal)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	if !principal.IsArchivist() {
		return appErrors.Clone(appErrors.ErrForbidden, "rights changes require the archivist role")
	}

	dataset, err := s.datasets.Get(ctx, sess.DatasetID)
	if err != nil {
		return err
	}
	if !dataset.Mutable() {
		return appErrors.ErrDatasetPublished
	}

	var visibleTo *models.VisibleTo
	if req.VisibleTo != nil {
		v, err := models.ParseVisibleTo(*req.VisibleTo)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		visibleTo = &v
	}
	var accessibleTo *models.AccessibleTo
	if req.AccessibleTo != nil {
		a, err := models.ParseAccessibleTo(*req.AccessibleTo)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		accessibleTo = &a
	}

	ids := append(sess.sel.Files(), sess.sel.Folders()...)
	if err := sess.coordinator.ApplyRightsChange(ctx, sess.sel, sess.CurrentFolderID, visibleTo, accessibleTo); err != nil {
		return err
	}

	s.datasets.Invalidate(ctx, sess.DatasetID)
	s.audit.Record(principal.UserID, models.AuditActionRightsUpdate, sess.DatasetID, ids, "scopes updated")
	return nil
}

// DeleteSelection removes the selected items. Allowed for archivists on any
// unpublished dataset and for the depositor while the dataset is a draft.
func (s *ExplorerService) DeleteSelection(ctx context.Context, sessionID string, principal *models.Principal) error {
	sess, err := s.lookup(sessionID, principal)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	dataset, err := s.datasets.Get(ctx, sess.DatasetID)
	if err != nil {
		return err
	}
	if !dataset.Mutable() {
		return appErrors.ErrDatasetPublished
	}
	allowed := principal.IsArchivist() ||
		(principal.IsDepositorOf(sess.DatasetID) && dataset.State == models.DatasetDraft)
	if !allowed {
		return appErrors.Clone(appErrors.ErrForbidden, "not allowed to delete items in this dataset")
	}

	ids := append(sess.sel.Files(), sess.sel.Folders()...)
	if err := sess.coordinator.ApplyDelete(ctx, sess.sel, sess.CurrentFolderID); err != nil {
		return err
	}

	s.audit.Record(principal.UserID, models.AuditActionItemDelete, sess.DatasetID, ids, "items deleted")
	return nil
}
