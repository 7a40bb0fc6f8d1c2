package tree

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/open-depot/archive-api/internal/models"
	appErrors "github.com/open-depot/archive-api/pkg/errors"
)

// Provider materializes folder children from the backing store. The version
// returned alongside the children changes whenever the folder's content or
// policy changes, allowing cached reads to detect concurrent mutation.
type Provider interface {
	LoadChildren(ctx context.Context, folderID string) ([]models.Item, int64, error)
	FolderVersion(ctx context.Context, folderID string) (int64, error)
}

// Tree is the in-memory representation of one dataset's folder/file
// hierarchy, scoped to a single browsing session. Children are materialized
// lazily, folder by folder, through the provider; all other side effects are
// confined to the cache itself.
type Tree struct {
	provider Provider
	logger   *zap.Logger

	mu       sync.Mutex
	rootID   string
	items    map[string]*models.Item
	children map[string][]string
	versions map[string]int64
	loaded   map[string]bool
}

// New builds a tree rooted at the dataset's root folder.
func New(provider Provider, root models.Item, logger *zap.Logger) *Tree {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tree{
		provider: provider,
		logger:   logger,
		rootID:   root.ID,
		items:    map[string]*models.Item{},
		children: map[string][]string{},
		versions: map[string]int64{},
		loaded:   map[string]bool{},
	}
	rootCopy := root
	t.items[root.ID] = &rootCopy
	return t
}

// RootID returns the id of the dataset's root folder.
func (t *Tree) RootID() string {
	return t.rootID
}

// Item returns the cached node for id.
func (t *Tree) Item(id string) (*models.Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	item, ok := t.items[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found: "+id)
	}
	copy := *item
	return &copy, nil
}

// ChildrenOf returns the ordered children of a folder, materializing them
// from the backing store on first access. Repeated calls before invalidation
// return the same set, unless the provider reports a newer folder version,
// in which case the stale cache is dropped and re-fetched.
func (t *Tree) ChildrenOf(ctx context.Context, folderID string) ([]models.Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.childrenLocked(ctx, folderID)
}

func (t *Tree) childrenLocked(ctx context.Context, folderID string) ([]models.Item, error) {
	folder, ok := t.items[folderID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "folder not found: "+folderID)
	}
	if folder.Kind != models.KindFolder {
		return nil, appErrors.Clone(appErrors.ErrValidation, "item is not a folder: "+folderID)
	}

	if t.loaded[folderID] {
		version, err := t.provider.FolderVersion(ctx, folderID)
		if err != nil {
			return nil, err
		}
		if version == t.versions[folderID] {
			return t.snapshotLocked(folderID), nil
		}
		t.logger.Debug("stale folder cache detected",
			zap.String("folder_id", folderID),
			zap.Int64("cached_version", t.versions[folderID]),
			zap.Int64("store_version", version))
		t.invalidateLocked(folderID)
	}

	items, version, err := t.provider.LoadChildren(ctx, folderID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for i := range items {
		item := items[i]
		if err := item.Validate(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid item from store")
		}
		t.items[item.ID] = &item
		ids = append(ids, item.ID)
	}
	t.children[folderID] = ids
	t.versions[folderID] = version
	t.loaded[folderID] = true
	return t.snapshotLocked(folderID), nil
}

// Invalidate drops the cached children of a folder, and of every cached
// descendant, so the next access re-fetches from the store. Called after any
// mutation that could change the folder's content or policy.
func (t *Tree) Invalidate(folderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.invalidateLocked(folderID)
}

func (t *Tree) invalidateLocked(folderID string) {
	ids := t.children[folderID]
	for _, id := range ids {
		t.invalidateLocked(id)
		delete(t.items, id)
	}
	delete(t.children, folderID)
	delete(t.versions, folderID)
	delete(t.loaded, folderID)
}

// RemoveChild detaches a child the caller already deleted from the backing
// store, without a store round trip. The child's cached subtree is evicted.
func (t *Tree) RemoveChild(folderID, childID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := t.children[folderID]
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == childID {
			continue
		}
		kept = append(kept, id)
	}
	t.children[folderID] = kept
	t.invalidateLocked(childID)
	delete(t.items, childID)
}

func (t *Tree) snapshotLocked(folderID string) []models.Item {
	ids := t.children[folderID]
	out := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := t.items[id]; ok {
			out = append(out, *item)
		}
	}
	return out
}
