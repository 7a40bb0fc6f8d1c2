// Package authz decides, for a principal and a dataset subtree, which items
// are discoverable and readable, and summarizes readability over folders as
// a tri-state verdict.
package authz

import (
	"context"

	"github.com/open-depot/archive-api/internal/models"
	appErrors "github.com/open-depot/archive-api/pkg/errors"
)

// ItemSource is the tree the strategy traverses. The session tree satisfies
// it; traversal may trigger lazy materialization from the backing store.
type ItemSource interface {
	Item(id string) (*models.Item, error)
	ChildrenOf(ctx context.Context, folderID string) ([]models.Item, error)
}

// Strategy evaluates item policy for one principal at a time. It holds no
// per-principal state; verdicts are memoized per AggregateRead call only,
// never across calls, because policy can change between calls.
type Strategy struct {
	source ItemSource
}

// New constructs a strategy over the given item source.
func New(source ItemSource) *Strategy {
	return &Strategy{source: source}
}

// CanRead reports whether the principal may read the item's content. For a
// folder this gates the folder as a unit, not its children: descendants are
// always evaluated independently. Archivists bypass per-item accessibility.
func (s *Strategy) CanRead(principal *models.Principal, item *models.Item) bool {
	if item == nil {
		return false
	}
	if principal.IsArchivist() {
		return true
	}
	return scopeAdmits(principal, string(item.AccessibleTo))
}

// CanDiscover reports whether the item may appear in listings at all,
// independent of readability.
func (s *Strategy) CanDiscover(principal *models.Principal, item *models.Item) bool {
	if item == nil {
		return false
	}
	if principal.IsArchivist() {
		return true
	}
	return scopeAdmits(principal, string(item.VisibleTo))
}

// AggregateRead evaluates every reachable FILE descendant of the folder and
// folds the results into a tri-state verdict. A folder with zero file
// descendants yields NONE. Missing descendants count as unreadable
// (fail-closed) without aborting the aggregation of their siblings; only a
// directly requested missing folder surfaces NotFound. Store unavailability
// always propagates rather than being turned into a false verdict.
func (s *Strategy) AggregateRead(ctx context.Context, principal *models.Principal, folderID string) (models.ReadVerdict, error) {
	item, err := s.source.Item(folderID)
	if err != nil {
		return models.VerdictNone, err
	}
	if item.IsFile() {
		if s.CanRead(principal, item) {
			return models.VerdictAll, nil
		}
		return models.VerdictNone, nil
	}

	memo := map[string][2]int{}
	readable, total, err := s.countReadable(ctx, principal, folderID, memo)
	if err != nil {
		return models.VerdictNone, err
	}
	return models.VerdictFromCounts(readable, total), nil
}

// countReadable walks the subtree once, memoizing per-folder counts so a
// shared subtree is never traversed twice within one call.
func (s *Strategy) countReadable(ctx context.Context, principal *models.Principal, folderID string, memo map[string][2]int) (int, int, error) {
	if counts, ok := memo[folderID]; ok {
		return counts[0], counts[1], nil
	}

	children, err := s.source.ChildrenOf(ctx, folderID)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrNotFound) {
			// Fail closed: a vanished folder contributes nothing readable.
			memo[folderID] = [2]int{0, 0}
			return 0, 0, nil
		}
		return 0, 0, err
	}

	readable, total := 0, 0
	for i := range children {
		child := children[i]
		if child.IsFile() {
			total++
			if s.CanRead(principal, &child) {
				readable++
			}
			continue
		}
		r, t, err := s.countReadable(ctx, principal, child.ID, memo)
		if err != nil {
			return 0, 0, err
		}
		readable += r
		total += t
	}
	memo[folderID] = [2]int{readable, total}
	return readable, total, nil
}

// scopeAdmits applies the shared scope logic: ANYONE admits everyone,
// KNOWN_USER admits authenticated principals that accepted the usage terms,
// NONE admits nobody (the archivist override is handled by the callers).
func scopeAdmits(principal *models.Principal, scope string) bool {
	switch scope {
	case string(models.AccessibleToAnyone):
		return true
	case string(models.AccessibleToKnownUser):
		return principal.IsKnown()
	default:
		return false
	}
}
