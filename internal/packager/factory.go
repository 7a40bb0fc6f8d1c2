package packager

import (
	"go.uber.org/zap"

	"github.com/open-depot/archive-api/internal/authz"
	"github.com/open-depot/archive-api/internal/selection"
	"github.com/open-depot/archive-api/internal/tree"
)

// Factory mints a ZipPackager per browsing session. Content source, limits
// and scratch directory are shared; the tree and strategy are per session.
type Factory struct {
	content    ContentOpener
	limits     selection.PackageLimits
	scratchDir string
	logger     *zap.Logger
}

func NewFactory(content ContentOpener, limits selection.PackageLimits, scratchDir string, logger *zap.Logger) *Factory {
	return &Factory{
		content:    content,
		limits:     limits,
		scratchDir: scratchDir,
		logger:     logger,
	}
}

func (f *Factory) ForTree(t *tree.Tree, strategy *authz.Strategy) selection.Packager {
	return New(t, strategy, f.content, f.limits, f.scratchDir, f.logger)
}
