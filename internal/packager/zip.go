// Package packager assembles selected archive items into a downloadable zip
// with a CSV manifest and a PDF receipt.
package packager

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/open-depot/archive-api/internal/authz"
	"github.com/open-depot/archive-api/internal/models"
	"github.com/open-depot/archive-api/internal/selection"
	"github.com/open-depot/archive-api/internal/tree"
	appErrors "github.com/open-depot/archive-api/pkg/errors"
	"github.com/open-depot/archive-api/pkg/export"
)

// ContentOpener streams a file payload by its storage key.
type ContentOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ZipPackager implements the coordinator's packager over the object store.
// It walks requested folders through the session tree and only ships files
// the principal may read.
type ZipPackager struct {
	tree       *tree.Tree
	strategy   *authz.Strategy
	content    ContentOpener
	limits     selection.PackageLimits
	scratchDir string
	logger     *zap.Logger
}

// New constructs a packager bound to one browsing session.
func New(t *tree.Tree, strategy *authz.Strategy, content ContentOpener, limits selection.PackageLimits, scratchDir string, logger *zap.Logger) *ZipPackager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &ZipPackager{
		tree:       t,
		strategy:   strategy,
		content:    content,
		limits:     limits,
		scratchDir: scratchDir,
		logger:     logger,
	}
}

// Limits returns the declared packaging bounds.
func (p *ZipPackager) Limits() selection.PackageLimits {
	return p.limits
}

type packedFile struct {
	item models.Item
	path string
}

// Package zips the requested items into a scratch file and returns it as a
// stream. The caller owns closing the returned content.
func (p *ZipPackager) Package(ctx context.Context, dataset *models.Dataset, items []models.Item, principal *models.Principal) (*selection.PackageResult, error) {
	files, err := p.collect(ctx, items, "", principal)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no readable files in request")
	}

	scratch, err := os.CreateTemp(p.scratchDir, "package-*.zip")
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	cleanup := func() {
		scratch.Close()           //nolint:errcheck
		os.Remove(scratch.Name()) //nolint:errcheck
	}

	manifest := export.Manifest{
		DatasetID: dataset.ID,
		CreatedAt: time.Now().UTC(),
	}
	itemIDs := make([]string, 0, len(files))

	zw := zip.NewWriter(scratch)
	for _, file := range files {
		entry, err := zw.Create(file.path)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("create zip entry %s: %w", file.path, err)
		}
		content, err := p.content.Open(ctx, file.item.StorageKey)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("open content for %s: %w", file.item.ID, err)
		}
		if _, err := io.Copy(entry, content); err != nil {
			content.Close() //nolint:errcheck
			cleanup()
			return nil, fmt.Errorf("write zip entry %s: %w", file.path, err)
		}
		content.Close() //nolint:errcheck

		manifest.Entries = append(manifest.Entries, export.ManifestEntry{
			Path:         file.path,
			SizeBytes:    file.item.SizeBytes,
			AccessibleTo: string(file.item.AccessibleTo),
		})
		itemIDs = append(itemIDs, file.item.ID)
	}

	if err := p.writeManifest(zw, manifest, principal); err != nil {
		cleanup()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		cleanup()
		return nil, fmt.Errorf("finalize zip: %w", err)
	}

	info, err := scratch.Stat()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("stat scratch file: %w", err)
	}
	if _, err := scratch.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, fmt.Errorf("rewind scratch file: %w", err)
	}

	p.logger.Info("package assembled",
		zap.String("dataset_id", dataset.ID),
		zap.Int("files", len(files)),
		zap.Int64("bytes", info.Size()))

	return &selection.PackageResult{
		Content:   &scratchFile{File: scratch},
		Filename:  fmt.Sprintf("%s.zip", dataset.ID),
		SizeBytes: info.Size(),
		Manifest:  manifest,
		ItemIDs:   itemIDs,
	}, nil
}

func (p *ZipPackager) writeManifest(zw *zip.Writer, manifest export.Manifest, principal *models.Principal) error {
	manifestCSV, err := export.RenderCSV(manifest)
	if err != nil {
		return fmt.Errorf("render manifest: %w", err)
	}
	entry, err := zw.Create("manifest.csv")
	if err != nil {
		return fmt.Errorf("create manifest entry: %w", err)
	}
	if _, err := entry.Write(manifestCSV); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	receipt, err := export.RenderReceipt(manifest, principal.UserID)
	if err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	entry, err = zw.Create("receipt.pdf")
	if err != nil {
		return fmt.Errorf("create receipt entry: %w", err)
	}
	if _, err := entry.Write(receipt); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	return nil
}

// collect expands folders into readable file descendants, assigning each
// file its path inside the zip.
func (p *ZipPackager) collect(ctx context.Context, items []models.Item, prefix string, principal *models.Principal) ([]packedFile, error) {
	var out []packedFile
	for i := range items {
		item := items[i]
		if item.IsFile() {
			if !p.strategy.CanRead(principal, &item) {
				continue
			}
			out = append(out, packedFile{item: item, path: path.Join(prefix, item.Name)})
			continue
		}
		children, err := p.tree.ChildrenOf(ctx, item.ID)
		if err != nil {
			if appErrors.Is(err, appErrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		nested, err := p.collect(ctx, children, path.Join(prefix, item.Name), principal)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

// scratchFile removes the backing temp file once the stream is closed.
type scratchFile struct {
	*os.File
}

func (f *scratchFile) Close() error {
	err := f.File.Close()
	os.Remove(f.File.Name()) //nolint:errcheck
	return err
}
