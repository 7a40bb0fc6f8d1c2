package packager

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-depot/archive-api/internal/authz"
	"github.com/open-depot/archive-api/internal/models"
	"github.com/open-depot/archive-api/internal/selection"
	"github.com/open-depot/archive-api/internal/tree"
)

type fakeContent struct {
	payloads map[string]string
	opened   []string
}

func (f *fakeContent) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.opened = append(f.opened, key)
	return io.NopCloser(strings.NewReader(f.payloads[key])), nil
}

type fakeProvider struct {
	children map[string][]models.Item
}

func (f *fakeProvider) LoadChildren(_ context.Context, folderID string) ([]models.Item, int64, error) {
	return f.children[folderID], 1, nil
}

func (f *fakeProvider) FolderVersion(context.Context, string) (int64, error) {
	return 1, nil
}

func pkgFolder(id, name string) models.Item {
	return models.Item{
		ID:           id,
		Name:         name,
		Kind:         models.KindFolder,
		VisibleTo:    models.VisibleToAnyone,
		AccessibleTo: models.AccessibleToAnyone,
	}
}

func pkgFile(id, name string, accessibleTo models.AccessibleTo) models.Item {
	return models.Item{
		ID:           id,
		Name:         name,
		Kind:         models.KindFile,
		VisibleTo:    models.VisibleToAnyone,
		AccessibleTo: accessibleTo,
		SizeBytes:    4,
		StorageKey:   "ds1/" + name,
	}
}

func TestPackageBuildsZipWithManifestAndReceipt(t *testing.T) {
	provider := &fakeProvider{children: map[string][]models.Item{
		"root": {
			pkgFile("f1", "readme.txt", models.AccessibleToAnyone),
			pkgFolder("sub", "data"),
		},
		"sub": {
			pkgFile("f2", "rows.csv", models.AccessibleToAnyone),
			pkgFile("f3", "secret.csv", models.AccessibleToNone),
		},
	}}
	tr := tree.New(provider, pkgFolder("root", "root"), nil)
	strategy := authz.New(tr)
	content := &fakeContent{payloads: map[string]string{
		"ds1/readme.txt": "docs",
		"ds1/rows.csv":   "a,b",
	}}

	p := New(tr, strategy, content, selection.PackageLimits{}, t.TempDir(), nil)

	items, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)

	principal := &models.Principal{UserID: "u1", AcceptedTerms: true}
	result, err := p.Package(context.Background(), &models.Dataset{ID: "ds1"}, items, principal)
	require.NoError(t, err)
	defer result.Content.Close() //nolint:errcheck

	assert.Equal(t, "ds1.zip", result.Filename)
	assert.Equal(t, []string{"f1", "f2"}, result.ItemIDs)
	assert.NotContains(t, content.opened, "ds1/secret.csv")

	raw, err := io.ReadAll(result.Content)
	require.NoError(t, err)
	require.EqualValues(t, len(raw), result.SizeBytes)

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "readme.txt")
	assert.Contains(t, names, "data/rows.csv")
	assert.Contains(t, names, "manifest.csv")
	assert.Contains(t, names, "receipt.pdf")
	assert.NotContains(t, names, "data/secret.csv")

	for _, f := range zr.File {
		if f.Name != "manifest.csv" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		manifest, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close() //nolint:errcheck
		assert.Contains(t, string(manifest), "data/rows.csv")
	}
}

func TestPackageRejectsEmptyRequest(t *testing.T) {
	provider := &fakeProvider{children: map[string][]models.Item{
		"root": {pkgFile("f1", "secret.txt", models.AccessibleToNone)},
	}}
	tr := tree.New(provider, pkgFolder("root", "root"), nil)
	p := New(tr, authz.New(tr), &fakeContent{}, selection.PackageLimits{}, t.TempDir(), nil)

	items, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)

	principal := &models.Principal{Anonymous: true}
	_, err = p.Package(context.Background(), &models.Dataset{ID: "ds1"}, items, principal)
	require.Error(t, err)
}
