package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-depot/archive-api/internal/models"
	appErrors "github.com/open-depot/archive-api/pkg/errors"
)

type fakeProvider struct {
	children  map[string][]models.Item
	versions  map[string]int64
	loadCalls map[string]int
	err       error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		children:  map[string][]models.Item{},
		versions:  map[string]int64{},
		loadCalls: map[string]int{},
	}
}

func (f *fakeProvider) LoadChildren(_ context.Context, folderID string) ([]models.Item, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	f.loadCalls[folderID]++
	return f.children[folderID], f.versions[folderID], nil
}

func (f *fakeProvider) FolderVersion(_ context.Context, folderID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.versions[folderID], nil
}

func folder(id string) models.Item {
	return models.Item{
		ID:           id,
		Kind:         models.KindFolder,
		Name:         id,
		VisibleTo:    models.VisibleToAnyone,
		AccessibleTo: models.AccessibleToAnyone,
	}
}

func file(id string, size int64) models.Item {
	return models.Item{
		ID:           id,
		Kind:         models.KindFile,
		Name:         id + ".dat",
		VisibleTo:    models.VisibleToAnyone,
		AccessibleTo: models.AccessibleToAnyone,
		SizeBytes:    size,
	}
}

func TestChildrenOfLoadsLazily(t *testing.T) {
	provider := newFakeProvider()
	provider.children["root"] = []models.Item{file("a", 1), folder("sub")}
	provider.versions["root"] = 1

	tr := New(provider, folder("root"), nil)

	children, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, 1, provider.loadCalls["root"])

	// Second read is served from cache while the version is unchanged.
	children, err = tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, 1, provider.loadCalls["root"])
}

func TestChildrenOfRefetchesOnVersionBump(t *testing.T) {
	provider := newFakeProvider()
	provider.children["root"] = []models.Item{file("a", 1)}
	provider.versions["root"] = 1

	tr := New(provider, folder("root"), nil)
	_, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)

	provider.children["root"] = []models.Item{file("a", 1), file("b", 2)}
	provider.versions["root"] = 2

	children, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, 2, provider.loadCalls["root"])
}

func TestChildrenOfUnknownFolder(t *testing.T) {
	tr := New(newFakeProvider(), folder("root"), nil)
	_, err := tr.ChildrenOf(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestChildrenOfRejectsFile(t *testing.T) {
	provider := newFakeProvider()
	provider.children["root"] = []models.Item{file("a", 1)}
	tr := New(provider, folder("root"), nil)
	_, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)

	_, err = tr.ChildrenOf(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestChildrenOfRejectsInvalidStoreItem(t *testing.T) {
	provider := newFakeProvider()
	bad := file("a", 1)
	bad.AccessibleTo = models.AccessibleTo("RESTRICTED_GROUP")
	provider.children["root"] = []models.Item{bad}

	tr := New(provider, folder("root"), nil)
	_, err := tr.ChildrenOf(context.Background(), "root")
	require.Error(t, err)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	provider := newFakeProvider()
	provider.children["root"] = []models.Item{folder("sub")}
	provider.children["sub"] = []models.Item{file("a", 1)}

	tr := New(provider, folder("root"), nil)
	_, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)
	_, err = tr.ChildrenOf(context.Background(), "sub")
	require.NoError(t, err)

	tr.Invalidate("root")

	// Descendant cache is gone too.
	_, err = tr.Item("a")
	require.Error(t, err)

	_, err = tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.loadCalls["root"])
}

func TestRemoveChildDetachesWithoutStoreRoundTrip(t *testing.T) {
	provider := newFakeProvider()
	provider.children["root"] = []models.Item{file("a", 1), file("b", 2)}

	tr := New(provider, folder("root"), nil)
	_, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)

	tr.RemoveChild("root", "a")

	children, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "b", children[0].ID)
	assert.Equal(t, 1, provider.loadCalls["root"])

	_, err = tr.Item("a")
	require.Error(t, err)
}

func TestItemReturnsCopy(t *testing.T) {
	provider := newFakeProvider()
	provider.children["root"] = []models.Item{file("a", 1)}
	tr := New(provider, folder("root"), nil)
	_, err := tr.ChildrenOf(context.Background(), "root")
	require.NoError(t, err)

	item, err := tr.Item("a")
	require.NoError(t, err)
	item.Name = "mutated"

	again, err := tr.Item("a")
	require.NoError(t, err)
	assert.Equal(t, "a.dat", again.Name)
}
