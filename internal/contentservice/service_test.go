package contentservice

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/marquee/internal/apperr"
	"github.com/starford/marquee/internal/cells"
	"github.com/starford/marquee/internal/configstore"
	"github.com/starford/marquee/internal/images"
	"github.com/starford/marquee/internal/models"
	"github.com/starford/marquee/internal/testutil"
)

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	root, fs := testutil.TestRoot(t)
	logger := testutil.Logger()
	imgs := images.New(fs, logger)
	svc := NewService(
		cells.New(fs, imgs, logger),
		imgs,
		configstore.New(fs, logger),
		testutil.TestJournal(t),
		logger,
	)
	return svc, root
}

func orderOf(t *testing.T, svc *Service, id string) int {
	t.Helper()
	cell := svc.FetchCell(context.Background(), id)
	require.NotNil(t, cell, id)
	v, ok := cell.OrderValue()
	require.True(t, ok)
	return v
}

func TestLifecycleScenario(t *testing.T) {
	svc, root := newService(t)
	ctx := context.Background()

	// First cell on an empty store.
	resA := svc.SetCell(ctx, "", models.Cell{Title: "A", Display: true})
	require.True(t, resA.Success)
	assert.True(t, cells.ValidID(resA.ID))
	idA := resA.ID
	assert.Equal(t, 1, orderOf(t, svc, idA))

	// Second cell, then exchange.
	resB := svc.SetCell(ctx, "", models.Cell{Title: "B", Display: true})
	require.True(t, resB.Success)
	idB := resB.ID
	assert.NotEqual(t, idA, idB)
	assert.Equal(t, 2, orderOf(t, svc, idB))

	require.True(t, svc.ExchangeOrders(ctx, idA, idB).Success)
	assert.Equal(t, 2, orderOf(t, svc, idA))
	assert.Equal(t, 1, orderOf(t, svc, idB))

	// Image replaced by text is cascaded.
	saved := svc.SaveImage(ctx, images.PathPicker(testutil.WriteSource(t, "photo.png", []byte("png"))))
	require.True(t, saved.Success)
	assert.Equal(t, "photo.png", saved.Name)

	require.True(t, svc.SetCell(ctx, idA, models.Cell{Title: "A2", Description: "[image='photo.png']", Display: true}).Success)
	_, err := os.Stat(filepath.Join(root, images.Dir, "photo.png"))
	require.NoError(t, err, "image kept while referenced")

	require.True(t, svc.SetCell(ctx, idA, models.Cell{Title: "A3", Display: false}).Success)
	_, err = os.Stat(filepath.Join(root, images.Dir, "photo.png"))
	assert.True(t, os.IsNotExist(err), "image cascaded on replacement")

	a := svc.FetchCell(ctx, idA)
	require.NotNil(t, a)
	assert.Equal(t, "A3", a.Title)
	assert.False(t, a.Display)
	assert.Equal(t, 2, orderOf(t, svc, idA), "order carried over")

	// Delete, then exchange with the deleted cell fails.
	require.True(t, svc.DeleteCell(ctx, idB).Success)
	assert.NotContains(t, svc.FetchCells(ctx), idB)
	res := svc.ExchangeOrders(ctx, idA, idB)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, apperr.ErrNotFound)
}

func TestSetCellIgnoresCallerOrder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		require.True(t, svc.SetCell(ctx, "", models.Cell{Title: title, Display: true}).Success)
	}

	res := svc.SetCell(ctx, "", models.Cell{Title: "D", Display: true, Order: models.IntPtr(1)})
	require.True(t, res.Success)
	assert.Equal(t, 4, orderOf(t, svc, res.ID))

	// Edits keep the stored order whatever the caller sends.
	require.True(t, svc.SetCell(ctx, res.ID, models.Cell{Title: "D2", Display: true, Order: models.IntPtr(0)}).Success)
	assert.Equal(t, 4, orderOf(t, svc, res.ID))
}

func TestConfigScenario(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	assert.Empty(t, svc.GetConfig(ctx, "missing.json"))
	assert.Empty(t, svc.GetConfig(ctx, "missing.json"))

	require.True(t, svc.SetConfig(ctx, configstore.StyleDocument, "first_color", "#112233").Success)
	require.True(t, svc.SetConfig(ctx, configstore.StyleDocument, "font_size", 18).Success)

	doc := svc.GetConfig(ctx, configstore.StyleDocument)
	assert.EqualValues(t, 18, doc["font_size"])
	assert.Equal(t, "#112233", doc["first_color"])
}

func TestFailuresAreSoft(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res := svc.SetCell(ctx, "", models.Cell{Title: " "})
	assert.False(t, res.Success)
	assert.Empty(t, res.ID)
	assert.Equal(t, apperr.KindInvalid, apperr.Kind(res.Err))

	assert.Nil(t, svc.FetchCell(ctx, "cell_1"))
	assert.False(t, svc.DeleteCell(ctx, "cell_1").Success)

	res = svc.SaveImage(ctx, images.PathPicker(""))
	assert.False(t, res.Success)
	assert.Empty(t, res.Name)
	assert.ErrorIs(t, res.Err, apperr.ErrCancelled)

	assert.False(t, svc.SetConfig(ctx, configstore.CellsDocument, "x", 1).Success)
	assert.False(t, svc.SetConfig(ctx, "../evil.json", "x", 1).Success)
	assert.Empty(t, svc.GetConfig(ctx, "../evil.json"))
}

func TestJournalRecordsOperations(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res := svc.SetCell(ctx, "", models.Cell{Title: "A"})
	require.True(t, res.Success)
	assert.False(t, svc.DeleteCell(ctx, "cell_404").Success)

	entries := svc.Journal(ctx, 10)
	require.Len(t, entries, 2)

	byOp := map[string]bool{}
	for _, e := range entries {
		byOp[e.Op] = e.Success
		if e.Op == OpDeleteCell {
			assert.Equal(t, apperr.KindNotFound, e.Kind)
			assert.Equal(t, "cell_404", e.Target)
		}
	}
	assert.True(t, byOp[OpSetCell])
	assert.Contains(t, byOp, OpDeleteCell)
	assert.False(t, byOp[OpDeleteCell])
}

func TestNilJournal(t *testing.T) {
	_, fs := testutil.TestRoot(t)
	logger := testutil.Logger()
	imgs := images.New(fs, logger)
	svc := NewService(cells.New(fs, imgs, logger), imgs, configstore.New(fs, logger), nil, logger)

	assert.True(t, svc.SetCell(context.Background(), "", models.Cell{Title: "A"}).Success)
	assert.Empty(t, svc.Journal(context.Background(), 10))
}

func TestImagesListAndDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	assert.Empty(t, svc.ListImages(ctx))
	res := svc.SaveImage(ctx, images.PathPicker(testutil.WriteSource(t, "a.gif", []byte("gif"))))
	require.True(t, res.Success)

	items := svc.ListImages(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, "a.gif", items[0].Name)

	assert.True(t, svc.DeleteImage(ctx, "a.gif").Success)
	assert.False(t, svc.DeleteImage(ctx, "a.gif").Success)
}
