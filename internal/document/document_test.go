package document_test

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flourishbhp/truecopy/internal/document"
	"github.com/flourishbhp/truecopy/internal/media"
	"github.com/flourishbhp/truecopy/internal/record"
	"github.com/flourishbhp/truecopy/internal/stamp"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// fixture lays out a media root with the stamp asset in place.
func fixture(t *testing.T) (*media.Storage, *stamp.Stamper) {
	t.Helper()

	root := t.TempDir()

	mark := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for y := range 100 {
		for x := range 50 {
			mark.SetNRGBA(x, y, red)
		}
	}

	asset := filepath.Join(root, "stamp", "true-copy.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(asset), 0o755))
	require.NoError(t, imaging.Save(mark, asset))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "uploads"), 0o755))

	storage, err := media.New(root)
	require.NoError(t, err)

	return storage, stamp.New(asset, image.Pt(500, 500), image.Pt(25, 25))
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()

	return r>>8 > 200 && g>>8 < 60 && b>>8 < 60
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()

	return r>>8 > 200 && g>>8 > 200 && b>>8 > 200
}

func TestIsPDF(t *testing.T) {
	t.Parallel()

	assert.True(t, document.IsPDF("media/uploads/consent.pdf"))
	assert.True(t, document.IsPDF("media/uploads/consent.pdf.bak"))
	assert.False(t, document.IsPDF("media/uploads/consent.PDF"))
	assert.False(t, document.IsPDF("media/uploads/photo.png"))
}

func TestFinalizeLandscapeImage(t *testing.T) {
	t.Parallel()

	storage, stamper := fixture(t)
	path, err := storage.Path("uploads/photo.png")
	require.NoError(t, err)
	require.NoError(t, imaging.Save(imaging.New(1000, 800, white), path))

	finalizer := document.New(storage, stamper)
	upload := record.Upload{ID: 1, SubjectIdentifier: "1234-0001", Name: "uploads/photo.png", UploadTo: "uploads/"}

	require.NoError(t, finalizer.Finalize(context.Background(), upload))

	out, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(1000, 800), out.Bounds().Size())

	// rotated stamp spans x 500..1000, y 150..650 with its opaque half at the bottom
	assert.True(t, isRed(out.At(750, 600)))
	assert.True(t, isWhite(out.At(750, 200)))
	assert.True(t, isWhite(out.At(400, 400)))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFinalizeJPEGKeepsFormat(t *testing.T) {
	t.Parallel()

	storage, stamper := fixture(t)
	path, err := storage.Path("uploads/scan.jpg")
	require.NoError(t, err)
	require.NoError(t, imaging.Save(imaging.New(800, 1000, white), path))

	require.NoError(t, document.New(storage, stamper).StampImage(context.Background(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestFinalizeWithoutFile(t *testing.T) {
	t.Parallel()

	storage, stamper := fixture(t)

	err := document.New(storage, stamper).Finalize(context.Background(), record.Upload{ID: 3})
	assert.ErrorIs(t, err, document.ErrNoFile)
}

func TestFinalizeCorruptImage(t *testing.T) {
	t.Parallel()

	storage, stamper := fixture(t)
	path, err := storage.Path("uploads/broken.png")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	err = document.New(storage, stamper).Finalize(context.Background(), record.Upload{ID: 4, Name: "uploads/broken.png"})
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not an image", string(data))
}

func TestFinalizePDF(t *testing.T) {
	t.Parallel()

	storage, stamper := fixture(t)
	path, err := storage.Path("uploads/consent.pdf")
	require.NoError(t, err)

	// pages in points: portrait, landscape, square
	pages := []image.Image{
		imaging.New(300, 400, white),
		imaging.New(400, 300, white),
		imaging.New(300, 300, white),
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, document.Assemble(f, pages))
	require.NoError(t, f.Close())

	finalizer := document.New(storage, stamper, document.WithParallel(2))
	require.NoError(t, finalizer.Finalize(context.Background(), record.Upload{ID: 5, Name: "uploads/consent.pdf"}))

	count, err := api.PageCountFile(path)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	// the rewritten pages are sized in pixels of the 300 dpi render, read them back 1:1
	rendered, err := document.Rasterize(context.Background(), path, 72)
	require.NoError(t, err)
	require.Len(t, rendered, 3)

	portrait, landscape, square := rendered[0], rendered[1], rendered[2]

	ps := portrait.Bounds().Size()
	assert.Less(t, ps.X, ps.Y)
	assert.True(t, isRed(portrait.At(ps.X/2-125, ps.Y-100)), "portrait stamp bottom centre")
	assert.True(t, isWhite(portrait.At(ps.X/2, 100)))

	ls := landscape.Bounds().Size()
	assert.Greater(t, ls.X, ls.Y)
	assert.True(t, isRed(landscape.At(ls.X-250, ls.Y/2+125)), "landscape stamp right centre")
	assert.True(t, isWhite(landscape.At(100, ls.Y/2)))

	ss := square.Bounds().Size()
	assert.Equal(t, ss.X, ss.Y)
	assert.True(t, isRed(square.At(100, 100)), "square stamp at default position")
	assert.True(t, isWhite(square.At(ss.X-100, ss.Y-100)))
}

func TestFinalizeCorruptPDF(t *testing.T) {
	t.Parallel()

	storage, stamper := fixture(t)
	path, err := storage.Path("uploads/broken.pdf")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-garbage"), 0o600))

	err = document.New(storage, stamper).Finalize(context.Background(), record.Upload{ID: 6, Name: "uploads/broken.pdf"})
	assert.Error(t, err)
}

func TestAssembleRequiresPages(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, document.Assemble(nil, nil), document.ErrNoPages)
}
