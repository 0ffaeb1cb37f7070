package stamp_test

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flourishbhp/truecopy/internal/stamp"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func TestPlace(t *testing.T) {
	t.Parallel()

	def := image.Pt(25, 25)
	mark := image.Pt(500, 500)

	tests := []struct {
		name string
		base image.Point
		mark image.Point
		want stamp.Placement
	}{
		{
			name: "square keeps default",
			base: image.Pt(600, 600),
			want: stamp.Placement{At: def},
		},
		{
			name: "portrait centred on bottom edge",
			base: image.Pt(800, 1000),
			want: stamp.Placement{At: image.Pt(150, 500)},
		},
		{
			name: "landscape rotated on right edge",
			base: image.Pt(1000, 800),
			want: stamp.Placement{Rotate: true, At: image.Pt(500, 150)},
		},
		{
			name: "odd portrait rounds halves to even",
			base: image.Pt(5, 9),
			mark: image.Pt(3, 3),
			want: stamp.Placement{At: image.Pt(0, 6)},
		},
		{
			name: "stamp larger than base",
			base: image.Pt(300, 400),
			want: stamp.Placement{At: image.Pt(-100, -100)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			size := tc.mark
			if size == (image.Point{}) {
				size = mark
			}

			assert.Equal(t, tc.want, stamp.Place(tc.base, size, def))
		})
	}
}

func TestPlaceLandscapeUsesRotatedDimensions(t *testing.T) {
	t.Parallel()

	got := stamp.Place(image.Pt(1000, 800), image.Pt(200, 100), image.Pt(25, 25))

	assert.True(t, got.Rotate)
	assert.Equal(t, image.Pt(900, 300), got.At)
}

// writeAsset writes a stamp whose left half is opaque red and right half transparent.
func writeAsset(t *testing.T) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))

	for y := range 100 {
		for x := range 50 {
			img.SetNRGBA(x, y, red)
		}
	}

	path := filepath.Join(t.TempDir(), "true-copy.png")
	require.NoError(t, imaging.Save(img, path))

	return path
}

func blank(w, h int) *image.NRGBA {
	return imaging.New(w, h, white)
}

func TestApplyOrientation(t *testing.T) {
	t.Parallel()

	asset := writeAsset(t)
	stamper := stamp.New(asset, image.Pt(500, 500), image.Pt(25, 25))

	tests := []struct {
		name  string
		base  *image.NRGBA
		red   []image.Point
		white []image.Point
	}{
		{
			name:  "portrait",
			base:  blank(800, 1000),
			red:   []image.Point{{200, 750}, {160, 990}},
			white: []image.Point{{600, 750}, {200, 400}, {10, 990}},
		},
		{
			name: "landscape",
			base: blank(1000, 800),
			// the opaque left half ends up at the bottom once rotated
			red:   []image.Point{{750, 600}, {990, 640}},
			white: []image.Point{{750, 200}, {750, 700}, {400, 600}},
		},
		{
			name:  "square",
			base:  blank(600, 600),
			red:   []image.Point{{30, 30}, {200, 500}},
			white: []image.Point{{400, 30}, {560, 560}, {10, 10}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out, err := stamper.Apply(tc.base)
			require.NoError(t, err)
			assert.Equal(t, tc.base.Bounds(), out.Bounds())

			for _, p := range tc.red {
				assert.Equal(t, red, out.NRGBAAt(p.X, p.Y), "pixel %v", p)
			}

			for _, p := range tc.white {
				assert.Equal(t, white, out.NRGBAAt(p.X, p.Y), "pixel %v", p)
			}
		})
	}
}

func TestApplyKeepsAssetSizeWhenResizeDisabled(t *testing.T) {
	t.Parallel()

	stamper := stamp.New(writeAsset(t), image.Point{}, image.Pt(25, 25))

	mark, err := stamper.Load()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(100, 100), mark.Bounds().Size())
}

func TestApplyMissingAsset(t *testing.T) {
	t.Parallel()

	stamper := stamp.New(filepath.Join(t.TempDir(), "missing.png"), image.Pt(500, 500), image.Pt(25, 25))

	_, err := stamper.Apply(blank(10, 10))
	assert.Error(t, err)
}

func TestCompositeEmptyBase(t *testing.T) {
	t.Parallel()

	stamper := stamp.New("", image.Point{}, image.Point{})

	_, err := stamper.Composite(image.NewNRGBA(image.Rect(0, 0, 0, 0)), image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, stamp.ErrEmptyImage)
}
