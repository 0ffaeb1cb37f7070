package stamp

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrEmptyImage is returned when the base image has no pixels.
var ErrEmptyImage = errors.New("empty base image")

// Stamper composites the stamp asset onto base images.
type Stamper struct {
	// asset is the path of the stamp PNG
	asset string

	// size is the resize target, zero keeps the asset dimensions
	size image.Point

	// position is used for square base images
	position image.Point
}

// New returns a Stamper reading the stamp from asset.
func New(asset string, size, position image.Point) *Stamper {
	return &Stamper{asset: asset, size: size, position: position}
}

// Load opens the stamp asset and resizes it when a size is configured.
// The asset is read on every call so a replaced graphic is picked up.
func (s *Stamper) Load() (*image.NRGBA, error) {
	img, err := imaging.Open(s.asset)
	if err != nil {
		return nil, fmt.Errorf("opening stamp %q: %w", s.asset, err)
	}

	if s.size.X > 0 && s.size.Y > 0 {
		return imaging.Resize(img, s.size.X, s.size.Y, imaging.Lanczos), nil
	}

	return imaging.Clone(img), nil
}

// Apply loads the stamp and composites it onto base.
func (s *Stamper) Apply(base image.Image) (*image.NRGBA, error) {
	mark, err := s.Load()
	if err != nil {
		return nil, err
	}

	return s.Composite(base, mark)
}

// Composite places an already loaded stamp onto base.
// Only the opaque pixels of the stamp overwrite the base, following its alpha channel.
// Applying it to an already stamped image composites a second time.
func (s *Stamper) Composite(base image.Image, mark *image.NRGBA) (*image.NRGBA, error) {
	bounds := base.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}

	placement := Place(bounds.Size(), mark.Bounds().Size(), s.position)

	var overlay image.Image = mark
	if placement.Rotate {
		overlay = imaging.Rotate90(mark)
	}

	return imaging.Overlay(base, overlay, bounds.Min.Add(placement.At), 1), nil
}
