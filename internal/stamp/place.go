// Package stamp overlays the true-copy stamp graphic on document images.
package stamp

import (
	"image"
	"math"
)

// Placement describes where and how the stamp lands on a base image.
type Placement struct {
	// Rotate is set when the stamp must be turned 90° counter-clockwise first.
	Rotate bool
	// At is the top-left corner of the (possibly rotated) stamp on the base.
	At image.Point
}

// Place decides the stamp placement from the base and stamp dimensions.
//
// Portrait bases get the stamp centred on the bottom edge, landscape bases
// get it rotated, centred on the right edge. Square bases keep def.
func Place(base, stamp, def image.Point) Placement {
	switch {
	case base.X < base.Y:
		return Placement{
			At: image.Pt(half(base.X)-half(stamp.X), base.Y-stamp.Y),
		}
	case base.X > base.Y:
		// dimensions swap once rotated
		rotated := image.Pt(stamp.Y, stamp.X)

		return Placement{
			Rotate: true,
			At:     image.Pt(base.X-rotated.X, half(base.Y)-half(rotated.Y)),
		}
	default:
		return Placement{At: def}
	}
}

// half rounds n/2 to the nearest integer, ties to even.
func half(n int) int {
	return int(math.RoundToEven(float64(n) / 2)) //nolint:mnd
}
