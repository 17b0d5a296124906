package bg

import (
	"errors"
	"fmt"

	"deedles.dev/kawabg/geom"
	"golang.org/x/image/math/f64"
)

var ErrInvalidSize = errors.New("target and image dimensions must be positive")

// Placement describes how to paint an image into a target. A source
// pixel at (u, v) ends up at (Scale.X*(u+Offset.X), Scale.Y*(v+Offset.Y))
// in the target. In other words, Offset is in the scaled space, the
// same way that it would be after a call to cairo_scale followed by
// cairo_set_source_surface.
type Placement struct {
	Scale  geom.Point[float64]
	Offset geom.Point[float64]

	// Repeat is true if the image should be repeated across the whole
	// target instead of painted once.
	Repeat bool
}

type placeFunc func(target, img geom.Point[float64]) Placement

var placeFuncs = [...]placeFunc{
	ModeStretch: placeStretch,
	ModeFill:    placeFill,
	ModeFit:     placeFit,
	ModeCenter:  placeCenter,
	ModeTile:    placeTile,
}

// Compute returns the placement of an image of size img inside of a
// target of size target for the given mode.
func Compute(target, img geom.Point[float64], mode Mode) (Placement, error) {
	if !mode.Valid() {
		return Placement{}, fmt.Errorf("%w: %v", ErrUnknownMode, mode)
	}
	if (target.X <= 0) || (target.Y <= 0) || (img.X <= 0) || (img.Y <= 0) {
		return Placement{}, fmt.Errorf("%w: target %vx%v, image %vx%v", ErrInvalidSize, target.X, target.Y, img.X, img.Y)
	}

	return placeFuncs[mode](target, img), nil
}

func uniform(s float64) geom.Point[float64] {
	return geom.Pt(s, s)
}

func placeStretch(target, img geom.Point[float64]) Placement {
	return Placement{
		Scale: geom.Pt(target.X/img.X, target.Y/img.Y),
	}
}

func placeFill(target, img geom.Point[float64]) Placement {
	if geom.Sz(target.X, target.Y).Aspect() > geom.Sz(img.X, img.Y).Aspect() {
		s := target.X / img.X
		return Placement{
			Scale:  uniform(s),
			Offset: geom.Pt(0, target.Y/2/s-img.Y/2),
		}
	}

	s := target.Y / img.Y
	return Placement{
		Scale:  uniform(s),
		Offset: geom.Pt(target.X/2/s-img.X/2, 0),
	}
}

func placeFit(target, img geom.Point[float64]) Placement {
	if geom.Sz(target.X, target.Y).Aspect() > geom.Sz(img.X, img.Y).Aspect() {
		s := target.Y / img.Y
		return Placement{
			Scale:  uniform(s),
			Offset: geom.Pt(target.X/2/s-img.X/2, 0),
		}
	}

	s := target.X / img.X
	return Placement{
		Scale:  uniform(s),
		Offset: geom.Pt(0, target.Y/2/s-img.Y/2),
	}
}

func placeCenter(target, img geom.Point[float64]) Placement {
	return Placement{
		Scale:  uniform(1),
		Offset: geom.Sz(img.X, img.Y).CenterAt(target.Div(2)).Min,
	}
}

func placeTile(target, img geom.Point[float64]) Placement {
	return Placement{
		Scale:  uniform(1),
		Repeat: true,
	}
}

// Bounds returns the area of the target covered by a single copy of
// an image of the given size.
func (p Placement) Bounds(img geom.Point[float64]) geom.Rect[float64] {
	return geom.Rect[float64]{Max: img}.Add(p.Offset).Scale(p.Scale)
}

// Transform returns the matrix that maps image coordinates to target
// coordinates.
func (p Placement) Transform() f64.Aff3 {
	return f64.Aff3{
		p.Scale.X, 0, p.Scale.X * p.Offset.X,
		0, p.Scale.Y, p.Scale.Y * p.Offset.Y,
	}
}
