package bg

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"deedles.dev/kawabg/geom"
	"deedles.dev/kawabg/geom/tile"
	xdraw "golang.org/x/image/draw"
)

// Filter selects the interpolation used when an image is scaled.
type Filter int

const (
	FilterBilinear Filter = iota
	FilterNearest
	FilterCatmullRom
	numFilters
)

var filterNames = [...]string{
	FilterBilinear:   "bilinear",
	FilterNearest:    "nearest",
	FilterCatmullRom: "catmull-rom",
}

func ParseFilter(s string) (Filter, error) {
	for f, name := range filterNames {
		if name == s {
			return Filter(f), nil
		}
	}
	return 0, fmt.Errorf("unknown filter %q", s)
}

func (f Filter) String() string {
	if (f < 0) || (f >= numFilters) {
		return fmt.Sprintf("Filter(%d)", int(f))
	}
	return filterNames[f]
}

func (f Filter) interpolator() xdraw.Interpolator {
	switch f {
	case FilterNearest:
		return xdraw.NearestNeighbor
	case FilterCatmullRom:
		return xdraw.CatmullRom
	default:
		return xdraw.BiLinear
	}
}

// Paint fills dst with src, placing images according to p. Any part
// of dst not covered by the image is left opaque black rather than
// transparent.
func Paint(dst draw.Image, src Source, p Placement, filter Filter) {
	if src.Solid() {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(src.Color), image.Point{}, draw.Src)
		return
	}

	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	if p.Repeat {
		paintTiled(dst, src.Image, p)
		return
	}

	sr := src.Image.Bounds()
	m := p.Transform()
	m[2] -= m[0] * float64(sr.Min.X)
	m[5] -= m[4] * float64(sr.Min.Y)
	filter.interpolator().Transform(dst, m, src.Image, sr, draw.Over, nil)
}

// paintTiled repeats img across dst without scaling it. The lattice
// is anchored at p's offset.
func paintTiled(dst draw.Image, img image.Image, p Placement) {
	sr := img.Bounds()
	first := geom.Rect[int]{Max: geom.FromImageRect(sr).Size()}.Add(geom.PConv[int](p.Offset))

	area := geom.FromImageRect(dst.Bounds())
	for r := range tile.Grid(area, first) {
		draw.Draw(dst, r.ImageRect(), img, sr.Min, draw.Over)
	}
}
