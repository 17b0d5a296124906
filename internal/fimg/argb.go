// Package fimg provides image types whose memory layout matches the
// pixel formats that Wayland compositors accept.
package fimg

import (
	"image"
	"image/color"
	"image/draw"
)

// ARGB is an image laid out as the ARGB8888 (or XRGB8888) format:
// each pixel is a little-endian 32-bit value with alpha in the top
// byte, so the bytes in memory are B, G, R, A. Colors are
// premultiplied, which is what wl_shm buffers expect.
type ARGB struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

func NewARGB(r image.Rectangle) *ARGB {
	return &ARGB{
		Pix:    make([]byte, 4*r.Dx()*r.Dy()),
		Stride: 4 * r.Dx(),
		Rect:   r,
	}
}

// WrapARGB returns an image backed by pix, which is typically a
// mapping of a shared memory pool. It panics if pix is too short.
func WrapARGB(pix []byte, stride int, r image.Rectangle) *ARGB {
	if need := stride*(r.Dy()-1) + 4*r.Dx(); r.Dy() > 0 && len(pix) < need {
		panic("fimg: pixel buffer too small")
	}
	return &ARGB{
		Pix:    pix,
		Stride: stride,
		Rect:   r,
	}
}

func (p *ARGB) PixOffset(x, y int) int {
	return ((y - p.Rect.Min.Y) * p.Stride) + (x-p.Rect.Min.X)*4
}

func (p *ARGB) Bounds() image.Rectangle {
	return p.Rect
}

func (p *ARGB) ColorModel() color.Model {
	return color.RGBAModel
}

func (p *ARGB) At(x, y int) color.Color {
	return p.RGBAAt(x, y)
}

func (p *ARGB) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}

	i := p.PixOffset(x, y)
	return color.RGBA{p.Pix[i+2], p.Pix[i+1], p.Pix[i], p.Pix[i+3]}
}

func (p *ARGB) Set(x, y int, c color.Color) {
	p.SetRGBA(x, y, color.RGBAModel.Convert(c).(color.RGBA))
}

func (p *ARGB) SetRGBA(x, y int, c color.RGBA) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}

	i := p.PixOffset(x, y)
	p.Pix[i] = c.B
	p.Pix[i+1] = c.G
	p.Pix[i+2] = c.R
	p.Pix[i+3] = c.A
}

// Opaque scans the image and reports whether it is fully opaque.
func (p *ARGB) Opaque() bool {
	if p.Rect.Empty() {
		return true
	}
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		row := p.Pix[p.PixOffset(p.Rect.Min.X, y):]
		for x := 0; x < p.Rect.Dx(); x++ {
			if row[4*x+3] != 0xFF {
				return false
			}
		}
	}
	return true
}

// CopyFrom copies src into p, aligning their top-left corners. It
// is a straight channel swap, so it is much faster than draw.Draw.
func (p *ARGB) CopyFrom(src *image.RGBA) {
	r := p.Rect.Intersect(src.Rect.Sub(src.Rect.Min).Add(p.Rect.Min))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		di := p.PixOffset(r.Min.X, y)
		si := src.PixOffset(src.Rect.Min.X+(r.Min.X-p.Rect.Min.X), src.Rect.Min.Y+(y-p.Rect.Min.Y))
		for x := 0; x < r.Dx(); x++ {
			d := p.Pix[di+4*x : di+4*x+4 : di+4*x+4]
			s := src.Pix[si+4*x : si+4*x+4 : si+4*x+4]
			d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
		}
	}
}

var _ draw.Image = (*ARGB)(nil)
