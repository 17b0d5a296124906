package fimg

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestARGBLayout(t *testing.T) {
	img := NewARGB(image.Rect(0, 0, 2, 1))
	img.Set(1, 0, color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xFF})

	assert.Equal(t, []byte{0, 0, 0, 0, 0x33, 0x22, 0x11, 0xFF}, img.Pix)
	assert.Equal(t, color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xFF}, img.RGBAAt(1, 0))
	assert.False(t, img.Opaque())
}

func TestARGBPremultiplies(t *testing.T) {
	img := NewARGB(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: 0xFF, A: 0x80})

	c := img.RGBAAt(0, 0)
	assert.Equal(t, uint8(0x80), c.A)
	assert.Equal(t, uint8(0x80), c.R)
}

func TestARGBOutOfBounds(t *testing.T) {
	img := NewARGB(image.Rect(0, 0, 1, 1))
	img.Set(5, 5, color.White)
	assert.Equal(t, color.RGBA{}, img.RGBAAt(5, 5))
	assert.Equal(t, []byte{0, 0, 0, 0}, img.Pix)
}

func TestWrapARGB(t *testing.T) {
	pix := make([]byte, 2*16)
	img := WrapARGB(pix, 16, image.Rect(0, 0, 3, 2))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	assert.True(t, img.Opaque())

	// Padding between rows is left alone.
	assert.Equal(t, []byte{0, 0, 0, 0}, pix[12:16])

	assert.Panics(t, func() { WrapARGB(pix[:20], 16, image.Rect(0, 0, 3, 2)) })
}

func TestCopyFrom(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 13, 12))
	src.SetRGBA(10, 10, color.RGBA{R: 1, G: 2, B: 3, A: 4})
	src.SetRGBA(12, 11, color.RGBA{R: 5, G: 6, B: 7, A: 8})

	dst := NewARGB(image.Rect(0, 0, 3, 2))
	dst.CopyFrom(src)
	require.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 4}, dst.RGBAAt(0, 0))
	require.Equal(t, color.RGBA{R: 5, G: 6, B: 7, A: 8}, dst.RGBAAt(2, 1))

	// Larger sources are clipped.
	small := NewARGB(image.Rect(0, 0, 1, 1))
	small.CopyFrom(src)
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 4}, small.RGBAAt(0, 0))
}
