package bg

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"deedles.dev/kawabg/geom"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrInvalidColor = errors.New("invalid color")
	ErrDecode       = errors.New("failed to read background image")
)

// Source is the thing that gets painted onto a background: either a
// decoded image or a solid color.
type Source struct {
	Image image.Image
	Color color.NRGBA
}

// Solid reports whether s is a solid color rather than an image.
func (s Source) Solid() bool {
	return s.Image == nil
}

// Size returns the natural size of the image. It is zero for solid
// colors.
func (s Source) Size() geom.Point[float64] {
	if s.Solid() {
		return geom.Point[float64]{}
	}
	return geom.PConv[float64](geom.FromImageRect(s.Image.Bounds()).Size())
}

// Load builds a Source from the image-or-color argument and the mode
// argument of the command line. The mode is checked before anything
// is decoded. For SolidColor, the returned Mode is meaningless.
func Load(arg, mode string) (Source, Mode, error) {
	if mode == SolidColor {
		c, err := ParseColor(arg)
		if err != nil {
			return Source{}, 0, err
		}
		return Source{Color: c}, 0, nil
	}

	m, err := ParseMode(mode)
	if err != nil {
		return Source{}, 0, err
	}

	img, err := LoadImage(arg)
	if err != nil {
		return Source{}, 0, err
	}
	return Source{Image: img}, m, nil
}

// ValidColor reports whether s is of the form #rrggbb.
func ValidColor(s string) bool {
	if (len(s) != 7) || (s[0] != '#') {
		return false
	}
	for _, c := range []byte(s[1:]) {
		if !isHex(c) {
			return false
		}
	}
	return true
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') ||
		('a' <= c && c <= 'f') ||
		('A' <= c && c <= 'F')
}

// ParseColor parses a color of the form #rrggbb. Alpha is not
// supported and the result is always opaque.
func ParseColor(s string) (color.NRGBA, error) {
	if !ValidColor(s) {
		return color.NRGBA{}, fmt.Errorf("%w: %q is not a valid color, it should be specified as #rrggbb (no alpha)", ErrInvalidColor, s)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q: %w", ErrInvalidColor, s, err)
	}

	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xFF}, nil
}

// LoadImage decodes the image at path. EXIF orientation is applied.
// PNG, JPEG, GIF, BMP, TIFF, and WebP are supported.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrDecode, path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w %q: image is empty", ErrDecode, path)
	}
	return img, nil
}
