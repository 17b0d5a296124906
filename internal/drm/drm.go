// Package drm holds the DRM fourcc pixel format codes that wl_shm
// buffers are described with.
package drm

import "strings"

// Format is a fourcc pixel format code.
type Format uint32

//func fourccCode(a, b, c, d uint32) uint32 {
//	return a | (b << 8) | (c << 16) | (d << 24)
//}

const (
	FormatARGB8888 Format = 'A' | ('R' << 8) | ('2' << 16) | ('4' << 24)
	FormatXRGB8888 Format = 'X' | ('R' << 8) | ('2' << 16) | ('4' << 24)
	FormatRGBA8888 Format = 'R' | ('A' << 8) | ('2' << 16) | ('4' << 24)
	FormatABGR8888 Format = 'A' | ('B' << 8) | ('2' << 16) | ('4' << 24)

	FormatBigEndian Format = 1 << 31
)

// wl_shm predates the use of fourcc codes and so has its own values
// for the two formats that every compositor must support.
const (
	shmARGB8888 = 0
	shmXRGB8888 = 1
)

// FromShm converts a wl_shm.format value to a Format.
func FromShm(v uint32) Format {
	switch v {
	case shmARGB8888:
		return FormatARGB8888
	case shmXRGB8888:
		return FormatXRGB8888
	default:
		return Format(v)
	}
}

// Shm returns the wl_shm.format value for f.
func (f Format) Shm() uint32 {
	switch f {
	case FormatARGB8888:
		return shmARGB8888
	case FormatXRGB8888:
		return shmXRGB8888
	default:
		return uint32(f)
	}
}

func (f Format) String() string {
	var sb strings.Builder
	code := f &^ FormatBigEndian
	for i := 0; i < 4; i++ {
		sb.WriteByte(byte(code >> (8 * i)))
	}
	if f&FormatBigEndian != 0 {
		sb.WriteString("_BE")
	}
	return sb.String()
}
