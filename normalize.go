package sixel

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelThreshold is the pixel count above which true-colour conversion is
// split into row stripes.
const parallelThreshold = 1 << 16

// Normalize converts src, laid out in format, into a canonical buffer in dst
// and returns the canonical format written.
//
// True-colour sources produce width*height*3 bytes of RGB888. Grayscale
// sources (including gray+alpha) produce width*height bytes and G8, and
// palette sources produce width*height indices and PAL8. Bit-packed sources
// are unpacked to one byte per pixel without scaling, so their values stay
// levels or indices. src is never modified.
func Normalize(dst, src []byte, format PixelFormat, width, height int) (PixelFormat, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("sixel: Normalize: invalid dimensions %dx%d: %w",
			width, height, ErrBadInput)
	}
	if !format.Valid() {
		return 0, fmt.Errorf("sixel: Normalize: unsupported pixel format %v: %w",
			format, ErrBadArgument)
	}
	if len(src) < format.RequiredBytes(width, height) {
		return 0, fmt.Errorf("sixel: Normalize: source holds %d bytes, %v %dx%d needs %d: %w",
			len(src), format, width, height, format.RequiredBytes(width, height), ErrBadInput)
	}

	n := width * height

	switch format {
	case PAL1, PAL2, PAL4:
		if err := ExpandPalette(dst, src, format, width, height); err != nil {
			return 0, err
		}
		return PAL8, nil
	case G1, G2, G4:
		if err := ExpandPalette(dst, src, format, width, height); err != nil {
			return 0, err
		}
		return G8, nil
	case PAL8, G8:
		if len(dst) < n {
			return 0, shortDestination(len(dst), n)
		}
		copy(dst, src[:n])
		return format, nil
	case AG88, GA88:
		if len(dst) < n {
			return 0, shortDestination(len(dst), n)
		}
		off := 0
		if format == AG88 {
			off = 1
		}
		for i := 0; i < n; i++ {
			dst[i] = src[i*2+off]
		}
		return G8, nil
	}

	if len(dst) < n*3 {
		return 0, shortDestination(len(dst), n*3)
	}

	read := rgbReader(format)
	bpp := format.BytesPerPixel()

	if n < parallelThreshold {
		convertRows(dst, src, read, bpp, width, 0, height)
		return RGB888, nil
	}

	workers := runtime.GOMAXPROCS(0)
	rowsPer := (height + workers - 1) / workers

	var g errgroup.Group
	for y := 0; y < height; y += rowsPer {
		y0, y1 := y, min(y+rowsPer, height)
		g.Go(func() error {
			convertRows(dst, src, read, bpp, width, y0, y1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	return RGB888, nil
}

func shortDestination(have, need int) error {
	return fmt.Errorf("sixel: Normalize: destination holds %d bytes, needs %d: %w",
		have, need, ErrBadInput)
}

func convertRows(dst, src []byte, read func(p []byte) (r, g, b uint8), bpp, width, y0, y1 int) {
	for i := y0 * width; i < y1*width; i++ {
		r, g, b := read(src[i*bpp : i*bpp+bpp])
		dst[i*3] = r
		dst[i*3+1] = g
		dst[i*3+2] = b
	}
}

func widen5(v uint16) uint8 {
	v &= 0x1f
	return uint8(v<<3 | v>>2)
}

func widen6(v uint16) uint8 {
	v &= 0x3f
	return uint8(v<<2 | v>>4)
}

func rgbReader(format PixelFormat) func(p []byte) (r, g, b uint8) {
	switch format {
	case RGB555:
		return func(p []byte) (uint8, uint8, uint8) {
			v := uint16(p[0])<<8 | uint16(p[1])
			return widen5(v >> 10), widen5(v >> 5), widen5(v)
		}
	case RGB565:
		return func(p []byte) (uint8, uint8, uint8) {
			v := uint16(p[0])<<8 | uint16(p[1])
			return widen5(v >> 11), widen6(v >> 5), widen5(v)
		}
	case BGR555:
		return func(p []byte) (uint8, uint8, uint8) {
			v := uint16(p[0])<<8 | uint16(p[1])
			return widen5(v), widen5(v >> 5), widen5(v >> 10)
		}
	case BGR565:
		return func(p []byte) (uint8, uint8, uint8) {
			v := uint16(p[0])<<8 | uint16(p[1])
			return widen5(v), widen6(v >> 5), widen5(v >> 11)
		}
	case RGB888:
		return func(p []byte) (uint8, uint8, uint8) { return p[0], p[1], p[2] }
	case BGR888:
		return func(p []byte) (uint8, uint8, uint8) { return p[2], p[1], p[0] }
	case ARGB8888:
		return func(p []byte) (uint8, uint8, uint8) { return p[1], p[2], p[3] }
	case RGBA8888:
		return func(p []byte) (uint8, uint8, uint8) { return p[0], p[1], p[2] }
	case ABGR8888:
		return func(p []byte) (uint8, uint8, uint8) { return p[3], p[2], p[1] }
	case BGRA8888:
		return func(p []byte) (uint8, uint8, uint8) { return p[2], p[1], p[0] }
	default:
		panic("sixel: rgbReader: not a true-colour format: " + format.String())
	}
}

// ExpandPalette unpacks 1, 2 or 4 bit pixels into one byte per pixel,
// most significant bits first. Each source row starts on a byte boundary and
// may end in a partially used byte.
func ExpandPalette(dst, src []byte, format PixelFormat, width, height int) error {
	var depth int
	switch format {
	case PAL1, G1:
		depth = 1
	case PAL2, G2:
		depth = 2
	case PAL4, G4:
		depth = 4
	default:
		return fmt.Errorf("sixel: ExpandPalette: %v is not a packed format: %w",
			format, ErrBadArgument)
	}

	if width <= 0 || height <= 0 {
		return fmt.Errorf("sixel: ExpandPalette: invalid dimensions %dx%d: %w",
			width, height, ErrBadInput)
	}

	stride := format.Stride(width)
	if len(src) < stride*height {
		return fmt.Errorf("sixel: ExpandPalette: source holds %d bytes, needs %d: %w",
			len(src), stride*height, ErrBadInput)
	}
	if len(dst) < width*height {
		return fmt.Errorf("sixel: ExpandPalette: destination holds %d bytes, needs %d: %w",
			len(dst), width*height, ErrBadInput)
	}

	perByte := 8 / depth
	mask := byte(1<<depth - 1)

	for y := 0; y < height; y++ {
		row := src[y*stride : (y+1)*stride]
		out := dst[y*width : (y+1)*width]
		for x := range out {
			shift := 8 - depth*(x%perByte+1)
			out[x] = (row[x/perByte] >> shift) & mask
		}
	}

	return nil
}

// ExpandGray writes each gray value of src as an RGB triple into dst, which
// must hold at least len(src)*3 bytes.
func ExpandGray(dst, src []byte) {
	for i, v := range src {
		dst[i*3] = v
		dst[i*3+1] = v
		dst[i*3+2] = v
	}
}
