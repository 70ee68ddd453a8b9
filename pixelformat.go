package sixel

import "strconv"

// PixelFormat identifies the byte layout and channel order of a source
// pixel buffer.
type PixelFormat int

// Supported pixel formats. 16-bit formats are stored high byte first.
const (
	RGB555 PixelFormat = iota + 1
	RGB565
	RGB888
	BGR555
	BGR565
	BGR888
	ARGB8888
	RGBA8888
	ABGR8888
	BGRA8888
	G1
	G2
	G4
	G8
	AG88
	GA88
	PAL1
	PAL2
	PAL4
	PAL8
)

var pixelFormatNames = map[PixelFormat]string{
	RGB555:   "RGB555",
	RGB565:   "RGB565",
	RGB888:   "RGB888",
	BGR555:   "BGR555",
	BGR565:   "BGR565",
	BGR888:   "BGR888",
	ARGB8888: "ARGB8888",
	RGBA8888: "RGBA8888",
	ABGR8888: "ABGR8888",
	BGRA8888: "BGRA8888",
	G1:       "G1",
	G2:       "G2",
	G4:       "G4",
	G8:       "G8",
	AG88:     "AG88",
	GA88:     "GA88",
	PAL1:     "PAL1",
	PAL2:     "PAL2",
	PAL4:     "PAL4",
	PAL8:     "PAL8",
}

func (f PixelFormat) String() string {
	if name, ok := pixelFormatNames[f]; ok {
		return name
	}
	return "PixelFormat(" + strconv.Itoa(int(f)) + ")"
}

// Valid reports whether f is one of the enumerated formats.
func (f PixelFormat) Valid() bool {
	_, ok := pixelFormatNames[f]
	return ok
}

// BitsPerPixel returns the number of bits a single pixel occupies.
func (f PixelFormat) BitsPerPixel() int {
	switch f {
	case G1, PAL1:
		return 1
	case G2, PAL2:
		return 2
	case G4, PAL4:
		return 4
	case G8, PAL8:
		return 8
	case RGB555, RGB565, BGR555, BGR565, AG88, GA88:
		return 16
	case RGB888, BGR888:
		return 24
	case ARGB8888, RGBA8888, ABGR8888, BGRA8888:
		return 32
	default:
		return 0
	}
}

// BytesPerPixel returns the number of whole bytes a pixel occupies, or 0
// for bit-packed formats.
func (f PixelFormat) BytesPerPixel() int {
	return f.BitsPerPixel() / 8
}

// IsPalette reports whether pixel values are palette indices.
func (f PixelFormat) IsPalette() bool {
	return f == PAL1 || f == PAL2 || f == PAL4 || f == PAL8
}

// IsGrayscale reports whether f carries a single intensity channel.
func (f PixelFormat) IsGrayscale() bool {
	switch f {
	case G1, G2, G4, G8, AG88, GA88:
		return true
	}
	return false
}

// Stride returns the number of bytes a row of width pixels occupies. Rows of
// bit-packed formats start on a byte boundary.
func (f PixelFormat) Stride(width int) int {
	return (width*f.BitsPerPixel() + 7) / 8
}

// RequiredBytes returns the minimum source buffer length for an image of
// the given dimensions. Every row is padded to a whole byte, so for
// sub-byte formats whose rows do not fill their last byte this exceeds the
// fully packed size ceil(width*height*bpp/8).
func (f PixelFormat) RequiredBytes(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return f.Stride(width) * height
}
