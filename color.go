package sixel

import (
	"io"
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit per channel colour, the canonical working representation
// after normalisation.
type RGB struct {
	R, G, B uint8
}

// SixelColor is a colour in the sixel RGB colour system, where each channel
// ranges from 0 to 99.
type SixelColor struct {
	R, G, B uint8
}

const sixelColorMax = 99

// NewSixelColor returns a SixelColor with each channel clamped to 0..99.
func NewSixelColor(r, g, b uint8) SixelColor {
	return SixelColor{
		R: min(r, sixelColorMax),
		G: min(g, sixelColorMax),
		B: min(b, sixelColorMax),
	}
}

// SixelColorFromRGB rescales an 8-bit colour into the sixel range.
func SixelColorFromRGB(c RGB) SixelColor {
	return SixelColor{
		R: uint8(int(c.R) * sixelColorMax / 255),
		G: uint8(int(c.G) * sixelColorMax / 255),
		B: uint8(int(c.B) * sixelColorMax / 255),
	}
}

// appendParam appends a numeric sixel parameter. Zero is written as an empty
// field, which terminals read as the default of 0.
func appendParam(dst []byte, v int) []byte {
	if v == 0 {
		return dst
	}
	return strconv.AppendInt(dst, int64(v), 10)
}

// AppendDefinition appends the colour definition command "#Pc;2;R;G;B" for
// palette register index to dst.
func (c SixelColor) AppendDefinition(dst []byte, index int) []byte {
	dst = append(dst, '#')
	dst = appendParam(dst, index)
	dst = append(dst, ';', '2', ';')
	dst = appendParam(dst, int(c.R))
	dst = append(dst, ';')
	dst = appendParam(dst, int(c.G))
	dst = append(dst, ';')
	dst = appendParam(dst, int(c.B))
	return dst
}

// WriteDefinition writes the colour definition command for palette register
// index to w.
func (c SixelColor) WriteDefinition(w io.Writer, index int) (int, error) {
	var buf [24]byte
	return w.Write(c.AppendDefinition(buf[:0], index))
}

// PaletteType selects the colour system used for palette definitions.
type PaletteType int

// Possible palette types.
const (
	PaletteRGB PaletteType = iota
	PaletteHLS
)

func (p PaletteType) String() string {
	switch p {
	case PaletteRGB:
		return "rgb"
	case PaletteHLS:
		return "hls"
	default:
		return "PaletteType(" + strconv.Itoa(int(p)) + ")"
	}
}

// appendHLSDefinition appends "#Pc;1;H;L;S". Sixel hues start at blue, so
// red sits at 120 degrees and green at 240.
func appendHLSDefinition(dst []byte, index int, c RGB) []byte {
	h, s, l := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hsl()

	hue := int(math.Round(h+120)) % 360
	if s == 0 {
		hue = 0
	}

	dst = append(dst, '#')
	dst = appendParam(dst, index)
	dst = append(dst, ';', '1', ';')
	dst = appendParam(dst, hue)
	dst = append(dst, ';')
	dst = appendParam(dst, int(math.Round(l*100)))
	dst = append(dst, ';')
	dst = appendParam(dst, int(math.Round(s*100)))
	return dst
}
