package sixel

import "strconv"

// BuiltinPalette names a fixed palette.
type BuiltinPalette int

// Possible builtin palettes.
const (
	BuiltinMonoDark BuiltinPalette = iota + 1
	BuiltinMonoLight
	BuiltinXTerm16
	BuiltinXTerm256
	BuiltinVT340Mono
	BuiltinVT340Color
	BuiltinG1
	BuiltinG2
	BuiltinG4
	BuiltinG8
)

var builtinNames = map[BuiltinPalette]string{
	BuiltinMonoDark:   "mono-dark",
	BuiltinMonoLight:  "mono-light",
	BuiltinXTerm16:    "xterm16",
	BuiltinXTerm256:   "xterm256",
	BuiltinVT340Mono:  "vt340-mono",
	BuiltinVT340Color: "vt340-color",
	BuiltinG1:         "gray1",
	BuiltinG2:         "gray2",
	BuiltinG4:         "gray4",
	BuiltinG8:         "gray8",
}

func (p BuiltinPalette) String() string {
	if name, ok := builtinNames[p]; ok {
		return name
	}
	return "BuiltinPalette(" + strconv.Itoa(int(p)) + ")"
}

// ParseBuiltinPalette parses the name returned by BuiltinPalette.String.
func ParseBuiltinPalette(s string) (BuiltinPalette, bool) {
	for p, name := range builtinNames {
		if name == s {
			return p, true
		}
	}
	return 0, false
}

var xterm16 = []RGB{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// vt340Color is the VT340 power-on colour map.
var vt340Color = []RGB{
	{0, 0, 0}, {51, 51, 204}, {204, 33, 33}, {51, 204, 51},
	{204, 51, 204}, {51, 204, 204}, {204, 204, 51}, {135, 135, 135},
	{66, 66, 66}, {84, 84, 153}, {153, 66, 66}, {84, 153, 84},
	{153, 84, 153}, {84, 153, 153}, {153, 153, 84}, {204, 204, 204},
}

// Colors returns a fresh copy of the palette.
func (p BuiltinPalette) Colors() []RGB {
	switch p {
	case BuiltinMonoDark:
		return []RGB{{0, 0, 0}, {255, 255, 255}}
	case BuiltinMonoLight:
		return []RGB{{255, 255, 255}, {0, 0, 0}}
	case BuiltinXTerm16:
		return append([]RGB(nil), xterm16...)
	case BuiltinXTerm256:
		return xterm256()
	case BuiltinVT340Mono:
		out := make([]RGB, len(vt340Color))
		for i, c := range vt340Color {
			y := uint8((299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000)
			out[i] = RGB{y, y, y}
		}
		return out
	case BuiltinVT340Color:
		return append([]RGB(nil), vt340Color...)
	case BuiltinG1:
		return grayRamp(2)
	case BuiltinG2:
		return grayRamp(4)
	case BuiltinG4:
		return grayRamp(16)
	case BuiltinG8:
		return grayRamp(256)
	default:
		return nil
	}
}

func grayRamp(levels int) []RGB {
	out := make([]RGB, levels)
	for i := range out {
		v := uint8(i * 255 / (levels - 1))
		out[i] = RGB{v, v, v}
	}
	return out
}

func xterm256() []RGB {
	out := make([]RGB, 0, 256)
	out = append(out, xterm16...)

	cube := [6]uint8{0, 95, 135, 175, 215, 255}
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				out = append(out, RGB{cube[r], cube[g], cube[b]})
			}
		}
	}

	for i := 0; i < 24; i++ {
		v := uint8(8 + i*10)
		out = append(out, RGB{v, v, v})
	}

	return out
}

// grayPaletteFor returns the ramp whose levels match the values produced by
// normalising a grayscale format.
func grayPaletteFor(format PixelFormat) BuiltinPalette {
	switch format {
	case G1:
		return BuiltinG1
	case G2:
		return BuiltinG2
	case G4:
		return BuiltinG4
	default:
		return BuiltinG8
	}
}
