// Package palette builds sixel palettes with third-party colour extraction
// algorithms, as an alternative to the encoder's own median cut.
package palette

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tmpim/sixel"
)

// Method selects a palette extraction algorithm.
type Method int

// Possible palette methods.
const (
	MethodMedianCut Method = iota
	MethodKMeans
	MethodDominant
	MethodImagequant
)

var methodNames = []string{"mediancut", "kmeans", "dominant", "imagequant"}

func (m Method) String() string {
	if m >= 0 && int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod parses the name returned by Method.String.
func ParseMethod(s string) (Method, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range methodNames {
		if name == s {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("palette: unknown method %q (want one of %s): %w",
		s, strings.Join(methodNames, ", "), sixel.ErrBadArgument)
}

// Extract returns at most k colours for img using the given method. An
// empty k-means result falls back to dominant colour extraction.
func Extract(img image.Image, k int, method Method) ([]sixel.RGB, error) {
	if k < 1 || k > sixel.MaxColors {
		return nil, fmt.Errorf("palette: Extract: requested %d colors, must be 1-%d: %w",
			k, sixel.MaxColors, sixel.ErrBadInput)
	}

	switch method {
	case MethodMedianCut:
		return FromQuantizer(img, k, nil), nil
	case MethodKMeans:
		p := FromKMeans(img, k)
		if len(p) != 0 {
			return p, nil
		}
		log.Println("sixel palette: kmeans returned empty palette, falling back to dominant")
		return FromDominant(img, k), nil
	case MethodDominant:
		return FromDominant(img, k), nil
	case MethodImagequant:
		return FromImagequant(img, k, 3)
	default:
		return nil, fmt.Errorf("palette: Extract: %v: %w", method, sixel.ErrBadArgument)
	}
}

// SortByBrightness orders colours from darkest to brightest by relative
// luminance.
func SortByBrightness(p []sixel.RGB) {
	slices.SortStableFunc(p, func(a, b sixel.RGB) int {
		ya, yb := luminance(a), luminance(b)
		switch {
		case ya < yb:
			return -1
		case ya > yb:
			return 1
		}
		return 0
	})
}

func luminance(c sixel.RGB) float64 {
	r, g, b := toColorful(c).LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func toColorful(c sixel.RGB) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

func fromColor(c color.Color) sixel.RGB {
	r, g, b, _ := c.RGBA()
	return sixel.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// FromColorPalette converts a standard library palette, dropping duplicates.
func FromColorPalette(p color.Palette) []sixel.RGB {
	out := make([]sixel.RGB, 0, len(p))
	for _, c := range p {
		rgb := fromColor(c)
		if !slices.Contains(out, rgb) {
			out = append(out, rgb)
		}
	}
	return out
}

// opaquePixels returns the RGB888 triples of img's pixels that are not
// fully transparent, translucent pixels composited over black.
func opaquePixels(img image.Image) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			out = append(out, uint8(r>>8), uint8(g>>8), uint8(bl>>8))
		}
	}
	return out
}

// byPopulation returns the distinct colours of pixels, most frequent first.
func byPopulation(pixels []byte) []sixel.RGB {
	counts := make(map[sixel.RGB]int)
	var out []sixel.RGB
	for i := 0; i+2 < len(pixels); i += 3 {
		c := sixel.RGB{R: pixels[i], G: pixels[i+1], B: pixels[i+2]}
		if counts[c] == 0 {
			out = append(out, c)
		}
		counts[c]++
	}

	slices.SortStableFunc(out, func(a, b sixel.RGB) int {
		return counts[b] - counts[a]
	})
	return out
}
