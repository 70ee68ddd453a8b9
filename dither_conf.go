package sixel

import (
	"bytes"
	"fmt"
	"io"
	"slices"
)

// DitherConf holds the palette and settings used to turn pixels into sixel
// output. It is created per image (or per sequence of frames sharing a
// palette) and must not be used from more than one goroutine at a time.
type DitherConf struct {
	palette    []RGB
	cache      *CacheTable
	reqcolors  int
	origcolors int
	builtin    BuiltinPalette

	requested DitherMethod
	method    DitherMethod
	quality   QualityMode

	complexion      int
	pixelFormat     PixelFormat
	optimized       bool
	optimizePalette bool
	bodyOnly        bool
	keycolor        int
	serpentine      bool
	paletteType     PaletteType
	use8BitControls bool
	limitRepeat     bool
}

// NewDitherConf returns a DitherConf that will quantize to at most reqcolors
// colours.
func NewDitherConf(reqcolors int) (*DitherConf, error) {
	if reqcolors < 1 || reqcolors > MaxColors {
		return nil, fmt.Errorf("sixel: NewDitherConf: requested %d colors, must be 1-%d: %w",
			reqcolors, MaxColors, ErrBadInput)
	}

	return &DitherConf{
		reqcolors:   reqcolors,
		requested:   DitherAuto,
		method:      DitherAuto,
		quality:     QualityAuto,
		complexion:  1,
		pixelFormat: RGB888,
		keycolor:    -1,
	}, nil
}

// NewBuiltinDitherConf returns a DitherConf using a fixed palette. No
// initialisation is needed before applying it.
func NewBuiltinDitherConf(p BuiltinPalette) (*DitherConf, error) {
	colors := p.Colors()
	if colors == nil {
		return nil, fmt.Errorf("sixel: NewBuiltinDitherConf: unknown palette %v: %w",
			p, ErrBadArgument)
	}

	d, err := NewDitherConf(len(colors))
	if err != nil {
		return nil, err
	}
	d.palette = colors
	d.builtin = p
	d.optimized = true
	d.method = ResolveDitherMethod(d.requested, len(colors), 0)

	return d, nil
}

// Initialize builds the palette from pixels, an image in format. Palette
// formats cannot be quantized and are rejected.
func (d *DitherConf) Initialize(pixels []byte, width, height int, format PixelFormat,
	split SplitMethod, mean MeanMethod, quality QualityMode) error {
	if format.IsPalette() {
		return fmt.Errorf("sixel: Initialize: %v pixels need a palette set with SetPalette: %w",
			format, ErrBadArgument)
	}

	rgb, err := toRGB(pixels, format, width, height)
	if err != nil {
		return err
	}

	pal, err := MakePalette(rgb, d.reqcolors, split, mean, quality)
	if err != nil {
		return err
	}

	d.quality = quality.resolve(d.reqcolors)
	d.palette = pal.Colors
	d.origcolors = pal.OrigColors
	d.builtin = 0
	d.pixelFormat = format
	d.optimized = true
	d.resetCache()
	d.resolveMethod()

	return nil
}

func (d *DitherConf) resolveMethod() {
	if d.quality == QualityHighColor {
		d.method = d.requested
		if d.method == DitherAuto {
			d.method = DitherFloydSteinberg
		}
		return
	}
	d.method = ResolveDitherMethod(d.requested, len(d.palette), d.origcolors)
}

func (d *DitherConf) resetCache() {
	if d.cache != nil {
		d.cache.Reset()
	}
}

// SetPalette replaces the palette with a copy of colors.
func (d *DitherConf) SetPalette(colors []RGB) error {
	if len(colors) == 0 || len(colors) > MaxColors {
		return fmt.Errorf("sixel: SetPalette: palette has %d colors, must be 1-%d: %w",
			len(colors), MaxColors, ErrBadInput)
	}

	d.palette = slices.Clone(colors)
	d.origcolors = 0
	d.builtin = 0
	d.optimized = true
	if d.quality == QualityHighColor {
		d.quality = QualityAuto
	}
	d.resetCache()
	d.resolveMethod()
	return nil
}

// SetDiffusionType selects the dither method. DitherAuto is resolved
// immediately against the current palette.
func (d *DitherConf) SetDiffusionType(m DitherMethod) error {
	if !m.Valid() {
		return fmt.Errorf("sixel: SetDiffusionType: %v: %w", m, ErrBadArgument)
	}
	d.requested = m
	d.resolveMethod()
	return nil
}

// SetComplexionScore sets the weight of the red channel in colour distance.
func (d *DitherConf) SetComplexionScore(score int) {
	d.complexion = max(score, 1)
	d.resetCache()
}

// SetBodyOnly omits palette definitions from the output.
func (d *DitherConf) SetBodyOnly(v bool) { d.bodyOnly = v }

// SetOptimizePalette makes the output palette hold only used colours.
func (d *DitherConf) SetOptimizePalette(v bool) { d.optimizePalette = v }

// SetTransparent marks a palette index as transparent; -1 disables it.
func (d *DitherConf) SetTransparent(keycolor int) { d.keycolor = keycolor }

// SetPixelFormat sets the format of pixels passed to ApplyPalette and
// Encode.
func (d *DitherConf) SetPixelFormat(f PixelFormat) error {
	if !f.Valid() {
		return fmt.Errorf("sixel: SetPixelFormat: %v: %w", f, ErrBadArgument)
	}
	d.pixelFormat = f
	return nil
}

// SetSerpentine makes error diffusion alternate scan direction per row.
func (d *DitherConf) SetSerpentine(v bool) { d.serpentine = v }

// SetPaletteType selects the colour system of palette definitions.
func (d *DitherConf) SetPaletteType(t PaletteType) { d.paletteType = t }

// Set8BitControls writes C1 DCS and ST instead of escape sequences.
func (d *DitherConf) Set8BitControls(v bool) { d.use8BitControls = v }

// SetLimitRepeat caps repeat counts at 255.
func (d *DitherConf) SetLimitRepeat(v bool) { d.limitRepeat = v }

// Palette returns a copy of the active palette.
func (d *DitherConf) Palette() []RGB { return slices.Clone(d.palette) }

// NumColors returns the number of active palette colours, or HighColorCount
// in high colour mode.
func (d *DitherConf) NumColors() int {
	if d.quality == QualityHighColor {
		return HighColorCount
	}
	return len(d.palette)
}

// RequestedColors returns the palette size asked for at creation.
func (d *DitherConf) RequestedColors() int { return d.reqcolors }

// OrigColors returns the number of distinct colours seen by Initialize, or
// 0 when the palette was supplied.
func (d *DitherConf) OrigColors() int { return d.origcolors }

// DiffusionType returns the resolved dither method.
func (d *DitherConf) DiffusionType() DitherMethod { return d.method }

// Quality returns the resolved quality mode.
func (d *DitherConf) Quality() QualityMode { return d.quality }

// PixelFormat returns the format expected by ApplyPalette and Encode.
func (d *DitherConf) PixelFormat() PixelFormat { return d.pixelFormat }

// ApplyPalette maps pixels onto the palette and returns a frame ready to be
// encoded. Palette formats are passed through as indices and grayscale
// formats index a matching builtin gray ramp directly.
func (d *DitherConf) ApplyPalette(pixels []byte, width, height int) (*Frame, error) {
	if d.quality == QualityHighColor {
		return nil, fmt.Errorf("sixel: ApplyPalette: high color mode has no palette: %w",
			ErrBadArgument)
	}
	if len(d.palette) == 0 {
		return nil, fmt.Errorf("sixel: ApplyPalette: palette is empty, call Initialize or SetPalette: %w",
			ErrBadInput)
	}

	format := d.pixelFormat
	palette := d.palette
	indices := make([]byte, width*height)

	switch {
	case format.IsPalette() || d.directGray(format):
		if _, err := Normalize(indices, pixels, format, width, height); err != nil {
			return nil, err
		}
		for i, idx := range indices {
			if int(idx) >= len(palette) {
				return nil, fmt.Errorf("sixel: ApplyPalette: pixel %d uses index %d of a %d color palette: %w",
					i, idx, len(palette), ErrBadInput)
			}
		}
	default:
		rgb, err := toRGB(pixels, format, width, height)
		if err != nil {
			return nil, err
		}
		if d.optimized && d.cache == nil {
			d.cache = NewCacheTable()
		}
		_, err = ApplyPalette(indices, rgb, width, height, palette, ApplyOptions{
			Method:     d.method,
			Optimized:  d.optimized,
			Complexion: d.complexion,
			Serpentine: d.serpentine,
		}, d.cache)
		if err != nil {
			return nil, err
		}
	}

	frame := &Frame{
		Width:           width,
		Height:          height,
		Indices:         indices,
		Palette:         palette,
		Transparent:     d.keycolor >= 0 && d.keycolor < len(palette),
		KeyColor:        d.keycolor,
		BodyOnly:        d.bodyOnly,
		PaletteType:     d.paletteType,
		Use8BitControls: d.use8BitControls,
		LimitRepeat:     d.limitRepeat,
	}

	if d.optimizePalette {
		compacted := slices.Clone(palette)
		used, remap := compactPalette(indices, compacted)
		frame.Palette = compacted[:used]
		if frame.Transparent {
			frame.KeyColor = remap[d.keycolor]
			frame.Transparent = frame.KeyColor >= 0
		}
	} else {
		frame.Palette = slices.Clone(palette)
	}

	return frame, nil
}

func (d *DitherConf) directGray(format PixelFormat) bool {
	switch format {
	case G1, G2, G4, G8:
		return d.builtin == grayPaletteFor(format)
	}
	return false
}

// Encode writes pixels to w as a complete sixel sequence.
func (d *DitherConf) Encode(w io.Writer, pixels []byte, width, height int) error {
	if d.quality == QualityHighColor {
		frame, err := d.highColorFrame(pixels, width, height)
		if err != nil {
			return err
		}
		_, err = frame.WriteTo(w)
		return err
	}

	frame, err := d.ApplyPalette(pixels, width, height)
	if err != nil {
		return err
	}
	_, err = frame.WriteTo(w)
	return err
}

// EncodeToBytes returns pixels as a complete sixel sequence.
func (d *DitherConf) EncodeToBytes(pixels []byte, width, height int) ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Encode(&buf, pixels, width, height); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *DitherConf) highColorFrame(pixels []byte, width, height int) (*HighColorFrame, error) {
	rgb, err := toRGB(pixels, d.pixelFormat, width, height)
	if err != nil {
		return nil, err
	}

	if k, ok := kernels[d.method]; ok {
		diffuseDither(rgb, width, height, k, d.serpentine, func(_ int, p []byte) RGB {
			return reduceTo15Bit(p)
		})
	}

	return &HighColorFrame{
		Width:           width,
		Height:          height,
		Pixels:          rgb,
		Use8BitControls: d.use8BitControls,
		LimitRepeat:     d.limitRepeat,
	}, nil
}

// toRGB normalises pixels into a fresh RGB888 buffer. Grayscale levels are
// scaled to full intensity before being expanded.
func toRGB(pixels []byte, format PixelFormat, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("sixel: invalid dimensions %dx%d: %w", width, height, ErrBadInput)
	}
	if format.IsPalette() {
		return nil, fmt.Errorf("sixel: %v pixels are palette indices: %w", format, ErrBadArgument)
	}

	n := width * height
	buf := make([]byte, n*3)
	got, err := Normalize(buf, pixels, format, width, height)
	if err != nil {
		return nil, err
	}
	if got == RGB888 {
		return buf, nil
	}

	gray := make([]byte, n)
	copy(gray, buf[:n])
	if levels := 1 << format.BitsPerPixel(); format.BitsPerPixel() < 8 {
		for i, v := range gray {
			gray[i] = uint8(int(v) * 255 / (levels - 1))
		}
	}
	ExpandGray(buf, gray)
	return buf, nil
}
