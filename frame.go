package sixel

import (
	"fmt"
	"io"
	"strconv"
)

// Sixel control sequences.
const (
	dcs7 = "\x1bP"
	st7  = "\x1b\\"
	dcs8 = 0x90
	st8  = 0x9c

	bandHeight  = 6
	sixelOffset = 0x3f
	maxRepeat   = 255

	graphicsNewLine        = '-'
	graphicsCarriageReturn = '$'
	colorIntroducer        = '#'
	repeatIntroducer       = '!'
)

// Frame is a palette indexed image ready to be written as a sixel sequence.
type Frame struct {
	Width  int
	Height int

	// Indices holds one palette index per pixel in row-major order.
	Indices []byte
	// Palette holds the active colours; every index must be below
	// len(Palette).
	Palette []RGB

	// Transparent leaves pixels of KeyColor unpainted and asks the terminal
	// to keep the background behind them.
	Transparent bool
	KeyColor    int

	// BodyOnly omits the palette definitions, for terminals that already
	// hold the palette.
	BodyOnly    bool
	PaletteType PaletteType

	// Use8BitControls writes single byte C1 controls for DCS and ST.
	Use8BitControls bool
	// LimitRepeat caps repeat counts at 255 for terminals with an 8-bit
	// repeat argument.
	LimitRepeat bool
}

// Validate reports whether the frame can be encoded.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("sixel: Frame: invalid dimensions %dx%d: %w",
			f.Width, f.Height, ErrBadInput)
	}
	if len(f.Palette) == 0 || len(f.Palette) > MaxColors {
		return fmt.Errorf("sixel: Frame: palette has %d colors, must be 1-%d: %w",
			len(f.Palette), MaxColors, ErrBadInput)
	}
	n := f.Width * f.Height
	if len(f.Indices) < n {
		return fmt.Errorf("sixel: Frame: %d indices for %d pixels: %w",
			len(f.Indices), n, ErrBadInput)
	}
	for i, idx := range f.Indices[:n] {
		if int(idx) >= len(f.Palette) {
			return fmt.Errorf("sixel: Frame: pixel %d uses index %d of a %d color palette: %w",
				i, idx, len(f.Palette), ErrBadInput)
		}
	}
	return nil
}

// Bytes returns the complete sixel sequence for the frame.
func (f *Frame) Bytes() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f.AppendTo(make([]byte, 0, f.sizeHint())), nil
}

// WriteTo writes the complete sixel sequence to w.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	data, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

func (f *Frame) sizeHint() int {
	return 64 + len(f.Palette)*20 + f.Width*((f.Height+5)/6)*2
}

// AppendTo appends the sixel sequence to dst. The frame must be valid.
func (f *Frame) AppendTo(dst []byte) []byte {
	dst = appendHeader(dst, f.Width, f.Height, f.Transparent, f.Use8BitControls)

	if !f.BodyOnly {
		for i, c := range f.Palette {
			if f.Transparent && i == f.KeyColor {
				continue
			}
			if f.PaletteType == PaletteHLS {
				dst = appendHLSDefinition(dst, i, c)
			} else {
				dst = SixelColorFromRGB(c).AppendDefinition(dst, i)
			}
		}
	}

	dst = f.appendBody(dst)

	return appendTerminator(dst, f.Use8BitControls)
}

func appendHeader(dst []byte, width, height int, transparent, c1 bool) []byte {
	if c1 {
		dst = append(dst, dcs8)
	} else {
		dst = append(dst, dcs7...)
	}
	if transparent {
		dst = append(dst, "0;1"...)
	}
	dst = append(dst, 'q', '"', '1', ';', '1', ';')
	dst = strconv.AppendInt(dst, int64(width), 10)
	dst = append(dst, ';')
	return strconv.AppendInt(dst, int64(height), 10)
}

func appendTerminator(dst []byte, c1 bool) []byte {
	if c1 {
		return append(dst, st8)
	}
	return append(dst, st7...)
}

func (f *Frame) appendBody(dst []byte) []byte {
	width := f.Width
	ncolors := len(f.Palette)

	present := make([]bool, ncolors)
	masks := make([]byte, ncolors*width)

	for top := 0; top < f.Height; top += bandHeight {
		if top > 0 {
			dst = append(dst, graphicsNewLine)
		}

		rows := min(bandHeight, f.Height-top)
		for r := 0; r < rows; r++ {
			row := f.Indices[(top+r)*width : (top+r+1)*width]
			for x, idx := range row {
				present[idx] = true
				masks[int(idx)*width+x] |= 1 << r
			}
		}

		first := true
		for c := 0; c < ncolors; c++ {
			if !present[c] {
				continue
			}
			present[c] = false

			m := masks[c*width : (c+1)*width]
			if f.Transparent && c == f.KeyColor {
				clear(m)
				continue
			}

			if !first {
				dst = append(dst, graphicsCarriageReturn)
			}
			first = false

			dst = append(dst, colorIntroducer)
			dst = strconv.AppendInt(dst, int64(c), 10)
			dst = appendSixels(dst, m, f.LimitRepeat)
			clear(m)
		}
	}

	return dst
}

// appendSixels writes one sixel character per mask, collapsing runs.
func appendSixels(dst []byte, masks []byte, limit bool) []byte {
	for x := 0; x < len(masks); {
		run := 1
		for x+run < len(masks) && masks[x+run] == masks[x] {
			run++
		}
		dst = appendRun(dst, masks[x]+sixelOffset, run, limit)
		x += run
	}
	return dst
}

func appendRun(dst []byte, ch byte, n int, limit bool) []byte {
	if limit {
		for ; n > maxRepeat; n -= maxRepeat {
			dst = append(dst, repeatIntroducer, '2', '5', '5', ch)
		}
	}
	if n > 3 {
		dst = append(dst, repeatIntroducer)
		dst = strconv.AppendInt(dst, int64(n), 10)
		return append(dst, ch)
	}
	for ; n > 0; n-- {
		dst = append(dst, ch)
	}
	return dst
}
