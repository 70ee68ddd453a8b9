package sixel

import (
	"fmt"
	"io"
	"strconv"
)

// highColorRegisters is the number of colour registers handed out per round
// of a band.
const highColorRegisters = 255

// HighColorCount is the number of colours representable in high colour mode.
const HighColorCount = 1 << 15

// HighColorFrame encodes an RGB888 image without a global palette. Colours
// are reduced to 15 bits and colour registers are redefined inline, band by
// band, so more than 256 colours can appear in one image.
type HighColorFrame struct {
	Width  int
	Height int
	// Pixels holds Width*Height RGB triples.
	Pixels []byte

	Use8BitControls bool
	LimitRepeat     bool
}

// Validate reports whether the frame can be encoded.
func (f *HighColorFrame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("sixel: HighColorFrame: invalid dimensions %dx%d: %w",
			f.Width, f.Height, ErrBadInput)
	}
	if len(f.Pixels) < f.Width*f.Height*3 {
		return fmt.Errorf("sixel: HighColorFrame: %d bytes for %dx%d pixels: %w",
			len(f.Pixels), f.Width, f.Height, ErrBadInput)
	}
	return nil
}

// Bytes returns the complete sixel sequence for the frame.
func (f *HighColorFrame) Bytes() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f.AppendTo(nil), nil
}

// WriteTo writes the complete sixel sequence to w.
func (f *HighColorFrame) WriteTo(w io.Writer) (int64, error) {
	data, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// AppendTo appends the sixel sequence to dst. The frame must be valid.
func (f *HighColorFrame) AppendTo(dst []byte) []byte {
	dst = appendHeader(dst, f.Width, f.Height, false, f.Use8BitControls)

	width := f.Width
	register := make([]int16, cacheSize)
	for i := range register {
		register[i] = -1
	}
	keys := make([]uint16, bandHeight*width)
	done := make([]bool, bandHeight*width)
	masks := make([]byte, highColorRegisters*width)
	assigned := make([]uint16, 0, highColorRegisters)

	for top := 0; top < f.Height; top += bandHeight {
		if top > 0 {
			dst = append(dst, graphicsNewLine)
		}

		rows := min(bandHeight, f.Height-top)
		count := rows * width
		for i := 0; i < count; i++ {
			p := f.Pixels[(top*width+i)*3:]
			keys[i] = uint16(cacheKey(p[0], p[1], p[2]))
			done[i] = false
		}

		first := true
		for remaining := count; remaining > 0; {
			assigned = assigned[:0]
			for i := 0; i < count; i++ {
				if done[i] {
					continue
				}
				k := keys[i]
				reg := register[k]
				if reg < 0 {
					if len(assigned) == highColorRegisters {
						continue
					}
					reg = int16(len(assigned))
					register[k] = reg
					assigned = append(assigned, k)
				}
				masks[int(reg)*width+i%width] |= 1 << (i / width)
				done[i] = true
				remaining--
			}

			for reg, k := range assigned {
				if !first {
					dst = append(dst, graphicsCarriageReturn)
				}
				first = false

				c := RGB{widen5(k >> 10), widen5(k >> 5), widen5(k)}
				dst = SixelColorFromRGB(c).AppendDefinition(dst, reg)
				dst = append(dst, colorIntroducer)
				dst = strconv.AppendInt(dst, int64(reg), 10)

				m := masks[reg*width : (reg+1)*width]
				dst = appendSixels(dst, m, f.LimitRepeat)
				clear(m)
				register[k] = -1
			}
		}
	}

	return appendTerminator(dst, f.Use8BitControls)
}

// reduceTo15Bit snaps a pixel to the nearest colour a HighColorFrame can
// represent.
func reduceTo15Bit(p []byte) RGB {
	return RGB{
		widen5(uint16(p[0] >> 3)),
		widen5(uint16(p[1] >> 3)),
		widen5(uint16(p[2] >> 3)),
	}
}
