package palette

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/soniakeys/quant/median"
	"github.com/tmpim/sixel"
)

// FromQuantizer runs any draw.Quantizer over img. A nil quantizer uses
// median cut from github.com/soniakeys/quant.
func FromQuantizer(img image.Image, k int, q draw.Quantizer) []sixel.RGB {
	if q == nil {
		q = median.Quantizer(k)
	}
	p := q.Quantize(make(color.Palette, 0, k), img)
	out := FromColorPalette(p)
	if len(out) > k {
		out = out[:k]
	}
	return out
}
