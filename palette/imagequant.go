//go:build imagequant

package palette

import (
	"fmt"
	"image"

	"github.com/1lann/imagequant"
	"github.com/tmpim/sixel"
)

// FromImagequant quantizes img with libimagequant at the given speed (1 is
// slowest and best, 10 is fastest).
func FromImagequant(img image.Image, k, speed int) ([]sixel.RGB, error) {
	attr, err := imagequantAttributes(k, speed)
	if err != nil {
		return nil, fmt.Errorf("palette: FromImagequant: %w", err)
	}
	defer attr.Release()

	b := img.Bounds()
	quant, err := imagequant.NewImage(attr, imagequant.GoImageToRgba32(img),
		b.Dx(), b.Dy(), 0)
	if err != nil {
		return nil, fmt.Errorf("palette: FromImagequant: NewImage: %s", err.Error())
	}
	defer quant.Release()

	res, err := quant.Quantize(attr)
	if err != nil {
		return nil, fmt.Errorf("palette: FromImagequant: Quantize: %s", err.Error())
	}

	return FromColorPalette(res.GetPalette()), nil
}

func imagequantAttributes(k, speed int) (*imagequant.Attributes, error) {
	attr, err := imagequant.NewAttributes()
	if err != nil {
		return nil, fmt.Errorf("NewAttributes: %s", err.Error())
	}

	if err = attr.SetSpeed(speed); err != nil {
		attr.Release()
		return nil, fmt.Errorf("SetSpeed: %s", err.Error())
	}

	if err = attr.SetMaxColors(k); err != nil {
		attr.Release()
		return nil, fmt.Errorf("SetMaxColors: %s", err.Error())
	}

	return attr, nil
}
