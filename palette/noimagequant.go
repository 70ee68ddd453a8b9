//go:build !imagequant

package palette

import (
	"fmt"
	"image"

	"github.com/tmpim/sixel"
)

// FromImagequant needs libimagequant, which is only linked when building
// with the imagequant tag.
func FromImagequant(img image.Image, k, speed int) ([]sixel.RGB, error) {
	return nil, fmt.Errorf("palette: FromImagequant: built without the imagequant tag: %w",
		sixel.ErrBadArgument)
}
