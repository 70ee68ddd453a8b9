package sixel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/gift"
)

// Encoder writes images to an underlying writer as sixel sequences. The zero
// value of each option selects the automatic behaviour.
type Encoder struct {
	w io.Writer

	// Colors is the maximum palette size, 1 to 256.
	Colors     int
	Dither     DitherMethod
	Split      SplitMethod
	Mean       MeanMethod
	Quality    QualityMode
	Complexion int

	// Background is composited under translucent pixels by Encode. A nil
	// Background means black.
	Background color.Color

	BodyOnly        bool
	Use8BitControls bool
	Serpentine      bool

	// Palette, when set, is used as is instead of quantizing each image.
	Palette []RGB
	// Builtin selects a fixed palette when Palette is empty.
	Builtin BuiltinPalette
}

// NewEncoder returns an Encoder writing to w with 256 colours and automatic
// method selection.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:          w,
		Colors:     MaxColors,
		Complexion: 1,
	}
}

func (e *Encoder) validate() error {
	if e.Colors < 1 || e.Colors > MaxColors {
		return fmt.Errorf("sixel: Encoder: colors must be 1-%d, got %d: %w",
			MaxColors, e.Colors, ErrBadInput)
	}
	if !e.Dither.Valid() {
		return fmt.Errorf("sixel: Encoder: unknown dither method %v: %w", e.Dither, ErrBadArgument)
	}
	if !e.Split.Valid() {
		return fmt.Errorf("sixel: Encoder: unknown split method %v: %w", e.Split, ErrBadArgument)
	}
	if !e.Mean.Valid() {
		return fmt.Errorf("sixel: Encoder: unknown mean method %v: %w", e.Mean, ErrBadArgument)
	}
	if !e.Quality.Valid() {
		return fmt.Errorf("sixel: Encoder: unknown quality mode %v: %w", e.Quality, ErrBadArgument)
	}
	if len(e.Palette) > MaxColors {
		return fmt.Errorf("sixel: Encoder: palette has %d colors, must be at most %d: %w",
			len(e.Palette), MaxColors, ErrBadInput)
	}
	if e.Builtin != 0 && e.Builtin.Colors() == nil {
		return fmt.Errorf("sixel: Encoder: unknown builtin palette %v: %w", e.Builtin, ErrBadArgument)
	}
	return nil
}

// DitherConf builds the DitherConf the encoder would use for pixels.
func (e *Encoder) DitherConf(pixels []byte, width, height int, format PixelFormat) (*DitherConf, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	var (
		d   *DitherConf
		err error
	)

	switch {
	case len(e.Palette) > 0:
		d, err = NewDitherConf(len(e.Palette))
		if err == nil {
			err = d.SetPalette(e.Palette)
		}
	case e.Builtin != 0:
		d, err = NewBuiltinDitherConf(e.Builtin)
	default:
		d, err = NewDitherConf(e.Colors)
		if err == nil {
			err = d.Initialize(pixels, width, height, format, e.Split, e.Mean, e.Quality)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := d.SetDiffusionType(e.Dither); err != nil {
		return nil, err
	}
	if err := d.SetPixelFormat(format); err != nil {
		return nil, err
	}
	d.SetComplexionScore(e.Complexion)
	d.SetBodyOnly(e.BodyOnly)
	d.Set8BitControls(e.Use8BitControls)
	d.SetSerpentine(e.Serpentine)

	return d, nil
}

// EncodeBytes writes raw pixels laid out in format.
func (e *Encoder) EncodeBytes(pixels []byte, width, height int, format PixelFormat) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("sixel: EncodeBytes: invalid dimensions %dx%d: %w",
			width, height, ErrBadInput)
	}
	if !format.Valid() {
		return fmt.Errorf("sixel: EncodeBytes: unsupported pixel format %v: %w",
			format, ErrBadArgument)
	}
	if need := format.RequiredBytes(width, height); len(pixels) < need {
		return fmt.Errorf("sixel: EncodeBytes: %d bytes for %v %dx%d, need %d: %w",
			len(pixels), format, width, height, need, ErrBadInput)
	}

	if e.w == nil {
		return errors.New("sixel: EncodeBytes: writer must be specified")
	}

	d, err := e.DitherConf(pixels, width, height, format)
	if err != nil {
		return err
	}

	return d.Encode(e.w, pixels, width, height)
}

// Encode writes img, flattened onto the background colour.
func (e *Encoder) Encode(img image.Image) error {
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("sixel: Encode: empty image: %w", ErrBadInput)
	}

	pixels := Flatten(img, e.Background)
	return e.EncodeBytes(pixels, b.Dx(), b.Dy(), RGB888)
}

// Flatten composites img over bg and returns its pixels as RGB888.
func Flatten(img image.Image, bg color.Color) []byte {
	if bg == nil {
		bg = color.Black
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	fill := color.RGBAModel.Convert(bg).(color.RGBA)
	fill.A = 255
	for i := 0; i < len(rgba.Pix); i += 4 {
		rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2], rgba.Pix[i+3] = fill.R, fill.G, fill.B, fill.A
	}
	gift.New().DrawAt(rgba, img, image.Point{}, gift.OverOperator)

	n := b.Dx() * b.Dy()
	out := make([]byte, n*3)
	for i := 0; i < n; i++ {
		copy(out[i*3:i*3+3], rgba.Pix[i*4:i*4+3])
	}
	return out
}
