package sixel

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestEncoderEncodeImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 255, 0, 255})
	img.SetNRGBA(0, 1, color.NRGBA{0, 0, 255, 255})
	img.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 255})

	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(img); err != nil {
		t.Fatal(err)
	}
	if buf.String() != rgbwSixel {
		t.Errorf("Encode =\n%q\nwant\n%q", buf.String(), rgbwSixel)
	}
}

func TestEncoderBackground(t *testing.T) {
	img := image.NewNRGBA(image.Rect(3, 3, 4, 4))

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.Background = color.White
	if err := enc.Encode(img); err != nil {
		t.Fatal(err)
	}

	want := "\x1bPq\"1;1;1;1#;2;99;99;99#0@\x1b\\"
	if buf.String() != want {
		t.Errorf("Encode = %q, want %q", buf.String(), want)
	}
}

func TestEncoderBuiltin(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.Builtin = BuiltinMonoDark
	enc.Dither = DitherNone
	enc.BodyOnly = true

	if err := enc.EncodeBytes([]byte{0, 0, 0, 250, 250, 250}, 2, 1, RGB888); err != nil {
		t.Fatal(err)
	}

	want := "\x1bPq\"1;1;2;1#0@?$#1?@\x1b\\"
	if buf.String() != want {
		t.Errorf("EncodeBytes = %q, want %q", buf.String(), want)
	}
}

func TestEncoderPalette(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.Palette = []RGB{{255, 255, 255}}

	if err := enc.EncodeBytes([]byte{0x80, 0x40}, 2, 1, G8); err != nil {
		t.Fatal(err)
	}
	want := "\x1bPq\"1;1;2;1#;2;99;99;99#0@@\x1b\\"
	if buf.String() != want {
		t.Errorf("EncodeBytes = %q, want %q", buf.String(), want)
	}
}

func TestEncoderErrors(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(e *Encoder)
		pixels        []byte
		width, height int
		format        PixelFormat
		want          error
	}{
		{"zero width", nil, make([]byte, 12), 0, 2, RGB888, ErrBadInput},
		{"zero height", nil, make([]byte, 12), 2, 0, RGB888, ErrBadInput},
		{"short buffer", nil, make([]byte, 11), 2, 2, RGB888, ErrBadInput},
		{"short packed buffer", nil, make([]byte, 1), 9, 1, G1, ErrBadInput},
		{"unknown format", nil, make([]byte, 12), 2, 2, PixelFormat(0), ErrBadArgument},
		{"no colors", func(e *Encoder) { e.Colors = 0 }, make([]byte, 12), 2, 2, RGB888, ErrBadInput},
		{"too many colors", func(e *Encoder) { e.Colors = 300 }, make([]byte, 12), 2, 2, RGB888, ErrBadInput},
		{"unknown dither", func(e *Encoder) { e.Dither = 99 }, make([]byte, 12), 2, 2, RGB888, ErrBadArgument},
		{"unknown mean", func(e *Encoder) { e.Mean = -1 }, make([]byte, 12), 2, 2, RGB888, ErrBadArgument},
		{"unknown builtin", func(e *Encoder) { e.Builtin = 99 }, make([]byte, 12), 2, 2, RGB888, ErrBadArgument},
		{"palette format", nil, make([]byte, 4), 2, 2, PAL8, ErrBadArgument},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			enc := NewEncoder(&buf)
			if test.setup != nil {
				test.setup(enc)
			}

			err := enc.EncodeBytes(test.pixels, test.width, test.height, test.format)
			if !errors.Is(err, test.want) {
				t.Errorf("EncodeBytes error = %v, want %v", err, test.want)
			}
			if buf.Len() != 0 {
				t.Errorf("wrote %d bytes despite the error", buf.Len())
			}
		})
	}
}

func TestEncoderEmptyImage(t *testing.T) {
	var buf bytes.Buffer
	err := NewEncoder(&buf).Encode(image.NewRGBA(image.Rectangle{}))
	if !errors.Is(err, ErrBadInput) {
		t.Errorf("Encode error = %v, want ErrBadInput", err)
	}
}

func TestFlatten(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{200, 100, 50, 255})
	img.SetNRGBA(1, 0, color.NRGBA{255, 255, 255, 0})

	got := Flatten(img, color.RGBA{10, 20, 30, 255})
	want := []byte{200, 100, 50, 10, 20, 30}
	if !bytes.Equal(got, want) {
		t.Errorf("Flatten = %v, want %v", got, want)
	}
}

func TestFlattenBlendsAndOffsets(t *testing.T) {
	img := image.NewNRGBA(image.Rect(3, 5, 5, 6))
	img.SetNRGBA(3, 5, color.NRGBA{255, 255, 255, 128})
	img.SetNRGBA(4, 5, color.NRGBA{0, 0, 255, 255})

	got := Flatten(img, nil)
	want := []byte{128, 128, 128, 0, 0, 255}
	if len(got) != len(want) {
		t.Fatalf("Flatten returned %d bytes, want %d", len(got), len(want))
	}
	for i := range want {
		if d := int(got[i]) - int(want[i]); d < -2 || d > 2 {
			t.Errorf("Flatten = %v, want about %v", got, want)
			break
		}
	}
}
