package stream

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/tmpim/sixel"
)

func pngFrame(t *testing.T, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, c)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSessionEncodeFrame(t *testing.T) {
	s := NewSession()

	out, err := s.EncodeFrame(pngFrame(t, color.White))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("\x1bPq\"1;1;4;4")) || !bytes.HasSuffix(out, []byte("\x1b\\")) {
		t.Errorf("EncodeFrame = %q", out)
	}
	if !bytes.Contains(out, []byte("#1;2;99;99;99")) {
		t.Errorf("frame is missing the white definition: %q", out)
	}
}

func TestSessionStablePalette(t *testing.T) {
	s := NewSession()
	if err := s.SetControl(Control{ID: "a", Colors: 2, Dither: "none", StablePalette: true}); err != nil {
		t.Fatal(err)
	}
	if s.ID() != "a" {
		t.Errorf("ID = %q", s.ID())
	}

	if _, err := s.EncodeFrame(pngFrame(t, color.White)); err != nil {
		t.Fatal(err)
	}

	// A red frame is mapped onto the black and white palette of the first.
	out, err := s.EncodeFrame(pngFrame(t, color.RGBA{255, 0, 0, 255}))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(out, []byte(";2;99;;")) {
		t.Errorf("stable palette was rebuilt: %q", out)
	}

	if err := s.SetControl(Control{Colors: 2, Dither: "none"}); err != nil {
		t.Fatal(err)
	}
	out, err = s.EncodeFrame(pngFrame(t, color.RGBA{255, 0, 0, 255}))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(out, []byte(";2;99;;")) {
		t.Errorf("palette was not rebuilt after a new control: %q", out)
	}
}

func TestSessionStablePaletteDithersLaterFrames(t *testing.T) {
	s := NewSession()
	if err := s.SetControl(Control{Colors: 4, StablePalette: true}); err != nil {
		t.Fatal(err)
	}

	// Two colours fit the palette, so the first frame needs no dithering.
	if _, err := s.EncodeFrame(pngFrame(t, color.White)); err != nil {
		t.Fatal(err)
	}
	if got := s.conf.DiffusionType(); got != sixel.DitherFloydSteinberg {
		t.Errorf("stable palette dither = %v, want fs", got)
	}

	if _, err := s.EncodeFrame(pngFrame(t, color.RGBA{90, 160, 30, 255})); err != nil {
		t.Fatal(err)
	}
	if got := s.conf.DiffusionType(); got != sixel.DitherFloydSteinberg {
		t.Errorf("dither after a second frame = %v, want fs", got)
	}
}

func TestControlErrors(t *testing.T) {
	tests := []struct {
		name    string
		control Control
		want    error
	}{
		{"no colors", Control{Colors: 0}, sixel.ErrBadInput},
		{"bad dither", Control{Colors: 4, Dither: "wobble"}, sixel.ErrBadArgument},
		{"bad quality", Control{Colors: 4, Quality: "best"}, sixel.ErrBadArgument},
		{"stable high color", Control{Colors: 4, Quality: "highcolor", StablePalette: true}, sixel.ErrBadArgument},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := NewSession().SetControl(test.control)
			if !errors.Is(err, test.want) {
				t.Errorf("SetControl error = %v, want %v", err, test.want)
			}
			if !IsClientError(err) {
				t.Errorf("IsClientError(%v) = false", err)
			}
		})
	}
}

func TestSessionBadFrame(t *testing.T) {
	if _, err := NewSession().EncodeFrame([]byte("not an image")); err == nil {
		t.Error("EncodeFrame accepted garbage")
	}
}

func TestManagerCount(t *testing.T) {
	m := NewManager()
	s := NewSession()
	m.add(s)
	if m.Count() != 1 {
		t.Errorf("Count = %d, want 1", m.Count())
	}
	m.remove(s)
	if m.Count() != 0 {
		t.Errorf("Count = %d, want 0", m.Count())
	}
}
