package sixel

import (
	"bytes"
	"errors"
	"testing"
)

func TestHighColorFrameSmall(t *testing.T) {
	f := &HighColorFrame{
		Width:  2,
		Height: 1,
		Pixels: []byte{255, 0, 0, 0, 0, 255},
	}

	got, err := f.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	want := "\x1bPq\"1;1;2;1" +
		"#;2;99;;#0@?" +
		"$#1;2;;;99#1?@" +
		"\x1b\\"
	if string(got) != want {
		t.Errorf("Bytes() = %q, want %q", got, want)
	}
}

func TestHighColorFrameManyColors(t *testing.T) {
	const width, height = 300, 8

	pixels := make([]byte, width*height*3)
	for i := 0; i < width*height; i++ {
		x := i % width
		pixels[i*3] = uint8(x&31) << 3
		pixels[i*3+1] = uint8((x>>5)&31) << 3
		pixels[i*3+2] = uint8(i/width) << 3
	}

	f := &HighColorFrame{Width: width, Height: height, Pixels: pixels}
	data, err := f.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	passes := sixelPasses(t, data)
	// Every pixel of a row has its own colour, and colours differ between
	// rows, so each band needs one pass per pixel of the band.
	if want := width*6 + width*2; len(passes) != want {
		t.Errorf("%d passes, want %d", len(passes), want)
	}
	for i, w := range passes {
		if w != width {
			t.Fatalf("pass %d expands to %d sixels, want %d", i, w, width)
		}
	}

	if bytes.Contains(data, []byte("#255;")) {
		t.Error("register 255 is above the per round limit")
	}
}

func TestHighColorFrameValidate(t *testing.T) {
	f := &HighColorFrame{Width: 2, Height: 2, Pixels: make([]byte, 11)}
	if _, err := f.Bytes(); !errors.Is(err, ErrBadInput) {
		t.Errorf("Bytes error = %v, want ErrBadInput", err)
	}
}

func TestReduceTo15Bit(t *testing.T) {
	tests := []struct {
		in   [3]byte
		want RGB
	}{
		{[3]byte{0, 0, 0}, RGB{0, 0, 0}},
		{[3]byte{255, 255, 255}, RGB{255, 255, 255}},
		{[3]byte{7, 8, 130}, RGB{0, 8, 132}},
	}
	for _, test := range tests {
		if got := reduceTo15Bit(test.in[:]); got != test.want {
			t.Errorf("reduceTo15Bit(%v) = %v, want %v", test.in, got, test.want)
		}
	}
}
