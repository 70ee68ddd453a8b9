package sixel

import (
	"bytes"
	"errors"
	"testing"
)

// rgbwPixels is a 2x2 image: red, green on the first row and blue, white on
// the second.
var rgbwPixels = []byte{
	255, 0, 0, 0, 255, 0,
	0, 0, 255, 255, 255, 255,
}

const rgbwSixel = "\x1bPq\"1;1;2;2" +
	"#;2;;;99#1;2;99;;#2;2;;99;#3;2;99;99;99" +
	"#0A?$#1@?$#2?@$#3?A" +
	"\x1b\\"

func TestDitherConfFourColors(t *testing.T) {
	d, err := NewDitherConf(256)
	if err != nil {
		t.Fatal(err)
	}

	err = d.Initialize(rgbwPixels, 2, 2, RGB888, SplitAuto, MeanAuto, QualityAuto)
	if err != nil {
		t.Fatal(err)
	}

	if d.NumColors() != 4 || d.OrigColors() != 4 {
		t.Errorf("ncolors=%d origcolors=%d, want 4 and 4", d.NumColors(), d.OrigColors())
	}
	if d.DiffusionType() != DitherNone {
		t.Errorf("DiffusionType = %v, want none", d.DiffusionType())
	}

	got, err := d.EncodeToBytes(rgbwPixels, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != rgbwSixel {
		t.Errorf("EncodeToBytes =\n%q\nwant\n%q", got, rgbwSixel)
	}
	if n := bytes.Count(got, []byte(";2;")); n != 4 {
		t.Errorf("%d palette definitions, want 4", n)
	}
	if bytes.IndexByte(got, '-') >= 0 {
		t.Error("2 pixel high image has more than one band")
	}

	again, err := d.EncodeToBytes(rgbwPixels, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, again) {
		t.Error("encoding twice with the same DitherConf differs")
	}
}

func TestDitherConfCloseColors(t *testing.T) {
	pixels := pixelsOf(closeColors, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 0, 1, 2})

	d, err := NewDitherConf(256)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Initialize(pixels, 4, 3, RGB888, SplitAuto, MeanAuto, QualityAuto); err != nil {
		t.Fatal(err)
	}
	if d.OrigColors() != len(closeColors) || d.NumColors() != len(closeColors) {
		t.Errorf("ncolors=%d origcolors=%d, want %d", d.NumColors(), d.OrigColors(), len(closeColors))
	}
	if d.DiffusionType() != DitherNone {
		t.Errorf("DiffusionType = %v, want none", d.DiffusionType())
	}

	frame, err := d.ApplyPalette(pixels, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, idx := range frame.Indices {
		got := frame.Palette[idx]
		want := RGB{pixels[i*3], pixels[i*3+1], pixels[i*3+2]}
		if got != want {
			t.Errorf("pixel %d maps to %v, want %v", i, got, want)
		}
	}
}

func TestDitherConfDeterministic(t *testing.T) {
	pixels := gradientPixels(40, 30)

	encode := func() []byte {
		d, err := NewDitherConf(8)
		if err != nil {
			t.Fatal(err)
		}
		if err := d.SetDiffusionType(DitherJarvisJudiceNinke); err != nil {
			t.Fatal(err)
		}
		d.SetSerpentine(true)
		if err := d.Initialize(pixels, 40, 30, RGB888, SplitLum, MeanPixels, QualityFull); err != nil {
			t.Fatal(err)
		}
		out, err := d.EncodeToBytes(pixels, 40, 30)
		if err != nil {
			t.Fatal(err)
		}
		return out
	}

	a, b := encode(), encode()
	if !bytes.Equal(a, b) {
		t.Error("encodings differ")
	}
	for i, w := range sixelPasses(t, a) {
		if w != 40 {
			t.Fatalf("pass %d expands to %d sixels", i, w)
		}
	}
}

func TestDitherConfInputIsNotModified(t *testing.T) {
	pixels := gradientPixels(16, 16)
	orig := append([]byte(nil), pixels...)

	d, err := NewDitherConf(4)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Initialize(pixels, 16, 16, RGB888, SplitAuto, MeanAuto, QualityAuto); err != nil {
		t.Fatal(err)
	}
	if _, err := d.ApplyPalette(pixels, 16, 16); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pixels, orig) {
		t.Error("ApplyPalette modified its input")
	}
}

func TestDitherConfOptimizePaletteKeyColor(t *testing.T) {
	d, err := NewDitherConf(3)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.SetPalette([]RGB{{0, 0, 0}, {255, 0, 0}, {0, 0, 255}}); err != nil {
		t.Fatal(err)
	}
	if err := d.SetDiffusionType(DitherNone); err != nil {
		t.Fatal(err)
	}
	d.SetOptimizePalette(true)
	d.SetTransparent(2)

	frame, err := d.ApplyPalette([]byte{0, 0, 255, 0, 0, 255, 255, 0, 0}, 3, 1)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(frame.Indices, []byte{0, 0, 1}) {
		t.Errorf("indices = %v", frame.Indices)
	}
	if len(frame.Palette) != 2 || frame.Palette[0] != (RGB{0, 0, 255}) || frame.Palette[1] != (RGB{255, 0, 0}) {
		t.Errorf("palette = %v", frame.Palette)
	}
	if !frame.Transparent || frame.KeyColor != 0 {
		t.Errorf("transparent=%v key=%d, want true and 0", frame.Transparent, frame.KeyColor)
	}
	if d.NumColors() != 3 {
		t.Errorf("optimizing a frame changed the configured palette to %d colors", d.NumColors())
	}
}

func TestDitherConfBuiltinGray(t *testing.T) {
	d, err := NewBuiltinDitherConf(BuiltinG1)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.SetPixelFormat(G1); err != nil {
		t.Fatal(err)
	}

	frame, err := d.ApplyPalette([]byte{0xa0}, 8, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(frame.Indices, []byte{1, 0, 1, 0, 0, 0, 0, 0}) {
		t.Errorf("indices = %v", frame.Indices)
	}
}

func TestDitherConfGrayQuantized(t *testing.T) {
	d, err := NewDitherConf(2)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Initialize([]byte{0x0f}, 8, 1, G1, SplitAuto, MeanAuto, QualityAuto); err != nil {
		t.Fatal(err)
	}

	p := d.Palette()
	if len(p) != 2 || p[0] != (RGB{}) || p[1] != (RGB{255, 255, 255}) {
		t.Errorf("palette = %v, want black and white", p)
	}
}

func TestDitherConfPaletteFormat(t *testing.T) {
	d, err := NewDitherConf(2)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Initialize([]byte{0, 1}, 2, 1, PAL8, SplitAuto, MeanAuto, QualityAuto); !errors.Is(err, ErrBadArgument) {
		t.Errorf("Initialize(PAL8) error = %v, want ErrBadArgument", err)
	}

	if err := d.SetPalette([]RGB{{0, 0, 0}, {255, 255, 255}}); err != nil {
		t.Fatal(err)
	}
	if err := d.SetPixelFormat(PAL8); err != nil {
		t.Fatal(err)
	}

	frame, err := d.ApplyPalette([]byte{1, 0}, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(frame.Indices, []byte{1, 0}) {
		t.Errorf("indices = %v", frame.Indices)
	}

	if _, err := d.ApplyPalette([]byte{2, 0}, 2, 1); !errors.Is(err, ErrBadInput) {
		t.Errorf("out of range index error = %v, want ErrBadInput", err)
	}
}

func TestDitherConfHighColor(t *testing.T) {
	pixels := gradientPixels(20, 9)

	d, err := NewDitherConf(256)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Initialize(pixels, 20, 9, RGB888, SplitAuto, MeanAuto, QualityHighColor); err != nil {
		t.Fatal(err)
	}
	if d.DiffusionType() != DitherFloydSteinberg {
		t.Errorf("DiffusionType = %v, want fs", d.DiffusionType())
	}
	if d.NumColors() != HighColorCount {
		t.Errorf("NumColors = %d, want %d", d.NumColors(), HighColorCount)
	}

	if _, err := d.ApplyPalette(pixels, 20, 9); !errors.Is(err, ErrBadArgument) {
		t.Errorf("ApplyPalette error = %v, want ErrBadArgument", err)
	}

	data, err := d.EncodeToBytes(pixels, 20, 9)
	if err != nil {
		t.Fatal(err)
	}
	for i, w := range sixelPasses(t, data) {
		if w != 20 {
			t.Fatalf("pass %d expands to %d sixels", i, w)
		}
	}
}

func TestDitherConfErrors(t *testing.T) {
	for _, n := range []int{0, -1, 257} {
		if _, err := NewDitherConf(n); !errors.Is(err, ErrBadInput) {
			t.Errorf("NewDitherConf(%d) error = %v, want ErrBadInput", n, err)
		}
	}

	if _, err := NewBuiltinDitherConf(BuiltinPalette(0)); !errors.Is(err, ErrBadArgument) {
		t.Errorf("NewBuiltinDitherConf(0) error = %v", err)
	}

	d, err := NewDitherConf(4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.ApplyPalette(rgbwPixels, 2, 2); !errors.Is(err, ErrBadInput) {
		t.Errorf("ApplyPalette before Initialize error = %v, want ErrBadInput", err)
	}
	if err := d.SetPalette(nil); !errors.Is(err, ErrBadInput) {
		t.Errorf("SetPalette(nil) error = %v", err)
	}
	if err := d.SetDiffusionType(DitherMethod(99)); !errors.Is(err, ErrBadArgument) {
		t.Errorf("SetDiffusionType(99) error = %v", err)
	}
	if err := d.SetPixelFormat(PixelFormat(99)); !errors.Is(err, ErrBadArgument) {
		t.Errorf("SetPixelFormat(99) error = %v", err)
	}
	if err := d.Initialize(rgbwPixels[:5], 2, 2, RGB888, SplitAuto, MeanAuto, QualityAuto); !errors.Is(err, ErrBadInput) {
		t.Errorf("Initialize with short buffer error = %v", err)
	}
}
