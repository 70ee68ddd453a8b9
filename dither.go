package sixel

import "fmt"

// kernelTap spreads weight/divisor of the error to the pixel at (x+dx, y+dy).
type kernelTap struct {
	dx, dy, weight int
}

type kernel struct {
	divisor int
	taps    []kernelTap
}

// Published error diffusion filters. Atkinson deliberately diffuses only
// 6/8 of the error.
var kernels = map[DitherMethod]kernel{
	DitherFloydSteinberg: {16, []kernelTap{
		{1, 0, 7},
		{-1, 1, 3}, {0, 1, 5}, {1, 1, 1},
	}},
	DitherAtkinson: {8, []kernelTap{
		{1, 0, 1}, {2, 0, 1},
		{-1, 1, 1}, {0, 1, 1}, {1, 1, 1},
		{0, 2, 1},
	}},
	DitherJarvisJudiceNinke: {48, []kernelTap{
		{1, 0, 7}, {2, 0, 5},
		{-2, 1, 3}, {-1, 1, 5}, {0, 1, 7}, {1, 1, 5}, {2, 1, 3},
		{-2, 2, 1}, {-1, 2, 3}, {0, 2, 5}, {1, 2, 3}, {2, 2, 1},
	}},
	DitherStucki: {42, []kernelTap{
		{1, 0, 8}, {2, 0, 4},
		{-2, 1, 2}, {-1, 1, 4}, {0, 1, 8}, {1, 1, 4}, {2, 1, 2},
		{-2, 2, 1}, {-1, 2, 2}, {0, 2, 4}, {1, 2, 2}, {2, 2, 1},
	}},
	DitherBurkes: {32, []kernelTap{
		{1, 0, 8}, {2, 0, 4},
		{-2, 1, 2}, {-1, 1, 4}, {0, 1, 8}, {1, 1, 4}, {2, 1, 2},
	}},
	DitherSierra1: {4, []kernelTap{
		{1, 0, 2},
		{-1, 1, 1}, {0, 1, 1},
	}},
	DitherSierra2: {16, []kernelTap{
		{1, 0, 4}, {2, 0, 3},
		{-2, 1, 1}, {-1, 1, 2}, {0, 1, 3}, {1, 1, 2}, {2, 1, 1},
	}},
	DitherSierra3: {32, []kernelTap{
		{1, 0, 5}, {2, 0, 3},
		{-2, 1, 2}, {-1, 1, 4}, {0, 1, 5}, {1, 1, 4}, {2, 1, 2},
		{-1, 2, 2}, {0, 2, 3}, {1, 2, 2},
	}},
}

// ResolveDitherMethod turns DitherAuto into a concrete method. No dithering
// is needed when the palette already holds every colour of the image;
// otherwise large palettes get the wide Stucki filter and small palettes the
// narrow Floyd-Steinberg filter.
func ResolveDitherMethod(m DitherMethod, ncolors, origcolors int) DitherMethod {
	if origcolors > 0 && origcolors <= ncolors {
		return DitherNone
	}
	if m != DitherAuto {
		return m
	}
	if ncolors > 16 {
		return DitherStucki
	}
	return DitherFloydSteinberg
}

// ApplyOptions configures ApplyPalette.
type ApplyOptions struct {
	Method DitherMethod
	// Optimized marks the palette as stable, allowing the cache table to be
	// used.
	Optimized bool
	// OptimizePalette renumbers indices in order of first use and compacts
	// the palette to the colours actually used.
	OptimizePalette bool
	// Complexion weights the red channel in colour distance. Values below 1
	// are treated as 1.
	Complexion int
	// Serpentine scans odd rows right to left.
	Serpentine bool
}

// ApplyPalette writes the palette index of every pixel of src, an RGB888
// buffer, into dst and returns the number of palette colours in use. Error
// diffusion updates src in place. When opts.OptimizePalette is set, palette
// is compacted in place and only the first n entries remain meaningful.
func ApplyPalette(dst, src []byte, width, height int, palette []RGB,
	opts ApplyOptions, cache *CacheTable) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("sixel: ApplyPalette: invalid dimensions %dx%d: %w",
			width, height, ErrBadInput)
	}
	if len(palette) == 0 || len(palette) > MaxColors {
		return 0, fmt.Errorf("sixel: ApplyPalette: palette has %d colors, must be 1-%d: %w",
			len(palette), MaxColors, ErrBadInput)
	}
	n := width * height
	if len(src) < n*3 || len(dst) < n {
		return 0, fmt.Errorf("sixel: ApplyPalette: buffers too short for %dx%d: %w",
			width, height, ErrBadInput)
	}
	if !opts.Method.Valid() {
		return 0, fmt.Errorf("sixel: ApplyPalette: %v: %w", opts.Method, ErrBadArgument)
	}

	complexion := max(opts.Complexion, 1)
	lookup := func(r, g, b uint8) int {
		return nearest(palette, r, g, b, complexion)
	}
	if opts.Optimized && cache != nil {
		lookup = func(r, g, b uint8) int {
			return cache.lookup(palette, r, g, b, complexion)
		}
	}

	switch opts.Method {
	case DitherAuto, DitherNone:
		for i := 0; i < n; i++ {
			p := src[i*3 : i*3+3]
			dst[i] = byte(lookup(p[0], p[1], p[2]))
		}
	case DitherA, DitherX:
		positionalDither(dst, src, width, height, opts.Method, lookup)
	default:
		diffuseDither(src, width, height, kernels[opts.Method], opts.Serpentine,
			func(i int, p []byte) RGB {
				idx := lookup(p[0], p[1], p[2])
				dst[i] = byte(idx)
				return palette[idx]
			})
	}

	if !opts.OptimizePalette {
		return len(palette), nil
	}
	used, _ := compactPalette(dst[:n], palette)
	return used, nil
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// diffuseDither walks src in scan order, asking quantize for the colour each
// pixel becomes and spreading the difference onto pixels not yet visited.
// quantize receives the pixel number and its current (error adjusted) value.
func diffuseDither(src []byte, width, height int, k kernel, serpentine bool,
	quantize func(i int, p []byte) RGB) {
	for y := 0; y < height; y++ {
		dir, x0, x1 := 1, 0, width
		if serpentine && y%2 == 1 {
			dir, x0, x1 = -1, width-1, -1
		}

		for x := x0; x != x1; x += dir {
			i := y*width + x
			p := src[i*3 : i*3+3]
			c := quantize(i, p)
			errs := [3]int{
				int(p[0]) - int(c.R),
				int(p[1]) - int(c.G),
				int(p[2]) - int(c.B),
			}
			if errs == [3]int{} {
				continue
			}

			for _, t := range k.taps {
				nx, ny := x+t.dx*dir, y+t.dy
				if nx < 0 || nx >= width || ny >= height {
					continue
				}
				q := src[(ny*width+nx)*3:]
				for ch := 0; ch < 3; ch++ {
					q[ch] = clampChannel(int(q[ch]) + errs[ch]*t.weight/k.divisor)
				}
			}
		}
	}
}

// positionalDither offsets each channel by a fixed pseudo random pattern
// before the lookup. src is left untouched.
func positionalDither(dst, src []byte, width, height int, method DitherMethod,
	lookup func(r, g, b uint8) int) {
	mask := maskA
	if method == DitherX {
		mask = maskX
	}

	var v [3]uint8
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			for ch := 0; ch < 3; ch++ {
				v[ch] = clampChannel(int(src[i*3+ch]) + mask(x, y, ch))
			}
			dst[i] = byte(lookup(v[0], v[1], v[2]))
		}
	}
}

// maskA and maskX return offsets in -32..32 for the a_dither and x_dither
// patterns.
func maskA(x, y, c int) int {
	return ((((x+c*67)+y*236)*119)&255)/4 - 32
}

func maskX(x, y, c int) int {
	return ((((x+c*29)^(y*149))*1234)&511)/8 - 32
}

// compactPalette renumbers indices in order of first use, moves the used
// colours to the front of palette and returns how many there are along with
// the old to new index mapping (-1 for unused entries).
func compactPalette(indices []byte, palette []RGB) (int, [MaxColors]int) {
	var remap [MaxColors]int
	for i := range remap {
		remap[i] = -1
	}

	used := 0
	for i, idx := range indices {
		if remap[idx] < 0 {
			remap[idx] = used
			used++
		}
		indices[i] = byte(remap[idx])
	}

	orig := make([]RGB, len(palette))
	copy(orig, palette)
	for old, nu := range remap[:len(orig)] {
		if nu >= 0 {
			palette[nu] = orig[old]
		}
	}

	return used, remap
}
