package sixel

import (
	"cmp"
	"fmt"
	"slices"
)

// MaxColors is the largest palette a sixel image can address.
const MaxColors = 256

// Histogram sampling limits per quality mode.
const (
	lowQualitySamples  = 18383
	highQualitySamples = 1118383
)

// lumWeights weight the R, G and B ranges for SplitLum.
var lumWeights = [3]float64{0.299, 0.587, 0.114}

// Palette is the result of quantizing an image.
type Palette struct {
	// Colors holds at most the requested number of colours.
	Colors []RGB
	// OrigColors is the number of distinct colours in the image, counted
	// exactly even when the histogram was bucketed or sampled.
	OrigColors int
}

// histEntry is one histogram bucket. c is the mean colour of the pixels that
// fell into it, which is exact when the bucket holds a single colour.
type histEntry struct {
	key   uint32
	c     [3]uint8
	count int
	sum   [3]int
}

type colorBox struct {
	lo, hi int
	pop    int
}

// MakePalette builds a palette of at most reqcolors colours for pixels, a
// buffer of RGB888 triples, using median cut.
func MakePalette(pixels []byte, reqcolors int, split SplitMethod, mean MeanMethod,
	quality QualityMode) (*Palette, error) {
	if reqcolors < 1 || reqcolors > MaxColors {
		return nil, fmt.Errorf("sixel: MakePalette: requested %d colors, must be 1-%d: %w",
			reqcolors, MaxColors, ErrBadInput)
	}
	if len(pixels) == 0 || len(pixels)%3 != 0 {
		return nil, fmt.Errorf("sixel: MakePalette: pixel buffer length %d is not a positive multiple of 3: %w",
			len(pixels), ErrBadInput)
	}
	if !split.Valid() || !mean.Valid() || !quality.Valid() {
		return nil, fmt.Errorf("sixel: MakePalette: invalid method (%v, %v, %v): %w",
			split, mean, quality, ErrBadArgument)
	}

	quality = quality.resolve(reqcolors)
	distinct := CountColors(pixels)

	if quality == QualityHighColor {
		return &Palette{OrigColors: distinct}, nil
	}

	// An image that already fits is kept exact, whatever the quality.
	var hist []histEntry
	if distinct <= reqcolors {
		hist = exactHistogram(pixels, 1)
	} else {
		hist = computeHistogram(pixels, quality)
	}
	boxes := medianCut(hist, reqcolors, split.resolve())

	colors := make([]RGB, len(boxes))
	for i, b := range boxes {
		colors[i] = representative(hist[b.lo:b.hi], b.pop, mean.resolve())
	}

	return &Palette{
		Colors:     colors,
		OrigColors: distinct,
	}, nil
}

// CountColors returns the number of distinct colours in pixels, a buffer of
// RGB888 triples. Every pixel is counted, independent of histogram sampling.
func CountColors(pixels []byte) int {
	seen := make([]uint64, 1<<24/64)
	n := 0
	for i := 0; i+2 < len(pixels); i += 3 {
		key := uint32(pixels[i])<<16 | uint32(pixels[i+1])<<8 | uint32(pixels[i+2])
		word, bit := key>>6, uint64(1)<<(key&63)
		if seen[word]&bit == 0 {
			seen[word] |= bit
			n++
		}
	}
	return n
}

func sampleStep(npix, maxSamples int) int {
	if npix <= maxSamples {
		return 1
	}
	return (npix + maxSamples - 1) / maxSamples
}

// computeHistogram returns the histogram sorted by key. Low quality buckets
// colours at 5 bits per channel; other modes keep exact colours.
func computeHistogram(pixels []byte, quality QualityMode) []histEntry {
	npix := len(pixels) / 3

	switch quality {
	case QualityLow:
		return bucketHistogram(pixels, sampleStep(npix, lowQualitySamples))
	case QualityFull:
		return exactHistogram(pixels, 1)
	default:
		return exactHistogram(pixels, sampleStep(npix, highQualitySamples))
	}
}

func bucketHistogram(pixels []byte, step int) []histEntry {
	buckets := make([]histEntry, 1<<15)
	used := 0

	for i := 0; i < len(pixels)/3; i += step {
		p := pixels[i*3 : i*3+3]
		key := cacheKey(p[0], p[1], p[2])
		e := &buckets[key]
		if e.count == 0 {
			used++
		}
		e.count++
		e.sum[0] += int(p[0])
		e.sum[1] += int(p[1])
		e.sum[2] += int(p[2])
	}

	hist := make([]histEntry, 0, used)
	for key := range buckets {
		e := buckets[key]
		if e.count == 0 {
			continue
		}
		e.key = uint32(key)
		for ch := 0; ch < 3; ch++ {
			e.c[ch] = uint8((e.sum[ch] + e.count/2) / e.count)
		}
		hist = append(hist, e)
	}

	return hist
}

func exactHistogram(pixels []byte, step int) []histEntry {
	keys := make([]uint32, 0, len(pixels)/3/step+1)
	for i := 0; i < len(pixels)/3; i += step {
		p := pixels[i*3 : i*3+3]
		keys = append(keys, uint32(p[0])<<16|uint32(p[1])<<8|uint32(p[2]))
	}
	slices.Sort(keys)

	var hist []histEntry
	for i := 0; i < len(keys); {
		j := i + 1
		for j < len(keys) && keys[j] == keys[i] {
			j++
		}

		k := keys[i]
		c := [3]uint8{uint8(k >> 16), uint8(k >> 8), uint8(k)}
		n := j - i
		hist = append(hist, histEntry{
			key:   k,
			c:     c,
			count: n,
			sum:   [3]int{int(c[0]) * n, int(c[1]) * n, int(c[2]) * n},
		})
		i = j
	}

	return hist
}

// boxSpread returns the score used to pick a box and the channel with the
// largest (weighted) range.
func boxSpread(entries []histEntry, split SplitMethod) (float64, int) {
	lo := [3]uint8{255, 255, 255}
	var hi [3]uint8
	for _, e := range entries {
		for ch := 0; ch < 3; ch++ {
			lo[ch] = min(lo[ch], e.c[ch])
			hi[ch] = max(hi[ch], e.c[ch])
		}
	}

	best, axis := -1.0, 0
	for ch := 0; ch < 3; ch++ {
		spread := float64(hi[ch] - lo[ch])
		if split == SplitLum {
			spread *= lumWeights[ch]
		}
		if spread > best {
			best, axis = spread, ch
		}
	}

	return best, axis
}

// medianCut partitions hist into at most reqcolors boxes. hist is reordered
// in place so every box is a contiguous range.
func medianCut(hist []histEntry, reqcolors int, split SplitMethod) []colorBox {
	total := 0
	for _, e := range hist {
		total += e.count
	}

	boxes := make([]colorBox, 1, reqcolors)
	boxes[0] = colorBox{lo: 0, hi: len(hist), pop: total}

	for len(boxes) < reqcolors {
		target, axis := -1, 0
		best := 0.0
		for i, b := range boxes {
			if b.hi-b.lo < 2 {
				continue
			}
			spread, ax := boxSpread(hist[b.lo:b.hi], split)
			if spread > best {
				target, axis, best = i, ax, spread
			}
		}
		if target < 0 {
			break
		}

		b := boxes[target]
		entries := hist[b.lo:b.hi]
		slices.SortFunc(entries, func(x, y histEntry) int {
			if c := cmp.Compare(x.c[axis], y.c[axis]); c != 0 {
				return c
			}
			return cmp.Compare(x.key, y.key)
		})

		// Lower half grows until it holds half the population, leaving at
		// least one entry on each side.
		lower := entries[0].count
		cut := 1
		for ; cut < len(entries)-1; cut++ {
			if lower >= b.pop/2 {
				break
			}
			lower += entries[cut].count
		}

		boxes[target] = colorBox{lo: b.lo, hi: b.lo + cut, pop: lower}
		boxes = append(boxes, colorBox{lo: b.lo + cut, hi: b.hi, pop: b.pop - lower})
	}

	return boxes
}

func representative(entries []histEntry, pop int, mean MeanMethod) RGB {
	var out [3]uint8

	switch mean {
	case MeanColors:
		for ch := 0; ch < 3; ch++ {
			sum := 0
			for _, e := range entries {
				sum += int(e.c[ch])
			}
			out[ch] = uint8((sum + len(entries)/2) / len(entries))
		}
	case MeanPixels:
		for ch := 0; ch < 3; ch++ {
			sum := 0
			for _, e := range entries {
				sum += e.sum[ch]
			}
			out[ch] = uint8((sum + pop/2) / pop)
		}
	default:
		for ch := 0; ch < 3; ch++ {
			lo, hi := entries[0].c[ch], entries[0].c[ch]
			for _, e := range entries[1:] {
				lo = min(lo, e.c[ch])
				hi = max(hi, e.c[ch])
			}
			out[ch] = uint8((int(lo) + int(hi)) / 2)
		}
	}

	return RGB{out[0], out[1], out[2]}
}
