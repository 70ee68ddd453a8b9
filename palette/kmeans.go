package palette

import (
	"cmp"
	"image"
	"math"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/tmpim/sixel"
)

// kmeansSamples bounds the number of pixels clustered.
const kmeansSamples = 1 << 13

// FromKMeans clusters img's visible pixels and returns at most k cluster
// centres, most populated first. Images with no more than k colours are
// returned exactly without clustering. It returns nil when img has no
// visible pixels.
func FromKMeans(img image.Image, k int) []sixel.RGB {
	if k <= 0 {
		return nil
	}

	pixels := opaquePixels(img)
	if len(pixels) == 0 {
		return nil
	}
	if sixel.CountColors(pixels) <= k {
		return byPopulation(pixels)
	}

	n := len(pixels) / 3
	step := (n + kmeansSamples - 1) / kmeansSamples

	dataset := make(clusters.Observations, 0, n/step+1)
	for i := 0; i < n; i += step {
		p := pixels[i*3 : i*3+3]
		dataset = append(dataset, clusters.Coordinates{float64(p[0]), float64(p[1]), float64(p[2])})
	}

	cc, err := kmeans.New().Partition(dataset, min(k, len(dataset)))
	if err != nil || len(cc) == 0 {
		return nil
	}

	slices.SortStableFunc(cc, func(a, b clusters.Cluster) int {
		return cmp.Compare(len(b.Observations), len(a.Observations))
	})

	out := make([]sixel.RGB, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		rgb := sixel.RGB{R: centreChannel(c.Center[0]), G: centreChannel(c.Center[1]), B: centreChannel(c.Center[2])}
		if !slices.Contains(out, rgb) {
			out = append(out, rgb)
		}
	}
	return out
}

func centreChannel(v float64) uint8 {
	return uint8(math.Round(min(max(v, 0), 255)))
}
