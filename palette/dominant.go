package palette

import (
	"image"

	"github.com/cenkalti/dominantcolor"
	"github.com/tmpim/sixel"
)

type candidate struct {
	rgb sixel.RGB
	sc  sixel.SixelColor
	w   float64
}

// FromDominant picks k colours from img's dominant colours. Candidates that
// a terminal would show as the same sixel colour are merged. The heaviest
// candidate is taken first, then each step takes the one with the largest
// weight times squared sixel distance to the colours already chosen.
func FromDominant(img image.Image, k int) []sixel.RGB {
	if k <= 0 {
		return nil
	}

	var items []candidate
	for _, c := range dominantcolor.FindWeight(img, min(k*4, sixel.MaxColors)) {
		rgb := fromColor(c.RGBA)
		sc := sixel.SixelColorFromRGB(rgb)

		merged := false
		for i := range items {
			if items[i].sc == sc {
				items[i].w += c.Weight
				merged = true
				break
			}
		}
		if !merged {
			items = append(items, candidate{rgb: rgb, sc: sc, w: c.Weight})
		}
	}
	if len(items) == 0 {
		return nil
	}

	return spread(items, min(k, len(items)))
}

func sixelDistance(a, b sixel.SixelColor) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

func spread(items []candidate, k int) []sixel.RGB {
	first := 0
	for i := range items {
		if items[i].w > items[first].w {
			first = i
		}
	}

	chosen := []int{first}
	// dist holds each candidate's squared distance to the closest chosen
	// colour.
	dist := make([]int, len(items))
	for i := range items {
		dist[i] = sixelDistance(items[i].sc, items[first].sc)
	}

	for len(chosen) < k {
		best, bestScore := -1, 0.0
		for i := range items {
			if score := float64(dist[i]) * items[i].w; dist[i] > 0 && score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		chosen = append(chosen, best)
		for i := range items {
			dist[i] = min(dist[i], sixelDistance(items[i].sc, items[best].sc))
		}
	}

	out := make([]sixel.RGB, len(chosen))
	for i, c := range chosen {
		out[i] = items[c].rgb
	}
	return out
}
