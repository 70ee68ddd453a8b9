// Package quality measures how closely an indexed frame reproduces its
// source pixels.
package quality

import (
	"fmt"
	"math"

	"github.com/tmpim/sixel"
	"gonum.org/v1/gonum/stat"
)

// Report summarises the per-pixel reproduction error.
type Report struct {
	// MSE is the mean squared error per channel.
	MSE float64
	// PSNR is in decibels, +Inf for an exact match.
	PSNR float64
	// Mean and StdDev describe the Euclidean error of each pixel.
	Mean   float64
	StdDev float64
}

func (r Report) String() string {
	return fmt.Sprintf("mse=%.2f psnr=%.2fdB err=%.2f±%.2f", r.MSE, r.PSNR, r.Mean, r.StdDev)
}

// Measure compares src, RGB888 pixels, against the palette colours selected
// by indices.
func Measure(src, indices []byte, palette []sixel.RGB) Report {
	n := min(len(src)/3, len(indices))
	if n == 0 {
		return Report{}
	}

	dist := make([]float64, n)
	var sq float64
	for i := 0; i < n; i++ {
		c := palette[indices[i]]
		dr := float64(src[i*3]) - float64(c.R)
		dg := float64(src[i*3+1]) - float64(c.G)
		db := float64(src[i*3+2]) - float64(c.B)
		d := dr*dr + dg*dg + db*db
		sq += d
		dist[i] = math.Sqrt(d)
	}

	mse := sq / float64(n*3)
	mean, std := stat.MeanStdDev(dist, nil)
	if n == 1 {
		std = 0
	}

	return Report{
		MSE:    mse,
		PSNR:   psnr(mse),
		Mean:   mean,
		StdDev: std,
	}
}

func psnr(mse float64) float64 {
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}
