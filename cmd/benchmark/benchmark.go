package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/tmpim/sixel"
)

var (
	workers    = flag.Int("workers", 8, "number of concurrent encoders")
	iterations = flag.Int("n", 20, "encodes per worker")
	size       = flag.Int("size", 512, "width and height of the generated image")
)

func main() {
	flag.Parse()

	img := gradient(*size, *size)

	wg := new(sync.WaitGroup)

	start := time.Now()

	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < *iterations; i++ {
				buf := new(bytes.Buffer)
				enc := sixel.NewEncoder(buf)
				if err := enc.Encode(img); err != nil {
					panic(err)
				}
			}
		}()
	}

	wg.Wait()
	fmt.Println("took:", time.Since(start))
}

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x + y) * 255 / (w + h)),
				A: 255,
			})
		}
	}
	return img
}
