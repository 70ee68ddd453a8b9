package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	_ "golang.org/x/image/bmp"

	"github.com/disintegration/gift"
	"github.com/tmpim/sixel"
	"github.com/tmpim/sixel/internal/quality"
)

var (
	inputDir   = flag.String("i", "./input_test", "directory of images to test")
	colors     = flag.Int("p", 16, "number of colors")
	profile    = flag.String("cpuprofile", "", "write a CPU profile to this file")
	resizeWide = flag.Int("w", 650, "resize every image to this width")
)

func main() {
	flag.Parse()

	if *profile != "" {
		f, err := os.Create(*profile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	files, err := os.ReadDir(*inputDir)
	if err != nil {
		log.Fatal(err)
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		convert(filepath.Join(*inputDir, f.Name()))
	}
}

func convert(path string) {
	start := time.Now()

	var orig image.Image
	func() {
		input, err := os.Open(path)
		if err != nil {
			log.Println("Failed to open image:", err)
			os.Exit(1)
		}
		defer input.Close()

		orig, _, err = image.Decode(input)
		if err != nil {
			log.Println("Failed to decode image:", path, err)
			os.Exit(1)
		}
	}()

	filter := gift.New(gift.Resize(*resizeWide, 0, gift.LanczosResampling))
	img := image.NewRGBA(filter.Bounds(orig.Bounds()))
	filter.Draw(img, orig)

	log.Println("read+decode+resize:", time.Since(start))

	b := img.Bounds()
	pixels := sixel.Flatten(img, nil)

	fmt.Println(filepath.Base(path))
	for m := sixel.DitherNone; m.Valid(); m++ {
		conf, err := sixel.NewDitherConf(*colors)
		if err != nil {
			log.Println("Failed to create dither conf:", err)
			os.Exit(1)
		}
		if err := conf.SetDiffusionType(m); err != nil {
			log.Println("Failed to set dither method:", err)
			os.Exit(1)
		}

		err = conf.Initialize(pixels, b.Dx(), b.Dy(), sixel.RGB888,
			sixel.SplitAuto, sixel.MeanAuto, sixel.QualityAuto)
		if err != nil {
			log.Println("Failed to quantize image:", err)
			os.Exit(1)
		}

		methodStart := time.Now()
		frame, err := conf.ApplyPalette(pixels, b.Dx(), b.Dy())
		if err != nil {
			log.Println("Failed to apply palette:", err)
			os.Exit(1)
		}

		data, err := frame.Bytes()
		if err != nil {
			log.Println("Failed to encode image:", err)
			os.Exit(1)
		}

		fmt.Printf("  %-9v %v size=%d took=%v\n", conf.DiffusionType(),
			quality.Measure(pixels, frame.Indices, frame.Palette), len(data),
			time.Since(methodStart))
	}

	log.Println("[complete]", time.Since(start))
}
