package main

import (
	"bufio"
	"flag"
	"image"
	"image/color"
	"io"
	"log"
	"os"
	"time"

	"github.com/disintegration/gift"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/tmpim/sixel"
	"github.com/tmpim/sixel/internal/quality"
	"github.com/tmpim/sixel/palette"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	outputPath    = flag.String("o", "", "set location of output (defaults to stdout)")
	colors        = flag.Int("p", 256, "set the number of colors (1-256)")
	ditherName    = flag.String("d", "auto", "set the dither method (auto, none, atkinson, fs, jajuni, stucki, burkes, sierra1, sierra2, sierra3, a_dither, x_dither)")
	splitName     = flag.String("s", "auto", "set the box split method (auto, norm, lum)")
	meanName      = flag.String("m", "auto", "set the box representative color (auto, center, colors, pixels)")
	qualityName   = flag.String("q", "auto", "set the quality mode (auto, high, low, full, highcolor)")
	paletteMethod = flag.String("palette", "mediancut", "set the palette source (mediancut, kmeans, dominant, imagequant)")
	builtinName   = flag.String("b", "", "use a builtin palette (mono-dark, mono-light, xterm16, xterm256, vt340-mono, vt340-color, gray1, gray2, gray4, gray8)")
	width         = flag.Int("w", 0, "resize to this width (0 keeps the aspect ratio)")
	height        = flag.Int("h", 0, "resize to this height (0 keeps the aspect ratio)")
	background    = flag.String("bg", "#000000", "set the background color for transparent pixels")
	complexion    = flag.Int("c", 1, "set the weight of red in color distance")
	use8bit       = flag.Bool("8bit", false, "use 8-bit C1 control characters")
	bodyOnly      = flag.Bool("body", false, "omit palette definitions")
	serpentine    = flag.Bool("serpentine", false, "alternate the scan direction of error diffusion")
	showStats     = flag.Bool("stats", false, "log the quality of the result")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	if *colors < 1 {
		log.Println("Colors cannot be less than 1.")
		os.Exit(1)
	}

	if *colors > sixel.MaxColors {
		log.Println("Colors cannot be greater than 256.")
		os.Exit(1)
	}

	if *width < 0 || *height < 0 {
		log.Println("Width and height cannot be negative.")
		os.Exit(1)
	}

	if flag.Arg(0) == "" {
		log.Println("Usage: sixel [options] input_image")
		log.Println("")
		log.Println("sixel converts an image (PNG, JPEG, GIF, BMP, TIFF or WebP) into a")
		log.Println("DEC SIXEL sequence that can be displayed by a sixel capable terminal.")
		log.Println("")
		log.Println("Options:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	enc := sixel.NewEncoder(nil)
	enc.Colors = *colors
	enc.Complexion = *complexion
	enc.BodyOnly = *bodyOnly
	enc.Use8BitControls = *use8bit
	enc.Serpentine = *serpentine

	var err error
	if enc.Dither, err = sixel.ParseDitherMethod(*ditherName); err != nil {
		log.Println(err)
		os.Exit(1)
	}
	if enc.Split, err = sixel.ParseSplitMethod(*splitName); err != nil {
		log.Println(err)
		os.Exit(1)
	}
	if enc.Mean, err = sixel.ParseMeanMethod(*meanName); err != nil {
		log.Println(err)
		os.Exit(1)
	}
	if enc.Quality, err = sixel.ParseQualityMode(*qualityName); err != nil {
		log.Println(err)
		os.Exit(1)
	}
	if *builtinName != "" {
		b, ok := sixel.ParseBuiltinPalette(*builtinName)
		if !ok {
			log.Println("Unknown builtin palette:", *builtinName)
			os.Exit(1)
		}
		enc.Builtin = b
	}

	method, err := palette.ParseMethod(*paletteMethod)
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}

	bg, err := colorful.Hex(*background)
	if err != nil {
		log.Println("Invalid background color:", err)
		os.Exit(1)
	}
	r, g, b := bg.RGB255()
	enc.Background = color.RGBA{R: r, G: g, B: b, A: 255}

	start := time.Now()

	var img image.Image

	func() {
		input, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Println("Failed to open image:", err)
			os.Exit(1)
		}
		defer input.Close()

		img, _, err = image.Decode(input)
		if err != nil {
			log.Println("Failed to decode image:", err)
			os.Exit(1)
		}
	}()

	if *width > 0 || *height > 0 {
		filter := gift.New(gift.Resize(*width, *height, gift.LanczosResampling))
		dst := image.NewNRGBA(filter.Bounds(img.Bounds()))
		filter.Draw(dst, img)
		img = dst
	}

	bounds := img.Bounds()
	pixels := sixel.Flatten(img, enc.Background)

	if method != palette.MethodMedianCut && enc.Builtin == 0 {
		enc.Palette, err = palette.Extract(img, enc.Colors, method)
		if err != nil {
			log.Println("Failed to extract palette:", err)
			os.Exit(1)
		}
		palette.SortByBrightness(enc.Palette)
	}

	var out io.Writer = os.Stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			log.Println("Failed to create output file:", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	wr := bufio.NewWriter(out)

	conf, err := enc.DitherConf(pixels, bounds.Dx(), bounds.Dy(), sixel.RGB888)
	if err != nil {
		log.Println("Failed to quantize image:", err)
		os.Exit(1)
	}

	if *showStats && conf.Quality() != sixel.QualityHighColor {
		frame, err := conf.ApplyPalette(pixels, bounds.Dx(), bounds.Dy())
		if err != nil {
			log.Println("Failed to apply palette:", err)
			os.Exit(1)
		}
		log.Printf("%d colors (%d in source), dither %v: %v", len(frame.Palette),
			conf.OrigColors(), conf.DiffusionType(), quality.Measure(pixels, frame.Indices, frame.Palette))

		if _, err := frame.WriteTo(wr); err != nil {
			log.Println("Failed to write output:", err)
			os.Exit(1)
		}
	} else if err := conf.Encode(wr, pixels, bounds.Dx(), bounds.Dy()); err != nil {
		log.Println("Failed to encode image:", err)
		os.Exit(1)
	}

	if err := wr.Flush(); err != nil {
		log.Println("Failed to write output:", err)
		os.Exit(1)
	}

	log.Println("Done! That took " + time.Since(start).String() + ".")
}
