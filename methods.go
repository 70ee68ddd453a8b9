package sixel

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitMethod selects which colour box the quantizer splits next.
type SplitMethod int

// Possible split methods.
const (
	SplitAuto SplitMethod = iota
	// SplitNorm splits the box with the largest channel range.
	SplitNorm
	// SplitLum splits the box with the largest luminance weighted range.
	SplitLum

	splitMethodCount
)

var splitMethodNames = [splitMethodCount]string{"auto", "norm", "lum"}

func (m SplitMethod) String() string {
	if m >= 0 && m < splitMethodCount {
		return splitMethodNames[m]
	}
	return "SplitMethod(" + strconv.Itoa(int(m)) + ")"
}

// Valid reports whether m is a known split method.
func (m SplitMethod) Valid() bool {
	return m >= 0 && m < splitMethodCount
}

func (m SplitMethod) resolve() SplitMethod {
	if m == SplitAuto {
		return SplitNorm
	}
	return m
}

// MeanMethod selects how the representative colour of a box is chosen.
type MeanMethod int

// Possible mean methods.
const (
	MeanAuto MeanMethod = iota
	// MeanCenter uses the centre of the box.
	MeanCenter
	// MeanColors averages the distinct colours in the box.
	MeanColors
	// MeanPixels averages every pixel in the box.
	MeanPixels

	meanMethodCount
)

var meanMethodNames = [meanMethodCount]string{"auto", "center", "colors", "pixels"}

func (m MeanMethod) String() string {
	if m >= 0 && m < meanMethodCount {
		return meanMethodNames[m]
	}
	return "MeanMethod(" + strconv.Itoa(int(m)) + ")"
}

// Valid reports whether m is a known mean method.
func (m MeanMethod) Valid() bool {
	return m >= 0 && m < meanMethodCount
}

func (m MeanMethod) resolve() MeanMethod {
	if m == MeanAuto {
		return MeanCenter
	}
	return m
}

// QualityMode trades histogram density against speed.
type QualityMode int

// Possible quality modes.
const (
	QualityAuto QualityMode = iota
	QualityHigh
	QualityLow
	QualityFull
	// QualityHighColor skips quantization and encodes 15-bit colour directly.
	QualityHighColor

	qualityModeCount
)

var qualityModeNames = [qualityModeCount]string{"auto", "high", "low", "full", "highcolor"}

func (q QualityMode) String() string {
	if q >= 0 && q < qualityModeCount {
		return qualityModeNames[q]
	}
	return "QualityMode(" + strconv.Itoa(int(q)) + ")"
}

// Valid reports whether q is a known quality mode.
func (q QualityMode) Valid() bool {
	return q >= 0 && q < qualityModeCount
}

func (q QualityMode) resolve(reqcolors int) QualityMode {
	if q != QualityAuto {
		return q
	}
	if reqcolors <= 8 {
		return QualityHigh
	}
	return QualityLow
}

// DitherMethod selects how pixels are mapped onto the palette.
type DitherMethod int

// Possible dither methods.
const (
	DitherAuto DitherMethod = iota
	// DitherNone maps each pixel to its nearest palette colour.
	DitherNone
	DitherAtkinson
	DitherFloydSteinberg
	DitherJarvisJudiceNinke
	DitherStucki
	DitherBurkes
	// DitherSierra1 is Sierra Lite.
	DitherSierra1
	// DitherSierra2 is the two row Sierra filter.
	DitherSierra2
	DitherSierra3
	// DitherA and DitherX are positional patterns; no error is carried.
	DitherA
	DitherX

	ditherMethodCount
)

var ditherMethodNames = [ditherMethodCount]string{
	"auto", "none", "atkinson", "fs", "jajuni", "stucki", "burkes",
	"sierra1", "sierra2", "sierra3", "a_dither", "x_dither",
}

func (m DitherMethod) String() string {
	if m >= 0 && m < ditherMethodCount {
		return ditherMethodNames[m]
	}
	return "DitherMethod(" + strconv.Itoa(int(m)) + ")"
}

// Valid reports whether m is a known dither method.
func (m DitherMethod) Valid() bool {
	return m >= 0 && m < ditherMethodCount
}

func parseName(kind, s string, names []string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range names {
		if name == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("sixel: unknown %s %q (want one of %s): %w",
		kind, s, strings.Join(names, ", "), ErrBadArgument)
}

// ParseSplitMethod parses the name returned by SplitMethod.String.
func ParseSplitMethod(s string) (SplitMethod, error) {
	i, err := parseName("split method", s, splitMethodNames[:])
	return SplitMethod(i), err
}

// ParseMeanMethod parses the name returned by MeanMethod.String.
func ParseMeanMethod(s string) (MeanMethod, error) {
	i, err := parseName("mean method", s, meanMethodNames[:])
	return MeanMethod(i), err
}

// ParseQualityMode parses the name returned by QualityMode.String.
func ParseQualityMode(s string) (QualityMode, error) {
	i, err := parseName("quality mode", s, qualityModeNames[:])
	return QualityMode(i), err
}

// ParseDitherMethod parses the name returned by DitherMethod.String.
func ParseDitherMethod(s string) (DitherMethod, error) {
	i, err := parseName("dither method", s, ditherMethodNames[:])
	return DitherMethod(i), err
}
