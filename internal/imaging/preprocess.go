package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
	"github.com/anthonynsimon/bild/segment"
)

// PreprocessOptions controls Preprocess.
type PreprocessOptions struct {
	// Threshold is the binarization level. Pixels at or above it become
	// white. Zero selects a level automatically with Otsu's method.
	Threshold uint8

	// Radius is the structuring element radius of the closing and opening
	// passes. Zero skips morphology.
	Radius float64
}

// PreprocessResult is the cleaned two-level image and the level used.
type PreprocessResult struct {
	Image *image.Gray
	Level uint8
}

// Preprocess prepares an image for region growing.
//
// The image is converted to grayscale and binarized. A closing (dilate, then
// erode) fills small holes, then an opening (erode, then dilate) removes
// small specks. The result has only the values 0 and 255, so region growing
// on it yields foreground and background blobs instead of one region per
// gray level.
func Preprocess(img image.Image, opts PreprocessOptions) *PreprocessResult {
	gray := effect.Grayscale(img)

	level := opts.Threshold
	if level == 0 {
		level = OtsuLevel(histogram.NewRGBAHistogram(gray).R.Bins)
	}

	bin := segment.Threshold(gray, level)
	if opts.Radius > 0 {
		// Morphology returns RGBA; rethreshold at mid level to stay two-level.
		bin = segment.Threshold(effect.Erode(effect.Dilate(bin, opts.Radius), opts.Radius), 128)
		bin = segment.Threshold(effect.Dilate(effect.Erode(bin, opts.Radius), opts.Radius), 128)
	}

	return &PreprocessResult{Image: bin, Level: level}
}

// OtsuLevel picks the threshold that maximizes the between-class variance of
// a 256-bin intensity histogram. The returned level is the first value of
// the upper class. A histogram with a single populated bin returns that bin.
func OtsuLevel(bins []int) uint8 {
	var total, weighted float64
	first, last := -1, -1
	for v, n := range bins {
		if n == 0 {
			continue
		}
		if first < 0 {
			first = v
		}
		last = v
		total += float64(n)
		weighted += float64(v) * float64(n)
	}
	if first < 0 {
		return 0
	}
	if first == last {
		return uint8(first)
	}

	var (
		best     = first + 1
		bestVar  = -1.0
		lowCount float64
		lowSum   float64
	)
	for t := 1; t < len(bins) && t <= 255; t++ {
		lowCount += float64(bins[t-1])
		lowSum += float64(t-1) * float64(bins[t-1])
		highCount := total - lowCount
		if lowCount == 0 || highCount == 0 {
			continue
		}
		meanLow := lowSum / lowCount
		meanHigh := (weighted - lowSum) / highCount
		between := lowCount * highCount * (meanLow - meanHigh) * (meanLow - meanHigh)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	return uint8(best)
}
