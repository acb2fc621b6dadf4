package imaging

import (
	"image"
	"sort"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Enhancement thresholds. A frame whose luminance spread (5th to 95th
// percentile of CIE-Lab L) falls below lowContrastSpread gets a contrast
// boost before recognition.
const (
	lowContrastSpread = 0.35
	contrastBoost     = 0.25
	denoiseRadius     = 1.5
	luminanceSamples  = 64 // sample grid edge length for spread estimation
)

// Preprocess normalizes a frame before OCR.
//
// Frames larger than maxDim on either axis are scaled down to fit within
// maxDim x maxDim, preserving aspect ratio. Low-contrast frames get a
// contrast boost followed by a light Gaussian blur to smooth compression
// noise the boost amplifies. Well-exposed frames pass through with only
// the size cap applied.
//
// A non-positive maxDim disables the size cap.
func Preprocess(img image.Image, maxDim int) image.Image {
	if maxDim > 0 {
		b := img.Bounds()
		if b.Dx() > maxDim || b.Dy() > maxDim {
			img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		}
	}

	if luminanceSpread(img) < lowContrastSpread {
		img = adjust.Contrast(img, contrastBoost)
		img = blur.Gaussian(img, denoiseRadius)
	}
	return img
}

// luminanceSpread estimates the frame's contrast as the spread between
// the 5th and 95th percentile of perceptual lightness, sampled on a
// coarse grid. Values range from 0 (flat) to 1 (full black-to-white).
func luminanceSpread(img image.Image) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}

	stepX := b.Dx() / luminanceSamples
	if stepX < 1 {
		stepX = 1
	}
	stepY := b.Dy() / luminanceSamples
	if stepY < 1 {
		stepY = 1
	}

	var lums []float64
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				// Fully transparent pixel, no meaningful color.
				continue
			}
			l, _, _ := c.Lab()
			lums = append(lums, l)
		}
	}
	if len(lums) < 2 {
		return 0
	}

	sort.Float64s(lums)
	lo := lums[len(lums)*5/100]
	hi := lums[len(lums)*95/100]
	return hi - lo
}
