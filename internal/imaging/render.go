package imaging

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-partition-mcp/internal/raster"
)

// goldenAngle spreads consecutive hues far apart on the color wheel.
const goldenAngle = 137.50776405003785

// LabelColor returns the display color of a region label. Labels below 1
// (unlabeled cells) are black. The color depends only on the label, so the
// same region keeps its color across renders.
func LabelColor(label int) colorful.Color {
	if label < 1 {
		return colorful.Color{}
	}
	hue := math.Mod(float64(label-1)*goldenAngle, 360)
	// Alternate saturation and value so that neighboring hues stay distinct.
	sat := 0.55 + 0.15*float64(label%3)
	val := 0.95 - 0.2*float64(label%2)
	return colorful.Hsv(hue, sat, val).Clamped()
}

// FalseColor renders a label grid with one distinct color per label.
func FalseColor(labels *raster.Labels) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, labels.Width, labels.Height))
	cache := make(map[int][3]uint8)
	for i, label := range labels.Cells {
		rgb, ok := cache[label]
		if !ok {
			r, g, b := LabelColor(label).RGB255()
			rgb = [3]uint8{r, g, b}
			cache[label] = rgb
		}
		out.Pix[i*4] = rgb[0]
		out.Pix[i*4+1] = rgb[1]
		out.Pix[i*4+2] = rgb[2]
		out.Pix[i*4+3] = 0xFF
	}
	return out
}

// PaletteImage renders each cluster index through palette. Indices outside
// the palette are black.
func PaletteImage(assignments *raster.Labels, palette []uint32) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, assignments.Width, assignments.Height))
	for i, id := range assignments.Cells {
		c := opaque(0)
		if id >= 0 && id < len(palette) {
			c = opaque(palette[id])
		}
		out.Pix[i*4] = c.R
		out.Pix[i*4+1] = c.G
		out.Pix[i*4+2] = c.B
		out.Pix[i*4+3] = c.A
	}
	return out
}
