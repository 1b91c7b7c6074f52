package imaging

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-partition-mcp/internal/raster"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in several representations.
type ColorResult struct {
	Hex string   `json:"hex"` // Hex format "#RRGGBB"
	RGB RGBColor `json:"rgb"` // RGB components
	HSL HSLColor `json:"hsl"` // HSL representation
}

// DescribeColor expands a packed 0xRRGGBB color into hex, RGB and HSL.
//
// HSL components are truncated to whole degrees and percent. Grays report a
// hue of 0.
func DescribeColor(rgb uint32) ColorResult {
	r, g, b := raster.Unpack(rgb)
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}

	h, s, l := c.Hsl()

	return ColorResult{
		Hex: strings.ToUpper(c.Hex()),
		RGB: RGBColor{R: r, G: g, B: b},
		HSL: HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
	}
}

// DescribeLabel returns the false color used for a region label.
func DescribeLabel(label int) ColorResult {
	r, g, b := LabelColor(label).RGB255()
	return DescribeColor(raster.Pack(r, g, b))
}
