package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-partition-mcp/internal/raster"
)

// ToScalar samples the first channel of every pixel as an 8-bit value.
//
// For grayscale images this is the gray level; for color images it is the
// red channel. Callers that want luminance should convert the image with
// Preprocess or a grayscale filter first.
func ToScalar(img image.Image) *raster.Scalar {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	out := raster.NewScalar(w, h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			out.Pix[y*w+x] = row[x*4]
		}
	}
	return out
}

// GrayToScalar copies an 8-bit gray image into a scalar grid.
func GrayToScalar(img *image.Gray) *raster.Scalar {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := raster.NewScalar(w, h)
	for y := 0; y < h; y++ {
		copy(out.Pix[y*w:(y+1)*w], img.Pix[y*img.Stride:y*img.Stride+w])
	}
	return out
}

// ToRGB packs every pixel as 0xRRGGBB. Alpha is ignored.
func ToRGB(img image.Image) *raster.RGB {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	out := raster.NewRGB(w, h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			i := x * 4
			out.Pix[y*w+x] = raster.Pack(row[i], row[i+1], row[i+2])
		}
	}
	return out
}

// FromRGB renders a packed color grid as an opaque image.
func FromRGB(buf *raster.RGB) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	for i, v := range buf.Pix {
		r, g, b := raster.Unpack(v)
		out.Pix[i*4] = r
		out.Pix[i*4+1] = g
		out.Pix[i*4+2] = b
		out.Pix[i*4+3] = 0xFF
	}
	return out
}

// FromScalar renders a scalar grid as a gray image.
func FromScalar(buf *raster.Scalar) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, buf.Width, buf.Height))
	copy(out.Pix, buf.Pix)
	return out
}

// opaque converts a packed color to an opaque NRGBA color.
func opaque(v uint32) color.NRGBA {
	r, g, b := raster.Unpack(v)
	return color.NRGBA{R: r, G: g, B: b, A: 0xFF}
}
