package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ErrUnknownFormat is returned by Open when neither the file header nor the
// extension names a supported format.
var ErrUnknownFormat = errors.New("imaging: unknown image format")

// decoders maps a format name, as returned by FormatFromPath, to its decoder.
//
// The tga package registers with image.RegisterFormat using an empty magic
// string, which matches any input. Once it is linked, image.Decode (and so
// imaging.Open) hands every file to the TGA decoder, so formats are always
// dispatched explicitly here.
var decoders = map[string]func(io.Reader) (image.Image, error){
	"png":  png.Decode,
	"jpeg": jpeg.Decode,
	"gif":  gif.Decode,
	"bmp":  bmp.Decode,
	"tiff": tiff.Decode,
	"webp": webp.Decode,
	"tga":  tga.Decode,
}

// sniffFormat identifies a format from its leading bytes. TGA has no magic
// number and is only recognized by extension.
func sniffFormat(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png"
	case bytes.HasPrefix(data, []byte("\xff\xd8")):
		return "jpeg"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif"
	case bytes.HasPrefix(data, []byte("BM")):
		return "bmp"
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return "tiff"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "webp"
	default:
		return ""
	}
}

// Open decodes the image file at path.
//
// The format is taken from the file header, falling back to the extension.
// JPEG images have their EXIF orientation applied.
func Open(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	format := sniffFormat(data)
	if format == "" {
		format = FormatFromPath(path)
	}
	decode, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Base(path))
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", format, err)
	}
	if format == "jpeg" {
		img = orient(img, jpegOrientation(data))
	}
	return img, nil
}

// orient applies an EXIF orientation value (1-8) to img.
func orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// jpegOrientation returns the EXIF orientation tag of a JPEG file, or 0 if
// it has none.
func jpegOrientation(data []byte) int {
	const (
		markerAPP1 = 0xe1
		markerSOS  = 0xda
		tagOrient  = 0x0112
	)

	if len(data) < 4 || data[0] != 0xff || data[1] != 0xd8 {
		return 0
	}
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xff {
			return 0
		}
		marker := data[pos+1]
		if marker == markerSOS {
			return 0
		}
		length := int(binary.BigEndian.Uint16(data[pos+2:]))
		end := pos + 2 + length
		if length < 2 || end > len(data) {
			return 0
		}
		seg := data[pos+4 : end]
		pos = end

		if marker != markerAPP1 || !bytes.HasPrefix(seg, []byte("Exif\x00\x00")) {
			continue
		}
		tiffData := seg[6:]
		if len(tiffData) < 8 {
			return 0
		}

		var order binary.ByteOrder
		switch string(tiffData[:2]) {
		case "II":
			order = binary.LittleEndian
		case "MM":
			order = binary.BigEndian
		default:
			return 0
		}

		ifd := int(order.Uint32(tiffData[4:]))
		if ifd+2 > len(tiffData) {
			return 0
		}
		n := int(order.Uint16(tiffData[ifd:]))
		for i := 0; i < n; i++ {
			entry := ifd + 2 + i*12
			if entry+12 > len(tiffData) {
				return 0
			}
			if order.Uint16(tiffData[entry:]) == tagOrient {
				v := int(order.Uint16(tiffData[entry+8:]))
				if v < 1 || v > 8 {
					return 0
				}
				return v
			}
		}
		return 0
	}
	return 0
}
