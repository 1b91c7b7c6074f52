package imaging

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
)

// ErrUnsupportedFormat is returned by Save for an unknown output extension.
var ErrUnsupportedFormat = errors.New("imaging: unsupported output format")

// Save writes img to path in the format implied by its extension.
//
// PNG, JPEG, GIF, TIFF and BMP are written by disintegration/imaging, WebP
// with a lossless native encoder and TGA with ftrvxmtrx/tga.
// Missing parent directories are created.
func Save(img image.Image, path string) error {
	format := FormatFromPath(path)
	if format == "unknown" {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	switch format {
	case "webp":
		return encodeFile(path, func(f *os.File) error {
			return nativewebp.Encode(f, img, nil)
		})
	case "tga":
		return encodeFile(path, func(f *os.File) error {
			return tga.Encode(f, img)
		})
	}

	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

func encodeFile(path string, encode func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	if err := encode(f); err != nil {
		return fmt.Errorf("failed to encode %s: %w", strings.TrimPrefix(filepath.Ext(path), "."), err)
	}
	return nil
}
