// Package imaging is the image collaborator layer around the partitioning
// algorithms.
//
// It decodes image files into the plain pixel grids consumed by the segment
// and quantize packages, optionally preprocesses them, and renders label or
// cluster grids back into images. The algorithm packages never import it.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Images whose bounds do not start at the origin are normalized when they are
// converted into grids, so grid cell (0,0) is always the image's top-left pixel.
//
// # Supported Formats
//
// Decoding covers PNG, JPEG, GIF, TIFF and BMP through disintegration/imaging,
// plus WebP and TGA through registered decoders. Encoding picks the format
// from the output file extension; WebP output uses a native lossless encoder.
//
// # Preprocessing
//
// Preprocess turns an image into a clean two-level grid before region
// growing: grayscale, threshold (Otsu when no level is given), then a
// morphological closing followed by an opening.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless.
package imaging
