// Package raster holds the flat pixel and label grids shared by the
// segmentation and quantization algorithms.
//
// All grids are stored row-major in a single slice: the cell at (x, y)
// lives at index y*Width + x.
package raster

// Unlabeled marks a label or assignment cell that has not been assigned yet.
const Unlabeled = -1

// Scalar is a grid of single-channel 8-bit intensity values.
type Scalar struct {
	Width, Height int
	Pix           []uint8
}

// NewScalar allocates a zeroed scalar grid. Negative dimensions are
// treated as 0.
func NewScalar(width, height int) *Scalar {
	width, height = clampDims(width, height)
	return &Scalar{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// ScalarFrom2D builds a scalar grid from rows of values. Rows shorter than
// the first row are zero-padded; longer rows are truncated.
func ScalarFrom2D(rows [][]uint8) *Scalar {
	if len(rows) == 0 {
		return NewScalar(0, 0)
	}
	s := NewScalar(len(rows[0]), len(rows))
	for y, row := range rows {
		copy(s.Pix[y*s.Width:(y+1)*s.Width], row)
	}
	return s
}

// At returns the value at (x, y). It panics if (x, y) is out of bounds.
func (s *Scalar) At(x, y int) uint8 {
	return s.Pix[y*s.Width+x]
}

// Set stores v at (x, y).
func (s *Scalar) Set(x, y int, v uint8) {
	s.Pix[y*s.Width+x] = v
}

// InBounds reports whether (x, y) lies within the grid.
func (s *Scalar) InBounds(x, y int) bool {
	return x >= 0 && x < s.Width && y >= 0 && y < s.Height
}

// RGB is a grid of packed 0xRRGGBB colors. The top byte is ignored on read.
type RGB struct {
	Width, Height int
	Pix           []uint32
}

// NewRGB allocates a grid of black pixels.
func NewRGB(width, height int) *RGB {
	width, height = clampDims(width, height)
	return &RGB{Width: width, Height: height, Pix: make([]uint32, width*height)}
}

// At returns the packed color at (x, y).
func (c *RGB) At(x, y int) uint32 {
	return c.Pix[y*c.Width+x]
}

// Set stores the packed color v at (x, y).
func (c *RGB) Set(x, y int, v uint32) {
	c.Pix[y*c.Width+x] = v
}

// Pack combines 8-bit channels into a 0xRRGGBB value.
func Pack(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Unpack splits a packed color into its channels, ignoring the top byte.
func Unpack(v uint32) (r, g, b uint8) {
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}

// Labels is a grid of integer region or cluster identifiers.
type Labels struct {
	Width, Height int
	Cells         []int
}

// NewLabels allocates a label grid with every cell set to Unlabeled.
func NewLabels(width, height int) *Labels {
	width, height = clampDims(width, height)
	l := &Labels{Width: width, Height: height, Cells: make([]int, width*height)}
	l.Fill(Unlabeled)
	return l
}

// Fill sets every cell to v.
func (l *Labels) Fill(v int) {
	for i := range l.Cells {
		l.Cells[i] = v
	}
}

// At returns the label at (x, y).
func (l *Labels) At(x, y int) int {
	return l.Cells[y*l.Width+x]
}

// Set stores label v at (x, y).
func (l *Labels) Set(x, y, v int) {
	l.Cells[y*l.Width+x] = v
}

// Rows returns a copy of the grid as a slice of rows.
func (l *Labels) Rows() [][]int {
	rows := make([][]int, l.Height)
	for y := range rows {
		rows[y] = make([]int, l.Width)
		copy(rows[y], l.Cells[y*l.Width:(y+1)*l.Width])
	}
	return rows
}

func clampDims(width, height int) (int, int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return width, height
}
