package quantize

import "github.com/ironsheep/image-partition-mcp/internal/raster"

// Centroid is the running mean color of one cluster.
//
// The mean is sum/count with truncating integer division whenever count is
// positive. When count drops to zero the centroid keeps its last known mean;
// no division happens for an empty centroid.
type Centroid struct {
	id int

	red, green, blue int // current mean
	redSum           int
	greenSum         int
	blueSum          int
	count            int
}

// NewCentroid creates centroid id seeded with the packed color rgb, which
// counts as its first member.
func NewCentroid(id int, rgb uint32) *Centroid {
	c := &Centroid{id: id}
	c.red, c.green, c.blue = channels(rgb)
	c.Add(rgb)
	return c
}

// ID returns the cluster index of the centroid.
func (c *Centroid) ID() int {
	return c.id
}

// Count returns the number of member pixels.
func (c *Centroid) Count() int {
	return c.count
}

// Mean returns the current mean channels.
func (c *Centroid) Mean() (r, g, b int) {
	return c.red, c.green, c.blue
}

// RGB returns the mean as a packed 0xRRGGBB color.
func (c *Centroid) RGB() uint32 {
	return raster.Pack(uint8(c.red), uint8(c.green), uint8(c.blue))
}

// Add adds a member pixel and updates the mean.
func (c *Centroid) Add(rgb uint32) {
	r, g, b := channels(rgb)
	c.redSum += r
	c.greenSum += g
	c.blueSum += b
	c.count++
	c.updateMean()
}

// Remove removes a member pixel. Removing from an empty centroid does nothing.
func (c *Centroid) Remove(rgb uint32) {
	if c.count == 0 {
		return
	}
	r, g, b := channels(rgb)
	c.redSum -= r
	c.greenSum -= g
	c.blueSum -= b
	c.count--
	c.updateMean()
}

// Clear drops all members. The mean is retained until a member is added.
func (c *Centroid) Clear() {
	c.redSum, c.greenSum, c.blueSum = 0, 0, 0
	c.count = 0
}

// Distance returns the mean absolute channel difference between rgb and the
// centroid mean, truncated to an integer.
func (c *Centroid) Distance(rgb uint32) int {
	r, g, b := channels(rgb)
	return (abs(c.red-r) + abs(c.green-g) + abs(c.blue-b)) / 3
}

func (c *Centroid) updateMean() {
	if c.count == 0 {
		return
	}
	c.red = c.redSum / c.count
	c.green = c.greenSum / c.count
	c.blue = c.blueSum / c.count
}

func channels(rgb uint32) (r, g, b int) {
	r8, g8, b8 := raster.Unpack(rgb)
	return int(r8), int(g8), int(b8)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
