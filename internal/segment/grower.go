package segment

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ironsheep/image-partition-mcp/internal/progress"
	"github.com/ironsheep/image-partition-mcp/internal/raster"
)

// NotFound is returned by PixelCount for a label that does not exist.
const NotFound = -1

// neighbors lists the 8-connected offsets in the order they are examined.
var neighbors = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// point is a pixel coordinate on the growth stack.
type point struct {
	x, y int
}

// Region is one labeled region and its size.
type Region struct {
	Label  int `json:"label"`
	Pixels int `json:"pixels"`
}

// RegionGrower segments a scalar grid into regions of equal, 8-connected
// pixel values.
//
// Create one with NewRegionGrower, then call Run directly or hand it to
// progress.Start. A RegionGrower runs once.
type RegionGrower struct {
	tracker *progress.Tracker

	pixels *raster.Scalar
	labels *raster.Labels

	regions atomic.Int64

	mu sync.RWMutex
	// counts[label] is the pixel count of region label; index 0 is unused.
	counts []int
}

// NewRegionGrower prepares a grower for pixels. The label grid is allocated
// immediately with every cell unlabeled.
func NewRegionGrower(pixels *raster.Scalar) *RegionGrower {
	return &RegionGrower{
		tracker: progress.NewTracker(int64(pixels.Width) * int64(pixels.Height)),
		pixels:  pixels,
		labels:  raster.NewLabels(pixels.Width, pixels.Height),
		counts:  []int{0},
	}
}

// Run labels every pixel. It returns progress.ErrAlreadyRun if called again.
func (g *RegionGrower) Run() error {
	if err := g.tracker.Begin(); err != nil {
		return err
	}

	w, h := g.pixels.Width, g.pixels.Height
	pix := g.pixels.Pix
	cells := g.labels.Cells
	stack := make([]point, 0, 1024)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.tracker.Advance(1)

			if cells[y*w+x] != raster.Unlabeled {
				continue
			}

			label := g.openRegion()
			cells[y*w+x] = label
			stack = append(stack, point{x, y})

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				value := pix[p.y*w+p.x]

				for _, d := range neighbors {
					nx, ny := p.x+d[0], p.y+d[1]
					if !g.pixels.InBounds(nx, ny) {
						continue
					}
					ni := ny*w + nx
					if cells[ni] != raster.Unlabeled || pix[ni] != value {
						continue
					}
					cells[ni] = label
					g.grow(label)
					stack = append(stack, point{nx, ny})
				}
			}
		}
	}

	g.tracker.Complete()
	return nil
}

// Size returns Width*Height of the input grid.
func (g *RegionGrower) Size() int64 { return g.tracker.Size() }

// Position returns the number of scanned cells.
func (g *RegionGrower) Position() int64 { return g.tracker.Position() }

// Finished reports whether every pixel has been labeled.
func (g *RegionGrower) Finished() bool { return g.tracker.Finished() }

// openRegion allocates the next label with a count of 1.
func (g *RegionGrower) openRegion() int {
	g.mu.Lock()
	g.counts = append(g.counts, 1)
	label := len(g.counts) - 1
	g.mu.Unlock()
	g.regions.Store(int64(label))
	return label
}

// grow adds one pixel to region label.
func (g *RegionGrower) grow(label int) {
	g.mu.Lock()
	g.counts[label]++
	g.mu.Unlock()
}

// NumberOfRegions returns the number of regions found so far. It may be
// called while the grower is running.
func (g *RegionGrower) NumberOfRegions() int {
	return int(g.regions.Load())
}

// PixelCount returns the current number of pixels in region label, or
// NotFound if no such region exists. It may be called while the grower is
// running; the count of the region being grown only increases.
func (g *RegionGrower) PixelCount(label int) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if label < 1 || label >= len(g.counts) {
		return NotFound
	}
	return g.counts[label]
}

// Labels returns the label grid. Its contents are only complete once
// Finished reports true; callers must not modify it.
func (g *RegionGrower) Labels() *raster.Labels {
	return g.labels
}

// Regions returns every region found so far in label order.
func (g *RegionGrower) Regions() []Region {
	g.mu.RLock()
	defer g.mu.RUnlock()
	regions := make([]Region, 0, len(g.counts)-1)
	for label := 1; label < len(g.counts); label++ {
		regions = append(regions, Region{Label: label, Pixels: g.counts[label]})
	}
	return regions
}

// Largest returns up to n regions ordered by size (largest first). Equal
// sizes keep label order. n <= 0 returns all regions.
func (g *RegionGrower) Largest(n int) []Region {
	regions := g.Regions()
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Pixels > regions[j].Pixels
	})
	if n > 0 && len(regions) > n {
		regions = regions[:n]
	}
	return regions
}

// Summary returns statistics over the region sizes found so far.
func (g *RegionGrower) Summary() raster.Summary {
	regions := g.Regions()
	sizes := make([]int, len(regions))
	for i, r := range regions {
		sizes[i] = r.Pixels
	}
	return raster.Summarize(sizes)
}
