// Package quantize reduces an RGB grid to a fixed number of colors with an
// iterative centroid (k-means style) clustering.
//
// Centroids are seeded deterministically along the image diagonal, pixels
// are assigned to the nearest centroid by mean absolute channel difference,
// and passes repeat until a full pass changes no assignment.
//
// Two update modes are supported and intentionally produce different
// partitions:
//
//   - Continuous: a centroid's mean is updated immediately after every
//     single reassignment, so later pixels in the same pass see the new mean.
//   - Iterative: assignments change during the pass, then all centroids are
//     recomputed from scratch in one batch.
package quantize

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/ironsheep/image-partition-mcp/internal/progress"
	"github.com/ironsheep/image-partition-mcp/internal/raster"
)

var (
	// ErrNoClusters is returned when fewer than one cluster is requested.
	ErrNoClusters = errors.New("quantize: cluster count must be at least 1")
	// ErrUnknownMode is returned for a Mode other than Continuous or Iterative.
	ErrUnknownMode = errors.New("quantize: unknown mode")
)

// Mode selects how centroid statistics are updated.
type Mode int

const (
	// Continuous updates a centroid after every reassignment.
	Continuous Mode = iota + 1
	// Iterative recomputes every centroid once per pass.
	Iterative
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case Continuous:
		return "continuous"
	case Iterative:
		return "iterative"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "-c", "c" or "continuous" and "-i", "i" or "iterative",
// case-insensitively. The second result is false for anything else, in which
// case Continuous is returned.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "-c", "c", "continuous":
		return Continuous, true
	case "-i", "i", "iterative":
		return Iterative, true
	default:
		return Continuous, false
	}
}

// Cluster summarizes one centroid after a run.
type Cluster struct {
	ID     int    `json:"id"`
	Color  uint32 `json:"color"`
	Pixels int    `json:"pixels"`
}

// Quantizer clusters the pixels of an RGB grid into k colors.
//
// A Quantizer is a progress.Task. Its size is Width*Height: the position
// counts pixels evaluated, reaches the size after the first pass, and the
// task is finished only once a pass makes no reassignment.
type Quantizer struct {
	tracker *progress.Tracker

	pixels *raster.RGB
	k      int
	mode   Mode

	centroids   []*Centroid
	assignments *raster.Labels
	passes      atomic.Int64
}

// New prepares a quantizer. It fails with ErrNoClusters if k < 1 and with
// ErrUnknownMode for an invalid mode.
func New(pixels *raster.RGB, k int, mode Mode) (*Quantizer, error) {
	if k < 1 {
		return nil, ErrNoClusters
	}
	if mode != Continuous && mode != Iterative {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	return &Quantizer{
		tracker:     progress.NewTracker(int64(pixels.Width) * int64(pixels.Height)),
		pixels:      pixels,
		k:           k,
		mode:        mode,
		assignments: raster.NewLabels(pixels.Width, pixels.Height),
	}, nil
}

// Size returns Width*Height of the input grid.
func (q *Quantizer) Size() int64 { return q.tracker.Size() }

// Position returns the number of pixels evaluated, capped at Size.
func (q *Quantizer) Position() int64 { return q.tracker.Position() }

// Finished reports whether the clustering converged.
func (q *Quantizer) Finished() bool { return q.tracker.Finished() }

// Mode returns the update mode.
func (q *Quantizer) Mode() Mode { return q.mode }

// K returns the requested cluster count.
func (q *Quantizer) K() int { return q.k }

// Passes returns the number of assignment passes made so far, including the
// final pass that made no change.
func (q *Quantizer) Passes() int {
	return int(q.passes.Load())
}

// Run clusters the pixels until convergence. There is no pass limit.
// It returns progress.ErrAlreadyRun if called again.
func (q *Quantizer) Run() error {
	if err := q.tracker.Begin(); err != nil {
		return err
	}

	pix := q.pixels.Pix
	if len(pix) == 0 {
		q.tracker.Complete()
		return nil
	}

	q.centroids = seedCentroids(q.pixels, q.k)
	cells := q.assignments.Cells
	size := q.tracker.Size()

	changed := true
	for changed {
		changed = false
		q.passes.Add(1)

		for i, px := range pix {
			if q.tracker.Position() < size {
				q.tracker.Advance(1)
			}

			best := q.nearest(px)
			prev := cells[i]
			if prev == best {
				continue
			}
			if q.mode == Continuous {
				if prev != raster.Unlabeled {
					q.centroids[prev].Remove(px)
				}
				q.centroids[best].Add(px)
			}
			changed = true
			cells[i] = best
		}

		if q.mode == Iterative {
			for _, c := range q.centroids {
				c.Clear()
			}
			for i, px := range pix {
				q.centroids[cells[i]].Add(px)
			}
		}
	}

	q.tracker.Complete()
	return nil
}

// seedCentroids places k centroids along the diagonal with step
// (Width/k, Height/k), starting at the origin.
func seedCentroids(pixels *raster.RGB, k int) []*Centroid {
	centroids := make([]*Centroid, k)
	dx, dy := pixels.Width/k, pixels.Height/k
	x, y := 0, 0
	for i := range centroids {
		centroids[i] = NewCentroid(i, pixels.At(x, y))
		x += dx
		y += dy
	}
	return centroids
}

// nearest returns the index of the closest centroid; the first minimum wins.
func (q *Quantizer) nearest(px uint32) int {
	best, bestDist := 0, math.MaxInt
	for i, c := range q.centroids {
		if d := c.Distance(px); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// Assignments returns the cluster index of every pixel. It is complete only
// once Finished reports true; callers must not modify it.
func (q *Quantizer) Assignments() *raster.Labels {
	return q.assignments
}

// Centroids returns a copy of each centroid. Empty before Run and for an
// empty grid.
func (q *Quantizer) Centroids() []Centroid {
	out := make([]Centroid, len(q.centroids))
	for i, c := range q.centroids {
		out[i] = *c
	}
	return out
}

// Palette returns each centroid's mean color in cluster order.
func (q *Quantizer) Palette() []uint32 {
	palette := make([]uint32, len(q.centroids))
	for i, c := range q.centroids {
		palette[i] = c.RGB()
	}
	return palette
}

// Populations returns the number of pixels assigned to each cluster.
func (q *Quantizer) Populations() []int {
	counts := make([]int, len(q.centroids))
	for _, id := range q.assignments.Cells {
		if id >= 0 && id < len(counts) {
			counts[id]++
		}
	}
	return counts
}

// Clusters returns the palette and populations together.
func (q *Quantizer) Clusters() []Cluster {
	pops := q.Populations()
	clusters := make([]Cluster, len(q.centroids))
	for i, c := range q.centroids {
		clusters[i] = Cluster{ID: c.ID(), Color: c.RGB(), Pixels: pops[i]}
	}
	return clusters
}

// Output renders every pixel as the mean color of its cluster.
func (q *Quantizer) Output() *raster.RGB {
	out := raster.NewRGB(q.pixels.Width, q.pixels.Height)
	palette := q.Palette()
	for i, id := range q.assignments.Cells {
		if id >= 0 && id < len(palette) {
			out.Pix[i] = palette[id]
		}
	}
	return out
}

// Summary returns statistics over the cluster populations.
func (q *Quantizer) Summary() raster.Summary {
	return raster.Summarize(q.Populations())
}
