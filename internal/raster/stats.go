package raster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of group sizes (pixels per region or
// per cluster).
type Summary struct {
	Count  int     `json:"count"`
	Total  int     `json:"total_pixels"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
}

// Summarize computes size statistics over sizes. An empty input yields a
// zero Summary.
func Summarize(sizes []int) Summary {
	if len(sizes) == 0 {
		return Summary{}
	}

	xs := make([]float64, len(sizes))
	total := 0
	minSize, maxSize := sizes[0], sizes[0]
	for i, s := range sizes {
		xs[i] = float64(s)
		total += s
		if s < minSize {
			minSize = s
		}
		if s > maxSize {
			maxSize = s
		}
	}
	sort.Float64s(xs)

	std := 0.0
	if len(xs) > 1 {
		std = stat.StdDev(xs, nil)
	}

	return Summary{
		Count:  len(sizes),
		Total:  total,
		Min:    minSize,
		Max:    maxSize,
		Mean:   round2(stat.Mean(xs, nil)),
		StdDev: round2(std),
		Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
