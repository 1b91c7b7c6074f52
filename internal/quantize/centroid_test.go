package quantize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-partition-mcp/internal/raster"
)

func TestCentroid_SeedAndMean(t *testing.T) {
	c := NewCentroid(3, raster.Pack(10, 20, 30))
	require.Equal(t, 3, c.ID())
	require.Equal(t, 1, c.Count())

	c.Add(raster.Pack(21, 0, 31))
	r, g, b := c.Mean()
	// (10+21)/2, (20+0)/2, (30+31)/2 with truncation
	require.Equal(t, []int{15, 10, 30}, []int{r, g, b})
	require.Equal(t, raster.Pack(15, 10, 30), c.RGB())

	c.Remove(raster.Pack(21, 0, 31))
	r, g, b = c.Mean()
	require.Equal(t, []int{10, 20, 30}, []int{r, g, b})
}

func TestCentroid_EmptyRetainsMean(t *testing.T) {
	c := NewCentroid(0, raster.Pack(200, 100, 50))
	c.Remove(raster.Pack(200, 100, 50))
	require.Equal(t, 0, c.Count())
	require.Equal(t, raster.Pack(200, 100, 50), c.RGB(), "empty centroid keeps last mean")

	// Removing from an empty centroid is a no-op.
	c.Remove(raster.Pack(1, 1, 1))
	require.Equal(t, 0, c.Count())
	require.Equal(t, raster.Pack(200, 100, 50), c.RGB())

	c.Add(raster.Pack(0, 0, 255))
	require.Equal(t, raster.Pack(0, 0, 255), c.RGB())

	c.Clear()
	require.Equal(t, 0, c.Count())
	require.Equal(t, raster.Pack(0, 0, 255), c.RGB(), "cleared centroid keeps last mean")
}

func TestCentroid_Distance(t *testing.T) {
	c := NewCentroid(0, raster.Pack(100, 100, 100))

	tests := []struct {
		name string
		rgb  uint32
		want int
	}{
		{"same", raster.Pack(100, 100, 100), 0},
		{"one channel", raster.Pack(103, 100, 100), 1},
		{"truncates", raster.Pack(102, 100, 100), 0},
		{"all channels", raster.Pack(0, 200, 100), 66},
		{"max", raster.Pack(255, 255, 255), 155},
		{"alpha ignored", 0xFF000000 | raster.Pack(100, 100, 100), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, c.Distance(tt.rgb))
		})
	}
}
