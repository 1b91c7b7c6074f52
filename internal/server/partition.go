package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/ironsheep/image-partition-mcp/internal/imaging"
	"github.com/ironsheep/image-partition-mcp/internal/progress"
	"github.com/ironsheep/image-partition-mcp/internal/quantize"
	"github.com/ironsheep/image-partition-mcp/internal/raster"
	"github.com/ironsheep/image-partition-mcp/internal/segment"
)

// defaultTopRegions is the number of largest regions reported when the
// caller does not ask for a specific count.
const defaultTopRegions = 10

// previewer is implemented by results that carry an inline image.
type previewer interface {
	preview() *imaging.EncodedImage
}

// AsyncResult is returned when a partitioning tool is called with async=true.
type AsyncResult struct {
	TaskID string `json:"task_id"`
	Kind   string `json:"kind"`
	Size   int64  `json:"size"`
}

// partitionArgs are the arguments shared by image_segment and image_quantize.
type partitionArgs struct {
	Path    string          `json:"path"`
	Region  *imaging.Region `json:"region,omitempty"`
	Output  string          `json:"output,omitempty"`
	Preview bool            `json:"preview,omitempty"`
	Async   bool            `json:"async,omitempty"`
}

func (s *Server) loadPartitionSource(a partitionArgs) (image.Image, error) {
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CropRegion(img, a.Region)
}

// render saves and/or previews a rendered partition.
func (s *Server) render(a partitionArgs, img image.Image) (string, *imaging.EncodedImage, error) {
	if a.Output != "" {
		if err := imaging.Save(img, a.Output); err != nil {
			return "", nil, err
		}
	}
	if !a.Preview || s.cfg.Server.MaxPreviewSide == 0 {
		return a.Output, nil, nil
	}
	enc, err := imaging.EncodePNG(img, s.cfg.Server.MaxPreviewSide)
	if err != nil {
		return "", nil, err
	}
	return a.Output, enc, nil
}

// run executes t synchronously or registers it as an async task.
func (s *Server) run(kind string, a partitionArgs, t progress.Task, finish finishFunc) (interface{}, error) {
	if a.Async {
		id, err := s.tasks.Start(kind, t, finish)
		if err != nil {
			return nil, err
		}
		if s.debug {
			log.Printf("Started %s task %s (%d pixels)", kind, id, t.Size())
		}
		return &AsyncResult{TaskID: id, Kind: kind, Size: t.Size()}, nil
	}

	start := time.Now()
	if err := t.Run(); err != nil {
		return nil, err
	}
	return finish(time.Since(start))
}

// === Region Growing ===

type imageSegmentArgs struct {
	partitionArgs
	Preprocess *bool    `json:"preprocess,omitempty"`
	Threshold  *int     `json:"threshold,omitempty"`
	Radius     *float64 `json:"radius,omitempty"`
	Top        int      `json:"top,omitempty"`
}

// RegionInfo describes one region of a segmentation.
type RegionInfo struct {
	Label      int                 `json:"label"`
	Pixels     int                 `json:"pixels"`
	Percentage float64             `json:"percentage"`
	Color      imaging.ColorResult `json:"color"`
}

// SegmentResult is the outcome of image_segment.
type SegmentResult struct {
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Regions   int            `json:"regions"`
	Threshold *uint8         `json:"threshold,omitempty"`
	Largest   []RegionInfo   `json:"largest"`
	Stats     raster.Summary `json:"stats"`
	ElapsedMs int64          `json:"elapsed_ms"`
	Output    string         `json:"output,omitempty"`

	Preview *imaging.EncodedImage `json:"-"`
}

func (r *SegmentResult) preview() *imaging.EncodedImage { return r.Preview }

func (s *Server) handleImageSegment(args json.RawMessage) (interface{}, error) {
	var a imageSegmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	preprocess := s.cfg.Segment.Preprocess
	if a.Preprocess != nil {
		preprocess = *a.Preprocess
	}
	threshold := s.cfg.Segment.Threshold
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("threshold must be 0-255, got %d", threshold)
	}
	radius := s.cfg.Segment.MorphRadius
	if a.Radius != nil {
		radius = *a.Radius
	}
	if radius < 0 {
		return nil, fmt.Errorf("radius must not be negative, got %g", radius)
	}
	top := a.Top
	if top <= 0 {
		top = defaultTopRegions
	}

	img, err := s.loadPartitionSource(a.partitionArgs)
	if err != nil {
		return nil, err
	}

	var (
		buf   *raster.Scalar
		level *uint8
	)
	if preprocess {
		pre := imaging.Preprocess(img, imaging.PreprocessOptions{Threshold: uint8(threshold), Radius: radius})
		buf = imaging.GrayToScalar(pre.Image)
		level = &pre.Level
	} else {
		buf = imaging.ToScalar(img)
	}

	grower := segment.NewRegionGrower(buf)
	finish := func(elapsed time.Duration) (interface{}, error) {
		total := buf.Width * buf.Height

		largest := grower.Largest(top)
		infos := make([]RegionInfo, len(largest))
		for i, r := range largest {
			infos[i] = RegionInfo{
				Label:      r.Label,
				Pixels:     r.Pixels,
				Percentage: percentage(r.Pixels, total),
				Color:      imaging.DescribeLabel(r.Label),
			}
		}

		res := &SegmentResult{
			Width:     buf.Width,
			Height:    buf.Height,
			Regions:   grower.NumberOfRegions(),
			Threshold: level,
			Largest:   infos,
			Stats:     grower.Summary(),
			ElapsedMs: elapsed.Milliseconds(),
		}
		if a.Output != "" || a.Preview {
			out, enc, rerr := s.render(a.partitionArgs, imaging.FalseColor(grower.Labels()))
			if rerr != nil {
				return nil, rerr
			}
			res.Output, res.Preview = out, enc
		}
		return res, nil
	}

	return s.run("segment", a.partitionArgs, grower, finish)
}

// === Color Quantization ===

type imageQuantizeArgs struct {
	partitionArgs
	Clusters int    `json:"clusters,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

// PaletteEntry describes one cluster of a quantization.
type PaletteEntry struct {
	Cluster    int                 `json:"cluster"`
	Pixels     int                 `json:"pixels"`
	Percentage float64             `json:"percentage"`
	Color      imaging.ColorResult `json:"color"`
}

// QuantizeResult is the outcome of image_quantize.
type QuantizeResult struct {
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Mode      string         `json:"mode"`
	Clusters  int            `json:"clusters"`
	Passes    int            `json:"passes"`
	Palette   []PaletteEntry `json:"palette"`
	Stats     raster.Summary `json:"stats"`
	ElapsedMs int64          `json:"elapsed_ms"`
	Output    string         `json:"output,omitempty"`

	Preview *imaging.EncodedImage `json:"-"`
}

func (r *QuantizeResult) preview() *imaging.EncodedImage { return r.Preview }

func (s *Server) handleImageQuantize(args json.RawMessage) (interface{}, error) {
	var a imageQuantizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	k := a.Clusters
	if k == 0 {
		k = s.cfg.Quantize.Clusters
	}
	if k < 1 || k > 255 {
		return nil, fmt.Errorf("clusters must be 1-255, got %d", k)
	}
	mode := s.cfg.QuantizeMode()
	if a.Mode != "" {
		m, ok := quantize.ParseMode(a.Mode)
		if !ok {
			return nil, fmt.Errorf("%w: %q", quantize.ErrUnknownMode, a.Mode)
		}
		mode = m
	}

	img, err := s.loadPartitionSource(a.partitionArgs)
	if err != nil {
		return nil, err
	}
	buf := imaging.ToRGB(img)

	q, err := quantize.New(buf, k, mode)
	if err != nil {
		return nil, err
	}

	finish := func(elapsed time.Duration) (interface{}, error) {
		total := buf.Width * buf.Height

		clusters := q.Clusters()
		palette := make([]PaletteEntry, len(clusters))
		for i, c := range clusters {
			palette[i] = PaletteEntry{
				Cluster:    c.ID,
				Pixels:     c.Pixels,
				Percentage: percentage(c.Pixels, total),
				Color:      imaging.DescribeColor(c.Color),
			}
		}

		res := &QuantizeResult{
			Width:     buf.Width,
			Height:    buf.Height,
			Mode:      mode.String(),
			Clusters:  q.K(),
			Passes:    q.Passes(),
			Palette:   palette,
			Stats:     q.Summary(),
			ElapsedMs: elapsed.Milliseconds(),
		}
		if a.Output != "" || a.Preview {
			out, enc, rerr := s.render(a.partitionArgs, imaging.FromRGB(q.Output()))
			if rerr != nil {
				return nil, rerr
			}
			res.Output, res.Preview = out, enc
		}
		return res, nil
	}

	return s.run("quantize", a.partitionArgs, q, finish)
}

// percentage returns n as a percentage of total, rounded to two decimals.
func percentage(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(int(float64(n)*10000/float64(total)+0.5)) / 100
}
