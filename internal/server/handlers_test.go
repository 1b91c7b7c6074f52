package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ironsheep/image-partition-mcp/internal/config"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writeTestImage(t, img)
}

// createSplitImageFile creates an image whose left half is left and right
// half is right.
func createSplitImageFile(t *testing.T, width, height int, left, right color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.Set(x, y, left)
			} else {
				img.Set(x, y, right)
			}
		}
	}
	return writeTestImage(t, img)
}

func writeTestImage(t *testing.T, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "handler-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool sends a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// toolContent returns the content items of a successful tools/call response.
func toolContent(t *testing.T, resp *MCPResponse) []map[string]interface{} {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) == 0 {
		t.Fatal("content should be a non-empty slice")
	}
	return content
}

// decodeToolText unmarshals the JSON text of the first content item into v.
func decodeToolText(t *testing.T, resp *MCPResponse, v interface{}) []map[string]interface{} {
	t.Helper()

	content := toolContent(t, resp)
	if content[0]["type"] != "text" {
		t.Fatalf("first content type: got %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool text %q: %v", text, err)
	}
	return content
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var info struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
		Pixels int64  `json:"pixels"`
	}
	decodeToolText(t, callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}), &info)

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("format: got %s, want png", info.Format)
	}
	if info.Pixels != 8000 {
		t.Errorf("pixels: got %d, want 8000", info.Pixels)
	}
	if s.cache.Len() != 1 {
		t.Errorf("cache should hold the loaded image, has %d", s.cache.Len())
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 200, 150, color.RGBA{0, 255, 0, 255})

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	decodeToolText(t, callTool(t, s, "image_dimensions", map[string]interface{}{"path": imgPath}), &dims)

	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("got %dx%d, want 200x150", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_MissingPath(t *testing.T) {
	s := New(nil)

	for _, tool := range []string{"image_load", "image_dimensions", "image_segment", "image_quantize"} {
		t.Run(tool, func(t *testing.T) {
			resp := callTool(t, s, tool, map[string]interface{}{})
			if resp.Error == nil {
				t.Fatal("Expected error for missing path")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
		})
	}
}

func TestHandleToolsCall_FileNotFound(t *testing.T) {
	s := New(nil)
	resp := callTool(t, s, "image_load", map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "missing.png"),
	})

	if resp.Error == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := New(nil)
	resp := callTool(t, s, "image_ocr_full", map[string]interface{}{})

	if resp.Error == nil {
		t.Fatal("Expected error for unknown tool")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(nil)
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`[1, 2]`),
	})

	if resp == nil || resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

type segmentOutput struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	Regions int `json:"regions"`
	Largest []struct {
		Label      int     `json:"label"`
		Pixels     int     `json:"pixels"`
		Percentage float64 `json:"percentage"`
		Color      struct {
			Hex string `json:"hex"`
		} `json:"color"`
	} `json:"largest"`
	Stats struct {
		Count int `json:"count"`
		Total int `json:"total_pixels"`
	} `json:"stats"`
	Threshold *int   `json:"threshold"`
	Output    string `json:"output"`
}

func TestHandleImageSegment(t *testing.T) {
	s := New(nil)
	imgPath := createSplitImageFile(t, 20, 10, color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255})
	outPath := filepath.Join(t.TempDir(), "out", "labels.png")

	var res segmentOutput
	content := decodeToolText(t, callTool(t, s, "image_segment", map[string]interface{}{
		"path":    imgPath,
		"output":  outPath,
		"preview": true,
	}), &res)

	if res.Width != 20 || res.Height != 10 {
		t.Errorf("dimensions: got %dx%d, want 20x10", res.Width, res.Height)
	}
	if res.Regions != 2 {
		t.Errorf("regions: got %d, want 2", res.Regions)
	}
	if len(res.Largest) != 2 {
		t.Fatalf("largest: got %d entries, want 2", len(res.Largest))
	}
	for _, r := range res.Largest {
		if r.Pixels != 100 || r.Percentage != 50 {
			t.Errorf("region %d: got %d pixels (%.2f%%), want 100 (50%%)", r.Label, r.Pixels, r.Percentage)
		}
		if r.Color.Hex == "" {
			t.Errorf("region %d has no display color", r.Label)
		}
	}
	if res.Stats.Count != 2 || res.Stats.Total != 200 {
		t.Errorf("stats: got %+v", res.Stats)
	}
	if res.Threshold != nil {
		t.Errorf("threshold should be omitted without preprocess, got %d", *res.Threshold)
	}

	if res.Output != outPath {
		t.Errorf("output: got %s, want %s", res.Output, outPath)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output file not written: %v", err)
	}

	if len(content) != 2 {
		t.Fatalf("content: got %d items, want text and image", len(content))
	}
	if content[1]["type"] != "image" || content[1]["mimeType"] != "image/png" {
		t.Errorf("preview item: got type=%v mimeType=%v", content[1]["type"], content[1]["mimeType"])
	}
	if data, _ := content[1]["data"].(string); data == "" {
		t.Error("preview image data is empty")
	}
}

func TestHandleImageSegment_Top(t *testing.T) {
	s := New(nil)
	imgPath := createSplitImageFile(t, 20, 10, color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255})

	var res segmentOutput
	decodeToolText(t, callTool(t, s, "image_segment", map[string]interface{}{
		"path": imgPath,
		"top":  1,
	}), &res)

	if res.Regions != 2 {
		t.Errorf("regions: got %d, want 2", res.Regions)
	}
	if len(res.Largest) != 1 {
		t.Errorf("largest: got %d entries, want 1", len(res.Largest))
	}
}

func TestHandleImageSegment_Region(t *testing.T) {
	s := New(nil)
	imgPath := createSplitImageFile(t, 20, 10, color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255})

	var res segmentOutput
	decodeToolText(t, callTool(t, s, "image_segment", map[string]interface{}{
		"path":   imgPath,
		"region": map[string]interface{}{"x1": 0, "y1": 0, "x2": 8, "y2": 5},
	}), &res)

	if res.Width != 8 || res.Height != 5 {
		t.Errorf("dimensions: got %dx%d, want 8x5", res.Width, res.Height)
	}
	if res.Regions != 1 {
		t.Errorf("regions: got %d, want 1", res.Regions)
	}
}

func TestHandleImageSegment_Preprocess(t *testing.T) {
	s := New(nil)
	imgPath := createSplitImageFile(t, 20, 10, color.RGBA{250, 250, 250, 255}, color.RGBA{10, 10, 10, 255})

	var res segmentOutput
	decodeToolText(t, callTool(t, s, "image_segment", map[string]interface{}{
		"path":       imgPath,
		"preprocess": true,
		"threshold":  128,
		"radius":     0,
	}), &res)

	if res.Threshold == nil || *res.Threshold != 128 {
		t.Errorf("threshold: got %v, want 128", res.Threshold)
	}
	if res.Regions != 2 {
		t.Errorf("regions: got %d, want 2", res.Regions)
	}
}

func TestHandleImageSegment_InvalidArgs(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 4, 4, color.White)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"threshold too high", map[string]interface{}{"path": imgPath, "threshold": 256}},
		{"negative threshold", map[string]interface{}{"path": imgPath, "threshold": -1}},
		{"negative radius", map[string]interface{}{"path": imgPath, "radius": -1.5}},
		{"region out of bounds", map[string]interface{}{
			"path":   imgPath,
			"region": map[string]interface{}{"x1": 0, "y1": 0, "x2": 10, "y2": 10},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "image_segment", tt.args)
			if resp.Error == nil {
				t.Fatal("Expected error")
			}
		})
	}
}

type quantizeOutput struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Mode     string `json:"mode"`
	Clusters int    `json:"clusters"`
	Passes   int    `json:"passes"`
	Palette  []struct {
		Cluster    int     `json:"cluster"`
		Pixels     int     `json:"pixels"`
		Percentage float64 `json:"percentage"`
		Color      struct {
			Hex string `json:"hex"`
		} `json:"color"`
	} `json:"palette"`
	Output string `json:"output"`
}

func TestHandleImageQuantize(t *testing.T) {
	for _, mode := range []string{"continuous", "iterative"} {
		t.Run(mode, func(t *testing.T) {
			s := New(nil)
			imgPath := createSplitImageFile(t, 20, 10, color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255})
			outPath := filepath.Join(t.TempDir(), "quantized.bmp")

			var res quantizeOutput
			decodeToolText(t, callTool(t, s, "image_quantize", map[string]interface{}{
				"path":     imgPath,
				"clusters": 2,
				"mode":     mode,
				"output":   outPath,
			}), &res)

			if res.Mode != mode {
				t.Errorf("mode: got %s, want %s", res.Mode, mode)
			}
			if res.Clusters != 2 || len(res.Palette) != 2 {
				t.Fatalf("clusters: got %d with %d palette entries, want 2", res.Clusters, len(res.Palette))
			}
			if res.Passes < 1 {
				t.Errorf("passes: got %d, want at least 1", res.Passes)
			}

			hexes := map[string]int{}
			for _, p := range res.Palette {
				hexes[p.Color.Hex] = p.Pixels
			}
			if hexes["#FF0000"] != 100 || hexes["#0000FF"] != 100 {
				t.Errorf("palette: got %v, want #FF0000 and #0000FF with 100 pixels each", hexes)
			}

			if _, err := os.Stat(outPath); err != nil {
				t.Errorf("output file not written: %v", err)
			}
		})
	}
}

func TestHandleImageQuantize_Defaults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Quantize.Clusters = 3
	cfg.Quantize.Mode = "iterative"
	s := New(cfg)
	imgPath := createTestImageFile(t, 6, 6, color.RGBA{10, 20, 30, 255})

	var res quantizeOutput
	decodeToolText(t, callTool(t, s, "image_quantize", map[string]interface{}{"path": imgPath}), &res)

	if res.Clusters != 3 || len(res.Palette) != 3 {
		t.Errorf("clusters: got %d with %d palette entries, want 3", res.Clusters, len(res.Palette))
	}
	if res.Mode != "iterative" {
		t.Errorf("mode: got %s, want iterative", res.Mode)
	}
}

func TestHandleImageQuantize_InvalidArgs(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 4, 4, color.White)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"too many clusters", map[string]interface{}{"path": imgPath, "clusters": 256}},
		{"negative clusters", map[string]interface{}{"path": imgPath, "clusters": -2}},
		{"unknown mode", map[string]interface{}{"path": imgPath, "mode": "kmeans++"}},
		{"unsupported output", map[string]interface{}{"path": imgPath, "output": filepath.Join(t.TempDir(), "out.xyz")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "image_quantize", tt.args)
			if resp.Error == nil {
				t.Fatal("Expected error")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
		})
	}
}

// waitForTask polls image_task_status until the task is done.
func waitForTask(t *testing.T, s *Server, id string) map[string]interface{} {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		var st map[string]interface{}
		decodeToolText(t, callTool(t, s, "image_task_status", map[string]interface{}{"task_id": id}), &st)
		if st["done"] == true {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s did not finish", id)
	return nil
}

func TestHandleAsyncQuantize(t *testing.T) {
	s := New(nil)
	imgPath := createSplitImageFile(t, 20, 10, color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255})

	var started AsyncResult
	decodeToolText(t, callTool(t, s, "image_quantize", map[string]interface{}{
		"path":     imgPath,
		"clusters": 2,
		"async":    true,
	}), &started)

	if started.TaskID != "quantize-1" {
		t.Errorf("task id: got %s, want quantize-1", started.TaskID)
	}
	if started.Kind != "quantize" || started.Size <= 0 {
		t.Errorf("async result: got %+v", started)
	}

	st := waitForTask(t, s, started.TaskID)
	if st["finished"] != true {
		t.Errorf("finished: got %v, want true", st["finished"])
	}
	if st["percent"] != float64(100) {
		t.Errorf("percent: got %v, want 100", st["percent"])
	}
	if st["position"] != st["size"] {
		t.Errorf("position %v should equal size %v once finished", st["position"], st["size"])
	}
	result, ok := st["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("result missing from finished task: %v", st)
	}
	if palette, _ := result["palette"].([]interface{}); len(palette) != 2 {
		t.Errorf("palette: got %v, want 2 entries", result["palette"])
	}

	var list struct {
		Tasks []map[string]interface{} `json:"tasks"`
	}
	decodeToolText(t, callTool(t, s, "image_task_list", map[string]interface{}{}), &list)
	if len(list.Tasks) != 1 {
		t.Fatalf("task list: got %d tasks, want 1", len(list.Tasks))
	}
	if _, ok := list.Tasks[0]["result"]; ok {
		t.Error("task list should not include results")
	}
}

func TestHandleAsyncSegment_Preview(t *testing.T) {
	s := New(nil)
	imgPath := createSplitImageFile(t, 20, 10, color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255})

	var started AsyncResult
	decodeToolText(t, callTool(t, s, "image_segment", map[string]interface{}{
		"path":    imgPath,
		"preview": true,
		"async":   true,
	}), &started)

	waitForTask(t, s, started.TaskID)

	// A finished task carries the preview of its result.
	resp := callTool(t, s, "image_task_status", map[string]interface{}{"task_id": started.TaskID})
	content := toolContent(t, resp)
	if len(content) != 2 || content[1]["type"] != "image" {
		t.Errorf("expected a preview image item, got %d items", len(content))
	}
}

func TestHandleTaskStatus_Errors(t *testing.T) {
	s := New(nil)

	resp := callTool(t, s, "image_task_status", map[string]interface{}{})
	if resp.Error == nil {
		t.Error("Expected error for missing task_id")
	}

	resp = callTool(t, s, "image_task_status", map[string]interface{}{"task_id": "segment-99"})
	if resp.Error == nil {
		t.Fatal("Expected error for unknown task")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		n, total int
		want     float64
	}{
		{0, 0, 0},
		{1, 2, 50},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{7, 7, 100},
	}

	for _, tt := range tests {
		if got := percentage(tt.n, tt.total); got != tt.want {
			t.Errorf("percentage(%d, %d) = %v, want %v", tt.n, tt.total, got, tt.want)
		}
	}
}

func TestHandleAsyncSegment_ElapsedIsRunTime(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 4, 4, color.White)

	var started AsyncResult
	decodeToolText(t, callTool(t, s, "image_segment", map[string]interface{}{
		"path":  imgPath,
		"async": true,
	}), &started)

	// Wait through image_task_list, which does not build results, then poll
	// the status well after the run ended.
	deadline := time.Now().Add(10 * time.Second)
	for {
		var list struct {
			Tasks []map[string]interface{} `json:"tasks"`
		}
		decodeToolText(t, callTool(t, s, "image_task_list", map[string]interface{}{}), &list)
		if len(list.Tasks) == 1 && list.Tasks[0]["done"] == true {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("task %s did not finish", started.TaskID)
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	st := waitForTask(t, s, started.TaskID)
	result, ok := st["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("result missing from finished task: %v", st)
	}
	if ms, _ := result["elapsed_ms"].(float64); ms >= 500 {
		t.Errorf("elapsed_ms: got %v, want the run time of a 4x4 image", ms)
	}
}

func TestHandleToolsCall_ImageLoadRereadsFile(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 10, 10, color.White)

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	decodeToolText(t, callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}), &dims)

	// Overwrite the same path with a different size.
	f, err := os.Create(imgPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 6, 3))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	decodeToolText(t, callTool(t, s, "image_dimensions", map[string]interface{}{"path": imgPath}), &dims)
	if dims.Width != 10 {
		t.Errorf("image_dimensions should use the cached image, got width %d", dims.Width)
	}

	decodeToolText(t, callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}), &dims)
	if dims.Width != 6 || dims.Height != 3 {
		t.Errorf("image_load should re-read the file, got %dx%d", dims.Width, dims.Height)
	}
}
