package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// partitionProperties returns the schema properties shared by the
// partitioning tools.
func partitionProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty(),
		"region": map[string]interface{}{
			"type":        "object",
			"description": "Optional rectangle to partition instead of the whole image. (x1,y1) inclusive, (x2,y2) exclusive.",
			"properties": map[string]interface{}{
				"x1": map[string]interface{}{"type": "integer"},
				"y1": map[string]interface{}{"type": "integer"},
				"x2": map[string]interface{}{"type": "integer"},
				"y2": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"x1", "y1", "x2", "y2"},
		},
		"output": map[string]interface{}{
			"type":        "string",
			"description": "Optional path to write the rendered result. Format follows the extension (png, jpg, gif, tif, bmp, webp, tga).",
		},
		"preview": map[string]interface{}{
			"type":        "boolean",
			"description": "Return a downscaled PNG of the rendered result. Default false",
			"default":     false,
		},
		"async": map[string]interface{}{
			"type":        "boolean",
			"description": "Start the run in the background and return a task id to poll with image_task_status. Default false",
			"default":     false,
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	segmentProps := partitionProperties()
	segmentProps["preprocess"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Grayscale, binarize and clean the image with a morphological closing and opening before growing regions. Defaults to the server configuration",
	}
	segmentProps["threshold"] = map[string]interface{}{
		"type":        "integer",
		"description": "Binarization level 0-255 used with preprocess. 0 picks a level automatically (Otsu)",
	}
	segmentProps["radius"] = map[string]interface{}{
		"type":        "number",
		"description": "Closing/opening radius used with preprocess. 0 skips morphology",
	}
	segmentProps["top"] = map[string]interface{}{
		"type":        "integer",
		"description": "Number of largest regions to report. Default 10",
		"default":     defaultTopRegions,
	}

	quantizeProps := partitionProperties()
	quantizeProps["clusters"] = map[string]interface{}{
		"type":        "integer",
		"description": "Number of colors (1-255). Defaults to the server configuration",
		"minimum":     1,
		"maximum":     255,
	}
	quantizeProps["mode"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"continuous", "iterative"},
		"description": "continuous updates a cluster mean after every reassignment; iterative recomputes all means once per pass",
	}

	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and pixel count. The file is always re-read and the decoded image is cached for subsequent partitioning calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Partitioning
		{
			Name:        "image_segment",
			Description: "Split an image into connected regions of identical value (8-connected). Reports the region count, the largest regions and region size statistics; optionally renders a false-color label image.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": segmentProps,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "image_quantize",
			Description: "Reduce an image to a fixed number of colors by centroid clustering. Reports the palette with per-cluster populations and the number of passes; optionally renders the quantized image.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": quantizeProps,
				"required":   []string{"path"},
			},
		},

		// Async Tasks
		{
			Name:        "image_task_status",
			Description: "Poll an async partitioning task. Returns size, position, percent and finished; the full result is included once the task is done.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"task_id": map[string]interface{}{
						"type":        "string",
						"description": "Task id returned by image_segment or image_quantize with async=true",
					},
				},
				"required": []string{"task_id"},
			},
		},
		{
			Name:        "image_task_list",
			Description: "List retained async tasks with their progress.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
