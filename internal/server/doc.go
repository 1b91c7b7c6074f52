// Package server implements the MCP (Model Context Protocol) server for the
// image partitioning tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// The same tools are optionally served over HTTP; see Server.Handler.
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Partitioning:
//   - image_segment: Region growing over 8-connected equal values
//   - image_quantize: Centroid color quantization to K colors
//
// Async Tasks:
//   - image_task_status: Poll size, position and finished of a background run
//   - image_task_list: List retained background runs
//
// # Async Runs
//
// Partitioning a large image can take a while, and the quantizer has no pass
// limit. With async=true the run is started on its own goroutine and a task
// id is returned at once. Runs cannot be cancelled; the registry keeps at most
// server.maxTasks tasks and drops the oldest completed one when full.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
