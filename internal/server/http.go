package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ironsheep/image-partition-mcp/internal/imaging"
)

// maxBodyBytes bounds POST /tools/{name} request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of a failed HTTP request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToolResponse is the body of a successful POST /tools/{name}.
type ToolResponse struct {
	Result  interface{}           `json:"result"`
	Preview *imaging.EncodedImage `json:"preview,omitempty"`
}

// Handler returns an HTTP handler exposing the same tools as the MCP
// transport:
//
//	GET  /healthz       liveness and cache/task counts
//	GET  /tools         tool definitions
//	POST /tools/{name}  run a tool; the body is its JSON arguments
//	GET  /tasks         async task list
//	GET  /tasks/{id}    async task status
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/tools", s.handleHTTPTools).Methods(http.MethodGet)
	r.HandleFunc("/tools/{name}", s.handleHTTPToolCall).Methods(http.MethodPost)
	r.HandleFunc("/tasks", s.handleHTTPTaskList).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}", s.handleHTTPTaskStatus).Methods(http.MethodGet)
	return r
}

// ListenAndServe serves Handler on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		Addr:         addr,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Minute,
	}
	log.Printf("HTTP listener on %s", addr)
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"name":          ServerName,
		"version":       s.version,
		"cached_images": s.cache.Len(),
		"tasks":         s.tasks.Len(),
	})
}

func (s *Server) handleHTTPTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tools": GetToolDefinitions(),
	})
}

func (s *Server) handleHTTPToolCall(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		sendErrorResponse(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		sendErrorResponse(w, "invalid_request", "body is not valid JSON", http.StatusBadRequest)
		return
	}

	result, err := s.executeTool(name, body)
	if err != nil {
		switch {
		case errors.Is(err, errUnknownTool):
			sendErrorResponse(w, "unknown_tool", err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrTaskNotFound):
			sendErrorResponse(w, "not_found", err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrTooManyTasks):
			sendErrorResponse(w, "too_many_tasks", err.Error(), http.StatusServiceUnavailable)
		default:
			sendErrorResponse(w, "tool_failed", err.Error(), http.StatusUnprocessableEntity)
		}
		return
	}

	resp := ToolResponse{Result: result}
	if p, ok := result.(previewer); ok {
		resp.Preview = p.preview()
	}
	status := http.StatusOK
	if _, ok := result.(*AsyncResult); ok {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHTTPTaskList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, &TaskListResult{Tasks: s.tasks.List()})
}

func (s *Server) handleHTTPTaskStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.tasks.Status(mux.Vars(r)["id"])
	if err != nil {
		sendErrorResponse(w, "not_found", err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ToolResponse{Result: st, Preview: st.preview()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func sendErrorResponse(w http.ResponseWriter, code, message string, status int) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
