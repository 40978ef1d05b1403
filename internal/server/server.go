// Package server exposes Ringline's transcript ingress and call-control REST
// surface.
//
// The primary ingress is a WebSocket stream per call: each text frame is one
// transcript fragment pushed by the external speech-to-text component, and
// each frame is answered with the JSON-encoded classification result. A
// single-shot REST endpoint covers non-streaming callers, and a small set of
// read/control endpoints rounds out the surface:
//
//	GET    /v1/calls/{callID}/stream     WebSocket transcript ingress
//	POST   /v1/calls/{callID}/fragments  single-shot fragment push
//	GET    /v1/calls                     active session list
//	DELETE /v1/calls/{callID}            end a call
//	GET    /healthz, /readyz             probes
//	GET    /metrics                      Prometheus scrape endpoint
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ringline/ringline/internal/call"
	"github.com/ringline/ringline/internal/health"
	"github.com/ringline/ringline/internal/observe"
)

// Config holds the dependencies for a [Server].
type Config struct {
	// Manager tracks active call sessions. Required.
	Manager *call.Manager

	// Metrics instruments the HTTP surface. Required.
	Metrics *observe.Metrics

	// Health serves the /healthz and /readyz probes. Required.
	Health *health.Handler

	// Tools, when non-nil, is mounted at /mcp to expose the tool registry
	// over the Model Context Protocol.
	Tools http.Handler
}

// Server routes HTTP traffic to the call manager.
type Server struct {
	manager *call.Manager
	metrics *observe.Metrics
	health  *health.Handler
	tools   http.Handler
}

// New creates a Server from cfg.
func New(cfg Config) *Server {
	return &Server{
		manager: cfg.Manager,
		metrics: cfg.Metrics,
		health:  cfg.Health,
		tools:   cfg.Tools,
	}
}

// Handler builds the full route table wrapped in the observability
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/calls/{callID}/stream", s.handleStream)
	mux.HandleFunc("POST /v1/calls/{callID}/fragments", s.handleFragment)
	mux.HandleFunc("GET /v1/calls", s.handleListCalls)
	mux.HandleFunc("DELETE /v1/calls/{callID}", s.handleEndCall)

	s.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	if s.tools != nil {
		mux.Handle("/mcp", s.tools)
	}

	return observe.Middleware(s.metrics)(mux)
}

// fragmentRequest is the body of a single-shot fragment push.
type fragmentRequest struct {
	Fragment string `json:"fragment"`
}

// callList is the response body for GET /v1/calls.
type callList struct {
	Calls []call.Info `json:"calls"`
	Count int         `json:"count"`
}

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Error string `json:"error"`
}

// handleFragment accepts one transcript fragment over plain HTTP and replies
// with the classification result. The session is created on first use so
// REST-only callers never need a separate begin step.
func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	callID := r.PathValue("callID")

	var req fragmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Fragment == "" {
		writeError(w, http.StatusBadRequest, "fragment must not be empty")
		return
	}

	session, err := s.ensureSession(r, callID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	res, err := session.HandleFragment(r.Context(), req.Fragment)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ensureSession returns the session for callID, creating it when absent.
func (s *Server) ensureSession(r *http.Request, callID string) (*call.Session, error) {
	session, err := s.manager.Get(callID)
	if err == nil {
		return session, nil
	}
	session, err = s.manager.Begin(r.Context(), callID)
	if errors.Is(err, call.ErrCallActive) {
		// Lost a create race; the winner's session serves us fine.
		return s.manager.Get(callID)
	}
	return session, err
}

func (s *Server) handleListCalls(w http.ResponseWriter, _ *http.Request) {
	infos := s.manager.List()
	writeJSON(w, http.StatusOK, callList{Calls: infos, Count: len(infos)})
}

func (s *Server) handleEndCall(w http.ResponseWriter, r *http.Request) {
	callID := r.PathValue("callID")
	if err := s.manager.End(r.Context(), callID); err != nil {
		if errors.Is(err, call.ErrNoSuchCall) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("server: response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
