package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/kitchenmesh/history"
	"github.com/hupe1980/kitchenmesh/logging"
	"github.com/hupe1980/kitchenmesh/registry"
	"github.com/hupe1980/kitchenmesh/workflow"
)

// keepAliveInterval paces SSE comment pings so idle connections survive
// intermediary timeouts.
const keepAliveInterval = 15 * time.Second

// SubmitFunc starts one workflow run for a free-text order. The caller
// observes progress through the event stream; no synchronous result is
// returned.
type SubmitFunc func(ctx context.Context, input string)

// Server exposes the hub over HTTP:
//
//	GET  /api/events                  SSE stream of status events
//	POST /api/orders                  submit one order, 202 on acceptance
//	GET  /api/workflows/{id}/history  recorded events of one instance
//	GET  /api/stats                   aggregate counters
//	GET  /api/agents                  registered agent descriptors
type Server struct {
	broadcaster *Broadcaster
	store       history.Store
	registry    *registry.Registry
	submit      SubmitFunc
	logger      logging.Logger
	httpServer  *http.Server
}

// ServerOptions configures optional Server behavior.
type ServerOptions struct {
	Logger logging.Logger
}

// NewServer wires the hub's HTTP surface.
func NewServer(
	addr string,
	broadcaster *Broadcaster,
	store history.Store,
	reg *registry.Registry,
	submit SubmitFunc,
	optFns ...func(o *ServerOptions),
) *Server {
	opts := ServerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		broadcaster: broadcaster,
		store:       store,
		registry:    reg,
		submit:      submit,
		logger:      opts.Logger,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route table; exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("POST /api/orders", s.handleSubmitOrder)
	mux.HandleFunc("GET /api/workflows/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/agents", s.handleAgents)
	return mux
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("hub listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sse := NewSSEWriter(w)
	if sse == nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel := s.broadcaster.Subscribe()
	defer cancel()

	s.logger.Info("subscriber connected", "remote", r.RemoteAddr)
	defer s.logger.Info("subscriber disconnected", "remote", r.RemoteAddr)

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := sse.SendEvent("status", evt); err != nil {
				s.logger.Warn("sse send failed", "remote", r.RemoteAddr, "error", err)
				return
			}
		case <-ticker.C:
			if err := sse.SendComment("ping"); err != nil {
				return
			}
		}
	}
}

type submitRequest struct {
	Order string `json:"order"`
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Order) == "" {
		http.Error(w, "order must not be empty", http.StatusBadRequest)
		return
	}

	// The run outlives the request; progress is observable on /api/events.
	go s.submit(context.WithoutCancel(r.Context()), req.Order)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.History(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []workflow.StatusEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("stats query failed", "error", err)
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
