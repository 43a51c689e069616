package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/validator"
	"github.com/aretw0/espalier/pkg/codec"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service is the part of the resolver the HTTP API exposes.
type Service interface {
	Profiles(ctx context.Context) ([]string, error)
	Resolve(ctx context.Context, profileID string) (*espalier.Outcome, error)
	Validate(ctx context.Context, profileID string) error
	Watch(ctx context.Context) (<-chan string, error)
}

// Server serves resolved catalogs over HTTP.
type Server struct {
	Service  Service
	Streams  *StreamManager
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	version  string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer exposes the gathered metrics on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithVersion overrides the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewHandler creates a new HTTP handler for the service.
func NewHandler(svc Service, opts ...Option) http.Handler {
	s := &Server{
		Service: svc,
		Streams: NewStreamManager(),
		logger:  slog.Default(),
		version: strings.TrimSpace(espalier.Version),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/profiles", s.ListProfiles)
	r.Get("/profiles/{id}/resolved", s.GetResolved)
	r.Get("/profiles/{id}/validate", s.GetValidation)
	r.Get("/events", s.SubscribeEvents)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Error  string   `json:"error"`
	Issues []string `json:"issues,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var agg *validator.AggregateError
	if errors.As(err, &agg) {
		for _, e := range agg.Errors {
			resp.Issues = append(resp.Issues, e.Error())
		}
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, resp)
}

func statusFor(err error) int {
	var agg *validator.AggregateError
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownControl),
		errors.Is(err, domain.ErrUnknownParameter),
		errors.Is(err, domain.ErrUnknownPart),
		errors.Is(err, domain.ErrImportCycle),
		errors.Is(err, domain.ErrCatalogNotFound),
		errors.As(err, &agg):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func profileParam(r *http.Request) (string, error) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		return "", fmt.Errorf("invalid profile id: %w", err)
	}
	return id, nil
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "espalier-http",
		"version": s.version,
	})
}

// ListProfiles handles the GET /profiles request.
func (s *Server) ListProfiles(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.Profiles(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"profiles": ids})
}

// GetResolved handles the GET /profiles/{id}/resolved request.
// The catalog is written as JSON unless ?format=yaml is given.
func (s *Server) GetResolved(w http.ResponseWriter, r *http.Request) {
	id, err := profileParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	format, err := codec.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := s.Service.Resolve(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := codec.EncodeCatalog(out.Catalog, format)
	if err != nil {
		s.writeError(w, err)
		return
	}

	cache := "miss"
	if out.Cached {
		cache = "hit"
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Espalier-Cache", cache)
	if len(out.Required) > 0 {
		w.Header().Set("X-Espalier-Required-Params", strings.Join(out.Required, ","))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("response write failed", "error", err)
	}

	if event, err := json.Marshal(resolvedEvent{
		Profile:  id,
		UUID:     out.Catalog.UUID,
		Controls: len(out.Catalog.AllControls()),
		Cached:   out.Cached,
	}); err == nil {
		s.Streams.Broadcast(id, string(event))
	}
}

// GetValidation handles the GET /profiles/{id}/validate request.
func (s *Server) GetValidation(w http.ResponseWriter, r *http.Request) {
	id, err := profileParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Service.Validate(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"profile": id, "valid": true})
}

// resolvedEvent is broadcast to profile subscribers after each resolution.
type resolvedEvent struct {
	Profile  string `json:"profile"`
	UUID     string `json:"uuid"`
	Controls int    `json:"controls"`
	Cached   bool   `json:"cached"`
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // profile ID -> set of channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

func (sm *StreamManager) Subscribe(profileID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[profileID]; !ok {
		sm.subscribers[profileID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[profileID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[profileID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, profileID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(profileID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[profileID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			slog.Warn("SSE: Client buffer full, dropping message", "profile", profileID)
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE).
// Without a profile query parameter it streams repository changes; with one,
// it streams the resolutions of that profile.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var events <-chan string
	profileID := r.URL.Query().Get("profile")
	if profileID == "" {
		s.logger.Info("SSE: Subscribing to repository changes")
		changes, err := s.Service.Watch(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
			return
		}
		events = changes
	} else {
		s.logger.Info("SSE: Subscribing to profile resolutions", "profile", profileID)
		ch, cancel := s.Streams.Subscribe(profileID)
		defer cancel()
		events = ch
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}
