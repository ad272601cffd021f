package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wastebuster/wastebuster/internal/dataset"
	"github.com/wastebuster/wastebuster/internal/domain"
	"github.com/wastebuster/wastebuster/internal/service"
)

type Server struct {
	service *service.CatalogService
	mux     *http.ServeMux
	logger  *slog.Logger
}

func NewServer(svc *service.CatalogService, logger *slog.Logger) *Server {
	s := &Server{
		service: svc,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /ideas", s.handleListIdeas)
	s.mux.HandleFunc("GET /events", s.handleListEvents)
	s.mux.HandleFunc("GET /events/{id}", s.handleGetEvent)
	s.mux.HandleFunc("GET /places", s.handleMap)
	s.mux.HandleFunc("GET /categories", s.handleSearchCategories)
	s.mux.HandleFunc("GET /saved/{collection}", s.handleListSaved)
	s.mux.HandleFunc("POST /saved/{collection}", s.handleSave)
	s.mux.HandleFunc("POST /saved/{collection}/remove", s.handleRemove)
	s.mux.HandleFunc("POST /saved/{collection}/toggle", s.handleToggle)
	s.mux.HandleFunc("POST /refresh/{collection}", s.handleRefresh)
	s.mux.HandleFunc("POST /identify", s.handleIdentify)
}

// securityHeaders sets the security response headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

// requestID returns the ID requestLogger assigned to the request.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError maps err to a status code. Unexpected errors are logged and
// reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownCollection):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrClassifierUnavailable):
		status, msg = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, dataset.ErrSuperseded):
		status, msg = http.StatusConflict, err.Error()
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"request_id", requestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	s.writeJSON(w, status, errorResponse{Error: msg, RequestID: requestID(r.Context())})
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, RequestID: requestID(r.Context())})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"collections": s.service.Status(),
	})
}
