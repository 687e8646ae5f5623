// Package api - Thin HTTP layer over the cost engine
// The API is ONLY responsible for: input decoding, engine calls, output serialization.
// The API NEVER performs cost logic.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"craft-cost/adapters/storage"
	"craft-cost/core/catalog"
	"craft-cost/core/category"
	"craft-cost/core/engine"
	"craft-cost/internal/errors"
	"craft-cost/internal/logging"
)

// Server is the API server
type Server struct {
	router     chi.Router
	engine     *engine.Engine
	catalog    *catalog.Catalog
	classifier *category.Classifier
	store      storage.Store
	logger     *zap.Logger
	version    string
}

// Option configures a Server
type Option func(*Server)

// WithCatalog enables the catalog endpoints and series/part lookups in /evaluate
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Server) { s.catalog = c }
}

// WithClassifier overrides the part category rules
func WithClassifier(c *category.Classifier) Option {
	return func(s *Server) { s.classifier = c }
}

// WithStore enables the preset endpoints and preset lookups in /evaluate
func WithStore(st storage.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithLogger sets the request logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = logging.OrNop(l) }
}

// NewServer creates a new API server
func NewServer(version string, eng *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine:     eng,
		classifier: category.Default(),
		logger:     zap.NewNop(),
		version:    version,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// Supporting endpoints
	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Get("/scenarios", s.handleScenarios)

	// Core endpoints
	r.Post("/parse", s.handleParse)
	r.Post("/rates", s.handleRates)
	r.Post("/evaluate", s.handleEvaluate)

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/series", s.handleSeries)
		r.Get("/series/{series}/parts", s.handleParts)
		r.Get("/series/{series}/parts/{part}", s.handlePart)
	})

	r.Route("/presets", func(r chi.Router) {
		r.Get("/", s.handleListPresets)
		r.Get("/{name}", s.handleGetPreset)
		r.Put("/{name}", s.handlePutPreset)
		r.Delete("/{name}", s.handleDeletePreset)
	})

	s.router = r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", zap.String("addr", addr), zap.String("version", s.version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, ErrorResponse{Error: ErrorBody{Code: code, Message: message}}, status)
}

// writeErr maps a domain error to its status and code
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	var e *errors.Error
	if !errors.As(err, &e) {
		s.logger.Error("unhandled error", zap.Error(err))
		s.writeError(w, string(errors.TypeInternal), err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch e.Type {
	case errors.TypeInput, errors.TypeParsing:
		status = http.StatusBadRequest
	case errors.TypeNotFound:
		status = http.StatusNotFound
	case errors.TypeWorkbook:
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeError(w, string(e.Type), e.Error(), status)
}

// decode reads a JSON body; it reports false after writing the error
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// param returns a decoded URL parameter
func param(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}
