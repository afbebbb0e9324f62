// Package server exposes BAR generation over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"

	"github.com/GabrielNunesIT/bargen/internal/adapters/httpsink"
	"github.com/GabrielNunesIT/bargen/internal/bar"
	"github.com/GabrielNunesIT/bargen/internal/config"
	"github.com/GabrielNunesIT/bargen/internal/domain"
	"github.com/GabrielNunesIT/bargen/internal/metrics"
	"github.com/GabrielNunesIT/bargen/internal/swagger"
)

const (
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
)

// Server is the hosting service.
type Server struct {
	builder  *bar.Builder
	counters *metrics.Counters
	cfg      *config.Config
	log      domain.Logger
	router   *mux.Router
}

// New creates a Server. counters backs the metrics endpoint and may be nil.
func New(builder *bar.Builder, counters *metrics.Counters, cfg *config.Config, log domain.Logger) *Server {
	if log == nil {
		log = domain.NopLogger{}
	}

	if counters == nil {
		counters = metrics.NewCounters()
	}

	s := &Server{
		builder:  builder,
		counters: counters,
		cfg:      cfg,
		log:      log,
		router:   mux.NewRouter(),
	}

	s.router.Use(s.withRequestID)
	s.router.Path("/bar").Methods(http.MethodPost).HandlerFunc(s.handleBar)
	s.router.Path("/swagger").Methods(http.MethodPost).HandlerFunc(s.handleSwagger)
	s.router.Path("/metrics").Methods(http.MethodGet).HandlerFunc(s.handleMetrics)
	s.router.Path("/healthz").Methods(http.MethodGet).HandlerFunc(s.handleHealth)

	return s
}

// Handler returns the HTTP handler of the service.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.Infof("Starting BAR service on %s", s.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Infof("Stopping BAR service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}

	return nil
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)
		s.log.Infof("[%s] %s %s", id, r.Method, r.URL.Path)

		next.ServeHTTP(w, r.WithContext(domain.ContextWithRequestID(r.Context(), id)))
	})
}

func (s *Server) handleBar(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		writeBodyError(w, domain.NewBuildFailedError(err), err)
		return
	}

	docs, err := splitDocuments(body)
	if err != nil {
		httpsink.WriteError(w, http.StatusBadRequest, domain.NewBuildFailedError(err))
		return
	}

	query := r.URL.Query()
	params := bar.BuildParams{
		InstanceID: valueOr(query.Get("instanceId"), s.cfg.InstanceID),
		ServiceURL: valueOr(query.Get("csUrl"), s.cfg.ServiceURL),
		APIKeyName: valueOr(query.Get("apiKeyName"), s.cfg.APIKeyName),
	}

	s.builder.Build(r.Context(), httpsink.New(w), docs, params)
}

func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		writeBodyError(w, domain.NewInvalidFlowError("%v", err), err)
		return
	}

	doc, err := generate(body)
	if err != nil {
		be, ok := domain.AsBuildError(err)
		if !ok {
			be = domain.NewInvalidFlowError("%v", err)
		}

		httpsink.WriteError(w, be.StatusCode, be)

		return
	}

	validate := s.cfg.Validate
	if v, err := strconv.ParseBool(r.URL.Query().Get("validate")); err == nil {
		validate = v
	}

	if validate {
		if err := swagger.Validate(r.Context(), doc.Swagger()); err != nil {
			be := domain.NewInvalidFlowError("%v", err)
			be.StatusCode = http.StatusUnprocessableEntity
			httpsink.WriteError(w, be.StatusCode, be)

			return
		}
	}

	var (
		out         []byte
		contentType string
	)

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		out, err = doc.JSON()
		contentType = "application/json"
	case "yaml":
		out, err = doc.YAML()
		contentType = "application/yaml"
	default:
		httpsink.WriteError(w, http.StatusBadRequest, domain.NewInvalidFlowError("unsupported format %q", format))
		return
	}

	if err != nil {
		httpsink.WriteError(w, http.StatusInternalServerError, domain.FromError(err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(out)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.counters.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	reader := r.Body
	if s.cfg.MaxBodyBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	return body, nil
}

// writeBodyError reports a request body that could not be read. A body over
// the configured limit is reported as 413.
func writeBodyError(w http.ResponseWriter, be *domain.BuildError, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		be.StatusCode = http.StatusRequestEntityTooLarge
	}

	httpsink.WriteError(w, be.StatusCode, be)
}

func generate(body []byte) (*swagger.Document, error) {
	flow, err := domain.ParseFlow(body)
	if err != nil {
		return nil, err
	}

	return swagger.New(flow)
}

// splitDocuments returns the flow documents of a request body. The body is
// either a YAML stream of documents or a single sequence of documents.
func splitDocuments(body []byte) ([]any, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(body))

	var docs []any

	for {
		var node yaml.Node

		err := decoder.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to decode request body: %w", err)
		}

		docs = append(docs, &node)
	}

	if len(docs) == 1 {
		root := docs[0].(*yaml.Node)
		if len(root.Content) == 1 && root.Content[0].Kind == yaml.SequenceNode {
			docs = docs[:0]
			for _, item := range root.Content[0].Content {
				docs = append(docs, item)
			}
		}
	}

	if len(docs) == 0 {
		return nil, domain.ErrEmptyFlow
	}

	return docs, nil
}

func valueOr(v, fallback string) string {
	if v != "" {
		return v
	}

	return fallback
}
