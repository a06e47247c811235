// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/ragcore/answer"
	"github.com/poiesic/ragcore/config"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/ingestion"
	"github.com/poiesic/ragcore/metrics"
	"github.com/poiesic/ragcore/retrieval"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 32 << 20

// Answerer answers one chat turn.
type Answerer interface {
	Answer(ctx context.Context, sessionID, question string, history []core.Message, filters core.FilterSet) (*answer.Response, error)
}

// Ingester writes and removes information pieces.
type Ingester interface {
	Ingest(ctx context.Context, pieces []*core.Piece, opts *ingestion.IngestOptions) (*ingestion.Result, error)
	Remove(ctx context.Context, filters core.FilterSet) (int, error)
}

// ReadinessChecker reports whether the store holds any pieces.
type ReadinessChecker interface {
	IsReady(ctx context.Context) (bool, error)
}

// Server exposes the chat, search and ingestion API over HTTP.
type Server struct {
	answerer  Answerer
	retriever retrieval.Retriever
	ingester  Ingester
	readiness ReadinessChecker
	collector *metrics.Collector
	gatherer  prometheus.Gatherer
	messages  answer.Messages
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "server")
		return nil
	}
}

// WithRetriever enables POST /search.
func WithRetriever(retriever retrieval.Retriever) Option {
	return func(s *Server) error {
		s.retriever = retriever
		return nil
	}
}

// WithIngester enables the information piece endpoints.
func WithIngester(ingester Ingester) Option {
	return func(s *Server) error {
		s.ingester = ingester
		return nil
	}
}

// WithReadiness makes GET /healthz report store readiness.
func WithReadiness(readiness ReadinessChecker) Option {
	return func(s *Server) error {
		s.readiness = readiness
		return nil
	}
}

// WithMetrics records request metrics on collector and serves gatherer on GET /metrics.
func WithMetrics(collector *metrics.Collector, gatherer prometheus.Gatherer) Option {
	return func(s *Server) error {
		s.collector = collector
		s.gatherer = gatherer
		return nil
	}
}

// WithMessages sets the canned answers used by POST /search.
func WithMessages(messages answer.Messages) Option {
	return func(s *Server) error {
		s.messages = messages
		return nil
	}
}

// New creates a server around answerer.
func New(answerer Answerer, opts ...Option) (*Server, error) {
	if answerer == nil {
		return nil, ErrAnswererRequired
	}
	s := &Server{
		answerer: answerer,
		messages: answer.DefaultMessages(),
		logger:   slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/chat/{session_id}", s.handleChat)
	if s.retriever != nil {
		r.Post("/search", s.handleSearch)
	}
	if s.ingester != nil {
		r.Route("/information_pieces", func(r chi.Router) {
			r.Post("/upload", s.handleUpload)
			r.Post("/remove", s.handleRemove)
		})
	}
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// observe logs each request and records it on the collector.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)

		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", dur,
			"request_id", middleware.GetReqID(r.Context()))
		if s.collector != nil {
			s.collector.RecordHTTPRequest(r.Method, route, status, dur)
		}
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Ready: true}
	if s.readiness != nil {
		ready, err := s.readiness.IsReady(r.Context())
		if err != nil {
			s.logger.Error("readiness check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
		resp.Ready = ready
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.answerer.Answer(r.Context(), sessionID, req.Message, req.History, req.Filters)
	if err != nil {
		// Details stay in the log
		s.logger.Error("chat failed", "session_id", sessionID, "err", err)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pieces, err := s.retriever.Retrieve(r.Context(), req.SearchTerm, metadataFilters(req.Metadata))
	if errors.Is(err, retrieval.ErrNoOrEmptyCollection) {
		s.logger.Warn("search on empty collection")
		writeJSON(w, http.StatusOK, SearchResponse{
			Documents: []*core.Piece{},
			Answer: &answer.Response{
				AnswerText:   s.messages.NoOrEmptyCollection,
				Citations:    []*core.Piece{},
				FinishReason: answer.FinishReasonError,
			},
		})
		return
	}
	if err != nil {
		s.logger.Error("search failed", "err", err)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	documents := make([]*core.Piece, 0, len(pieces))
	for _, p := range pieces {
		if p.ContentType != core.ContentTypeSummary {
			documents = append(documents, p)
		}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Documents: documents})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var pieces []*core.Piece
	if err := decodeJSON(w, r, &pieces); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := &ingestion.IngestOptions{ReplaceDocuments: r.URL.Query().Get("replace") == "true"}
	result, err := s.ingester.Ingest(r.Context(), pieces, opts)
	if errors.Is(err, core.ErrInvalidPiece) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("upload failed", "err", err)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req RemoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	removed, err := s.ingester.Remove(r.Context(), metadataFilters(req.Metadata))
	if errors.Is(err, ingestion.ErrNoFilters) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("remove failed", "err", err)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	writeJSON(w, http.StatusOK, RemoveResponse{Removed: removed})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
