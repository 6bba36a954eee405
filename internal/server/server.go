// Package server exposes the search API over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hadiscover/hadiscover/internal/engine"
	"github.com/hadiscover/hadiscover/internal/query"
	"github.com/hadiscover/hadiscover/internal/store"
	"github.com/hadiscover/hadiscover/pkg/types"
)

// Server holds the HTTP API dependencies.
type Server struct {
	router *query.Router
	store  store.Store
	engine engine.Engine // nil when no search engine is configured
	logger *zap.Logger
	http   *http.Server
}

// New creates an API server. engine may be nil.
func New(router *query.Router, st store.Store, eng engine.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{router: router, store: st, engine: eng, logger: logger}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/facets", s.handleFacets)
		r.Get("/statistics", s.handleStatistics)
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then drains with a
// shutdown grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// searchResponse is the JSON shape of GET /api/search. Hits reuse the
// flattened index document so HTTP and engine consumers see the same fields.
type searchResponse struct {
	Results []engine.Document `json:"results"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

// facetsResponse is the JSON shape of GET /api/facets.
type facetsResponse struct {
	Facets map[types.Dimension][]types.FacetBucket `json:"facets"`
	Total  int                                     `json:"total"`
}

type healthResponse struct {
	Status       string `json:"status"`
	Database     string `json:"database"`
	SearchEngine string `json:"search_engine"`
}

// queryFromRequest parses the shared search query parameters.
func queryFromRequest(r *http.Request) (types.SearchQuery, error) {
	params := r.URL.Query()
	q := types.SearchQuery{
		Term:               params.Get("q"),
		TriggerFilter:      params.Get("trigger_type"),
		ActionDomainFilter: params.Get("action_domain"),
	}

	if v := params.Get("blueprint_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, errors.New("blueprint_only must be a boolean")
		}
		q.BlueprintOnly = b
	}
	if v := params.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, errors.New("page must be a positive integer")
		}
		q.Page = n
	}
	if v := params.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, errors.New("per_page must be a positive integer")
		}
		q.PerPage = n
	}
	return q, nil
}

// handleSearch handles GET /api/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	page, err := s.router.Search(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	results := make([]engine.Document, 0, len(page.Hits))
	for _, hit := range page.Hits {
		results = append(results, engine.FromHit(hit))
	}
	s.writeJSON(w, http.StatusOK, searchResponse{
		Results: results,
		Total:   page.Total,
		Page:    page.Page,
		PerPage: page.PerPage,
	})
}

// handleFacets handles GET /api/facets. An optional dimension parameter
// restricts the response to one axis.
func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	buckets, err := s.router.Facets(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	// Every dimension's counts sum to the matched total.
	total := 0
	for _, b := range buckets[types.DimRepository] {
		total += b.Count
	}

	if dim := r.URL.Query().Get("dimension"); dim != "" {
		d, err := types.ParseDimension(dim)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		buckets = map[types.Dimension][]types.FacetBucket{d: buckets[d]}
	}
	s.writeJSON(w, http.StatusOK, facetsResponse{Facets: buckets, Total: total})
}

// handleStatistics handles GET /api/statistics.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.router.Statistics(r.Context())
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// handleHealth handles GET /healthz. Database unavailability is a 503; an
// unreachable search engine is reported but keeps the service healthy since
// queries fall back to the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok", SearchEngine: "disabled"}
	status := http.StatusOK

	if err := s.store.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if s.engine != nil {
		if s.engine.Healthy(r.Context()) {
			resp.SearchEngine = "ok"
		} else {
			resp.SearchEngine = "unavailable"
		}
	}

	s.writeJSON(w, status, resp)
}

// writeQueryError maps validation failures to 400 and everything else to 500.
func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrTermTooLong),
		errors.Is(err, types.ErrInvalidTerm),
		errors.Is(err, types.ErrUnknownDimension):
		s.writeError(w, http.StatusBadRequest, err)
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

// requestLogger logs one line per request with latency and status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
