// Package api provides the HTTP REST API server for stockbrief.
//
// It exposes stored stock records, quote refreshes, AI company summaries,
// news briefs, key status, Prometheus metrics and a WebSocket feed of
// refresh events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phuslu/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seenimoa/stockbrief/internal/config"
	"github.com/seenimoa/stockbrief/internal/logging"
	"github.com/seenimoa/stockbrief/internal/store"
	"github.com/seenimoa/stockbrief/pkg/models"
)

// Version is reported by /health. Set at build time.
var Version = "dev"

// MarketData refreshes quotes and fetches news.
type MarketData interface {
	UpdateStockData(ctx context.Context, stock *models.Stock) error
	StockNews(ctx context.Context, symbol string) []models.NewsArticle
}

// Summaries produces AI summaries.
type Summaries interface {
	CompanySummary(ctx context.Context, stock *models.Stock) string
	NewsSummary(ctx context.Context, articles []models.NewsArticle) string
}

// Deps are the collaborators the server needs.
type Deps struct {
	Config     *config.Config
	Market     MarketData
	Summarizer Summaries
	Store      store.Store         // nil selects an in-memory store
	Gatherer   prometheus.Gatherer // nil serves no /metrics route
	Logger     *log.Logger
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	cfg        *config.Config
	market     MarketData
	summarizer Summaries
	store      store.Store
	gatherer   prometheus.Gatherer
	logger     *log.Logger
	wsHub      *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(d Deps) *Server {
	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	st := d.Store
	if st == nil {
		st = store.NewMemoryStore()
	}
	s := &Server{
		cfg:        cfg,
		market:     d.Market,
		summarizer: d.Summarizer,
		store:      st,
		gatherer:   d.Gatherer,
		logger:     logging.OrDiscard(d.Logger),
		wsHub:      NewWSHub(),
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing. Served on its own, the hub is
// started by the first WebSocket connection and runs for the life of the
// process.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	s.wsHub.Start(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// The WebSocket route must not sit behind the timeout middleware.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/health", s.handleHealth)

			r.Get("/stocks", s.handleListStocks)
			r.Route("/stocks/{symbol}", func(r chi.Router) {
				r.Use(symbolCtx)
				r.Get("/", s.handleGetStock)
				r.Put("/", s.handlePutStock)
				r.Post("/refresh", s.handleRefresh)
				r.Get("/summary", s.handleSummary)
				r.Get("/news", s.handleNews)
			})

			r.Get("/config/keys", s.handleGetConfigKeys)
		})
	})

	return r
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// StockRequest is the body for PUT /api/v1/stocks/{symbol}.
type StockRequest struct {
	CompanyName string `json:"company_name"`
	Description string `json:"description"`
}

// SummaryResponse is returned by GET /api/v1/stocks/{symbol}/summary.
type SummaryResponse struct {
	Symbol  string `json:"symbol"`
	Summary string `json:"summary"`
}

// NewsResponse is returned by GET /api/v1/stocks/{symbol}/news and pushed
// over the WebSocket.
type NewsResponse struct {
	Symbol   string               `json:"symbol"`
	Articles []models.NewsArticle `json:"articles"`
	Summary  string               `json:"summary"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	Time             string `json:"time"`
	AlphaVantageDemo bool   `json:"alpha_vantage_demo"`
	GeminiDemo       bool   `json:"gemini_demo"`
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
