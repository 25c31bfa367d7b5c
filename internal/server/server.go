// Package server provides the HTTP surface over the risk pipeline.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/internal/domain"
	"github.com/aristath/riskcore/internal/history"
)

// RiskAgent is the orchestration surface the handlers call.
type RiskAgent interface {
	AnalyzeRisk(ctx context.Context, portfolioID int64, address string) (domain.RiskAnalysis, error)
	AnalyzeExposures(ctx context.Context, address string) ([]domain.ExposureEntry, error)
}

// VolatilitySource computes per-asset annualized volatility.
type VolatilitySource interface {
	EstimateAssetVolatility(ctx context.Context, symbol string) float64
}

// SentimentSource assesses market sentiment.
type SentimentSource interface {
	FetchAndAssess(ctx context.Context) domain.Sentiment
}

// PriceOracle exposes price resolution plus the cache debug hooks.
type PriceOracle interface {
	GetPrice(ctx context.Context, symbol string) (domain.PriceQuote, error)
	GetPrices(ctx context.Context, symbols []string) map[string]domain.PriceQuote
	ClearCache()
	CacheStats() (int, []string)
}

// HistoryReader reads persisted analyses.
type HistoryReader interface {
	GetByID(id string) (*history.Record, error)
	ListByPortfolio(portfolioID int64, limit int) ([]history.Record, error)
}

// HealthChecker probes one dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds server wiring.
type Config struct {
	Log        zerolog.Logger
	Port       int
	DevMode    bool
	Agent      RiskAgent
	Volatility VolatilitySource
	Sentiment  SentimentSource
	Oracle     PriceOracle
	History    HistoryReader
	Checks     map[string]HealthChecker
}

// Server is the HTTP server.
type Server struct {
	router     *chi.Mux
	server     *http.Server
	log        zerolog.Logger
	agent      RiskAgent
	volatility VolatilitySource
	sentiment  SentimentSource
	oracle     PriceOracle
	history    HistoryReader
	checks     map[string]HealthChecker
}

// New creates the HTTP server with routing and middleware configured.
func New(cfg Config) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		log:        cfg.Log.With().Str("component", "server").Logger(),
		agent:      cfg.Agent,
		volatility: cfg.Volatility,
		sentiment:  cfg.Sentiment,
		oracle:     cfg.Oracle,
		history:    cfg.History,
		checks:     cfg.Checks,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/risk", func(r chi.Router) {
			r.Post("/assess", s.handleAssessRisk)
			r.Get("/volatility/{symbol}", s.handleAssetVolatility)
			r.Get("/exposures/{address}", s.handleExposures)
			r.Get("/sentiment", s.handleSentiment)
		})

		r.Route("/prices", func(r chi.Router) {
			r.Get("/{symbol}", s.handleGetPrice)
			r.Post("/batch", s.handleBatchPrices)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.handleListHistory)
			r.Get("/{id}", s.handleGetHistory)
		})

		r.Route("/debug", func(r chi.Router) {
			r.Get("/cache", s.handleCacheStats)
			r.Delete("/cache", s.handleClearCache)
		})
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// Router returns the configured router, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving. Blocks until the listener closes.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
