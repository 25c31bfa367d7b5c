package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/riskcore/internal/domain"
)

// writeJSON wraps payloads in the {data, metadata} envelope.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	response := map[string]any{
		"data": data,
		"metadata": map[string]any{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.checks))
	healthy := true
	for name, checker := range s.checks {
		if err := checker.HealthCheck(r.Context()); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	s.writeJSON(w, status, map[string]any{
		"status": state,
		"checks": checks,
	})
}

type assessRequest struct {
	PortfolioID int64  `json:"portfolio_id"`
	Address     string `json:"address"`
}

// handleAssessRisk handles POST /api/risk/assess.
func (s *Server) handleAssessRisk(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Address == "" {
		s.writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	analysis, err := s.agent.AnalyzeRisk(r.Context(), req.PortfolioID, req.Address)
	if err != nil {
		if errors.Is(err, domain.ErrNoPortfolioData) {
			s.writeError(w, http.StatusNotFound, "could not load portfolio for address")
			return
		}
		s.log.Error().Err(err).Str("address", req.Address).Msg("Risk assessment failed")
		s.writeError(w, http.StatusInternalServerError, "risk assessment failed")
		return
	}

	s.writeJSON(w, http.StatusOK, analysis)
}

// handleAssetVolatility handles GET /api/risk/volatility/{symbol}.
func (s *Server) handleAssetVolatility(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	volatility := s.volatility.EstimateAssetVolatility(r.Context(), symbol)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"symbol":     symbol,
		"volatility": volatility,
	})
}

// handleExposures handles GET /api/risk/exposures/{address}.
func (s *Server) handleExposures(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	exposures, err := s.agent.AnalyzeExposures(r.Context(), address)
	if err != nil {
		if errors.Is(err, domain.ErrNoPortfolioData) {
			s.writeError(w, http.StatusNotFound, "could not load portfolio for address")
			return
		}
		s.log.Error().Err(err).Str("address", address).Msg("Exposure analysis failed")
		s.writeError(w, http.StatusInternalServerError, "exposure analysis failed")
		return
	}

	s.writeJSON(w, http.StatusOK, exposures)
}

// handleSentiment handles GET /api/risk/sentiment.
func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	sentiment := s.sentiment.FetchAndAssess(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]any{"sentiment": sentiment})
}

// handleGetPrice handles GET /api/prices/{symbol}.
func (s *Server) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	quote, err := s.oracle.GetPrice(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrPriceUnavailable) {
			s.writeError(w, http.StatusNotFound, "price unavailable for "+strings.ToUpper(symbol))
			return
		}
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Price lookup failed")
		s.writeError(w, http.StatusInternalServerError, "price lookup failed")
		return
	}

	s.writeJSON(w, http.StatusOK, quote)
}

type batchPricesRequest struct {
	Symbols []string `json:"symbols"`
}

// handleBatchPrices handles POST /api/prices/batch. Symbols that cannot be
// resolved are simply absent from the result.
func (s *Server) handleBatchPrices(w http.ResponseWriter, r *http.Request) {
	var req batchPricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		s.writeError(w, http.StatusBadRequest, "symbols is required")
		return
	}

	s.writeJSON(w, http.StatusOK, s.oracle.GetPrices(r.Context(), req.Symbols))
}

// handleListHistory handles GET /api/history?portfolio_id=N&limit=N.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := strconv.ParseInt(r.URL.Query().Get("portfolio_id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "portfolio_id is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := s.history.ListByPortfolio(portfolioID, limit)
	if err != nil {
		s.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("History listing failed")
		s.writeError(w, http.StatusInternalServerError, "history listing failed")
		return
	}

	s.writeJSON(w, http.StatusOK, records)
}

// handleGetHistory handles GET /api/history/{id}.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := s.history.GetByID(id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("History lookup failed")
		s.writeError(w, http.StatusInternalServerError, "history lookup failed")
		return
	}
	if record == nil {
		s.writeError(w, http.StatusNotFound, "analysis not found")
		return
	}

	s.writeJSON(w, http.StatusOK, record)
}

// handleCacheStats handles GET /api/debug/cache.
func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	size, symbols := s.oracle.CacheStats()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"size":    size,
		"symbols": symbols,
	})
}

// handleClearCache handles DELETE /api/debug/cache.
func (s *Server) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	s.oracle.ClearCache()
	s.writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}
