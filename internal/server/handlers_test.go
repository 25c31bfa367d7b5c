package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskcore/internal/domain"
	"github.com/aristath/riskcore/internal/history"
)

type fakeBackend struct {
	analysis     domain.RiskAnalysis
	analysisErr  error
	exposures    []domain.ExposureEntry
	exposuresErr error
	volatility   float64
	sentiment    domain.Sentiment
	quote        domain.PriceQuote
	quoteErr     error
	batch        map[string]domain.PriceQuote
	record       *history.Record
	records      []history.Record
	cacheCleared bool
	healthErr    error
}

func (f *fakeBackend) AnalyzeRisk(_ context.Context, _ int64, _ string) (domain.RiskAnalysis, error) {
	return f.analysis, f.analysisErr
}

func (f *fakeBackend) AnalyzeExposures(_ context.Context, _ string) ([]domain.ExposureEntry, error) {
	return f.exposures, f.exposuresErr
}

func (f *fakeBackend) EstimateAssetVolatility(_ context.Context, _ string) float64 {
	return f.volatility
}

func (f *fakeBackend) FetchAndAssess(_ context.Context) domain.Sentiment {
	return f.sentiment
}

func (f *fakeBackend) GetPrice(_ context.Context, _ string) (domain.PriceQuote, error) {
	return f.quote, f.quoteErr
}

func (f *fakeBackend) GetPrices(_ context.Context, _ []string) map[string]domain.PriceQuote {
	return f.batch
}

func (f *fakeBackend) ClearCache() { f.cacheCleared = true }

func (f *fakeBackend) CacheStats() (int, []string) { return 2, []string{"BTC", "ETH"} }

func (f *fakeBackend) GetByID(_ string) (*history.Record, error) { return f.record, nil }

func (f *fakeBackend) ListByPortfolio(_ int64, _ int) ([]history.Record, error) {
	return f.records, nil
}

func (f *fakeBackend) HealthCheck(_ context.Context) error { return f.healthErr }

func newTestServer(f *fakeBackend) *Server {
	return New(Config{
		Log:        zerolog.Nop(),
		Port:       0,
		DevMode:    true,
		Agent:      f,
		Volatility: f,
		Sentiment:  f,
		Oracle:     f,
		History:    f,
		Checks:     map[string]HealthChecker{"oracle": f},
	})
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Contains(t, envelope, "metadata")
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	return data
}

func TestHandleAssessRisk(t *testing.T) {
	f := &fakeBackend{analysis: domain.RiskAnalysis{
		PortfolioID: 7,
		TotalRisk:   42.5,
		ProofHandle: "0xproof",
	}}
	srv := newTestServer(f)

	rec := doRequest(t, srv, http.MethodPost, "/api/risk/assess", `{"portfolio_id":7,"address":"0xabc"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, 42.5, data["total_risk"])
	assert.Equal(t, "0xproof", data["proof_handle"])
}

func TestHandleAssessRiskValidation(t *testing.T) {
	srv := newTestServer(&fakeBackend{})

	rec := doRequest(t, srv, http.MethodPost, "/api/risk/assess", `{"portfolio_id":7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/risk/assess", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAssessRiskNoPortfolioData(t *testing.T) {
	srv := newTestServer(&fakeBackend{analysisErr: domain.ErrNoPortfolioData})

	rec := doRequest(t, srv, http.MethodPost, "/api/risk/assess", `{"address":"0xdead"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not load portfolio")
}

func TestHandleAssetVolatility(t *testing.T) {
	srv := newTestServer(&fakeBackend{volatility: 0.35})

	rec := doRequest(t, srv, http.MethodGet, "/api/risk/volatility/btc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "BTC", data["symbol"])
	assert.Equal(t, 0.35, data["volatility"])
}

func TestHandleExposures(t *testing.T) {
	srv := newTestServer(&fakeBackend{exposures: []domain.ExposureEntry{
		{Asset: "BTC", Exposure: 100, Contribution: 120},
	}})

	rec := doRequest(t, srv, http.MethodGet, "/api/risk/exposures/0xabc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"asset":"BTC"`)
}

func TestHandleSentiment(t *testing.T) {
	srv := newTestServer(&fakeBackend{sentiment: domain.SentimentBearish})

	rec := doRequest(t, srv, http.MethodGet, "/api/risk/sentiment", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bearish", decodeData(t, rec)["sentiment"])
}

func TestHandleGetPriceUnavailable(t *testing.T) {
	srv := newTestServer(&fakeBackend{quoteErr: domain.ErrPriceUnavailable})

	rec := doRequest(t, srv, http.MethodGet, "/api/prices/xyz", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleBatchPrices(t *testing.T) {
	srv := newTestServer(&fakeBackend{batch: map[string]domain.PriceQuote{
		"BTC": {Symbol: "BTC", Price: 50000},
	}})

	rec := doRequest(t, srv, http.MethodPost, "/api/prices/batch", `{"symbols":["BTC","XYZ"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"BTC"`)

	rec = doRequest(t, srv, http.MethodPost, "/api/prices/batch", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHistory(t *testing.T) {
	srv := newTestServer(&fakeBackend{record: &history.Record{ID: "abc"}})

	rec := doRequest(t, srv, http.MethodGet, "/api/history/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", decodeData(t, rec)["id"])

	missing := newTestServer(&fakeBackend{})
	rec = doRequest(t, missing, http.MethodGet, "/api/history/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/history/?portfolio_id=bad", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDebugCache(t *testing.T) {
	f := &fakeBackend{}
	srv := newTestServer(f)

	rec := doRequest(t, srv, http.MethodGet, "/api/debug/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decodeData(t, rec)["size"])

	rec = doRequest(t, srv, http.MethodDelete, "/api/debug/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.cacheCleared)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(&fakeBackend{})
	rec := doRequest(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeData(t, rec)["status"])

	degraded := newTestServer(&fakeBackend{healthErr: errors.New("upstream down")})
	rec = doRequest(t, degraded, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decodeData(t, rec)["status"])
}
