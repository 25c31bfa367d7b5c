// Package predictions provides the prediction-market insight client that
// feeds the sentiment aggregator.
package predictions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskcore/internal/domain"
)

// insightResponse is the insight API payload for one asset.
type insightResponse struct {
	Asset       string              `json:"asset"`
	Predictions []domain.Prediction `json:"predictions"`
}

// Client fetches probabilistic market-event predictions for an asset.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new prediction-market insight client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "predictions").Logger(),
	}
}

// AssetInsights returns the prediction records for one asset symbol.
func (c *Client) AssetInsights(ctx context.Context, symbol string) ([]domain.Prediction, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))

	reqURL := fmt.Sprintf("%s/insights?asset=%s&active=true", c.baseURL, url.QueryEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build insights request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, fmt.Errorf("insights request for %s: %w", key, domain.ErrUpstreamTimeout)
		}
		return nil, fmt.Errorf("insights request for %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("insight API returned status %d for %s", resp.StatusCode, key)
	}

	var result insightResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode insights for %s: %w", key, domain.ErrMalformedResponse)
	}

	for _, p := range result.Predictions {
		if p.Probability < 0 || p.Probability > 100 {
			return nil, fmt.Errorf("probability %v out of range for %s: %w", p.Probability, key, domain.ErrMalformedResponse)
		}
	}

	c.log.Debug().Str("asset", key).Int("predictions", len(result.Predictions)).Msg("Fetched insights")

	return result.Predictions, nil
}
