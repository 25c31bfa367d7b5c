// Package proof attaches proof handles to completed risk analyses. The
// proving system itself is an external black box; when it is unreachable a
// deterministic fallback handle is derived from the analysis payload so
// the field is never meaningfully empty.
package proof

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/riskcore/internal/domain"
)

// Client talks to the external prover service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a prover client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("client", "prover").Logger(),
	}
}

type generateRequest struct {
	ProofType string         `json:"proof_type"`
	Data      map[string]any `json:"data"`
}

type generateResponse struct {
	Success bool `json:"success"`
	Proof   struct {
		ProofHash string `json:"proof_hash"`
	} `json:"proof"`
}

// GenerateHandle asks the prover for a proof over the analysis and returns
// the handle. On any failure it returns the deterministic fallback handle;
// this method never fails.
func (c *Client) GenerateHandle(ctx context.Context, analysis domain.RiskAnalysis) string {
	handle, err := c.generate(ctx, analysis)
	if err != nil {
		c.log.Warn().Err(err).
			Int64("portfolio_id", analysis.PortfolioID).
			Msg("Prover unavailable, using deterministic fallback handle")
		return FallbackHandle(analysis)
	}
	return handle
}

func (c *Client) generate(ctx context.Context, analysis domain.RiskAnalysis) (string, error) {
	payload, err := json.Marshal(generateRequest{
		ProofType: "portfolio_risk",
		Data: map[string]any{
			"portfolio_id":   analysis.PortfolioID,
			"portfolio_risk": analysis.TotalRisk,
			"volatility":     analysis.Volatility,
			"timestamp":      analysis.Timestamp,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding proof request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/zk/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating proof request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling prover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("prover returned status %d", resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding proof response: %w", err)
	}
	if !result.Success || result.Proof.ProofHash == "" {
		return "", fmt.Errorf("prover returned no proof hash")
	}

	return result.Proof.ProofHash, nil
}

// witness is the canonical payload hashed for the fallback handle. Field
// order matters: msgpack encodes struct fields in declaration order, which
// keeps the hash stable across runs.
type witness struct {
	PortfolioID int64
	TotalRisk   float64
	Timestamp   int64
}

// FallbackHandle derives a deterministic handle from the analysis: sha256
// over the msgpack-encoded witness, hex-encoded with a 0x prefix.
func FallbackHandle(analysis domain.RiskAnalysis) string {
	encoded, err := msgpack.Marshal(witness{
		PortfolioID: analysis.PortfolioID,
		TotalRisk:   analysis.TotalRisk,
		Timestamp:   analysis.Timestamp,
	})
	if err != nil {
		// Marshalling three scalar fields cannot fail; keep a non-empty
		// handle anyway.
		encoded = []byte(fmt.Sprintf("%d:%f:%d", analysis.PortfolioID, analysis.TotalRisk, analysis.Timestamp))
	}

	digest := sha256.Sum256(encoded)
	return "0x" + hex.EncodeToString(digest[:])
}
