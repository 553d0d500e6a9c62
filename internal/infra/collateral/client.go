// Package collateral talks to the external attestation-collateral
// verification service at interface level. Failures degrade the single
// execution being checked, never the batch.
package collateral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sc3/internal/domain"
)

type Client struct {
	endpoint   string
	httpClient *http.Client
}

func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type verifyRequest struct {
	AttestationType string            `json:"attestation_type"`
	Measurement     string            `json:"measurement"`
	Quote           string            `json:"quote"`
	QuoteSignature  string            `json:"quote_signature"`
	Collateral      map[string]string `json:"collateral,omitempty"`
}

type verifyResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// VerifyCollateral asks the service whether the execution's quote and
// collateral check out against the vendor's endorsement data.
func (c *Client) VerifyCollateral(ctx context.Context, exec domain.ExecutionAttestation) error {
	body, err := json.Marshal(verifyRequest{
		AttestationType: string(exec.Type),
		Measurement:     exec.Measurement,
		Quote:           exec.Quote,
		QuoteSignature:  exec.QuoteSignature,
		Collateral:      exec.Collateral,
	})
	if err != nil {
		return fmt.Errorf("marshal collateral request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build collateral request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("collateral service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("collateral service returned status %d", resp.StatusCode)
	}
	var decoded verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode collateral response: %w", err)
	}
	if !decoded.Valid {
		if decoded.Reason != "" {
			return fmt.Errorf("collateral rejected: %s", decoded.Reason)
		}
		return fmt.Errorf("collateral rejected")
	}
	return nil
}
