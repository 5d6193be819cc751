package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/helioslend/helios/internal/retry"
)

// ISoftpullClient is the live HTTP adapter for the iSoftpull soft credit
// pull API.
type ISoftpullClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	guard   guard
}

// NewISoftpullClient creates an iSoftpull adapter.
func NewISoftpullClient(baseURL, apiKey string) *ISoftpullClient {
	return &ISoftpullClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 20 * time.Second},
		guard:   newGuard("isoftpull"),
	}
}

// CheckCredit runs a soft pull for the subject.
func (c *ISoftpullClient) CheckCredit(ctx context.Context, sub Subject) (*CreditReport, error) {
	if sub.SSN == "" && sub.TaxID == "" {
		return nil, fmt.Errorf("%w: ssn or tax id required", ErrSubjectIncomplete)
	}

	payload := map[string]string{
		"ssn":     sub.SSN,
		"tin":     sub.TaxID,
		"address": sub.Address,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("isoftpull: encode request: %w", err)
	}

	var result struct {
		Score  int    `json:"score"`
		Bureau string `json:"bureau"`
	}

	err = c.guard.do(func() error {
		return retry.Do(ctx, 3, 300*time.Millisecond, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/pulls", bytes.NewReader(body))
			if err != nil {
				return retry.Permanent(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Api-Key", c.apiKey)

			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
			}
			defer func() { _ = resp.Body.Close() }()

			switch {
			case resp.StatusCode >= 500:
				return fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
			case resp.StatusCode >= 400:
				return retry.Permanent(fmt.Errorf("isoftpull rejected request: status %d", resp.StatusCode))
			}

			return json.NewDecoder(resp.Body).Decode(&result)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("isoftpull: %w", err)
	}

	if result.Score < 300 || result.Score > 850 {
		return nil, fmt.Errorf("isoftpull: score %d outside bureau range", result.Score)
	}
	return &CreditReport{Score: result.Score, Bureau: result.Bureau}, nil
}
