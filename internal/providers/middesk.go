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

// MiddeskClient is the live HTTP adapter for the Middesk business
// verification API.
type MiddeskClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	guard   guard
}

// NewMiddeskClient creates a Middesk adapter.
func NewMiddeskClient(baseURL, apiKey string) *MiddeskClient {
	return &MiddeskClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		guard:   newGuard("middesk"),
	}
}

// VerifyBusiness submits the subject's business identity for verification.
// Transient failures are retried with backoff; client errors are permanent.
func (c *MiddeskClient) VerifyBusiness(ctx context.Context, sub Subject) (*BusinessVerification, error) {
	if sub.BusinessName == "" && sub.TaxID == "" {
		return nil, fmt.Errorf("%w: business name or tax id required", ErrSubjectIncomplete)
	}

	payload := map[string]string{
		"name":    sub.BusinessName,
		"tin":     sub.TaxID,
		"address": sub.Address,
	}

	var result struct {
		Status string `json:"status"`
		Name   string `json:"name"`
		Review struct {
			Verified *bool `json:"verified"`
		} `json:"review"`
	}

	err := c.guard.do(func() error {
		return retry.Do(ctx, 3, 300*time.Millisecond, func() error {
			return c.post(ctx, "/v1/businesses", payload, &result)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("middesk: %w", err)
	}

	return &BusinessVerification{
		Verified:     result.Review.Verified,
		BusinessName: result.Name,
		Status:       result.Status,
	}, nil
}

func (c *MiddeskClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return retry.Permanent(fmt.Errorf("middesk rejected request: status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
