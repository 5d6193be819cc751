package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/helioslend/helios/internal/retry"
)

// SOSClient is the live HTTP adapter for the Secretary of State business
// registration lookup service.
type SOSClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	guard   guard
}

// NewSOSClient creates a registration lookup adapter.
func NewSOSClient(baseURL, apiKey string) *SOSClient {
	return &SOSClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		guard:   newGuard("sos"),
	}
}

// VerifyRegistration looks up the subject's state registration status.
func (c *SOSClient) VerifyRegistration(ctx context.Context, sub Subject) (*RegistrationCheck, error) {
	if sub.BusinessName == "" {
		return nil, fmt.Errorf("%w: business name required", ErrSubjectIncomplete)
	}

	query := url.Values{}
	query.Set("name", sub.BusinessName)
	if sub.State != "" {
		query.Set("state", sub.State)
	}

	var result struct {
		Status       string `json:"status"`
		Jurisdiction string `json:"jurisdiction"`
	}

	err := c.guard.do(func() error {
		return retry.Do(ctx, 3, 300*time.Millisecond, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet,
				c.baseURL+"/v1/registrations?"+query.Encode(), nil)
			if err != nil {
				return retry.Permanent(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("X-Api-Key", c.apiKey)

			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
			}
			defer func() { _ = resp.Body.Close() }()

			switch {
			case resp.StatusCode >= 500:
				return fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
			case resp.StatusCode == http.StatusNotFound:
				// No registration on file is a determination, not a failure.
				result.Status = "NOT_FOUND"
				return nil
			case resp.StatusCode >= 400:
				return retry.Permanent(fmt.Errorf("sos rejected request: status %d", resp.StatusCode))
			}

			return json.NewDecoder(resp.Body).Decode(&result)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("sos: %w", err)
	}

	return &RegistrationCheck{
		Status:       strings.ToUpper(result.Status),
		Jurisdiction: result.Jurisdiction,
	}, nil
}
