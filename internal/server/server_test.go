package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/helioslend/helios/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testConfig returns a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		Env:               "development",
		LogLevel:          "error",
		ProviderMode:      config.ProviderModeStub,
		DailyBudgetUSD:    decimal.NewFromInt(200),
		PerAnalysisCapUSD: decimal.NewFromInt(50),
	}
}

// newTestServer creates a server with in-memory stores and stub providers
func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(testConfig())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return s
}

// ---------------------------------------------------------------------------
// Health endpoint tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthz", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", resp["status"])
	}
}

func TestLivenessEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/livez", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestReadinessEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/readyz", nil)
	s.router.ServeHTTP(w, req)

	// Server hasn't called Run() so ready is false
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 (not ready), got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Route registration tests
// ---------------------------------------------------------------------------

func TestCoreRoutesRegistered(t *testing.T) {
	s := newTestServer(t)

	routes := s.router.Routes()
	expected := []string{
		"GET:/healthz",
		"GET:/livez",
		"GET:/readyz",
		"GET:/metrics",
		"POST:/v1/analyses",
		"GET:/v1/analyses/:id",
		"GET:/v1/analyses",
		"GET:/v1/budget",
	}

	routeSet := make(map[string]bool)
	for _, route := range routes {
		routeSet[route.Method+":"+route.Path] = true
	}

	for _, e := range expected {
		if !routeSet[e] {
			t.Errorf("Core route %s not registered", e)
		}
	}
}

// ---------------------------------------------------------------------------
// End-to-end analysis through the HTTP surface
// ---------------------------------------------------------------------------

func analysisPayload() map[string]interface{} {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	txns := make([]map[string]interface{}, 0, 12)
	for _, day := range []int{0, 14, 28, 34} {
		txns = append(txns, map[string]interface{}{
			"date":        base.AddDate(0, 0, day).Format("2006-01-02"),
			"description": "ACH DEPOSIT PAYROLL",
			"amount":      "3000.00",
		})
	}
	for i := 0; i < 8; i++ {
		txns = append(txns, map[string]interface{}{
			"date":        base.AddDate(0, 0, i*4+1).Format("2006-01-02"),
			"description": fmt.Sprintf("CARD PURCHASE %d", i),
			"amount":      "-120.00",
		})
	}
	return map[string]interface{}{
		"accountId":      "acct_e2e",
		"openingBalance": "5000.00",
		"businessName":   "E2E Test LLC",
		"taxId":          "12-3456789",
		"state":          "CA",
		"transactions":   txns,
	}
}

func TestAnalysisEndToEnd(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(analysisPayload())
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/analyses", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		Analysis struct {
			ID             string `json:"id"`
			AccountID      string `json:"accountId"`
			VeritasScore   int    `json:"veritasScore"`
			FinalScore     int    `json:"finalScore"`
			Recommendation string `json:"recommendation"`
		} `json:"analysis"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if created.Analysis.ID == "" {
		t.Error("Expected a generated analysis ID")
	}
	if created.Analysis.FinalScore < 300 || created.Analysis.FinalScore > 850 {
		t.Errorf("Final score %d outside the 300-850 range", created.Analysis.FinalScore)
	}
	if created.Analysis.Recommendation == "" {
		t.Error("Expected a recommendation")
	}

	// The created analysis must be retrievable.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/v1/analyses/"+created.Analysis.ID, nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 fetching created analysis, got %d", w.Code)
	}
}

func TestAnalysisValidationRejected(t *testing.T) {
	s := newTestServer(t)

	payload := analysisPayload()
	payload["taxId"] = "not-a-tax-id"
	body, _ := json.Marshal(payload)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/analyses", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid tax ID, got %d", w.Code)
	}
}

func TestBudgetEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/budget", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Budget struct {
			DailyCap string `json:"dailyCap"`
		} `json:"budget"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Budget.DailyCap != "200" {
		t.Errorf("Expected daily cap 200, got %q", resp.Budget.DailyCap)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthz", nil)
	s.router.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header to be set")
	}

	// Caller-supplied IDs are echoed back.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-abc-123")
	s.router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "req-abc-123" {
		t.Errorf("Expected echoed request ID, got %q", got)
	}
}
