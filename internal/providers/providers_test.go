package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddeskVerifyBusiness(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/businesses", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme LLC", body["name"])

		verified := true
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "completed",
			"name":   "ACME LLC",
			"review": map[string]any{"verified": verified},
		})
	}))
	defer srv.Close()

	client := NewMiddeskClient(srv.URL, "test-key")
	result, err := client.VerifyBusiness(context.Background(), Subject{
		BusinessName: "Acme LLC",
		TaxID:        "12-3456789",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Verified)
	assert.True(t, *result.Verified)
	assert.Equal(t, "completed", result.Status)
}

func TestMiddeskClientErrorIsPermanent(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewMiddeskClient(srv.URL, "test-key")
	_, err := client.VerifyBusiness(context.Background(), Subject{BusinessName: "Acme LLC"})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "4xx responses must not be retried")
}

func TestMiddeskServerErrorRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "completed"})
	}))
	defer srv.Close()

	client := NewMiddeskClient(srv.URL, "test-key")
	result, err := client.VerifyBusiness(context.Background(), Subject{BusinessName: "Acme LLC"})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Nil(t, result.Verified, "no determination when review is absent")
}

func TestMiddeskRequiresIdentity(t *testing.T) {
	client := NewMiddeskClient("http://unused", "key")
	_, err := client.VerifyBusiness(context.Background(), Subject{})
	assert.True(t, errors.Is(err, ErrSubjectIncomplete))
}

func TestISoftpullCheckCredit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/pulls", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		_ = json.NewEncoder(w).Encode(map[string]any{"score": 712, "bureau": "experian"})
	}))
	defer srv.Close()

	client := NewISoftpullClient(srv.URL, "test-key")
	report, err := client.CheckCredit(context.Background(), Subject{SSN: "123-45-6789"})
	require.NoError(t, err)
	assert.Equal(t, 712, report.Score)
	assert.Equal(t, "experian", report.Bureau)
}

func TestISoftpullRejectsOutOfRangeScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"score": 9999})
	}))
	defer srv.Close()

	client := NewISoftpullClient(srv.URL, "test-key")
	_, err := client.CheckCredit(context.Background(), Subject{SSN: "123-45-6789"})
	require.Error(t, err)
}

func TestSOSNotFoundIsDetermination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewSOSClient(srv.URL, "test-key")
	check, err := client.VerifyRegistration(context.Background(), Subject{BusinessName: "Acme LLC"})
	require.NoError(t, err)
	assert.Equal(t, "NOT_FOUND", check.Status)
}

func TestSOSActiveRegistration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Acme LLC", r.URL.Query().Get("name"))
		assert.Equal(t, "DE", r.URL.Query().Get("state"))
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "active", "jurisdiction": "DE"})
	}))
	defer srv.Close()

	client := NewSOSClient(srv.URL, "test-key")
	check, err := client.VerifyRegistration(context.Background(), Subject{BusinessName: "Acme LLC", State: "DE"})
	require.NoError(t, err)
	assert.Equal(t, RegistrationActive, check.Status)
	assert.Equal(t, "DE", check.Jurisdiction)
}

func TestStubDeterminism(t *testing.T) {
	set := StubSet()
	sub := Subject{BusinessName: "Acme LLC", TaxID: "12-3456789", SSN: "123-45-6789"}

	first, err := set.Credit.CheckCredit(context.Background(), sub)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := set.Credit.CheckCredit(context.Background(), sub)
		require.NoError(t, err)
		assert.Equal(t, first.Score, again.Score)
	}

	v1, err := set.Business.VerifyBusiness(context.Background(), sub)
	require.NoError(t, err)
	v2, err := set.Business.VerifyBusiness(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, *v1.Verified, *v2.Verified)
}

func TestBreakerShedsAfterRepeatedFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewMiddeskClient(srv.URL, "test-key")
	sub := Subject{BusinessName: "Acme LLC"}

	for i := 0; i < 5; i++ {
		_, err := client.VerifyBusiness(context.Background(), sub)
		require.Error(t, err)
	}
	require.Equal(t, 5, calls)

	// Circuit is open now: the next call must fail fast without a request.
	_, err := client.VerifyBusiness(context.Background(), sub)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 5, calls)
}

func TestBreakerRecoversAfterSuccess(t *testing.T) {
	g := newGuard("test")
	boom := errors.New("boom")

	for i := 0; i < 4; i++ {
		require.Error(t, g.do(func() error { return boom }))
	}
	// One success under threshold resets the failure count.
	require.NoError(t, g.do(func() error { return nil }))
	for i := 0; i < 4; i++ {
		require.Error(t, g.do(func() error { return boom }))
	}
	require.NoError(t, g.do(func() error { return nil }))
}
