package postal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neta-watch/ward-pulse/internal/domain/geo"
)

const successEnvelope = `[{
	"Message": "Number of pincode(s) found:1",
	"Status": "Success",
	"PostOffice": [{
		"Name": "Connaught Place",
		"Block": "New Delhi",
		"District": "Central Delhi",
		"Division": "New Delhi Central",
		"State": "Delhi",
		"Pincode": "110001"
	}]
}]`

const notFoundEnvelope = `[{"Message": "No records found", "Status": "Error", "PostOffice": null}]`

func testClient(baseURL string) *Client {
	cfg := DefaultClientConfig(baseURL)
	// Keep retries fast in tests.
	cfg.RetryConfig.MaxAttempts = 3
	cfg.RetryConfig.InitialDelay = time.Millisecond
	cfg.RetryConfig.MaxDelay = 5 * time.Millisecond
	cfg.RateLimiterConfig.RequestsPerSecond = 1000
	cfg.RateLimiterConfig.Burst = 1000
	return NewClient(cfg)
}

func TestLookup_ResolvesLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pincode/110001", r.URL.Path)
		fmt.Fprint(w, successEnvelope)
	}))
	defer srv.Close()

	loc, err := testClient(srv.URL).Lookup(context.Background(), "110001")
	require.NoError(t, err)

	assert.Equal(t, "Connaught Place", loc.Ward)
	// Block is preferred over District when present.
	assert.Equal(t, "New Delhi", loc.City)
	assert.Equal(t, "Delhi", loc.State)
}

func TestLookup_FallsBackToDistrictWhenBlockIsNA(t *testing.T) {
	envelope := `[{"Status": "Success", "PostOffice": [{
		"Name": "Fort", "Block": "NA", "District": "Mumbai", "State": "Maharashtra"
	}]}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, envelope)
	}))
	defer srv.Close()

	loc, err := testClient(srv.URL).Lookup(context.Background(), "400001")
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", loc.City)
}

func TestLookup_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, notFoundEnvelope)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Lookup(context.Background(), "000000")
	assert.ErrorIs(t, err, geo.ErrPincodeNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLookup_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, successEnvelope)
	}))
	defer srv.Close()

	loc, err := testClient(srv.URL).Lookup(context.Background(), "110001")
	require.NoError(t, err)
	assert.Equal(t, "Connaught Place", loc.Ward)
	assert.Equal(t, int32(3), calls.Load())
}

func TestLookup_ExhaustedRetriesReportUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Lookup(context.Background(), "110001")
	assert.ErrorIs(t, err, geo.ErrDirectoryUnavailable)
}

func TestLookup_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL)
	cfg.RetryConfig.MaxAttempts = 1
	cfg.RetryConfig.InitialDelay = time.Millisecond
	cfg.RateLimiterConfig.RequestsPerSecond = 1000
	cfg.RateLimiterConfig.Burst = 1000
	cfg.CircuitBreakerConfig.FailureThreshold = 2
	client := NewClient(cfg)

	for i := 0; i < 3; i++ {
		_, err := client.Lookup(context.Background(), "110001")
		assert.Error(t, err)
	}
	assert.NotEqual(t, "closed", client.BreakerState().String())
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{StatusCode: 502, Message: "bad gateway"}
	assert.Contains(t, err.Error(), "502")
}
