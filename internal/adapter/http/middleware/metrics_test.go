package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		statusCode int
	}{
		{
			name:       "normalizes loan path",
			method:     http.MethodGet,
			path:       "/api/v1/loans/01JX2Y3Z",
			statusCode: http.StatusTeapot,
		},
		{
			name:       "keeps non-matching path as-is",
			method:     http.MethodPost,
			path:       "/health",
			statusCode: http.StatusCreated,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			httpRequestsTotal.Reset()
			httpRequestDuration.Reset()
			httpRequestsInFlight.Set(0)

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(tc.statusCode)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()

			Metrics(next).ServeHTTP(rr, req)

			if !handlerCalled {
				t.Fatalf("next handler was not invoked")
			}

			if got := testutil.ToFloat64(httpRequestsInFlight); got != 0 {
				t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
			}

			normalized := normalizePath(tc.path)
			counter := httpRequestsTotal.WithLabelValues(tc.method, normalized, strconv.Itoa(tc.statusCode))
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected counter to be 1, got %v", got)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "account path",
			input:    "/api/v1/accounts/1001",
			expected: "/api/v1/accounts/:code",
		},
		{
			name:     "account path with suffix",
			input:    "/api/v1/accounts/1001/entries",
			expected: "/api/v1/accounts/:code/entries",
		},
		{
			name:     "loan schedule path",
			input:    "/api/v1/loans/01JX2Y3Z/schedule",
			expected: "/api/v1/loans/:id/schedule",
		},
		{
			name:     "journal entry path",
			input:    "/api/v1/journal/entries/DEP-001",
			expected: "/api/v1/journal/entries/:reference",
		},
		{
			name:     "reversal path",
			input:    "/api/v1/journal/entries/DEP-001/reverse",
			expected: "/api/v1/journal/entries/:reference/reverse",
		},
		{
			name:     "reconciliation loan path",
			input:    "/api/v1/ledger/loans/01JX2Y3Z",
			expected: "/api/v1/ledger/loans/:id",
		},
		{
			name:     "collection path untouched",
			input:    "/api/v1/loans",
			expected: "/api/v1/loans",
		},
		{
			name:     "health path untouched",
			input:    "/health",
			expected: "/health",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizePath(tc.input); got != tc.expected {
				t.Fatalf("normalizePath(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}
