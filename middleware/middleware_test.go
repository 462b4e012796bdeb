// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blessed-dialekt/calmunity/metrics"
	"github.com/blessed-dialekt/calmunity/models"
)

// captureLogs swaps the default logger for the duration of the test
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestWithLogging(t *testing.T) {
	logs := captureLogs(t)

	called := false
	handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"proposal_id":"p1"}`))
	})

	req := httptest.NewRequest("POST", "/proposals", nil)
	req.RemoteAddr = "203.0.113.9:4411"
	w := httptest.NewRecorder()
	handler(w, req)

	if !called {
		t.Fatal("Expected wrapped handler to run")
	}
	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if w.Body.String() != `{"proposal_id":"p1"}` {
		t.Errorf("Expected body to pass through, got %q", w.Body.String())
	}

	out := logs.String()
	for _, want := range []string{
		`msg="request started"`,
		`msg="request completed"`,
		"path=/proposals",
		"remote=203.0.113.9:4411",
		"duration_ms=",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       interface{}
		expected   string
	}{
		{"vote accepted", http.StatusOK, models.CastVoteResponse{Success: true}, `{"success":true}`},
		{"vote switched", http.StatusOK, models.CastVoteResponse{Success: true, Switched: true}, `{"success":true,"switched":true}`},
		{"proposal created", http.StatusCreated, models.CreateProposalResponse{ProposalID: "abc123"}, `{"proposal_id":"abc123"}`},
		{"no konfidence readings", http.StatusOK, models.RekommendationsResponse{Rekommendations: []models.Rekommendation{}}, `{"rekommendations":[],"average_konfidence":null}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSONResponse(w, tc.statusCode, tc.data)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}
			if body := strings.TrimSpace(w.Body.String()); body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	testCases := []struct {
		statusCode    int
		message       string
		expectedError string
	}{
		{http.StatusBadRequest, "konfidence must be between 0 and 100", "Bad Request"},
		{http.StatusUnauthorized, "invalid kalmitee key", "Unauthorized"},
		{http.StatusNotFound, "Proposal not found", "Not Found"},
		{http.StatusServiceUnavailable, "Dictionary not loaded", "Service Unavailable"},
	}

	for _, tc := range testCases {
		t.Run(tc.expectedError, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorResponse(w, tc.statusCode, tc.message)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error != tc.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectedError, resp.Error)
			}
			if resp.Message != tc.message {
				t.Errorf("Expected message '%s', got '%s'", tc.message, resp.Message)
			}
		})
	}
}

func TestErrorWithMessage(t *testing.T) {
	testCases := []struct {
		name      string
		status    int
		errorText string
		message   string
		expected  string
	}{
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			errorText: "Rate limited",
			message:   "Too many votes recently. Please wait a few minutes.",
			expected:  `{"error":"Rate limited","message":"Too many votes recently. Please wait a few minutes."}`,
		},
		{
			name:      "already voted",
			status:    http.StatusConflict,
			errorText: "Already voted",
			message:   "You've already affirmed on this proposal",
			expected:  `{"error":"Already voted","message":"You've already affirmed on this proposal"}`,
		},
		{
			name:      "message omitted when empty",
			status:    http.StatusBadRequest,
			errorText: "Missing required fields",
			expected:  `{"error":"Missing required fields"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorWithMessage(w, tc.status, tc.errorText, tc.message)

			if w.Code != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, w.Code)
			}
			if body := strings.TrimSpace(w.Body.String()); body != tc.expected {
				t.Errorf("Expected body %s, got %s", tc.expected, body)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("vote without browser fingerprint", func(t *testing.T) {
		body := `{"proposal_id":"p1","vote_type":"affirm","voter_fingerprint":"fp"}`
		req := httptest.NewRequest("POST", "/vote", strings.NewReader(body))

		var parsed models.CastVoteRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.ProposalID != "p1" || parsed.VoteType != "affirm" || parsed.VoterFingerprint != "fp" {
			t.Errorf("Unexpected parse result: %+v", parsed)
		}
		if parsed.BrowserFingerprint != "" {
			t.Errorf("Expected empty browser_fingerprint, got '%s'", parsed.BrowserFingerprint)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		for _, body := range []string{`{invalid json}`, ``, `{"proposal_id":`} {
			req := httptest.NewRequest("POST", "/vote", strings.NewReader(body))
			var parsed models.CastVoteRequest
			if err := ParseJSONBody(req, &parsed); err == nil {
				t.Errorf("Expected error for body %q", body)
			}
		}
	})

	t.Run("optional notes pointer", func(t *testing.T) {
		req := httptest.NewRequest("PUT", "/", strings.NewReader(`{"konfidence":55,"notes":"solid"}`))
		var parsed models.SubmitRekommendationRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.Konfidence == nil || *parsed.Konfidence != 55 || parsed.Notes == nil || *parsed.Notes != "solid" {
			t.Errorf("Unexpected parse result: %+v", parsed)
		}
	})

	t.Run("body is consumed", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", io.NopCloser(strings.NewReader(`{"title":"T","body":"B"}`)))
		var parsed models.CreateProposalRequest
		_ = ParseJSONBody(req, &parsed)

		remaining, _ := io.ReadAll(req.Body)
		if len(remaining) > 0 {
			t.Errorf("Expected body to be consumed, %d bytes left", len(remaining))
		}
	})
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("handled"))
	})
	handler := CORS(next)

	t.Run("preflight returns empty 200", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/vote", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.Len() != 0 {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Errorf("Expected origin to be reflected, got '%s'", got)
		}

		headers := w.Header().Get("Access-Control-Allow-Headers")
		for _, h := range []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type", "X-Kalmitee-Member", "X-Kalmitee-Key"} {
			if !strings.Contains(headers, h) {
				t.Errorf("Expected %s in allowed headers", h)
			}
		}
		methods := w.Header().Get("Access-Control-Allow-Methods")
		for _, m := range []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"} {
			if !strings.Contains(methods, m) {
				t.Errorf("Expected %s in allowed methods", m)
			}
		}
	})

	t.Run("non-preflight reaches handler", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/vote", nil))

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Expected wildcard origin without Origin header, got '%s'", got)
		}
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expectedIP string
	}{
		{
			name:       "first X-Forwarded-For hop",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18, 150.172.238.178"},
			remoteAddr: "127.0.0.1:12345",
			expectedIP: "203.0.113.195",
		},
		{
			name:       "X-Forwarded-For beats the other headers",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.100", "CF-Connecting-IP": "198.51.100.7", "X-Real-IP": "203.0.113.50"},
			remoteAddr: "10.0.0.1:12345",
			expectedIP: "192.168.1.100",
		},
		{
			name:       "CF-Connecting-IP beats X-Real-IP",
			headers:    map[string]string{"CF-Connecting-IP": "198.51.100.7", "X-Real-IP": "203.0.113.50"},
			remoteAddr: "10.0.0.1:12345",
			expectedIP: "198.51.100.7",
		},
		{
			name:       "X-Real-IP beats RemoteAddr",
			headers:    map[string]string{"X-Real-IP": "203.0.113.50"},
			remoteAddr: "10.0.0.1:12345",
			expectedIP: "203.0.113.50",
		},
		{
			name:       "blank leading hop falls through",
			headers:    map[string]string{"X-Forwarded-For": " , 70.41.3.18", "X-Real-IP": "203.0.113.50"},
			remoteAddr: "10.0.0.1:12345",
			expectedIP: "203.0.113.50",
		},
		{
			name:       "IPv6 RemoteAddr has its port stripped",
			remoteAddr: "[2001:db8::1]:12345",
			expectedIP: "2001:db8::1",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.50",
			expectedIP: "192.168.1.50",
		},
		{
			name:       "nothing available",
			remoteAddr: "",
			expectedIP: UnknownClient,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/vote", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if got := GetClientIP(req); got != tc.expectedIP {
				t.Errorf("Expected IP '%s', got '%s'", tc.expectedIP, got)
			}
		})
	}
}

func TestWithMetrics(t *testing.T) {
	m := metrics.New()
	handler := WithMetrics(m, "GET /proposals/{id}", func(w http.ResponseWriter, r *http.Request) {
		ErrorWithMessage(w, http.StatusNotFound, "Proposal not found", "")
	})

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/proposals/"+id, nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", w.Code)
		}
	}

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest("GET", "/metrics", nil))
	want := `calmunity_http_requests_total{method="GET",route="GET /proposals/{id}",status="404"} 2`
	if !strings.Contains(scrape.Body.String(), want) {
		t.Errorf("Expected both requests under the route pattern, scrape:\n%s", scrape.Body.String())
	}
}

func TestWithMetricsNil(t *testing.T) {
	called := false
	handler := WithMetrics(nil, "/health", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	handler(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))
	if !called {
		t.Error("Expected handler to run without metrics")
	}
}
