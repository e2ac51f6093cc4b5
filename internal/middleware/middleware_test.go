package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/state", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":           "no-store",
	}
	for header, value := range want {
		if got := w.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		wantStatus  int
	}{
		{name: "GET ignored", method: "GET", wantStatus: http.StatusOK},
		{name: "POST without body", method: "POST", wantStatus: http.StatusOK},
		{name: "POST json", method: "POST", body: `{}`, contentType: "application/json", wantStatus: http.StatusOK},
		{name: "PUT json with charset", method: "PUT", body: `{}`, contentType: "application/json; charset=utf-8", wantStatus: http.StatusOK},
		{name: "POST missing header", method: "POST", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "POST form", method: "POST", body: "a=b", contentType: "application/x-www-form-urlencoded", wantStatus: http.StatusUnsupportedMediaType},
		{name: "PUT json lookalike", method: "PUT", body: `{}`, contentType: "application/jsonx", wantStatus: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/api/v1/settings", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			ContentType(okHandler).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	readAll := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		for {
			_, err := r.Body.Read(buf)
			if err != nil {
				if errors.Is(err, io.EOF) {
					w.WriteHeader(http.StatusOK)
					return
				}
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
		}
	})

	small := httptest.NewRecorder()
	MaxRequestSize(16)(readAll).ServeHTTP(small, httptest.NewRequest("POST", "/", strings.NewReader("tiny")))
	if small.Code != http.StatusOK {
		t.Errorf("Expected small body to pass, got %d", small.Code)
	}

	large := httptest.NewRecorder()
	MaxRequestSize(16)(readAll).ServeHTTP(large, httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 64))))
	if large.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413 for large body, got %d", large.Code)
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	w := httptest.NewRecorder()
	Timeout(10*time.Millisecond)(slow).ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/check", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 on timeout, got %d", w.Code)
	}
}

func TestParseOrigins(t *testing.T) {
	t.Parallel()

	got := ParseOrigins(" http://a.test , ,http://b.test,")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("ParseOrigins() = %v", got)
	}
	if ParseOrigins("") != nil {
		t.Error("Expected nil for empty input")
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"http://panel.test"}, zap.NewNop())(okHandler)

	preflight := httptest.NewRequest(http.MethodOptions, "/api/v1/settings", nil)
	preflight.Header.Set("Origin", "http://panel.test")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, preflight)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://panel.test" {
		t.Errorf("Expected allowed origin echoed, got %q", got)
	}

	other := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	other.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, other)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for unknown origin, got %q", got)
	}
}

func TestRateLimit_Memory(t *testing.T) {
	t.Parallel()

	mw, err := RateLimit("2-M", nil, zap.NewNop())
	if err != nil {
		t.Fatalf("RateLimit() error = %v", err)
	}
	handler := mw(okHandler)

	statuses := make([]int, 0, 4)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/v1/tasks", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}

	req := httptest.NewRequest("GET", "/api/v1/tasks", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	statuses = append(statuses, w.Code)

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusOK}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("statuses = %v, want %v", statuses, want)
		}
	}
}

func TestRateLimit_InvalidRate(t *testing.T) {
	t.Parallel()

	if _, err := RateLimit("lots", nil, zap.NewNop()); err == nil {
		t.Error("Expected error for malformed rate")
	}
}
