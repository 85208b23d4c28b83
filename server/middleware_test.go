package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRealIPMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{"single forwarded ip", map[string]string{"X-Forwarded-For": "203.0.113.1"}, "192.168.1.1:12345", "203.0.113.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": " 203.0.113.1 , 10.0.0.1"}, "192.168.1.1:12345", "203.0.113.1"},
		{"real ip header", map[string]string{"X-Real-IP": "198.51.100.7"}, "192.168.1.1:12345", "198.51.100.7"},
		{"no proxy headers", nil, "192.168.1.1:12345", "192.168.1.1:12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			var seen string
			handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.RemoteAddr
			}))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if seen != tt.expected {
				t.Errorf("Expected RemoteAddr %q, got %q", tt.expected, seen)
			}
		})
	}
}

func TestBlockDirectAccessMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		header     string
		expected   int
	}{
		{"localhost ipv4", "127.0.0.1:12345", "", http.StatusOK},
		{"localhost ipv6", "[::1]:12345", "", http.StatusOK},
		{"direct ip", "203.0.113.5:12345", "", http.StatusForbidden},
		{"via proxy forwarded", "203.0.113.5:12345", "X-Forwarded-For", http.StatusOK},
		{"via proxy real ip", "203.0.113.5:12345", "X-Real-IP", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.header != "" {
				req.Header.Set(tt.header, "198.51.100.7")
			}

			rr := httptest.NewRecorder()
			handler := BlockDirectAccessMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, rr.Code)
			}
		})
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	const maxBody, maxHeader = 1024, 256

	tests := []struct {
		name          string
		contentLength int64
		header        string
		expected      int
	}{
		{"within limits", 100, "", http.StatusOK},
		{"exactly max body", maxBody, "", http.StatusOK},
		{"body too large", maxBody + 1, "", http.StatusRequestEntityTooLarge},
		{"unknown length", -1, "", http.StatusOK},
		{"headers too large", 10, strings.Repeat("x", maxHeader+1), http.StatusRequestHeaderFieldsTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/report", strings.NewReader("{}"))
			req.ContentLength = tt.contentLength
			if tt.header != "" {
				req.Header.Set("X-Padding", tt.header)
			}

			rr := httptest.NewRecorder()
			handler := RequestSizeMiddleware(maxBody, maxHeader)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, rr.Code)
			}
			if tt.expected != http.StatusOK {
				var body map[string]any
				if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
					t.Fatalf("Expected JSON error body, got %v", err)
				}
				if body["code"] != float64(tt.expected) {
					t.Errorf("Expected code %d, got %v", tt.expected, body["code"])
				}
			}
		})
	}
}

func TestRequestSizeMiddlewareCapsStreamedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/report", strings.NewReader(strings.Repeat("a", 64)))
	req.ContentLength = -1

	var readErr error
	handler := RequestSizeMiddleware(16, 1024)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var maxBytes *http.MaxBytesError
	if !errors.As(readErr, &maxBytes) {
		t.Errorf("Expected MaxBytesError while reading, got %v", readErr)
	}
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		remoteAddr string
		expected   string
	}{
		{"192.168.1.1:12345", "192.168.1.1"},
		{"[::1]:8000", "::1"},
		{"203.0.113.1", "203.0.113.1"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remoteAddr
		if got := clientAddr(req); got != tt.expected {
			t.Errorf("Expected %q for %q, got %q", tt.expected, tt.remoteAddr, got)
		}
	}
}
