package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{"remote addr only", "203.0.113.7:4567", "", "", "203.0.113.7"},
		{"forwarded single", "10.0.0.1:1234", "198.51.100.9", "", "198.51.100.9"},
		{"forwarded chain uses rightmost", "10.0.0.1:1234", "1.2.3.4, 198.51.100.9", "", "198.51.100.9"},
		{"forwarded garbage falls through", "10.0.0.1:1234", "not-an-ip", "192.0.2.5", "192.0.2.5"},
		{"real ip fallback", "10.0.0.1:1234", "", "192.0.2.5", "192.0.2.5"},
		{"bare remote addr", "203.0.113.7", "", "", "203.0.113.7"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := ClientIP(req); got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}
