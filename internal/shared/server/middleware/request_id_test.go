package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDReusesClientID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		header string
		reused bool
	}{
		{name: "client id", header: "abc-123", reused: true},
		{name: "missing", header: "", reused: false},
		{name: "too long", header: strings.Repeat("a", maxRequestIDLength+1), reused: false},
		{name: "control characters", header: "abc\x01def", reused: false},
		{name: "spaces inside", header: "abc def", reused: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestID())
			var seen string
			r.GET("/x", func(c *gin.Context) {
				seen = RequestIDFromContext(c)
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-Id", tt.header)
			}
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			if seen == "" || resp.Header().Get("X-Request-Id") != seen {
				t.Fatalf("expected id in context and header, got %q / %q", seen, resp.Header().Get("X-Request-Id"))
			}
			if got := seen == tt.header; got != tt.reused {
				t.Fatalf("reused=%v, want %v (id %q)", got, tt.reused, seen)
			}
		})
	}
}
