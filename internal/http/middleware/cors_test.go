package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCORSOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	configured := []string{"https://reports.example.com"}
	cases := []struct {
		name    string
		origins []string
		origin  string
		allowed bool
	}{
		{"dev vite", nil, "http://localhost:5173", true},
		{"dev loopback", nil, "http://127.0.0.1:3000", true},
		{"unknown with defaults", nil, "https://evil.example.com", false},
		{"configured", configured, "https://reports.example.com", true},
		{"defaults dropped when configured", configured, "http://localhost:5173", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tc.origins))
			r.POST("/api/reports", func(c *gin.Context) { c.Status(http.StatusAccepted) })

			req := httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tc.allowed && got != tc.origin {
				t.Fatalf("allow-origin: want=%q got=%q (status %d)", tc.origin, got, rec.Code)
			}
			if !tc.allowed && got != "" {
				t.Fatalf("origin %q unexpectedly allowed", tc.origin)
			}
		})
	}
}
