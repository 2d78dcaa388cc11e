package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// LoggingMiddleware logs each request with a request id, reusing the caller's
// X-Request-ID when present.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)

		log.Printf("→ [%s] %s %s", reqID, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
		log.Printf("← [%s] %s %s (%v)", reqID, r.Method, r.URL.Path, time.Since(start))
	})
}

// AuthMiddleware checks a bearer token on everything except the health check.
// An empty expectedToken disables auth (development mode).
func AuthMiddleware(expectedToken string) func(http.Handler) http.Handler {
	if expectedToken == "" {
		log.Println("⚠️  Warning: REST_API_AUTH_TOKEN not set - auth disabled")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expectedToken == "" || r.URL.Path == "/api/v1/health" {
				next.ServeHTTP(w, r)
				return
			}

			if r.Header.Get("Authorization") != "Bearer "+expectedToken {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
