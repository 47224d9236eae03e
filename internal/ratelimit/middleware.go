package ratelimit

import (
	"context"
	"net"
	"net/http"

	"go.uber.org/zap"

	"Postline/internal/metrics"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, float64, error)
}

// Middleware rejects requests with 429 once the caller's bucket is empty.
// Buckets are keyed by prefix and client IP. A limiter error lets the
// request through.
func Middleware(l Limiter, prefix string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := prefix + ":" + clientIP(r)

			allowed, _, err := l.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				metrics.AuthRateLimited.Inc()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"detail":"Too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
