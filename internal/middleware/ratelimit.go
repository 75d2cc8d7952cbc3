package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"dscatalog/internal/metrics"
	"dscatalog/internal/ratelimit"
)

const tokenEndpointPath = "/oauth/token"

// RateLimitMiddleware applies a per-client budget, with a stricter one on the
// token endpoint. A limiter that errors lets the request through.
type RateLimitMiddleware struct {
	general ratelimit.Limiter
	auth    ratelimit.Limiter
	metrics *metrics.Metrics
}

func NewRateLimitMiddleware(general ratelimit.Limiter, auth ratelimit.Limiter, m *metrics.Metrics) *RateLimitMiddleware {
	return &RateLimitMiddleware{general: general, auth: auth, metrics: m}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket, limiter := "general", m.general
		if strings.HasPrefix(requestPath(r), tokenEndpointPath) {
			bucket, limiter = "auth", m.auth
		}
		if limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := extractClientIP(r)
		res, err := limiter.Allow(r.Context(), bucket+":"+clientIP)
		if err != nil {
			slog.Warn("rate limiter unavailable; allowing request", "bucket", bucket, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if !res.Allowed {
			m.metrics.RateLimited(bucket)
			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeErrorEnvelope(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractClientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
