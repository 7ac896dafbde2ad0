package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/BradenHooton/supportportal/internal/auth"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultAuthRateLimit returns default rate limit config for auth endpoints (5 requests per minute)
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 5,
	}
}

// AuthenticatedRateLimitConfig holds per-caller limits for protected endpoints
type AuthenticatedRateLimitConfig struct {
	ReadOperationsPerMinute  int
	WriteOperationsPerMinute int
}

// DefaultAuthenticatedRateLimit returns 100 reads and 30 writes per minute
func DefaultAuthenticatedRateLimit() AuthenticatedRateLimitConfig {
	return AuthenticatedRateLimitConfig{
		ReadOperationsPerMinute:  100,
		WriteOperationsPerMinute: 30,
	}
}

// RateLimitByIP creates a middleware that rate limits requests by client IP.
// The client IP honours X-Forwarded-For only from trusted proxies.
func RateLimitByIP(config RateLimitConfig, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return "ip:" + pkghttp.ExtractClientIP(r, ipConfig), nil
		}),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

// RateLimitBySubject rate limits authenticated callers by token subject.
// operation is "read" or "write". Anonymous requests fall back to the
// client IP.
func RateLimitBySubject(config AuthenticatedRateLimitConfig, operation string, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	limit := config.ReadOperationsPerMinute
	if operation == "write" {
		limit = config.WriteOperationsPerMinute
	}

	return httprate.Limit(
		limit,
		1*time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if sc := auth.FromContext(r.Context()); sc != nil && sc.Subject != "" {
				return operation + ":subject:" + sc.Subject, nil
			}
			return operation + ":ip:" + pkghttp.ExtractClientIP(r, ipConfig), nil
		}),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

func rateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteTooManyRequests(w, "Rate limit exceeded")
}
