package middleware

import (
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitConfig bounds requests per client IP
type RateLimitConfig struct {
	RequestsPerMinute int
	IPConfig          *pkghttp.IPConfig
}

// RateLimitByIP limits requests per client IP. The key honours trusted proxies
// the same way audit logging does, so a spoofed X-Forwarded-For from an
// untrusted peer does not buy a fresh bucket.
func RateLimitByIP(config RateLimitConfig) func(http.Handler) http.Handler {
	if config.RequestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, config.IPConfig), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "too many requests, please try again later")
		}),
	)
}
