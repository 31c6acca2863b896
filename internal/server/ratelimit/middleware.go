// Response headers describing the caller's budget.

package ratelimit

import (
	"net/http"
	"strconv"
)

// WriteHeaders sets the X-RateLimit-* headers, plus Retry-After when denied.
func WriteHeaders(w http.ResponseWriter, res Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	if !res.Allowed {
		h.Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
	}
}

// BuildKey returns the bucket key for a client IP in a tier.
func BuildKey(ip, tier string) string {
	return "ip:" + ip + ":" + tier
}

// Middleware throttles requests according to cfg. clientIP extracts the key
// from the request; deny writes the 429 response.
func Middleware(cfg *Config, clientIP func(*http.Request) string, deny func(http.ResponseWriter, *http.Request, Result), next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tier := cfg.Match(r.Method, r.URL.Path)
		if tier == nil {
			next.ServeHTTP(w, r)
			return
		}
		res := tier.Limiter.Allow(BuildKey(clientIP(r), tier.Name))
		WriteHeaders(w, res)
		if !res.Allowed {
			deny(w, r, res)
			return
		}
		next.ServeHTTP(w, r)
	})
}
