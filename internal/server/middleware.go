// Request-scoped middleware: request IDs, access logging and CORS.

package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/maruel/ksid"
	"github.com/maruel/mdbooks/internal/server/ipgeo"
	"github.com/maruel/mdbooks/internal/server/reqctx"
	"github.com/maruel/mdbooks/internal/storage"
)

// statusWriter records the status code and size of a response.
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// withRequestLog assigns a request ID, stores the client metadata in the
// context and logs one line per request.
func withRequestLog(geo *ipgeo.Resolver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := ksid.NewID()
		ip := reqctx.GetClientIP(r)
		cc := geo.Country(ip)
		ctx := reqctx.WithRequestID(r.Context(), id)
		ctx = reqctx.WithClientIP(ctx, ip)
		ctx = reqctx.WithCountryCode(ctx, cc)
		w.Header().Set("X-Request-ID", id.String())

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r.WithContext(ctx))
		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		lvl := slog.LevelInfo
		if sw.status >= http.StatusInternalServerError {
			lvl = slog.LevelError
		}
		slog.Log(ctx, lvl, "http",
			"id", id.String(),
			"m", r.Method,
			"p", r.URL.Path,
			"s", sw.status,
			"b", sw.size,
			"d", time.Since(start).Round(time.Millisecond),
			"ip", ip,
			"cc", cc,
		)
	})
}

// withCORS answers preflight requests and sets the allow headers for origins
// permitted by cfg.
func withCORS(cfg *storage.CORS, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && cfg.Allows(origin) {
			h := w.Header()
			if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Expose-Headers", "ETag, X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", strings.Join([]string{
					http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPatch, http.MethodDelete,
				}, ", "))
				if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
					h.Set("Access-Control-Allow-Headers", rh)
				}
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
