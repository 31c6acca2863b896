// Package server implements the HTTP server and routing logic.
package server

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/maruel/mdbooks/internal/server/handlers"
	"github.com/maruel/mdbooks/internal/server/ipgeo"
	"github.com/maruel/mdbooks/internal/server/ratelimit"
	"github.com/maruel/mdbooks/internal/server/reqctx"
	"github.com/maruel/mdbooks/internal/storage"
	"github.com/maruel/mdbooks/internal/storage/books"
)

// Config holds everything the router needs besides the engine.
type Config struct {
	storage.ServerConfig
	Version string
	IPGeo   *ipgeo.Resolver // may be nil
}

// Router is the root HTTP handler. Close it to stop the rate limiters.
type Router struct {
	handler http.Handler
	limits  *ratelimit.Config
}

// NewRouter wires every route over engine.
func NewRouter(engine *books.Engine, cfg *Config) *Router {
	maxBody := cfg.Limits.MaxRequestBodyBytes
	mux := &http.ServeMux{}
	hh := handlers.NewHealthHandler(cfg.Version)
	bh := handlers.NewBookHandler(engine)
	rh := handlers.NewRawHandler(engine)

	mux.Handle("GET /api/health", Wrap(hh.Health, maxBody))

	// Books
	mux.Handle("POST /book/create", Wrap(bh.CreateBook, maxBody))
	mux.Handle("GET /book/all", Wrap(bh.ListBooks, maxBody))
	mux.Handle("GET /book/{bookSlug}", Wrap(bh.GetBook, maxBody))
	mux.Handle("DELETE /book/{bookSlug}/deleteBook", Wrap(bh.DeleteBook, maxBody))

	// Pages
	mux.Handle("POST /book/{bookSlug}/createPage", Wrap(bh.CreatePage, maxBody))
	mux.Handle("GET /book/{bookSlug}/{pageSlug}", Wrap(bh.GetPage, maxBody))
	mux.HandleFunc("GET /book/{bookSlug}/{pageSlug}/raw", rh.Page)
	mux.Handle("PATCH /book/{bookSlug}/{pageSlug}/edit", Wrap(bh.EditPage, maxBody))
	mux.Handle("PATCH /book/{bookSlug}/{pageSlug}/switch", Wrap(bh.SwitchPage, maxBody))
	mux.Handle("DELETE /book/{bookSlug}/{pageSlug}/delete", Wrap(bh.DeletePage, maxBody))

	// Sub-pages
	mux.Handle("POST /book/{bookSlug}/{pageSlug}/createSubPage", Wrap(bh.CreateSubPage, maxBody))
	mux.Handle("GET /book/{bookSlug}/{pageSlug}/{subPageSlug}", Wrap(bh.GetSubPage, maxBody))
	mux.HandleFunc("GET /book/{bookSlug}/{pageSlug}/{subPageSlug}/raw", rh.SubPage)
	mux.Handle("PATCH /book/{bookSlug}/{pageSlug}/{subPageSlug}/edit", Wrap(bh.EditSubPage, maxBody))
	mux.Handle("PATCH /book/{bookSlug}/{pageSlug}/{subPageSlug}/switch", Wrap(bh.SwitchSubPage, maxBody))
	mux.Handle("DELETE /book/{bookSlug}/{pageSlug}/{subPageSlug}/delete", Wrap(bh.DeleteSubPage, maxBody))

	limits := ratelimit.NewConfig(cfg.RateLimits.WriteRatePerMin, cfg.RateLimits.ReadRatePerMin)
	clientIP := func(r *http.Request) string {
		if ip := reqctx.ClientIP(r.Context()); ip != "" {
			return ip
		}
		return reqctx.GetClientIP(r)
	}
	var h http.Handler = gzhttp.GzipHandler(mux)
	h = ratelimit.Middleware(limits, clientIP, writeRateLimitError, h)
	h = withCORS(&cfg.CORS, h)
	h = withRequestLog(cfg.IPGeo, h)
	return &Router{handler: h, limits: limits}
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.handler.ServeHTTP(w, r)
}

// Close stops background work.
func (rt *Router) Close() {
	rt.limits.Close()
}
