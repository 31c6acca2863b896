// Serves page content as its own media type.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/maruel/mdbooks/internal/storage/books"
	"github.com/zeebo/xxh3"
)

// RawHandler serves a node's content file with its media type and an ETag.
type RawHandler struct {
	engine *books.Engine
}

// NewRawHandler creates a new raw content handler.
func NewRawHandler(engine *books.Engine) *RawHandler {
	return &RawHandler{engine: engine}
}

// Page serves GET /book/{bookSlug}/{pageSlug}/raw.
func (h *RawHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context) (*books.Content, error) {
		return h.engine.GetPageContent(ctx, r.PathValue("bookSlug"), r.PathValue("pageSlug"))
	})
}

// SubPage serves GET /book/{bookSlug}/{pageSlug}/{subPageSlug}/raw.
func (h *RawHandler) SubPage(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context) (*books.Content, error) {
		return h.engine.GetSubPageContent(ctx, r.PathValue("bookSlug"), r.PathValue("pageSlug"), r.PathValue("subPageSlug"))
	})
}

func (h *RawHandler) serve(w http.ResponseWriter, r *http.Request, get func(context.Context) (*books.Content, error)) {
	c, err := get(r.Context())
	if err != nil {
		writeErrorResponse(w, toAPIError(err))
		return
	}
	tag := etag(c.Body)
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", c.Format.ContentType())
	if _, err := w.Write([]byte(c.Body)); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write content", "err", err)
	}
}

// etag returns a strong validator for body.
func etag(body string) string {
	return `"` + strconv.FormatUint(xxh3.HashString(body), 16) + `"`
}
