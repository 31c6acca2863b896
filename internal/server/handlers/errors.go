// Maps store failures to API errors.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/maruel/mdbooks/internal/server/dto"
	"github.com/maruel/mdbooks/internal/storage/books"
)

// toAPIError converts an engine error into an APIError carrying the matching
// status code and the slugs involved.
func toAPIError(err error) error {
	if err == nil {
		return nil
	}
	var be *books.Error
	if !errors.As(err, &be) {
		return dto.InternalWithError("internal error", err)
	}
	var apiErr *dto.APIError
	switch be.Kind {
	case books.KindValidation:
		apiErr = dto.BadRequest(be.Msg)
	case books.KindConflict:
		apiErr = dto.Conflict(be.Msg)
	case books.KindNotFound:
		apiErr = dto.NewAPIError(http.StatusNotFound, dto.ErrorCodeNotFound, be.Msg)
	case books.KindCorrupt:
		apiErr = dto.CorruptIndex(be.Book).Wrap(be.Err)
	default:
		return dto.InternalWithError("internal error", err)
	}
	if be.Book != "" {
		apiErr.WithDetail("book", be.Book)
	}
	if be.Page != "" {
		apiErr.WithDetail("page", be.Page)
	}
	if be.SubPage != "" {
		apiErr.WithDetail("subpage", be.SubPage)
	}
	return apiErr
}

// writeErrorResponse writes err as a JSON error body. Use this in raw
// handlers that don't go through server.Wrap.
func writeErrorResponse(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	code := dto.ErrorCodeInternal
	message := "internal error"
	var details map[string]any

	var ews dto.ErrorWithStatus
	if errors.As(err, &ews) {
		statusCode = ews.StatusCode()
		code = ews.Code()
		message = ews.Error()
		details = ews.Details()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := dto.ErrorResponse{Error: dto.ErrorDetails{Code: code, Message: message}, Details: details}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode error response", "err", err)
	}
}
