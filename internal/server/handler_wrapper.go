// Adapts typed handler functions to http.Handler.

package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"fmt"
	"log/slog"
	"maps"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/maruel/mdbooks/internal/server/dto"
	"github.com/maruel/mdbooks/internal/server/ratelimit"
)

// Wrap turns fn into an http.Handler. The request body is decoded as JSON,
// or as a form when sent as application/x-www-form-urlencoded, into a new In, path values fill fields tagged `path:"name"`, then Validate
// runs before fn. maxBody caps the body size when positive.
func Wrap[In any, PtrIn interface {
	*In
	dto.Validatable
}, Out any](fn func(context.Context, PtrIn) (*Out, error), maxBody int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		input := new(In)
		if !readAndDecodeBody(ctx, w, r, input, maxBody) {
			return
		}
		populatePathParams(r, input)
		if err := PtrIn(input).Validate(); err != nil {
			handleValidationError(ctx, w, err)
			return
		}
		output, err := fn(ctx, PtrIn(input))
		writeJSONResponse(ctx, w, output, err)
	})
}

// readAndDecodeBody decodes the request body into input. It returns false
// after writing an error response.
func readAndDecodeBody[In any](ctx context.Context, w http.ResponseWriter, r *http.Request, input *In, maxBody int64) bool {
	if maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	}
	body, err := io.ReadAll(r.Body)
	if err2 := r.Body.Close(); err == nil {
		err = err2
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeAPIError(w, dto.PayloadTooLarge(maxErr.Limit))
			return false
		}
		slog.ErrorContext(ctx, "Failed to read request body", "err", err)
		writeAPIError(w, dto.BadRequest("failed to read request body"))
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if isFormBody(r) {
		values, err := url.ParseQuery(string(body))
		if err == nil {
			err = populateFormFields(values, input)
		}
		if err != nil {
			slog.WarnContext(ctx, "Failed to decode form body", "err", err)
			writeAPIError(w, dto.BadRequest("invalid request body"))
			return false
		}
		return true
	}
	d := json.NewDecoder(bytes.NewReader(body))
	d.DisallowUnknownFields()
	if err := d.Decode(input); err != nil {
		slog.WarnContext(ctx, "Failed to decode request body", "err", err)
		writeAPIError(w, dto.BadRequest("invalid request body"))
		return false
	}
	return true
}

// writeJSONResponse writes output, or err as an error response.
func writeJSONResponse[Out any](ctx context.Context, w http.ResponseWriter, output *Out, err error) {
	if err != nil {
		statusCode := http.StatusInternalServerError
		code := dto.ErrorCodeInternal
		var details map[string]any
		var ews dto.ErrorWithStatus
		if errors.As(err, &ews) {
			statusCode = ews.StatusCode()
			code = ews.Code()
			details = ews.Details()
		}
		if statusCode >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "Handler error", "err", err, "statusCode", statusCode, "code", code)
		} else {
			slog.InfoContext(ctx, "Handler rejected request", "err", err, "statusCode", statusCode, "code", code)
		}
		writeErrorResponseWithCode(w, statusCode, code, err.Error(), details)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(output); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "err", err)
	}
}

func isFormBody(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/x-www-form-urlencoded"
}

// populateFormFields copies form values into the string and *string fields
// named by their json tag. Unknown keys are rejected like unknown JSON fields.
func populateFormFields(values url.Values, input any) error {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return errors.New("form body not supported")
	}
	elem := val.Elem()
	typ := elem.Type()
	fields := map[string]int{}
	for i := range typ.NumField() {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			fields[name] = i
		}
	}
	for _, key := range slices.Sorted(maps.Keys(values)) {
		i, ok := fields[key]
		if !ok {
			return fmt.Errorf("unknown field %q", key)
		}
		v := values.Get(key)
		f := elem.Field(i)
		switch {
		case f.Kind() == reflect.String:
			f.SetString(v)
		case f.Kind() == reflect.Pointer && f.Type().Elem().Kind() == reflect.String:
			f.Set(reflect.ValueOf(&v))
		default:
			return fmt.Errorf("field %q cannot be set from a form", key)
		}
	}
	return nil
}

// populatePathParams copies path values into string fields tagged
// `path:"name"`.
func populatePathParams(r *http.Request, input any) {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return
	}
	elem := val.Elem()
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("path")
		if tag == "" || field.Type.Kind() != reflect.String {
			continue
		}
		if v := r.PathValue(tag); v != "" {
			elem.Field(i).SetString(v)
		}
	}
}

// handleValidationError writes the error returned by a request's Validate.
func handleValidationError(ctx context.Context, w http.ResponseWriter, err error) {
	statusCode := http.StatusBadRequest
	code := dto.ErrorCodeValidationFailed
	var details map[string]any
	var ews dto.ErrorWithStatus
	if errors.As(err, &ews) {
		statusCode = ews.StatusCode()
		code = ews.Code()
		details = ews.Details()
	}
	slog.InfoContext(ctx, "Validation error", "err", err, "statusCode", statusCode, "code", code)
	writeErrorResponseWithCode(w, statusCode, code, err.Error(), details)
}

func writeAPIError(w http.ResponseWriter, e *dto.APIError) {
	writeErrorResponseWithCode(w, e.StatusCode(), e.Code(), e.Error(), e.Details())
}

// writeErrorResponseWithCode writes the standard JSON error body.
func writeErrorResponseWithCode(w http.ResponseWriter, statusCode int, code dto.ErrorCode, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := dto.ErrorResponse{
		Error:   dto.ErrorDetails{Code: code, Message: message},
		Details: details,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode error response", "err", err)
	}
}

// writeRateLimitError writes a 429 response.
func writeRateLimitError(w http.ResponseWriter, _ *http.Request, res ratelimit.Result) {
	writeAPIError(w, dto.RateLimitExceeded(int(res.RetryAfter.Seconds())))
}
