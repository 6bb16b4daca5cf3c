// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/recipebox/recipebox/internal/handler/dto"
	"github.com/recipebox/recipebox/internal/service"
)

// maxMultipartMemory bounds the in-memory part of multipart form parsing.
const maxMultipartMemory = 1 << 20

// Handler serves the router's fallback responses.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps service errors to HTTP responses. Anything
// unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_ERROR",
			Fields: verr.Fields,
		})
	case errors.Is(err, service.ErrRecipeNotFound):
		writeError(w, http.StatusNotFound, "RECIPE_NOT_FOUND", "Recipe not found")
	default:
		logger.Error("internal_error",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// requestError is a body or query problem detected before the service runs.
type requestError struct {
	status  int
	code    string
	message string
}

func (e *requestError) write(w http.ResponseWriter) {
	writeError(w, e.status, e.code, e.message)
}

// decodeBody reads a JSON or form encoded request body into a T.
// An empty body decodes to the zero T so absent fields are reported by
// validation rather than as malformed input.
func decodeBody[T any](r *http.Request, fromForm func(url.Values) T) (T, *requestError) {
	var zero T

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return zero, &requestError{http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Unsupported content type"}
		}
		mediaType = parsed
	}

	switch mediaType {
	case "application/json":
		var v T
		err := json.NewDecoder(r.Body).Decode(&v)
		switch {
		case err == nil, errors.Is(err, io.EOF):
			return v, nil
		case isTooLarge(err):
			return zero, &requestError{http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large"}
		default:
			return zero, &requestError{http.StatusBadRequest, "INVALID_JSON", "Invalid request body"}
		}

	case "application/x-www-form-urlencoded", "multipart/form-data":
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxMultipartMemory)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			if isTooLarge(err) {
				return zero, &requestError{http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large"}
			}
			return zero, &requestError{http.StatusBadRequest, "INVALID_FORM", "Invalid form body"}
		}
		return fromForm(r.PostForm), nil

	default:
		return zero, &requestError{http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Unsupported content type"}
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// boolQuery parses an optional boolean query parameter. Absent or empty
// values are false; 1/0, t/f and true/false in any case are accepted.
func boolQuery(r *http.Request, key string) (bool, *requestError) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false, &requestError{http.StatusBadRequest, "INVALID_QUERY", "Invalid value for " + key}
	}
	return v, nil
}

// idsQuery parses a comma separated id list, dropping empty entries.
func idsQuery(r *http.Request, key string) []string {
	var ids []string
	for _, raw := range strings.Split(r.URL.Query().Get(key), ",") {
		if id := strings.TrimSpace(raw); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
