package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/conduit-lang/resourcegraph/internal/graph"
	"github.com/conduit-lang/resourcegraph/internal/web/query"
	"github.com/conduit-lang/resourcegraph/internal/web/request"
)

// ErrorObject is a single JSON:API error
type ErrorObject struct {
	Status string       `json:"status"`
	Code   string       `json:"code,omitempty"`
	Title  string       `json:"title,omitempty"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
}

// ErrorSource points at the part of the request that caused an error
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

// ErrorDocument is a top-level JSON:API error document
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       errorCodeFromStatus(statusCode),
	}
}

// Common HTTP errors
var (
	ErrNotFound         = NewHTTPError(http.StatusNotFound, "Not found")
	ErrMethodNotAllowed = NewHTTPError(http.StatusMethodNotAllowed, "Method not allowed")
	ErrNotAcceptable    = NewHTTPError(http.StatusNotAcceptable, "Not acceptable")
	ErrNotImplemented   = NewHTTPError(http.StatusNotImplemented, "Not implemented")
	ErrInternalServer   = NewHTTPError(http.StatusInternalServerError, "Internal server error")
)

// StatusOf returns the HTTP status an error renders with
func StatusOf(err error) int {
	var (
		qerr    *query.Error
		rerr    *request.Error
		httpErr *HTTPError
	)
	switch {
	case errors.As(err, &qerr):
		return http.StatusBadRequest
	case errors.As(err, &rerr):
		return rerr.Status
	case errors.As(err, &httpErr):
		return httpErr.StatusCode
	case errors.Is(err, graph.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Errors converts err into JSON:API error objects
func Errors(err error) []ErrorObject {
	status := StatusOf(err)

	var (
		qerr    *query.Error
		rerr    *request.Error
		httpErr *HTTPError
	)
	switch {
	case errors.As(err, &qerr):
		objs := make([]ErrorObject, len(qerr.Violations))
		for i, v := range qerr.Violations {
			objs[i] = ErrorObject{
				Status: strconv.Itoa(status),
				Code:   "invalid_query_parameter",
				Title:  "Invalid query parameter",
				Detail: v.Detail,
				Source: &ErrorSource{Parameter: v.Parameter},
			}
		}
		return objs
	case errors.As(err, &rerr):
		obj := ErrorObject{
			Status: strconv.Itoa(status),
			Code:   errorCodeFromStatus(status),
			Title:  rerr.Title,
			Detail: rerr.Detail,
		}
		if rerr.Pointer != "" {
			obj.Source = &ErrorSource{Pointer: rerr.Pointer}
		}
		return []ErrorObject{obj}
	case errors.As(err, &httpErr):
		return []ErrorObject{{
			Status: strconv.Itoa(status),
			Code:   httpErr.Code,
			Title:  httpErr.Message,
		}}
	case status == http.StatusNotFound:
		return []ErrorObject{{
			Status: strconv.Itoa(status),
			Code:   errorCodeFromStatus(status),
			Title:  "Not found",
			Detail: strings.TrimPrefix(err.Error(), "graph: "),
		}}
	default:
		return []ErrorObject{{
			Status: strconv.Itoa(status),
			Code:   errorCodeFromStatus(status),
			Title:  "Internal server error",
		}}
	}
}

// RenderError renders err as a JSON:API error document
func RenderError(w http.ResponseWriter, err error) {
	status := StatusOf(err)

	w.Header().Set("Content-Type", JSONAPIMediaType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&ErrorDocument{Errors: Errors(err)})
}

// RenderNotFound renders a 404 Not Found error
func RenderNotFound(w http.ResponseWriter, r *http.Request) {
	RenderError(w, ErrNotFound)
}

// RenderMethodNotAllowed renders a 405 Method Not Allowed error
func RenderMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	RenderError(w, ErrMethodNotAllowed)
}

// errorCodeFromStatus maps HTTP status codes to error codes
func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusNotAcceptable:
		return "not_acceptable"
	case http.StatusConflict:
		return "conflict"
	case http.StatusRequestEntityTooLarge:
		return "request_too_large"
	case http.StatusUnsupportedMediaType:
		return "unsupported_media_type"
	case http.StatusUnprocessableEntity:
		return "unprocessable_entity"
	case http.StatusInternalServerError:
		return "internal_error"
	case http.StatusNotImplemented:
		return "not_implemented"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	default:
		return "error"
	}
}
