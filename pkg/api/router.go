// Package api provides the HTTP/WebSocket server for the certificate workflow.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	certerrors "github.com/r3d91ll/qoscert/pkg/errors"
)

// HandlerFunc is the function signature for API handlers.
type HandlerFunc func(w http.ResponseWriter, r *http.Request)

// Route represents a registered route with its handler.
type Route struct {
	Method  string
	Pattern string
	Handler HandlerFunc
}

// Router is a small HTTP router that supports :param path segments.
type Router struct {
	routes []Route
	mu     sync.RWMutex

	// NotFound is called when no route matches
	NotFound http.Handler
}

// NewRouter creates a new Router instance.
func NewRouter() *Router {
	return &Router{
		routes: make([]Route, 0),
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, http.StatusNotFound, "not_found", "The requested resource was not found")
		}),
	}
}

// Handle registers a handler for the given method and pattern.
func (rt *Router) Handle(method, pattern string, handler HandlerFunc) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.routes = append(rt.routes, Route{
		Method:  method,
		Pattern: pattern,
		Handler: handler,
	})
}

// GET registers a handler for GET requests.
func (rt *Router) GET(pattern string, handler HandlerFunc) {
	rt.Handle(http.MethodGet, pattern, handler)
}

// POST registers a handler for POST requests.
func (rt *Router) POST(pattern string, handler HandlerFunc) {
	rt.Handle(http.MethodPost, pattern, handler)
}

// ServeHTTP implements the http.Handler interface. A path that matches
// with the wrong method gets 405.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	path := r.URL.Path
	pathMatched := false

	for _, route := range rt.routes {
		if !matchPath(route.Pattern, path) {
			continue
		}
		if route.Method != r.Method {
			pathMatched = true
			continue
		}
		route.Handler(w, r)
		return
	}

	if pathMatched {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	rt.NotFound.ServeHTTP(w, r)
}

// matchPath reports whether path names the route pattern, ignoring
// leading and trailing slashes.
func matchPath(pattern, path string) bool {
	return strings.Trim(pattern, "/") == strings.Trim(path, "/")
}

// -----------------------------------------------------------------------------
// Response Helpers
// -----------------------------------------------------------------------------

// APIResponse is the standard response wrapper for API endpoints.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError represents an error response.
type APIError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	// headers are already sent; nothing useful to do on failure
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeAPIError(w, status, &APIError{Code: code, Message: message})
}

func writeAPIError(w http.ResponseWriter, status int, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{Success: false, Error: apiErr})
}

// WriteCertError maps an error to an HTTP status and writes it. CertErrors
// keep their code (lowercased) and suggestions; anything else is a 500.
func WriteCertError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		WriteError(w, http.StatusServiceUnavailable, "cancelled", "Request cancelled")
		return
	}
	ce, ok := certerrors.AsCertError(err)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	writeAPIError(w, StatusFor(ce), &APIError{
		Code:        strings.ToLower(ce.Code),
		Message:     ce.Message,
		Suggestions: ce.Suggestions,
	})
}

// StatusFor returns the HTTP status for a CertError.
func StatusFor(ce *certerrors.CertError) int {
	switch ce.Code {
	case certerrors.ErrSessionNotFound, certerrors.ErrAuthTokenInvalid, certerrors.ErrAuthInvalidCredentials:
		return http.StatusUnauthorized
	case certerrors.ErrAuthForbidden:
		return http.StatusForbidden
	case certerrors.ErrSessionTIPNotPending, certerrors.ErrSessionNotReady, certerrors.ErrSessionEmpty:
		return http.StatusConflict
	case certerrors.ErrRendererUnknown:
		return http.StatusBadRequest
	}
	switch ce.Category {
	case certerrors.CategoryValidation:
		return http.StatusBadRequest
	case certerrors.CategoryAsset:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ReadJSON reads and decodes a JSON request body into the given target.
func ReadJSON(r *http.Request, target interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
