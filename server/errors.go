package server

import (
	"encoding/json"
	"net/http"

	"github.com/richinex/llmbridge/llm"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error    string `json:"error"`
	Kind     string `json:"kind,omitempty"`
	Category string `json:"category,omitempty"`
}

// statusFor maps a provider error onto an HTTP status.
func statusFor(e *llm.Error) int {
	switch e.Kind {
	case llm.KindConfig, llm.KindAuth:
		return http.StatusBadRequest
	case llm.KindUnknownProvider:
		return http.StatusNotFound
	case llm.KindNotInitialized:
		return http.StatusConflict
	case llm.KindParse:
		return http.StatusBadGateway
	case llm.KindVendor, llm.KindConnectivity:
		return statusForCategory(e.Category)
	default:
		return http.StatusInternalServerError
	}
}

func statusForCategory(c llm.Category) int {
	switch c {
	case llm.CategoryAccessDenied:
		return http.StatusForbidden
	case llm.CategoryValidation:
		return http.StatusBadRequest
	case llm.CategoryThrottling:
		return http.StatusTooManyRequests
	case llm.CategoryServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// writeProviderError writes err with the status its kind maps to. Errors
// that did not come from the provider layer are reported as 500.
func writeProviderError(w http.ResponseWriter, err error) {
	e, ok := llm.AsError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, statusFor(e), errorResponse{
		Error:    e.Error(),
		Kind:     string(e.Kind),
		Category: string(e.Category),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
