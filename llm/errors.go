// Error taxonomy shared by every adapter and the factory.
//
// Information Hiding:
// - Vendor SDK error types never cross the package boundary unwrapped
// - Callers branch on Kind/Category via errors.Is against the sentinels

package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the coarse class of a provider error.
type ErrorKind string

const (
	KindConfig          ErrorKind = "config"
	KindAuth            ErrorKind = "auth"
	KindNotInitialized  ErrorKind = "not_initialized"
	KindConnectivity    ErrorKind = "connectivity"
	KindVendor          ErrorKind = "vendor"
	KindParse           ErrorKind = "parse"
	KindUnknownProvider ErrorKind = "unknown_provider"
)

// Category sub-classifies vendor-side failures.
type Category string

const (
	CategoryAccessDenied       Category = "AccessDenied"
	CategoryValidation         Category = "Validation"
	CategoryServiceUnavailable Category = "ServiceUnavailable"
	CategoryThrottling         Category = "Throttling"
	CategoryUnknown            Category = "Unknown"
)

// Error is the single error type returned by providers and the factory.
type Error struct {
	Kind     ErrorKind
	Category Category // set for auth, connectivity and vendor errors
	Provider string
	Field    string // offending config field, if any
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind, and by category when the sentinel has one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Category == "" || t.Category == e.Category
}

// Sentinels for errors.Is.
var (
	ErrConfig          = &Error{Kind: KindConfig, Message: "invalid configuration"}
	ErrAuth            = &Error{Kind: KindAuth, Message: "authentication failed"}
	ErrNotInitialized  = &Error{Kind: KindNotInitialized, Message: "provider not initialized"}
	ErrConnectivity    = &Error{Kind: KindConnectivity, Message: "connectivity probe failed"}
	ErrVendor          = &Error{Kind: KindVendor, Message: "vendor request failed"}
	ErrParse           = &Error{Kind: KindParse, Message: "unparseable response"}
	ErrUnknownProvider = &Error{Kind: KindUnknownProvider, Message: "unknown provider"}
)

// AsError extracts the *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func configError(provider, field, msg string) *Error {
	return &Error{Kind: KindConfig, Provider: provider, Field: field, Message: msg}
}

func authError(provider, field, msg string) *Error {
	return &Error{Kind: KindAuth, Provider: provider, Field: field, Message: msg}
}

func notInitializedError(provider string) *Error {
	return &Error{
		Kind:     KindNotInitialized,
		Provider: provider,
		Message:  "Provider not initialized. Call Initialize() first.",
	}
}

func parseError(provider, msg string, err error) *Error {
	return &Error{Kind: KindParse, Provider: provider, Message: msg, Err: err}
}

// phase distinguishes the connectivity probe from regular calls, since the
// same vendor failure maps to a different Kind in each.
type phase int

const (
	phaseProbe phase = iota
	phaseCall
)

// vendorError builds the error for a failed vendor exchange.
// A probe rejected for access becomes an auth error.
func vendorError(provider string, ph phase, cat Category, msg string, err error) *Error {
	kind := KindVendor
	if ph == phaseProbe {
		kind = KindConnectivity
		if cat == CategoryAccessDenied {
			kind = KindAuth
		}
	}
	return &Error{Kind: kind, Category: cat, Provider: provider, Message: msg, Err: err}
}

// classifyStatus maps an HTTP status from a vendor API onto a Category.
func classifyStatus(status int) Category {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return CategoryAccessDenied
	case status == http.StatusBadRequest, status == http.StatusNotFound,
		status == http.StatusUnprocessableEntity, status == http.StatusRequestEntityTooLarge:
		return CategoryValidation
	case status == http.StatusTooManyRequests:
		return CategoryThrottling
	case status >= 500:
		// 529 is Anthropic's "overloaded".
		return CategoryServiceUnavailable
	default:
		return CategoryUnknown
	}
}

// httpVendorMessage is the human-readable text for the HTTP-based vendors.
func httpVendorMessage(vendor string, ph phase, cat Category) string {
	switch cat {
	case CategoryAccessDenied:
		return fmt.Sprintf("%s credentials were rejected", vendor)
	case CategoryValidation:
		return fmt.Sprintf("invalid %s request or model parameters", vendor)
	case CategoryThrottling:
		return fmt.Sprintf("%s API rate limit exceeded", vendor)
	case CategoryServiceUnavailable:
		return fmt.Sprintf("%s service is currently unavailable", vendor)
	}
	if ph == phaseProbe {
		return fmt.Sprintf("%s connection test failed", vendor)
	}
	return fmt.Sprintf("%s API error", vendor)
}
