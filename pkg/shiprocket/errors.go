package shiprocket

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies an APIError.
type ErrorKind string

const (
	// KindConfiguration means required credentials or the base URL are unset.
	// Detected before any network attempt, never retried.
	KindConfiguration ErrorKind = "configuration"

	// KindAuthentication means the provider rejected the login.
	KindAuthentication ErrorKind = "authentication"

	// KindValidation means a required inbound field is missing or malformed.
	// Never reaches the network.
	KindValidation ErrorKind = "validation"

	// KindTransport means the provider answered with a non-2xx status.
	KindTransport ErrorKind = "transport"

	// KindNetwork means the request never produced an HTTP response
	// (DNS, connection refused, timeout).
	KindNetwork ErrorKind = "network"
)

// APIError is the uniform error shape produced by the transport and every
// domain operation. StatusCode is 0 for network-level failures.
type APIError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	StatusText string
	RawBody    string
	Fields     []string // populated for validation errors
	Cause      error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("shiprocket %s error (%d %s): %s", e.Kind, e.StatusCode, e.StatusText, e.Message)
	}
	return fmt.Sprintf("shiprocket %s error: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is matches two APIErrors by kind.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// HTTPStatus is the status the inbound REST surface should answer with.
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindConfiguration:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNetwork:
		return http.StatusBadGateway
	default:
		if e.StatusCode > 0 {
			return e.StatusCode
		}
		return http.StatusBadRequest
	}
}

// Sentinels usable with errors.Is to test the error class.
var (
	ErrConfiguration  = &APIError{Kind: KindConfiguration}
	ErrAuthentication = &APIError{Kind: KindAuthentication}
	ErrValidation     = &APIError{Kind: KindValidation}
	ErrTransport      = &APIError{Kind: KindTransport}
	ErrNetwork        = &APIError{Kind: KindNetwork}
)

func newConfigurationError(missing []string) *APIError {
	return &APIError{
		Kind:       KindConfiguration,
		Message:    "configuration errors: " + strings.Join(missing, ", "),
		StatusCode: http.StatusBadRequest,
		StatusText: "Configuration Error",
		Fields:     missing,
	}
}

func newValidationError(missing []string) *APIError {
	return &APIError{
		Kind:       KindValidation,
		Message:    "Missing required fields: " + strings.Join(missing, ", "),
		StatusCode: http.StatusBadRequest,
		StatusText: "Bad Request",
		Fields:     missing,
	}
}

func newAuthenticationError(message string) *APIError {
	return &APIError{
		Kind:       KindAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		StatusText: "Unauthorized",
	}
}

func newNetworkError(cause error) *APIError {
	return &APIError{
		Kind:       KindNetwork,
		Message:    cause.Error(),
		StatusCode: 0,
		StatusText: "Network Error",
		Cause:      cause,
	}
}

func newTransportError(statusCode int, statusText, rawBody string) *APIError {
	kind := KindTransport
	if statusCode == http.StatusUnauthorized {
		kind = KindAuthentication
	}
	return &APIError{
		Kind:       kind,
		Message:    fmt.Sprintf("API Error: %d %s", statusCode, statusText),
		StatusCode: statusCode,
		StatusText: statusText,
		RawBody:    rawBody,
	}
}

// AsAPIError extracts an *APIError from err, wrapping foreign errors as
// network failures so callers always see the uniform shape.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return newNetworkError(err)
}
