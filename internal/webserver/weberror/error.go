package weberror

import (
	"fmt"
	"net/http"
)

// Error kinds group the gateway's failures for clients. Authentication
// covers rejected signatures and identities, namespace covers unknown or
// malformed buckets and keys, policy covers quota refusals and
// infrastructure covers everything the caller cannot act on.
const (
	KindAuthentication = "authentication"
	KindNamespace      = "namespace"
	KindPolicy         = "policy"
	KindInfrastructure = "infrastructure"
)

type (
	// HTTPCoder interface is implemented by application errors.
	HTTPCoder interface {
		// HTTPCode return the HTTP status code for the given error.
		HTTPCode() int
	}

	// Error is the payload rendered in case of error.
	Error struct {
		Code    int    `json:"-"`
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}
)

// StatusCode returns the known HTTP status for the given err. If unknown, it returns 500.
func StatusCode(err error) int {
	if hc, ok := err.(HTTPCoder); ok {
		return hc.HTTPCode()
	}
	return http.StatusInternalServerError
}

// New returns a new Error. Its kind is derived from the status code.
func New(code int, message string) error {
	return &Error{
		Code:    code,
		Kind:    kind(code),
		Message: message,
	}
}

func kind(code int) string {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthentication
	case http.StatusBadRequest, http.StatusNotFound:
		return KindNamespace
	case http.StatusRequestEntityTooLarge:
		return KindPolicy
	default:
		return KindInfrastructure
	}
}

// Error stringifies the error.
func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s: %s", e.Code, e.Kind, e.Message)
}

// HTTPCode returns the HTTP status code.
func (e *Error) HTTPCode() int {
	return e.Code
}
