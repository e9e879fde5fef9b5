package logicom

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKeyLength = errors.New("access token key must be 32 bytes")
	ErrEmptyToken       = errors.New("empty access token")
	ErrEmptyMessage     = errors.New("no records in API response")
	ErrMissingSKU       = errors.New("product has no SKU")
)

// AuthError is returned when the access token cannot be generated or a
// request cannot be signed.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("logicom auth: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// SupplierError reports a response the supplier did not mark as successful,
// either through the HTTP status or the envelope's StatusCode.
type SupplierError struct {
	Endpoint   string
	HTTPStatus int
	StatusCode StatusCode
	Status     string
	Message    string
}

func (e *SupplierError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("API request to %s failed: %d - %s", e.Endpoint, e.HTTPStatus, e.Message)
	}
	status := e.Status
	if status == "" {
		status = "No response data"
	}
	if e.Message != "" {
		return fmt.Sprintf("API request to %s failed: %s (%d): %s", e.Endpoint, status, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API request to %s failed: %s (%d)", e.Endpoint, status, e.StatusCode)
}
