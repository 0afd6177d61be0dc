package client

import (
	"errors"
	"fmt"
)

// ValidationError is raised before any request leaves the process.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ErrEmptySelection is the validation failure for an action with no genes.
var ErrEmptySelection = &ValidationError{Msg: "no genes selected"}

// TransportError covers a failed round trip: network failure, non-2xx
// status, or a body that does not match the expected schema.
type TransportError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DownloadError is a TransportError on one of the two download endpoints.
type DownloadError struct {
	TransportError
}

func (e *DownloadError) Error() string {
	return "download failed: " + e.TransportError.Error()
}

func (e *DownloadError) Unwrap() error {
	return &e.TransportError
}

// QueryError is a TransportError on the expression query endpoint.
type QueryError struct {
	TransportError
}

func (e *QueryError) Error() string {
	return "expression query failed: " + e.TransportError.Error()
}

func (e *QueryError) Unwrap() error {
	return &e.TransportError
}

// IsTransport reports whether err is a download or query failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsValidation reports whether err came from an empty selection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
