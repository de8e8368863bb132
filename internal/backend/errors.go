package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FallbackMessage is shown when a failure carries no collaborator text.
const FallbackMessage = "An error occurred"

var errMissingImages = errors.New("response has no images")

// TransportError is a network-level failure: the collaborator never answered.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a failure signalled by the collaborator: an HTTP error status or
// a body that could not be decoded. Message holds the collaborator's error
// text verbatim and may be empty.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("api returned status %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// UserMessage collapses any submission error into the single string shown to
// the user. Transport failures and empty collaborator errors use FallbackMessage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return apiErr.Message
		}
	}
	return FallbackMessage
}

// Kind labels an error for logs and metrics.
func Kind(err error) string {
	var (
		apiErr       *APIError
		transportErr *TransportError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &apiErr):
		return "application"
	case errors.As(err, &transportErr):
		return "transport"
	default:
		return "unknown"
	}
}
