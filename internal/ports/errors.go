package ports

import (
	"errors"
	"fmt"
	"time"
)

// Common infrastructure errors that can occur during external service
// interactions.
var (
	// ErrRateLimited indicates that the service has rate limited the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates that the external service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidResponse indicates that the service returned an invalid
	// response.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrAuthenticationFailed indicates that authentication with the
	// service failed.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// DispatchError represents a failure while driving one request through the
// completion service. It carries the session and node context needed to
// attribute the failure in logs and results.
type DispatchError struct {
	// SessionID is the session of the failed execution.
	SessionID string

	// NodeID is the node being driven when the failure occurred, if known.
	NodeID string

	// Err is the underlying error.
	Err error

	// RetryAfter indicates how long to wait before retrying, if the
	// provider supplied one.
	RetryAfter *time.Duration
}

// Error implements the error interface for DispatchError.
func (e *DispatchError) Error() string {
	msg := fmt.Sprintf("dispatch error: session=%s", e.SessionID)
	if e.NodeID != "" {
		msg += fmt.Sprintf(", node=%s", e.NodeID)
	}
	msg += fmt.Sprintf(", err=%v", e.Err)
	if e.RetryAfter != nil {
		msg += fmt.Sprintf(", retry_after=%v", *e.RetryAfter)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DispatchError) Unwrap() error { return e.Err }

// IsRetryable returns true if the failure is service-level and transient.
// Routing or protocol failures are not retryable.
func (e *DispatchError) IsRetryable() bool {
	return errors.Is(e.Err, ErrRateLimited) ||
		errors.Is(e.Err, ErrServiceUnavailable) ||
		errors.Is(e.Err, ErrTimeout)
}

// NewDispatchError creates a DispatchError for the given session and node.
func NewDispatchError(sessionID, nodeID string, err error) *DispatchError {
	return &DispatchError{
		SessionID: sessionID,
		NodeID:    nodeID,
		Err:       err,
	}
}
