// ABOUTME: Error taxonomy for the AGI session client: transport, timeout, remote-task, and parse errors.
// ABOUTME: Embedded-base error types with IsRetryable, plus HTTP status code mapping.

package agi

import "fmt"

// ClientError is the base error type for all errors produced by this package.
// The concrete subtypes embed it and override IsRetryable where appropriate.
type ClientError struct {
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns false for the base ClientError. Subtypes override this.
func (e *ClientError) IsRetryable() bool {
	return false
}

// TransportError represents a network or HTTP-level failure talking to the
// agent service. Carries the HTTP status code when one was received (0 for
// connection-level failures). Server-side and connection failures are
// retryable; client-side 4xx responses are not.
type TransportError struct {
	ClientError
	StatusCode int
	Retryable  bool
}

func (e *TransportError) Error() string     { return e.ClientError.Error() }
func (e *TransportError) Unwrap() error     { return e.ClientError.Unwrap() }
func (e *TransportError) IsRetryable() bool { return e.Retryable }

// TimeoutError represents a polling budget exhausted without the session
// reaching a terminal status. Not retryable: the budget was the retry.
type TimeoutError struct {
	ClientError
}

func (e *TimeoutError) Error() string     { return e.ClientError.Error() }
func (e *TimeoutError) Unwrap() error     { return e.ClientError.Unwrap() }
func (e *TimeoutError) IsRetryable() bool { return false }

// RemoteTaskError represents a session that reached the "error" terminal
// status, or a result payload reporting success=false. Not retryable.
type RemoteTaskError struct {
	ClientError
	Status string
}

func (e *RemoteTaskError) Error() string     { return e.ClientError.Error() }
func (e *RemoteTaskError) Unwrap() error     { return e.ClientError.Unwrap() }
func (e *RemoteTaskError) IsRetryable() bool { return false }

// ParseError represents result content that is not valid JSON or lacks the
// fields the instruction contract asked for. Not retryable.
type ParseError struct {
	ClientError
}

func (e *ParseError) Error() string     { return e.ClientError.Error() }
func (e *ParseError) Unwrap() error     { return e.ClientError.Unwrap() }
func (e *ParseError) IsRetryable() bool { return false }

// errorFromStatusCode maps a non-2xx HTTP response to a TransportError.
// 4xx responses are not retryable (the request itself is wrong); everything
// else is assumed transient.
func errorFromStatusCode(statusCode int, operation string) error {
	return &TransportError{
		ClientError: ClientError{
			Message: fmt.Sprintf("%s: unexpected status %d", operation, statusCode),
		},
		StatusCode: statusCode,
		Retryable:  statusCode < 400 || statusCode >= 500,
	}
}
