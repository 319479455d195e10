package wordpress

import (
	"errors"
	"fmt"
)

// Kind classifies a publish-target failure so callers can tell bad
// credentials from a dead site from a transient hiccup.
type Kind string

const (
	KindAuthenticationFailed Kind = "authentication_failed"
	KindAccessDenied         Kind = "access_denied"
	KindEndpointNotFound     Kind = "endpoint_not_found"
	KindTransientNetwork     Kind = "transient_network"
	KindRemoteError          Kind = "remote_error"
)

// Error is a classified failure talking to a WordPress site.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind, defaulting to remote error for
// unclassified failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindRemoteError
}

// IsAuthenticationFailed reports whether the site rejected the credentials.
func IsAuthenticationFailed(err error) bool {
	return KindOf(err) == KindAuthenticationFailed
}

// IsTransient reports whether the failure is network-level and retryable.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransientNetwork
}

// classifyStatus maps a non-2xx response to the error taxonomy.
func classifyStatus(status int, message string) *Error {
	switch status {
	case 401:
		return &Error{
			Kind:       KindAuthenticationFailed,
			StatusCode: status,
			Message:    "authentication failed, check username and application password",
		}
	case 403:
		return &Error{
			Kind:       KindAccessDenied,
			StatusCode: status,
			Message:    "access denied, the user cannot publish on this site",
		}
	case 404:
		return &Error{
			Kind:       KindEndpointNotFound,
			StatusCode: status,
			Message:    "endpoint not found, check the site URL",
		}
	default:
		if message == "" {
			message = "unexpected response"
		}
		return &Error{Kind: KindRemoteError, StatusCode: status, Message: message}
	}
}

// networkError wraps a transport-level failure (DNS, refused connection,
// timeout) as retryable.
func networkError(op string, err error) *Error {
	return &Error{Kind: KindTransientNetwork, Message: op + " failed", Err: err}
}
