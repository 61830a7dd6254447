package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrTransient marks a failure worth retrying: timeouts, rate limits,
	// temporary server errors.
	ErrTransient = errors.New("transient service failure")

	// ErrMalformedResponse marks a reply that arrived but could not be
	// interpreted. Retrying the same request is not expected to help.
	ErrMalformedResponse = errors.New("malformed service response")

	// ErrUnavailable marks a collaborator that is not configured or cannot be
	// reached at all (no credentials, library not built in).
	ErrUnavailable = errors.New("service unavailable")
)

// ServiceError wraps a failure of an external collaborator.
//
// errors.Is matches both the Kind sentinel and anything in the wrapped Err
// chain, so callers can test for ErrTransient as well as context.Canceled.
type ServiceError struct {
	Service string
	Kind    error
	Err     error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Service, e.Kind.Error())
	}
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Kind.Error(), e.Err)
}

func (e *ServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Transient wraps err as a retryable failure of service.
func Transient(service string, err error) error {
	return &ServiceError{Service: service, Kind: ErrTransient, Err: err}
}

// Malformed wraps err as an unparseable reply from service.
func Malformed(service string, err error) error {
	return &ServiceError{Service: service, Kind: ErrMalformedResponse, Err: err}
}

// Unavailable wraps err as service being absent or unconfigured.
func Unavailable(service string, err error) error {
	return &ServiceError{Service: service, Kind: ErrUnavailable, Err: err}
}

// IsRetryable reports whether err is a transient service failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
