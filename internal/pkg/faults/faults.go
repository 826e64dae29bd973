// Package faults defines the error taxonomy shared by the publish pipeline,
// media sync, and the remote transports. Every public contract in the core
// returns one of these structured failures instead of an opaque error, so
// the presentation layer can render actionable guidance.
package faults

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrNotFound marks a reconciliation/restore target absent on the remote.
// It is a reportable outcome, not a crash.
var ErrNotFound = errors.New("remote resource not found")

// ValidationError rejects malformed or incomplete input before any network
// call is made. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransportError wraps a failure from one of the two remote transports.
// Transient connection-level failures are retried; HTTP responses are not.
type TransportError struct {
	Transport  string // "rest" | "ajax"
	Op         string
	StatusCode int // 0 for connection-level failures
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: remote returned %d: %s", e.Transport, e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: %v", e.Transport, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AsTransport unwraps err to a TransportError if one is in the chain.
func AsTransport(err error) (*TransportError, bool) {
	var te *TransportError
	ok := errors.As(err, &te)
	return te, ok
}

// IsTransient reports whether err is a connection-level failure worth
// retrying: timeout, DNS, connection refused. HTTP error responses are not
// transient at this layer.
func IsTransient(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		if te.StatusCode > 0 {
			return false
		}
		err = te.Err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return false
}

// IsAuthorization reports whether err carries a 401/403-class HTTP response.
// Retrying with the same credentials cannot succeed, so callers fall back to
// the alternate transport immediately.
func IsAuthorization(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode == http.StatusUnauthorized || te.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether err is a remote 404 or ErrNotFound.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == http.StatusNotFound
}

// AttemptError records the raw error text of one attempted transport.
type AttemptError struct {
	Transport string `json:"transport"`
	Error     string `json:"error"`
}

// UnavailableError means both transports were exhausted. It carries enough
// structured detail for a human to act on: the likely root causes
// (hosting-level API restriction, revoked credentials) require remediation,
// not retry.
type UnavailableError struct {
	Reason      string         `json:"reason"`
	Remediation string         `json:"remediation"`
	Attempts    []AttemptError `json:"attempts"`
}

func (e *UnavailableError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Transport+": "+a.Error)
	}
	return fmt.Sprintf("remote unavailable: %s (%s)", e.Reason, strings.Join(parts, "; "))
}

// IsUnavailable reports whether err is an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
