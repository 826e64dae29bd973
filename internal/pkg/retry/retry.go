// Package retry implements the shared try-primary, sleep, retry, fall back
// to secondary policy used by both the publish pipeline and media sync, so
// the two call sites cannot drift apart.
package retry

import (
	"context"
	"time"

	"github.com/cargoport/core/internal/pkg/faults"
	"go.uber.org/zap"
)

// AttemptFunc performs one attempt against a single transport.
type AttemptFunc func(ctx context.Context) error

// Policy describes the fixed retry/fallback behavior. Connection-level
// failures on the primary are retried up to PrimaryAttempts with Delay in
// between; 401/403 responses skip straight to the secondary; the secondary
// runs exactly once.
type Policy struct {
	PrimaryAttempts int
	Delay           time.Duration
	Logger          *zap.Logger
}

// DefaultPolicy matches the remote CMS's observed failure modes.
func DefaultPolicy(logger *zap.Logger) Policy {
	return Policy{PrimaryAttempts: 2, Delay: 3 * time.Second, Logger: logger}
}

// Outcome reports which transport ultimately served the call.
type Outcome struct {
	Transport string `json:"transport"` // "primary" | "secondary"
	Attempts  int    `json:"attempts"`
}

// Do runs primary with the retry policy, falling back to secondary once.
// A nil secondary disables fallback. The returned error is an
// *faults.UnavailableError when every attempt failed.
func (p Policy) Do(ctx context.Context, op, primaryName, secondaryName string, primary, secondary AttemptFunc) (Outcome, error) {
	attempts := p.PrimaryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var primaryErr error
	made := 0
	for i := 0; i < attempts; i++ {
		made++
		primaryErr = primary(ctx)
		if primaryErr == nil {
			return Outcome{Transport: "primary", Attempts: made}, nil
		}
		if faults.IsAuthorization(primaryErr) {
			// Same credentials cannot succeed on retry.
			p.log(op, primaryName, made, "authorization rejected, falling back", primaryErr)
			break
		}
		if !faults.IsTransient(primaryErr) {
			p.log(op, primaryName, made, "non-retryable failure", primaryErr)
			break
		}
		if i < attempts-1 {
			p.log(op, primaryName, made, "transient failure, retrying", primaryErr)
			select {
			case <-ctx.Done():
				return Outcome{Transport: "primary", Attempts: made}, ctx.Err()
			case <-time.After(p.Delay):
			}
		}
	}

	if secondary == nil {
		return Outcome{Transport: "primary", Attempts: made}, primaryErr
	}

	secondaryErr := secondary(ctx)
	if secondaryErr == nil {
		return Outcome{Transport: "secondary", Attempts: made + 1}, nil
	}

	return Outcome{Transport: "secondary", Attempts: made + 1}, &faults.UnavailableError{
		Reason:      "both transports failed for " + op,
		Remediation: "verify the remote CMS is reachable, that the REST API is not blocked by the hosting provider, and that the application password is still valid",
		Attempts: []faults.AttemptError{
			{Transport: primaryName, Error: primaryErr.Error()},
			{Transport: secondaryName, Error: secondaryErr.Error()},
		},
	}
}

func (p Policy) log(op, transport string, attempt int, msg string, err error) {
	if p.Logger == nil {
		return
	}
	p.Logger.Warn(msg,
		zap.String("op", op),
		zap.String("transport", transport),
		zap.Int("attempt", attempt),
		zap.Error(err),
	)
}
