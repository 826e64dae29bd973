package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/cargoport/core/internal/pkg/faults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transientErr() error {
	return &faults.TransportError{
		Transport: "rest",
		Op:        "create post",
		Err:       &net.OpError{Op: "dial", Err: errors.New("connection refused")},
	}
}

func statusErr(code int) error {
	return &faults.TransportError{Transport: "rest", Op: "create post", StatusCode: code}
}

func TestDoRetriesTransientFailures(t *testing.T) {
	p := Policy{PrimaryAttempts: 2, Delay: 0}

	calls := 0
	primary := func(context.Context) error {
		calls++
		if calls == 1 {
			return transientErr()
		}
		return nil
	}

	outcome, err := p.Do(context.Background(), "publish", "rest", "", primary, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "primary", outcome.Transport)
	assert.Equal(t, 2, outcome.Attempts)
}

func TestDoAuthorizationSkipsStraightToSecondary(t *testing.T) {
	p := Policy{PrimaryAttempts: 2, Delay: 0}

	primaryCalls := 0
	primary := func(context.Context) error {
		primaryCalls++
		return statusErr(http.StatusForbidden)
	}
	secondary := func(context.Context) error { return nil }

	outcome, err := p.Do(context.Background(), "publish", "rest", "ajax", primary, secondary)
	require.NoError(t, err)
	assert.Equal(t, 1, primaryCalls)
	assert.Equal(t, "secondary", outcome.Transport)
}

func TestDoHTTPErrorIsNotRetried(t *testing.T) {
	p := Policy{PrimaryAttempts: 3, Delay: 0}

	primaryCalls := 0
	primary := func(context.Context) error {
		primaryCalls++
		return statusErr(http.StatusInternalServerError)
	}
	secondary := func(context.Context) error { return nil }

	_, err := p.Do(context.Background(), "publish", "rest", "ajax", primary, secondary)
	require.NoError(t, err)
	assert.Equal(t, 1, primaryCalls, "an HTTP error response is not a transient failure")
}

func TestDoExhaustionReturnsUnavailable(t *testing.T) {
	p := Policy{PrimaryAttempts: 2, Delay: 0}

	primary := func(context.Context) error { return transientErr() }
	secondary := func(context.Context) error { return statusErr(http.StatusBadGateway) }

	_, err := p.Do(context.Background(), "publish", "rest", "ajax", primary, secondary)
	require.Error(t, err)

	var ue *faults.UnavailableError
	require.ErrorAs(t, err, &ue)
	require.Len(t, ue.Attempts, 2)
	assert.Equal(t, "rest", ue.Attempts[0].Transport)
	assert.Equal(t, "ajax", ue.Attempts[1].Transport)
	assert.NotEmpty(t, ue.Remediation)
}

func TestDoNilSecondaryReturnsPrimaryError(t *testing.T) {
	p := Policy{PrimaryAttempts: 1, Delay: 0}

	cause := statusErr(http.StatusBadRequest)
	primary := func(context.Context) error { return cause }

	_, err := p.Do(context.Background(), "publish", "rest", "", primary, nil)
	require.Error(t, err)
	assert.False(t, faults.IsUnavailable(err), "without a fallback the primary error surfaces directly")
	var te *faults.TransportError
	assert.ErrorAs(t, err, &te)
}
