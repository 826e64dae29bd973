package publish

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/cargoport/core/internal/models"
	"github.com/cargoport/core/internal/pkg/faults"
	"github.com/cargoport/core/internal/pkg/retry"
	"github.com/cargoport/core/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport scripts per-call outcomes and counts invocations.
type fakeTransport struct {
	name    string
	err     error
	creates int
	updates int
	deletes int
}

func (f *fakeTransport) Name() string { return f.name }

func (f *fakeTransport) CreatePost(_ context.Context, _ remote.PostInput) (*remote.PostRef, error) {
	f.creates++
	if f.err != nil {
		return nil, f.err
	}
	return &remote.PostRef{ID: 101, Slug: "fleet-update", Link: "https://cms.example/fleet-update"}, nil
}

func (f *fakeTransport) UpdatePost(_ context.Context, id int64, _ remote.PostInput) (*remote.PostRef, error) {
	f.updates++
	if f.err != nil {
		return nil, f.err
	}
	return &remote.PostRef{ID: id, Slug: "fleet-update"}, nil
}

func (f *fakeTransport) DeletePost(_ context.Context, _ int64) error {
	f.deletes++
	return f.err
}

func (f *fakeTransport) UploadMedia(_ context.Context, _ remote.MediaUpload) (*remote.MediaRef, error) {
	return nil, errors.New("not used")
}

func connectionRefused(transport string) error {
	return &faults.TransportError{
		Transport: transport,
		Op:        "create post",
		Err:       &net.OpError{Op: "dial", Err: errors.New("connection refused")},
	}
}

func httpStatus(transport string, code int) error {
	return &faults.TransportError{Transport: transport, Op: "create post", StatusCode: code}
}

func testPolicy() retry.Policy {
	return retry.Policy{PrimaryAttempts: 2, Delay: 0}
}

func draft(title, text string) *models.ContentModel {
	d := &models.ContentModel{Title: title, Text: text, Status: models.StatusPublished}
	d.ID = "local-1"
	d.Slug = "fleet-update"
	return d
}

func TestPublishValidationFailsBeforeAnyNetworkCall(t *testing.T) {
	primary := &fakeTransport{name: "rest"}
	secondary := &fakeTransport{name: "ajax"}
	p := New(primary, secondary, testPolicy(), nil)

	_, err := p.Publish(context.Background(), draft("  ", "body"), TransportPrimary)
	require.Error(t, err)
	assert.True(t, faults.IsValidation(err))
	assert.Zero(t, primary.creates)
	assert.Zero(t, secondary.creates)

	_, err = p.Publish(context.Background(), draft("Title", ""), TransportPrimary)
	require.Error(t, err)
	assert.True(t, faults.IsValidation(err))
	assert.Zero(t, primary.creates)
}

func TestPublishAuthFailureSkipsRetry(t *testing.T) {
	primary := &fakeTransport{name: "rest", err: httpStatus("rest", http.StatusUnauthorized)}
	secondary := &fakeTransport{name: "ajax"}
	p := New(primary, secondary, testPolicy(), nil)

	result, err := p.Publish(context.Background(), draft("Title", "body"), TransportPrimary)
	require.NoError(t, err)
	assert.Equal(t, "secondary", result.Transport)
	assert.Equal(t, 1, primary.creates, "401 must not be retried on the same credentials")
	assert.Equal(t, 1, secondary.creates)
	assert.Equal(t, 2, result.Attempts)
}

func TestPublishTransientFailureRetriesThenFallsBack(t *testing.T) {
	primary := &fakeTransport{name: "rest", err: connectionRefused("rest")}
	secondary := &fakeTransport{name: "ajax"}
	p := New(primary, secondary, testPolicy(), nil)

	result, err := p.Publish(context.Background(), draft("Title", "body"), TransportPrimary)
	require.NoError(t, err)
	assert.Equal(t, 2, primary.creates, "connection failures are retried before fallback")
	assert.Equal(t, "secondary", result.Transport)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, int64(101), result.RemoteID)
}

func TestPublishBothTransportsExhausted(t *testing.T) {
	primary := &fakeTransport{name: "rest", err: connectionRefused("rest")}
	secondary := &fakeTransport{name: "ajax", err: httpStatus("ajax", http.StatusBadGateway)}
	p := New(primary, secondary, testPolicy(), nil)

	_, err := p.Publish(context.Background(), draft("Title", "body"), TransportPrimary)
	require.Error(t, err)

	var ue *faults.UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.NotEmpty(t, ue.Remediation)
	require.Len(t, ue.Attempts, 2)
	assert.Equal(t, "rest", ue.Attempts[0].Transport)
	assert.Equal(t, "ajax", ue.Attempts[1].Transport)
}

func TestPublishSecondaryChoiceLeadsWithAjax(t *testing.T) {
	primary := &fakeTransport{name: "rest"}
	secondary := &fakeTransport{name: "ajax"}
	p := New(primary, secondary, testPolicy(), nil)

	result, err := p.Publish(context.Background(), draft("Title", "body"), TransportSecondary)
	require.NoError(t, err)
	assert.Equal(t, "primary", result.Transport, "the chosen transport leads the attempt order")
	assert.Equal(t, 1, secondary.creates)
	assert.Zero(t, primary.creates)
}

func TestPublishWithRemoteIDUpdatesInsteadOfCreates(t *testing.T) {
	primary := &fakeTransport{name: "rest"}
	p := New(primary, nil, testPolicy(), nil)

	d := draft("Title", "body")
	remoteID := int64(55)
	d.RemoteID = &remoteID

	result, err := p.Publish(context.Background(), d, TransportPrimary)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.updates)
	assert.Zero(t, primary.creates)
	assert.Equal(t, int64(55), result.RemoteID)
}

func TestRenderBodyMarkdownAndHTMLPassthrough(t *testing.T) {
	p := New(&fakeTransport{name: "rest"}, nil, testPolicy(), nil)

	html, err := p.renderBody("# Heading\n\nSome **bold** text.")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<strong>bold</strong>")

	raw := `<p>Already <em>rendered</em>.</p>`
	out, err := p.renderBody(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestDeleteToleratesMissingRemotePost(t *testing.T) {
	primary := &fakeTransport{name: "rest", err: httpStatus("rest", http.StatusNotFound)}
	p := New(primary, nil, testPolicy(), nil)

	err := p.Delete(context.Background(), 999)
	assert.NoError(t, err)
	assert.Equal(t, 1, primary.deletes)
}
