package remote

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cargoport/core/internal/pkg/faults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAjaxCreatePostSendsCredentialsAndAction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cargoport_create_post", r.PostFormValue("action"))
		assert.Equal(t, "svc", r.PostFormValue("username"))
		assert.Equal(t, "pw", r.PostFormValue("app_password"))
		assert.Equal(t, "Fleet update", r.PostFormValue("title"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "data": {"id": 21, "slug": "fleet-update"}}`))
	}))
	defer server.Close()

	client := NewAjaxClient(AjaxOptions{Endpoint: server.URL, Username: "svc", Password: "pw"})
	ref, err := client.CreatePost(context.Background(), PostInput{
		Title:   "Fleet update",
		Content: "<p>Body</p>",
		Status:  RemoteStatusPublish,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(21), ref.ID)
	assert.Equal(t, "fleet-update", ref.Slug)
}

func TestAjaxEnvelopeFailureIsNonRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// admin-ajax reports application errors with HTTP 200.
		w.Write([]byte(`{"success": false, "data": "invalid app password"}`))
	}))
	defer server.Close()

	client := NewAjaxClient(AjaxOptions{Endpoint: server.URL})
	_, err := client.CreatePost(context.Background(), PostInput{Title: "T", Content: "x"})
	require.Error(t, err)

	te, ok := faults.AsTransport(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, te.StatusCode)
	assert.Contains(t, te.Body, "invalid app password")
	assert.False(t, faults.IsTransient(err))
}

func TestAjaxUploadMediaEncodesBase64(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cargoport_upload_media", r.PostFormValue("action"))
		assert.Equal(t, "logo.png", r.PostFormValue("filename"))
		assert.Equal(t, "image/png", r.PostFormValue("mime_type"))

		decoded, err := base64.StdEncoding.DecodeString(r.PostFormValue("file_data"))
		require.NoError(t, err)
		assert.Equal(t, payload, decoded)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "data": {"id": 61, "url": "https://cms.example/media/logo.png"}}`))
	}))
	defer server.Close()

	client := NewAjaxClient(AjaxOptions{Endpoint: server.URL})
	ref, err := client.UploadMedia(context.Background(), MediaUpload{
		Filename: "logo.png",
		MimeType: "image/png",
		Data:     payload,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(61), ref.ID)
	assert.Equal(t, "https://cms.example/media/logo.png", ref.URL)
}

func TestAjaxDeletePostSendsPostID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cargoport_delete_post", r.PostFormValue("action"))
		assert.Equal(t, "44", r.PostFormValue("post_id"))
		w.Write([]byte(`{"success": true, "data": null}`))
	}))
	defer server.Close()

	client := NewAjaxClient(AjaxOptions{Endpoint: server.URL})
	assert.NoError(t, client.DeletePost(context.Background(), 44))
}
