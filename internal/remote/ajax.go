package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cargoport/core/internal/pkg/faults"
	"go.uber.org/zap"
)

const ajaxTimeout = 40 * time.Second

// Admin-AJAX action names registered on the remote side.
const (
	ajaxActionCreatePost  = "cargoport_create_post"
	ajaxActionUpdatePost  = "cargoport_update_post"
	ajaxActionDeletePost  = "cargoport_delete_post"
	ajaxActionUploadMedia = "cargoport_upload_media"
)

// AjaxClient talks to the remote CMS through its admin-AJAX endpoint. It is
// the fallback write channel when the REST API is blocked at the hosting
// layer, and the primary channel for base64 media uploads.
type AjaxClient struct {
	endpoint string
	username string
	password string
	logger   *zap.Logger
	client   *http.Client
}

// AjaxOptions configures an AjaxClient.
type AjaxOptions struct {
	// Endpoint is the full admin-AJAX URL, e.g.
	// https://cms.example.com/wp-admin/admin-ajax.php.
	Endpoint string
	Username string
	Password string
	Logger   *zap.Logger
}

// NewAjaxClient builds an admin-AJAX client for the remote CMS.
func NewAjaxClient(opts AjaxOptions) *AjaxClient {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AjaxClient{
		endpoint: opts.Endpoint,
		username: opts.Username,
		password: opts.Password,
		logger:   logger,
		client:   &http.Client{Timeout: ajaxTimeout},
	}
}

func (c *AjaxClient) Name() string { return "ajax" }

type ajaxEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func (c *AjaxClient) post(ctx context.Context, op, action string, form url.Values, out interface{}) error {
	form.Set("action", action)
	form.Set("username", c.username)
	form.Set("app_password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &faults.TransportError{Transport: c.Name(), Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return &faults.TransportError{Transport: c.Name(), Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.logger.Warn("remote ajax request failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode))
		return &faults.TransportError{
			Transport:  c.Name(),
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}

	var envelope ajaxEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &faults.TransportError{Transport: c.Name(), Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !envelope.Success {
		// admin-ajax reports application failures with HTTP 200 and
		// success=false; surface them as non-retryable responses.
		return &faults.TransportError{
			Transport:  c.Name(),
			Op:         op,
			StatusCode: http.StatusBadRequest,
			Body:       string(envelope.Data),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &faults.TransportError{Transport: c.Name(), Op: op, Err: fmt.Errorf("decode payload: %w", err)}
	}
	return nil
}

func (c *AjaxClient) CreatePost(ctx context.Context, in PostInput) (*PostRef, error) {
	return c.writePost(ctx, "create post", ajaxActionCreatePost, 0, in)
}

func (c *AjaxClient) UpdatePost(ctx context.Context, remoteID int64, in PostInput) (*PostRef, error) {
	return c.writePost(ctx, "update post", ajaxActionUpdatePost, remoteID, in)
}

func (c *AjaxClient) writePost(ctx context.Context, op, action string, remoteID int64, in PostInput) (*PostRef, error) {
	form := url.Values{}
	form.Set("title", in.Title)
	form.Set("content", in.Content)
	form.Set("excerpt", in.Excerpt)
	form.Set("status", in.Status)
	if in.Slug != "" {
		form.Set("slug", in.Slug)
	}
	if in.FeaturedMedia > 0 {
		form.Set("featured_media", strconv.FormatInt(in.FeaturedMedia, 10))
	}
	if remoteID > 0 {
		form.Set("post_id", strconv.FormatInt(remoteID, 10))
	}

	var ref PostRef
	if err := c.post(ctx, op, action, form, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (c *AjaxClient) DeletePost(ctx context.Context, remoteID int64) error {
	form := url.Values{}
	form.Set("post_id", strconv.FormatInt(remoteID, 10))
	return c.post(ctx, "delete post", ajaxActionDeletePost, form, nil)
}

// UploadMedia sends the file base64-encoded in the form body.
func (c *AjaxClient) UploadMedia(ctx context.Context, up MediaUpload) (*MediaRef, error) {
	form := url.Values{}
	form.Set("filename", up.Filename)
	form.Set("mime_type", up.MimeType)
	form.Set("file_data", base64.StdEncoding.EncodeToString(up.Data))

	var ref MediaRef
	if err := c.post(ctx, "upload media", ajaxActionUploadMedia, form, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}
