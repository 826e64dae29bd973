package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cargoport/core/internal/pkg/faults"
	"go.uber.org/zap"
)

const (
	restMetadataTimeout = 10 * time.Second
	restWriteTimeout    = 40 * time.Second

	// maxErrorBodyBytes bounds how much of a failed response is retained
	// for diagnostics.
	maxErrorBodyBytes = 4 << 10
)

// RESTClient talks to the remote CMS REST API. It implements both Reader
// and Transport.
type RESTClient struct {
	baseURL  string
	username string
	password string
	logger   *zap.Logger

	short *http.Client
	long  *http.Client
}

// RESTOptions configures a RESTClient.
type RESTOptions struct {
	// BaseURL is the full REST root, e.g. https://cms.example.com/wp-json/wp/v2.
	BaseURL  string
	Username string
	Password string
	Logger   *zap.Logger
}

// NewRESTClient builds a REST client for the remote CMS.
func NewRESTClient(opts RESTOptions) *RESTClient {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RESTClient{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		username: opts.Username,
		password: opts.Password,
		logger:   logger,
		short:    &http.Client{Timeout: restMetadataTimeout},
		long:     &http.Client{Timeout: restWriteTimeout},
	}
}

func (c *RESTClient) Name() string { return "rest" }

func (c *RESTClient) authHeader() string {
	if c.username == "" {
		return ""
	}
	token := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
	return "Basic " + token
}

func (c *RESTClient) do(ctx context.Context, client *http.Client, op, method, path string, query url.Values, body io.Reader, contentType string, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &faults.TransportError{Transport: c.Name(), Op: op, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth := c.authHeader(); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &faults.TransportError{Transport: c.Name(), Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.logger.Warn("remote rest request failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode))
		return &faults.TransportError{
			Transport:  c.Name(),
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &faults.TransportError{Transport: c.Name(), Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// ListPosts fetches one page of posts with embedded media. An empty slice
// signals the end of the collection.
func (c *RESTClient) ListPosts(ctx context.Context, page, perPage int) ([]Post, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("_embed", "wp:featuredmedia")
	q.Set("status", "publish")

	var posts []Post
	err := c.do(ctx, c.short, "list posts", http.MethodGet, "/posts", q, nil, "", &posts)
	if err != nil {
		// The remote answers 400 with rest_post_invalid_page_number when
		// paging past the end; treat that as an empty page.
		var te *faults.TransportError
		if asTransport(err, &te) && te.StatusCode == http.StatusBadRequest &&
			strings.Contains(te.Body, "rest_post_invalid_page_number") {
			return nil, nil
		}
		return nil, err
	}
	return posts, nil
}

func (c *RESTClient) GetPost(ctx context.Context, remoteID int64) (*Post, error) {
	q := url.Values{}
	q.Set("_embed", "wp:featuredmedia")

	var post Post
	err := c.do(ctx, c.short, "get post", http.MethodGet, "/posts/"+strconv.FormatInt(remoteID, 10), q, nil, "", &post)
	if err != nil {
		var te *faults.TransportError
		if asTransport(err, &te) && te.StatusCode == http.StatusNotFound {
			return nil, faults.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (c *RESTClient) GetMedia(ctx context.Context, mediaID int64) (*Media, error) {
	var media Media
	err := c.do(ctx, c.short, "get media", http.MethodGet, "/media/"+strconv.FormatInt(mediaID, 10), nil, nil, "", &media)
	if err != nil {
		var te *faults.TransportError
		if asTransport(err, &te) && te.StatusCode == http.StatusNotFound {
			return nil, faults.ErrNotFound
		}
		return nil, err
	}
	return &media, nil
}

func (c *RESTClient) ListMediaByParent(ctx context.Context, postID int64) ([]Media, error) {
	q := url.Values{}
	q.Set("parent", strconv.FormatInt(postID, 10))
	q.Set("per_page", "100")

	var media []Media
	if err := c.do(ctx, c.short, "list media", http.MethodGet, "/media", q, nil, "", &media); err != nil {
		return nil, err
	}
	return media, nil
}

func (c *RESTClient) ListCategories(ctx context.Context) ([]Term, error) {
	return c.listTerms(ctx, "list categories", "/categories")
}

func (c *RESTClient) ListTags(ctx context.Context) ([]Term, error) {
	return c.listTerms(ctx, "list tags", "/tags")
}

func (c *RESTClient) listTerms(ctx context.Context, op, path string) ([]Term, error) {
	q := url.Values{}
	q.Set("per_page", "100")
	q.Set("hide_empty", "false")

	var terms []Term
	if err := c.do(ctx, c.short, op, http.MethodGet, path, q, nil, "", &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

func (c *RESTClient) CreatePost(ctx context.Context, in PostInput) (*PostRef, error) {
	return c.writePost(ctx, "create post", http.MethodPost, "/posts", in)
}

func (c *RESTClient) UpdatePost(ctx context.Context, remoteID int64, in PostInput) (*PostRef, error) {
	return c.writePost(ctx, "update post", http.MethodPost, "/posts/"+strconv.FormatInt(remoteID, 10), in)
}

func (c *RESTClient) writePost(ctx context.Context, op, method, path string, in PostInput) (*PostRef, error) {
	payload := map[string]interface{}{
		"title":   in.Title,
		"content": in.Content,
		"excerpt": in.Excerpt,
		"status":  in.Status,
	}
	if in.Slug != "" {
		payload["slug"] = in.Slug
	}
	if in.FeaturedMedia > 0 {
		payload["featured_media"] = in.FeaturedMedia
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &faults.TransportError{Transport: c.Name(), Op: op, Err: err}
	}

	var ref PostRef
	if err := c.do(ctx, c.long, op, method, path, nil, bytes.NewReader(body), "application/json", &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (c *RESTClient) DeletePost(ctx context.Context, remoteID int64) error {
	q := url.Values{}
	q.Set("force", "true")
	err := c.do(ctx, c.long, "delete post", http.MethodDelete, "/posts/"+strconv.FormatInt(remoteID, 10), q, nil, "", nil)
	if err != nil {
		var te *faults.TransportError
		if asTransport(err, &te) && te.StatusCode == http.StatusNotFound {
			return faults.ErrNotFound
		}
		return err
	}
	return nil
}

// UploadMedia sends the file as multipart form data.
func (c *RESTClient) UploadMedia(ctx context.Context, up MediaUpload) (*MediaRef, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", up.Filename)
	if err != nil {
		return nil, &faults.TransportError{Transport: c.Name(), Op: "upload media", Err: err}
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, &faults.TransportError{Transport: c.Name(), Op: "upload media", Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &faults.TransportError{Transport: c.Name(), Op: "upload media", Err: err}
	}

	var decoded struct {
		ID        int64  `json:"id"`
		SourceURL string `json:"source_url"`
	}
	if err := c.do(ctx, c.long, "upload media", http.MethodPost, "/media", nil, &buf, writer.FormDataContentType(), &decoded); err != nil {
		return nil, err
	}
	return &MediaRef{ID: decoded.ID, URL: decoded.SourceURL}, nil
}

func asTransport(err error, target **faults.TransportError) bool {
	te, ok := faults.AsTransport(err)
	if ok {
		*target = te
	}
	return ok
}
