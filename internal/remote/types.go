// Package remote models the external CMS as a black-box HTTP collaborator.
// Payloads from the remote are heterogeneous and sometimes absent; this
// package is the only place loose shapes are tolerated, everything is
// normalized here before it crosses into the rest of the core.
package remote

import (
	"encoding/json"
	"strings"
	"time"
)

// Remote status vocabulary.
const (
	RemoteStatusDraft   = "draft"
	RemoteStatusPublish = "publish"
)

// RenderedText decodes fields the remote serves either as a bare string or
// as {"rendered": "..."}.
type RenderedText string

func (r *RenderedText) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*r = ""
		return nil
	}

	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*r = RenderedText(plain)
		return nil
	}

	var wrapped struct {
		Rendered string `json:"rendered"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*r = RenderedText(wrapped.Rendered)
	return nil
}

func (r RenderedText) String() string { return string(r) }

// RemoteTime decodes the remote's timestamp formats (with and without zone).
type RemoteTime struct {
	time.Time
}

var remoteTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *RemoteTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range remoteTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	// Unknown format: treat as absent rather than failing the whole decode.
	t.Time = time.Time{}
	return nil
}

// Post is a normalized remote post.
type Post struct {
	ID            int64        `json:"id"`
	Date          RemoteTime   `json:"date"`
	Modified      RemoteTime   `json:"modified"`
	Slug          string       `json:"slug"`
	Status        string       `json:"status"`
	Title         RenderedText `json:"title"`
	Excerpt       RenderedText `json:"excerpt"`
	Content       RenderedText `json:"content"`
	AuthorName    string       `json:"author_name"`
	FeaturedMedia int64        `json:"featured_media"`
	Categories    []int64      `json:"categories"`
	Tags          []int64      `json:"tags"`
	Embedded      *Embedded    `json:"_embedded,omitempty"`
}

// Embedded carries media supplied inline with a page response.
type Embedded struct {
	FeaturedMedia []Media `json:"wp:featuredmedia"`
}

// EmbeddedFeaturedURL returns the inline featured image URL, if supplied.
func (p *Post) EmbeddedFeaturedURL() string {
	if p.Embedded == nil || len(p.Embedded.FeaturedMedia) == 0 {
		return ""
	}
	return p.Embedded.FeaturedMedia[0].SourceURL
}

// Media is a normalized remote media attachment.
type Media struct {
	ID        int64  `json:"id"`
	Parent    int64  `json:"post"`
	SourceURL string `json:"source_url"`
	MimeType  string `json:"mime_type"`
	MediaType string `json:"media_type"`
}

// Term is a remote category or tag.
type Term struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// PostInput is the payload for create/update against either transport.
type PostInput struct {
	Title         string
	Content       string
	Excerpt       string
	Slug          string
	Status        string // draft | publish
	FeaturedMedia int64
}

// PostRef is the remote identity assigned on a successful write.
type PostRef struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Link string `json:"link"`
}

// MediaUpload is the payload for an upload through either transport.
type MediaUpload struct {
	Filename string
	MimeType string
	Data     []byte
}

// MediaRef is the remote identity of an uploaded asset.
type MediaRef struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// WebhookEvent is the change notification pushed by the remote CMS.
type WebhookEvent struct {
	Kind string `json:"kind"` // created | updated | deleted
	Post Post   `json:"post"`
}

// Event kinds accepted by the ingestion handler.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)
