// Package publish turns a local draft into a remote post. The pipeline is
// side-effect free on the local store: it returns the remote identity and
// the caller persists it.
package publish

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/cargoport/core/internal/models"
	"github.com/cargoport/core/internal/pkg/faults"
	"github.com/cargoport/core/internal/pkg/retry"
	"github.com/cargoport/core/internal/remote"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
)

// TransportChoice selects which transport leads the attempt order.
type TransportChoice string

const (
	TransportPrimary   TransportChoice = "primary"
	TransportSecondary TransportChoice = "secondary"
)

// Result is the outcome of a successful publish.
type Result struct {
	RemoteID  int64  `json:"remoteId"`
	Slug      string `json:"slug"`
	Link      string `json:"link,omitempty"`
	Transport string `json:"transport"`
	Attempts  int    `json:"attempts"`
}

// Pipeline publishes drafts over the REST transport with admin-AJAX
// fallback. Both channels share one retry policy.
type Pipeline struct {
	primary   remote.Transport
	secondary remote.Transport
	policy    retry.Policy
	markdown  goldmark.Markdown
	logger    *zap.Logger
}

// New builds a publish pipeline over the two write transports.
func New(primary, secondary remote.Transport, policy retry.Policy, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		primary:   primary,
		secondary: secondary,
		policy:    policy,
		markdown:  goldmark.New(),
		logger:    logger,
	}
}

var htmlTagPattern = regexp.MustCompile(`<[a-zA-Z][^>]*>`)

// renderBody converts a markdown draft body to HTML. Bodies that already
// carry HTML markup pass through untouched.
func (p *Pipeline) renderBody(body string) (string, error) {
	if htmlTagPattern.MatchString(body) {
		return body, nil
	}
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func mapStatus(status string) string {
	if status == models.StatusPublished {
		return remote.RemoteStatusPublish
	}
	return remote.RemoteStatusDraft
}

// Publish validates the draft, renders its body, and writes it to the
// remote CMS. choice selects which transport leads; the other one is the
// fallback. An existing RemoteID makes this an update instead of a create.
func (p *Pipeline) Publish(ctx context.Context, draft *models.ContentModel, choice TransportChoice) (*Result, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, &faults.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(draft.Text) == "" {
		return nil, &faults.ValidationError{Field: "body", Reason: "must not be empty"}
	}

	body, err := p.renderBody(draft.Text)
	if err != nil {
		return nil, &faults.ValidationError{Field: "body", Reason: "markdown rendering failed: " + err.Error()}
	}

	input := remote.PostInput{
		Title:   draft.Title,
		Content: body,
		Excerpt: draft.Excerpt,
		Slug:    draft.Slug,
		Status:  mapStatus(draft.Status),
	}

	first, second := p.primary, p.secondary
	if choice == TransportSecondary {
		first, second = second, first
	}

	var ref *remote.PostRef
	attempt := func(t remote.Transport) retry.AttemptFunc {
		return func(ctx context.Context) error {
			var err error
			if draft.RemoteID != nil {
				ref, err = t.UpdatePost(ctx, *draft.RemoteID, input)
			} else {
				ref, err = t.CreatePost(ctx, input)
			}
			return err
		}
	}

	var secondaryFn retry.AttemptFunc
	secondaryName := ""
	if second != nil {
		secondaryFn = attempt(second)
		secondaryName = second.Name()
	}

	outcome, err := p.policy.Do(ctx, "publish", first.Name(), secondaryName, attempt(first), secondaryFn)
	if err != nil {
		return nil, err
	}

	p.logger.Info("draft published",
		zap.String("local_id", draft.ID),
		zap.Int64("remote_id", ref.ID),
		zap.String("transport", outcome.Transport),
		zap.Int("attempts", outcome.Attempts))

	return &Result{
		RemoteID:  ref.ID,
		Slug:      ref.Slug,
		Link:      ref.Link,
		Transport: outcome.Transport,
		Attempts:  outcome.Attempts,
	}, nil
}

// Delete removes the remote counterpart of a local item, with the same
// transport fallback as Publish. Missing remote posts are not an error.
func (p *Pipeline) Delete(ctx context.Context, remoteID int64) error {
	attempt := func(t remote.Transport) retry.AttemptFunc {
		return func(ctx context.Context) error {
			err := t.DeletePost(ctx, remoteID)
			if faults.IsNotFound(err) {
				return nil
			}
			return err
		}
	}

	var secondaryFn retry.AttemptFunc
	secondaryName := ""
	if p.secondary != nil {
		secondaryFn = attempt(p.secondary)
		secondaryName = p.secondary.Name()
	}

	_, err := p.policy.Do(ctx, "delete post", p.primary.Name(), secondaryName, attempt(p.primary), secondaryFn)
	return err
}
