// Package sync implements full reconciliation between the remote CMS and the
// local content store: paging through remote posts, resolving images, and
// merging each post through the one shared merge rule.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/cargoport/core/internal/models"
	"github.com/cargoport/core/internal/modules/backupstore"
	"github.com/cargoport/core/internal/modules/cache"
	"github.com/cargoport/core/internal/modules/content"
	"github.com/cargoport/core/internal/remote"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// insertIDNamespace seeds deterministic local ids for brand-new remote posts
// so a retried page never mints a second id for the same post.
var insertIDNamespace = uuid.MustParse("7b0c8a52-08b4-4b2e-9f31-cd52e2b2a6f0")

// Report summarizes one reconciliation run. Partial runs still return a
// Report next to the error so the caller sees what landed.
type Report struct {
	Inserted         int    `json:"inserted"`
	Updated          int    `json:"updated"`
	Skipped          int    `json:"skipped"`
	Deleted          int    `json:"deleted"`
	Pages            int    `json:"pages"`
	UsedFallbackData bool   `json:"usedFallbackData"`
	Partial          bool   `json:"partial"`
	FailureDetail    string `json:"failureDetail,omitempty"`
}

// Options tunes a reconciler.
type Options struct {
	PageSize      int
	AllowFallback bool
}

// Service is the identity reconciler.
type Service struct {
	store   content.Store
	backups backupstore.Store
	reader  remote.Reader
	cache   *cache.Cache
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a reconciler over the local store, the deletion backups,
// and the remote read API.
func NewService(store content.Store, backups backupstore.Store, reader remote.Reader, c *cache.Cache, opts Options, logger *zap.Logger) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		backups: backups,
		reader:  reader,
		cache:   c,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Reconcile pages through the remote CMS until an empty page and merges every
// post into the local store. A transport failure past the first page stops
// pagination and reports the partial result; a failure on the first page
// falls back to sample data when enabled.
func (s *Service) Reconcile(ctx context.Context) (*Report, error) {
	report := &Report{}

	for page := 1; ; page++ {
		posts, err := s.reader.ListPosts(ctx, page, s.opts.PageSize)
		if err != nil {
			if page == 1 {
				return s.reconcileFallback(ctx, report, err)
			}
			report.Partial = true
			report.FailureDetail = err.Error()
			s.logger.Warn("reconcile stopped mid-pagination",
				zap.Int("page", page),
				zap.Error(err))
			break
		}
		if len(posts) == 0 {
			break
		}

		report.Pages++
		for i := range posts {
			if err := s.reconcilePost(ctx, &posts[i], report); err != nil {
				return report, err
			}
		}
	}

	s.finish(ctx, report)
	return report, nil
}

func (s *Service) reconcileFallback(ctx context.Context, report *Report, cause error) (*Report, error) {
	if !s.opts.AllowFallback {
		return report, cause
	}

	s.logger.Warn("remote unreachable, reconciling sample data", zap.Error(cause))
	report.UsedFallbackData = true
	for _, post := range SamplePosts() {
		p := post
		if err := s.reconcilePost(ctx, &p, report); err != nil {
			return report, err
		}
	}
	s.finish(ctx, report)
	return report, nil
}

func (s *Service) finish(ctx context.Context, report *Report) {
	if report.Inserted+report.Updated+report.Deleted > 0 && s.cache != nil {
		s.cache.InvalidateContent(ctx)
	}
	s.logger.Info("reconcile finished",
		zap.Int("inserted", report.Inserted),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Bool("partial", report.Partial),
		zap.Bool("fallback", report.UsedFallbackData))
}

// reconcilePost decides the path for one remote post: update a known local
// item, restore a previously deleted identity, or insert fresh.
func (s *Service) reconcilePost(ctx context.Context, post *remote.Post, report *Report) error {
	existing, err := s.store.ByRemoteID(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("lookup by remote id %d: %w", post.ID, err)
	}

	if existing != nil {
		if s.unchanged(existing, post) {
			report.Skipped++
			return nil
		}
		images := s.resolveImages(ctx, post)
		MergeRemotePost(existing, post, images, s.now())
		if err := s.store.Save(ctx, existing); err != nil {
			return fmt.Errorf("save content %s: %w", existing.ID, err)
		}
		report.Updated++
		return nil
	}

	item := &models.ContentModel{}
	if backup := s.matchBackup(ctx, post); backup != nil {
		// Restore path: reuse the deleted record's local id so links to it
		// survive the delete/restore cycle.
		item.ID = backup.LocalID
	} else {
		item.ID = insertLocalID(post)
	}

	images := s.resolveImages(ctx, post)
	MergeRemotePost(item, post, images, s.now())
	if err := s.store.Create(ctx, item); err != nil {
		return fmt.Errorf("create content for remote %d: %w", post.ID, err)
	}
	report.Inserted++
	return nil
}

// unchanged reports whether the remote post has not moved since the last
// sync of the local record.
func (s *Service) unchanged(local *models.ContentModel, post *remote.Post) bool {
	if local.LastSyncAt == nil || post.Modified.IsZero() {
		return false
	}
	return !post.Modified.After(*local.LastSyncAt)
}

func (s *Service) matchBackup(ctx context.Context, post *remote.Post) *models.DeletedContentBackupModel {
	if s.backups == nil {
		return nil
	}
	if backup, err := s.backups.LatestByRemoteID(ctx, post.ID); err == nil && backup != nil {
		return backup
	}
	if post.Slug == "" {
		return nil
	}
	if backup, err := s.backups.LatestBySlug(ctx, post.Slug); err == nil && backup != nil {
		return backup
	}
	return nil
}

// insertLocalID derives the local id from the remote id and creation
// timestamp, so a retried page maps the same post to the same id.
func insertLocalID(post *remote.Post) string {
	seed := fmt.Sprintf("%d|%d", post.ID, post.Date.Unix())
	return uuid.NewSHA1(insertIDNamespace, []byte(seed)).String()
}

// resolveImages gathers the featured image and gallery candidates for one
// post: embedded media first, then a fetch by featured-media reference, then
// attachments by parent minus the featured URL. Lookup failures degrade to
// fewer images, never to a failed merge.
func (s *Service) resolveImages(ctx context.Context, post *remote.Post) RemoteImages {
	images := RemoteImages{}

	if url := post.EmbeddedFeaturedURL(); url != "" {
		images.FeaturedURL = url
	} else if post.FeaturedMedia > 0 && s.reader != nil {
		media, err := s.reader.GetMedia(ctx, post.FeaturedMedia)
		if err != nil {
			s.logger.Warn("featured media lookup failed",
				zap.Int64("post", post.ID),
				zap.Int64("media", post.FeaturedMedia),
				zap.Error(err))
		} else if media != nil {
			images.FeaturedURL = media.SourceURL
		}
	}

	if s.reader != nil {
		attachments, err := s.reader.ListMediaByParent(ctx, post.ID)
		if err != nil {
			s.logger.Warn("attachment lookup failed",
				zap.Int64("post", post.ID),
				zap.Error(err))
		}
		for _, att := range attachments {
			if att.SourceURL == "" || att.SourceURL == images.FeaturedURL {
				continue
			}
			if att.MediaType != "" && att.MediaType != "image" {
				continue
			}
			images.AttachmentURLs = append(images.AttachmentURLs, att.SourceURL)
		}
	}

	return images
}

// HandleEvent applies one webhook notification from the remote CMS. Created
// and updated events run the same per-post reconciliation as a batch run;
// deleted events drop the matching local record and are a no-op when nothing
// matches. Replays converge on the same state.
func (s *Service) HandleEvent(ctx context.Context, event *remote.WebhookEvent) (*Report, error) {
	report := &Report{}

	switch event.Kind {
	case remote.EventCreated, remote.EventUpdated:
		post := event.Post
		if err := s.reconcilePost(ctx, &post, report); err != nil {
			return report, err
		}
	case remote.EventDeleted:
		existing, err := s.store.ByRemoteID(ctx, event.Post.ID)
		if err != nil {
			return report, err
		}
		if existing == nil {
			// Already gone locally; the event may trail a local deletion.
			return report, nil
		}
		if err := s.deleteLocal(ctx, existing); err != nil {
			return report, err
		}
		report.Deleted++
	default:
		return report, fmt.Errorf("unknown webhook event kind %q", event.Kind)
	}

	s.finish(ctx, report)
	return report, nil
}

// deleteLocal removes a content row and appends its identity to the backup
// log first, so a later restore can reclaim the local id.
func (s *Service) deleteLocal(ctx context.Context, item *models.ContentModel) error {
	if s.backups != nil {
		entry := &models.DeletedContentBackupModel{
			LocalID:   item.ID,
			RemoteID:  item.RemoteID,
			Slug:      item.Slug,
			DeletedAt: s.now(),
		}
		if err := s.backups.Append(ctx, entry); err != nil {
			return fmt.Errorf("append deletion backup for %s: %w", item.ID, err)
		}
	}
	return s.store.Delete(ctx, item.ID)
}
