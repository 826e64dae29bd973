// Package content exposes the local article store to the HTTP layer: cached
// reads, draft management, publishing, and the delete flow that feeds the
// deletion backup log.
package content

import (
	"context"
	"time"

	"github.com/cargoport/core/internal/models"
	"github.com/cargoport/core/internal/modules/backupstore"
	"github.com/cargoport/core/internal/modules/cache"
	"github.com/cargoport/core/internal/modules/publish"
	"github.com/cargoport/core/internal/pkg/faults"
	"github.com/cargoport/core/internal/pkg/htmlscan"
	"github.com/cargoport/core/internal/remote"
	"go.uber.org/zap"
)

// ListPage is the cached shape of one content list page.
type ListPage struct {
	Items []models.ContentModel `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Size  int                   `json:"size"`
}

// DraftInput carries the editable fields of a local draft.
type DraftInput struct {
	Title            string   `json:"title" binding:"required"`
	Slug             string   `json:"slug"`
	Excerpt          string   `json:"excerpt"`
	Text             string   `json:"text" binding:"required"`
	Status           string   `json:"status"`
	FeaturedImageURL string   `json:"featured_image_url"`
	GalleryImageURLs []string `json:"gallery_image_urls"`
}

// Service is the content application service.
type Service struct {
	store    Store
	backups  backupstore.Store
	cache    *cache.Cache
	pipeline *publish.Pipeline
	reader   remote.Reader
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the content service.
func NewService(store Store, backups backupstore.Store, c *cache.Cache, pipeline *publish.Pipeline, reader remote.Reader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		backups:  backups,
		cache:    c,
		pipeline: pipeline,
		reader:   reader,
		logger:   logger,
		now:      time.Now,
	}
}

// List serves one page of content, cache first.
func (s *Service) List(ctx context.Context, page, size int) (*ListPage, error) {
	var cached ListPage
	if s.cache != nil && s.cache.GetPostList(ctx, page, size, &cached) {
		return &cached, nil
	}

	items, total, err := s.store.List(ctx, page, size)
	if err != nil {
		return nil, err
	}

	result := &ListPage{Items: items, Total: total, Page: page, Size: size}
	if s.cache != nil {
		s.cache.SetPostList(ctx, page, size, result)
	}
	return result, nil
}

// Get serves one item by local id, cache first.
func (s *Service) Get(ctx context.Context, localID string) (*models.ContentModel, error) {
	var cached models.ContentModel
	if s.cache != nil && s.cache.GetPost(ctx, localID, &cached) {
		return &cached, nil
	}

	item, err := s.store.ByLocalID(ctx, localID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, faults.ErrNotFound
	}
	if s.cache != nil {
		s.cache.SetPost(ctx, localID, item)
	}
	return item, nil
}

// Categories lists remote categories, cache first.
func (s *Service) Categories(ctx context.Context) ([]remote.Term, error) {
	var cached []remote.Term
	if s.cache != nil && s.cache.GetCategories(ctx, &cached) {
		return cached, nil
	}

	terms, err := s.reader.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetCategories(ctx, terms)
	}
	return terms, nil
}

// Tags lists remote tags, cache first.
func (s *Service) Tags(ctx context.Context) ([]remote.Term, error) {
	var cached []remote.Term
	if s.cache != nil && s.cache.GetTags(ctx, &cached) {
		return cached, nil
	}

	terms, err := s.reader.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetTags(ctx, terms)
	}
	return terms, nil
}

// CreateDraft stores a brand-new local draft. It never touches the remote.
func (s *Service) CreateDraft(ctx context.Context, in DraftInput, author string) (*models.ContentModel, error) {
	item := &models.ContentModel{
		Slug:             in.Slug,
		Title:            in.Title,
		Excerpt:          in.Excerpt,
		Text:             in.Text,
		Status:           models.StatusDraft,
		Author:           author,
		FeaturedImageURL: in.FeaturedImageURL,
		GalleryImageURLs: cleanGallery(in.GalleryImageURLs, in.FeaturedImageURL, in.Text),
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return item, nil
}

// UpdateDraft edits a local item without publishing.
func (s *Service) UpdateDraft(ctx context.Context, localID string, in DraftInput) (*models.ContentModel, error) {
	item, err := s.store.ByLocalID(ctx, localID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, faults.ErrNotFound
	}

	item.Title = in.Title
	item.Excerpt = in.Excerpt
	item.Text = in.Text
	if in.Slug != "" {
		item.Slug = in.Slug
	}
	item.FeaturedImageURL = in.FeaturedImageURL
	item.GalleryImageURLs = cleanGallery(in.GalleryImageURLs, in.FeaturedImageURL, in.Text)

	if err := s.store.Save(ctx, item); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return item, nil
}

// cleanGallery drops duplicates, the featured URL, and body-inline image
// URLs from a caller-supplied gallery.
func cleanGallery(urls []string, featuredURL, body string) models.StringArray {
	excluded := map[string]struct{}{}
	if featuredURL != "" {
		excluded[featuredURL] = struct{}{}
	}
	for _, src := range htmlscan.InlineImageURLs(body) {
		excluded[src] = struct{}{}
	}

	gallery := models.StringArray{}
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, skip := excluded[u]; skip {
			continue
		}
		gallery = gallery.AppendUnique(u)
	}
	return gallery
}

// Publish runs the pipeline for a local item and persists the remote
// identity it returns.
func (s *Service) Publish(ctx context.Context, localID string, choice publish.TransportChoice, publishNow bool) (*models.ContentModel, *publish.Result, error) {
	item, err := s.store.ByLocalID(ctx, localID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, faults.ErrNotFound
	}

	if publishNow {
		item.Status = models.StatusPublished
	}

	result, err := s.pipeline.Publish(ctx, item, choice)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	item.RemoteID = &result.RemoteID
	if result.Slug != "" {
		item.Slug = result.Slug
	}
	item.SyncedToRemote = true
	item.LastSyncAt = &now
	if item.Status == models.StatusPublished && item.PublishedAt == nil {
		item.PublishedAt = &now
	}

	if err := s.store.Save(ctx, item); err != nil {
		return nil, nil, err
	}
	s.invalidate(ctx)
	return item, result, nil
}

// Delete removes a local item: its identity goes to the backup log first,
// then the remote counterpart is deleted, then the local row.
func (s *Service) Delete(ctx context.Context, localID string) error {
	item, err := s.store.ByLocalID(ctx, localID)
	if err != nil {
		return err
	}
	if item == nil {
		return faults.ErrNotFound
	}

	if s.backups != nil {
		entry := &models.DeletedContentBackupModel{
			LocalID:   item.ID,
			RemoteID:  item.RemoteID,
			Slug:      item.Slug,
			DeletedAt: s.now(),
		}
		if err := s.backups.Append(ctx, entry); err != nil {
			return err
		}
	}

	if item.RemoteID != nil && s.pipeline != nil {
		if err := s.pipeline.Delete(ctx, *item.RemoteID); err != nil {
			// The backup row is already written; the reconciler will
			// restore identity if the remote copy survives.
			s.logger.Warn("remote delete failed",
				zap.String("local_id", item.ID),
				zap.Int64("remote_id", *item.RemoteID),
				zap.Error(err))
		}
	}

	if err := s.store.Delete(ctx, localID); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.DeletePost(ctx, localID)
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateContent(ctx)
	}
}
