package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cargoport/core/internal/models"
	"github.com/cargoport/core/internal/modules/cache"
	"github.com/cargoport/core/internal/modules/publish"
	"github.com/cargoport/core/internal/pkg/faults"
	"github.com/cargoport/core/internal/pkg/retry"
	"github.com/cargoport/core/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	items     map[string]*models.ContentModel
	loadCalls int
}

func newStubStore() *stubStore {
	return &stubStore{items: make(map[string]*models.ContentModel)}
}

func (s *stubStore) ByLocalID(_ context.Context, localID string) (*models.ContentModel, error) {
	s.loadCalls++
	if item, ok := s.items[localID]; ok {
		clone := *item
		return &clone, nil
	}
	return nil, nil
}

func (s *stubStore) ByRemoteID(_ context.Context, remoteID int64) (*models.ContentModel, error) {
	for _, item := range s.items {
		if item.RemoteID != nil && *item.RemoteID == remoteID {
			clone := *item
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *stubStore) BySlug(_ context.Context, slug string) (*models.ContentModel, error) {
	for _, item := range s.items {
		if item.Slug == slug {
			clone := *item
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *stubStore) List(_ context.Context, _, _ int) ([]models.ContentModel, int64, error) {
	out := make([]models.ContentModel, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item)
	}
	return out, int64(len(out)), nil
}

func (s *stubStore) Create(_ context.Context, item *models.ContentModel) error {
	if item.ID == "" {
		item.ID = "generated-id"
	}
	clone := *item
	s.items[item.ID] = &clone
	return nil
}

func (s *stubStore) Save(_ context.Context, item *models.ContentModel) error {
	clone := *item
	s.items[item.ID] = &clone
	return nil
}

func (s *stubStore) Delete(_ context.Context, localID string) error {
	delete(s.items, localID)
	return nil
}

type stubBackups struct {
	entries []models.DeletedContentBackupModel
}

func (b *stubBackups) Append(_ context.Context, entry *models.DeletedContentBackupModel) error {
	b.entries = append(b.entries, *entry)
	return nil
}

func (b *stubBackups) LatestByRemoteID(_ context.Context, _ int64) (*models.DeletedContentBackupModel, error) {
	return nil, nil
}

func (b *stubBackups) LatestBySlug(_ context.Context, _ string) (*models.DeletedContentBackupModel, error) {
	return nil, nil
}

func (b *stubBackups) List(_ context.Context, _ int) ([]models.DeletedContentBackupModel, error) {
	return b.entries, nil
}

type stubTransport struct {
	deletes int
}

func (t *stubTransport) Name() string { return "rest" }

func (t *stubTransport) CreatePost(_ context.Context, _ remote.PostInput) (*remote.PostRef, error) {
	return &remote.PostRef{ID: 88, Slug: "fleet-update", Link: "https://cms.example/fleet-update"}, nil
}

func (t *stubTransport) UpdatePost(_ context.Context, id int64, _ remote.PostInput) (*remote.PostRef, error) {
	return &remote.PostRef{ID: id, Slug: "fleet-update"}, nil
}

func (t *stubTransport) DeletePost(_ context.Context, _ int64) error {
	t.deletes++
	return nil
}

func (t *stubTransport) UploadMedia(_ context.Context, _ remote.MediaUpload) (*remote.MediaRef, error) {
	return nil, errors.New("not used")
}

func newContentService(store *stubStore, backups *stubBackups, transport *stubTransport) *Service {
	c := cache.New(cache.NewMemoryStore(0), cache.TTLs{Default: time.Minute}, nil)
	pipeline := publish.New(transport, nil, retry.Policy{PrimaryAttempts: 1}, nil)
	return NewService(store, backups, c, pipeline, nil, nil)
}

func TestGetServesFromCacheAfterFirstLoad(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.items["c1"] = &models.ContentModel{Base: models.Base{ID: "c1"}, Title: "Cached"}
	svc := newContentService(store, &stubBackups{}, &stubTransport{})

	first, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Cached", first.Title)

	_, err = svc.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.loadCalls, "second read must come from the cache")
}

func TestGetUnknownIDReturnsNotFound(t *testing.T) {
	svc := newContentService(newStubStore(), &stubBackups{}, &stubTransport{})
	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, faults.ErrNotFound)
}

func TestCreateDraftCleansGallery(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	svc := newContentService(store, &stubBackups{}, &stubTransport{})

	item, err := svc.CreateDraft(ctx, DraftInput{
		Title:            "New route",
		Text:             `<p>Route</p><img src="https://img/inline.jpg">`,
		FeaturedImageURL: "https://img/hero.jpg",
		GalleryImageURLs: []string{
			"https://img/hero.jpg",
			"https://img/inline.jpg",
			"https://img/a.jpg",
			"https://img/a.jpg",
			"",
		},
	}, "Dispatch Team")
	require.NoError(t, err)
	assert.Equal(t, models.StringArray{"https://img/a.jpg"}, item.GalleryImageURLs)
	assert.Equal(t, models.StatusDraft, item.Status)
	assert.Equal(t, "Dispatch Team", item.Author)
}

func TestPublishPersistsRemoteIdentity(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.items["p1"] = &models.ContentModel{
		Base:  models.Base{ID: "p1"},
		Title: "Fleet update",
		Text:  "Body text",
	}
	svc := newContentService(store, &stubBackups{}, &stubTransport{})

	item, result, err := svc.Publish(ctx, "p1", publish.TransportPrimary, true)
	require.NoError(t, err)
	require.NotNil(t, item.RemoteID)
	assert.Equal(t, int64(88), *item.RemoteID)
	assert.Equal(t, "fleet-update", item.Slug)
	assert.True(t, item.SyncedToRemote)
	assert.NotNil(t, item.PublishedAt)
	assert.Equal(t, models.StatusPublished, item.Status)
	assert.Equal(t, "primary", result.Transport)

	stored := store.items["p1"]
	require.NotNil(t, stored.RemoteID, "the remote identity must be persisted")
}

func TestDeleteAppendsBackupAndRemovesRemote(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	backups := &stubBackups{}
	transport := &stubTransport{}
	remoteID := int64(14)
	store.items["d1"] = &models.ContentModel{
		Base:     models.Base{ID: "d1"},
		RemoteID: &remoteID,
		Slug:     "doomed",
	}
	svc := newContentService(store, backups, transport)

	require.NoError(t, svc.Delete(ctx, "d1"))
	assert.Empty(t, store.items)
	assert.Equal(t, 1, transport.deletes)
	require.Len(t, backups.entries, 1)
	assert.Equal(t, "d1", backups.entries[0].LocalID)
	require.NotNil(t, backups.entries[0].RemoteID)
	assert.Equal(t, int64(14), *backups.entries[0].RemoteID)
}
