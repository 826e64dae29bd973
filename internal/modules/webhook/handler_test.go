package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cargoport/core/internal/models"
	syncmod "github.com/cargoport/core/internal/modules/sync"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	items map[string]*models.ContentModel
}

func (s *memoryStore) ByLocalID(_ context.Context, localID string) (*models.ContentModel, error) {
	return s.items[localID], nil
}

func (s *memoryStore) ByRemoteID(_ context.Context, remoteID int64) (*models.ContentModel, error) {
	for _, item := range s.items {
		if item.RemoteID != nil && *item.RemoteID == remoteID {
			return item, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) BySlug(_ context.Context, slug string) (*models.ContentModel, error) {
	for _, item := range s.items {
		if item.Slug == slug {
			return item, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) List(_ context.Context, _, _ int) ([]models.ContentModel, int64, error) {
	return nil, 0, nil
}

func (s *memoryStore) Create(_ context.Context, item *models.ContentModel) error {
	s.items[item.ID] = item
	return nil
}

func (s *memoryStore) Save(_ context.Context, item *models.ContentModel) error {
	s.items[item.ID] = item
	return nil
}

func (s *memoryStore) Delete(_ context.Context, localID string) error {
	delete(s.items, localID)
	return nil
}

func newTestRouter(secret string) (*gin.Engine, *memoryStore) {
	gin.SetMode(gin.TestMode)
	store := &memoryStore{items: make(map[string]*models.ContentModel)}
	svc := syncmod.NewService(store, nil, nil, nil, syncmod.Options{}, nil)

	router := gin.New()
	group := router.Group("/api/v1")
	NewHandler(svc, secret, nil).Register(group)
	return router, store
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

const createdEvent = `{"kind":"created","post":{"id":12,"slug":"fleet-update","title":"Fleet update","status":"publish"}}`

func TestWebhookRejectsBadSignature(t *testing.T) {
	router, store := newTestRouter("topsecret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/cms", bytes.NewBufferString(createdEvent))
	req.Header.Set("X-Cargoport-Signature", "deadbeef")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, store.items)
}

func TestWebhookAcceptsSignedEvent(t *testing.T) {
	router, store := newTestRouter("topsecret")

	body := []byte(createdEvent)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/cms", bytes.NewBuffer(body))
	req.Header.Set("X-Cargoport-Signature", sign("topsecret", body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.items, 1)
	for _, item := range store.items {
		assert.Equal(t, "fleet-update", item.Slug)
		assert.Equal(t, "Fleet update", item.Title)
	}
}

func TestWebhookWithoutSecretSkipsVerification(t *testing.T) {
	router, store := newTestRouter("")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/cms", bytes.NewBufferString(createdEvent))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.items, 1)
}

func TestWebhookRejectsMissingKind(t *testing.T) {
	router, _ := newTestRouter("")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/cms", bytes.NewBufferString(`{"post":{"id":1}}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
