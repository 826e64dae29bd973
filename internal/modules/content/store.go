package content

import (
	"context"
	"errors"

	"github.com/cargoport/core/internal/models"
	"gorm.io/gorm"
)

// Store is the persistence boundary for content rows. The sync engine,
// webhook ingestion, and the HTTP layer all go through it, which keeps them
// testable without a database.
type Store interface {
	ByLocalID(ctx context.Context, localID string) (*models.ContentModel, error)
	ByRemoteID(ctx context.Context, remoteID int64) (*models.ContentModel, error)
	BySlug(ctx context.Context, slug string) (*models.ContentModel, error)
	List(ctx context.Context, page, size int) ([]models.ContentModel, int64, error)
	Create(ctx context.Context, item *models.ContentModel) error
	Save(ctx context.Context, item *models.ContentModel) error
	Delete(ctx context.Context, localID string) error
}

// GormStore implements Store on the application database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps the shared gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ByLocalID(ctx context.Context, localID string) (*models.ContentModel, error) {
	var item models.ContentModel
	err := s.db.WithContext(ctx).Where("id = ?", localID).First(&item).Error
	return oneOrNil(&item, err)
}

func (s *GormStore) ByRemoteID(ctx context.Context, remoteID int64) (*models.ContentModel, error) {
	var item models.ContentModel
	err := s.db.WithContext(ctx).Where("remote_id = ?", remoteID).First(&item).Error
	return oneOrNil(&item, err)
}

func (s *GormStore) BySlug(ctx context.Context, slug string) (*models.ContentModel, error) {
	var item models.ContentModel
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&item).Error
	return oneOrNil(&item, err)
}

// oneOrNil maps gorm's not-found to (nil, nil); absence is an expected
// outcome on every lookup path.
func oneOrNil(item *models.ContentModel, err error) (*models.ContentModel, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func (s *GormStore) List(ctx context.Context, page, size int) ([]models.ContentModel, int64, error) {
	var total int64
	query := s.db.WithContext(ctx).Model(&models.ContentModel{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.ContentModel
	offset := (page - 1) * size
	err := query.Order("created_at DESC").Offset(offset).Limit(size).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *GormStore) Create(ctx context.Context, item *models.ContentModel) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *GormStore) Save(ctx context.Context, item *models.ContentModel) error {
	return s.db.WithContext(ctx).Save(item).Error
}

// Delete removes the row for good. The deletion record lives in the backup
// log; a soft-deleted row would block the restore path from reusing the id.
func (s *GormStore) Delete(ctx context.Context, localID string) error {
	return s.db.WithContext(ctx).Unscoped().Where("id = ?", localID).Delete(&models.ContentModel{}).Error
}
