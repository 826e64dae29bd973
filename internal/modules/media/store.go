package media

import (
	"context"

	"github.com/cargoport/core/internal/models"
	"gorm.io/gorm"
)

// GormStore implements Store on the application database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Save(ctx context.Context, file *models.MediaFileModel) error {
	return s.db.WithContext(ctx).Save(file).Error
}

// Recent returns the newest ledger entries for the admin API.
func (s *GormStore) Recent(ctx context.Context, limit int) ([]models.MediaFileModel, error) {
	if limit <= 0 {
		limit = 50
	}
	var files []models.MediaFileModel
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&files).Error
	return files, err
}
