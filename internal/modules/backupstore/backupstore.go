// Package backupstore keeps the append-only log of deleted content. Rows are
// written once on delete and never mutated; the reconciler reads them to give
// restored remote posts their original local identity.
package backupstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/cargoport/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store is the persistence boundary for deletion backups.
type Store interface {
	Append(ctx context.Context, entry *models.DeletedContentBackupModel) error
	LatestByRemoteID(ctx context.Context, remoteID int64) (*models.DeletedContentBackupModel, error)
	LatestBySlug(ctx context.Context, slug string) (*models.DeletedContentBackupModel, error)
	List(ctx context.Context, limit int) ([]models.DeletedContentBackupModel, error)
}

// GormStore implements Store on the application database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Append(ctx context.Context, entry *models.DeletedContentBackupModel) error {
	if entry.DeletedAt.IsZero() {
		entry.DeletedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) LatestByRemoteID(ctx context.Context, remoteID int64) (*models.DeletedContentBackupModel, error) {
	var entry models.DeletedContentBackupModel
	err := s.db.WithContext(ctx).
		Where("remote_id = ?", remoteID).
		Order("deleted_at DESC").
		First(&entry).Error
	return oneOrNil(&entry, err)
}

func (s *GormStore) LatestBySlug(ctx context.Context, slug string) (*models.DeletedContentBackupModel, error) {
	var entry models.DeletedContentBackupModel
	err := s.db.WithContext(ctx).
		Where("slug = ?", slug).
		Order("deleted_at DESC").
		First(&entry).Error
	return oneOrNil(&entry, err)
}

func oneOrNil(entry *models.DeletedContentBackupModel, err error) (*models.DeletedContentBackupModel, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// List returns backup entries newest first. limit <= 0 returns everything.
func (s *GormStore) List(ctx context.Context, limit int) ([]models.DeletedContentBackupModel, error) {
	query := s.db.WithContext(ctx).Order("deleted_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var entries []models.DeletedContentBackupModel
	err := query.Find(&entries).Error
	return entries, err
}

// Service layers snapshot export over the raw store.
type Service struct {
	store     Store
	backupDir string
	uploader  *S3Uploader // nil when S3 mirroring is disabled
	logger    *zap.Logger
}

func NewService(store Store, backupDir string, uploader *S3Uploader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, backupDir: backupDir, uploader: uploader, logger: logger}
}

func (s *Service) Store() Store { return s.store }

// Snapshot writes the full backup log as a JSON file under the backup
// directory and mirrors it to S3 when configured. Returns the local path.
func (s *Service) Snapshot(ctx context.Context) (string, error) {
	entries, err := s.store.List(ctx, 0)
	if err != nil {
		return "", err
	}

	payload, err := json.MarshalIndent(map[string]interface{}{
		"exported_at": time.Now().Format(time.RFC3339),
		"entries":     entries,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", err
	}
	name := "deleted-content-" + time.Now().Format("20060102-150405") + ".json"
	path := filepath.Join(s.backupDir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", err
	}

	if s.uploader != nil {
		if err := s.uploader.Put(ctx, name, payload); err != nil {
			// The local snapshot already exists; mirroring is best effort.
			s.logger.Warn("backup snapshot s3 mirror failed", zap.String("object", name), zap.Error(err))
		}
	}

	s.logger.Info("backup snapshot written",
		zap.String("path", path),
		zap.Int("entries", len(entries)))
	return path, nil
}
