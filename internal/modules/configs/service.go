// Package configs persists the mutable remote-CMS settings blob in the
// options table. Credentials are encoded before they touch the database and
// decoded only when a caller asks for usable settings.
package configs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/cargoport/core/internal/config"
	"github.com/cargoport/core/internal/models"
	"github.com/cargoport/core/internal/pkg/secrets"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const optionName = "remote_config"

// Service loads and saves the RemoteConfig blob with an in-process cache.
type Service struct {
	db     *gorm.DB
	codec  *secrets.Codec
	logger *zap.Logger

	mu     sync.RWMutex
	cached *config.RemoteConfig
}

// NewService builds the settings service.
func NewService(db *gorm.DB, codec *secrets.Codec, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, codec: codec, logger: logger}
}

// Get returns the current settings with credentials decoded, falling back to
// defaults when nothing has been saved yet.
func (s *Service) Get(ctx context.Context) (config.RemoteConfig, error) {
	s.mu.RLock()
	if s.cached != nil {
		cfg := *s.cached
		s.mu.RUnlock()
		return s.decoded(cfg)
	}
	s.mu.RUnlock()

	var option models.OptionModel
	err := s.db.WithContext(ctx).Where("name = ?", optionName).First(&option).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return config.DefaultRemoteConfig(), nil
		}
		return config.RemoteConfig{}, err
	}

	var cfg config.RemoteConfig
	if err := json.Unmarshal([]byte(option.Value), &cfg); err != nil {
		return config.RemoteConfig{}, err
	}
	cfg.Normalize()

	s.mu.Lock()
	stored := cfg
	s.cached = &stored
	s.mu.Unlock()

	return s.decoded(cfg)
}

// GetStored returns the settings as persisted, credentials still encoded.
// The settings API uses it so secrets never round-trip to the browser.
func (s *Service) GetStored(ctx context.Context) (config.RemoteConfig, error) {
	s.mu.RLock()
	if s.cached != nil {
		cfg := *s.cached
		s.mu.RUnlock()
		return cfg, nil
	}
	s.mu.RUnlock()

	if _, err := s.Get(ctx); err != nil {
		return config.RemoteConfig{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached != nil {
		return *s.cached, nil
	}
	return config.DefaultRemoteConfig(), nil
}

func (s *Service) decoded(cfg config.RemoteConfig) (config.RemoteConfig, error) {
	password, err := s.codec.Decode(cfg.RemoteCMS.AppPassword)
	if err != nil {
		return config.RemoteConfig{}, err
	}
	cfg.RemoteCMS.AppPassword = password

	secretKey, err := s.codec.Decode(cfg.Backup.S3.SecretAccessKey)
	if err != nil {
		return config.RemoteConfig{}, err
	}
	cfg.Backup.S3.SecretAccessKey = secretKey
	return cfg, nil
}

// Save normalizes, encodes credentials, and upserts the blob.
func (s *Service) Save(ctx context.Context, cfg config.RemoteConfig) error {
	cfg.Normalize()

	password, err := s.codec.Encode(cfg.RemoteCMS.AppPassword)
	if err != nil {
		return err
	}
	cfg.RemoteCMS.AppPassword = password

	secretKey, err := s.codec.Encode(cfg.Backup.S3.SecretAccessKey)
	if err != nil {
		return err
	}
	cfg.Backup.S3.SecretAccessKey = secretKey

	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	option := models.OptionModel{Name: optionName, Value: string(raw)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&option).Error
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cached = &cfg
	s.mu.Unlock()

	s.logger.Info("remote settings saved")
	return nil
}

// Invalidate drops the in-process cache; the next Get reloads from the
// database.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}
