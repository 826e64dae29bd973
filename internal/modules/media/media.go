// Package media validates and uploads binary assets to the remote CMS. The
// base64 admin-AJAX channel leads because shared hosting frequently blocks
// multipart REST uploads; the REST channel is the fallback.
package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cargoport/core/internal/config"
	"github.com/cargoport/core/internal/models"
	"github.com/cargoport/core/internal/pkg/faults"
	"github.com/cargoport/core/internal/pkg/retry"
	"github.com/cargoport/core/internal/remote"
	"go.uber.org/zap"
)

// Store persists the upload ledger. Nil disables persistence.
type Store interface {
	Save(ctx context.Context, file *models.MediaFileModel) error
}

// Transform optionally re-encodes image payloads before upload.
type Transform func(data []byte, mimeType string) ([]byte, error)

// SyncResult is the outcome of one file upload.
type SyncResult struct {
	Filename  string `json:"filename"`
	RemoteID  int64  `json:"remoteId"`
	RemoteURL string `json:"remoteUrl"`
	Transport string `json:"transport"`
	SizeBytes int64  `json:"sizeBytes"`
}

// FileError pairs a failed file with its error text.
type FileError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// DirectoryReport aggregates a batch run. One bad file never aborts the
// batch.
type DirectoryReport struct {
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Results   []SyncResult `json:"results"`
	Errors    []FileError  `json:"errors,omitempty"`
}

// Service uploads media with validation, optional image transform, and
// dual-transport fallback.
type Service struct {
	primary   remote.Transport
	secondary remote.Transport
	policy    retry.Policy
	store     Store
	transform Transform
	opts      config.MediaSyncOptions
	logger    *zap.Logger
}

// NewService builds the media sync component. primary is the admin-AJAX
// transport, secondary the REST transport.
func NewService(primary, secondary remote.Transport, policy retry.Policy, store Store, transform Transform, opts config.MediaSyncOptions, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		primary:   primary,
		secondary: secondary,
		policy:    policy,
		store:     store,
		transform: transform,
		opts:      opts,
		logger:    logger,
	}
}

// ClassForExtension maps a file extension (without dot, lower case) to its
// media class, or "" when the extension is in no allow-list.
func (s *Service) ClassForExtension(ext string) string {
	switch {
	case containsFold(s.opts.ImageFormats, ext):
		return models.MediaClassImage
	case containsFold(s.opts.VideoFormats, ext):
		return models.MediaClassVideo
	case containsFold(s.opts.DocumentFormats, ext):
		return models.MediaClassDocument
	}
	return ""
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func (s *Service) classEnabled(class string) bool {
	switch class {
	case models.MediaClassImage:
		return s.opts.EnableImages
	case models.MediaClassVideo:
		return s.opts.EnableVideos
	case models.MediaClassDocument:
		return s.opts.EnableDocuments
	}
	return false
}

// validate rejects a file before any network call: size first, then the
// extension allow-list, then the per-class toggle.
func (s *Service) validate(filename string, size int64) (string, error) {
	maxBytes := int64(s.opts.MaxSizeMB) << 20
	if maxBytes > 0 && size > maxBytes {
		return "", &faults.ValidationError{Field: "size", Reason: "file exceeds the configured maximum size"}
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	class := s.ClassForExtension(ext)
	if class == "" {
		return "", &faults.ValidationError{Field: "extension", Reason: "extension ." + ext + " is not in any allow-list"}
	}

	if !s.classEnabled(class) {
		return "", &faults.ValidationError{Field: "class", Reason: class + " uploads are disabled"}
	}
	return class, nil
}

// SyncFile validates and uploads one file already loaded in memory.
func (s *Service) SyncFile(ctx context.Context, filename, mimeType string, data []byte) (*SyncResult, error) {
	class, err := s.validate(filename, int64(len(data)))
	if err != nil {
		return nil, err
	}

	if class == models.MediaClassImage && s.opts.CompressImages && s.transform != nil {
		transformed, err := s.transform(data, mimeType)
		if err != nil {
			s.logger.Warn("image transform failed, uploading original",
				zap.String("file", filename),
				zap.Error(err))
		} else {
			data = transformed
		}
	}

	upload := remote.MediaUpload{Filename: filepath.Base(filename), MimeType: mimeType, Data: data}

	var ref *remote.MediaRef
	attempt := func(t remote.Transport) retry.AttemptFunc {
		return func(ctx context.Context) error {
			var err error
			ref, err = t.UploadMedia(ctx, upload)
			return err
		}
	}

	var secondaryFn retry.AttemptFunc
	secondaryName := ""
	if s.secondary != nil {
		secondaryFn = attempt(s.secondary)
		secondaryName = s.secondary.Name()
	}

	outcome, err := s.policy.Do(ctx, "upload media", s.primary.Name(), secondaryName, attempt(s.primary), secondaryFn)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{
		Filename:  upload.Filename,
		RemoteID:  ref.ID,
		RemoteURL: ref.URL,
		Transport: outcome.Transport,
		SizeBytes: int64(len(data)),
	}

	if s.store != nil {
		remoteID := ref.ID
		record := &models.MediaFileModel{
			Filename:  upload.Filename,
			MimeType:  mimeType,
			SizeBytes: result.SizeBytes,
			Class:     class,
			RemoteID:  &remoteID,
			RemoteURL: ref.URL,
		}
		if err := s.store.Save(ctx, record); err != nil {
			s.logger.Warn("media ledger write failed",
				zap.String("file", upload.Filename),
				zap.Error(err))
		}
	}

	s.logger.Info("media uploaded",
		zap.String("file", upload.Filename),
		zap.Int64("remote_id", ref.ID),
		zap.String("transport", outcome.Transport))
	return result, nil
}

// SyncPath loads a file from disk and uploads it.
func (s *Service) SyncPath(ctx context.Context, path string) (*SyncResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	// Size check before the read keeps oversized files off the heap.
	if _, err := s.validate(info.Name(), info.Size()); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	result, err := s.SyncFile(ctx, info.Name(), mimeForExtension(path), data)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SyncDirectory walks root and uploads every allow-listed file. Failures
// are collected per file; the walk never stops early.
func (s *Service) SyncDirectory(ctx context.Context, root string) (*DirectoryReport, error) {
	report := &DirectoryReport{}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if s.ClassForExtension(ext) == "" {
			return nil
		}

		result, syncErr := s.SyncPath(ctx, path)
		if syncErr != nil {
			report.Failed++
			report.Errors = append(report.Errors, FileError{Filename: d.Name(), Error: syncErr.Error()})
			return nil
		}
		report.Succeeded++
		report.Results = append(report.Results, *result)
		return nil
	})
	if err != nil {
		return report, err
	}

	s.logger.Info("media directory synced",
		zap.String("root", root),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	return report, nil
}

var extensionMimes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mov":  "video/quicktime",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func mimeForExtension(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if mime, ok := extensionMimes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
