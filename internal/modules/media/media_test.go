package media

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/cargoport/core/internal/config"
	"github.com/cargoport/core/internal/models"
	"github.com/cargoport/core/internal/pkg/faults"
	"github.com/cargoport/core/internal/pkg/retry"
	"github.com/cargoport/core/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	name    string
	err     error
	uploads []remote.MediaUpload
}

func (f *fakeUploader) Name() string { return f.name }

func (f *fakeUploader) CreatePost(_ context.Context, _ remote.PostInput) (*remote.PostRef, error) {
	return nil, errors.New("not used")
}

func (f *fakeUploader) UpdatePost(_ context.Context, _ int64, _ remote.PostInput) (*remote.PostRef, error) {
	return nil, errors.New("not used")
}

func (f *fakeUploader) DeletePost(_ context.Context, _ int64) error {
	return errors.New("not used")
}

func (f *fakeUploader) UploadMedia(_ context.Context, upload remote.MediaUpload) (*remote.MediaRef, error) {
	f.uploads = append(f.uploads, upload)
	if f.err != nil {
		return nil, f.err
	}
	return &remote.MediaRef{ID: 77, URL: "https://cms.example/media/" + upload.Filename}, nil
}

type fakeLedger struct {
	records []models.MediaFileModel
}

func (l *fakeLedger) Save(_ context.Context, file *models.MediaFileModel) error {
	l.records = append(l.records, *file)
	return nil
}

func defaultOpts() config.MediaSyncOptions {
	return config.MediaSyncOptions{
		EnableImages:    true,
		EnableVideos:    true,
		EnableDocuments: true,
		MaxSizeMB:       1,
		ImageFormats:    []string{"jpg", "jpeg", "png"},
		VideoFormats:    []string{"mp4"},
		DocumentFormats: []string{"pdf"},
	}
}

func newMediaService(primary, secondary *fakeUploader, store Store, opts config.MediaSyncOptions) *Service {
	// Avoid wrapping a typed-nil *fakeUploader in the Transport interface.
	var sec remote.Transport
	if secondary != nil {
		sec = secondary
	}
	return NewService(primary, sec, retry.Policy{PrimaryAttempts: 2, Delay: 0}, store, nil, opts, nil)
}

func TestValidateSizeBeforeExtension(t *testing.T) {
	svc := newMediaService(&fakeUploader{name: "ajax"}, nil, nil, defaultOpts())

	// The extension is bogus too; the size rejection must win.
	_, err := svc.SyncFile(context.Background(), "huge.exe", "application/octet-stream", make([]byte, 2<<20))
	require.Error(t, err)
	var ve *faults.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "size", ve.Field)
}

func TestValidateUnknownExtensionRejected(t *testing.T) {
	primary := &fakeUploader{name: "ajax"}
	svc := newMediaService(primary, nil, nil, defaultOpts())

	_, err := svc.SyncFile(context.Background(), "script.exe", "application/octet-stream", []byte("x"))
	require.Error(t, err)
	var ve *faults.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "extension", ve.Field)
	assert.Empty(t, primary.uploads, "rejected files never reach a transport")
}

func TestValidateDisabledClassRejected(t *testing.T) {
	opts := defaultOpts()
	opts.EnableVideos = false
	svc := newMediaService(&fakeUploader{name: "ajax"}, nil, nil, opts)

	_, err := svc.SyncFile(context.Background(), "clip.mp4", "video/mp4", []byte("x"))
	require.Error(t, err)
	var ve *faults.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "class", ve.Field)
}

func TestSyncFileFallsBackToSecondaryTransport(t *testing.T) {
	primary := &fakeUploader{name: "ajax", err: &faults.TransportError{
		Transport: "ajax", Op: "upload media", StatusCode: http.StatusForbidden,
	}}
	secondary := &fakeUploader{name: "rest"}
	ledger := &fakeLedger{}
	svc := newMediaService(primary, secondary, ledger, defaultOpts())

	result, err := svc.SyncFile(context.Background(), "photo.jpg", "image/jpeg", []byte("jpegdata"))
	require.NoError(t, err)
	assert.Equal(t, "secondary", result.Transport)
	assert.Equal(t, int64(77), result.RemoteID)
	require.Len(t, ledger.records, 1)
	assert.Equal(t, models.MediaClassImage, ledger.records[0].Class)
}

func TestSyncFileTransformFailureUploadsOriginal(t *testing.T) {
	primary := &fakeUploader{name: "ajax"}
	opts := defaultOpts()
	opts.CompressImages = true
	failing := func(_ []byte, _ string) ([]byte, error) { return nil, errors.New("bad encoder") }
	svc := NewService(primary, nil, retry.Policy{PrimaryAttempts: 1}, nil, failing, opts, nil)

	original := []byte("jpegdata")
	result, err := svc.SyncFile(context.Background(), "photo.jpg", "image/jpeg", original)
	require.NoError(t, err)
	require.Len(t, primary.uploads, 1)
	assert.Equal(t, original, primary.uploads[0].Data)
	assert.Equal(t, int64(len(original)), result.SizeBytes)
}

func TestSyncDirectoryCollectsFailuresWithoutStopping(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.png"), make([]byte, 2<<20), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.pdf"), []byte("c"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	svc := newMediaService(&fakeUploader{name: "ajax"}, nil, nil, defaultOpts())

	report, err := svc.SyncDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "big.png", report.Errors[0].Filename)
}

func TestClassForExtensionIsCaseInsensitive(t *testing.T) {
	svc := newMediaService(&fakeUploader{name: "ajax"}, nil, nil, defaultOpts())
	assert.Equal(t, models.MediaClassImage, svc.ClassForExtension("JPG"))
	assert.Equal(t, models.MediaClassDocument, svc.ClassForExtension("pdf"))
	assert.Equal(t, "", svc.ClassForExtension("exe"))
}
