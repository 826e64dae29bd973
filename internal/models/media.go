package models

// Media classes used by the per-class toggles and extension allow-lists.
const (
	MediaClassImage    = "image"
	MediaClassVideo    = "video"
	MediaClassDocument = "document"
)

// MediaFileModel tracks a binary asset and, once uploaded, its remote id.
type MediaFileModel struct {
	Base
	Filename  string `json:"filename"   gorm:"not null"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	Class     string `json:"class"      gorm:"index"`
	SourceURL string `json:"source_url"`
	LocalPath string `json:"local_path"`
	RemoteID  *int64 `json:"remote_id"  gorm:"index"`
	RemoteURL string `json:"remote_url"`
}

func (MediaFileModel) TableName() string { return "media_files" }
