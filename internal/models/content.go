package models

import "time"

// Content status vocabulary for the local store. The remote CMS speaks
// "draft"/"publish"; mapping happens in the publish pipeline.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// ContentModel is the local record of an article kept consistent with the
// remote CMS. RemoteID is nil for drafts that were never published.
type ContentModel struct {
	Base
	RemoteID         *int64      `json:"remote_id"          gorm:"uniqueIndex"`
	Slug             string      `json:"slug"               gorm:"index;not null"`
	Title            string      `json:"title"              gorm:"not null"`
	Excerpt          string      `json:"excerpt"            gorm:"type:text"`
	Text             string      `json:"text"               gorm:"type:longtext"`
	Status           string      `json:"status"             gorm:"index;default:'draft'"`
	Author           string      `json:"author"`
	FeaturedImageURL string      `json:"featured_image_url"`
	GalleryImageURLs StringArray `json:"gallery_image_urls" gorm:"type:longtext"`
	PublishedAt      *time.Time  `json:"published_at"`
	SyncedToRemote   bool        `json:"synced_to_remote"   gorm:"default:false"`
	LastSyncAt       *time.Time  `json:"last_sync_at"`
}

func (ContentModel) TableName() string { return "contents" }

// IsPublished reports whether the item is visible on the remote.
func (c ContentModel) IsPublished() bool { return c.Status == StatusPublished }
