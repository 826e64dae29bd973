package config

import "strings"

// RemoteConfig is the mutable application config stored in the database
// (options table, key="remote_config"). Credentials are persisted in encoded
// form; the configs service decodes them at the point of use.
type RemoteConfig struct {
	RemoteCMS   RemoteCMSOptions   `json:"remote_cms"`
	MediaSync   MediaSyncOptions   `json:"media_sync"`
	Cache       CacheOptions       `json:"cache"`
	Backup      BackupOptions      `json:"backup"`
	SampleData  SampleDataOptions  `json:"sample_data"`
	Publication PublicationOptions `json:"publication"`
}

// RemoteCMSOptions identifies the remote CMS and its two transports.
type RemoteCMSOptions struct {
	BaseURL     string `json:"base_url"`      // e.g. https://cms.example.com
	RESTPath    string `json:"rest_path"`     // default /wp-json/wp/v2
	AjaxPath    string `json:"ajax_path"`     // default /wp-admin/admin-ajax.php
	Username    string `json:"username"`
	AppPassword string `json:"app_password"` // encoded at rest
	PageSize    int    `json:"page_size"`
}

type MediaSyncOptions struct {
	EnableImages    bool     `json:"enable_images"`
	EnableVideos    bool     `json:"enable_videos"`
	EnableDocuments bool     `json:"enable_documents"`
	MaxSizeMB       int      `json:"max_size_mb"`
	ImageFormats    []string `json:"image_formats"`
	VideoFormats    []string `json:"video_formats"`
	DocumentFormats []string `json:"document_formats"`
	CompressImages  bool     `json:"compress_images"`
}

type CacheOptions struct {
	DefaultTTLSeconds  int   `json:"default_ttl_seconds"`
	PostListTTLSeconds int   `json:"post_list_ttl_seconds"`
	MaxSizeBytes       int64 `json:"max_size_bytes"`
}

type BackupOptions struct {
	Enable bool      `json:"enable"`
	S3     S3Options `json:"s3"`
}

type S3Options struct {
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"` // encoded at rest
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	PathStyleAccess bool   `json:"path_style_access"`
}

// SampleDataOptions controls the offline fallback used by the reconciler in
// environments without connectivity. Never enabled in production.
type SampleDataOptions struct {
	AllowFallback bool `json:"allow_fallback"`
}

type PublicationOptions struct {
	DefaultAuthor string `json:"default_author"`
}

// DefaultRemoteConfig returns the config used before the operator saves one.
func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		RemoteCMS: RemoteCMSOptions{
			RESTPath: "/wp-json/wp/v2",
			AjaxPath: "/wp-admin/admin-ajax.php",
			PageSize: 20,
		},
		MediaSync: MediaSyncOptions{
			EnableImages:    true,
			EnableVideos:    true,
			EnableDocuments: true,
			MaxSizeMB:       32,
			ImageFormats:    []string{"jpg", "jpeg", "png", "gif", "webp", "svg"},
			VideoFormats:    []string{"mp4", "webm", "mov"},
			DocumentFormats: []string{"pdf", "doc", "docx", "xls", "xlsx"},
		},
		Cache: CacheOptions{
			DefaultTTLSeconds:  300,
			PostListTTLSeconds: 120,
			MaxSizeBytes:       32 << 20,
		},
	}
}

// Normalize trims endpoints and restores defaults for cleared fields.
func (c *RemoteConfig) Normalize() {
	defaults := DefaultRemoteConfig()

	c.RemoteCMS.BaseURL = strings.TrimRight(strings.TrimSpace(c.RemoteCMS.BaseURL), "/")
	if strings.TrimSpace(c.RemoteCMS.RESTPath) == "" {
		c.RemoteCMS.RESTPath = defaults.RemoteCMS.RESTPath
	}
	if strings.TrimSpace(c.RemoteCMS.AjaxPath) == "" {
		c.RemoteCMS.AjaxPath = defaults.RemoteCMS.AjaxPath
	}
	if c.RemoteCMS.PageSize <= 0 {
		c.RemoteCMS.PageSize = defaults.RemoteCMS.PageSize
	}
	if c.MediaSync.MaxSizeMB <= 0 {
		c.MediaSync.MaxSizeMB = defaults.MediaSync.MaxSizeMB
	}
	if len(c.MediaSync.ImageFormats) == 0 {
		c.MediaSync.ImageFormats = defaults.MediaSync.ImageFormats
	}
	if len(c.MediaSync.VideoFormats) == 0 {
		c.MediaSync.VideoFormats = defaults.MediaSync.VideoFormats
	}
	if len(c.MediaSync.DocumentFormats) == 0 {
		c.MediaSync.DocumentFormats = defaults.MediaSync.DocumentFormats
	}
	if c.Cache.DefaultTTLSeconds <= 0 {
		c.Cache.DefaultTTLSeconds = defaults.Cache.DefaultTTLSeconds
	}
	if c.Cache.PostListTTLSeconds <= 0 {
		c.Cache.PostListTTLSeconds = defaults.Cache.PostListTTLSeconds
	}
	if c.Cache.MaxSizeBytes <= 0 {
		c.Cache.MaxSizeBytes = defaults.Cache.MaxSizeBytes
	}
}

// RESTEndpoint returns the absolute REST API root.
func (o RemoteCMSOptions) RESTEndpoint() string {
	return o.BaseURL + o.RESTPath
}

// AjaxEndpoint returns the absolute admin-AJAX endpoint.
func (o RemoteCMSOptions) AjaxEndpoint() string {
	return o.BaseURL + o.AjaxPath
}
