package sync

import (
	"time"

	"github.com/cargoport/core/internal/models"
	"github.com/cargoport/core/internal/pkg/htmlscan"
	"github.com/cargoport/core/internal/remote"
)

// RemoteImages is the image material resolved for one remote post before
// merging: the featured image plus the attachment URLs that may join the
// gallery.
type RemoteImages struct {
	FeaturedURL    string
	AttachmentURLs []string
}

// MergeRemotePost applies a remote post onto a local record. It is the one
// merge used everywhere a remote change lands locally, full reconciliation
// and webhook ingestion included, so both paths converge on the same row.
//
// The gallery is a set union of what the record already holds and the
// incoming attachments. The featured image and any image inlined in the
// post body never enter the gallery; they are already visible through
// other fields.
func MergeRemotePost(local *models.ContentModel, post *remote.Post, images RemoteImages, now time.Time) {
	remoteID := post.ID
	local.RemoteID = &remoteID
	local.Slug = post.Slug
	local.Title = post.Title.String()
	local.Excerpt = post.Excerpt.String()
	local.Text = post.Content.String()
	local.Status = mapRemoteStatus(post.Status)
	if post.AuthorName != "" {
		local.Author = post.AuthorName
	}
	local.FeaturedImageURL = images.FeaturedURL

	excluded := make(map[string]struct{})
	if images.FeaturedURL != "" {
		excluded[images.FeaturedURL] = struct{}{}
	}
	for _, src := range htmlscan.InlineImageURLs(post.Content.String()) {
		excluded[src] = struct{}{}
	}

	gallery := make(models.StringArray, 0, len(local.GalleryImageURLs))
	for _, existing := range local.GalleryImageURLs {
		if _, skip := excluded[existing]; skip {
			continue
		}
		gallery = append(gallery, existing)
	}
	for _, incoming := range images.AttachmentURLs {
		if _, skip := excluded[incoming]; skip {
			continue
		}
		gallery = gallery.AppendUnique(incoming)
	}
	local.GalleryImageURLs = gallery

	if !post.Date.IsZero() {
		published := post.Date.Time
		local.PublishedAt = &published
	}
	local.SyncedToRemote = true
	local.LastSyncAt = &now
}

func mapRemoteStatus(status string) string {
	if status == remote.RemoteStatusPublish {
		return models.StatusPublished
	}
	return models.StatusDraft
}

