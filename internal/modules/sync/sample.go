package sync

import (
	"time"

	"github.com/cargoport/core/internal/remote"
)

// SamplePosts is the placeholder content reconciled when the remote CMS is
// unreachable and fallback is enabled. It exists for disconnected dev
// environments only; any run that consumes it reports UsedFallbackData so
// the caller can tell placeholder state from real state.
func SamplePosts() []remote.Post {
	published := remote.RemoteTime{Time: time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)}
	return []remote.Post{
		{
			ID:       900001,
			Slug:     "sample-fleet-expansion",
			Status:   remote.RemoteStatusPublish,
			Title:    "Sample: Fleet Expansion Announcement",
			Excerpt:  "Placeholder article shown while the CMS is unreachable.",
			Content:  "<p>This is sample content. Connect the remote CMS to replace it.</p>",
			Date:     published,
			Modified: published,
		},
		{
			ID:       900002,
			Slug:     "sample-customs-update",
			Status:   remote.RemoteStatusPublish,
			Title:    "Sample: Customs Procedure Update",
			Excerpt:  "Placeholder article shown while the CMS is unreachable.",
			Content:  "<p>This is sample content. Connect the remote CMS to replace it.</p>",
			Date:     published,
			Modified: published,
		},
	}
}
