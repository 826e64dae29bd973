package remote

import "context"

// Transport is a write channel to the remote CMS. The REST client and the
// admin-AJAX client both implement it; the publish and media pipelines never
// know which one they are talking to.
type Transport interface {
	Name() string
	CreatePost(ctx context.Context, in PostInput) (*PostRef, error)
	UpdatePost(ctx context.Context, remoteID int64, in PostInput) (*PostRef, error)
	DeletePost(ctx context.Context, remoteID int64) error
	UploadMedia(ctx context.Context, up MediaUpload) (*MediaRef, error)
}

// Reader is the read side of the remote CMS. Only the REST API exposes
// listing, so there is a single implementation.
type Reader interface {
	ListPosts(ctx context.Context, page, perPage int) ([]Post, error)
	GetPost(ctx context.Context, remoteID int64) (*Post, error)
	GetMedia(ctx context.Context, mediaID int64) (*Media, error)
	ListMediaByParent(ctx context.Context, postID int64) ([]Media, error)
	ListCategories(ctx context.Context) ([]Term, error)
	ListTags(ctx context.Context) ([]Term, error)
}
