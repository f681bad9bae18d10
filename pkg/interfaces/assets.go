package interfaces

import "context"

// AssetStore abstracts the media backend that holds uploaded files. Paths are
// storage-relative (e.g. "articles/cover.jpg"), never public URLs.
type AssetStore interface {
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
}
