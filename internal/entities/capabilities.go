package entities

import "github.com/google/uuid"

// Record is the minimal surface every registered entity exposes.
type Record interface {
	RecordID() uuid.UUID
	DisplayName() string
	ActiveFlag() bool
	SetActive(bool)
}

// Sluggable records carry a unique URL slug derived from SlugSource.
type Sluggable interface {
	Record
	SlugSource() string
	GetSlug() string
	SetSlug(string)
}

// Orderable records carry an ordinal position within their type.
type Orderable interface {
	Record
	GetPosition() int
	SetPosition(int)
}

// AssetHolder exposes file-reference columns keyed by column name.
type AssetHolder interface {
	AssetPaths() map[string]string
}

// RichTextHolder exposes markup columns that may embed media URLs.
type RichTextHolder interface {
	RichText() map[string]string
}

var (
	_ Sluggable      = (*Article)(nil)
	_ Orderable      = (*Article)(nil)
	_ AssetHolder    = (*Article)(nil)
	_ RichTextHolder = (*Article)(nil)
	_ Sluggable      = (*Blog)(nil)
	_ Orderable      = (*Blog)(nil)
	_ RichTextHolder = (*Blog)(nil)
	_ Record         = (*User)(nil)
)
