package dispatch

import (
	"github.com/goliatone/go-cms-admin/internal/assets"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
	"github.com/google/uuid"
)

// ToggleRequest flips the active flag of one record.
type ToggleRequest struct {
	Type  string
	ID    string
	Actor interfaces.Actor
}

// ToggleOutcome reports the persisted flag after a toggle.
type ToggleOutcome struct {
	ID      uuid.UUID `json:"id"`
	Status  bool      `json:"status"`
	Message string    `json:"message"`
}

// DeleteRequest removes one record.
type DeleteRequest struct {
	Type  string
	ID    string
	Actor interfaces.Actor
}

// DeleteOutcome carries the name captured before deletion and the asset
// reclamation report.
type DeleteOutcome struct {
	ID          uuid.UUID     `json:"id"`
	DisplayName string        `json:"display_name"`
	Message     string        `json:"message"`
	Assets      assets.Report `json:"assets"`
}

// BulkRequest targets several records. Blank and malformed ids are dropped.
type BulkRequest struct {
	Type  string
	IDs   []string
	Actor interfaces.Actor
}

// BulkOutcome reports how many records a bulk operation changed.
type BulkOutcome struct {
	Count   int64         `json:"count"`
	Message string        `json:"message"`
	Assets  assets.Report `json:"assets"`
}

// ReorderRequest assigns position = index to each id in Order.
type ReorderRequest struct {
	Type  string
	Order []string
	Actor interfaces.Actor
}

// ReorderOutcome reports updated rows and ids that matched nothing.
type ReorderOutcome struct {
	Updated int64       `json:"updated"`
	Ignored []uuid.UUID `json:"ignored,omitempty"`
	Message string      `json:"message"`
}

// SlugCheckRequest asks whether the normalized form of Value is taken.
// Exclude is optional and names the record being edited.
type SlugCheckRequest struct {
	Type    string
	Value   string
	Exclude string
	Actor   interfaces.Actor
}

// SlugCheck reports the normalized slug, whether another record holds it and
// the next free variant.
type SlugCheck struct {
	Slug       string `json:"slug"`
	Exists     bool   `json:"exists"`
	Suggestion string `json:"suggestion"`
}
