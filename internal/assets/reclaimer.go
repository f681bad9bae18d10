package assets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/goliatone/go-cms-admin/internal/adapters/storage"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
	"github.com/google/uuid"
)

// DefaultMediaURL is the public prefix under which assets are served.
const DefaultMediaURL = "/media/"

// Report lists what happened to each candidate asset path.
type Report struct {
	Deleted  []string          `json:"deleted,omitempty"`
	Retained []string          `json:"retained,omitempty"`
	Missing  []string          `json:"missing,omitempty"`
	Failed   map[string]string `json:"failed,omitempty"`
}

func (r *Report) merge(other Report) {
	r.Deleted = append(r.Deleted, other.Deleted...)
	r.Retained = append(r.Retained, other.Retained...)
	r.Missing = append(r.Missing, other.Missing...)
	for path, reason := range other.Failed {
		if r.Failed == nil {
			r.Failed = map[string]string{}
		}
		r.Failed[path] = reason
	}
}

// Reclaimer deletes stored files once no record references them.
type Reclaimer struct {
	registry *entities.Registry
	store    *storage.Store
	assets   interfaces.AssetStore
	mediaURL string
	embedded *regexp.Regexp
	logger   interfaces.Logger
}

// Option configures a Reclaimer.
type Option func(*Reclaimer)

func WithLogger(logger interfaces.Logger) Option {
	return func(r *Reclaimer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMediaURL sets the public URL prefix embedded in rich text.
func WithMediaURL(url string) Option {
	return func(r *Reclaimer) {
		if strings.TrimSpace(url) != "" {
			r.mediaURL = url
		}
	}
}

func NewReclaimer(registry *entities.Registry, store *storage.Store, assets interfaces.AssetStore, opts ...Option) *Reclaimer {
	r := &Reclaimer{
		registry: registry,
		store:    store,
		assets:   assets,
		mediaURL: DefaultMediaURL,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.embedded = regexp.MustCompile(`src=["']` + regexp.QuoteMeta(r.mediaURL) + `([^"']+)["']`)
	return r
}

// MediaURL returns the configured public prefix.
func (r *Reclaimer) MediaURL() string { return r.mediaURL }

// References returns every asset path the record points at through its asset
// columns or media URLs embedded in its rich-text columns.
func (r *Reclaimer) References(record entities.Record) []string {
	seen := map[string]struct{}{}
	if holder, ok := record.(entities.AssetHolder); ok {
		for _, p := range holder.AssetPaths() {
			if p = strings.TrimSpace(p); p != "" {
				seen[p] = struct{}{}
			}
		}
	}
	if holder, ok := record.(entities.RichTextHolder); ok {
		for _, markup := range holder.RichText() {
			for _, match := range r.embedded.FindAllStringSubmatch(markup, -1) {
				if p := strings.TrimSpace(match[1]); p != "" {
					seen[p] = struct{}{}
				}
			}
		}
	}
	return sortedKeys(seen)
}

// ReclaimDeleted reclaims everything a deleted record referenced.
func (r *Reclaimer) ReclaimDeleted(ctx context.Context, d entities.Descriptor, record entities.Record) (Report, error) {
	return r.Reclaim(ctx, d, record.RecordID(), r.References(record))
}

// ReclaimReplaced reclaims paths that before referenced and after no longer
// does, e.g. a replaced image or an image dropped from the content.
func (r *Reclaimer) ReclaimReplaced(ctx context.Context, d entities.Descriptor, before, after entities.Record) (Report, error) {
	kept := map[string]struct{}{}
	for _, p := range r.References(after) {
		kept[p] = struct{}{}
	}
	dropped := []string{}
	for _, p := range r.References(before) {
		if _, ok := kept[p]; !ok {
			dropped = append(dropped, p)
		}
	}
	return r.Reclaim(ctx, d, after.RecordID(), dropped)
}

// ReclaimMany reclaims the references of several deleted records. A path
// shared by more than one of them is considered once.
func (r *Reclaimer) ReclaimMany(ctx context.Context, d entities.Descriptor, records []entities.Record) (Report, error) {
	seen := map[string]struct{}{}
	owners := []uuid.UUID{}
	paths := map[uuid.UUID][]string{}
	for _, record := range records {
		id := record.RecordID()
		for _, p := range r.References(record) {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			if _, ok := paths[id]; !ok {
				owners = append(owners, id)
			}
			paths[id] = append(paths[id], p)
		}
	}

	var report Report
	var errs []error
	for _, id := range owners {
		part, err := r.Reclaim(ctx, d, id, paths[id])
		report.merge(part)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return report, errors.Join(errs...)
}

// Reclaim deletes each path unless another record of any registered type
// still references it. The owner record is excluded from the scan.
func (r *Reclaimer) Reclaim(ctx context.Context, owner entities.Descriptor, ownerID uuid.UUID, paths []string) (Report, error) {
	var report Report
	if r == nil || r.assets == nil || len(paths) == 0 {
		return report, nil
	}

	logger := logging.WithFields(r.logger, map[string]any{
		"type":      owner.Key,
		"record_id": ownerID.String(),
	})

	var errs []error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		inUse, err := r.InUse(ctx, owner, ownerID, p)
		if err != nil {
			report.fail(p, err)
			errs = append(errs, err)
			continue
		}
		if inUse {
			logger.Info("assets.reclaim.retained", "path", p, "reason", "still in use")
			report.Retained = append(report.Retained, p)
			continue
		}

		exists, err := r.assets.Exists(ctx, p)
		if err != nil {
			report.fail(p, err)
			errs = append(errs, err)
			continue
		}
		if !exists {
			logger.Debug("assets.reclaim.missing", "path", p)
			report.Missing = append(report.Missing, p)
			continue
		}
		if err := r.assets.Delete(ctx, p); err != nil {
			report.fail(p, err)
			errs = append(errs, err)
			continue
		}
		logger.Info("assets.reclaim.deleted", "path", p)
		report.Deleted = append(report.Deleted, p)
	}

	if len(errs) > 0 {
		logger.Error("assets.reclaim.failed", "failures", len(errs))
	}
	return report, errors.Join(errs...)
}

// InUse reports whether any record other than the owner references path.
func (r *Reclaimer) InUse(ctx context.Context, owner entities.Descriptor, ownerID uuid.UUID, path string) (bool, error) {
	for _, d := range r.registry.Referencing() {
		ref := storage.Reference{URL: r.mediaURL + path, Path: path}
		if d.Key == owner.Key {
			ref.Exclude = ownerID
		}
		used, err := r.store.ReferencesAsset(ctx, r.store.DB(), d, ref)
		if err != nil {
			return false, fmt.Errorf("scan %s references: %w", d.Key, err)
		}
		if used {
			return true, nil
		}
	}
	return false, nil
}

func (r *Report) fail(path string, err error) {
	if r.Failed == nil {
		r.Failed = map[string]string{}
	}
	r.Failed[path] = err.Error()
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
