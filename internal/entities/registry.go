package entities

import (
	"fmt"

	"github.com/goliatone/go-cms-admin/internal/domain"
)

// Registry maps case-insensitive type names to descriptors. It is built once
// at startup and never mutated afterwards.
type Registry struct {
	byKey map[string]Descriptor
	order []string
}

// NewRegistry validates and indexes the descriptors.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{byKey: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if !d.Valid() {
			return nil, fmt.Errorf("entities: descriptor %q was not built with Describe", d.Key)
		}
		if d.ActiveColumn == "" {
			return nil, fmt.Errorf("entities: descriptor %q has no active column", d.Key)
		}
		if _, exists := r.byKey[d.Key]; exists {
			return nil, fmt.Errorf("entities: duplicate descriptor %q", d.Key)
		}
		r.byKey[d.Key] = d
		r.order = append(r.order, d.Key)
	}
	return r, nil
}

// MustRegistry panics when NewRegistry fails.
func MustRegistry(descriptors ...Descriptor) *Registry {
	r, err := NewRegistry(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry registers articles, blogs and users.
func DefaultRegistry() *Registry {
	return MustRegistry(ArticleDescriptor(), BlogDescriptor(), UserDescriptor())
}

// Resolve looks up a descriptor ignoring case and surrounding whitespace.
func (r *Registry) Resolve(name string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	d, ok := r.byKey[domain.NormalizeKey(name)]
	return d, ok
}

// Lookup is Resolve returning a not-found error for unknown names.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.Resolve(name)
	if !ok {
		return Descriptor{}, domain.UnknownTypeError(name)
	}
	return d, nil
}

// MustResolve panics for unknown names. Intended for wiring code.
func (r *Registry) MustResolve(name string) Descriptor {
	d, ok := r.Resolve(name)
	if !ok {
		panic(fmt.Sprintf("entities: unknown type %q", name))
	}
	return d
}

// Descriptors returns every descriptor in registration order.
func (r *Registry) Descriptors() []Descriptor {
	if r == nil {
		return nil
	}
	out := make([]Descriptor, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.byKey[key])
	}
	return out
}

// Referencing returns the descriptors that can hold media references.
func (r *Registry) Referencing() []Descriptor {
	out := []Descriptor{}
	for _, d := range r.Descriptors() {
		if d.HasRichText() || len(d.AssetColumns) > 0 {
			out = append(out, d)
		}
	}
	return out
}
