package entities

import (
	"github.com/goliatone/go-cms-admin/internal/domain"
)

// Descriptor is the static metadata the generic operations need for one
// entity type.
type Descriptor struct {
	Key             string
	Label           string
	Kind            domain.Kind
	Table           string
	ActiveColumn    string
	SlugColumn      string
	PositionColumn  string
	RichTextColumns []string
	AssetColumns    []string

	newRecord func() Record
	newSet    func() *RecordSet
	model     any
}

// Sluggable reports whether the type carries a unique slug.
func (d Descriptor) Sluggable() bool { return d.SlugColumn != "" }

// Orderable reports whether the type carries a position.
func (d Descriptor) Orderable() bool { return d.PositionColumn != "" }

// HasRichText reports whether the type contributes to media reference scans.
func (d Descriptor) HasRichText() bool { return len(d.RichTextColumns) > 0 }

// Valid reports whether the descriptor was built with Describe.
func (d Descriptor) Valid() bool { return d.Key != "" && d.newRecord != nil }

// NewRecord returns a zero record ready for scanning.
func (d Descriptor) NewRecord() Record { return d.newRecord() }

// Model returns a typed nil pointer used to address the table in queries.
func (d Descriptor) Model() any { return d.model }

// NewSet returns a destination for multi-row scans.
func (d Descriptor) NewSet() *RecordSet { return d.newSet() }

// RecordSet wraps a typed slice destination so callers can work with Records.
type RecordSet struct {
	dest  any
	items func() []Record
}

// Dest is the pointer to slice handed to bun's Model.
func (s *RecordSet) Dest() any { return s.dest }

func (s *RecordSet) Records() []Record { return s.items() }

// Describe binds the concrete model type T to the descriptor.
func Describe[T any, PT interface {
	*T
	Record
}](d Descriptor) Descriptor {
	d.Key = domain.NormalizeKey(d.Key)
	d.newRecord = func() Record { return PT(new(T)) }
	d.model = PT(nil)
	d.newSet = func() *RecordSet {
		items := []PT{}
		return &RecordSet{
			dest: &items,
			items: func() []Record {
				out := make([]Record, 0, len(items))
				for _, item := range items {
					out = append(out, item)
				}
				return out
			},
		}
	}
	return d
}

// ArticleDescriptor describes the articles table.
func ArticleDescriptor() Descriptor {
	return Describe[Article](Descriptor{
		Key:             "article",
		Label:           "Article",
		Kind:            domain.KindContent,
		Table:           "articles",
		ActiveColumn:    "is_active",
		SlugColumn:      "slug",
		PositionColumn:  "position",
		RichTextColumns: []string{"content"},
		AssetColumns:    []string{"image"},
	})
}

// BlogDescriptor describes the blogs table.
func BlogDescriptor() Descriptor {
	return Describe[Blog](Descriptor{
		Key:             "blog",
		Label:           "Blog",
		Kind:            domain.KindContent,
		Table:           "blogs",
		ActiveColumn:    "active",
		SlugColumn:      "slug",
		PositionColumn:  "position",
		RichTextColumns: []string{"content"},
	})
}

// UserDescriptor describes staff accounts.
func UserDescriptor() Descriptor {
	return Describe[User](Descriptor{
		Key:          "user",
		Label:        "User",
		Kind:         domain.KindAccount,
		Table:        "users",
		ActiveColumn: "is_active",
	})
}
