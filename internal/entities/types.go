package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Article is an editorial entry shown in listings ordered by position.
type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID             uuid.UUID  `bun:",pk,type:uuid"            json:"id"`
	Title          string     `bun:"title,notnull"            json:"title"`
	Subtitle       string     `bun:"subtitle,notnull"         json:"subtitle"`
	Slug           string     `bun:"slug,notnull,unique"      json:"slug"`
	Image          *string    `bun:"image"                    json:"image,omitempty"`
	Content        string     `bun:"content,notnull"          json:"content"`
	ShowOnHomepage bool       `bun:"show_on_homepage,notnull" json:"show_on_homepage"`
	IsActive       bool       `bun:"is_active,notnull"        json:"is_active"`
	Position       int        `bun:"position,notnull"         json:"position"`
	AuthorID       *uuid.UUID `bun:"author_id,type:uuid"      json:"author_id,omitempty"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Blog is a long-form post with its own ordering and homepage flag.
type Blog struct {
	bun.BaseModel `bun:"table:blogs,alias:b"`

	ID        uuid.UUID `bun:",pk,type:uuid"       json:"id"`
	Title     string    `bun:"title,notnull"       json:"title"`
	Subtitle  string    `bun:"subtitle,notnull"    json:"subtitle"`
	Slug      string    `bun:"slug,notnull,unique" json:"slug"`
	Content   string    `bun:"content,notnull"     json:"content"`
	Active    bool      `bun:"active,notnull"      json:"active"`
	Homepage  bool      `bun:"homepage,notnull"    json:"homepage"`
	Position  int       `bun:"position,notnull"    json:"position"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// User is a staff account. PasswordHash never leaves the service layer.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:",pk,type:uuid"           json:"id"`
	Username     string    `bun:"username,notnull,unique" json:"username"`
	Email        string    `bun:"email,notnull"           json:"email"`
	PasswordHash string    `bun:"password_hash,notnull"   json:"-"`
	Role         string    `bun:"role,notnull"            json:"role"`
	IsActive     bool      `bun:"is_active,notnull"       json:"is_active"`
	IsSuperuser  bool      `bun:"is_superuser,notnull"    json:"is_superuser"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

func (a *Article) RecordID() uuid.UUID  { return a.ID }
func (a *Article) DisplayName() string  { return a.Title }
func (a *Article) ActiveFlag() bool     { return a.IsActive }
func (a *Article) SetActive(value bool) { a.IsActive = value }
func (a *Article) SlugSource() string   { return a.Title }
func (a *Article) GetSlug() string      { return a.Slug }
func (a *Article) SetSlug(value string) { a.Slug = value }
func (a *Article) GetPosition() int     { return a.Position }
func (a *Article) SetPosition(pos int)  { a.Position = pos }

func (a *Article) AssetPaths() map[string]string {
	if a.Image == nil || strings.TrimSpace(*a.Image) == "" {
		return map[string]string{}
	}
	return map[string]string{"image": *a.Image}
}

func (a *Article) RichText() map[string]string {
	return map[string]string{"content": a.Content}
}

func (b *Blog) RecordID() uuid.UUID  { return b.ID }
func (b *Blog) DisplayName() string  { return b.Title }
func (b *Blog) ActiveFlag() bool     { return b.Active }
func (b *Blog) SetActive(value bool) { b.Active = value }
func (b *Blog) SlugSource() string   { return b.Title }
func (b *Blog) GetSlug() string      { return b.Slug }
func (b *Blog) SetSlug(value string) { b.Slug = value }
func (b *Blog) GetPosition() int     { return b.Position }
func (b *Blog) SetPosition(pos int)  { b.Position = pos }

func (b *Blog) RichText() map[string]string {
	return map[string]string{"content": b.Content}
}

func (u *User) RecordID() uuid.UUID  { return u.ID }
func (u *User) DisplayName() string  { return u.Username }
func (u *User) ActiveFlag() bool     { return u.IsActive }
func (u *User) SetActive(value bool) { u.IsActive = value }
