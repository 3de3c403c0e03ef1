package storage

import (
	"archsite/internal/content"
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Store interface {
	// admin accounts
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	SetUserPassword(ctx context.Context, username, passwordHash string) error

	// content entities
	CreateEntity(ctx context.Context, e *Entity) (*Entity, error)
	UpdateEntity(ctx context.Context, e *Entity) (*Entity, error)
	DeleteEntity(ctx context.Context, kind content.Kind, id string) error
	GetEntityByID(ctx context.Context, kind content.Kind, id string) (*Entity, error)
	GetEntityBySlug(ctx context.Context, kind content.Kind, slug string) (*Entity, error)
	ListEntities(ctx context.Context, kind content.Kind, q ListQuery) ([]*Entity, error)
	CountEntities(ctx context.Context, kind content.Kind) (int64, error)

	// contact messages
	CreateContact(ctx context.Context, c *ContactMessage) (*ContactMessage, error)
	ListContacts(ctx context.Context, offset, limit int64) ([]*ContactMessage, error)
	DeleteContact(ctx context.Context, id string) error
	CountContacts(ctx context.Context) (int64, error)

	// page content
	GetPageContent(ctx context.Context, key content.PageKey) (*PageContent, error)
	ListPageContents(ctx context.Context) ([]*PageContent, error)
	UpdatePageContent(ctx context.Context, key content.PageKey, body string) (*PageContent, error)

	Close() error
}

var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrCheckViolation  = errors.New("check constraint violation")
)

// Order selects how ListEntities sorts its rows.
type Order int

const (
	OrderCreatedDesc    Order = iota // newest first, admin listings
	OrderInsertion                   // insertion order
	OrderPublishDesc                 // news publish date, newest first
	OrderCompletionDesc              // project completion month, latest first
)

type ListQuery struct {
	PublishedOnly bool
	FeaturedOnly  bool
	Order         Order
	Limit         int64 // 0 means no limit
}

// User is an admin account. Usernames compare case-insensitively.
type User struct {
	ID                int64     `db:"id" json:"id"`
	Username          string    `db:"username" json:"username"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	PasswordChangedAt time.Time `db:"password_changed_at" json:"password_changed_at"`
}

// Entity is a project, service or news row. Columns that do not exist for a
// kind keep their zero value.
type Entity struct {
	ID            string       `db:"id" json:"id"`
	Kind          content.Kind `db:"-" json:"kind"`
	Slug          string       `db:"slug" json:"slug"`
	Title         string       `db:"title" json:"title"`
	Description   string       `db:"description" json:"description"`
	Content       string       `db:"content" json:"content"`
	CoverImage    *string      `db:"cover_image" json:"cover_image,omitempty"`
	ContentImages PathList     `db:"content_images" json:"content_images"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`

	// project
	Location       string `db:"location" json:"location,omitempty"`
	Category       string `db:"category" json:"category,omitempty"`
	CompletionDate string `db:"completion_date" json:"completion_date,omitempty"`
	IsFeatured     bool   `db:"is_featured" json:"is_featured,omitempty"`

	// news
	PublishDate time.Time `db:"publish_date" json:"publish_date,omitzero"`
	IsPublished bool      `db:"is_published" json:"is_published,omitempty"`
}

// Cover returns the cover path or "" when there is none.
func (e *Entity) Cover() string {
	if e.CoverImage == nil {
		return ""
	}
	return *e.CoverImage
}

// MediaPaths lists every file path the row references, cover first.
func (e *Entity) MediaPaths() []string {
	paths := make([]string, 0, len(e.ContentImages)+1)
	if c := e.Cover(); c != "" {
		paths = append(paths, c)
	}
	return append(paths, e.ContentImages...)
}

type ContactMessage struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type PageContent struct {
	Key       content.PageKey `db:"key" json:"key"`
	Content   string          `db:"content" json:"content"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// PathList is an ordered list of media paths stored as a JSON array column.
type PathList []string

func (p PathList) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *PathList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = PathList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into PathList", src)
	}

	var paths []string
	if err := json.Unmarshal(raw, &paths); err != nil {
		return fmt.Errorf("invalid path list: %w", err)
	}
	if paths == nil {
		paths = []string{}
	}
	*p = paths
	return nil
}
