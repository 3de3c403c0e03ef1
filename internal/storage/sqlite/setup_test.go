package sqlite

import (
	"archsite/internal/content"
	"archsite/internal/storage"
	"crypto/rand"
	"encoding/base64"
	"time"
)

func gen60CharString() string {
	hashBytes := make([]byte, 45)
	_, _ = rand.Read(hashBytes)
	return base64.RawURLEncoding.EncodeToString(hashBytes)
}

func ptr[T any](v T) *T { return &v }

func newProject(slug string) *storage.Entity {
	return &storage.Entity{
		Kind:        content.KindProject,
		Slug:        slug,
		Title:       "Project " + slug,
		Description: "A house by the forest",
		Content:     "## Concept",
		Location:    "Oslo",
		Category:    "residential",
	}
}

func newNews(slug, date string, published bool) *storage.Entity {
	d, _ := time.Parse(content.DateLayout, date)
	return &storage.Entity{
		Kind:        content.KindNews,
		Slug:        slug,
		Title:       "News " + slug,
		Content:     "body",
		PublishDate: d,
		IsPublished: published,
	}
}
