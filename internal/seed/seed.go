// Package seed loads projects, services, news and page text from a directory
// of markdown files with YAML frontmatter.
package seed

import (
	"archsite/internal/cms"
	"archsite/internal/content"
	"archsite/internal/media"
	"archsite/internal/storage"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"
)

const maxFileSize = 10 * 1024 * 1024

var ErrFileTooLarge = errors.New("seed file too large")

// entity frontmatter; keys missing for a kind are simply left empty
type metaData struct {
	Title          string   `yaml:"title"`
	Slug           string   `yaml:"slug"`
	Description    string   `yaml:"description"`
	Category       string   `yaml:"category"`
	Location       string   `yaml:"location"`
	CompletionDate string   `yaml:"completion_date"`
	Featured       bool     `yaml:"featured"`
	Date           string   `yaml:"date"`
	Published      *bool    `yaml:"published"`
	Cover          string   `yaml:"cover"`
	Images         []string `yaml:"images"`
}

// Document is one parsed seed file.
type Document struct {
	Path       string
	Kind       content.Kind
	Submission cms.Submission
}

// Page is the body of one page slot.
type Page struct {
	Path string
	Key  content.PageKey
	Body string
}

type EntityCreator interface {
	Create(ctx context.Context, kind content.Kind, sub cms.Submission) (*storage.Entity, error)
}

type PageUpdater interface {
	Update(ctx context.Context, key content.PageKey, body string) (*storage.PageContent, error)
}

// Result counts what a run did.
type Result struct {
	Created int
	Skipped int
	Pages   int
	Failed  int
}

type Seeder struct {
	Entities EntityCreator
	Pages    PageUpdater
	Logger   *slog.Logger
}

// Run loads every file under fsys and feeds it through the content services.
// Entities whose slug is already taken are skipped, so a run can be repeated.
// Invalid files are logged and reported together at the end.
func (s *Seeder) Run(ctx context.Context, fsys fs.FS) (Result, error) {
	var res Result
	var errs []error

	docs, pages, err := Load(fsys)
	if err != nil {
		return res, err
	}

	for _, doc := range docs {
		created, err := s.Entities.Create(ctx, doc.Kind, doc.Submission)
		var conflict *cms.ConflictError
		switch {
		case err == nil:
			res.Created++
			s.Logger.Info("seeded", "kind", doc.Kind, "slug", created.Slug, "file", doc.Path)
		case errors.As(err, &conflict):
			res.Skipped++
			s.Logger.Info("already present", "kind", doc.Kind, "slug", conflict.Value, "file", doc.Path)
		default:
			res.Failed++
			s.Logger.Error("seed failed", "file", doc.Path, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", doc.Path, err))
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
	}

	for _, p := range pages {
		if _, err := s.Pages.Update(ctx, p.Key, p.Body); err != nil {
			res.Failed++
			s.Logger.Error("page seed failed", "file", p.Path, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Path, err))
			continue
		}
		res.Pages++
	}

	return res, errors.Join(errs...)
}

var kindDirs = map[string]content.Kind{
	"projects": content.KindProject,
	"services": content.KindService,
	"news":     content.KindNews,
}

// Load parses <kind>/*.md and pages/*.md. Image references in frontmatter are
// relative to the markdown file.
func Load(fsys fs.FS) ([]Document, []Page, error) {
	var docs []Document
	for _, dir := range []string{"projects", "services", "news"} {
		files, err := fs.Glob(fsys, dir+"/*.md")
		if err != nil {
			return nil, nil, err
		}
		for _, name := range files {
			doc, err := loadDocument(fsys, kindDirs[dir], name)
			if err != nil {
				return nil, nil, err
			}
			docs = append(docs, doc)
		}
	}

	files, err := fs.Glob(fsys, "pages/*.md")
	if err != nil {
		return nil, nil, err
	}
	pages := make([]Page, 0, len(files))
	for _, name := range files {
		raw, err := readFile(fsys, name)
		if err != nil {
			return nil, nil, err
		}
		body, err := frontmatter.Parse(bytes.NewReader(raw), &struct{}{})
		if err != nil {
			body = raw
		}
		key := content.PageKey(strings.ToUpper(strings.TrimSuffix(path.Base(name), ".md")))
		pages = append(pages, Page{Path: name, Key: key, Body: strings.TrimSpace(string(body))})
	}

	return docs, pages, nil
}

func loadDocument(fsys fs.FS, kind content.Kind, name string) (Document, error) {
	raw, err := readFile(fsys, name)
	if err != nil {
		return Document{}, err
	}

	var meta metaData
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return Document{}, fmt.Errorf("%s: frontmatter: %w", name, err)
	}
	if meta.Title == "" {
		meta.Title = fallbackTitleScan(body)
	}
	if meta.Slug == "" {
		meta.Slug = strings.TrimSuffix(path.Base(name), ".md")
	}

	fields := content.Fields{
		"title":       meta.Title,
		"slug":        meta.Slug,
		"description": meta.Description,
		"content":     strings.TrimSpace(string(body)),
	}
	switch kind {
	case content.KindProject:
		fields["category"] = meta.Category
		fields["location"] = meta.Location
		fields["completionDate"] = meta.CompletionDate
		fields["isFeatured"] = strconv.FormatBool(meta.Featured)
	case content.KindNews:
		fields["date"] = meta.Date
		// news without the flag goes live
		published := meta.Published == nil || *meta.Published
		fields["isPublished"] = strconv.FormatBool(published)
	}

	sub := cms.Submission{Fields: fields}
	dir := path.Dir(name)
	if meta.Cover != "" {
		if sub.Cover, err = readUpload(fsys, dir, meta.Cover); err != nil {
			return Document{}, fmt.Errorf("%s: cover: %w", name, err)
		}
	}
	for _, img := range meta.Images {
		u, err := readUpload(fsys, dir, img)
		if err != nil {
			return Document{}, fmt.Errorf("%s: image: %w", name, err)
		}
		sub.ContentImages = append(sub.ContentImages, u)
	}

	return Document{Path: name, Kind: kind, Submission: sub}, nil
}

func readUpload(fsys fs.FS, dir, ref string) (media.Upload, error) {
	name := path.Clean(path.Join(dir, ref))
	data, err := readFile(fsys, name)
	if err != nil {
		return media.Upload{}, err
	}
	return media.Upload{Filename: path.Base(name), Data: data}, nil
}

func readFile(fsys fs.FS, name string) ([]byte, error) {
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, name, info.Size())
	}
	return fs.ReadFile(fsys, name)
}

// fallbackTitleScan takes the first markdown heading near the top of body.
func fallbackTitleScan(body []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	// a title further down is likely not a title at all
	linesScanned := 0
	for scanner.Scan() {
		linesScanned++
		if linesScanned > 20 {
			break
		}
		if title, found := strings.CutPrefix(scanner.Text(), "# "); found {
			return strings.TrimSpace(title)
		}
	}
	return ""
}
