package media

import (
	"archsite/internal/content"
	"archsite/internal/storage"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Role tells which slot of an entity a file is attached to.
type Role string

const (
	RoleCover   Role = "cover"
	RoleContent Role = "content"
)

const (
	variantsDir = "variants"
	// gives up on finding a free name after this many suffixes
	maxNameAttempts = 1000
)

var (
	ErrForeignPath = errors.New("path is not managed by the media store")
	ErrEmptyOwner  = errors.New("owner id is required")
)

// Owner is the entity a file belongs to. Files are namespaced by kind and id
// so two owners never share a directory.
type Owner struct {
	Kind content.Kind
	ID   string
}

func (o Owner) String() string { return string(o.Kind) + "/" + o.ID }

func (o Owner) valid() error {
	if o.ID == "" || strings.ContainsAny(o.ID, "/\\") || o.ID == "." || o.ID == ".." {
		return ErrEmptyOwner
	}
	if !slices.Contains(content.Kinds, o.Kind) {
		return fmt.Errorf("%w: %q", content.ErrUnknownKind, o.Kind)
	}
	return nil
}

// Store maps owner/role references to keys in a blob backend and back to the
// public paths saved on records.
type Store struct {
	blobs     storage.Blobs
	urlPrefix string // "/media/"
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewStore(blobs storage.Blobs, urlPrefix string, logger *slog.Logger) *Store {
	return &Store{
		blobs:     blobs,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/") + "/",
		logger:    logger,
		tracer:    otel.Tracer("archsite/media/store"),
	}
}

// Put writes data for owner/role and returns the public path of the stored
// file. The name keeps the sanitized original name, suffixed with -2, -3...
// when the slot already holds a file of that name.
func (s *Store) Put(ctx context.Context, owner Owner, role Role, data []byte, originalName string) (string, error) {
	if err := owner.valid(); err != nil {
		return "", err
	}

	ctx, span := s.tracer.Start(ctx, "MediaStore.Put", trace.WithAttributes(
		attribute.String("media.owner", owner.String()),
		attribute.String("media.role", string(role)),
		attribute.Int("media.size", len(data)),
	))
	defer span.End()

	dir := path.Join(string(owner.Kind), owner.ID, string(role))
	name, err := s.uniqueName(ctx, dir, SanitizeFilename(originalName))
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	key := path.Join(dir, name)
	if err := s.blobs.Save(ctx, key, bytes.NewReader(data)); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("could not store %s: %w", key, err)
	}

	span.SetAttributes(attribute.String("media.key", key))
	return s.PathFor(key), nil
}

func (s *Store) uniqueName(ctx context.Context, dir, name string) (string, error) {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := name
	for counter := 2; counter <= maxNameAttempts; counter++ {
		taken, err := s.blobs.Stat(ctx, path.Join(dir, candidate))
		if err != nil {
			return "", fmt.Errorf("could not check %s: %w", path.Join(dir, candidate), err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d%s", base, counter, ext)
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}

// Delete removes the file behind a public path along with its generated
// variants. A missing file is not an error. Paths outside the media prefix
// are refused without touching storage.
func (s *Store) Delete(ctx context.Context, publicPath string) error {
	key, ok := s.KeyFor(publicPath)
	if !ok {
		s.logger.Warn("refusing to delete foreign path", "path", publicPath)
		return fmt.Errorf("%w: %q", ErrForeignPath, publicPath)
	}

	ctx, span := s.tracer.Start(ctx, "MediaStore.Delete", trace.WithAttributes(attribute.String("media.key", key)))
	defer span.End()

	if err := s.blobs.Delete(ctx, key); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to delete media file", "key", key, "err", err)
		return err
	}

	if vdir, ok := variantDir(key); ok {
		if err := s.blobs.DeletePrefix(ctx, vdir); err != nil {
			// variants are derived data, the original is already gone
			s.logger.Warn("failed to delete media variants", "key", key, "err", err)
		}
	}
	return nil
}

// DeleteAll removes every file stored for owner.
func (s *Store) DeleteAll(ctx context.Context, owner Owner) error {
	if err := owner.valid(); err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "MediaStore.DeleteAll", trace.WithAttributes(attribute.String("media.owner", owner.String())))
	defer span.End()

	if err := s.blobs.DeletePrefix(ctx, owner.String()); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to delete owner media", "owner", owner.String(), "err", err)
		return err
	}
	return nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.blobs.Open(ctx, key)
}

func (s *Store) Exists(ctx context.Context, key string) bool {
	return s.blobs.Exists(ctx, key)
}

// PathFor turns a blob key into the public path stored on records.
func (s *Store) PathFor(key string) string {
	return s.urlPrefix + strings.TrimPrefix(key, "/")
}

// KeyFor is the inverse of PathFor. It reports false for anything that is not
// a file below a known kind directory.
func (s *Store) KeyFor(publicPath string) (string, bool) {
	rest, ok := strings.CutPrefix(publicPath, s.urlPrefix)
	if !ok || rest == "" {
		return "", false
	}

	key := path.Clean(rest)
	if key != rest || strings.HasPrefix(key, "../") {
		return "", false
	}

	kind, _, _ := strings.Cut(key, "/")
	if !slices.Contains(content.Kinds, content.Kind(kind)) {
		return "", false
	}
	// kind/id/role/name at minimum
	if strings.Count(key, "/") < 3 {
		return "", false
	}
	return key, true
}

// VariantKey is where the webp rendition of key at width is kept.
func VariantKey(key string, width int) (string, bool) {
	dir, ok := variantDir(key)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s/%d.webp", dir, width), true
}

// variantDir maps kind/id/role/name to kind/id/variants/role/name.
func variantDir(key string) (string, bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 4 || parts[2] == variantsDir {
		return "", false
	}
	return path.Join(parts[0], parts[1], variantsDir, parts[2], parts[3]), true
}

// SanitizeFilename keeps the base name of an upload readable and safe to use
// as a path segment.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))

	ext := strings.ToLower(path.Ext(name))
	base := strings.TrimSuffix(name, path.Ext(name))

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			return unicode.ToLower(r)
		case r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	for strings.Contains(cleaned, "--") {
		cleaned = strings.ReplaceAll(cleaned, "--", "-")
	}
	cleaned = strings.Trim(cleaned, "-_")
	if cleaned == "" {
		cleaned = "file"
	}

	ext = strings.Map(func(r rune) rune {
		if r == '.' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			return r
		}
		return -1
	}, ext)
	if ext == "." {
		ext = ""
	}
	return cleaned + ext
}
