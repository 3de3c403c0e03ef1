package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
)

// LocalStore keeps blobs on disk below basePath. Every access goes through
// an os.Root so keys can never escape the directory.
type LocalStore struct {
	basePath string
	root     *os.Root
}

var _ Blobs = (*LocalStore)(nil)

func NewLocalStorage(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("could not create media root %s: %w", basePath, err)
	}
	root, err := os.OpenRoot(basePath)
	if err != nil {
		return nil, fmt.Errorf("could not open media root %s: %w", basePath, err)
	}
	return &LocalStore{basePath: basePath, root: root}, nil
}

func (l *LocalStore) Close() error {
	return l.root.Close()
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	key = path.Clean(strings.TrimPrefix(key, "/"))
	if key == "." || key == ".." || strings.HasPrefix(key, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key, nil
}

func (l *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return l.root.Open(key)
}

// Exists takes a key and returns true if the file exists and is not a directory
func (l *LocalStore) Exists(ctx context.Context, key string) bool {
	ok, err := l.Stat(ctx, key)
	return ok && err == nil
}

func (l *LocalStore) Stat(ctx context.Context, key string) (bool, error) {
	key, err := cleanKey(key)
	if err != nil {
		return false, err
	}

	info, err := l.root.Stat(key)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	}
	return !info.IsDir(), nil
}

// Save writes body to a temporary sibling and renames it into place so a
// reader never sees a half written file.
func (l *LocalStore) Save(ctx context.Context, key string, body io.Reader) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	if dir := path.Dir(key); dir != "." {
		if err := l.root.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create directory %s: %w", dir, err)
		}
	}

	tmp := key + ".part"
	f, err := l.create(tmp)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", key, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		l.root.Remove(tmp)
		return fmt.Errorf("could not write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		l.root.Remove(tmp)
		return fmt.Errorf("could not flush %s: %w", key, err)
	}

	if err := l.root.Rename(tmp, key); err != nil {
		l.root.Remove(tmp)
		return fmt.Errorf("could not move %s into place: %w", key, err)
	}
	return nil
}

// create opens name for writing, recreating its directory once if a
// concurrent delete pruned it.
func (l *LocalStore) create(name string) (*os.File, error) {
	f, err := l.root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if errors.Is(err, fs.ErrNotExist) {
		if err := l.root.MkdirAll(path.Dir(name), 0o755); err != nil {
			return nil, err
		}
		f, err = l.root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	}
	return f, err
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	if err := l.root.Remove(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not delete %s: %w", key, err)
	}
	l.prune(path.Dir(key))
	return nil
}

// prune removes dir and its parents while they are empty, so a deleted owner
// leaves no directory tree behind.
func (l *LocalStore) prune(dir string) {
	for ; dir != "." && dir != "/"; dir = path.Dir(dir) {
		// Remove refuses non-empty directories
		if err := l.root.Remove(dir); err != nil {
			return
		}
	}
}

func (l *LocalStore) DeletePrefix(ctx context.Context, prefix string) error {
	prefix, err := cleanKey(prefix)
	if err != nil {
		return err
	}

	// RemoveAll already treats a missing path as success
	if err := l.root.RemoveAll(prefix); err != nil {
		return fmt.Errorf("could not delete %s: %w", prefix, err)
	}
	l.prune(path.Dir(prefix))
	return nil
}
