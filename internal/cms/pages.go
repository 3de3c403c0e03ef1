package cms

import (
	"archsite/internal/content"
	"archsite/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
)

type Pages struct {
	store  storage.Store
	logger *slog.Logger
}

func NewPages(store storage.Store, logger *slog.Logger) *Pages {
	return &Pages{store: store, logger: logger}
}

// Get returns an empty page for a key without content so public pages still render.
func (p *Pages) Get(ctx context.Context, key content.PageKey) (*storage.PageContent, error) {
	page, err := p.store.GetPageContent(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return &storage.PageContent{Key: key}, nil
	case err != nil:
		return nil, classify(err, "")
	}
	return page, nil
}

func (p *Pages) List(ctx context.Context) ([]*storage.PageContent, error) {
	pages, err := p.store.ListPageContents(ctx)
	if err != nil {
		return nil, classify(err, "")
	}
	return pages, nil
}

// Update replaces the body of a page slot. Keys are checked here as well as
// at the HTTP boundary since the seed tool calls in directly.
func (p *Pages) Update(ctx context.Context, key content.PageKey, body string) (*storage.PageContent, error) {
	if _, err := content.ParsePageKey(string(key)); err != nil {
		return nil, &ValidationError{Fields: content.FieldErrors{"key": fmt.Sprintf("%q is not a page slot", key)}}
	}

	page, err := p.store.UpdatePageContent(ctx, key, body)
	if err != nil {
		return nil, classify(err, "")
	}
	p.logger.Info("page content updated", "key", key)
	return page, nil
}
