package sqlite

import (
	"archsite/internal/content"
	"archsite/internal/storage"
	"context"
	"fmt"
)

func (s *Store) GetPageContent(ctx context.Context, key content.PageKey) (*storage.PageContent, error) {
	query := `SELECT * FROM page_contents
		WHERE key = ?
		LIMIT 1`

	var page storage.PageContent
	if err := s.db.GetContext(ctx, &page, query, string(key)); err != nil {
		return nil, fmt.Errorf("cannot find page content %s: %w", key, mapSqlError(err))
	}
	return &page, nil
}

func (s *Store) ListPageContents(ctx context.Context) ([]*storage.PageContent, error) {
	var pages []*storage.PageContent
	if err := s.db.SelectContext(ctx, &pages, `SELECT * FROM page_contents ORDER BY key`); err != nil {
		return nil, fmt.Errorf("failed to list page contents: %w", mapSqlError(err))
	}
	return pages, nil
}

// UpdatePageContent upserts so a key missing from the seed rows is created.
func (s *Store) UpdatePageContent(ctx context.Context, key content.PageKey, body string) (*storage.PageContent, error) {
	query := `INSERT INTO page_contents (key, content)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET
			content = excluded.content,
			updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now')
		RETURNING *`

	var page storage.PageContent
	if err := s.db.GetContext(ctx, &page, query, string(key), body); err != nil {
		return nil, fmt.Errorf("could not update page content %s: %w", key, mapSqlError(err))
	}
	return &page, nil
}
