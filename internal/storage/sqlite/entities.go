package sqlite

import (
	"archsite/internal/content"
	"archsite/internal/storage"
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// entityTable maps a kind to its table and the columns a write may set.
type entityTable struct {
	name    string
	columns []string
	values  func(e *storage.Entity) []any
}

var baseColumns = []string{"slug", "title", "description", "content", "cover_image", "content_images"}

func baseValues(e *storage.Entity) []any {
	return []any{e.Slug, e.Title, e.Description, e.Content, e.CoverImage, e.ContentImages}
}

var entityTables = map[content.Kind]entityTable{
	content.KindProject: {
		name:    "projects",
		columns: append(baseColumns[:len(baseColumns):len(baseColumns)], "location", "category", "completion_date", "is_featured"),
		values: func(e *storage.Entity) []any {
			return append(baseValues(e), e.Location, e.Category, e.CompletionDate, e.IsFeatured)
		},
	},
	content.KindService: {
		name:    "services",
		columns: baseColumns,
		values:  baseValues,
	},
	content.KindNews: {
		name:    "news",
		columns: append(baseColumns[:len(baseColumns):len(baseColumns)], "publish_date", "is_published"),
		values: func(e *storage.Entity) []any {
			return append(baseValues(e), e.PublishDate.Format(content.DateLayout), e.IsPublished)
		},
	},
}

func tableFor(kind content.Kind) (entityTable, error) {
	t, ok := entityTables[kind]
	if !ok {
		return entityTable{}, fmt.Errorf("%w: %q", content.ErrUnknownKind, kind)
	}
	return t, nil
}

func (s *Store) CreateEntity(ctx context.Context, e *storage.Entity) (*storage.Entity, error) {
	t, err := tableFor(e.Kind)
	if err != nil {
		return nil, err
	}

	id := e.ID
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}

	cols := append([]string{"id"}, t.columns...)
	args := append([]any{id}, t.values(e)...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	query := fmt.Sprintf(`INSERT INTO %s (%s)
		VALUES (%s)
		RETURNING *`, t.name, strings.Join(cols, ", "), placeholders)

	var created storage.Entity
	if err := s.db.GetContext(ctx, &created, query, args...); err != nil {
		return nil, fmt.Errorf("cannot create %s %q: %w", e.Kind, e.Slug, mapSqlError(err))
	}
	created.Kind = e.Kind
	return &created, nil
}

// UpdateEntity overwrites every writable column of the row with e.ID.
func (s *Store) UpdateEntity(ctx context.Context, e *storage.Entity) (*storage.Entity, error) {
	t, err := tableFor(e.Kind)
	if err != nil {
		return nil, err
	}

	sets := make([]string, 0, len(t.columns)+1)
	for _, c := range t.columns {
		sets = append(sets, c+" = ?")
	}
	sets = append(sets, "updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now')")
	args := append(t.values(e), e.ID)

	query := fmt.Sprintf(`UPDATE %s SET %s
		WHERE id = ?
		RETURNING *`, t.name, strings.Join(sets, ", "))

	var updated storage.Entity
	if err := s.db.GetContext(ctx, &updated, query, args...); err != nil {
		return nil, fmt.Errorf("cannot update %s %s: %w", e.Kind, e.ID, mapSqlError(err))
	}
	updated.Kind = e.Kind
	return &updated, nil
}

func (s *Store) DeleteEntity(ctx context.Context, kind content.Kind, id string) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, t.name), id)
	if err != nil {
		return fmt.Errorf("could not delete %s %s: %w", kind, id, mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetEntityByID(ctx context.Context, kind content.Kind, id string) (*storage.Entity, error) {
	return s.getEntity(ctx, kind, "id", id)
}

func (s *Store) GetEntityBySlug(ctx context.Context, kind content.Kind, slug string) (*storage.Entity, error) {
	return s.getEntity(ctx, kind, "slug", slug)
}

func (s *Store) getEntity(ctx context.Context, kind content.Kind, column, value string) (*storage.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT * FROM %s
		WHERE %s = ?
		LIMIT 1`, t.name, column)

	var e storage.Entity
	if err := s.db.GetContext(ctx, &e, query, value); err != nil {
		return nil, fmt.Errorf("cannot find %s with %s %q: %w", kind, column, value, mapSqlError(err))
	}
	e.Kind = kind
	return &e, nil
}

func (s *Store) ListEntities(ctx context.Context, kind content.Kind, q storage.ListQuery) ([]*storage.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var where []string
	if q.PublishedOnly && kind == content.KindNews {
		where = append(where, "is_published = 1")
	}
	if q.FeaturedOnly && kind == content.KindProject {
		where = append(where, "is_featured = 1")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM %s", t.name)
	if len(where) > 0 {
		fmt.Fprintf(&b, " WHERE %s", strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY %s", orderClause(kind, q.Order))

	args := []any{}
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	var entities []*storage.Entity
	if err := s.db.SelectContext(ctx, &entities, b.String(), args...); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind.Plural(), mapSqlError(err))
	}
	for _, e := range entities {
		e.Kind = kind
	}
	return entities, nil
}

func orderClause(kind content.Kind, order storage.Order) string {
	switch {
	case order == storage.OrderInsertion:
		return "rowid ASC"
	case order == storage.OrderPublishDesc && kind == content.KindNews:
		return "publish_date DESC, created_at DESC"
	case order == storage.OrderCompletionDesc && kind == content.KindProject:
		// projects without a completion month go last
		return "completion_date = '' ASC, completion_date DESC, created_at DESC"
	default:
		return "created_at DESC, rowid DESC"
	}
}

func (s *Store) CountEntities(ctx context.Context, kind content.Kind) (int64, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.GetContext(ctx, &n, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, t.name)); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", kind.Plural(), mapSqlError(err))
	}
	return n, nil
}
