package cms

import (
	"archsite/internal/content"
	"archsite/internal/storage"
	"context"
)

// Query serves the read paths. Public reads hide unpublished news; admin
// reads return everything.
type Query struct {
	store storage.Store
}

func NewQuery(store storage.Store) *Query {
	return &Query{store: store}
}

// Counts feeds the admin dashboard.
type Counts struct {
	Entities map[content.Kind]int64
	Contacts int64
}

func publicOrder(kind content.Kind) storage.Order {
	switch kind {
	case content.KindNews:
		return storage.OrderPublishDesc
	case content.KindProject:
		return storage.OrderCompletionDesc
	default:
		return storage.OrderInsertion
	}
}

// ListPublished returns what visitors may see, in display order.
func (q *Query) ListPublished(ctx context.Context, kind content.Kind) ([]*storage.Entity, error) {
	entities, err := q.store.ListEntities(ctx, kind, storage.ListQuery{
		PublishedOnly: kind == content.KindNews,
		Order:         publicOrder(kind),
	})
	if err != nil {
		return nil, classify(err, "")
	}
	return entities, nil
}

// ListAll is the admin listing, newest first.
func (q *Query) ListAll(ctx context.Context, kind content.Kind) ([]*storage.Entity, error) {
	entities, err := q.store.ListEntities(ctx, kind, storage.ListQuery{Order: storage.OrderCreatedDesc})
	if err != nil {
		return nil, classify(err, "")
	}
	return entities, nil
}

// GetBySlug returns ErrNotFound for unknown slugs and for unpublished news
// alike.
func (q *Query) GetBySlug(ctx context.Context, kind content.Kind, slug string) (*storage.Entity, error) {
	e, err := q.store.GetEntityBySlug(ctx, kind, slug)
	if err != nil {
		return nil, classify(err, slug)
	}
	if kind == content.KindNews && !e.IsPublished {
		return nil, ErrNotFound
	}
	return e, nil
}

func (q *Query) GetByID(ctx context.Context, kind content.Kind, id string) (*storage.Entity, error) {
	e, err := q.store.GetEntityByID(ctx, kind, id)
	if err != nil {
		return nil, classify(err, "")
	}
	return e, nil
}

func (q *Query) FeaturedProjects(ctx context.Context, limit int64) ([]*storage.Entity, error) {
	entities, err := q.store.ListEntities(ctx, content.KindProject, storage.ListQuery{
		FeaturedOnly: true,
		Order:        storage.OrderCompletionDesc,
		Limit:        limit,
	})
	if err != nil {
		return nil, classify(err, "")
	}
	return entities, nil
}

func (q *Query) LatestNews(ctx context.Context, limit int64) ([]*storage.Entity, error) {
	entities, err := q.store.ListEntities(ctx, content.KindNews, storage.ListQuery{
		PublishedOnly: true,
		Order:         storage.OrderPublishDesc,
		Limit:         limit,
	})
	if err != nil {
		return nil, classify(err, "")
	}
	return entities, nil
}

func (q *Query) Counts(ctx context.Context) (Counts, error) {
	c := Counts{Entities: make(map[content.Kind]int64, len(content.Kinds))}
	for _, kind := range content.Kinds {
		n, err := q.store.CountEntities(ctx, kind)
		if err != nil {
			return Counts{}, classify(err, "")
		}
		c.Entities[kind] = n
	}

	n, err := q.store.CountContacts(ctx)
	if err != nil {
		return Counts{}, classify(err, "")
	}
	c.Contacts = n
	return c, nil
}
