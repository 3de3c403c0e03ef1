package cms

import (
	"archsite/internal/content"
	"context"
	"errors"
	"testing"
)

func newsFields(slug, date string, published bool) content.Fields {
	f := content.Fields{"title": "News " + slug, "slug": slug, "content": "Body text", "date": date}
	if published {
		f["isPublished"] = "on"
	}
	return f
}

func TestUnpublishedNewsIsNotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.manager.Create(ctx, content.KindNews, Submission{Fields: newsFields("draft", "2024-01-01", false)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := env.query.GetBySlug(ctx, content.KindNews, "draft")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for draft, got %v", err)
	}
	_, missing := env.query.GetBySlug(ctx, content.KindNews, "nope")
	if missing == nil || missing.Error() != err.Error() {
		t.Fatalf("draft and missing must look the same: %v vs %v", err, missing)
	}

	all, err := env.query.ListAll(ctx, content.KindNews)
	if err != nil || len(all) != 1 {
		t.Fatalf("admin listing = %d, %v; want the draft", len(all), err)
	}
}

func TestListPublishedOrdering(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	for _, f := range []content.Fields{
		newsFields("jan", "2024-01-05", true),
		newsFields("hidden", "2024-12-01", false),
		newsFields("jun", "2024-06-20", true),
	} {
		if _, err := env.manager.Create(ctx, content.KindNews, Submission{Fields: f}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	news, err := env.query.ListPublished(ctx, content.KindNews)
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}
	if len(news) != 2 || news[0].Slug != "jun" || news[1].Slug != "jan" {
		t.Fatalf("unexpected news order: %v", slugs(news))
	}

	latest, err := env.query.LatestNews(ctx, 1)
	if err != nil || len(latest) != 1 || latest[0].Slug != "jun" {
		t.Fatalf("LatestNews = %v, %v", slugs(latest), err)
	}

	for _, slug := range []string{"alpha", "beta", "gamma"} {
		f := content.Fields{"title": slug, "slug": slug, "description": "d", "content": "c"}
		if _, err := env.manager.Create(ctx, content.KindService, Submission{Fields: f}); err != nil {
			t.Fatalf("Create service failed: %v", err)
		}
	}
	services, err := env.query.ListPublished(ctx, content.KindService)
	if err != nil {
		t.Fatalf("ListPublished services failed: %v", err)
	}
	if got := slugs(services); len(got) != 3 || got[0] != "alpha" || got[2] != "gamma" {
		t.Fatalf("services not in insertion order: %v", got)
	}
}

func TestFeaturedProjectsAndCounts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	featured := projectFields("featured")
	plain := projectFields("plain")
	delete(plain, "isFeatured")

	for _, f := range []content.Fields{featured, plain} {
		if _, err := env.manager.Create(ctx, content.KindProject, Submission{Fields: f}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	got, err := env.query.FeaturedProjects(ctx, 6)
	if err != nil || len(got) != 1 || got[0].Slug != "featured" {
		t.Fatalf("FeaturedProjects = %v, %v", slugs(got), err)
	}

	counts, err := env.query.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts.Entities[content.KindProject] != 2 || counts.Entities[content.KindNews] != 0 || counts.Contacts != 0 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
