package sqlite

import (
	"archsite/internal/content"
	"archsite/internal/storage"
	"context"
	"errors"
	"testing"
)

func TestPageContentSeededAndUpdated(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	pages, err := store.ListPageContents(ctx)
	if err != nil {
		t.Fatalf("ListPageContents failed: %v", err)
	}
	if len(pages) != 2 || pages[0].Key != content.PageIntro || pages[1].Key != content.PageVision {
		t.Fatalf("expected seeded INTRO and VISION rows, got %+v", pages)
	}

	updated, err := store.UpdatePageContent(ctx, content.PageVision, "We build quietly.")
	if err != nil {
		t.Fatalf("UpdatePageContent failed: %v", err)
	}
	if updated.Content != "We build quietly." {
		t.Errorf("content = %q", updated.Content)
	}

	got, err := store.GetPageContent(ctx, content.PageVision)
	if err != nil {
		t.Fatalf("GetPageContent failed: %v", err)
	}
	if got.Content != "We build quietly." {
		t.Errorf("content not persisted: %q", got.Content)
	}
}

func TestPageContentUnknownKey(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)

	_, err := store.UpdatePageContent(context.Background(), content.PageKey("FOOTER"), "x")
	if !errors.Is(err, storage.ErrCheckViolation) {
		t.Fatalf("expected ErrCheckViolation, got %v", err)
	}
}
