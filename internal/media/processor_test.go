package media

import (
	"archsite/internal/content"
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"
)

func TestResizeImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		w, h  int
		max   int
		wantW int
		wantH int
	}{
		{name: "scales down", w: 2400, h: 1600, max: 1200, wantW: 1200, wantH: 800},
		{name: "never scales up", w: 640, h: 480, max: 1200, wantW: 640, wantH: 480},
		{name: "thin strip keeps a row", w: 4000, h: 1, max: 480, wantW: 480, wantH: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			got := resizeImage(src, tt.max).Bounds()
			if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", got.Dx(), got.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestProcessorEnqueue(t *testing.T) {
	t.Parallel()
	_, blobs := newTestStore(t)

	// no workers so queued jobs stay queued
	p := NewProcessor(t.Context(), blobs, 0, discardLogger())

	job := VariantJob{SourceKey: "project/p1/content/a.jpg", Width: 800}
	if err := p.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	// duplicates are dropped silently
	if err := p.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("duplicate Enqueue failed: %v", err)
	}
	if len(p.jobs) != 1 {
		t.Fatalf("queue holds %d jobs, want 1", len(p.jobs))
	}

	if err := p.Enqueue(context.Background(), VariantJob{SourceKey: job.SourceKey, Width: 333}); !errors.Is(err, ErrUnsupportedSize) {
		t.Fatalf("expected ErrUnsupportedSize, got %v", err)
	}
	if err := p.Enqueue(context.Background(), VariantJob{SourceKey: "a.jpg", Width: 800}); err == nil {
		t.Fatal("expected error for key without owner layout")
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xaa
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestProcessorProcess(t *testing.T) {
	t.Parallel()
	_, blobs := newTestStore(t)
	ctx := t.Context()
	p := NewProcessor(ctx, blobs, 0, discardLogger())

	src := "project/p1/content/plan.png"
	if err := blobs.Save(ctx, src, bytes.NewReader(pngBytes(t, 1000, 500))); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	dest, _ := VariantKey(src, 480)
	if err := p.process(ctx, VariantJob{SourceKey: src, Width: 480}, dest); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	rc, err := blobs.Open(ctx, dest)
	if err != nil {
		t.Fatalf("variant missing: %v", err)
	}
	defer rc.Close()
	head := make([]byte, 12)
	if _, err := io.ReadFull(rc, head); err != nil {
		t.Fatalf("read variant: %v", err)
	}
	if string(head[:4]) != "RIFF" || string(head[8:12]) != "WEBP" {
		t.Errorf("variant is not webp: % x", head)
	}
}

func TestProcessorProcessErrors(t *testing.T) {
	t.Parallel()
	_, blobs := newTestStore(t)
	ctx := t.Context()
	p := NewProcessor(ctx, blobs, 0, discardLogger())

	notImage := "news/n1/content/notes.jpg"
	if err := blobs.Save(ctx, notImage, strings.NewReader("plain text")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	tests := []struct {
		name string
		src  string
	}{
		{"missing source", "news/n1/content/gone.jpg"},
		{"undecodable source", notImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest, _ := VariantKey(tt.src, 800)
			if err := p.process(ctx, VariantJob{SourceKey: tt.src, Width: 800}, dest); err == nil {
				t.Fatal("expected an error")
			}
			if blobs.Exists(ctx, dest) {
				t.Error("a failed job left a variant behind")
			}
		})
	}
}

func TestProcessorWorkersDrainQueue(t *testing.T) {
	t.Parallel()
	_, blobs := newTestStore(t)
	ctx, cancel := context.WithCancel(t.Context())

	src := "service/s1/cover/front.png"
	if err := blobs.Save(ctx, src, bytes.NewReader(pngBytes(t, 900, 300))); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	p := NewProcessor(ctx, blobs, 2, discardLogger())
	for _, w := range []int{480, 800} {
		if err := p.Enqueue(ctx, VariantJob{SourceKey: src, Width: w}); err != nil {
			t.Fatalf("Enqueue %d failed: %v", w, err)
		}
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		a, _ := VariantKey(src, 480)
		b, _ := VariantKey(src, 800)
		if blobs.Exists(ctx, a) && blobs.Exists(ctx, b) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("variants were not generated in time")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	p.Wait()
}

func TestProcessorDropsVariantOfDeletedSource(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	_, local := newTestStore(t)
	store := NewStore(local, "media", discardLogger())

	owner := Owner{Kind: content.KindProject, ID: "p9"}
	src := "project/p9/content/plan.png"
	if err := local.Save(ctx, src, bytes.NewReader(pngBytes(t, 900, 300))); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// the entity is deleted while the variant is being encoded
	hooked := &hookedBlobs{Blobs: local}
	hooked.beforeSave = func(key string) {
		if err := store.DeleteAll(ctx, owner); err != nil {
			t.Errorf("DeleteAll failed: %v", err)
		}
	}
	p := NewProcessor(ctx, hooked, 0, discardLogger())

	dest, _ := VariantKey(src, 480)
	if err := p.process(ctx, VariantJob{SourceKey: src, Width: 480}, dest); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if local.Exists(ctx, dest) {
		t.Error("variant outlived its source")
	}
	if ok, err := local.Stat(ctx, "project/p9/variants/content/plan.png/480.webp"); ok || err != nil {
		t.Errorf("Stat = %v, %v", ok, err)
	}
}
