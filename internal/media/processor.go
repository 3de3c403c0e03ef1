package media

import (
	"archsite/internal/storage"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const (
	queueSize   = 25
	webpQuality = 75
)

// VariantWidths are the widths the media endpoint renders on request.
var VariantWidths = []int{480, 800, 1200, 1920}

var (
	ErrQueueFull       = errors.New("image processor queue full")
	ErrUnsupportedSize = errors.New("unsupported variant width")
)

// VariantJob asks for one resized webp copy of a stored image.
type VariantJob struct {
	SourceKey  string
	Width      int
	ParentSpan trace.SpanContext
}

// VariantQueue accepts resize work for stored images.
type VariantQueue interface {
	Enqueue(ctx context.Context, job VariantJob) error
}

// Processor renders webp variants of stored images on a fixed worker pool.
// A variant is queued at most once until its job finishes.
type Processor struct {
	blobs  storage.Blobs
	logger *slog.Logger
	tracer trace.Tracer

	jobs chan VariantJob
	wg   sync.WaitGroup

	mu      sync.Mutex
	pending map[string]struct{}
}

var _ VariantQueue = (*Processor)(nil)

// NewProcessor starts workers goroutines that stop when ctx is cancelled.
// Queued jobs that were not started are dropped; the next request for the
// variant queues them again.
func NewProcessor(ctx context.Context, blobs storage.Blobs, workers int, logger *slog.Logger) *Processor {
	p := &Processor{
		blobs:   blobs,
		logger:  logger,
		tracer:  otel.Tracer("archsite/media/processor"),
		jobs:    make(chan VariantJob, queueSize),
		pending: make(map[string]struct{}),
	}
	for id := range workers {
		p.wg.Go(func() { p.work(ctx, id) })
	}
	return p
}

// Wait blocks until every worker has exited.
func (p *Processor) Wait() {
	p.wg.Wait()
	p.logger.Info("image processor stopped")
}

// Enqueue schedules a variant. Duplicate requests for a variant already in
// the queue are dropped.
func (p *Processor) Enqueue(ctx context.Context, job VariantJob) error {
	if !slices.Contains(VariantWidths, job.Width) {
		return fmt.Errorf("%w: %d", ErrUnsupportedSize, job.Width)
	}
	dest, ok := VariantKey(job.SourceKey, job.Width)
	if !ok {
		return fmt.Errorf("%w: %q", storage.ErrInvalidKey, job.SourceKey)
	}

	if !p.claim(dest) {
		return nil
	}

	select {
	case <-ctx.Done():
		p.release(dest)
		return ctx.Err()
	case p.jobs <- job:
		return nil
	default:
		p.release(dest)
		return ErrQueueFull
	}
}

func (p *Processor) claim(dest string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.pending[dest]; busy {
		return false
	}
	p.pending[dest] = struct{}{}
	return true
}

func (p *Processor) release(dest string) {
	p.mu.Lock()
	delete(p.pending, dest)
	p.mu.Unlock()
}

func (p *Processor) work(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			dest, _ := VariantKey(job.SourceKey, job.Width)
			if err := p.process(ctx, job, dest); err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Error("variant failed", "worker", id, "key", job.SourceKey, "width", job.Width, "err", err)
			}
			p.release(dest)
		}
	}
}

// process renders job into dest unless another request already did.
func (p *Processor) process(ctx context.Context, job VariantJob, dest string) (err error) {
	ctx, span := p.tracer.Start(ctx, "media.GenerateVariant",
		trace.WithAttributes(
			attribute.String("image.key", job.SourceKey),
			attribute.Int("image.width", job.Width),
		),
		trace.WithLinks(trace.Link{SpanContext: job.ParentSpan}),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "variant failed")
		}
		span.End()
	}()

	if p.blobs.Exists(ctx, dest) {
		span.SetAttributes(attribute.Bool("image.cached", true))
		return nil
	}

	src, err := p.blobs.Open(ctx, job.SourceKey)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	out, err := encodeVariant(ctx, src, job.Width)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("image.bytes", out.Len()))

	if err := p.blobs.Save(ctx, dest, out); err != nil {
		return fmt.Errorf("store variant: %w", err)
	}

	// the source can be deleted while we encode; its variants must go with it
	live, err := p.blobs.Stat(ctx, job.SourceKey)
	if err != nil {
		return fmt.Errorf("recheck source: %w", err)
	}
	if !live {
		span.SetAttributes(attribute.Bool("image.orphaned", true))
		vdir, _ := variantDir(job.SourceKey)
		if err := p.blobs.DeletePrefix(ctx, vdir); err != nil {
			return fmt.Errorf("drop orphaned variants: %w", err)
		}
	}
	return nil
}

// encodeVariant decodes a jpeg, png or gif and returns it as webp no wider
// than width.
func encodeVariant(ctx context.Context, r io.Reader, width int) (*bytes.Reader, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetPhoto, webpQuality)
	if err != nil {
		return nil, fmt.Errorf("encoder options: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, resizeImage(img, width), options); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// resizeImage scales down to maxWidth keeping the aspect ratio. Narrower
// images are returned as is.
func resizeImage(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	if b.Dx() <= maxWidth {
		return src
	}

	height := max(b.Dy()*maxWidth/b.Dx(), 1)
	dst := image.NewNRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
