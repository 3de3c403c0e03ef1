package storage

import (
	"archsite/internal/config"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DeleteObjects accepts at most this many keys per call
const s3DeleteBatch = 1000

// S3Store keeps media in one bucket of an S3 compatible service such as
// Garage or MinIO. Keys map one to one onto object names.
type S3Store struct {
	client *s3.Client
	bucket string
	tracer trace.Tracer
}

var _ Blobs = (*S3Store)(nil)

func NewS3Store(cfg config.S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		tracer: otel.Tracer("archsite/storage/s3"),
	}, nil
}

func (s *S3Store) start(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "S3."+op, trace.WithAttributes(
		attribute.String("s3.bucket", s.bucket),
		attribute.String("s3.key", key),
	))
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func isMissing(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}

// Open streams an object. A missing key reports fs.ErrNotExist like the
// local store does.
func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	ctx, span := s.start(ctx, "Open", key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isMissing(err) {
			err = fmt.Errorf("%s: %w", key, fs.ErrNotExist)
		}
		spanError(span, err)
		span.End()
		return nil, err
	}
	span.SetAttributes(attribute.Int64("s3.size", aws.ToInt64(out.ContentLength)))

	// the span covers the whole download
	return &spanClosingReader{ReadCloser: out.Body, span: span}, nil
}

func (s *S3Store) Exists(ctx context.Context, key string) bool {
	ok, err := s.Stat(ctx, key)
	return ok && err == nil
}

// Stat tells a missing object apart from a failed HEAD request. Throttling
// or a 5xx must not read as "free to write".
func (s *S3Store) Stat(ctx context.Context, key string) (bool, error) {
	key, err := cleanKey(key)
	if err != nil {
		return false, err
	}

	ctx, span := s.start(ctx, "Head", key)
	defer span.End()

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		return true, nil
	case isMissing(err):
		return false, nil
	default:
		return false, spanError(span, fmt.Errorf("head %s: %w", key, err))
	}
}

// Save uploads body with a content type guessed from the key extension.
func (s *S3Store) Save(ctx context.Context, key string, body io.Reader) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	ctx, span := s.start(ctx, "Save", key)
	defer span.End()

	// payload signing needs a seekable body
	rs, ok := body.(io.ReadSeeker)
	if !ok {
		buf, err := io.ReadAll(body)
		if err != nil {
			return spanError(span, fmt.Errorf("buffer %s: %w", key, err))
		}
		rs = bytes.NewReader(buf)
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   rs,
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		in.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return spanError(span, fmt.Errorf("put %s: %w", key, err))
	}
	return nil
}

// Delete relies on S3 reporting success for keys that do not exist.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	ctx, span := s.start(ctx, "Delete", key)
	defer span.End()

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return spanError(span, fmt.Errorf("delete %s: %w", key, err))
	}
	return nil
}

// DeletePrefix lists the prefix page by page and removes the objects in
// batches.
func (s *S3Store) DeletePrefix(ctx context.Context, prefix string) error {
	prefix, err := cleanKey(prefix)
	if err != nil {
		return err
	}
	prefix = strings.TrimSuffix(prefix, "/") + "/"

	ctx, span := s.start(ctx, "DeletePrefix", prefix)
	defer span.End()

	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	deleted := 0
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return spanError(span, fmt.Errorf("list %s: %w", prefix, err))
		}

		for batch := range chunkKeys(page.Contents, s3DeleteBatch) {
			if err := s.deleteBatch(ctx, batch); err != nil {
				return spanError(span, err)
			}
			deleted += len(batch)
		}
	}

	span.SetAttributes(attribute.Int("s3.deleted", deleted))
	return nil
}

func (s *S3Store) deleteBatch(ctx context.Context, batch []types.ObjectIdentifier) error {
	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: batch, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	if len(out.Errors) > 0 {
		first := out.Errors[0]
		return fmt.Errorf("delete %s: %s (%d failed)", aws.ToString(first.Key), aws.ToString(first.Message), len(out.Errors))
	}
	return nil
}

// chunkKeys yields the listed objects as identifier batches of at most size.
func chunkKeys(objects []types.Object, size int) func(yield func([]types.ObjectIdentifier) bool) {
	return func(yield func([]types.ObjectIdentifier) bool) {
		batch := make([]types.ObjectIdentifier, 0, min(size, len(objects)))
		for _, obj := range objects {
			batch = append(batch, types.ObjectIdentifier{Key: obj.Key})
			if len(batch) == size {
				if !yield(batch) {
					return
				}
				batch = make([]types.ObjectIdentifier, 0, size)
			}
		}
		if len(batch) > 0 {
			yield(batch)
		}
	}
}

type spanClosingReader struct {
	io.ReadCloser
	span trace.Span
}

func (r *spanClosingReader) Close() error {
	r.span.End()
	return r.ReadCloser.Close()
}
