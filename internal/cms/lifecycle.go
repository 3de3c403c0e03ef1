package cms

import (
	"archsite/internal/content"
	"archsite/internal/media"
	"archsite/internal/storage"
	"archsite/internal/telemetry"
	"context"
	"errors"
	"log/slog"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type stage string

const (
	stageValidating  stage = "validating"
	stageReconciling stage = "reconciling_media"
	stagePersisting  stage = "persisting"
	stageDone        stage = "done"
)

// Submission is an admin form post for one entity.
type Submission struct {
	Fields        content.Fields
	Cover         media.Upload
	ContentImages []media.Upload
	// update only
	RemoveCover  bool
	DeleteImages []string
}

// Manager runs create, update and delete for content entities. Validation
// always happens before any file or row is touched; files are staged before
// the row is written and their old versions removed only after it is.
type Manager struct {
	store      storage.Store
	media      *media.Store
	reconciler *media.Reconciler
	metrics    *telemetry.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	newID      func() string
}

func NewManager(store storage.Store, mediaStore *media.Store, reconciler *media.Reconciler, metrics *telemetry.Metrics, logger *slog.Logger) *Manager {
	return &Manager{
		store:      store,
		media:      mediaStore,
		reconciler: reconciler,
		metrics:    metrics,
		logger:     logger,
		tracer:     otel.Tracer("archsite/cms/lifecycle"),
		newID:      func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// operation tracks the state of one lifecycle call on its span, log and metric.
type operation struct {
	m      *Manager
	ctx    context.Context
	span   trace.Span
	logger *slog.Logger
	kind   content.Kind
	name   string
	stage  stage
}

func (m *Manager) begin(ctx context.Context, name string, kind content.Kind, id string) (context.Context, *operation) {
	ctx, span := m.tracer.Start(ctx, "Lifecycle."+name, trace.WithAttributes(
		attribute.String("entity.kind", string(kind)),
		attribute.String("entity.id", id),
	))
	return ctx, &operation{
		m:      m,
		ctx:    ctx,
		span:   span,
		logger: m.logger.With("op", name, "kind", kind, "id", id),
		kind:   kind,
		name:   name,
	}
}

func (op *operation) enter(s stage) {
	op.stage = s
	op.span.AddEvent(string(s))
}

func (op *operation) fail(err error) error {
	op.span.RecordError(err)
	op.span.SetStatus(codes.Error, "failed at "+string(op.stage))
	op.span.SetAttributes(attribute.String("lifecycle.failed_stage", string(op.stage)))
	op.span.End()
	op.m.metrics.RecordMutation(op.ctx, string(op.kind), op.name, "failed_"+string(op.stage))

	var verr *ValidationError
	if errors.As(err, &verr) {
		op.logger.Info("entity rejected", "stage", op.stage, "err", err)
	} else {
		op.logger.Error("entity operation failed", "stage", op.stage, "err", err)
	}
	return err
}

func (op *operation) done() {
	op.enter(stageDone)
	op.span.End()
	op.m.metrics.RecordMutation(op.ctx, string(op.kind), op.name, "ok")
}

// Create validates sub, stores its files under a freshly generated id and
// writes the record.
func (m *Manager) Create(ctx context.Context, kind content.Kind, sub Submission) (*storage.Entity, error) {
	id := m.newID()
	ctx, op := m.begin(ctx, "create", kind, id)

	op.enter(stageValidating)
	rec, ferrs := content.Validate(kind, sub.Fields)
	if ferrs != nil {
		return nil, op.fail(&ValidationError{Fields: ferrs})
	}

	op.enter(stageReconciling)
	owner := media.Owner{Kind: kind, ID: id}
	cover, images, err := m.reconcile(ctx, owner, nil, sub)
	if err != nil {
		return nil, op.fail(err)
	}

	op.enter(stagePersisting)
	entity := newEntity(id, rec, cover.Cover(), images.Paths)
	created, err := m.store.CreateEntity(ctx, entity)
	if err != nil {
		// files staged for a record that does not exist
		cover.Rollback(ctx)
		images.Rollback(ctx)
		return nil, op.fail(classify(err, rec.Slug))
	}

	cover.Commit(ctx)
	images.Commit(ctx)

	op.done()
	op.logger.Info("entity created", "slug", created.Slug, "images", len(created.ContentImages))
	return created, nil
}

// Update validates sub and rewrites every field of the record with id. The
// content images keep their order with new uploads appended.
func (m *Manager) Update(ctx context.Context, kind content.Kind, id string, sub Submission) (*storage.Entity, error) {
	ctx, op := m.begin(ctx, "update", kind, id)

	op.enter(stageValidating)
	rec, ferrs := content.Validate(kind, sub.Fields)
	if ferrs != nil {
		return nil, op.fail(&ValidationError{Fields: ferrs})
	}

	op.enter(stageReconciling)
	existing, err := m.store.GetEntityByID(ctx, kind, id)
	if err != nil {
		return nil, op.fail(classify(err, rec.Slug))
	}

	owner := media.Owner{Kind: kind, ID: id}
	cover, images, err := m.reconcile(ctx, owner, existing, sub)
	if err != nil {
		return nil, op.fail(err)
	}

	op.enter(stagePersisting)
	entity := newEntity(id, rec, cover.Cover(), images.Paths)
	updated, err := m.store.UpdateEntity(ctx, entity)
	if err != nil {
		// the row still points at the old files, drop the new ones
		cover.Rollback(ctx)
		images.Rollback(ctx)
		return nil, op.fail(classify(err, rec.Slug))
	}

	removed := append(cover.Commit(ctx), images.Commit(ctx)...)

	op.done()
	op.logger.Info("entity updated", "slug", updated.Slug, "images", len(updated.ContentImages), "removed_files", len(removed))
	return updated, nil
}

// Delete removes the record then every file of the entity. File cleanup is
// best effort and never fails the call.
func (m *Manager) Delete(ctx context.Context, kind content.Kind, id string) error {
	ctx, op := m.begin(ctx, "delete", kind, id)

	op.enter(stagePersisting)
	if err := m.store.DeleteEntity(ctx, kind, id); err != nil {
		return op.fail(classify(err, ""))
	}

	if err := m.media.DeleteAll(ctx, media.Owner{Kind: kind, ID: id}); err != nil {
		op.logger.Warn("entity media left behind", "err", err)
	}

	op.done()
	op.logger.Info("entity deleted")
	return nil
}

// reconcile stages the cover then the content images. existing is nil on create.
func (m *Manager) reconcile(ctx context.Context, owner media.Owner, existing *storage.Entity, sub Submission) (*media.Plan, *media.Plan, error) {
	var (
		oldCover  string
		oldImages []string
	)
	if existing != nil {
		oldCover = existing.Cover()
		oldImages = existing.ContentImages
	} else {
		sub.RemoveCover = false
		sub.DeleteImages = nil
	}

	cover, err := m.reconciler.ReconcileCover(ctx, owner, oldCover, sub.RemoveCover, sub.Cover)
	if err != nil {
		return nil, nil, &UploadError{Err: err}
	}

	images, err := m.reconciler.ReconcileContent(ctx, owner, oldImages, sub.DeleteImages, sub.ContentImages)
	if err != nil {
		cover.Rollback(ctx)
		return nil, nil, &UploadError{Err: err}
	}

	return cover, images, nil
}

func newEntity(id string, rec content.Record, cover *string, images []string) *storage.Entity {
	if images == nil {
		images = []string{}
	}
	return &storage.Entity{
		ID:             id,
		Kind:           rec.Kind,
		Slug:           rec.Slug,
		Title:          rec.Title,
		Description:    rec.Description,
		Content:        rec.Content,
		CoverImage:     cover,
		ContentImages:  images,
		Location:       rec.Location,
		Category:       rec.Category,
		CompletionDate: rec.CompletionDate,
		IsFeatured:     rec.IsFeatured,
		PublishDate:    rec.PublishDate,
		IsPublished:    rec.IsPublished,
	}
}
