package media

import (
	"archsite/internal/telemetry"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Plan is the outcome of reconciling one media slot. New files are already
// stored when a Plan is returned; files that leave the slot are only removed
// by Commit, once the record pointing at Paths has been written. Rollback
// removes the staged files instead when that write fails.
type Plan struct {
	Role Role
	// Paths is the next state of the slot: survivors in their original order,
	// then new uploads in submission order. Cover plans hold at most one path.
	Paths []string
	// Staged lists the files stored by this plan.
	Staged []string
	// Pending lists the files to remove on Commit.
	Pending []string

	owner    Owner
	r        *Reconciler
	resolved bool
}

// Cover returns the single cover path, or nil when the slot is empty.
func (p *Plan) Cover() *string {
	if p == nil || len(p.Paths) == 0 {
		return nil
	}
	c := p.Paths[0]
	return &c
}

// Commit applies the pending deletions and returns the paths actually
// removed. Failures are logged and skipped since the record no longer
// references those files.
func (p *Plan) Commit(ctx context.Context) []string {
	if p == nil || p.resolved {
		return nil
	}
	p.resolved = true
	return p.r.remove(ctx, p.owner, "commit", p.Pending)
}

// Rollback removes the files this plan staged.
func (p *Plan) Rollback(ctx context.Context) []string {
	if p == nil || p.resolved {
		return nil
	}
	p.resolved = true
	return p.r.remove(ctx, p.owner, "rollback", p.Staged)
}

type Reconciler struct {
	store   *Store
	metrics *telemetry.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewReconciler(store *Store, metrics *telemetry.Metrics, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		metrics: metrics,
		logger:  logger,
		tracer:  otel.Tracer("archsite/media/reconciler"),
	}
}

// ReconcileCover computes the next cover of owner. A non-empty upload replaces
// existing; otherwise remove clears it.
func (r *Reconciler) ReconcileCover(ctx context.Context, owner Owner, existing string, remove bool, upload Upload) (*Plan, error) {
	ctx, span := r.tracer.Start(ctx, "Reconciler.Cover", trace.WithAttributes(
		attribute.String("media.owner", owner.String()),
		attribute.Bool("media.remove", remove),
	))
	defer span.End()

	plan := &Plan{Role: RoleCover, owner: owner, r: r}

	switch {
	case !upload.IsEmpty():
		p, err := r.stage(ctx, owner, RoleCover, upload)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		plan.Staged = []string{p}
		plan.Paths = []string{p}
		if existing != "" {
			plan.Pending = []string{existing}
		}
	case remove && existing != "":
		plan.Pending = []string{existing}
	case existing != "":
		plan.Paths = []string{existing}
	}

	return plan, nil
}

// ReconcileContent computes the next content image list of owner. Deletion
// requests that are not part of existing are ignored. Uploads are stored one
// at a time in order; if one fails the files staged before it are removed.
func (r *Reconciler) ReconcileContent(ctx context.Context, owner Owner, existing, deletions []string, uploads []Upload) (*Plan, error) {
	ctx, span := r.tracer.Start(ctx, "Reconciler.Content", trace.WithAttributes(
		attribute.String("media.owner", owner.String()),
		attribute.Int("media.existing", len(existing)),
		attribute.Int("media.deletions", len(deletions)),
		attribute.Int("media.uploads", len(uploads)),
	))
	defer span.End()

	plan := &Plan{Role: RoleContent, owner: owner, r: r}

	survivors := make([]string, 0, len(existing)+len(uploads))
	for _, p := range existing {
		if slices.Contains(deletions, p) {
			if !slices.Contains(plan.Pending, p) {
				plan.Pending = append(plan.Pending, p)
			}
			continue
		}
		survivors = append(survivors, p)
	}

	for _, u := range uploads {
		if u.IsEmpty() {
			continue
		}
		p, err := r.stage(ctx, owner, RoleContent, u)
		if err != nil {
			span.RecordError(err)
			r.remove(ctx, owner, "abort", plan.Staged)
			return nil, err
		}
		plan.Staged = append(plan.Staged, p)
		survivors = append(survivors, p)
	}

	plan.Paths = survivors
	span.SetAttributes(
		attribute.Int("media.staged", len(plan.Staged)),
		attribute.Int("media.pending", len(plan.Pending)),
	)
	return plan, nil
}

func (r *Reconciler) stage(ctx context.Context, owner Owner, role Role, u Upload) (string, error) {
	p, err := r.store.Put(ctx, owner, role, u.Data, u.Filename)
	if err != nil {
		return "", fmt.Errorf("could not store %s: %w", u.Filename, err)
	}
	r.metrics.MediaStoredTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("role", string(role))))
	r.logger.Debug("media staged", "owner", owner.String(), "role", role, "path", p)
	return p, nil
}

func (r *Reconciler) remove(ctx context.Context, owner Owner, reason string, paths []string) []string {
	removed := make([]string, 0, len(paths))
	for _, p := range paths {
		if err := r.store.Delete(ctx, p); err != nil {
			r.logger.Warn("media cleanup failed", "owner", owner.String(), "reason", reason, "path", p, "err", err)
			continue
		}
		removed = append(removed, p)
	}
	if len(removed) > 0 {
		r.metrics.MediaDeletedTotal.Add(ctx, int64(len(removed)), metric.WithAttributes(attribute.String("reason", reason)))
		r.logger.Info("media removed", "owner", owner.String(), "reason", reason, "count", len(removed))
	}
	return removed
}
