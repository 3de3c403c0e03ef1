package cms

import (
	"archsite/internal/content"
	"archsite/internal/storage"
	"archsite/internal/telemetry"
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// admin inbox page size
const contactListLimit = 500

type Contacts struct {
	store   storage.Store
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

func NewContacts(store storage.Store, metrics *telemetry.Metrics, logger *slog.Logger) *Contacts {
	return &Contacts{store: store, metrics: metrics, logger: logger}
}

// Submit validates and stores a contact form post.
func (c *Contacts) Submit(ctx context.Context, fields content.Fields) (*storage.ContactMessage, error) {
	in, ferrs := content.ValidateContact(fields)
	if ferrs != nil {
		c.metrics.ContactMessagesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "invalid")))
		return nil, &ValidationError{Fields: ferrs}
	}

	msg := &storage.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Message: in.Message,
	}
	if in.Phone != "" {
		msg.Phone = &in.Phone
	}

	created, err := c.store.CreateContact(ctx, msg)
	if err != nil {
		c.metrics.ContactMessagesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		c.logger.Error("failed to store contact message", "err", err)
		return nil, classify(err, "")
	}

	c.metrics.ContactMessagesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
	c.logger.Info("contact message received", "id", created.ID)
	return created, nil
}

// List returns messages newest first.
func (c *Contacts) List(ctx context.Context) ([]*storage.ContactMessage, error) {
	msgs, err := c.store.ListContacts(ctx, 0, contactListLimit)
	if err != nil {
		return nil, classify(err, "")
	}
	return msgs, nil
}

func (c *Contacts) Delete(ctx context.Context, id string) error {
	if err := c.store.DeleteContact(ctx, id); err != nil {
		return classify(err, "")
	}
	c.logger.Info("contact message deleted", "id", id)
	return nil
}
