package sqlite

import (
	"archsite/internal/storage"
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
)

func (s *Store) CreateContact(ctx context.Context, c *storage.ContactMessage) (*storage.ContactMessage, error) {
	query := `INSERT INTO contacts (id, name, email, phone, message)
		VALUES (?, ?, ?, ?, ?)
		RETURNING *`

	id := uuid.Must(uuid.NewV7()).String()

	var created storage.ContactMessage
	if err := s.db.GetContext(ctx, &created, query, id, c.Name, c.Email, c.Phone, c.Message); err != nil {
		return nil, fmt.Errorf("could not store contact message: %w", mapSqlError(err))
	}
	return &created, nil
}

func (s *Store) ListContacts(ctx context.Context, offset, limit int64) ([]*storage.ContactMessage, error) {
	query := `SELECT * FROM contacts
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
		OFFSET ?`

	var contacts []*storage.ContactMessage
	if err := s.db.SelectContext(ctx, &contacts, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", mapSqlError(err))
	}
	return contacts, nil
}

func (s *Store) DeleteContact(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete contact: %w", mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CountContacts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM contacts`); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", mapSqlError(err))
	}
	return n, nil
}
