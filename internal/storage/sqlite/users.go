package sqlite

import (
	"archsite/internal/storage"
	"context"
	"fmt"
)

const userColumns = `id, username, password_hash, created_at, password_changed_at`

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*storage.User, error) {
	query := `INSERT INTO admin_users (username, password_hash)
		VALUES (?, ?)
		RETURNING ` + userColumns

	var u storage.User
	if err := s.db.GetContext(ctx, &u, query, username, passwordHash); err != nil {
		return nil, fmt.Errorf("create admin %q: %w", username, mapSqlError(err))
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	query := `SELECT ` + userColumns + ` FROM admin_users WHERE username = ?`

	var u storage.User
	if err := s.db.GetContext(ctx, &u, query, username); err != nil {
		return nil, fmt.Errorf("find admin %q: %w", username, mapSqlError(err))
	}
	return &u, nil
}

// SetUserPassword replaces the hash of an existing account.
func (s *Store) SetUserPassword(ctx context.Context, username, passwordHash string) error {
	query := `UPDATE admin_users
		SET password_hash = ?, password_changed_at = CURRENT_TIMESTAMP
		WHERE username = ?`

	res, err := s.db.ExecContext(ctx, query, passwordHash, username)
	if err != nil {
		return fmt.Errorf("set password for %q: %w", username, mapSqlError(err))
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("set password for %q: %w", username, err)
	} else if n == 0 {
		return fmt.Errorf("set password for %q: %w", username, storage.ErrNotFound)
	}
	return nil
}
