package sqlite

import (
	"archsite/internal/storage"
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store implements storage.Store on a single sqlite file.
type Store struct {
	db *sqlx.DB
}

var _ storage.Store = (*Store)(nil)

func NewStore(dbPath string) (*Store, error) {
	db, err := NewDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RawDB exposes the underlying *sql.DB for the session store.
func (s *Store) RawDB() *sql.DB {
	return s.db.DB
}

// Ping reports whether the database answers, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// constraint codes and the storage error each one means
var constraintErrors = map[int]error{
	sqlite3.SQLITE_CONSTRAINT_UNIQUE:     storage.ErrUniqueViolation,
	sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY: storage.ErrUniqueViolation,
	sqlite3.SQLITE_CONSTRAINT_CHECK:      storage.ErrCheckViolation,
	sqlite3.SQLITE_CONSTRAINT_NOTNULL:    storage.ErrCheckViolation,
	sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY: storage.ErrCheckViolation,
}

// mapSqlError translates driver errors into the storage sentinels. Anything
// else is returned unchanged.
func mapSqlError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		if mapped, ok := constraintErrors[sqliteErr.Code()]; ok {
			return mapped
		}
	}
	return err
}
