package sqlite

import (
	"archsite/internal/storage"
	"errors"
	"strings"
	"testing"
)

func TestCreateUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		hash     string
		wantErr  error
	}{
		{"nominal", "studio", gen60CharString(), nil},
		{"username too short", "ab", gen60CharString(), storage.ErrCheckViolation},
		{"username too long", strings.Repeat("a", 51), gen60CharString(), storage.ErrCheckViolation},
		{"hash is not bcrypt sized", "studio", gen60CharString()[:40], storage.ErrCheckViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := setupTestStore(t)

			got, err := store.CreateUser(t.Context(), tt.username, tt.hash)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateUser error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if got.ID == 0 || got.Username != tt.username || got.PasswordHash != tt.hash {
				t.Errorf("unexpected row: %+v", got)
			}
			if got.CreatedAt.IsZero() || got.PasswordChangedAt.IsZero() {
				t.Error("timestamps not set")
			}
		})
	}
}

func TestUsernamesAreCaseInsensitive(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := t.Context()

	created, err := store.CreateUser(ctx, "Studio", gen60CharString())
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := store.GetUserByUsername(ctx, "STUDIO")
	if err != nil {
		t.Fatalf("lookup with other case failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("got id %d, want %d", got.ID, created.ID)
	}

	if _, err := store.CreateUser(ctx, "studio", gen60CharString()); !errors.Is(err, storage.ErrUniqueViolation) {
		t.Errorf("duplicate in other case: got %v, want ErrUniqueViolation", err)
	}

	if _, err := store.GetUserByUsername(ctx, "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown user: got %v, want ErrNotFound", err)
	}
}

func TestSetUserPassword(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := t.Context()

	if _, err := store.CreateUser(ctx, "studio", gen60CharString()); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	tests := []struct {
		name     string
		username string
		hash     string
		wantErr  error
	}{
		{"nominal", "studio", gen60CharString(), nil},
		{"invalid hash", "studio", "short", storage.ErrCheckViolation},
		{"unknown account", "nobody", gen60CharString(), storage.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SetUserPassword(ctx, tt.username, tt.hash)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetUserPassword error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			got, err := store.GetUserByUsername(ctx, tt.username)
			if err != nil {
				t.Fatalf("GetUserByUsername failed: %v", err)
			}
			if got.PasswordHash != tt.hash {
				t.Error("hash was not replaced")
			}
		})
	}
}
