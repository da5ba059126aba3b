package sqlite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/saucepanapp/saucepan-server/internal/domain"
	"github.com/saucepanapp/saucepan-server/internal/id"
)

// newTestStore creates a store backed by a throwaway database file.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

// makeTestUser creates and persists a user with sensible defaults.
func makeTestUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()

	now := time.Now()
	u := &domain.User{
		ID:           id.MustGenerate("user"),
		Email:        email,
		PasswordHash: "$argon2id$test-hash",
		Name:         "Test User",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

// foreign_keys is per-connection state in SQLite; every connection the
// pool hands out must have it on, not just the one that ran the pragma.
func TestOpen_ForeignKeysOnEveryPooledConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Pin several pool connections open at once so each answers for itself.
	conns := make([]*sql.Conn, 3)
	for i := range conns {
		conn, err := s.db.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn %d: %v", i, err)
		}
		defer conn.Close()
		conns[i] = conn
	}

	for i, conn := range conns {
		var fk int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("PRAGMA foreign_keys on conn %d: %v", i, err)
		}
		if fk != 1 {
			t.Errorf("conn %d: foreign_keys = %d, want 1", i, fk)
		}
	}
}

// makeTestRecipe builds an unsaved recipe owned by userID.
func makeTestRecipe(userID, title string) *domain.Recipe {
	now := time.Now()
	return &domain.Recipe{
		UserID:      userID,
		Title:       title,
		TimeMinutes: 30,
		Price:       "5.00",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
