package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/saucepanapp/saucepan-server/internal/store"
)

// GetAuthToken returns the stored token for a user.
// Returns store.ErrNotFound when the user has no active token.
func (s *Store) GetAuthToken(ctx context.Context, userID string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT token FROM auth_tokens WHERE user_id = ?`, userID).Scan(&token)
	if err == sql.ErrNoRows {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// SetAuthToken stores the active token for a user, replacing any prior one.
func (s *Store) SetAuthToken(ctx context.Context, userID, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (user_id, token, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET token = excluded.token, created_at = excluded.created_at`,
		userID,
		token,
		formatTime(time.Now()),
	)
	return err
}

// DeleteAuthToken removes the active token for a user.
// Deleting a token that does not exist is not an error.
func (s *Store) DeleteAuthToken(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM auth_tokens WHERE user_id = ?`, userID)
	return err
}
