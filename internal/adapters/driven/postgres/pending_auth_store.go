package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
)

// PendingAuthStore is the PostgreSQL implementation of
// driven.PendingAuthStore. Single-use semantics come from
// DELETE ... RETURNING: the fetch and the invalidation are one statement.
type PendingAuthStore struct {
	db *DB
}

// NewPendingAuthStore creates a PendingAuthStore.
func NewPendingAuthStore(db *DB) *PendingAuthStore {
	return &PendingAuthStore{db: db}
}

var _ driven.PendingAuthStore = (*PendingAuthStore)(nil)

func (s *PendingAuthStore) Save(ctx context.Context, pending *driven.PendingAuth) error {
	query := `
		INSERT INTO pending_authorizations (state, service, user_id, redirect_uri, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (service, user_id) DO UPDATE SET
			state = EXCLUDED.state,
			redirect_uri = EXCLUDED.redirect_uri,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`

	_, err := s.db.ExecContext(ctx, query,
		pending.State, pending.Service, pending.UserID,
		pending.RedirectURI, pending.CreatedAt, pending.ExpiresAt)
	if err != nil {
		return fmt.Errorf("saving pending authorization: %w", err)
	}
	return nil
}

func (s *PendingAuthStore) GetAndDelete(ctx context.Context, service, state string) (*driven.PendingAuth, error) {
	query := `
		DELETE FROM pending_authorizations
		WHERE service = $1 AND state = $2
		RETURNING state, service, user_id, redirect_uri, created_at, expires_at`

	pending := &driven.PendingAuth{}
	err := s.db.QueryRowContext(ctx, query, service, state).Scan(
		&pending.State, &pending.Service, &pending.UserID,
		&pending.RedirectURI, &pending.CreatedAt, &pending.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consuming pending authorization: %w", err)
	}
	if pending.Expired() {
		return nil, nil
	}
	return pending, nil
}

func (s *PendingAuthStore) GetByUser(ctx context.Context, service, userID string) (*driven.PendingAuth, error) {
	query := `
		SELECT state, service, user_id, redirect_uri, created_at, expires_at
		FROM pending_authorizations
		WHERE service = $1 AND user_id = $2 AND expires_at > now()`

	pending := &driven.PendingAuth{}
	err := s.db.QueryRowContext(ctx, query, service, userID).Scan(
		&pending.State, &pending.Service, &pending.UserID,
		&pending.RedirectURI, &pending.CreatedAt, &pending.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading pending authorization: %w", err)
	}
	return pending, nil
}

func (s *PendingAuthStore) Delete(ctx context.Context, service, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM pending_authorizations WHERE service = $1 AND user_id = $2",
		service, userID)
	if err != nil {
		return fmt.Errorf("deleting pending authorization: %w", err)
	}
	return nil
}

func (s *PendingAuthStore) Cleanup(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM pending_authorizations WHERE expires_at <= now()")
	if err != nil {
		return fmt.Errorf("cleaning up pending authorizations: %w", err)
	}
	return nil
}
