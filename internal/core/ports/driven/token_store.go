package driven

import (
	"context"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

// TokenStore is the durable, multi-tenant credential store. Records are keyed
// by (service, user_id) with at most one record per pair. Implementations
// apply field-level encryption transparently: callers only ever see
// plaintext values.
type TokenStore interface {
	// Upsert creates or updates the record for (service, userID). Only the
	// supplied fields are written; others keep their stored values. Field
	// names outside the service's registered set fail with
	// domain.ErrValidation and leave any existing record untouched. The
	// insert-or-update decision is atomic: concurrent upserts for a
	// brand-new key resolve to exactly one record.
	Upsert(ctx context.Context, service, userID string, fields map[string]string) error

	// Get returns the decrypted field values for (service, userID), or
	// nil, nil when no record exists. Ciphertext unreadable under the
	// current key fails with domain.ErrDecryption.
	Get(ctx context.Context, service, userID string) (map[string]string, error)

	// Delete removes the record, reporting whether one existed. Deleting a
	// missing record is not an error.
	Delete(ctx context.Context, service, userID string) (bool, error)

	// DeleteAllForUser removes the user's records across every registered
	// service in one atomic operation and returns the services that held
	// one, sorted. Either all of the user's records go or none do.
	DeleteAllForUser(ctx context.Context, userID string) ([]string, error)

	// ListUsers returns the user IDs holding a record for the service,
	// most recently updated first. Metadata only, no decryption.
	ListUsers(ctx context.Context, service string) ([]string, error)

	// ListServicesForUser returns the services for which the user holds a
	// record. Metadata only, no decryption.
	ListServicesForUser(ctx context.Context, userID string) ([]string, error)

	// Summaries returns safe per-record views for the service: non-secret
	// field values plus timestamps, most recently updated first.
	Summaries(ctx context.Context, service string) ([]domain.TokenSummary, error)
}
