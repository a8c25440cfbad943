package driven

import (
	"context"
	"time"
)

// PendingAuth represents an in-flight multi-step authorization: the
// authorize URL was issued and the toolkit is awaiting the code. One pending
// record exists per (service, user) while the flow is open; records are
// single-use and expire after a short period.
type PendingAuth struct {
	// State is a cryptographically random string used for CSRF protection
	// and callback correlation.
	State string

	// Service is the toolkit service awaiting authorization (e.g. "gdrive").
	Service string

	// UserID is the tenant that initiated the flow.
	UserID string

	// RedirectURI is the callback URL the provider will redirect to.
	RedirectURI string

	// CreatedAt is when the flow started.
	CreatedAt time.Time

	// ExpiresAt is when the pending authorization lapses (typically 10 minutes).
	ExpiresAt time.Time
}

// Expired reports whether the pending authorization has lapsed.
func (p *PendingAuth) Expired() bool {
	return time.Now().After(p.ExpiresAt)
}

// PendingAuthStore persists in-flight authorization flows. This is the
// durable form of the "awaiting input" toolkit state: presence of a live
// record means the configuration dialog is mid-flow.
type PendingAuthStore interface {
	// Save stores a pending authorization, replacing any previous one for
	// the same (service, user).
	Save(ctx context.Context, pending *PendingAuth) error

	// GetAndDelete atomically retrieves and deletes the record for a state,
	// ensuring single-use semantics. Only a record belonging to the given
	// service is consumed: another service's record with the same state is
	// left in place. Returns nil, nil when absent, expired, or owned by a
	// different service.
	GetAndDelete(ctx context.Context, service, state string) (*PendingAuth, error)

	// GetByUser returns the live pending authorization for (service, user),
	// or nil, nil when none is open. The record stays in place; it is
	// consumed via GetAndDelete once the code arrives.
	GetByUser(ctx context.Context, service, userID string) (*PendingAuth, error)

	// Delete removes the pending authorization for (service, user), if any.
	Delete(ctx context.Context, service, userID string) error

	// Cleanup removes expired records. Backends with native TTL may no-op.
	Cleanup(ctx context.Context) error
}
