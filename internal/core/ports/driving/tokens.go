package driving

import (
	"context"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

// TokenAdminService handles token inspection and administration operations.
// It never exposes decrypted secret values; callers see metadata only.
type TokenAdminService interface {
	// Services returns the registered service names, sorted.
	Services() []string

	// ListTokens returns safe per-record summaries for a service.
	ListTokens(ctx context.Context, service string) ([]domain.TokenSummary, error)

	// ListUsers returns the user IDs holding a record for a service,
	// most recently updated first.
	ListUsers(ctx context.Context, service string) ([]string, error)

	// FirstUser picks a representative user for smoke-testing, preferring
	// users configured for both Jira and Google Drive. Fails with
	// domain.ErrNotFound when no tokens exist at all.
	FirstUser(ctx context.Context) (string, error)

	// UserDetails returns, per service the user is configured for, the
	// non-secret field values and timestamps.
	UserDetails(ctx context.Context, userID string) ([]domain.TokenSummary, error)

	// DeleteUserTokens removes the user's records across all services,
	// returning the services that actually held one.
	DeleteUserTokens(ctx context.Context, userID string) ([]string, error)
}
