package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agentllm/agentllm-core/internal/core/domain"
	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
)

// TokenAdmin implements token inspection and administration over the store.
// It deals only in metadata; decrypted secret values never pass through it.
type TokenAdmin struct {
	store    driven.TokenStore
	registry *domain.TokenTypeRegistry
	logger   *slog.Logger
}

// NewTokenAdmin creates a TokenAdmin service.
func NewTokenAdmin(store driven.TokenStore, registry *domain.TokenTypeRegistry, logger *slog.Logger) *TokenAdmin {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenAdmin{store: store, registry: registry, logger: logger}
}

// Services returns the registered service names, sorted.
func (s *TokenAdmin) Services() []string {
	return s.registry.Services()
}

// ListTokens returns safe summaries for every record of a service.
func (s *TokenAdmin) ListTokens(ctx context.Context, service string) ([]domain.TokenSummary, error) {
	return s.store.Summaries(ctx, service)
}

// ListUsers returns the user IDs holding a record for the service.
func (s *TokenAdmin) ListUsers(ctx context.Context, service string) ([]string, error) {
	return s.store.ListUsers(ctx, service)
}

// FirstUser picks a representative user for smoke tests. Users configured
// for both Jira and Google Drive come first (they can exercise the full
// release-manager path); otherwise the most recently updated Jira user, then
// any user at all.
func (s *TokenAdmin) FirstUser(ctx context.Context) (string, error) {
	jiraUsers, err := s.store.ListUsers(ctx, domain.ServiceJira)
	if err != nil {
		return "", fmt.Errorf("listing jira users: %w", err)
	}
	gdriveUsers, err := s.store.ListUsers(ctx, domain.ServiceGoogleDrive)
	if err != nil {
		return "", fmt.Errorf("listing gdrive users: %w", err)
	}

	gdriveSet := make(map[string]bool, len(gdriveUsers))
	for _, u := range gdriveUsers {
		gdriveSet[u] = true
	}
	for _, u := range jiraUsers {
		if gdriveSet[u] {
			return u, nil
		}
	}
	if len(jiraUsers) > 0 {
		return jiraUsers[0], nil
	}

	for _, service := range s.registry.Services() {
		users, err := s.store.ListUsers(ctx, service)
		if err != nil {
			return "", fmt.Errorf("listing %s users: %w", service, err)
		}
		if len(users) > 0 {
			return users[0], nil
		}
	}
	return "", fmt.Errorf("no stored tokens: %w", domain.ErrNotFound)
}

// UserDetails returns a summary per service the user holds a record for.
func (s *TokenAdmin) UserDetails(ctx context.Context, userID string) ([]domain.TokenSummary, error) {
	services, err := s.store.ListServicesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var details []domain.TokenSummary
	for _, service := range services {
		summaries, err := s.store.Summaries(ctx, service)
		if err != nil {
			return nil, err
		}
		for _, summary := range summaries {
			if summary.UserID == userID {
				details = append(details, summary)
			}
		}
	}
	return details, nil
}

// DeleteUserTokens removes the user's records across all registered
// services and returns the services that actually held one. The store
// performs the multi-service removal atomically.
func (s *TokenAdmin) DeleteUserTokens(ctx context.Context, userID string) ([]string, error) {
	deleted, err := s.store.DeleteAllForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("deleting tokens for user %s: %w", userID, err)
	}
	s.logger.Info("deleted user tokens", "user_id", userID, "services", deleted)
	return deleted, nil
}
