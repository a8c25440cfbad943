package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentllm/agentllm-core/internal/core/domain"
	"github.com/agentllm/agentllm-core/internal/core/ports/driven/mocks"
)

func newTokenAdmin(t *testing.T) (*TokenAdmin, *mocks.MockTokenStore) {
	t.Helper()
	registry := domain.DefaultTokenTypes()
	store := mocks.NewMockTokenStore(registry)
	return NewTokenAdmin(store, registry, nil), store
}

func TestTokenAdmin_FirstUserPrefersJiraAndGdrive(t *testing.T) {
	admin, store := newTokenAdmin(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, domain.ServiceJira, "jira-only", map[string]string{"token": "a"}))
	require.NoError(t, store.Upsert(ctx, domain.ServiceJira, "both", map[string]string{"token": "b"}))
	require.NoError(t, store.Upsert(ctx, domain.ServiceGoogleDrive, "both", map[string]string{"access_token": "c"}))

	user, err := admin.FirstUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "both", user)
}

func TestTokenAdmin_FirstUserFallsBackToJira(t *testing.T) {
	admin, store := newTokenAdmin(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, domain.ServiceJira, "jira-only", map[string]string{"token": "a"}))

	user, err := admin.FirstUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jira-only", user)
}

func TestTokenAdmin_FirstUserEmptyStore(t *testing.T) {
	admin, _ := newTokenAdmin(t)

	_, err := admin.FirstUser(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTokenAdmin_UserDetailsOnlyOwnRecords(t *testing.T) {
	admin, store := newTokenAdmin(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, domain.ServiceJira, "alice", map[string]string{
		"token":      "secret",
		"server_url": "https://issues.example.com",
	}))
	require.NoError(t, store.Upsert(ctx, domain.ServiceJira, "bob", map[string]string{"token": "other"}))
	require.NoError(t, store.Upsert(ctx, domain.ServiceRHCP, "alice", map[string]string{"offline_token": "x"}))

	details, err := admin.UserDetails(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, details, 2)
	for _, d := range details {
		assert.Equal(t, "alice", d.UserID)
		assert.NotContains(t, d.Display, "token")
		assert.NotContains(t, d.Display, "offline_token")
	}
}

func TestTokenAdmin_DeleteUserTokens(t *testing.T) {
	admin, store := newTokenAdmin(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, domain.ServiceJira, "alice", map[string]string{"token": "a"}))
	require.NoError(t, store.Upsert(ctx, domain.ServiceGitHub, "alice", map[string]string{"token": "b"}))

	deleted, err := admin.DeleteUserTokens(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.ServiceJira, domain.ServiceGitHub}, deleted)

	// Idempotent: a second delete removes nothing.
	deleted, err = admin.DeleteUserTokens(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
