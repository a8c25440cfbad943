package jira

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentllm/agentllm-core/internal/core/domain"
	"github.com/agentllm/agentllm-core/internal/core/ports/driven/mocks"
)

func newTestConfig(t *testing.T) (*Config, *mocks.MockTokenStore) {
	t.Helper()
	store := mocks.NewMockTokenStore(domain.DefaultTokenTypes())
	cfg := NewConfig(store, true, domain.CapabilityReadOnly, nil, nil)
	return cfg, store
}

func TestExtract_TokenAndServerInOneMessage(t *testing.T) {
	cfg, store := newTestConfig(t)
	ctx := context.Background()

	outcome, err := cfg.ExtractAndStoreConfig(ctx, "u1",
		"my jira token is NjE2ODYxNzQ0Nzc3 and server is https://issues.example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStored, outcome.Status)
	assert.Contains(t, outcome.Message, "https://issues.example.com")

	fields, err := store.Get(ctx, domain.ServiceJira, "u1")
	require.NoError(t, err)
	assert.Equal(t, "NjE2ODYxNzQ0Nzc3", fields["token"])
	assert.Equal(t, "https://issues.example.com", fields["server_url"])

	configured, err := cfg.IsConfigured(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, configured)
}

func TestExtract_TokenOnlyNeedsMoreInfo(t *testing.T) {
	cfg, store := newTestConfig(t)
	ctx := context.Background()

	outcome, err := cfg.ExtractAndStoreConfig(ctx, "u1", "my jira token is NjE2ODYxNzQ0Nzc3")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNeedMoreInfo, outcome.Status)
	assert.Contains(t, outcome.Message, "server")

	// The recognized half is kept so a later turn can complete the pair,
	// but the toolkit does not count as configured yet.
	fields, err := store.Get(ctx, domain.ServiceJira, "u1")
	require.NoError(t, err)
	assert.Equal(t, "NjE2ODYxNzQ0Nzc3", fields["token"])
	assert.Empty(t, fields["server_url"])

	configured, err := cfg.IsConfigured(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, configured)
}

func TestExtract_PieceAtATimeConverges(t *testing.T) {
	cfg, store := newTestConfig(t)
	ctx := context.Background()

	outcome, err := cfg.ExtractAndStoreConfig(ctx, "u1", "my jira token is NjE2ODYxNzQ0Nzc3")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNeedMoreInfo, outcome.Status)

	// Supplying exactly what the prompt asked for finishes the dialog.
	outcome, err = cfg.ExtractAndStoreConfig(ctx, "u1", "server is https://issues.example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStored, outcome.Status)

	fields, err := store.Get(ctx, domain.ServiceJira, "u1")
	require.NoError(t, err)
	assert.Equal(t, "NjE2ODYxNzQ0Nzc3", fields["token"])
	assert.Equal(t, "https://issues.example.com", fields["server_url"])

	configured, err := cfg.IsConfigured(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, configured)
}

func TestExtract_ServerCompletesEarlierToken(t *testing.T) {
	cfg, store := newTestConfig(t)
	ctx := context.Background()

	// An earlier upsert left only the server URL behind (e.g. a re-keyed
	// token was deleted). A token-only message completes the pair.
	require.NoError(t, store.Upsert(ctx, domain.ServiceJira, "u1",
		map[string]string{"server_url": "https://issues.example.com"}))

	outcome, err := cfg.ExtractAndStoreConfig(ctx, "u1", "my jira token is NjE2ODYxNzQ0Nzc3")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStored, outcome.Status)

	fields, err := store.Get(ctx, domain.ServiceJira, "u1")
	require.NoError(t, err)
	assert.Equal(t, "NjE2ODYxNzQ0Nzc3", fields["token"])
}

func TestExtract_UsernameCaptured(t *testing.T) {
	cfg, store := newTestConfig(t)
	ctx := context.Background()

	_, err := cfg.ExtractAndStoreConfig(ctx, "u1",
		"jira token is NjE2ODYxNzQ0Nzc3, server is https://issues.example.com, username is alice@example.com")
	require.NoError(t, err)

	fields, err := store.Get(ctx, domain.ServiceJira, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", fields["username"])
}

func TestExtract_NoMatchOnOrdinaryText(t *testing.T) {
	cfg, _ := newTestConfig(t)

	for _, message := range []string{
		"what changed in the last release?",
		"show me open bugs",
		"thanks!",
	} {
		outcome, err := cfg.ExtractAndStoreConfig(context.Background(), "u1", message)
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeNoMatch, outcome.Status, "message %q", message)
	}
}

func TestCheckAuthorizationRequest(t *testing.T) {
	cfg, _ := newTestConfig(t)
	ctx := context.Background()

	cases := map[string]bool{
		"can you triage PROJ-123?":      true,
		"look at my jira board":         true,
		"what's in the current sprint?": true,
		"hello there":                   false,
		"summarize this document":       false,
	}
	for message, want := range cases {
		got, err := cfg.CheckAuthorizationRequest(ctx, "u1", message)
		require.NoError(t, err)
		assert.Equal(t, want, got, "message %q", message)
	}
}

func TestToolkit_Unconfigured(t *testing.T) {
	cfg, _ := newTestConfig(t)

	_, err := cfg.Toolkit(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestIsConfigured_DecryptionFailureTreatedAsUnconfigured(t *testing.T) {
	cfg, store := newTestConfig(t)
	store.GetErr = domain.ErrDecryption

	configured, err := cfg.IsConfigured(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, configured)
}

func TestToolkit_CapabilityGatesWrites(t *testing.T) {
	store := mocks.NewMockTokenStore(domain.DefaultTokenTypes())
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, domain.ServiceJira, "u1", map[string]string{
		"token":      "tok",
		"server_url": "https://issues.example.com",
	}))

	readOnly := NewConfig(store, true, domain.CapabilityReadOnly, nil, nil)
	readWrite := NewConfig(store, true, domain.CapabilityReadWrite, nil, nil)

	ro, err := readOnly.Toolkit(ctx, "u1")
	require.NoError(t, err)
	rw, err := readWrite.Toolkit(ctx, "u1")
	require.NoError(t, err)

	names := func(tk domain.Toolkit) []string {
		var out []string
		for _, tool := range tk.Tools() {
			out = append(out, tool.Name)
		}
		return out
	}

	assert.NotContains(t, names(ro), "update_issue")
	assert.NotContains(t, names(ro), "add_comment")
	assert.Contains(t, names(rw), "update_issue")
	assert.Contains(t, names(rw), "add_comment")
}

func TestToolkit_BaseJQLScopesSearches(t *testing.T) {
	tk := NewToolkit(nil, domain.CapabilityReadOnly, `project = "RHDH"`)

	assert.Equal(t, `project = "RHDH"`, tk.effectiveJQL(""))
	assert.Equal(t, `(project = "RHDH") AND (status = Open)`, tk.effectiveJQL("status = Open"))

	unscoped := NewToolkit(nil, domain.CapabilityReadOnly, "")
	assert.Equal(t, "status = Open", unscoped.effectiveJQL("status = Open"))
}
