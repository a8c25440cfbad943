package github

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentllm/agentllm-core/internal/core/domain"
	"github.com/agentllm/agentllm-core/internal/core/ports/driven/mocks"
)

func newTestConfig(t *testing.T) (*Config, *mocks.MockTokenStore) {
	t.Helper()
	store := mocks.NewMockTokenStore(domain.DefaultTokenTypes())
	return NewConfig(store, false, nil), store
}

func TestExtract_ClassicPAT(t *testing.T) {
	cfg, store := newTestConfig(t)
	ctx := context.Background()
	pat := "ghp_" + strings.Repeat("a1B2", 9)

	outcome, err := cfg.ExtractAndStoreConfig(ctx, "u1", "here you go: "+pat)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStored, outcome.Status)

	fields, err := store.Get(ctx, domain.ServiceGitHub, "u1")
	require.NoError(t, err)
	assert.Equal(t, pat, fields["token"])
}

func TestExtract_FineGrainedPAT(t *testing.T) {
	cfg, _ := newTestConfig(t)
	pat := "github_pat_" + strings.Repeat("x9Y_", 10)

	outcome, err := cfg.ExtractAndStoreConfig(context.Background(), "u1", pat)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeStored, outcome.Status)
}

func TestExtract_NoMatch(t *testing.T) {
	cfg, _ := newTestConfig(t)

	outcome, err := cfg.ExtractAndStoreConfig(context.Background(), "u1",
		"my github username is alice")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNoMatch, outcome.Status)
}

func TestCheckAuthorizationRequest(t *testing.T) {
	cfg, _ := newTestConfig(t)
	ctx := context.Background()

	cases := map[string]bool{
		"connect my github account":                   true,
		"prioritize the open pull request queue":      true,
		"look at https://github.com/org/repo/pull/42": true,
		"what changed in the last release?":           false,
		"triage PROJ-123":                             false,
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

func TestPRURLParsing(t *testing.T) {
	m := prURLPattern.FindStringSubmatch("https://github.com/org/repo/pull/42")
	require.NotNil(t, m)
	assert.Equal(t, []string{m[1], m[2], m[3]}, []string{"org", "repo", "42"})
}
