package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentllm/agentllm-core/internal/core/domain"
	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
)

// fakeToolkit is a trivial domain.Toolkit for binding assertions.
type fakeToolkit struct {
	name string
}

func (f *fakeToolkit) Name() string         { return f.name }
func (f *fakeToolkit) Tools() []domain.Tool { return nil }

// fakeConfig is a scriptable ToolkitConfig.
type fakeConfig struct {
	service    string
	required   bool
	configured bool
	matches    bool
	outcome    domain.ConfigOutcome
	prompt     string
	toolkitErr error

	extractCalls int
	toolkitCalls int
}

func (f *fakeConfig) Service() string { return f.service }
func (f *fakeConfig) Required() bool  { return f.required }

func (f *fakeConfig) IsConfigured(ctx context.Context, userID string) (bool, error) {
	return f.configured, nil
}

func (f *fakeConfig) CheckAuthorizationRequest(ctx context.Context, userID, message string) (bool, error) {
	return f.matches, nil
}

func (f *fakeConfig) ExtractAndStoreConfig(ctx context.Context, userID, message string) (domain.ConfigOutcome, error) {
	f.extractCalls++
	if f.outcome.Status == domain.OutcomeStored {
		f.configured = true
	}
	return f.outcome, nil
}

func (f *fakeConfig) ConfigPrompt(ctx context.Context, userID string) (string, error) {
	return f.prompt, nil
}

func (f *fakeConfig) Toolkit(ctx context.Context, userID string) (domain.Toolkit, error) {
	f.toolkitCalls++
	if f.toolkitErr != nil {
		return nil, f.toolkitErr
	}
	return &fakeToolkit{name: f.service}, nil
}

func TestHandleTurn_RequiredUnconfiguredPrompts(t *testing.T) {
	jira := &fakeConfig{
		service:  "jira",
		required: true,
		outcome:  *domain.NoMatch(),
		prompt:   "Please provide your Jira API token and server URL.",
	}
	c := NewConfigurator(ConfiguratorConfig{
		AgentName: "release-manager",
		Toolkits:  []driven.ToolkitConfig{jira},
	})

	decision, err := c.HandleTurn(context.Background(), "u1", "show me the release status")
	require.NoError(t, err)

	assert.False(t, decision.ShouldInvokeModel)
	assert.Equal(t, jira.prompt, decision.Prompt)
	assert.Empty(t, decision.BoundTools)
	assert.Equal(t, 1, jira.extractCalls, "extraction should be attempted before prompting")
}

func TestHandleTurn_CredentialMessageConfiguresAndConfirms(t *testing.T) {
	jira := &fakeConfig{
		service:  "jira",
		required: true,
		outcome:  domain.ConfigOutcome{Status: domain.OutcomeStored, Message: "Jira configured."},
	}
	c := NewConfigurator(ConfiguratorConfig{
		AgentName: "release-manager",
		Toolkits:  []driven.ToolkitConfig{jira},
	})

	decision, err := c.HandleTurn(context.Background(), "u1", "my jira token is abc and server is https://issues.example.com")
	require.NoError(t, err)

	assert.False(t, decision.ShouldInvokeModel, "the configuring turn itself shows a confirmation")
	assert.Equal(t, "Jira configured.", decision.Prompt)
	assert.True(t, jira.configured)

	// The next turn proceeds to the model with the toolkit bound.
	next, err := c.HandleTurn(context.Background(), "u1", "show me the release status")
	require.NoError(t, err)
	assert.True(t, next.ShouldInvokeModel)
	require.Len(t, next.BoundTools, 1)
	assert.Equal(t, "jira", next.BoundTools[0].Name())
}

func TestHandleTurn_PartialMatchNeedsMoreInfo(t *testing.T) {
	jira := &fakeConfig{
		service:  "jira",
		required: true,
		outcome:  domain.ConfigOutcome{Status: domain.OutcomeNeedMoreInfo, Message: "Got the token, now the server URL?"},
	}
	c := NewConfigurator(ConfiguratorConfig{
		AgentName: "release-manager",
		Toolkits:  []driven.ToolkitConfig{jira},
	})

	decision, err := c.HandleTurn(context.Background(), "u1", "my jira token is abc")
	require.NoError(t, err)

	assert.False(t, decision.ShouldInvokeModel)
	assert.Equal(t, "Got the token, now the server URL?", decision.Prompt)
	assert.False(t, jira.configured)
}

func TestHandleTurn_OptionalDormantWithoutKeywords(t *testing.T) {
	jira := &fakeConfig{service: "jira", required: true, configured: true}
	github := &fakeConfig{
		service: "github",
		matches: false,
		outcome: *domain.NoMatch(),
		prompt:  "Provide a GitHub PAT.",
	}
	c := NewConfigurator(ConfiguratorConfig{
		AgentName: "jira-triager",
		Toolkits:  []driven.ToolkitConfig{jira, github},
	})

	decision, err := c.HandleTurn(context.Background(), "u1", "triage PROJ-123")
	require.NoError(t, err)

	assert.True(t, decision.ShouldInvokeModel)
	require.Len(t, decision.BoundTools, 1)
	assert.Equal(t, "jira", decision.BoundTools[0].Name())
	assert.Equal(t, 0, github.extractCalls, "dormant optional toolkit must not engage")
}

func TestHandleTurn_OptionalEngagesOnKeyword(t *testing.T) {
	jira := &fakeConfig{service: "jira", required: true, configured: true}
	github := &fakeConfig{
		service: "github",
		matches: true,
		outcome: *domain.NoMatch(),
		prompt:  "Provide a GitHub PAT.",
	}
	c := NewConfigurator(ConfiguratorConfig{
		AgentName: "jira-triager",
		Toolkits:  []driven.ToolkitConfig{jira, github},
	})

	decision, err := c.HandleTurn(context.Background(), "u1", "link the github pull request")
	require.NoError(t, err)

	assert.False(t, decision.ShouldInvokeModel)
	assert.Equal(t, "Provide a GitHub PAT.", decision.Prompt)
}

func TestHandleTurn_ConfigurationRegressionReprompts(t *testing.T) {
	jira := &fakeConfig{
		service:    "jira",
		required:   true,
		configured: true,
		toolkitErr: domain.ErrAuthorization,
		prompt:     "Your Jira token stopped working; please provide a new one.",
	}
	c := NewConfigurator(ConfiguratorConfig{
		AgentName: "release-manager",
		Toolkits:  []driven.ToolkitConfig{jira},
	})

	decision, err := c.HandleTurn(context.Background(), "u1", "show me the release status")
	require.NoError(t, err)

	assert.False(t, decision.ShouldInvokeModel)
	assert.Equal(t, jira.prompt, decision.Prompt)
	assert.Empty(t, decision.BoundTools)
}

func TestHandleTurn_OptionalRegressionSkipped(t *testing.T) {
	jira := &fakeConfig{service: "jira", required: true, configured: true}
	github := &fakeConfig{
		service:    "github",
		configured: true,
		toolkitErr: domain.ErrNotConfigured,
	}
	c := NewConfigurator(ConfiguratorConfig{
		AgentName: "jira-triager",
		Toolkits:  []driven.ToolkitConfig{jira, github},
	})

	decision, err := c.HandleTurn(context.Background(), "u1", "triage PROJ-123")
	require.NoError(t, err)

	assert.True(t, decision.ShouldInvokeModel)
	require.Len(t, decision.BoundTools, 1)
	assert.Equal(t, "jira", decision.BoundTools[0].Name())
}

func TestHandleTurn_FreshEvaluationPerTurn(t *testing.T) {
	jira := &fakeConfig{service: "jira", required: true, configured: true}
	c := NewConfigurator(ConfiguratorConfig{
		AgentName: "release-manager",
		Toolkits:  []driven.ToolkitConfig{jira},
	})

	decision, err := c.HandleTurn(context.Background(), "u1", "status?")
	require.NoError(t, err)
	assert.True(t, decision.ShouldInvokeModel)

	// Token deleted out of band (e.g. via the CLI): the very next turn
	// must re-prompt rather than trust a cached state.
	jira.configured = false
	jira.outcome = *domain.NoMatch()
	jira.prompt = "Please provide your Jira API token and server URL."

	decision, err = c.HandleTurn(context.Background(), "u1", "status?")
	require.NoError(t, err)
	assert.False(t, decision.ShouldInvokeModel)
	assert.Equal(t, jira.prompt, decision.Prompt)
}

func TestHandleTurn_DistinctTurnIDs(t *testing.T) {
	jira := &fakeConfig{service: "jira", required: true, configured: true}
	c := NewConfigurator(ConfiguratorConfig{
		AgentName: "release-manager",
		Toolkits:  []driven.ToolkitConfig{jira},
	})

	a, err := c.HandleTurn(context.Background(), "u1", "one")
	require.NoError(t, err)
	b, err := c.HandleTurn(context.Background(), "u1", "two")
	require.NoError(t, err)

	assert.NotEmpty(t, a.TurnID)
	assert.NotEqual(t, a.TurnID, b.TurnID)
}

func TestHandleTurn_RequiredOrderPrecedence(t *testing.T) {
	jira := &fakeConfig{
		service:  "jira",
		required: true,
		outcome:  *domain.NoMatch(),
		prompt:   "Jira first.",
	}
	gdrive := &fakeConfig{
		service:  "gdrive",
		required: true,
		outcome:  *domain.NoMatch(),
		prompt:   "Drive second.",
	}
	c := NewConfigurator(ConfiguratorConfig{
		AgentName: "release-manager",
		Toolkits:  []driven.ToolkitConfig{jira, gdrive},
	})

	decision, err := c.HandleTurn(context.Background(), "u1", "hello")
	require.NoError(t, err)

	assert.Equal(t, "Jira first.", decision.Prompt)
	assert.Equal(t, 0, gdrive.extractCalls, "later required toolkits wait their turn")
}

func TestHandleTurn_UnexpectedToolkitErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	github := &fakeConfig{
		service:    "github",
		configured: true,
		toolkitErr: boom,
	}
	jira := &fakeConfig{service: "jira", required: true, configured: true}
	c := NewConfigurator(ConfiguratorConfig{
		AgentName: "jira-triager",
		Toolkits:  []driven.ToolkitConfig{jira, github},
	})

	_, err := c.HandleTurn(context.Background(), "u1", "triage PROJ-123")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
