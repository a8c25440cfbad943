package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentllm/agentllm-core/internal/core/domain"
	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
)

var (
	// patPattern matches modern GitHub token shapes (ghp_, gho_, ghu_,
	// ghs_, ghr_ and fine-grained github_pat_).
	patPattern = regexp.MustCompile(`\b(gh[pousr]_[A-Za-z0-9]{36,}|github_pat_[A-Za-z0-9_]{30,})\b`)

	prURLPattern = regexp.MustCompile(`https://github\.com/([^/\s]+)/([^/\s]+)/pull/(\d+)`)
)

var githubKeywords = []string{"github", "pull request", " pr ", "repository", "repo "}

// Config drives the GitHub configuration dialog and builds GitHub toolkits.
// As an optional toolkit it stays dormant until the user brings it up or
// pastes a personal access token; agents built around pull requests register
// it as required instead.
type Config struct {
	store    driven.TokenStore
	required bool
	logger   *slog.Logger
}

var _ driven.ToolkitConfig = (*Config)(nil)

// NewConfig creates a GitHub toolkit config.
func NewConfig(store driven.TokenStore, required bool, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	return &Config{store: store, required: required, logger: logger.With("toolkit", domain.ServiceGitHub)}
}

func (c *Config) Service() string { return domain.ServiceGitHub }
func (c *Config) Required() bool  { return c.required }

func (c *Config) IsConfigured(ctx context.Context, userID string) (bool, error) {
	fields, err := c.store.Get(ctx, domain.ServiceGitHub, userID)
	if err != nil {
		if errors.Is(err, domain.ErrDecryption) {
			c.logger.Warn("stored github token is unreadable, treating as unconfigured", "user_id", userID)
			return false, nil
		}
		return false, err
	}
	return fields["token"] != "", nil
}

func (c *Config) CheckAuthorizationRequest(ctx context.Context, userID, message string) (bool, error) {
	lower := " " + strings.ToLower(message) + " "
	for _, kw := range githubKeywords {
		if strings.Contains(lower, kw) {
			return true, nil
		}
	}
	return patPattern.MatchString(message) || prURLPattern.MatchString(message), nil
}

// ExtractAndStoreConfig recognizes a pasted personal access token. The PAT
// shape is distinctive enough that no surrounding phrasing is required.
func (c *Config) ExtractAndStoreConfig(ctx context.Context, userID, message string) (domain.ConfigOutcome, error) {
	token := patPattern.FindString(message)
	if token == "" {
		return *domain.NoMatch(), nil
	}

	if err := c.store.Upsert(ctx, domain.ServiceGitHub, userID, map[string]string{"token": token}); err != nil {
		return domain.ConfigOutcome{}, fmt.Errorf("storing github token: %w", err)
	}

	c.logger.Info("github token stored", "user_id", userID)
	return domain.ConfigOutcome{
		Status:  domain.OutcomeStored,
		Message: "Your GitHub token is stored securely. I can look at pull requests for you now.",
	}, nil
}

func (c *Config) ConfigPrompt(ctx context.Context, userID string) (string, error) {
	return "To connect GitHub, paste a personal access token (classic or fine-grained) " +
		"with repo read access. It is encrypted before it is stored.", nil
}

func (c *Config) Toolkit(ctx context.Context, userID string) (domain.Toolkit, error) {
	fields, err := c.store.Get(ctx, domain.ServiceGitHub, userID)
	if err != nil {
		return nil, err
	}
	if fields["token"] == "" {
		return nil, fmt.Errorf("github not configured for user %s: %w", userID, domain.ErrNotConfigured)
	}
	return &Toolkit{client: NewClient(fields["server_url"], fields["token"])}, nil
}

// Toolkit exposes read-only pull request operations as agent tools.
type Toolkit struct {
	client *Client
}

func (t *Toolkit) Name() string { return domain.ServiceGitHub }

func (t *Toolkit) Tools() []domain.Tool {
	return []domain.Tool{
		{
			Name:        "list_pull_requests",
			Description: "List pull requests for a repository. Args: owner, repo, state (open/closed/all).",
			Handler:     t.listPullRequests,
		},
		{
			Name:        "get_pull_request",
			Description: "Fetch one pull request, either by owner/repo/number or by its GitHub URL.",
			Handler:     t.getPullRequest,
		},
	}
}

func (t *Toolkit) listPullRequests(ctx context.Context, args map[string]any) (string, error) {
	owner, _ := args["owner"].(string)
	repo, _ := args["repo"].(string)
	if owner == "" || repo == "" {
		return "", fmt.Errorf("%w: owner and repo are required", domain.ErrValidation)
	}
	state, _ := args["state"].(string)

	prs, err := t.client.ListPullRequests(ctx, owner, repo, state)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(prs)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (t *Toolkit) getPullRequest(ctx context.Context, args map[string]any) (string, error) {
	owner, _ := args["owner"].(string)
	repo, _ := args["repo"].(string)
	number := 0
	switch v := args["number"].(type) {
	case float64:
		number = int(v)
	case int:
		number = v
	}

	if rawURL, _ := args["url"].(string); rawURL != "" {
		if m := prURLPattern.FindStringSubmatch(rawURL); m != nil {
			owner, repo = m[1], m[2]
			number, _ = strconv.Atoi(m[3])
		}
	}
	if owner == "" || repo == "" || number == 0 {
		return "", fmt.Errorf("%w: need owner/repo/number or a pull request URL", domain.ErrValidation)
	}

	pr, err := t.client.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(pr)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
