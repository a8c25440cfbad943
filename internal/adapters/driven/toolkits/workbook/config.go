package workbook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/agentllm/agentllm-core/internal/core/domain"
	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
)

// Config wires the release workbook into the configuration dialog. It has
// no credentials of its own: availability follows the underlying source
// (local directory in automation mode, the user's Drive otherwise), so the
// dialog never asks the user for anything workbook-specific.
type Config struct {
	source Source
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*Workbook
}

var _ driven.ToolkitConfig = (*Config)(nil)

// NewConfig creates a workbook toolkit config.
func NewConfig(source Source, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	return &Config{
		source: source,
		logger: logger.With("toolkit", "workbook"),
		cache:  make(map[string]*Workbook),
	}
}

func (c *Config) Service() string { return "workbook" }
func (c *Config) Required() bool  { return true }

func (c *Config) IsConfigured(ctx context.Context, userID string) (bool, error) {
	return c.source.Available(ctx, userID)
}

// CheckAuthorizationRequest always reports false: there is nothing the
// user can say to configure the workbook directly.
func (c *Config) CheckAuthorizationRequest(ctx context.Context, userID, message string) (bool, error) {
	return false, nil
}

func (c *Config) ExtractAndStoreConfig(ctx context.Context, userID, message string) (domain.ConfigOutcome, error) {
	return *domain.NoMatch(), nil
}

func (c *Config) ConfigPrompt(ctx context.Context, userID string) (string, error) {
	return "The release workbook is not reachable yet. Connect Google Drive first, " +
		"or point the service at a local sheets directory.", nil
}

// load parses and caches the workbook for a user. The cache is per process;
// a stale workbook is refreshed by restarting or by explicit invalidation.
func (c *Config) load(ctx context.Context, userID string) (*Workbook, error) {
	c.mu.Lock()
	if wb, ok := c.cache[userID]; ok {
		c.mu.Unlock()
		return wb, nil
	}
	c.mu.Unlock()

	raw, err := c.source.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading workbook: %w", err)
	}
	wb, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[userID] = wb
	c.mu.Unlock()

	c.logger.Info("workbook loaded",
		"user_id", userID,
		"queries", len(wb.QueryNames()),
		"workflows", len(wb.WorkflowNames()))
	return wb, nil
}

// Invalidate drops the cached workbook for a user.
func (c *Config) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.cache, userID)
	c.mu.Unlock()
}

// Toolkit loads the workbook and wraps it as agent tools.
func (c *Config) Toolkit(ctx context.Context, userID string) (domain.Toolkit, error) {
	available, err := c.source.Available(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, fmt.Errorf("workbook source unavailable for user %s: %w", userID, domain.ErrNotConfigured)
	}

	wb, err := c.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Toolkit{workbook: wb}, nil
}

// BaseJQL implements the Jira default-base-JQL hook: it reads
// jira_default_base_jql from the Configuration & Setup sheet. Any load
// failure yields an empty (unscoped) base.
func (c *Config) BaseJQL(ctx context.Context, userID string) string {
	wb, err := c.load(ctx, userID)
	if err != nil {
		c.logger.Debug("workbook unavailable for base JQL", "user_id", userID, "error", err)
		return ""
	}
	value, err := wb.ConfigValue(ConfigKeyBaseJQL)
	if err != nil {
		return ""
	}
	return value
}
