package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/agentllm/agentllm-core/internal/core/domain"
	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
)

// Configurator evaluates each chat turn for one agent: it routes
// configuration messages to the owning toolkit, blocks model invocation
// while required toolkits are unconfigured, and binds live toolkits once
// everything needed is in place.
//
// State is derived fresh from storage on every turn. The configurator
// itself holds no per-user state, so a credential stored through one
// replica (or deleted through the CLI) takes effect on the next turn
// everywhere.
type Configurator struct {
	agentName    string
	toolkits     []driven.ToolkitConfig
	instructions []string
	logger       *slog.Logger
}

// ConfiguratorConfig holds the dependencies for a Configurator.
type ConfiguratorConfig struct {
	// AgentName identifies the owning agent in logs.
	AgentName string

	// Toolkits are evaluated in order; order determines prompt precedence
	// and tool binding order.
	Toolkits []driven.ToolkitConfig

	// Instructions are agent-level system-prompt fragments included in
	// every model-bound decision.
	Instructions []string

	Logger *slog.Logger
}

// NewConfigurator creates a Configurator for one agent.
func NewConfigurator(cfg ConfiguratorConfig) *Configurator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Configurator{
		agentName:    cfg.AgentName,
		toolkits:     cfg.Toolkits,
		instructions: cfg.Instructions,
		logger:       logger.With("agent", cfg.AgentName),
	}
}

// HandleTurn evaluates one user message and decides whether the model runs.
//
// Required toolkits are checked first, in order. The first unconfigured one
// gets a chance to extract configuration from the message; if the message
// did not complete its configuration, the turn short-circuits with that
// toolkit's prompt and the model is never invoked. Optional toolkits only
// engage when the message plausibly addresses them; otherwise they stay
// silent and simply aren't bound.
func (c *Configurator) HandleTurn(ctx context.Context, userID, message string) (*domain.TurnDecision, error) {
	decision := &domain.TurnDecision{TurnID: uuid.New().String()}
	logger := c.logger.With("turn_id", decision.TurnID, "user_id", userID)

	for _, tk := range c.toolkits {
		if !tk.Required() {
			continue
		}
		prompt, done, err := c.settleRequired(ctx, logger, tk, userID, message)
		if err != nil {
			return nil, err
		}
		if !done {
			decision.Prompt = prompt
			return decision, nil
		}
		if prompt != "" {
			// Configuration just completed this turn; confirm instead of
			// silently proceeding.
			decision.Prompt = prompt
			return decision, nil
		}
	}

	// All required toolkits are configured. Give optional toolkits a chance
	// to consume a configuration message before binding tools.
	for _, tk := range c.toolkits {
		if tk.Required() {
			continue
		}
		prompt, handled, err := c.settleOptional(ctx, logger, tk, userID, message)
		if err != nil {
			return nil, err
		}
		if handled {
			decision.Prompt = prompt
			return decision, nil
		}
	}

	return c.bindToolkits(ctx, logger, decision, userID)
}

// settleRequired drives one required toolkit toward configured. It returns
// (prompt, done): done=false means the turn must short-circuit with the
// prompt; done=true with a non-empty prompt means configuration completed
// this turn and the prompt is a confirmation.
func (c *Configurator) settleRequired(ctx context.Context, logger *slog.Logger, tk driven.ToolkitConfig, userID, message string) (string, bool, error) {
	configured, err := tk.IsConfigured(ctx, userID)
	if err != nil {
		return "", false, fmt.Errorf("checking %s configuration: %w", tk.Service(), err)
	}
	if configured {
		return "", true, nil
	}

	outcome, err := tk.ExtractAndStoreConfig(ctx, userID, message)
	if err != nil {
		return "", false, fmt.Errorf("extracting %s configuration: %w", tk.Service(), err)
	}

	switch outcome.Status {
	case domain.OutcomeStored:
		logger.Info("toolkit configured", "service", tk.Service())
		return outcome.Message, true, nil
	case domain.OutcomeNeedMoreInfo:
		return outcome.Message, false, nil
	default:
		prompt, err := tk.ConfigPrompt(ctx, userID)
		if err != nil {
			return "", false, fmt.Errorf("building %s prompt: %w", tk.Service(), err)
		}
		logger.Info("turn blocked on unconfigured toolkit", "service", tk.Service())
		return prompt, false, nil
	}
}

// settleOptional handles one optional toolkit. handled=true means the turn
// was consumed by the toolkit's configuration dialog and the model should
// not run; an unconfigured optional toolkit the message doesn't address is
// left dormant.
func (c *Configurator) settleOptional(ctx context.Context, logger *slog.Logger, tk driven.ToolkitConfig, userID, message string) (string, bool, error) {
	configured, err := tk.IsConfigured(ctx, userID)
	if err != nil {
		return "", false, fmt.Errorf("checking %s configuration: %w", tk.Service(), err)
	}
	if configured {
		return "", false, nil
	}

	relevant, err := tk.CheckAuthorizationRequest(ctx, userID, message)
	if err != nil {
		return "", false, fmt.Errorf("matching %s request: %w", tk.Service(), err)
	}
	if !relevant {
		return "", false, nil
	}

	outcome, err := tk.ExtractAndStoreConfig(ctx, userID, message)
	if err != nil {
		return "", false, fmt.Errorf("extracting %s configuration: %w", tk.Service(), err)
	}

	switch outcome.Status {
	case domain.OutcomeStored:
		logger.Info("toolkit configured", "service", tk.Service())
		return outcome.Message, true, nil
	case domain.OutcomeNeedMoreInfo:
		return outcome.Message, true, nil
	default:
		prompt, err := tk.ConfigPrompt(ctx, userID)
		if err != nil {
			return "", false, fmt.Errorf("building %s prompt: %w", tk.Service(), err)
		}
		return prompt, true, nil
	}
}

// bindToolkits constructs live toolkits for every configured config. A
// Toolkit() failure after IsConfigured reported true is a configuration
// regression (revoked token, undecryptable row): required toolkits re-prompt
// the user, optional ones are skipped with a warning.
func (c *Configurator) bindToolkits(ctx context.Context, logger *slog.Logger, decision *domain.TurnDecision, userID string) (*domain.TurnDecision, error) {
	var bound []domain.Toolkit
	for _, tk := range c.toolkits {
		configured, err := tk.IsConfigured(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("checking %s configuration: %w", tk.Service(), err)
		}
		if !configured {
			continue
		}

		toolkit, err := tk.Toolkit(ctx, userID)
		if err != nil {
			logger.Warn("configuration regression", "service", tk.Service(), "error", err)
			if tk.Required() {
				prompt, perr := tk.ConfigPrompt(ctx, userID)
				if perr != nil {
					return nil, fmt.Errorf("building %s prompt: %w", tk.Service(), perr)
				}
				decision.Prompt = prompt
				decision.BoundTools = nil
				decision.ShouldInvokeModel = false
				return decision, nil
			}
			if errors.Is(err, domain.ErrNotConfigured) || errors.Is(err, domain.ErrAuthorization) || errors.Is(err, domain.ErrDecryption) {
				continue
			}
			return nil, fmt.Errorf("building %s toolkit: %w", tk.Service(), err)
		}
		bound = append(bound, toolkit)
	}

	decision.ShouldInvokeModel = true
	decision.BoundTools = bound
	decision.Instructions = append(decision.Instructions, c.instructions...)
	logger.Debug("turn bound", "toolkits", len(bound))
	return decision, nil
}
