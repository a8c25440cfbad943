package driving

import (
	"context"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

// ConfiguratorService evaluates one user turn against an agent's toolkit
// configuration state and decides how the turn proceeds.
type ConfiguratorService interface {
	// HandleTurn evaluates the user's message for the agent and returns a
	// decision: either a configuration prompt to show the user directly,
	// or the set of toolkits to bind for a model invocation.
	HandleTurn(ctx context.Context, userID, message string) (*domain.TurnDecision, error)
}
