package domain

import "context"

// Capability restricts which operations an agent may perform through a
// toolkit. This is a per-agent policy, not a credential property: the same
// stored Jira token backs a read-only toolkit for one agent and a read-write
// toolkit for another.
type Capability string

const (
	CapabilityReadOnly  Capability = "read-only"
	CapabilityReadWrite Capability = "read-write"
)

// CanWrite reports whether mutating operations are allowed.
func (c Capability) CanWrite() bool {
	return c == CapabilityReadWrite
}

// ToolFunc executes one tool call on behalf of the agent runtime.
type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is a single named operation a toolkit exposes to the agent.
type Tool struct {
	Name        string
	Description string
	Handler     ToolFunc
}

// Toolkit is a live, credentialed tool object ready to be bound to an agent.
// Instances are constructed per user from decrypted stored credentials.
type Toolkit interface {
	// Name identifies the toolkit (matches the service name for credential
	// toolkits, e.g. "jira").
	Name() string

	// Tools lists the operations this instance exposes, already filtered by
	// the agent's capability.
	Tools() []Tool
}

// ToolkitState describes where one (toolkit, user) pair sits in the
// configuration dialog. The state is derived per turn from storage, never
// cached in the configurator.
type ToolkitState string

const (
	// StateNotConfigured: no credential record exists.
	StateNotConfigured ToolkitState = "not_configured"

	// StateAwaitingInput: a multi-step flow started (authorization URL was
	// issued) and the awaited code has not come back yet.
	StateAwaitingInput ToolkitState = "awaiting_input"

	// StateConfigured: a complete credential record exists. The only way out
	// is explicit deletion, which returns to StateNotConfigured.
	StateConfigured ToolkitState = "configured"
)
