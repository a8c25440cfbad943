package driven

import (
	"context"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

// ToolkitConfig manages the configuration dialog for a single service on
// behalf of one agent. Implementations decide whether free-form user text
// pertains to their service, extract credentials from it, and build the
// runtime toolkit once configured. All methods are safe for concurrent use
// across users; per-user state lives in the backing stores, never in the
// config itself.
type ToolkitConfig interface {
	// Service returns the service identifier ("jira", "github", ...).
	Service() string

	// Required reports whether the owning agent cannot operate without
	// this toolkit.
	Required() bool

	// IsConfigured reports whether the user holds a complete, usable
	// configuration for the service.
	IsConfigured(ctx context.Context, userID string) (bool, error)

	// CheckAuthorizationRequest reports whether the message looks like it
	// pertains to this service (keyword match, credential shapes, or an
	// open pending flow). A true result routes the turn into
	// ExtractAndStoreConfig.
	CheckAuthorizationRequest(ctx context.Context, userID, message string) (bool, error)

	// ExtractAndStoreConfig attempts to pull configuration out of the
	// message and persist it. The outcome reports stored, need-more-info,
	// or no-match; transport and storage failures are returned as errors.
	ExtractAndStoreConfig(ctx context.Context, userID, message string) (domain.ConfigOutcome, error)

	// ConfigPrompt returns the user-facing instructions for supplying
	// configuration, reflecting any in-progress state for the user.
	ConfigPrompt(ctx context.Context, userID string) (string, error)

	// Toolkit constructs the runtime toolkit from the stored
	// configuration. Fails with domain.ErrNotConfigured when the user has
	// none, and with domain.ErrAuthorization when stored credentials no
	// longer work.
	Toolkit(ctx context.Context, userID string) (domain.Toolkit, error)
}

// OAuthToolkitConfig is a ToolkitConfig whose configuration flow runs
// through a browser authorization step rather than pasted credentials.
type OAuthToolkitConfig interface {
	ToolkitConfig

	// AuthorizationURL starts (or restarts) the authorization flow for
	// the user and returns the URL they must visit. A pending
	// authorization record is saved as a side effect.
	AuthorizationURL(ctx context.Context, userID string) (string, error)

	// HandleCallback completes the flow for the given state and
	// authorization code: it consumes the pending record, exchanges the
	// code, and stores the resulting tokens. Returns the user the flow
	// belonged to.
	HandleCallback(ctx context.Context, state, code string) (string, error)
}
