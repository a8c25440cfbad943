package domain

// OutcomeStatus classifies the result of trying to extract configuration
// from a chat message.
type OutcomeStatus string

const (
	// OutcomeStored: credentials were recognised, validated and persisted.
	OutcomeStored OutcomeStatus = "stored"

	// OutcomeNeedMoreInfo: a partial match (e.g. token without server URL).
	// Nothing incomplete is persisted; Message carries the follow-up prompt.
	OutcomeNeedMoreInfo OutcomeStatus = "need_more_info"

	// OutcomeNoMatch: the message carries no configuration for this toolkit.
	// This is an expected, frequent result, not a failure.
	OutcomeNoMatch OutcomeStatus = "no_match"
)

// ConfigOutcome is the result of ExtractAndStoreConfig.
type ConfigOutcome struct {
	Status  OutcomeStatus
	Message string
}

// NoMatch is the zero outcome for messages carrying no configuration.
func NoMatch() *ConfigOutcome {
	return &ConfigOutcome{Status: OutcomeNoMatch}
}

// TurnDecision is what the agent runtime receives for each incoming chat
// turn: either an instruction to show a configuration prompt instead of
// invoking the model, or the model go-ahead with tools already bound.
type TurnDecision struct {
	// TurnID uniquely identifies this turn for logging and tracing.
	TurnID string

	// ShouldInvokeModel is false while any required toolkit is unconfigured.
	ShouldInvokeModel bool

	// Prompt is the configuration (or confirmation) text to show the user
	// when the model is not invoked, empty otherwise.
	Prompt string

	// BoundTools are the live toolkits for every configured toolkit config,
	// in registration order. Empty unless ShouldInvokeModel is true.
	BoundTools []Toolkit

	// Instructions are system-prompt fragments contributed by the agent and
	// its configured toolkits.
	Instructions []string
}
