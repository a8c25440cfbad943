package jira

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/agentllm/agentllm-core/internal/core/domain"
	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
)

// Credential recognizers over free-form chat text. A message like
// "my jira token is NjE2... and server is https://issues.example.com"
// yields both values in one turn.
var (
	tokenPattern    = regexp.MustCompile(`(?i)\btoken\s*(?:is|[:=])?\s+([A-Za-z0-9._+/=-]{8,})`)
	serverPattern   = regexp.MustCompile(`(?i)\bserver(?:\s*url)?\s*(?:is|[:=])?\s+(https?://[^\s,;"']+)`)
	usernamePattern = regexp.MustCompile(`(?i)\busername\s*(?:is|[:=])?\s+([A-Za-z0-9._@-]+)`)
	issueKeyPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]+-\d+\b`)
)

var jiraKeywords = []string{"jira", "issue", "ticket", "sprint", "backlog", "jql"}

// BaseJQLProvider supplies the per-user default base JQL (typically loaded
// from the release workbook). A nil provider or empty result means searches
// run unscoped.
type BaseJQLProvider interface {
	BaseJQL(ctx context.Context, userID string) string
}

// Config drives the Jira configuration dialog and builds Jira toolkits.
type Config struct {
	store      driven.TokenStore
	required   bool
	capability domain.Capability
	baseJQL    BaseJQLProvider
	logger     *slog.Logger
}

var _ driven.ToolkitConfig = (*Config)(nil)

// NewConfig creates a Jira toolkit config.
func NewConfig(store driven.TokenStore, required bool, capability domain.Capability, baseJQL BaseJQLProvider, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	return &Config{
		store:      store,
		required:   required,
		capability: capability,
		baseJQL:    baseJQL,
		logger:     logger.With("toolkit", domain.ServiceJira),
	}
}

func (c *Config) Service() string { return domain.ServiceJira }
func (c *Config) Required() bool  { return c.required }

// IsConfigured requires both a token and a server URL. A row that fails to
// decrypt counts as unconfigured so the user gets re-prompted instead of a
// broken toolkit.
func (c *Config) IsConfigured(ctx context.Context, userID string) (bool, error) {
	fields, err := c.store.Get(ctx, domain.ServiceJira, userID)
	if err != nil {
		if errorsIsDecryption(err) {
			c.logger.Warn("stored jira token is unreadable, treating as unconfigured", "user_id", userID)
			return false, nil
		}
		return false, err
	}
	return fields["token"] != "" && fields["server_url"] != "", nil
}

func (c *Config) CheckAuthorizationRequest(ctx context.Context, userID, message string) (bool, error) {
	lower := strings.ToLower(message)
	for _, kw := range jiraKeywords {
		if strings.Contains(lower, kw) {
			return true, nil
		}
	}
	return issueKeyPattern.MatchString(message), nil
}

// ExtractAndStoreConfig pulls token/server/username out of the message.
// Each recognized piece is persisted as it arrives, so the user may supply
// the token and the server URL across separate turns; the record only
// counts as configured once both halves are present.
func (c *Config) ExtractAndStoreConfig(ctx context.Context, userID, message string) (domain.ConfigOutcome, error) {
	if !strings.Contains(strings.ToLower(message), "jira") &&
		!tokenPattern.MatchString(message) && !serverPattern.MatchString(message) {
		return *domain.NoMatch(), nil
	}

	token := firstGroup(tokenPattern, message)
	server := firstGroup(serverPattern, message)
	username := firstGroup(usernamePattern, message)

	if token == "" && server == "" {
		return *domain.NoMatch(), nil
	}

	fields := make(map[string]string)
	if token != "" {
		fields["token"] = token
	}
	if server != "" {
		fields["server_url"] = server
	}
	if username != "" {
		fields["username"] = username
	}
	if err := c.store.Upsert(ctx, domain.ServiceJira, userID, fields); err != nil {
		return domain.ConfigOutcome{}, fmt.Errorf("storing jira credentials: %w", err)
	}

	// Combine with any half already stored from a previous turn.
	stored, err := c.store.Get(ctx, domain.ServiceJira, userID)
	if err != nil && !errorsIsDecryption(err) {
		return domain.ConfigOutcome{}, err
	}

	switch {
	case stored["token"] == "":
		return domain.ConfigOutcome{
			Status:  domain.OutcomeNeedMoreInfo,
			Message: "I have the Jira server URL. I still need your Jira API token (say: my jira token is <token>).",
		}, nil
	case stored["server_url"] == "":
		return domain.ConfigOutcome{
			Status:  domain.OutcomeNeedMoreInfo,
			Message: "I have your Jira token. Which Jira server should I use? (say: server is https://issues.example.com)",
		}, nil
	}

	c.logger.Info("jira credentials stored", "user_id", userID, "server_url", stored["server_url"])
	return domain.ConfigOutcome{
		Status:  domain.OutcomeStored,
		Message: fmt.Sprintf("Your Jira credentials for %s are stored securely. You're all set.", stored["server_url"]),
	}, nil
}

func (c *Config) ConfigPrompt(ctx context.Context, userID string) (string, error) {
	return "To connect Jira, tell me your API token and server, for example:\n" +
		"\"my jira token is <token> and server is https://issues.example.com\"\n" +
		"The token is encrypted before it is stored.", nil
}

// Toolkit builds a Jira toolkit from the stored credentials.
func (c *Config) Toolkit(ctx context.Context, userID string) (domain.Toolkit, error) {
	fields, err := c.store.Get(ctx, domain.ServiceJira, userID)
	if err != nil {
		return nil, err
	}
	if fields["token"] == "" || fields["server_url"] == "" {
		return nil, fmt.Errorf("jira not configured for user %s: %w", userID, domain.ErrNotConfigured)
	}

	client := NewClient(fields["server_url"], fields["token"], fields["username"])

	var baseJQL string
	if c.baseJQL != nil {
		baseJQL = c.baseJQL.BaseJQL(ctx, userID)
	}
	return NewToolkit(client, c.capability, baseJQL), nil
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func errorsIsDecryption(err error) bool {
	return errors.Is(err, domain.ErrDecryption)
}
