package gdrive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/agentllm/agentllm-core/internal/core/domain"
	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
)

// pendingTTL is how long an issued authorization URL stays valid.
const pendingTTL = 10 * time.Minute

// codePattern matches a pasted Google authorization code ("4/0Ab...").
var codePattern = regexp.MustCompile(`\b4/[A-Za-z0-9_-]{20,}`)

var driveKeywords = []string{"google drive", "gdrive", "drive", "workbook", "spreadsheet", "sheet"}

// Config drives the Google Drive authorization dialog and builds Drive
// toolkits. Unlike token-paste toolkits, configuration runs through a
// browser consent step tracked in the pending-auth store.
type Config struct {
	store    driven.TokenStore
	pending  driven.PendingAuthStore
	oauth    *OAuthClient
	required bool
	logger   *slog.Logger
}

var _ driven.OAuthToolkitConfig = (*Config)(nil)

// NewConfig creates a Google Drive toolkit config.
func NewConfig(store driven.TokenStore, pending driven.PendingAuthStore, oauth *OAuthClient, required bool, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	return &Config{
		store:    store,
		pending:  pending,
		oauth:    oauth,
		required: required,
		logger:   logger.With("toolkit", domain.ServiceGoogleDrive),
	}
}

func (c *Config) Service() string { return domain.ServiceGoogleDrive }
func (c *Config) Required() bool  { return c.required }

func (c *Config) IsConfigured(ctx context.Context, userID string) (bool, error) {
	fields, err := c.store.Get(ctx, domain.ServiceGoogleDrive, userID)
	if err != nil {
		if errors.Is(err, domain.ErrDecryption) {
			c.logger.Warn("stored drive token is unreadable, treating as unconfigured", "user_id", userID)
			return false, nil
		}
		return false, err
	}
	return fields["access_token"] != "", nil
}

func (c *Config) CheckAuthorizationRequest(ctx context.Context, userID, message string) (bool, error) {
	lower := strings.ToLower(message)
	for _, kw := range driveKeywords {
		if strings.Contains(lower, kw) {
			return true, nil
		}
	}
	if codePattern.MatchString(message) {
		return true, nil
	}
	// A live pending flow means any message may carry the awaited code.
	pending, err := c.pending.GetByUser(ctx, domain.ServiceGoogleDrive, userID)
	if err != nil {
		return false, err
	}
	return pending != nil, nil
}

// ExtractAndStoreConfig completes the second phase of the flow: a pasted
// authorization code is exchanged and the resulting tokens stored. The
// pending record is consumed exactly once; a code with no live flow gets a
// fresh authorization URL instead of an exchange attempt.
func (c *Config) ExtractAndStoreConfig(ctx context.Context, userID, message string) (domain.ConfigOutcome, error) {
	code := codePattern.FindString(message)
	if code == "" {
		return *domain.NoMatch(), nil
	}

	pending, err := c.pending.GetByUser(ctx, domain.ServiceGoogleDrive, userID)
	if err != nil {
		return domain.ConfigOutcome{}, err
	}
	if pending == nil {
		prompt, err := c.ConfigPrompt(ctx, userID)
		if err != nil {
			return domain.ConfigOutcome{}, err
		}
		return domain.ConfigOutcome{
			Status:  domain.OutcomeNeedMoreInfo,
			Message: "That authorization code has no active flow (it may have expired). " + prompt,
		}, nil
	}

	// Consume the record before exchanging so the state is single-use even
	// if the exchange fails.
	if consumed, err := c.pending.GetAndDelete(ctx, domain.ServiceGoogleDrive, pending.State); err != nil {
		return domain.ConfigOutcome{}, err
	} else if consumed == nil {
		return domain.ConfigOutcome{
			Status:  domain.OutcomeNeedMoreInfo,
			Message: "This authorization was already used. Say \"connect google drive\" to start over.",
		}, nil
	}

	creds, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		c.logger.Warn("drive code exchange failed", "user_id", userID, "error", err)
		if errors.Is(err, domain.ErrAuthorization) {
			return domain.ConfigOutcome{
				Status:  domain.OutcomeNeedMoreInfo,
				Message: "Google rejected that authorization code. Say \"connect google drive\" to get a fresh link.",
			}, nil
		}
		return domain.ConfigOutcome{}, fmt.Errorf("exchanging drive code: %w", err)
	}

	if err := c.storeCredentials(ctx, userID, creds); err != nil {
		return domain.ConfigOutcome{}, err
	}

	c.logger.Info("drive credentials stored", "user_id", userID, "has_refresh_token", creds.RefreshToken != "")
	return domain.ConfigOutcome{
		Status:  domain.OutcomeStored,
		Message: "Google Drive is connected. I can read your workbooks now.",
	}, nil
}

func (c *Config) storeCredentials(ctx context.Context, userID string, creds *Credentials) error {
	err := c.store.Upsert(ctx, domain.ServiceGoogleDrive, userID, map[string]string{
		"access_token":  creds.AccessToken,
		"refresh_token": creds.RefreshToken,
		"token_uri":     creds.TokenURI,
		"client_id":     creds.ClientID,
		"scopes":        creds.Scopes,
		"expiry":        creds.Expiry,
	})
	if err != nil {
		return fmt.Errorf("storing drive credentials: %w", err)
	}
	return nil
}

// ConfigPrompt starts (or restarts) the flow and tells the user where to go.
func (c *Config) ConfigPrompt(ctx context.Context, userID string) (string, error) {
	authorizeURL, err := c.AuthorizationURL(ctx, userID)
	if err != nil {
		return "", err
	}
	return "To connect Google Drive, open this link, approve access, and paste " +
		"the code you receive back here:\n" + authorizeURL, nil
}

// AuthorizationURL issues a fresh state, records the pending flow and
// returns the consent URL. Calling it again supersedes the previous flow.
func (c *Config) AuthorizationURL(ctx context.Context, userID string) (string, error) {
	if !c.oauth.Configured() {
		return "", fmt.Errorf("%w: google drive oauth client credentials are not set", domain.ErrConfiguration)
	}

	state, err := NewState()
	if err != nil {
		return "", err
	}

	now := time.Now()
	err = c.pending.Save(ctx, &driven.PendingAuth{
		State:       state,
		Service:     domain.ServiceGoogleDrive,
		UserID:      userID,
		RedirectURI: c.oauth.redirectURI,
		CreatedAt:   now,
		ExpiresAt:   now.Add(pendingTTL),
	})
	if err != nil {
		return "", fmt.Errorf("saving pending authorization: %w", err)
	}

	c.logger.Info("drive authorization flow started", "user_id", userID)
	return c.oauth.AuthorizeURL(state), nil
}

// HandleCallback completes a browser-redirect flow: the provider calls the
// callback endpoint with state and code. States issued by other services are
// not consumed, so the shared callback endpoint can try each registered
// config in turn.
func (c *Config) HandleCallback(ctx context.Context, state, code string) (string, error) {
	pending, err := c.pending.GetAndDelete(ctx, domain.ServiceGoogleDrive, state)
	if err != nil {
		return "", err
	}
	if pending == nil {
		return "", fmt.Errorf("%w: unknown or expired authorization state", domain.ErrAuthorization)
	}

	creds, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrAuthorization) {
			return "", err
		}
		return "", fmt.Errorf("%w: code exchange failed: %v", domain.ErrAuthorization, err)
	}

	if err := c.storeCredentials(ctx, pending.UserID, creds); err != nil {
		return "", err
	}

	c.logger.Info("drive credentials stored via callback", "user_id", pending.UserID)
	return pending.UserID, nil
}

// Toolkit builds a Drive toolkit from the stored credentials.
func (c *Config) Toolkit(ctx context.Context, userID string) (domain.Toolkit, error) {
	fields, err := c.store.Get(ctx, domain.ServiceGoogleDrive, userID)
	if err != nil {
		return nil, err
	}
	if fields["access_token"] == "" {
		return nil, fmt.Errorf("google drive not configured for user %s: %w", userID, domain.ErrNotConfigured)
	}
	return &Toolkit{client: NewClient(fields["access_token"])}, nil
}

// Toolkit exposes read-only Drive operations as agent tools.
type Toolkit struct {
	client *Client
}

func (t *Toolkit) Name() string { return domain.ServiceGoogleDrive }

// Client returns the underlying Drive client for sibling toolkits (the
// release workbook reads sheets through it).
func (t *Toolkit) Client() *Client { return t.client }

func (t *Toolkit) Tools() []domain.Tool {
	return []domain.Tool{
		{
			Name:        "list_files",
			Description: "List Google Drive files matching a Drive query expression (e.g. name contains 'release').",
			Handler:     t.listFiles,
		},
		{
			Name:        "read_file",
			Description: "Read a Drive file's content by ID. Spreadsheets are exported as CSV.",
			Handler:     t.readFile,
		},
	}
}

func (t *Toolkit) listFiles(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	files, err := t.client.ListFiles(ctx, query)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(files)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (t *Toolkit) readFile(ctx context.Context, args map[string]any) (string, error) {
	fileID, _ := args["file_id"].(string)
	if fileID == "" {
		return "", fmt.Errorf("%w: missing argument \"file_id\"", domain.ErrValidation)
	}
	if spreadsheet, _ := args["spreadsheet"].(bool); spreadsheet {
		return t.client.ExportCSV(ctx, fileID)
	}
	return t.client.Download(ctx, fileID)
}
