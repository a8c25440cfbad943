package gdrive

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

const (
	authURI  = "https://accounts.google.com/o/oauth2/auth"
	tokenURI = "https://oauth2.googleapis.com/token"

	// exchangeTimeout bounds each token-endpoint round trip.
	exchangeTimeout = 5 * time.Second
)

// Scopes are read-only: the agents read workbooks and documents, never
// write back to Drive.
var driveScopes = []string{
	"https://www.googleapis.com/auth/drive.readonly",
	"https://www.googleapis.com/auth/documents.readonly",
	"https://www.googleapis.com/auth/spreadsheets.readonly",
	"https://www.googleapis.com/auth/presentations.readonly",
}

// OAuthClient holds the application's Google OAuth credentials and performs
// the authorization-code exchange.
type OAuthClient struct {
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURI     string
	http         *http.Client
}

// NewOAuthClient creates an OAuthClient from application credentials.
func NewOAuthClient(clientID, clientSecret, redirectURI string) *OAuthClient {
	return &OAuthClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		tokenURI:     tokenURI,
		http:         &http.Client{Timeout: exchangeTimeout},
	}
}

// Configured reports whether application credentials are present.
func (o *OAuthClient) Configured() bool {
	return o.clientID != "" && o.clientSecret != ""
}

// NewState returns a fresh CSRF state value.
func NewState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// AuthorizeURL builds the Google consent URL for the given state.
// access_type=offline with consent prompt forces a refresh token.
func (o *OAuthClient) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", o.clientID)
	q.Set("redirect_uri", o.redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(driveScopes, " "))
	q.Set("state", state)
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	return authURI + "?" + q.Encode()
}

// Credentials are the stored Google token fields.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	TokenURI     string
	ClientID     string
	Scopes       string
	Expiry       string
}

// Exchange trades an authorization code for credentials. One automatic
// retry covers transient failures; auth-level rejections fail immediately
// with domain.ErrAuthorization.
func (o *OAuthClient) Exchange(ctx context.Context, code string) (*Credentials, error) {
	creds, err := o.exchangeOnce(ctx, code)
	if err == nil {
		return creds, nil
	}
	if ctx.Err() != nil || errors.Is(err, domain.ErrAuthorization) {
		return nil, err
	}
	return o.exchangeOnce(ctx, code)
}

func (o *OAuthClient) exchangeOnce(ctx context.Context, code string) (*Credentials, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", o.clientID)
	form.Set("client_secret", o.clientSecret)
	form.Set("redirect_uri", o.redirectURI)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.tokenURI,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, fmt.Errorf("%w: token endpoint returned %d", domain.ErrAuthorization, resp.StatusCode)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		Scope        string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token in response", domain.ErrAuthorization)
	}

	var expiry string
	if payload.ExpiresIn > 0 {
		expiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second).UTC().Format(time.RFC3339)
	}
	return &Credentials{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenURI:     o.tokenURI,
		ClientID:     o.clientID,
		Scopes:       payload.Scope,
		Expiry:       expiry,
	}, nil
}
