package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

const defaultAPIURL = "https://api.github.com"

// Client is a minimal GitHub REST client bound to one user's PAT.
type Client struct {
	apiURL string
	token  string
	http   *http.Client
}

// NewClient creates a Client. serverURL overrides the API base for GitHub
// Enterprise; empty means github.com.
func NewClient(serverURL, token string) *Client {
	apiURL := defaultAPIURL
	if serverURL != "" {
		apiURL = strings.TrimRight(serverURL, "/")
	}
	return &Client{
		apiURL: apiURL,
		token:  token,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.apiURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading github response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: github returned %d", domain.ErrAuthorization, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("github returned %d", resp.StatusCode)
	}
	return data, nil
}

// Viewer verifies the token by fetching the authenticated user's login.
func (c *Client) Viewer(ctx context.Context) (string, error) {
	data, err := c.get(ctx, "/user", nil)
	if err != nil {
		return "", err
	}
	var user struct {
		Login string `json:"login"`
	}
	if err := json.Unmarshal(data, &user); err != nil {
		return "", fmt.Errorf("decoding user: %w", err)
	}
	return user.Login, nil
}

// PullRequest is the subset of PR fields the tools surface.
type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	Draft  bool   `json:"draft"`
	User   struct {
		Login string `json:"login"`
	} `json:"user"`
	HTMLURL   string    `json:"html_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListPullRequests lists pull requests for owner/repo.
func (c *Client) ListPullRequests(ctx context.Context, owner, repo, state string) ([]PullRequest, error) {
	if state == "" {
		state = "open"
	}
	query := url.Values{}
	query.Set("state", state)
	query.Set("per_page", "50")

	path := fmt.Sprintf("/repos/%s/%s/pulls", url.PathEscape(owner), url.PathEscape(repo))
	data, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	var prs []PullRequest
	if err := json.Unmarshal(data, &prs); err != nil {
		return nil, fmt.Errorf("decoding pull requests: %w", err)
	}
	return prs, nil
}

// GetPullRequest fetches one pull request.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", url.PathEscape(owner), url.PathEscape(repo), number)
	data, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	pr := &PullRequest{}
	if err := json.Unmarshal(data, pr); err != nil {
		return nil, fmt.Errorf("decoding pull request: %w", err)
	}
	return pr, nil
}
