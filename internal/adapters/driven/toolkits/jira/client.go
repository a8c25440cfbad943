package jira

import (
	"bytes"
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

// Client is a minimal Jira REST v2 client bound to one user's credentials.
// Server/DC instances use bearer PAT auth; an optional username switches to
// basic auth for Cloud-style tokens.
type Client struct {
	serverURL string
	token     string
	username  string
	http      *http.Client
}

// NewClient creates a Client. serverURL must include the scheme.
func NewClient(serverURL, token, username string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		token:     token,
		username:  username,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	u := c.serverURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading jira response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: jira returned %d", domain.ErrAuthorization, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("jira returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Myself verifies the credentials by fetching the current user.
func (c *Client) Myself(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/rest/api/2/myself", nil, nil)
	return err
}

// Issue is the subset of issue fields the tools surface.
type Issue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string `json:"summary"`
		Description string `json:"description"`
		Status      struct {
			Name string `json:"name"`
		} `json:"status"`
		Assignee struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		Components []struct {
			Name string `json:"name"`
		} `json:"components"`
	} `json:"fields"`
}

// SearchIssues runs a JQL query.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) ([]Issue, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	query := url.Values{}
	query.Set("jql", jql)
	query.Set("maxResults", fmt.Sprintf("%d", maxResults))

	data, err := c.do(ctx, http.MethodGet, "/rest/api/2/search", query, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Issues []Issue `json:"issues"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding search result: %w", err)
	}
	return result.Issues, nil
}

// GetIssue fetches one issue by key.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	data, err := c.do(ctx, http.MethodGet, "/rest/api/2/issue/"+url.PathEscape(key), nil, nil)
	if err != nil {
		return nil, err
	}
	issue := &Issue{}
	if err := json.Unmarshal(data, issue); err != nil {
		return nil, fmt.Errorf("decoding issue: %w", err)
	}
	return issue, nil
}

// AddComment posts a comment on an issue.
func (c *Client) AddComment(ctx context.Context, key, comment string) error {
	_, err := c.do(ctx, http.MethodPost, "/rest/api/2/issue/"+url.PathEscape(key)+"/comment", nil,
		map[string]string{"body": comment})
	return err
}

// UpdateIssue applies field updates to an issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	_, err := c.do(ctx, http.MethodPut, "/rest/api/2/issue/"+url.PathEscape(key), nil,
		map[string]any{"fields": fields})
	return err
}
