package gdrive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

const driveAPIURL = "https://www.googleapis.com/drive/v3"

// Client is a minimal Google Drive v3 client bound to one user's access
// token. Token refresh is out of scope here: an expired token surfaces as
// domain.ErrAuthorization and the configurator re-prompts.
type Client struct {
	accessToken string
	apiURL      string
	http        *http.Client
}

// NewClient creates a Client from a bearer access token.
func NewClient(accessToken string) *Client {
	return &Client{
		accessToken: accessToken,
		apiURL:      driveAPIURL,
		http:        &http.Client{Timeout: 30 * time.Second},
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
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("reading drive response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: drive returned %d", domain.ErrAuthorization, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("drive returned %d", resp.StatusCode)
	}
	return data, nil
}

// File is the subset of file metadata the tools surface.
type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

// ListFiles lists files matching a Drive query expression.
func (c *Client) ListFiles(ctx context.Context, driveQuery string) ([]File, error) {
	query := url.Values{}
	if driveQuery != "" {
		query.Set("q", driveQuery)
	}
	query.Set("pageSize", "100")
	query.Set("fields", "files(id,name,mimeType)")

	data, err := c.get(ctx, "/files", query)
	if err != nil {
		return nil, err
	}

	var result struct {
		Files []File `json:"files"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding file list: %w", err)
	}
	return result.Files, nil
}

// ExportCSV exports a spreadsheet file as CSV text.
func (c *Client) ExportCSV(ctx context.Context, fileID string) (string, error) {
	query := url.Values{}
	query.Set("mimeType", "text/csv")

	data, err := c.get(ctx, "/files/"+url.PathEscape(fileID)+"/export", query)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Download fetches a regular (non-Google-Docs) file's content.
func (c *Client) Download(ctx context.Context, fileID string) (string, error) {
	query := url.Values{}
	query.Set("alt", "media")

	data, err := c.get(ctx, "/files/"+url.PathEscape(fileID), query)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
