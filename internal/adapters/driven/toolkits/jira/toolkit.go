package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

// Toolkit exposes Jira operations as agent tools. Mutating tools are only
// present when the owning agent's capability allows writes; the default
// base JQL, when set, is prepended to every search.
type Toolkit struct {
	client     *Client
	capability domain.Capability
	baseJQL    string
}

// NewToolkit builds a Toolkit over a credentialed client.
func NewToolkit(client *Client, capability domain.Capability, baseJQL string) *Toolkit {
	return &Toolkit{client: client, capability: capability, baseJQL: baseJQL}
}

func (t *Toolkit) Name() string { return domain.ServiceJira }

func (t *Toolkit) Tools() []domain.Tool {
	tools := []domain.Tool{
		{
			Name:        "search_issues",
			Description: "Search Jira issues with a JQL query. Returns key, summary, status and assignee per issue.",
			Handler:     t.searchIssues,
		},
		{
			Name:        "get_issue",
			Description: "Fetch one Jira issue by key, including description and components.",
			Handler:     t.getIssue,
		},
	}
	if t.capability.CanWrite() {
		tools = append(tools,
			domain.Tool{
				Name:        "add_comment",
				Description: "Add a comment to a Jira issue.",
				Handler:     t.addComment,
			},
			domain.Tool{
				Name:        "update_issue",
				Description: "Update fields of a Jira issue (assignee, components, labels).",
				Handler:     t.updateIssue,
			},
		)
	}
	return tools
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("%w: missing argument %q", domain.ErrValidation, name)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: argument %q must be a non-empty string", domain.ErrValidation, name)
	}
	return s, nil
}

// effectiveJQL scopes a user query under the configured base JQL.
func (t *Toolkit) effectiveJQL(jql string) string {
	if t.baseJQL == "" {
		return jql
	}
	if strings.TrimSpace(jql) == "" {
		return t.baseJQL
	}
	return fmt.Sprintf("(%s) AND (%s)", t.baseJQL, jql)
}

func (t *Toolkit) searchIssues(ctx context.Context, args map[string]any) (string, error) {
	jql, _ := args["jql"].(string)
	issues, err := t.client.SearchIssues(ctx, t.effectiveJQL(jql), 50)
	if err != nil {
		return "", err
	}

	type row struct {
		Key      string `json:"key"`
		Summary  string `json:"summary"`
		Status   string `json:"status"`
		Assignee string `json:"assignee,omitempty"`
	}
	rows := make([]row, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, row{
			Key:      issue.Key,
			Summary:  issue.Fields.Summary,
			Status:   issue.Fields.Status.Name,
			Assignee: issue.Fields.Assignee.DisplayName,
		})
	}
	out, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (t *Toolkit) getIssue(ctx context.Context, args map[string]any) (string, error) {
	key, err := stringArg(args, "key")
	if err != nil {
		return "", err
	}
	issue, err := t.client.GetIssue(ctx, key)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(issue)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (t *Toolkit) addComment(ctx context.Context, args map[string]any) (string, error) {
	key, err := stringArg(args, "key")
	if err != nil {
		return "", err
	}
	comment, err := stringArg(args, "comment")
	if err != nil {
		return "", err
	}
	if err := t.client.AddComment(ctx, key, comment); err != nil {
		return "", err
	}
	return fmt.Sprintf("comment added to %s", key), nil
}

func (t *Toolkit) updateIssue(ctx context.Context, args map[string]any) (string, error) {
	key, err := stringArg(args, "key")
	if err != nil {
		return "", err
	}
	fields, ok := args["fields"].(map[string]any)
	if !ok || len(fields) == 0 {
		return "", fmt.Errorf("%w: argument \"fields\" must be a non-empty object", domain.ErrValidation)
	}
	if err := t.client.UpdateIssue(ctx, key, fields); err != nil {
		return "", err
	}
	return fmt.Sprintf("updated %s", key), nil
}
