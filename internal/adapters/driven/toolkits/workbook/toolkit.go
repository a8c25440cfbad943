package workbook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

// Toolkit exposes workbook lookups as agent tools.
type Toolkit struct {
	workbook *Workbook
}

func (t *Toolkit) Name() string { return "workbook" }

func (t *Toolkit) Tools() []domain.Tool {
	return []domain.Tool{
		{
			Name:        "get_jira_query_template",
			Description: "Get a named JQL template from the Jira Queries sheet.",
			Handler:     t.named(t.workbook.JiraQueryTemplate),
		},
		{
			Name:        "get_workflow_instructions",
			Description: "Get step-by-step instructions for a named workflow from the Actions & Workflows sheet.",
			Handler:     t.named(t.workbook.WorkflowInstructions),
		},
		{
			Name:        "get_slack_template",
			Description: "Get a named announcement template from the Slack Templates sheet.",
			Handler:     t.named(t.workbook.SlackTemplate),
		},
		{
			Name:        "get_prompt",
			Description: "Get a named situational prompt from the Prompts sheet.",
			Handler:     t.named(t.workbook.Prompt),
		},
		{
			Name:        "get_config_value",
			Description: "Get a value from the Configuration & Setup sheet by config key.",
			Handler:     t.named(t.workbook.ConfigValue),
		},
		{
			Name:        "list_workbook_contents",
			Description: "List the available query, workflow, template and prompt names.",
			Handler:     t.listContents,
		},
	}
}

// named adapts a by-name workbook lookup into a ToolFunc.
func (t *Toolkit) named(lookup func(string) (string, error)) domain.ToolFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		name, _ := args["name"].(string)
		if name == "" {
			return "", fmt.Errorf("%w: missing argument \"name\"", domain.ErrValidation)
		}
		return lookup(name)
	}
}

func (t *Toolkit) listContents(ctx context.Context, args map[string]any) (string, error) {
	out, err := json.Marshal(map[string][]string{
		"queries":   t.workbook.QueryNames(),
		"workflows": t.workbook.WorkflowNames(),
		"templates": t.workbook.TemplateNames(),
		"prompts":   t.workbook.PromptNames(),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
