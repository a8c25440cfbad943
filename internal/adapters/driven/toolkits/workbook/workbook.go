package workbook

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

// Sheet names the release workbook must carry.
const (
	SheetConfiguration = "Configuration & Setup"
	SheetJiraQueries   = "Jira Queries"
	SheetWorkflows     = "Actions & Workflows"
	SheetTemplates     = "Slack Templates"
	SheetPrompts       = "Prompts"
)

// requiredColumns per sheet; extra columns are carried through untouched.
var requiredColumns = map[string][]string{
	SheetConfiguration: {"config_key", "value"},
	SheetJiraQueries:   {"name", "jql_template"},
	SheetWorkflows:     {"name", "instructions"},
	SheetTemplates:     {"name", "template_content"},
	SheetPrompts:       {"name", "prompt_content"},
}

// ConfigKeyBaseJQL is the workbook key feeding the Jira default base JQL.
const ConfigKeyBaseJQL = "jira_default_base_jql"

// Workbook is the parsed release workbook: named sheets of header-keyed rows.
type Workbook struct {
	sheets map[string][]map[string]string
}

// Parse builds a Workbook from raw CSV sheet contents keyed by sheet name,
// validating that every required sheet and column is present.
func Parse(raw map[string]string) (*Workbook, error) {
	sheets := make(map[string][]map[string]string, len(raw))
	for name, content := range raw {
		rows, err := parseSheet(content)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", domain.ErrValidation, name, err)
		}
		sheets[name] = rows
	}

	var problems []string
	for name, columns := range requiredColumns {
		rows, ok := sheets[name]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing sheet %q", name))
			continue
		}
		if len(rows) == 0 {
			problems = append(problems, fmt.Sprintf("sheet %q has no data rows", name))
			continue
		}
		for _, col := range columns {
			if _, ok := rows[0][col]; !ok {
				problems = append(problems, fmt.Sprintf("sheet %q is missing column %q", name, col))
			}
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, fmt.Errorf("%w: invalid workbook: %s", domain.ErrValidation, strings.Join(problems, "; "))
	}

	return &Workbook{sheets: sheets}, nil
}

func parseSheet(content string) ([]map[string]string, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// lookup finds the row in a sheet whose key column equals name
// (case-insensitive).
func (w *Workbook) lookup(sheet, keyColumn, name string) (map[string]string, error) {
	rows, ok := w.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("%w: sheet %q not found", domain.ErrNotFound, sheet)
	}
	for _, row := range rows {
		if strings.EqualFold(row[keyColumn], name) {
			return row, nil
		}
	}
	return nil, fmt.Errorf("%w: %q not found in sheet %q", domain.ErrNotFound, name, sheet)
}

func (w *Workbook) names(sheet, keyColumn string) []string {
	var out []string
	for _, row := range w.sheets[sheet] {
		if row[keyColumn] != "" {
			out = append(out, row[keyColumn])
		}
	}
	sort.Strings(out)
	return out
}

// ConfigValue returns a value from the Configuration & Setup sheet.
func (w *Workbook) ConfigValue(key string) (string, error) {
	row, err := w.lookup(SheetConfiguration, "config_key", key)
	if err != nil {
		return "", err
	}
	return row["value"], nil
}

// JiraQueryTemplate returns a named JQL template.
func (w *Workbook) JiraQueryTemplate(name string) (string, error) {
	row, err := w.lookup(SheetJiraQueries, "name", name)
	if err != nil {
		return "", err
	}
	return row["jql_template"], nil
}

// WorkflowInstructions returns a named workflow's instructions.
func (w *Workbook) WorkflowInstructions(name string) (string, error) {
	row, err := w.lookup(SheetWorkflows, "name", name)
	if err != nil {
		return "", err
	}
	return row["instructions"], nil
}

// SlackTemplate returns a named announcement template.
func (w *Workbook) SlackTemplate(name string) (string, error) {
	row, err := w.lookup(SheetTemplates, "name", name)
	if err != nil {
		return "", err
	}
	return row["template_content"], nil
}

// Prompt returns a named situational prompt.
func (w *Workbook) Prompt(name string) (string, error) {
	row, err := w.lookup(SheetPrompts, "name", name)
	if err != nil {
		return "", err
	}
	return row["prompt_content"], nil
}

// QueryNames lists the available Jira query template names.
func (w *Workbook) QueryNames() []string { return w.names(SheetJiraQueries, "name") }

// WorkflowNames lists the available workflow names.
func (w *Workbook) WorkflowNames() []string { return w.names(SheetWorkflows, "name") }

// TemplateNames lists the available Slack template names.
func (w *Workbook) TemplateNames() []string { return w.names(SheetTemplates, "name") }

// PromptNames lists the available prompt names.
func (w *Workbook) PromptNames() []string { return w.names(SheetPrompts, "name") }
