package agents

import (
	"log/slog"

	"github.com/agentllm/agentllm-core/internal/adapters/driven/toolkits/gdrive"
	"github.com/agentllm/agentllm-core/internal/adapters/driven/toolkits/github"
	"github.com/agentllm/agentllm-core/internal/adapters/driven/toolkits/jira"
	"github.com/agentllm/agentllm-core/internal/adapters/driven/toolkits/workbook"
	"github.com/agentllm/agentllm-core/internal/core/domain"
	"github.com/agentllm/agentllm-core/internal/core/ports/driven"
	"github.com/agentllm/agentllm-core/internal/core/services"
)

// Built-in agent names.
const (
	AgentReleaseManager      = "release-manager"
	AgentJiraTriager         = "jira-triager"
	AgentGitHubPRPrioritizer = "github-pr-prioritizer"
)

// Deps holds the shared infrastructure every agent composes its toolkits
// from.
type Deps struct {
	Store   driven.TokenStore
	Pending driven.PendingAuthStore
	Drive   *gdrive.OAuthClient

	// SheetsDir, when set, serves the release workbook from a local
	// directory instead of the user's Drive (automation mode).
	SheetsDir string

	// WorkbookFolderID is the Drive folder holding the workbook sheets.
	WorkbookFolderID string

	Logger *slog.Logger
}

// Agent pairs a name with its built configurator and any OAuth-flow toolkit
// configs the HTTP callback endpoint must know about.
type Agent struct {
	Name         string
	Configurator *services.Configurator
	OAuth        []driven.OAuthToolkitConfig
}

// ReleaseManager builds the release-manager agent: Drive-backed release
// workbook plus read-only Jira, scoped by the workbook's default base JQL.
func ReleaseManager(d Deps) Agent {
	// With a local sheets directory the workbook works without Drive, so
	// Drive drops to optional.
	driveRequired := d.SheetsDir == ""
	driveCfg := gdrive.NewConfig(d.Store, d.Pending, d.Drive, driveRequired, d.Logger)

	var source workbook.Source
	if d.SheetsDir != "" {
		source = workbook.NewLocalDirSource(d.SheetsDir)
	} else {
		source = workbook.NewDriveSource(driveCfg, d.WorkbookFolderID)
	}
	workbookCfg := workbook.NewConfig(source, d.Logger)

	jiraCfg := jira.NewConfig(d.Store, true, domain.CapabilityReadOnly, workbookCfg, d.Logger)

	configurator := services.NewConfigurator(services.ConfiguratorConfig{
		AgentName: AgentReleaseManager,
		Toolkits:  []driven.ToolkitConfig{driveCfg, workbookCfg, jiraCfg},
		Instructions: []string{
			"You are a release manager assistant. Use the workbook's named queries, " +
				"workflows and templates as the source of truth for release process questions.",
			"Never reveal stored credentials or tokens in any response.",
		},
		Logger: d.Logger,
	})
	return Agent{
		Name:         AgentReleaseManager,
		Configurator: configurator,
		OAuth:        []driven.OAuthToolkitConfig{driveCfg},
	}
}

// JiraTriager builds the jira-triager agent: read-write Jira, with GitHub
// available on request for cross-referencing pull requests.
func JiraTriager(d Deps) Agent {
	jiraCfg := jira.NewConfig(d.Store, true, domain.CapabilityReadWrite, nil, d.Logger)
	githubCfg := github.NewConfig(d.Store, false, d.Logger)

	configurator := services.NewConfigurator(services.ConfiguratorConfig{
		AgentName: AgentJiraTriager,
		Toolkits:  []driven.ToolkitConfig{jiraCfg, githubCfg},
		Instructions: []string{
			"You are a Jira triage assistant. Label, comment on and reassign issues " +
				"conservatively; when in doubt, add a comment instead of changing fields.",
			"Never reveal stored credentials or tokens in any response.",
		},
		Logger: d.Logger,
	})
	return Agent{Name: AgentJiraTriager, Configurator: configurator}
}

// GitHubPRPrioritizer builds the github-pr-prioritizer agent: GitHub is the
// primary toolkit, with read-only Jira available for linked issues.
func GitHubPRPrioritizer(d Deps) Agent {
	githubCfg := github.NewConfig(d.Store, true, d.Logger)
	jiraCfg := jira.NewConfig(d.Store, false, domain.CapabilityReadOnly, nil, d.Logger)

	configurator := services.NewConfigurator(services.ConfiguratorConfig{
		AgentName: AgentGitHubPRPrioritizer,
		Toolkits:  []driven.ToolkitConfig{githubCfg, jiraCfg},
		Instructions: []string{
			"You are a pull request prioritization assistant. Rank open pull requests " +
				"by review urgency, and cite the pull request URLs you used.",
			"Never reveal stored credentials or tokens in any response.",
		},
		Logger: d.Logger,
	})
	return Agent{Name: AgentGitHubPRPrioritizer, Configurator: configurator}
}

// All builds every built-in agent.
func All(d Deps) []Agent {
	return []Agent{
		ReleaseManager(d),
		JiraTriager(d),
		GitHubPRPrioritizer(d),
	}
}
