package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"backlog/internal/application/commands"
	"backlog/internal/config"
	"backlog/internal/domain"
)

// Backend is everything the tools need to reach the project backlog
type Backend struct {
	Workspace *commands.Workspace
	Loader    commands.BranchLoader
	Config    *config.Config
}

// RegisterReadTools adds all read-only backlog tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, b Backend) {
	s.AddTool(pingTool(), pingHandler())
	s.AddTool(listTasksTool(), listTasksHandler(b))
	s.AddTool(listSequencesTool(), listSequencesHandler(b))
	s.AddTool(loadRemoteTasksTool(), loadBranchTasksHandler(b, commands.ScopeRemote))
	s.AddTool(loadBranchTasksTool(), loadBranchTasksHandler(b, commands.ScopeLocalBranches))
}

// --- ping ---

func pingTool() mcp.Tool {
	return mcp.NewTool("ping",
		mcp.WithDescription("Health check, returns pong"),
	)
}

func pingHandler() server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("pong"), nil
	}
}

// --- list_tasks ---

func listTasksTool() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription("List the tasks of the local backlog. With all_branches the list is reconciled against copies on remote and other local branches."),
		mcp.WithBoolean("all_branches",
			mcp.Description("Merge in newer copies found on other branches"),
		),
	)
}

func listTasksHandler(b Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !req.GetBool("all_branches", false) {
			tasks, err := commands.NewListTasksCommand(b.Workspace.Repo).Execute(ctx)
			if err != nil {
				return toolError(err)
			}
			return formatTasks(tasks)
		}

		cmd := commands.NewLoadBranchTasksCommand(b.Workspace.Repo, b.Loader, b.Config, commands.ScopeAll)
		cmd.Merge = true
		tasks, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatTasks(tasks)
	}
}

// --- list_sequences ---

func listSequencesTool() mcp.Tool {
	return mcp.NewTool("list_sequences",
		mcp.WithDescription("Show the dependency sequences of the local backlog. Tasks in one sequence can be worked on in parallel; each sequence depends only on earlier ones."),
	)
}

func listSequencesHandler(b Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewListSequencesCommand(b.Workspace).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(formatSequences(result)), nil
	}
}

// --- load_remote_tasks / load_branch_tasks ---

func loadRemoteTasksTool() mcp.Tool {
	return mcp.NewTool("load_remote_tasks",
		mcp.WithDescription("Fetch and list task copies from recently active remote branches that are newer than the local backlog."),
	)
}

func loadBranchTasksTool() mcp.Tool {
	return mcp.NewTool("load_branch_tasks",
		mcp.WithDescription("List task copies from other recently active local branches that are newer than the local backlog."),
	)
}

func loadBranchTasksHandler(b Backend, scope commands.BranchScope) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var notes []string
		cmd := commands.NewLoadBranchTasksCommand(b.Workspace.Repo, b.Loader, b.Config, scope)
		cmd.OnProgress = func(msg string) { notes = append(notes, msg) }

		tasks, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if len(tasks) == 0 {
			msg := "No newer task copies found."
			if len(notes) > 0 {
				msg += "\n" + strings.Join(notes, "\n")
			}
			return mcp.NewToolResultText(msg), nil
		}
		return formatTasks(tasks)
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatTasks(tasks []domain.Task) (*mcp.CallToolResult, error) {
	if len(tasks) == 0 {
		return mcp.NewToolResultText("No tasks."), nil
	}
	var sb strings.Builder
	for _, t := range tasks {
		sb.WriteString(formatTask(t))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatTask(t domain.Task) string {
	line := fmt.Sprintf("%s  [%s]  %s", t.ID, t.Status, t.Title)
	if t.Branch != "" {
		line += fmt.Sprintf("  (%s: %s)", t.Source, t.Branch)
	}
	if len(t.Dependencies) > 0 {
		line += "  depends on " + strings.Join(t.Dependencies, ", ")
	}
	return line
}

func formatSequences(r domain.SequenceResult) string {
	if len(r.Sequences) == 0 && len(r.Unsequenced) == 0 {
		return "No tasks."
	}

	var sb strings.Builder
	for _, s := range r.Sequences {
		fmt.Fprintf(&sb, "Sequence %d:\n", s.Index)
		for _, t := range domain.SortForDisplay(s.Tasks) {
			fmt.Fprintf(&sb, "  %s\n", formatTask(t))
		}
	}
	if len(r.Unsequenced) > 0 {
		sb.WriteString("Unsequenced:\n")
		for _, t := range r.Unsequenced {
			fmt.Fprintf(&sb, "  %s\n", formatTask(t))
		}
	}
	return sb.String()
}
