package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"backlog/internal/application/commands"
)

// RegisterWriteTools adds all tools that rewrite task files to the MCP server.
func RegisterWriteTools(s *server.MCPServer, b Backend) {
	s.AddTool(moveTaskTool(), moveTaskHandler(b))
	s.AddTool(insertTaskTool(), insertTaskHandler(b))
	s.AddTool(reorderTaskTool(), reorderTaskHandler(b))
	s.AddTool(demoteTaskTool(), demoteTaskHandler(b))
	s.AddTool(rebalanceSequenceTool(), rebalanceSequenceHandler(b))
}

func taskIDParam() mcp.ToolOption {
	return mcp.WithString("task_id",
		mcp.Description("Task ID (e.g. task-12 or 12)"),
		mcp.Required(),
	)
}

// --- move_task ---

func moveTaskTool() mcp.Tool {
	return mcp.NewTool("move_task",
		mcp.WithDescription("Move a task into another sequence by rewriting its dependencies. Use one past the last sequence to create a new final sequence."),
		taskIDParam(),
		mcp.WithNumber("sequence",
			mcp.Description("Target sequence, 1-based"),
			mcp.Required(),
		),
	)
}

func moveTaskHandler(b Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := req.GetString("task_id", "")
		cmd := commands.NewMoveTaskCommand(b.Workspace, id, req.GetInt("sequence", 0))
		return sequenceChange(cmd.Execute(ctx))
	}
}

// --- insert_task ---

func insertTaskTool() mcp.Tool {
	return mcp.NewTool("insert_task",
		mcp.WithDescription("Insert a task as a new sequence right after the given one. Tasks of the following sequence then depend on it."),
		taskIDParam(),
		mcp.WithNumber("after_sequence",
			mcp.Description("Sequence to insert after; 0 inserts before the first"),
			mcp.Required(),
		),
	)
}

func insertTaskHandler(b Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := req.GetString("task_id", "")
		cmd := commands.NewInsertTaskCommand(b.Workspace, id, req.GetInt("after_sequence", 0))
		return sequenceChange(cmd.Execute(ctx))
	}
}

// --- reorder_task ---

func reorderTaskTool() mcp.Tool {
	return mcp.NewTool("reorder_task",
		mcp.WithDescription("Change the position of a task within its sequence by updating ordinals."),
		taskIDParam(),
		mcp.WithNumber("position",
			mcp.Description("New position within the sequence, 0-based"),
			mcp.Required(),
		),
	)
}

func reorderTaskHandler(b Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := req.GetString("task_id", "")
		cmd := commands.NewReorderTaskCommand(b.Workspace, id, req.GetInt("position", 0))
		return sequenceChange(cmd.Execute(ctx))
	}
}

// --- demote_task ---

func demoteTaskTool() mcp.Tool {
	return mcp.NewTool("demote_task",
		mcp.WithDescription("Take a task out of the sequences. Only allowed when no task depends on it and it has no dependencies of its own."),
		taskIDParam(),
	)
}

func demoteTaskHandler(b Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := req.GetString("task_id", "")
		return sequenceChange(commands.NewDemoteTaskCommand(b.Workspace, id).Execute(ctx))
	}
}

// --- rebalance_sequence ---

func rebalanceSequenceTool() mcp.Tool {
	return mcp.NewTool("rebalance_sequence",
		mcp.WithDescription("Repair missing or out-of-order ordinals of a sequence. With force every task is renumbered."),
		mcp.WithNumber("sequence",
			mcp.Description("Sequence to rebalance, 1-based"),
			mcp.Required(),
		),
		mcp.WithBoolean("force",
			mcp.Description("Renumber every task of the sequence"),
		),
	)
}

func rebalanceSequenceHandler(b Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewRebalanceCommand(b.Workspace, req.GetInt("sequence", 0), req.GetBool("force", false))
		return sequenceChange(cmd.Execute(ctx))
	}
}

func sequenceChange(result *commands.SequenceChangeResult, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(result.Message + "\n\n" + formatSequences(result.Sequences)), nil
}
