package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "backlog/internal/adapters/mcp"
	"backlog/internal/config"
	"backlog/internal/project"
)

func main() {
	defaultRoot, err := config.ProjectRoot()
	if err != nil {
		defaultRoot = "."
	}
	rootFlag := flag.String("root", defaultRoot, "project root containing the backlog directory")
	verboseFlag := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	// stdout carries the protocol, so logs go to stderr
	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, err := project.Open(ctx, *rootFlag, logger)
	if err != nil {
		logger.Error("open project", "root", *rootFlag, "error", err)
		os.Exit(1)
	}
	defer p.Close()

	mcpServer := server.NewMCPServer(
		"backlog-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	backend := mcpadapter.Backend{
		Workspace: p.Workspace,
		Loader:    p.Loader,
		Config:    p.Config,
	}
	mcpadapter.RegisterReadTools(mcpServer, backend)
	mcpadapter.RegisterWriteTools(mcpServer, backend)

	logger.Info("serving backlog over stdio", "root", p.Root)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error("backlog-mcp", "error", err)
		p.Close()
		os.Exit(1)
	}
}
