// Package project wires the adapters of one backlog project together for the
// command line and MCP entry points.
package project

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"backlog/internal/adapters/editor"
	"backlog/internal/adapters/filesystem"
	"backlog/internal/adapters/git"
	"backlog/internal/adapters/lock"
	"backlog/internal/adapters/markdown"
	"backlog/internal/adapters/sqlite"
	"backlog/internal/application/commands"
	"backlog/internal/application/reconcile"
	"backlog/internal/config"
	"backlog/internal/domain"
	"backlog/internal/ports"
)

const (
	cachePruneInterval = 24 * time.Hour
	cacheMaxAge        = 30 * 24 * time.Hour
)

// Project holds the wired adapters of one project root
type Project struct {
	Root      string
	Config    *config.Config
	Repo      *filesystem.Repository
	Workspace *commands.Workspace
	Loader    commands.BranchLoader
	Editor    *editor.Opener

	logger  *slog.Logger
	closers []func() error
}

// Open loads the configuration of root and connects every adapter.
// A missing git repository or cache degrades instead of failing.
func Open(ctx context.Context, root string, logger *slog.Logger) (*Project, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	p := &Project{Root: root, Config: cfg, logger: logger}

	parser := markdown.NewParser()
	p.Repo = filesystem.NewRepository(root, cfg.BacklogDir, parser)
	p.Editor = editor.NewOpener(cfg.Editor)

	var locker ports.Locker = lock.NewMemory()
	if cfg.RedisURL != "" {
		redisLock, err := lock.NewRedisFromURL(cfg.RedisURL, logger)
		if err != nil {
			return nil, err
		}
		logger.Debug("using redis lock", "url", cfg.RedisURL)
		locker = redisLock
		p.closers = append(p.closers, redisLock.Close)
	}
	p.Workspace = commands.NewWorkspace(p.Repo, locker, root)
	p.Workspace.Step = cfg.DefaultOrdinalStep

	gitRepo, err := git.Open(root)
	if err != nil {
		logger.Debug("git unavailable", "root", root, "error", err)
		p.Loader = unavailableLoader{err: err, logger: logger}
		return p, nil
	}

	opts := []reconcile.LoaderOption{
		reconcile.WithLogger(logger),
		reconcile.WithConcurrency(cfg.HydrateConcurrency),
	}
	if cache := p.openCache(ctx); cache != nil {
		opts = append(opts, reconcile.WithCache(cache))
	}
	p.Loader = reconcile.NewLoader(gitRepo, parser, opts...)
	return p, nil
}

func (p *Project) openCache(ctx context.Context) *sqlite.Cache {
	cache, err := sqlite.Open(p.Root)
	if err != nil {
		p.logger.Warn("hydration cache unavailable", "error", err)
		return nil
	}
	p.closers = append(p.closers, cache.Close)

	pruned, err := cache.PruneIfDue(ctx, cachePruneInterval, cacheMaxAge)
	if err != nil {
		p.logger.Warn("prune hydration cache", "error", err)
	} else if pruned > 0 {
		p.logger.Debug("pruned hydration cache", "entries", pruned, "path", cache.Path())
	}
	return cache
}

// Close releases every connection opened by Open
func (p *Project) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

// unavailableLoader stands in when the project is not inside a git
// repository. There are no branches to reconcile, so callers keep their
// local backlog.
type unavailableLoader struct {
	err    error
	logger *slog.Logger
}

func (l unavailableLoader) LoadRemoteTasks(context.Context, *config.Config, reconcile.ProgressFunc, []domain.Task) ([]domain.Task, error) {
	l.logger.Debug("skipping remote tasks", "reason", l.err)
	return []domain.Task{}, nil
}

func (l unavailableLoader) LoadLocalBranchTasks(context.Context, *config.Config, reconcile.ProgressFunc, []domain.Task) ([]domain.Task, error) {
	l.logger.Debug("skipping branch tasks", "reason", l.err)
	return []domain.Task{}, nil
}
