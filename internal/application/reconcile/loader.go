package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"backlog/internal/config"
	"backlog/internal/domain"
	"backlog/internal/ports"
)

// ErrCancelled is returned, wrapping the context error, when a load is
// cancelled. Every other failure degrades to an empty result.
var ErrCancelled = errors.New("task reconciliation cancelled")

// ProgressFunc receives human-readable progress messages
type ProgressFunc func(msg string)

// Loader loads task copies from other branches
type Loader struct {
	git      ports.GitOperations
	hydrator *Hydrator
	logger   *slog.Logger
}

// LoaderOption configures a Loader
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	cache       ports.ContentCache
	logger      *slog.Logger
	concurrency int
}

// WithCache reuses fetched content across loads
func WithCache(cache ports.ContentCache) LoaderOption {
	return func(o *loaderOptions) { o.cache = cache }
}

// WithLogger sets the logger, slog.Default() otherwise
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(o *loaderOptions) { o.logger = logger }
}

// WithConcurrency bounds concurrent file fetches during hydration
func WithConcurrency(n int) LoaderOption {
	return func(o *loaderOptions) { o.concurrency = n }
}

// NewLoader creates a loader over a repository and a task parser
func NewLoader(git ports.GitOperations, parser ports.TaskParser, opts ...LoaderOption) *Loader {
	o := loaderOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Loader{
		git:      git,
		hydrator: NewHydrator(git, parser, o.cache, o.logger, o.concurrency),
		logger:   o.logger,
	}
}

// LoadRemoteTasks fetches from the remote and hydrates the winning copy of
// every task found on recently active remote branches.
//
// When localTasks is nil the newest copy of each task wins outright.
// Otherwise only copies newer than their local counterpart are loaded; the
// caller settles the rest with MergeTasks.
func (l *Loader) LoadRemoteTasks(ctx context.Context, cfg *config.Config, onProgress ProgressFunc, localTasks []domain.Task) ([]domain.Task, error) {
	progress := sink(onProgress)

	if !cfg.RemoteOperations {
		progress("Remote operations are disabled, skipping remote tasks")
		return []domain.Task{}, nil
	}

	hasRemote, err := l.git.HasAnyRemote(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		l.logger.Warn("list remotes failed", "error", err)
		return []domain.Task{}, nil
	}
	if !hasRemote {
		progress("No remote configured, skipping remote tasks")
		return []domain.Task{}, nil
	}

	if ctx.Err() != nil {
		return nil, cancelled(ctx)
	}
	progress("Fetching remote branches...")
	if err := l.git.Fetch(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		l.logger.Warn("fetch failed", "error", err)
		progress(fmt.Sprintf("Fetch failed: %v", err))
		return []domain.Task{}, nil
	}

	branches, err := l.git.ListRecentRemoteBranches(ctx, cfg.ActiveBranchDays)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		l.logger.Warn("list remote branches failed", "error", err)
		return []domain.Task{}, nil
	}
	if len(branches) == 0 {
		progress("No recently active remote branches")
		return []domain.Task{}, nil
	}
	progress(fmt.Sprintf("Scanning %d remote branches", len(branches)))

	return l.load(ctx, cfg, progress, branches, RemoteRef, domain.SourceRemote, localTasks)
}

// LoadLocalBranchTasks hydrates the winning copy of every task found on
// other recently active local branches. The current branch is skipped, and
// nothing is loaded from a detached HEAD.
func (l *Loader) LoadLocalBranchTasks(ctx context.Context, cfg *config.Config, onProgress ProgressFunc, localTasks []domain.Task) ([]domain.Task, error) {
	progress := sink(onProgress)

	current, err := l.git.GetCurrentBranch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		l.logger.Warn("read current branch failed", "error", err)
		return []domain.Task{}, nil
	}
	if current == "" {
		progress("Detached HEAD, skipping local branches")
		return []domain.Task{}, nil
	}

	recent, err := l.git.ListRecentBranches(ctx, cfg.ActiveBranchDays)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		l.logger.Warn("list local branches failed", "error", err)
		return []domain.Task{}, nil
	}
	if len(localOnly(recent)) <= 1 {
		progress("No other local branches")
		return []domain.Task{}, nil
	}
	branches := LocalBranches(recent, current)
	if len(branches) == 0 {
		progress("No other local branches")
		return []domain.Task{}, nil
	}
	progress(fmt.Sprintf("Scanning %d local branches", len(branches)))

	return l.load(ctx, cfg, progress, branches, LocalRef, domain.SourceLocalBranch, localTasks)
}

func (l *Loader) load(
	ctx context.Context,
	cfg *config.Config,
	progress ProgressFunc,
	branches []string,
	refFor RefFunc,
	source domain.Source,
	localTasks []domain.Task,
) ([]domain.Task, error) {
	index, err := BuildBranchIndex(ctx, l.git, branches, refFor, cfg.TasksDir(), l.logger)
	if err != nil {
		return nil, cancelled(ctx)
	}
	if len(index) == 0 {
		progress("No tasks found on other branches")
		return []domain.Task{}, nil
	}

	var winners []domain.Winner
	if localTasks == nil {
		winners = SelectLatest(index, refFor)
	} else {
		winners = FilterCandidates(domain.IndexTasks(localTasks), index, cfg.Strategy(), refFor)
	}
	progress(fmt.Sprintf("Loading %d of %d tasks", len(winners), len(index)))
	if len(winners) == 0 {
		return []domain.Task{}, nil
	}

	if ctx.Err() != nil {
		return nil, cancelled(ctx)
	}
	tasks, err := l.hydrator.Hydrate(ctx, winners, source)
	if err != nil {
		return nil, cancelled(ctx)
	}
	l.logger.Debug("hydrated branch tasks", "source", source, "branches", len(branches), "winners", len(winners), "loaded", len(tasks))
	return tasks, nil
}

// cancelled wraps the context error so callers can match either
// ErrCancelled or context.Canceled / context.DeadlineExceeded
func cancelled(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		err = context.Canceled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}

func sink(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return func(string) {}
	}
	return fn
}
