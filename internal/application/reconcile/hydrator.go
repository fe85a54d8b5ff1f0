package reconcile

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"backlog/internal/domain"
	"backlog/internal/ports"
)

// DefaultHydrateConcurrency bounds concurrent ShowFile calls
const DefaultHydrateConcurrency = 8

// Hydrator fetches and parses the winning copies of tasks
type Hydrator struct {
	git         ports.GitOperations
	parser      ports.TaskParser
	cache       ports.ContentCache
	logger      *slog.Logger
	concurrency int
}

// NewHydrator creates a hydrator. cache may be nil.
func NewHydrator(git ports.GitOperations, parser ports.TaskParser, cache ports.ContentCache, logger *slog.Logger, concurrency int) *Hydrator {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = DefaultHydrateConcurrency
	}
	return &Hydrator{
		git:         git,
		parser:      parser,
		cache:       cache,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Hydrate fetches each winner, parses it and stamps it with source, branch
// and the index timestamp. A winner that cannot be fetched or parsed is
// logged and skipped. The result is sorted by ID.
func (h *Hydrator) Hydrate(ctx context.Context, winners []domain.Winner, source domain.Source) ([]domain.Task, error) {
	results := make([]*domain.Task, len(winners))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i, w := range winners {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := h.content(gctx, w)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				h.logger.Warn("fetch task failed", "id", w.ID, "ref", w.Ref, "path", w.Path, "error", err)
				return nil
			}

			task, err := h.parser.Parse(raw)
			if err != nil {
				h.logger.Warn("parse task failed", "id", w.ID, "ref", w.Ref, "path", w.Path, "error", err)
				return nil
			}
			task.ID = w.ID
			task.Source = source
			task.Branch = w.Branch
			task.LastModified = w.LastModified
			task.FilePath = ""
			results[i] = &task
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tasks := make([]domain.Task, 0, len(results))
	for _, t := range results {
		if t != nil {
			tasks = append(tasks, *t)
		}
	}
	domain.SortTasksByID(tasks)
	return tasks, nil
}

// content reads through the cache when one is configured. Winners without a
// blob hash bypass it.
func (h *Hydrator) content(ctx context.Context, w domain.Winner) (string, error) {
	useCache := h.cache != nil && w.Blob != ""
	if useCache {
		raw, ok, err := h.cache.Get(ctx, w.Blob)
		if err != nil {
			h.logger.Debug("cache read failed", "ref", w.Ref, "path", w.Path, "error", err)
		} else if ok {
			return raw, nil
		}
	}

	raw, err := h.git.ShowFile(ctx, w.Ref, w.Path)
	if err != nil {
		return "", err
	}

	if useCache {
		if err := h.cache.Put(ctx, w.Blob, raw); err != nil {
			h.logger.Debug("cache write failed", "ref", w.Ref, "path", w.Path, "error", err)
		}
	}
	return raw, nil
}
