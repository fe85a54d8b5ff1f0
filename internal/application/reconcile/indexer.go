package reconcile

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"backlog/internal/domain"
	"backlog/internal/ports"
)

// RefFunc maps a branch name to the git ref its files are read from
type RefFunc func(branch string) string

// RemoteRef reads a branch through its origin remote-tracking ref
func RemoteRef(branch string) string {
	return "origin/" + branch
}

// LocalRef reads a local branch directly
func LocalRef(branch string) string {
	return branch
}

type branchScan struct {
	files    []string
	modified map[string]time.Time
	blobs    map[string]string
	ok       bool
}

// BuildBranchIndex lists task files on every branch concurrently and maps
// task IDs to their copies. File contents are never read. A branch whose
// scan fails is logged and left out; only cancellation aborts the build.
func BuildBranchIndex(
	ctx context.Context,
	git ports.GitOperations,
	branches []string,
	refFor RefFunc,
	dir string,
	logger *slog.Logger,
) (domain.BranchIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}

	scans := make([]branchScan, len(branches))
	g, gctx := errgroup.WithContext(ctx)
	for i, branch := range branches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ref := refFor(branch)

			files, err := git.ListFilesInTree(gctx, ref, dir)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("list task files failed", "branch", branch, "ref", ref, "error", err)
				return nil
			}
			modified, err := git.GetBranchLastModifiedMap(gctx, ref, dir)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("read task timestamps failed", "branch", branch, "ref", ref, "error", err)
				return nil
			}

			// without blob hashes the copies are still usable, only uncached
			blobs, err := git.GetBlobHashes(gctx, ref, dir)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Debug("read task blob hashes failed", "branch", branch, "ref", ref, "error", err)
			}

			scans[i] = branchScan{files: files, modified: modified, blobs: blobs, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := make(domain.BranchIndex)
	for i, scan := range scans {
		if !scan.ok {
			continue
		}
		for _, file := range scan.files {
			id, ok := domain.TaskIDFromFilename(file)
			if !ok {
				continue
			}
			index[id] = append(index[id], domain.BranchIndexEntry{
				Branch:       branches[i],
				Path:         file,
				LastModified: scan.modified[file],
				Blob:         scan.blobs[file],
			})
		}
	}
	for id := range index {
		slices.SortStableFunc(index[id], func(a, b domain.BranchIndexEntry) int {
			return strings.Compare(a.Branch, b.Branch)
		})
	}
	return index, nil
}

// LocalBranches drops remote-tracking names ("origin", "origin/*") and the
// current branch
func LocalBranches(branches []string, current string) []string {
	out := make([]string, 0, len(branches))
	for _, b := range localOnly(branches) {
		if b != current {
			out = append(out, b)
		}
	}
	return out
}

func localOnly(branches []string) []string {
	out := make([]string, 0, len(branches))
	for _, b := range branches {
		if b == "origin" || strings.HasPrefix(b, "origin/") {
			continue
		}
		out = append(out, b)
	}
	return out
}
