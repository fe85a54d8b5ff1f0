package ports

import (
	"context"
	"time"
)

// GitOperations is the read-only view of the project repository needed to
// discover and fetch task copies on other branches
type GitOperations interface {
	// Fetch updates remote-tracking refs from every configured remote
	Fetch(ctx context.Context) error

	// HasAnyRemote reports whether at least one remote is configured
	HasAnyRemote(ctx context.Context) (bool, error)

	// ListRecentRemoteBranches returns short names (without "origin/") of
	// remote branches whose tip commit is newer than days ago
	ListRecentRemoteBranches(ctx context.Context, days int) ([]string, error)

	// ListRecentBranches returns local branch names and origin/<name>
	// remote-tracking names whose tip commit is newer than days ago
	ListRecentBranches(ctx context.Context, days int) ([]string, error)

	// GetCurrentBranch returns the checked-out branch, "" when HEAD is detached
	GetCurrentBranch(ctx context.Context) (string, error)

	// ListFilesInTree lists file paths under dir at ref, without reading content
	ListFilesInTree(ctx context.Context, ref, dir string) ([]string, error)

	// GetBranchLastModifiedMap maps each file under dir at ref to the time of
	// the newest commit that touched it
	GetBranchLastModifiedMap(ctx context.Context, ref, dir string) (map[string]time.Time, error)

	// GetBlobHashes maps each file under dir at ref to the hash of its
	// content blob
	GetBlobHashes(ctx context.Context, ref, dir string) (map[string]string, error)

	// ShowFile returns the content of path at ref
	ShowFile(ctx context.Context, ref, path string) (string, error)
}
