package git

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"backlog/internal/ports"
)

const remoteName = "origin"

// Repository implements ports.GitOperations on top of go-git
type Repository struct {
	repo *gogit.Repository
	now  func() time.Time
}

// Ensure Repository implements GitOperations
var _ ports.GitOperations = (*Repository)(nil)

// Open opens the repository containing dir
func Open(dir string) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repo %s: %w", dir, err)
	}
	return New(repo), nil
}

// New wraps an already opened repository
func New(repo *gogit.Repository) *Repository {
	return &Repository{repo: repo, now: time.Now}
}

func (r *Repository) Fetch(ctx context.Context) error {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return fmt.Errorf("list remotes: %w", err)
	}

	for _, remote := range remotes {
		err := remote.FetchContext(ctx, &gogit.FetchOptions{})
		if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			return fmt.Errorf("fetch %s: %w", remote.Config().Name, err)
		}
	}
	return nil
}

func (r *Repository) HasAnyRemote(ctx context.Context) (bool, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return false, fmt.Errorf("list remotes: %w", err)
	}
	return len(remotes) > 0, nil
}

func (r *Repository) ListRecentRemoteBranches(ctx context.Context, days int) ([]string, error) {
	prefix := "refs/remotes/" + remoteName + "/"
	cutoff := r.cutoff(days)

	var branches []string
	err := r.eachRef(ctx, func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		short := strings.TrimPrefix(name, prefix)
		if short == "HEAD" {
			return nil
		}
		recent, err := r.committedAfter(ref.Hash(), cutoff)
		if err != nil {
			return err
		}
		if recent {
			branches = append(branches, short)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(branches)
	return branches, nil
}

func (r *Repository) ListRecentBranches(ctx context.Context, days int) ([]string, error) {
	remotePrefix := "refs/remotes/" + remoteName + "/"
	cutoff := r.cutoff(days)

	var branches []string
	err := r.eachRef(ctx, func(ref *plumbing.Reference) error {
		var name string
		switch n := ref.Name(); {
		case n.IsBranch():
			name = n.Short()
		case strings.HasPrefix(n.String(), remotePrefix) && !strings.HasSuffix(n.String(), "/HEAD"):
			name = remoteName + "/" + strings.TrimPrefix(n.String(), remotePrefix)
		default:
			return nil
		}
		recent, err := r.committedAfter(ref.Hash(), cutoff)
		if err != nil {
			return err
		}
		if recent {
			branches = append(branches, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(branches)
	return branches, nil
}

func (r *Repository) GetCurrentBranch(ctx context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", nil
	}
	return head.Name().Short(), nil
}

func (r *Repository) ListFilesInTree(ctx context.Context, ref, dir string) ([]string, error) {
	commit, err := r.commitAt(ref)
	if err != nil {
		return nil, err
	}
	blobs, err := dirBlobs(commit, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s at %s: %w", dir, ref, err)
	}

	files := make([]string, 0, len(blobs))
	for p := range blobs {
		files = append(files, p)
	}
	slices.Sort(files)
	return files, nil
}

// GetBranchLastModifiedMap walks history newest first and stamps each file
// with the first commit whose blob differs from its first parent's
func (r *Repository) GetBranchLastModifiedMap(ctx context.Context, ref, dir string) (map[string]time.Time, error) {
	tip, err := r.commitAt(ref)
	if err != nil {
		return nil, err
	}
	current, err := dirBlobs(tip, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s at %s: %w", dir, ref, err)
	}

	modified := make(map[string]time.Time, len(current))
	if len(current) == 0 {
		return modified, nil
	}

	iter, err := r.repo.Log(&gogit.LogOptions{From: tip.Hash, Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("log %s: %w", ref, err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		blobs, err := dirBlobs(c, dir)
		if err != nil {
			return err
		}
		var parent map[string]plumbing.Hash
		if c.NumParents() > 0 {
			p, err := c.Parent(0)
			if err != nil {
				return fmt.Errorf("parent of %s: %w", c.Hash, err)
			}
			if parent, err = dirBlobs(p, dir); err != nil {
				return err
			}
		}

		for file, hash := range blobs {
			if _, tracked := current[file]; !tracked {
				continue
			}
			if _, done := modified[file]; done {
				continue
			}
			if prev, ok := parent[file]; !ok || prev != hash {
				modified[file] = c.Committer.When
			}
		}
		if len(modified) == len(current) {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk history of %s: %w", ref, err)
	}
	return modified, nil
}

func (r *Repository) GetBlobHashes(ctx context.Context, ref, dir string) (map[string]string, error) {
	commit, err := r.commitAt(ref)
	if err != nil {
		return nil, err
	}
	blobs, err := dirBlobs(commit, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s at %s: %w", dir, ref, err)
	}

	hashes := make(map[string]string, len(blobs))
	for p, h := range blobs {
		hashes[p] = h.String()
	}
	return hashes, nil
}

func (r *Repository) ShowFile(ctx context.Context, ref, filePath string) (string, error) {
	commit, err := r.commitAt(ref)
	if err != nil {
		return "", err
	}
	f, err := commit.File(filePath)
	if err != nil {
		return "", fmt.Errorf("read %s at %s: %w", filePath, ref, err)
	}
	content, err := f.Contents()
	if err != nil {
		return "", fmt.Errorf("read %s at %s: %w", filePath, ref, err)
	}
	return content, nil
}

func (r *Repository) cutoff(days int) time.Time {
	return r.now().AddDate(0, 0, -days)
}

func (r *Repository) eachRef(ctx context.Context, fn func(*plumbing.Reference) error) error {
	refs, err := r.repo.References()
	if err != nil {
		return fmt.Errorf("list references: %w", err)
	}
	defer refs.Close()

	return refs.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		return fn(ref)
	})
}

func (r *Repository) committedAfter(hash plumbing.Hash, cutoff time.Time) (bool, error) {
	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load commit %s: %w", hash, err)
	}
	return commit.Committer.When.After(cutoff), nil
}

func (r *Repository) commitAt(ref string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", ref, err)
	}
	return commit, nil
}

// dirBlobs maps every file below dir to its blob hash. A missing dir is empty.
func dirBlobs(c *object.Commit, dir string) (map[string]plumbing.Hash, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", c.Hash, err)
	}

	dir = strings.Trim(dir, "/")
	if dir != "" && dir != "." {
		tree, err = tree.Tree(dir)
		if errors.Is(err, object.ErrDirectoryNotFound) {
			return map[string]plumbing.Hash{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("tree %s of %s: %w", dir, c.Hash, err)
		}
	} else {
		dir = ""
	}

	blobs := make(map[string]plumbing.Hash)
	err = tree.Files().ForEach(func(f *object.File) error {
		blobs[path.Join(dir, f.Name)] = f.Hash
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blobs, nil
}
