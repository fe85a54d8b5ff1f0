package reconcile

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"backlog/internal/domain"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return base.AddDate(0, 0, n)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFile struct {
	content  string
	modified time.Time
}

// fakeGit serves trees keyed by ref and records what was read
type fakeGit struct {
	mu sync.Mutex

	remotes        bool
	current        string
	remoteBranches []string
	recentBranches []string
	trees          map[string]map[string]fakeFile

	fetchErr  error
	failList  map[string]bool
	failShow  map[string]bool
	noModTime map[string]bool

	fetches int
	shown   []string
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		remotes:   true,
		current:   "main",
		trees:     map[string]map[string]fakeFile{},
		failList:  map[string]bool{},
		failShow:  map[string]bool{},
		noModTime: map[string]bool{},
	}
}

func (f *fakeGit) put(ref, path, content string, modified time.Time) {
	if f.trees[ref] == nil {
		f.trees[ref] = map[string]fakeFile{}
	}
	f.trees[ref][path] = fakeFile{content: content, modified: modified}
}

func (f *fakeGit) Fetch(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.fetchErr
}

func (f *fakeGit) HasAnyRemote(ctx context.Context) (bool, error) {
	return f.remotes, nil
}

func (f *fakeGit) ListRecentRemoteBranches(ctx context.Context, days int) ([]string, error) {
	return f.remoteBranches, nil
}

func (f *fakeGit) ListRecentBranches(ctx context.Context, days int) ([]string, error) {
	return f.recentBranches, nil
}

func (f *fakeGit) GetCurrentBranch(ctx context.Context) (string, error) {
	return f.current, nil
}

func (f *fakeGit) tree(ref string) (map[string]fakeFile, error) {
	if f.failList[ref] {
		return nil, errors.New("broken ref")
	}
	tree, ok := f.trees[ref]
	if !ok {
		return nil, fmt.Errorf("unknown ref %s", ref)
	}
	return tree, nil
}

func (f *fakeGit) ListFilesInTree(ctx context.Context, ref, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree, err := f.tree(ref)
	if err != nil {
		return nil, err
	}
	var files []string
	for p := range tree {
		if strings.HasPrefix(p, dir+"/") {
			files = append(files, p)
		}
	}
	slices.Sort(files)
	return files, nil
}

func (f *fakeGit) GetBranchLastModifiedMap(ctx context.Context, ref, dir string) (map[string]time.Time, error) {
	tree, err := f.tree(ref)
	if err != nil {
		return nil, err
	}
	out := map[string]time.Time{}
	for p, file := range tree {
		if strings.HasPrefix(p, dir+"/") && !f.noModTime[p] {
			out[p] = file.modified
		}
	}
	return out, nil
}

func (f *fakeGit) GetBlobHashes(ctx context.Context, ref, dir string) (map[string]string, error) {
	tree, err := f.tree(ref)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for p, file := range tree {
		if strings.HasPrefix(p, dir+"/") {
			out[p] = blobHash(file.content)
		}
	}
	return out, nil
}

func blobHash(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (f *fakeGit) ShowFile(ctx context.Context, ref, path string) (string, error) {
	f.mu.Lock()
	f.shown = append(f.shown, ref+":"+path)
	f.mu.Unlock()

	if f.failShow[path] {
		return "", errors.New("object not found")
	}
	tree, err := f.tree(ref)
	if err != nil {
		return "", err
	}
	file, ok := tree[path]
	if !ok {
		return "", fmt.Errorf("%s not in %s", path, ref)
	}
	return file.content, nil
}

func (f *fakeGit) shownSorted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.shown)
	slices.Sort(out)
	return out
}

// fakeParser reads "key: value" lines; content starting with "!" is invalid
type fakeParser struct{}

func (fakeParser) Parse(raw string) (domain.Task, error) {
	if strings.HasPrefix(raw, "!") {
		return domain.Task{}, errors.New("malformed frontmatter")
	}
	var t domain.Task
	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "title":
			t.Title = value
		case "status":
			t.Status = value
		}
	}
	return t, nil
}

func (fakeParser) Serialize(t domain.Task) (string, error) {
	return fmt.Sprintf("title: %s\nstatus: %s\n", t.Title, t.Status), nil
}

// mapCache is an in-memory ContentCache
type mapCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]string{}}
}

func (c *mapCache) Get(ctx context.Context, blob string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[blob]
	return v, ok, nil
}

func (c *mapCache) Put(ctx context.Context, blob, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[blob] = content
	return nil
}
