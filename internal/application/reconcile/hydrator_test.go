package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backlog/internal/domain"
)

func TestHydrate_OnlyWinnersFetched(t *testing.T) {
	git := newFakeGit()
	git.put("origin/a", "backlog/tasks/task-1 - A.md", "title: From A\nstatus: Done", day(1))
	git.put("origin/a", "backlog/tasks/task-2 - B.md", "title: Not a winner", day(1))
	git.put("origin/b", "backlog/tasks/task-3 - C.md", "title: From B\nstatus: To Do", day(2))

	winners := []domain.Winner{
		{ID: "task-3", Branch: "b", Ref: "origin/b", Path: "backlog/tasks/task-3 - C.md", LastModified: day(2)},
		{ID: "task-1", Branch: "a", Ref: "origin/a", Path: "backlog/tasks/task-1 - A.md", LastModified: day(1)},
	}

	h := NewHydrator(git, fakeParser{}, nil, discardLogger(), 2)
	tasks, err := h.Hydrate(context.Background(), winners, domain.SourceRemote)
	require.NoError(t, err)

	require.Len(t, tasks, 2)
	assert.Equal(t, domain.Task{
		ID:           "task-1",
		Title:        "From A",
		Status:       "Done",
		Source:       domain.SourceRemote,
		Branch:       "a",
		LastModified: day(1),
	}, tasks[0])
	assert.Equal(t, "task-3", tasks[1].ID)
	assert.Equal(t, []string{
		"origin/a:backlog/tasks/task-1 - A.md",
		"origin/b:backlog/tasks/task-3 - C.md",
	}, git.shownSorted())
}

func TestHydrate_SkipsFailures(t *testing.T) {
	git := newFakeGit()
	git.put("x", "backlog/tasks/task-1 - A.md", "title: ok", day(1))
	git.put("x", "backlog/tasks/task-2 - B.md", "!broken", day(1))
	git.put("x", "backlog/tasks/task-3 - C.md", "title: unreachable", day(1))
	git.failShow["backlog/tasks/task-3 - C.md"] = true

	winners := []domain.Winner{
		{ID: "task-1", Branch: "x", Ref: "x", Path: "backlog/tasks/task-1 - A.md"},
		{ID: "task-2", Branch: "x", Ref: "x", Path: "backlog/tasks/task-2 - B.md"},
		{ID: "task-3", Branch: "x", Ref: "x", Path: "backlog/tasks/task-3 - C.md"},
	}

	tasks, err := NewHydrator(git, fakeParser{}, nil, discardLogger(), 0).Hydrate(context.Background(), winners, domain.SourceLocalBranch)
	require.NoError(t, err)

	require.Len(t, tasks, 1)
	assert.Equal(t, "task-1", tasks[0].ID)
	assert.Equal(t, domain.SourceLocalBranch, tasks[0].Source)
}

func TestHydrate_CacheAvoidsRefetch(t *testing.T) {
	git := newFakeGit()
	git.put("x", "backlog/tasks/task-1 - A.md", "title: cached", day(1))
	git.put("x", "backlog/tasks/task-2 - B.md", "title: unhashed", day(1))
	cache := newMapCache()

	winners := []domain.Winner{
		{ID: "task-1", Branch: "x", Ref: "x", Path: "backlog/tasks/task-1 - A.md", LastModified: day(1), Blob: blobHash("title: cached")},
		{ID: "task-2", Branch: "x", Ref: "x", Path: "backlog/tasks/task-2 - B.md", LastModified: day(1)},
	}
	h := NewHydrator(git, fakeParser{}, cache, discardLogger(), 1)

	_, err := h.Hydrate(context.Background(), winners, domain.SourceLocalBranch)
	require.NoError(t, err)
	second, err := h.Hydrate(context.Background(), winners, domain.SourceLocalBranch)
	require.NoError(t, err)

	assert.Equal(t, "cached", second[0].Title)
	assert.Equal(t, []string{
		"x:backlog/tasks/task-1 - A.md",
		"x:backlog/tasks/task-2 - B.md",
		"x:backlog/tasks/task-2 - B.md",
	}, git.shownSorted(), "winners without a blob hash bypass the cache")
}

func TestHydrate_CacheMissesRewrittenContentWithSameTimestamp(t *testing.T) {
	git := newFakeGit()
	path := "backlog/tasks/task-1 - A.md"
	git.put("origin/x", path, "title: before amend", day(1))
	cache := newMapCache()
	h := NewHydrator(git, fakeParser{}, cache, discardLogger(), 1)

	first, err := h.Hydrate(context.Background(), []domain.Winner{
		{ID: "task-1", Branch: "x", Ref: "origin/x", Path: path, LastModified: day(1), Blob: blobHash("title: before amend")},
	}, domain.SourceRemote)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "before amend", first[0].Title)

	// force-pushed within the same second: same ref, path and commit time
	git.put("origin/x", path, "title: after amend", day(1))
	second, err := h.Hydrate(context.Background(), []domain.Winner{
		{ID: "task-1", Branch: "x", Ref: "origin/x", Path: path, LastModified: day(1), Blob: blobHash("title: after amend")},
	}, domain.SourceRemote)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "after amend", second[0].Title)
	assert.Len(t, git.shownSorted(), 2)
}

func TestHydrate_Cancelled(t *testing.T) {
	git := newFakeGit()
	git.put("x", "backlog/tasks/task-1 - A.md", "title: a", day(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHydrator(git, fakeParser{}, nil, discardLogger(), 1).Hydrate(ctx, []domain.Winner{
		{ID: "task-1", Ref: "x", Path: "backlog/tasks/task-1 - A.md"},
	}, domain.SourceRemote)

	assert.ErrorIs(t, err, context.Canceled)
}
