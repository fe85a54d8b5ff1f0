package commands

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backlog/internal/application"
	"backlog/internal/application/reconcile"
	"backlog/internal/config"
	"backlog/internal/domain"
)

func branchCopy(id, status, branch string, source domain.Source, modified time.Time) domain.Task {
	return domain.Task{ID: id, Title: id + " from " + branch, Status: status, Source: source, Branch: branch, LastModified: modified}
}

func TestListTasksCommand(t *testing.T) {
	repo := newMemRepo(task("task-10"), task("task-2"), task("task-1"))

	tasks, err := NewListTasksCommand(repo).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"task-1", "task-2", "task-10"}, taskIDsOf(tasks))
}

func TestLoadBranchTasksCommand_Scopes(t *testing.T) {
	repo := newMemRepo(task("task-1"))
	loader := &stubLoader{
		remote: []domain.Task{branchCopy("task-2", "To Do", "feature", domain.SourceRemote, fixedNow)},
		branch: []domain.Task{
			branchCopy("task-2", "Done", "spike", domain.SourceLocalBranch, fixedNow),
			branchCopy("task-3", "To Do", "spike", domain.SourceLocalBranch, fixedNow),
		},
	}
	cfg := config.DefaultConfig()

	remote, err := NewLoadBranchTasksCommand(repo, loader, cfg, ScopeRemote).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"task-2"}, taskIDsOf(remote))

	all, err := NewLoadBranchTasksCommand(repo, loader, cfg, ScopeAll).Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"task-2", "task-3"}, taskIDsOf(all))
	assert.Equal(t, "spike", all[0].Branch, "Done outranks To Do")

	merge := NewLoadBranchTasksCommand(repo, loader, cfg, ScopeAll)
	merge.Merge = true
	merged, err := merge.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"task-1", "task-2", "task-3"}, taskIDsOf(merged))
	assert.Equal(t, domain.SourceLocal, merged[0].Source)
}

func TestLoadBranchTasksCommand_Progress(t *testing.T) {
	var messages []string
	cmd := NewLoadBranchTasksCommand(newMemRepo(), &stubLoader{}, config.DefaultConfig(), ScopeRemote)
	cmd.OnProgress = func(msg string) { messages = append(messages, msg) }

	_, err := cmd.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"remote"}, messages)
}

func TestLoadBranchTasksCommand_Cancelled(t *testing.T) {
	loader := &stubLoader{err: reconcile.ErrCancelled}

	_, err := NewLoadBranchTasksCommand(newMemRepo(), loader, config.DefaultConfig(), ScopeAll).Execute(context.Background())

	assert.ErrorIs(t, err, reconcile.ErrCancelled)
}

func TestAdoptTaskCommand_NewTask(t *testing.T) {
	ws, repo, _ := newTestWorkspace(task("task-1"))
	loader := &stubLoader{
		remote: []domain.Task{branchCopy("task-7", "In Progress", "feature", domain.SourceRemote, fixedNow)},
	}

	res, err := NewAdoptTaskCommand(ws, loader, config.DefaultConfig(), "7").Execute(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Adopted)
	assert.Equal(t, "Adopted task-7 from feature", res.Message)
	saved := repo.get("task-7")
	assert.Equal(t, domain.SourceLocal, saved.Source)
	assert.Empty(t, saved.Branch)
	assert.Equal(t, "task-7 from feature", saved.Title)
	assert.NotEmpty(t, saved.FilePath)
}

func TestAdoptTaskCommand_ReplacesLocalCopy(t *testing.T) {
	ws, repo, _ := newTestWorkspace(task("task-1"))
	path := repo.get("task-1").FilePath
	loader := &stubLoader{
		branch: []domain.Task{branchCopy("task-1", "Done", "spike", domain.SourceLocalBranch, fixedNow)},
	}

	res, err := NewAdoptTaskCommand(ws, loader, config.DefaultConfig(), "task-1").Execute(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Adopted)
	assert.Equal(t, "Done", repo.get("task-1").Status)
	assert.Equal(t, path, repo.get("task-1").FilePath, "written over the existing file")
}

func TestAdoptTaskCommand_LocalAlreadyCurrent(t *testing.T) {
	local := task("task-1")
	local.Status = "Done"
	ws, repo, _ := newTestWorkspace(local)
	loader := &stubLoader{
		remote: []domain.Task{branchCopy("task-1", "To Do", "feature", domain.SourceRemote, fixedNow)},
	}

	res, err := NewAdoptTaskCommand(ws, loader, config.DefaultConfig(), "task-1").Execute(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Adopted)
	assert.Empty(t, repo.savedIDs())
}

func TestAdoptTaskCommand_NotOnAnyBranch(t *testing.T) {
	ws, _, _ := newTestWorkspace(task("task-1"))

	_, err := NewAdoptTaskCommand(ws, &stubLoader{}, config.DefaultConfig(), "task-9").Execute(context.Background())

	assert.ErrorIs(t, err, application.ErrNotFound)
}
