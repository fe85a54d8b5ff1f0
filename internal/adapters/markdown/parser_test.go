package markdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backlog/internal/domain"
)

const sample = `---
id: task-12
title: Fix login redirect
status: In Progress
assignee:
  - '@alice'
created_date: '2024-01-15 10:30'
updated_date: 2024-02-01
labels: [auth, bug]
dependencies:
  - task-3
  - TASK-4
ordinal: 1500
---

## Description

Users land on /home after login.
`

func TestParse(t *testing.T) {
	task, err := NewParser().Parse(sample)
	require.NoError(t, err)

	assert.Equal(t, "task-12", task.ID)
	assert.Equal(t, "Fix login redirect", task.Title)
	assert.Equal(t, "In Progress", task.Status)
	assert.Equal(t, []string{"@alice"}, task.Assignee)
	assert.Equal(t, []string{"auth", "bug"}, task.Labels)
	assert.Equal(t, []string{"task-3", "task-4"}, task.Dependencies)
	require.NotNil(t, task.Ordinal)
	assert.Equal(t, 1500.0, *task.Ordinal)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local), task.CreatedDate)
	require.NotNil(t, task.UpdatedDate)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local), *task.UpdatedDate)
	assert.Equal(t, "## Description\n\nUsers land on /home after login.\n", task.Body)
}

func TestParse_MinimalFrontmatter(t *testing.T) {
	task, err := NewParser().Parse("---\ntitle: Bare\nassignee: bob\n---\n")
	require.NoError(t, err)

	assert.Empty(t, task.ID)
	assert.Equal(t, []string{"bob"}, task.Assignee)
	assert.Equal(t, []string{}, task.Dependencies)
	assert.Nil(t, task.Ordinal)
	assert.Nil(t, task.UpdatedDate)
	assert.True(t, task.CreatedDate.IsZero())
	assert.Empty(t, task.Body)
}

func TestParse_WindowsLineEndings(t *testing.T) {
	task, err := NewParser().Parse("---\r\nid: task-1\r\ntitle: CRLF\r\n---\r\n\r\nBody\r\n")
	require.NoError(t, err)

	assert.Equal(t, "CRLF", task.Title)
	assert.Equal(t, "Body\n", task.Body)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no frontmatter", "# Just a heading\n"},
		{"unterminated", "---\nid: task-1\n"},
		{"bad yaml", "---\nid: [task-1\n---\n"},
		{"bad date", "---\ncreated_date: yesterday\n---\n"},
		{"map as list", "---\nlabels: {a: b}\n---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestParse_NoFrontmatterSentinel(t *testing.T) {
	_, err := NewParser().Parse("plain text")
	assert.ErrorIs(t, err, ErrNoFrontmatter)
}

func TestSerialize(t *testing.T) {
	updated := time.Date(2024, 3, 2, 14, 5, 0, 0, time.Local)
	task := domain.Task{
		ID:           "task-3",
		Title:        "Write docs",
		Status:       "To Do",
		Dependencies: []string{"task-1"},
		Ordinal:      domain.OrdinalPtr(2000),
		CreatedDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local),
		UpdatedDate:  &updated,
		Body:         "Some notes",
		Source:       domain.SourceRemote,
		Branch:       "feature",
	}

	out, err := NewParser().Serialize(task)
	require.NoError(t, err)

	assert.Contains(t, out, "id: task-3\n")
	assert.Contains(t, out, "assignee: []\n")
	assert.Contains(t, out, "ordinal: 2000\n")
	assert.NotContains(t, out, "feature", "branch metadata is not persisted")
	assert.True(t, len(out) > 4 && out[:4] == "---\n")
	assert.Contains(t, out, "---\n\nSome notes\n")

	back, err := NewParser().Parse(out)
	require.NoError(t, err)
	task.Source, task.Branch = "", ""
	task.Assignee, task.Labels = []string{}, []string{}
	task.Body = "Some notes\n"
	assert.Equal(t, task, back)
}

func TestSerialize_DatesInOtherZonesKeepTheirInstant(t *testing.T) {
	zone := time.FixedZone("UTC+1", 60*60)
	created := time.Date(2025, 3, 4, 0, 30, 0, 0, zone)
	updated := time.Date(2025, 3, 4, 14, 30, 0, 0, zone)
	task := domain.Task{
		ID:          "task-7",
		Title:       "Zones",
		Status:      "To Do",
		CreatedDate: created,
		UpdatedDate: &updated,
	}

	out, err := NewParser().Serialize(task)
	require.NoError(t, err)

	back, err := NewParser().Parse(out)
	require.NoError(t, err)
	assert.True(t, back.CreatedDate.Equal(created), "created %s, got %s", created, back.CreatedDate)
	require.NotNil(t, back.UpdatedDate)
	assert.True(t, back.UpdatedDate.Equal(updated), "updated %s, got %s", updated, *back.UpdatedDate)
}

func TestSerialize_OmitsUnsetFields(t *testing.T) {
	out, err := NewParser().Serialize(domain.Task{ID: "task-1", Title: "t", Status: "To Do"})
	require.NoError(t, err)

	assert.NotContains(t, out, "ordinal")
	assert.NotContains(t, out, "created_date")
	assert.NotContains(t, out, "updated_date")
	assert.Equal(t, "---\n", out[len(out)-4:])
}
