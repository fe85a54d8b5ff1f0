package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderResult(t *testing.T) {
	assert.Equal(t, "Moved task-7 to sequence 2\n", RenderResult("Moved task-7 to sequence 2"))
	assert.Equal(t, "", RenderResult(""))
}

func TestRenderMessage(t *testing.T) {
	assert.Equal(t, "Copied", RenderMessage("Copied", false))
	assert.Equal(t, "failed", RenderMessage("failed", true))
	assert.Equal(t, "", RenderMessage("", true))
}

func TestViewBuilder(t *testing.T) {
	out := NewViewBuilder().
		Line("first").
		BlankLine().
		Muted("note").
		Message("", false).
		Message("done", false).
		String()

	assert.Equal(t, "first\n\nnote\ndone\n", out)
}
