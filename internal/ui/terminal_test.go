package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bmad-code-org/bmad-beads/internal/types"
)

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		want  bool
		ttyOK bool // result depends on whether stdout is a TTY
	}{
		{name: "NO_COLOR disables color", env: map[string]string{"NO_COLOR": "1"}, want: false},
		{name: "CLICOLOR=0 disables color", env: map[string]string{"CLICOLOR": "0"}, want: false},
		{name: "CLICOLOR_FORCE enables color", env: map[string]string{"CLICOLOR_FORCE": "1"}, want: true},
		{name: "NO_COLOR beats CLICOLOR_FORCE", env: map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, want: false},
		{name: "no variables falls back to TTY", ttyOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CLICOLOR", "")
			t.Setenv("CLICOLOR_FORCE", "")
			unsetNoColor(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got := ShouldUseColor()
			if tt.ttyOK {
				assert.Equal(t, IsTerminal(), got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderMarkdownPlainWithoutColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	md := "## Remediation\n\n1. Install Node.js\n"
	assert.Equal(t, md, RenderMarkdown(md))
}

func TestRenderMarkdownAgentMode(t *testing.T) {
	t.Setenv("CLICOLOR_FORCE", "1")
	t.Setenv("BMAD_AGENT_MODE", "1")
	md := "**bold**"
	assert.Equal(t, md, RenderMarkdown(md))
}

func TestRenderMarkdownWraps(t *testing.T) {
	out := renderMarkdown("# Heading\n\nSome body text.\n", 40)
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "body")
}

func TestRenderDiscrepancy(t *testing.T) {
	out := RenderDiscrepancy(types.Discrepancy{
		Kind:        types.DiscrepancyStatusMismatch,
		Source:      "stories/1-2-login.md",
		TrackerID:   "proj-a1b.2",
		Description: `Update story status from "review" to "done"`,
	})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "status_mismatch")
	assert.Contains(t, lines[0], "proj-a1b.2")
	assert.Contains(t, lines[1], `to "done"`)
}

func TestRenderStage(t *testing.T) {
	for _, s := range []types.Stage{types.StageBacklog, types.StageReadyForDev, types.StageInProgress, types.StageReview, types.StageDone} {
		assert.Contains(t, RenderStage(s), string(s))
	}
}
