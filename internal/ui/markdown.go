package ui

import (
	"charm.land/glamour/v2"
)

// maxReadableWidth caps word wrap on wide terminals.
const maxReadableWidth = 100

// RenderMarkdown renders markdown for the terminal. It returns the input
// unchanged in agent mode, without color, or if rendering fails.
func RenderMarkdown(markdown string) string {
	if IsAgentMode() || !ShouldUseColor() {
		return markdown
	}
	return renderMarkdown(markdown, min(TerminalWidth(80), maxReadableWidth))
}

func renderMarkdown(markdown string, width int) string {
	renderer, err := glamour.NewTermRenderer(glamour.WithWordWrap(width))
	if err != nil {
		return markdown
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}
