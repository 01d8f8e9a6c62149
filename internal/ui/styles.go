// Package ui styles terminal output for bmad-beads commands.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bmad-code-org/bmad-beads/internal/types"
)

// Ayu theme color palette
// Dark: https://terminalcolors.com/themes/ayu/dark/
// Light: https://terminalcolors.com/themes/ayu/light/
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
)

var (
	PassStyle     = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle     = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle     = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle   = lipgloss.NewStyle().Foreground(ColorAccent)
	CategoryStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
)

const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconInfo = "ℹ"
)

const (
	TreeLast   = "└─ "
	TreeIndent = "  "
)

const SeparatorLight = "──────────────────────────────────────────"

func RenderPass(s string) string   { return PassStyle.Render(s) }
func RenderWarn(s string) string   { return WarnStyle.Render(s) }
func RenderFail(s string) string   { return FailStyle.Render(s) }
func RenderMuted(s string) string  { return MutedStyle.Render(s) }
func RenderAccent(s string) string { return AccentStyle.Render(s) }

// RenderCategory renders a section header in uppercase with accent color.
func RenderCategory(s string) string {
	return CategoryStyle.Render(strings.ToUpper(s))
}

func RenderSeparator() string {
	return MutedStyle.Render(SeparatorLight)
}

func RenderPassIcon() string { return PassStyle.Render(IconPass) }
func RenderWarnIcon() string { return WarnStyle.Render(IconWarn) }
func RenderFailIcon() string { return FailStyle.Render(IconFail) }
func RenderInfoIcon() string { return AccentStyle.Render(IconInfo) }

// RenderStage colors a workflow stage by how far along it is.
func RenderStage(s types.Stage) string {
	switch types.CanonicalStage(string(s)) {
	case types.StageDone:
		return PassStyle.Render(string(s))
	case types.StageInProgress, types.StageReview:
		return WarnStyle.Render(string(s))
	case types.StageBacklog:
		return MutedStyle.Render(string(s))
	default:
		return AccentStyle.Render(string(s))
	}
}

// RenderDiscrepancy formats one discrepancy as a two-line tree entry: the
// kind and source, then the suggested fix.
func RenderDiscrepancy(d types.Discrepancy) string {
	var b strings.Builder
	b.WriteString(RenderWarnIcon())
	b.WriteString(" ")
	b.WriteString(RenderAccent(string(d.Kind)))
	b.WriteString(" ")
	b.WriteString(d.Source)
	if d.TrackerID != "" {
		b.WriteString(" ")
		b.WriteString(RenderMuted("(" + d.TrackerID + ")"))
	}
	b.WriteString("\n")
	b.WriteString(TreeIndent)
	b.WriteString(RenderMuted(TreeLast))
	b.WriteString(d.Description)
	return b.String()
}
