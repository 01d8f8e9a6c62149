package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bmad-code-org/bmad-beads/internal/config"
	"github.com/bmad-code-org/bmad-beads/internal/debug"
	"github.com/bmad-code-org/bmad-beads/internal/document"
	"github.com/bmad-code-org/bmad-beads/internal/ledger"
	"github.com/bmad-code-org/bmad-beads/internal/reconcile"
	"github.com/bmad-code-org/bmad-beads/internal/tracker"
	"github.com/bmad-code-org/bmad-beads/internal/types"
	"github.com/bmad-code-org/bmad-beads/internal/ui"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Report drift between BMAD documents and Beads",
	Long: `Compare story statuses, sprint-status.yaml entries and task checkboxes
against the live Beads issues they link to. Beads is treated as the source of
truth; every mismatch is reported with the document change that would fix it.

Exits 1 when discrepancies remain. With --fix the discrepancies are recorded
in the project event log and the command exits 0.`,
	Args: cobra.NoArgs,
	Run:  runReconcile,
}

func init() {
	reconcileCmd.Flags().Bool("fix", false, "Record the suggested fixes in the event log")
	reconcileCmd.Flags().Bool("watch", false, "Re-run whenever planning or story files change")
	reconcileCmd.Flags().String("format", "text", "Report format: text or markdown")
	rootCmd.AddCommand(reconcileCmd)
}

// reconcileReport is the --json shape of one pass.
type reconcileReport struct {
	Discrepancies []types.Discrepancy `json:"discrepancies"`
	Count         int                 `json:"count"`
	Fixed         int                 `json:"fixed,omitempty"`
	EventLog      string              `json:"event_log,omitempty"` // where fixes were recorded, relative to the project
}

func runReconcile(cmd *cobra.Command, args []string) {
	fix, _ := cmd.Flags().GetBool("fix")
	watch, _ := cmd.Flags().GetBool("watch")
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "markdown" {
		fail(fmt.Errorf("invalid --format %q (want text or markdown)", format), "usage")
	}

	cfg := loadConfig()
	client := newClient(cfg, false)
	requireTracker(client)

	if watch {
		err := reconcile.Watch(rootCtx, cfg.WatchDirs(), reconcile.DefaultDebounce, func(ctx context.Context) error {
			report, err := reconcilePass(ctx, cfg, client, fix)
			if err != nil {
				return err
			}
			printReconcileReport(report, format)
			return nil
		}, func(err error) {
			WarnError("%v", err)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			fail(err, "watch")
		}
		return
	}

	report, err := reconcilePass(rootCtx, cfg, client, fix)
	if err != nil {
		fail(err, "reconcile")
	}
	printReconcileReport(report, format)
	if report.Count > 0 && report.Fixed < report.Count {
		exit(1)
	}
}

// reconcilePass loads both sides and diffs them once.
func reconcilePass(ctx context.Context, cfg *config.Config, client *tracker.Client, fix bool) (*reconcileReport, error) {
	snap, err := loadSnapshot(cfg)
	if err != nil {
		return nil, err
	}
	issues, err := client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list Beads issues: %w", err)
	}
	debug.Logf("comparing against %d issues\n", len(issues))

	ds := reconcile.New(cfg.StageLabelPrefix).Reconcile(*snap, issues)
	report := &reconcileReport{Discrepancies: ds, Count: len(ds)}
	if report.Discrepancies == nil {
		report.Discrepancies = []types.Discrepancy{}
	}
	if fix && len(ds) > 0 {
		planner := &reconcile.Planner{ProjectDir: cfg.ProjectDir}
		report.Fixed = len(planner.Apply(ds))
		report.EventLog = eventLogPath(cfg)
	}
	return report, nil
}

func loadSnapshot(cfg *config.Config) (*reconcile.Snapshot, error) {
	// Tasks are checked through the story files, so the epics tree is
	// loaded without them.
	epics, err := document.LoadEpics(cfg.EpicsSource())
	if err != nil {
		return nil, fmt.Errorf("failed to read epics: %w", err)
	}
	l, err := ledger.Load(cfg.LedgerPath())
	if err != nil {
		return nil, err
	}
	if l == nil {
		debug.Logf("%s not found\n", cfg.LedgerPath())
	}
	stories, err := document.LoadStories(cfg.StoryDir())
	if err != nil {
		return nil, fmt.Errorf("failed to read stories: %w", err)
	}
	return &reconcile.Snapshot{Epics: epics, Ledger: l, Stories: stories}, nil
}

// eventLogPath is the project's event log as shown to the user.
func eventLogPath(cfg *config.Config) string {
	return relPath(cfg.ProjectDir, debug.EventLogPath(cfg.ProjectDir))
}

func printReconcileReport(r *reconcileReport, format string) {
	if jsonOutput {
		outputJSON(r)
		return
	}
	if format == "markdown" {
		fmt.Print(ui.RenderMarkdown(discrepancyMarkdown(r)))
		return
	}
	if r.Count == 0 {
		debug.PrintNormal("%s BMAD documents and Beads are in sync\n", ui.RenderPassIcon())
		return
	}
	fmt.Println(ui.RenderCategory(fmt.Sprintf("%d discrepancies", r.Count)))
	for _, d := range r.Discrepancies {
		fmt.Println(ui.RenderDiscrepancy(d))
	}
	if r.Fixed > 0 {
		fmt.Printf("\n%s %d fixes recorded in %s\n", ui.RenderInfoIcon(), r.Fixed, r.EventLog)
	}
}

// discrepancyMarkdown renders a report as a markdown table.
func discrepancyMarkdown(r *reconcileReport) string {
	var b strings.Builder
	b.WriteString("# Reconciliation\n\n")
	if r.Count == 0 {
		b.WriteString("BMAD documents and Beads are in sync.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d discrepancies found.\n\n", r.Count)
	b.WriteString("| Type | Source | Beads ID | Fix |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, d := range r.Discrepancies {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			d.Kind, cell(d.Source), cell(d.TrackerID), cell(d.Description))
	}
	return b.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
