package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/bmad-code-org/bmad-beads/internal/debug"
	"github.com/bmad-code-org/bmad-beads/internal/document"
	"github.com/bmad-code-org/bmad-beads/internal/migrate"
	"github.com/bmad-code-org/bmad-beads/internal/types"
	"github.com/bmad-code-org/bmad-beads/internal/ui"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create Beads issues for BMAD epics, stories and tasks",
	Long: `Create one Beads issue per epic, story, task and subtask found in the
project's epics document and story files.

Siblings are chained with "blocks" dependencies so bd ready surfaces them in
document order. Items that already carry a Beads ID are left alone, so
migrate can be re-run after new stories are added. Completed checklist items
are closed right after creation.`,
	Args: cobra.NoArgs,
	Run:  runMigrate,
}

func init() {
	migrateCmd.Flags().Bool("dry-run", false, "Show what would be created without calling bd")
	migrateCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	yes, _ := cmd.Flags().GetBool("yes")

	cfg := loadConfig()
	client := newClient(cfg, dryRun)
	requireTracker(client)

	source := cfg.EpicsSource()
	debug.Logf("loading epics from %s\n", source)
	epics, err := document.LoadTree(source, cfg.StoryDir())
	if err != nil {
		fail(fmt.Errorf("failed to read epics: %w", err), "parse")
	}
	if len(epics) == 0 {
		failWithHint(fmt.Errorf("no epics found in %s", relPath(cfg.ProjectDir, source)), "no_epics",
			"Create epics.md (or an epics/ directory) under "+relPath(cfg.ProjectDir, cfg.PlanningDir()))
	}

	pending, total := countPending(epics)
	debug.Logf("%d of %d document items need Beads issues\n", pending, total)
	if pending == 0 {
		debug.PrintNormal("%s Every item already has a Beads ID; nothing to migrate.\n", ui.RenderPassIcon())
	}

	if pending > 0 && !dryRun && !yes && !jsonOutput && ui.IsTerminal() {
		title := fmt.Sprintf("Create %d Beads issues from %s?", pending, relPath(cfg.ProjectDir, source))
		if !confirm(title, "Create") {
			debug.PrintNormal("Migration cancelled.\n")
			return
		}
	}

	if !dryRun {
		release := acquireRunLock(cfg, "migrate")
		defer release()
	}

	res := migrate.New(client, migrate.Options{
		DryRun:      dryRun,
		StagePrefix: cfg.StageLabelPrefix,
		ProjectDir:  cfg.ProjectDir,
	}).Migrate(rootCtx, epics)

	if jsonOutput {
		outputJSON(res)
	} else {
		printMigrateResult(res)
	}
	if !res.Success() {
		exit(1)
	}
}

// countPending returns how many items would be created, and how many items
// the document holds.
func countPending(epics []*types.WorkItem) (pending, total int) {
	for _, e := range epics {
		total += e.Count()
		e.Walk(func(w *types.WorkItem) bool {
			if !w.HasID() {
				pending++
			}
			return true
		})
	}
	return pending, total
}

// confirm asks a yes/no question. An aborted prompt counts as no.
func confirm(title, affirmative string) bool {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative(affirmative).
				Negative("Cancel").
				Value(&ok),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		if !errors.Is(err, huh.ErrUserAborted) {
			WarnError("prompt failed: %v", err)
		}
		return false
	}
	return ok
}

func printMigrateResult(res *migrate.Result) {
	if debug.IsQuiet() && res.Success() {
		return
	}
	heading := "Migration"
	if res.DryRun {
		heading = "Migration (dry run)"
	}
	fmt.Println(ui.RenderCategory(heading))

	for _, c := range res.Created {
		fmt.Printf("%s%s %s %s\n", indent(c.Kind), ui.RenderPassIcon(), ui.RenderAccent(c.ID), c.Title)
	}
	if len(res.Created) > 0 {
		fmt.Println()
	}

	s := res.Stats
	fmt.Printf("Created %d, skipped %d, closed %d, dependencies %d\n", s.Created, s.Skipped, s.Closed, s.Dependencies)

	for _, w := range res.Warnings {
		fmt.Printf("%s %s\n", ui.RenderWarnIcon(), ui.RenderWarn(w))
	}

	if !res.Success() {
		fmt.Println()
		fmt.Println(ui.RenderFail(fmt.Sprintf("%d errors:", len(res.Errors))))
		for _, e := range res.Errors {
			fmt.Printf("%s%s %s\n", ui.TreeIndent, ui.RenderFailIcon(), e)
		}
	}
}

func indent(k types.Kind) string {
	depth := k.Depth()
	if k == types.KindSubtask {
		depth = 3
	}
	if depth < 0 {
		depth = 0
	}
	return strings.Repeat(ui.TreeIndent, depth)
}
