package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bmad-code-org/bmad-beads/internal/debug"
	"github.com/bmad-code-org/bmad-beads/internal/provision"
	"github.com/bmad-code-org/bmad-beads/internal/ui"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Install bd into the project and initialize Beads",
	Long: `Install the Beads CLI (` + provision.Package + `) under _bmad/_tools/beads with npm,
write bd wrapper scripts to _bmad/bin, and run bd init in the project root.

Requires Node.js 18+ with npm, and a git repository for initialization.`,
	Args: cobra.NoArgs,
	Run:  runProvision,
}

func init() {
	provisionCmd.Flags().Bool("force", false, "Reinstall even if a local bd already works")
	provisionCmd.Flags().String("prefix", "", "Issue ID prefix passed to bd init")
	provisionCmd.Flags().Bool("skip-init", false, "Install bd without running bd init")
	rootCmd.AddCommand(provisionCmd)
}

func runProvision(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")
	prefix, _ := cmd.Flags().GetString("prefix")
	skipInit, _ := cmd.Flags().GetBool("skip-init")

	cfg := loadConfig()
	release := acquireRunLock(cfg, "provision")
	defer release()

	p := provision.New(cfg.BMADPath())
	opts := provision.Options{Force: force, OnProgress: progress}

	var res *provision.Result
	if skipInit {
		res = p.Provision(rootCtx, opts)
	} else {
		res = p.ProvisionAndInitialize(rootCtx, cfg.ProjectDir, prefix, opts)
	}
	reportProvision(res)
}

// progress prints provisioning steps unless --json or --quiet.
func progress(msg string) {
	if jsonOutput {
		return
	}
	debug.PrintNormal("%s %s\n", ui.RenderMuted("→"), msg)
}

// reportProvision prints res and exits 1 on failure.
func reportProvision(res *provision.Result) {
	if jsonOutput {
		outputJSON(res)
		if !res.Success {
			exit(1)
		}
		return
	}
	if !res.Success {
		fmt.Fprintf(os.Stderr, "%s %s\n\n", ui.RenderFailIcon(), res.Error)
		fmt.Fprint(os.Stderr, ui.RenderMarkdown(provision.RemediationSteps()))
		exit(1)
	}
	if res.Version != "" {
		debug.PrintNormal("%s %s (%s)\n", ui.RenderPassIcon(), res.Version, relPath(mustGetwd(), res.Path))
	} else {
		debug.PrintNormal("%s Beads ready\n", ui.RenderPassIcon())
	}
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}
