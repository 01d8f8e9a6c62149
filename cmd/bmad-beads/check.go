package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bmad-code-org/bmad-beads/internal/config"
	"github.com/bmad-code-org/bmad-beads/internal/git"
	"github.com/bmad-code-org/bmad-beads/internal/provision"
	"github.com/bmad-code-org/bmad-beads/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that bd, git and the BMAD documents are in place",
	Args:  cobra.NoArgs,
	Run:   runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkResult is one line of the check report.
type checkResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // ok, warning, error
	Message string `json:"message"`
}

const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusError   = "error"
)

func runCheck(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	results := runChecks(cfg)

	failed := false
	for _, r := range results {
		if r.Status == statusError {
			failed = true
		}
	}

	if jsonOutput {
		outputJSON(map[string]interface{}{"ok": !failed, "checks": results})
	} else {
		for _, r := range results {
			icon := ui.RenderPassIcon()
			switch r.Status {
			case statusWarning:
				icon = ui.RenderWarnIcon()
			case statusError:
				icon = ui.RenderFailIcon()
			}
			fmt.Printf("%s %-16s %s\n", icon, r.Name, r.Message)
		}
	}
	if failed {
		exit(1)
	}
}

func runChecks(cfg *config.Config) []checkResult {
	var results []checkResult

	avail := provision.New(cfg.BMADPath()).CheckAvailability(rootCtx)
	switch {
	case avail.Available && avail.Local:
		results = append(results, checkResult{"bd", statusOK, avail.Version + " (project-local)"})
	case avail.Available:
		results = append(results, checkResult{"bd", statusWarning, avail.Version + " (from PATH; run 'bmad-beads provision' for a pinned copy)"})
	default:
		results = append(results, checkResult{"bd", statusError, "not found; run 'bmad-beads provision'"})
	}

	if top, err := git.TopLevel(rootCtx, cfg.ProjectDir); err == nil {
		results = append(results, checkResult{"git", statusOK, "repository at " + top})
	} else {
		results = append(results, checkResult{"git", statusError, "not a git repository; run 'git init'"})
	}

	if isDir(filepath.Join(cfg.ProjectDir, ".beads")) {
		results = append(results, checkResult{"beads database", statusOK, ".beads/ initialized"})
	} else {
		results = append(results, checkResult{"beads database", statusWarning, "not initialized; run 'bmad-beads init'"})
	}

	results = append(results,
		pathCheck("epics", cfg.ProjectDir, cfg.EpicsSource()),
		pathCheck("stories", cfg.ProjectDir, cfg.StoryDir()),
		pathCheck("sprint status", cfg.ProjectDir, cfg.LedgerPath()),
	)
	return results
}

func pathCheck(name, base, path string) checkResult {
	if _, err := os.Stat(path); err != nil {
		return checkResult{name, statusWarning, relPath(base, path) + " not found"}
	}
	return checkResult{name, statusOK, relPath(base, path)}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
