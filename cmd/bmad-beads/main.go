// Command bmad-beads bridges BMAD planning documents and the Beads (bd)
// issue tracker: it migrates epics, stories and tasks into bd, reports drift
// between the two, and provisions a project-local bd.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bmad-code-org/bmad-beads/internal/config"
	"github.com/bmad-code-org/bmad-beads/internal/debug"
	"github.com/bmad-code-org/bmad-beads/internal/lockfile"
	"github.com/bmad-code-org/bmad-beads/internal/telemetry"
	"github.com/bmad-code-org/bmad-beads/internal/tracker"
	"github.com/bmad-code-org/bmad-beads/internal/ui"
)

var (
	jsonOutput  bool
	verboseFlag bool
	quietFlag   bool
	projectDir  string

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "bmad-beads",
	Short: "Track BMAD epics, stories and tasks in Beads",
	Long: `bmad-beads mirrors a BMAD project's planning documents into the Beads (bd)
issue tracker and reports where the two have drifted apart.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
		ui.InitColor()
		if err := telemetry.Init(rootCtx, "bmad-beads", Version); err != nil {
			WarnError("telemetry disabled: %v", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.PersistentFlags().StringVar(&projectDir, "project", "", "BMAD project root (default: current directory)")
}

// shutdown flushes telemetry and releases the signal context.
func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	telemetry.Shutdown(ctx)
	rootCancel()
}

// exit flushes telemetry before terminating with code.
func exit(code int) {
	shutdown()
	os.Exit(code)
}

// loadConfig resolves the project configuration or exits.
func loadConfig() *config.Config {
	dir := projectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			fail(fmt.Errorf("cannot determine working directory: %w", err), "")
		}
		dir = wd
	}
	cfg, err := config.Load(dir)
	if errors.Is(err, config.ErrNotBMADProject) {
		failWithHint(err, "not_bmad_project", "Run from the project root, or pass --project <dir>")
	}
	if err != nil {
		fail(err, "config")
	}
	debug.Logf("project %s, bd %s\n", cfg.ProjectDir, cfg.TrackerPath())
	return cfg
}

// newClient returns a tracker client rooted at the project directory.
func newClient(cfg *config.Config, dryRun bool) *tracker.Client {
	return tracker.New(tracker.Config{
		Path:    cfg.TrackerPath(),
		Dir:     cfg.ProjectDir,
		Timeout: cfg.BDTimeout,
		DryRun:  dryRun,
	})
}

// requireTracker exits with a provisioning hint when bd does not answer.
func requireTracker(client *tracker.Client) string {
	v, err := client.Version(rootCtx)
	if err != nil {
		failWithHint(fmt.Errorf("beads CLI not available: %w", err), "tracker_unavailable",
			"Run 'bmad-beads provision' to install bd into this project")
	}
	debug.Logf("using %s\n", v)
	return v
}

// acquireRunLock serializes commands that write to the tracker or the
// tools directory. The returned func releases the lock.
func acquireRunLock(cfg *config.Config, name string) func() {
	lock, err := lockfile.Acquire(filepath.Join(cfg.BMADPath(), "_logs", name+".lock"))
	if errors.Is(err, lockfile.ErrLockBusy) {
		failWithHint(err, "locked", "Another bmad-beads "+name+" is running; wait for it to finish")
	}
	if err != nil {
		fail(err, "lock")
	}
	return func() {
		if err := lock.Release(); err != nil {
			WarnError("failed to release %s lock: %v", name, err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}
