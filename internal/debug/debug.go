// Package debug provides env-gated diagnostics and the quiet/verbose output
// switches shared by every bmad-beads command.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	enabled     = os.Getenv("BMAD_DEBUG") != ""
	verboseMode = false
	quietMode   = false

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	logMutex sync.Mutex
)

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet suppresses normal informational output
func SetQuiet(quiet bool) {
	quietMode = quiet
}

func IsQuiet() bool {
	return quietMode
}

// Logf writes to stderr when BMAD_DEBUG is set or --verbose was given.
func Logf(format string, args ...interface{}) {
	if Enabled() {
		fmt.Fprintf(stderr, format, args...)
	}
}

// PrintNormal prints progress output unless quiet mode is enabled.
func PrintNormal(format string, args ...interface{}) {
	if !quietMode {
		fmt.Fprintf(stdout, format, args...)
	}
}

// PrintlnNormal prints a line unless quiet mode is enabled
func PrintlnNormal(args ...interface{}) {
	if !quietMode {
		fmt.Fprintln(stdout, args...)
	}
}

// EventLogPath is where LogEvent appends for a project rooted at projectDir.
func EventLogPath(projectDir string) string {
	return filepath.Join(projectDir, "_bmad", "_logs", "beads-events.log")
}

// LogEvent appends one line to the project's event log.
// Format: TIMESTAMP|EVENT_CODE|ITEM_ID|SESSION_ID|DETAILS
// Failures are ignored; the event log must never interrupt a sync.
func LogEvent(projectDir, eventCode, itemID, details string) {
	if itemID == "" {
		itemID = "none"
	}
	sessionID := os.Getenv("BMAD_SESSION_ID")
	if sessionID == "" {
		sessionID = fmt.Sprintf("%d", os.Getpid())
	}
	entry := fmt.Sprintf("%s|%s|%s|%s|%s\n",
		time.Now().UTC().Format(time.RFC3339), eventCode, itemID, sessionID, details)

	logMutex.Lock()
	defer logMutex.Unlock()

	logPath := EventLogPath(projectDir)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return
	}
	// #nosec G304 -- path is derived from the project directory
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer file.Close()

	_, _ = file.WriteString(entry)
}
