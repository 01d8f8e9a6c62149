package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/bmad-code-org/bmad-beads/internal/tracker"
)

// InstallTimeout bounds the package install.
const InstallTimeout = 5 * time.Minute

// Installer installs the dependencies declared in dir/package.json.
type Installer interface {
	Install(ctx context.Context, dir string) error
}

// NPMInstaller runs "npm install --production --no-save".
type NPMInstaller struct {
	Runner  tracker.Runner // nil uses the process runner
	Timeout time.Duration  // InstallTimeout if zero
}

// Install implements Installer.
func (n NPMInstaller) Install(ctx context.Context, dir string) error {
	runner := n.Runner
	if runner == nil {
		runner = tracker.NewProcessRunner()
	}
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = InstallTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	npm := "npm"
	if runtime.GOOS == "windows" {
		npm = "npm.cmd"
	}
	_, stderr, err := runner.Run(ctx, dir, npm, []string{"install", "--production", "--no-save"})
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("npm install timed out after %s", timeout)
		}
		return fmt.Errorf("npm install failed: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	return nil
}

// packageJSON is the minimal npm manifest written into the tools directory.
type packageJSON struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Private      bool              `json:"private"`
	Description  string            `json:"description"`
	Dependencies map[string]string `json:"dependencies"`
}

func writePackageJSON(path string) error {
	data, err := json.MarshalIndent(packageJSON{
		Name:         "bmad-beads-tools",
		Version:      "1.0.0",
		Private:      true,
		Description:  "BMAD Beads CLI provisioning",
		Dependencies: map[string]string{Package: "latest"},
	}, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(append(data, '\n')))
}
