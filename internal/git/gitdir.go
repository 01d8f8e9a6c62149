// Package git probes the version-control state of a project directory.
package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ProbeTimeout bounds each git invocation.
const ProbeTimeout = 5 * time.Second

// ErrNotRepository is returned when dir is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// GitDir returns the .git directory for the repository containing dir. In a
// worktree .git is a file pointing elsewhere, so git itself is asked.
// Relative results are resolved against dir.
func GitDir(ctx context.Context, dir string) (string, error) {
	out, err := revParse(ctx, dir, "--git-dir")
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(dir, out)
	}
	return out, nil
}

// TopLevel returns the root of the work tree containing dir.
func TopLevel(ctx context.Context, dir string) (string, error) {
	return revParse(ctx, dir, "--show-toplevel")
}

// IsRepository reports whether dir is inside a git repository.
func IsRepository(ctx context.Context, dir string) bool {
	_, err := GitDir(ctx, dir)
	return err == nil
}

func revParse(ctx context.Context, dir, flag string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", flag)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNotRepository, dir, err)
	}
	return strings.TrimSpace(string(output)), nil
}
