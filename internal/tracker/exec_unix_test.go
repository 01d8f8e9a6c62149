//go:build unix

package tracker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bd")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestProcessRunnerOutput(t *testing.T) {
	bd := writeScript(t, `echo "out $1"; echo "err" >&2`)
	c := New(Config{Path: bd})

	out, err := c.Run(context.Background(), "version")
	require.NoError(t, err)
	assert.Equal(t, "out version\n", out)
}

func TestProcessRunnerExitCode(t *testing.T) {
	bd := writeScript(t, `echo "no such issue" >&2; exit 3`)
	c := New(Config{Path: bd})

	_, err := c.Run(context.Background(), "show", "proj-1")
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.False(t, cmdErr.TimedOut)
	assert.Contains(t, cmdErr.Stderr, "no such issue")
}

func TestProcessRunnerWorkingDir(t *testing.T) {
	dir := t.TempDir()
	bd := writeScript(t, `pwd`)
	c := New(Config{Path: bd, Dir: dir})

	out, err := c.Run(context.Background(), "where")
	require.NoError(t, err)
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(out))
	assert.Equal(t, want, got)
}

func TestProcessRunnerKillsDescendants(t *testing.T) {
	// The child sleep would keep stdout open if only the shell were killed.
	bd := writeScript(t, "sleep 30 &\nsleep 30\n")
	c := New(Config{Path: bd, Timeout: 200 * time.Millisecond})

	start := time.Now()
	_, err := c.Run(context.Background(), "list")
	elapsed := time.Since(start)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.True(t, cmdErr.TimedOut)
	assert.Less(t, elapsed, 10*time.Second)
}

func TestProcessRunnerMissingBinary(t *testing.T) {
	c := New(Config{Path: filepath.Join(t.TempDir(), "missing-bd")})
	_, err := c.Run(context.Background(), "version")
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.False(t, cmdErr.TimedOut)
}
