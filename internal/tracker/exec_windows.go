//go:build windows

package tracker

import (
	"bytes"
	"context"
	"os/exec"
)

// processRunner kills only the started process on timeout; Windows has no
// Unix-style process groups, so detached descendants may survive.
type processRunner struct{}

func (processRunner) Run(ctx context.Context, dir, path string, args []string) ([]byte, []byte, error) {
	cmd := exec.Command(path, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return stdout.Bytes(), stderr.Bytes(), ctx.Err()
	case err := <-done:
		return stdout.Bytes(), stderr.Bytes(), err
	}
}
