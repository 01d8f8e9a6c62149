//go:build unix

package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// processRunner starts the binary in its own process group so that a timeout
// kills bd and anything it spawned.
type processRunner struct{}

func (processRunner) Run(ctx context.Context, dir, path string, args []string) ([]byte, []byte, error) {
	// #nosec G204 -- path is the configured bd binary
	cmd := exec.Command(path, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			<-done
			return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("kill process group: %w", err)
		}
		<-done
		return stdout.Bytes(), stderr.Bytes(), ctx.Err()
	case err := <-done:
		return stdout.Bytes(), stderr.Bytes(), err
	}
}
