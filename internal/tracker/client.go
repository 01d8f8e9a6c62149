// Package tracker runs the Beads CLI (bd) as a subprocess and decodes its
// output. Every invocation is bounded by a timeout; failures come back as
// *CommandError carrying the full command line and captured output.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmad-code-org/bmad-beads/internal/debug"
)

const (
	// DefaultTimeout bounds tracker commands.
	DefaultTimeout = 30 * time.Second
	// CheckTimeout bounds auxiliary probes such as "bd version".
	CheckTimeout = 10 * time.Second
)

// Runner executes a binary and returns its captured output. The returned
// error is non-nil for start failures, non-zero exits and context expiry.
type Runner interface {
	Run(ctx context.Context, dir, path string, args []string) (stdout, stderr []byte, err error)
}

// Config configures a Client.
type Config struct {
	Path    string        // bd executable; "bd" resolves through PATH
	Dir     string        // working directory for every invocation
	Timeout time.Duration // per-command timeout, DefaultTimeout if zero
	DryRun  bool          // skip mutating commands
	Runner  Runner        // nil uses the process runner
}

// Client invokes bd. It is not safe for concurrent use.
type Client struct {
	Path    string
	Dir     string
	Timeout time.Duration
	DryRun  bool

	runner    Runner
	dryRunSeq int
	inst      *instruments
}

// New returns a Client for cfg.
func New(cfg Config) *Client {
	c := &Client{
		Path:    cfg.Path,
		Dir:     cfg.Dir,
		Timeout: cfg.Timeout,
		DryRun:  cfg.DryRun,
		runner:  cfg.Runner,
		inst:    newInstruments(),
	}
	if c.Path == "" {
		c.Path = "bd"
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.runner == nil {
		c.runner = processRunner{}
	}
	return c
}

// CommandError reports a failed or timed out bd invocation.
type CommandError struct {
	Path     string
	Args     []string
	Stdout   string
	Stderr   string
	Err      error
	TimedOut bool
}

// CommandLine renders the invocation for diagnostics.
func (e *CommandError) CommandLine() string {
	return strings.Join(append([]string{e.Path}, e.Args...), " ")
}

func (e *CommandError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("failed to execute %s: timed out", e.CommandLine())
	}
	msg := fmt.Sprintf("failed to execute %s: %v", e.CommandLine(), e.Err)
	if out := strings.TrimSpace(e.Stderr); out != "" {
		msg += "\n" + out
	} else if out := strings.TrimSpace(e.Stdout); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// mutating lists the subcommands skipped in dry-run mode.
var mutating = map[string]bool{
	"create": true,
	"dep":    true,
	"close":  true,
	"label":  true,
	"init":   true,
	"update": true,
}

// Run executes bd with args and returns stdout.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	return c.run(ctx, c.Timeout, args)
}

func (c *Client) run(ctx context.Context, timeout time.Duration, args []string) (string, error) {
	if len(args) > 0 && c.DryRun && mutating[args[0]] {
		debug.Logf("[dry-run] would execute: %s %s\n", c.Path, strings.Join(args, " "))
		if args[0] == "create" {
			c.dryRunSeq++
			return fmt.Sprintf(`{"id":"dry-run-%d"}`, c.dryRunSeq), nil
		}
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span, start := c.inst.begin(ctx, args)
	stdout, stderr, err := c.runner.Run(ctx, c.Dir, c.Path, args)
	if err != nil {
		cmdErr := &CommandError{
			Path:     c.Path,
			Args:     args,
			Stdout:   string(stdout),
			Stderr:   string(stderr),
			Err:      err,
			TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
		}
		c.inst.end(ctx, span, start, args, stdout, stderr, cmdErr)
		return string(stdout), cmdErr
	}
	c.inst.end(ctx, span, start, args, stdout, stderr, nil)
	debug.Logf("bd %s (%s)\n", strings.Join(args, " "), time.Since(start).Round(time.Millisecond))
	return string(stdout), nil
}

// RunJSON executes bd and decodes stdout as JSON into v.
func (c *Client) RunJSON(ctx context.Context, v any, args ...string) error {
	out, err := c.Run(ctx, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		return fmt.Errorf("failed to decode output of %s %s: %w", c.Path, strings.Join(args, " "), err)
	}
	return nil
}

// NewProcessRunner returns the Runner used when Config.Runner is nil.
func NewProcessRunner() Runner {
	return processRunner{}
}
