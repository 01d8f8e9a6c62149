// Package provision installs the Beads CLI into a project-local directory and
// initializes the tracker store.
//
// The layout under the BMAD directory is:
//
//	_tools/beads/package.json       npm manifest depending on @beads/bd
//	_tools/beads/node_modules/      npm install output
//	bin/bd, bin/bd.cmd              launcher scripts
//
// Every step is fail-fast. Failures never escape as panics or bare errors:
// callers get a Result with Success false and a message suitable for the
// user, followed by RemediationSteps.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bmad-code-org/bmad-beads/internal/debug"
	"github.com/bmad-code-org/bmad-beads/internal/git"
	"github.com/bmad-code-org/bmad-beads/internal/tracker"
)

var (
	// ErrTrackerUnavailable means no working bd binary could be found or installed.
	ErrTrackerUnavailable = errors.New("beads CLI unavailable")
	// ErrNotGitRepo means the project is not under git, which bd requires.
	ErrNotGitRepo = errors.New("beads requires a git repository")
)

// Availability describes the bd binary found by CheckAvailability.
type Availability struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Local     bool   `json:"local"`
}

// Result is the outcome of a provisioning or initialization step.
type Result struct {
	Success            bool   `json:"success"`
	Path               string `json:"path,omitempty"`
	Version            string `json:"version,omitempty"`
	AlreadyInitialized bool   `json:"already_initialized,omitempty"`
	Error              string `json:"error,omitempty"`

	// Err is the underlying error for errors.Is checks.
	Err error `json:"-"`
}

func failed(err error, format string, args ...interface{}) *Result {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		err = fmt.Errorf("%s: %w", msg, err)
	} else {
		err = errors.New(msg)
	}
	return &Result{Error: err.Error(), Err: err}
}

// Options controls Provision.
type Options struct {
	Force      bool             // reinstall even if a local bd already works
	OnProgress func(msg string) // optional progress reporting
}

func (o Options) progress(format string, args ...interface{}) {
	if o.OnProgress != nil {
		o.OnProgress(fmt.Sprintf(format, args...))
	}
}

// Provisioner installs bd under a BMAD directory.
type Provisioner struct {
	Layout    Layout
	Installer Installer      // NPMInstaller if nil
	Runner    tracker.Runner // runs bd and version probes; process runner if nil

	// VerifyBackOff returns the retry policy for verifying the freshly
	// installed binary. Some package managers finish linking .bin entries
	// shortly after the install command exits.
	VerifyBackOff func() backoff.BackOff
}

// New returns a Provisioner for the BMAD directory bmadDir.
func New(bmadDir string) *Provisioner {
	return &Provisioner{Layout: Layout{BMADDir: bmadDir}}
}

func (p *Provisioner) installer() Installer {
	if p.Installer != nil {
		return p.Installer
	}
	return NPMInstaller{Runner: p.Runner}
}

func (p *Provisioner) verifyBackOff() backoff.BackOff {
	if p.VerifyBackOff != nil {
		return p.VerifyBackOff()
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = 5 * time.Second
	return bo
}

// version runs "<path> version" and returns its trimmed output.
func (p *Provisioner) version(ctx context.Context, path string) (string, error) {
	return tracker.New(tracker.Config{Path: path, Timeout: tracker.CheckTimeout, Runner: p.Runner}).Version(ctx)
}

// verify reports whether path exists and answers "version".
func (p *Provisioner) verify(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return p.version(ctx, path)
}

// CheckAvailability looks for a working project-local bd first, then for bd
// on PATH.
func (p *Provisioner) CheckAvailability(ctx context.Context) Availability {
	local := p.Layout.LocalBD()
	if v, err := p.verify(ctx, local); err == nil {
		return Availability{Available: true, Path: local, Version: v, Local: true}
	}
	if v, err := p.version(ctx, "bd"); err == nil {
		return Availability{Available: true, Path: "bd", Version: v}
	}
	return Availability{}
}

// Provision installs bd into the layout unless a local copy already works.
func (p *Provisioner) Provision(ctx context.Context, opts Options) *Result {
	if !opts.Force {
		if existing := p.CheckAvailability(ctx); existing.Available && existing.Local {
			opts.progress("Beads CLI already provisioned: %s", existing.Version)
			return &Result{Success: true, Path: existing.Path, Version: existing.Version}
		}
	}

	opts.progress("Provisioning Beads CLI...")

	toolsDir := p.Layout.ToolsPath()
	for _, dir := range []string{toolsDir, p.Layout.BinPath()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return failed(err, "Failed to create %s", dir)
		}
	}

	if err := writePackageJSON(filepath.Join(toolsDir, "package.json")); err != nil {
		return failed(err, "Failed to write package.json")
	}

	opts.progress("Installing %s (this may take a moment)...", Package)
	if err := p.installer().Install(ctx, toolsDir); err != nil {
		return failed(err, "Failed to install %s", Package)
	}

	installed := p.Layout.NodeModulesBD()
	err := backoff.Retry(func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		_, err := p.verify(ctx, installed)
		if err != nil {
			debug.Logf("verify %s: %v\n", installed, err)
		}
		return err
	}, backoff.WithContext(p.verifyBackOff(), ctx))
	if err != nil {
		return failed(ErrTrackerUnavailable,
			"Beads binary not found after npm install. Check network connectivity and try again")
	}

	opts.progress("Creating bd wrapper scripts...")
	abs, err := filepath.Abs(installed)
	if err != nil {
		abs = installed
	}
	if err := writeWrappers(p.Layout, abs); err != nil {
		return failed(err, "Failed to create wrapper scripts")
	}

	local := p.Layout.LocalBD()
	version, err := p.verify(ctx, local)
	if err != nil {
		return failed(ErrTrackerUnavailable, "Beads wrapper script failed verification")
	}

	opts.progress("Beads CLI provisioned successfully: %s", version)
	return &Result{Success: true, Path: local, Version: version}
}

// Initialize runs "bd init --quiet" in projectDir. It is a no-op when a
// .beads directory already exists, and fails when projectDir is not a git
// repository.
func (p *Provisioner) Initialize(ctx context.Context, projectDir, bdPath, prefix string) *Result {
	if info, err := os.Stat(filepath.Join(projectDir, ".beads")); err == nil && info.IsDir() {
		return &Result{Success: true, Path: bdPath, AlreadyInitialized: true}
	}

	if !git.IsRepository(ctx, projectDir) {
		return failed(ErrNotGitRepo, "Beads requires a git repository. Run `git init` first")
	}

	client := tracker.New(tracker.Config{Path: bdPath, Dir: projectDir, Runner: p.Runner})
	if err := client.Init(ctx, prefix); err != nil {
		return failed(err, "Failed to initialize Beads")
	}
	debug.LogEvent(projectDir, "INIT", "", "prefix="+prefix)
	return &Result{Success: true, Path: bdPath}
}

// ProvisionAndInitialize provisions bd and then initializes the store in
// projectDir, stopping at the first failure.
func (p *Provisioner) ProvisionAndInitialize(ctx context.Context, projectDir, prefix string, opts Options) *Result {
	res := p.Provision(ctx, opts)
	if !res.Success {
		return res
	}

	opts.progress("Initializing Beads database...")
	initRes := p.Initialize(ctx, projectDir, res.Path, prefix)
	if !initRes.Success {
		initRes.Path, initRes.Version = res.Path, res.Version
		return initRes
	}

	if initRes.AlreadyInitialized {
		opts.progress("Beads database already initialized")
	} else {
		opts.progress("Beads database initialized successfully")
	}
	res.AlreadyInitialized = initRes.AlreadyInitialized
	return res
}

// RemediationSteps returns markdown shown after a failed provisioning run.
func RemediationSteps() string {
	return "## Remediation\n\n" +
		"1. Ensure Node.js 18+ and npm are installed (`node --version`, `npm --version`).\n" +
		"2. Check network connectivity; npm needs to download `" + Package + "`.\n" +
		"3. Install manually with `npm install -g " + Package + "`, or see " + ManualInstallURL + ".\n" +
		"4. Re-run `bmad-beads provision --force`.\n"
}

// ManualInstallURL documents installing bd by hand.
const ManualInstallURL = "https://github.com/steveyegge/beads"
