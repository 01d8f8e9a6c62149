// Package config resolves where a BMAD project keeps its documents and how
// the Beads CLI is invoked.
//
// Values come from, in increasing precedence: built-in defaults, the BMM
// module config at _bmad/bmm/config.yaml, and BMAD_* environment variables.
// A Config is loaded once per command and passed to the operations that need
// it; there is no package-level state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bmad-code-org/bmad-beads/internal/document"
	"github.com/bmad-code-org/bmad-beads/internal/ledger"
	"github.com/bmad-code-org/bmad-beads/internal/provision"
	"github.com/bmad-code-org/bmad-beads/internal/types"
)

// BMADDir is the directory that marks a BMAD project.
const BMADDir = "_bmad"

// ErrNotBMADProject is returned when the project has no _bmad directory.
var ErrNotBMADProject = errors.New("not a BMAD project")

// Config keys. The artifact keys match the BMM module config; the rest are
// only read from the environment.
const (
	KeyPlanningArtifacts       = "planning_artifacts"
	KeyImplementationArtifacts = "implementation_artifacts"
	KeyBDPath                  = "bd_path"
	KeyBDTimeout               = "bd_timeout"
	KeyStageLabelPrefix        = "stage_label_prefix"
)

const projectRootVar = "{project-root}"

// Config is the resolved configuration for one project.
type Config struct {
	ProjectDir              string
	PlanningArtifacts       string // relative to ProjectDir unless absolute
	ImplementationArtifacts string
	BDPath                  string // empty means the provisioned wrapper, else bd on PATH
	BDTimeout               time.Duration
	StageLabelPrefix        string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault(KeyPlanningArtifacts, "docs/project-planning-artifacts")
	v.SetDefault(KeyImplementationArtifacts, "docs/implementation-artifacts")
	v.SetDefault(KeyBDPath, "")
	v.SetDefault(KeyBDTimeout, "30s")
	v.SetDefault(KeyStageLabelPrefix, types.LabelStagePrefix)

	// BMAD_BD_PATH, BMAD_BD_TIMEOUT, BMAD_STAGE_LABEL_PREFIX, ...
	v.SetEnvPrefix("BMAD")
	v.AutomaticEnv()
	return v
}

// Load reads the configuration for projectDir. It fails with
// ErrNotBMADProject when projectDir has no _bmad directory. A missing BMM
// config file is not an error.
func Load(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}
	if info, err := os.Stat(filepath.Join(abs, BMADDir)); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: no %s directory in %s", ErrNotBMADProject, BMADDir, abs)
	}

	v := newViper()
	configPath := filepath.Join(abs, BMADDir, "bmm", "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
	}

	timeout, err := time.ParseDuration(v.GetString(KeyBDTimeout))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid %s %q: must be a positive duration like 30s", KeyBDTimeout, v.GetString(KeyBDTimeout))
	}

	cfg := &Config{
		ProjectDir:              abs,
		PlanningArtifacts:       artifactPath(v.GetString(KeyPlanningArtifacts)),
		ImplementationArtifacts: artifactPath(v.GetString(KeyImplementationArtifacts)),
		BDPath:                  v.GetString(KeyBDPath),
		BDTimeout:               timeout,
		StageLabelPrefix:        v.GetString(KeyStageLabelPrefix),
	}
	return cfg, nil
}

// artifactPath strips the "{project-root}/" placeholder BMAD installers write.
func artifactPath(p string) string {
	p = strings.TrimSpace(p)
	if rest, ok := strings.CutPrefix(p, projectRootVar); ok {
		p = strings.TrimLeft(rest, `/\`)
	}
	return filepath.FromSlash(p)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

// BMADPath is the project's _bmad directory.
func (c *Config) BMADPath() string {
	return filepath.Join(c.ProjectDir, BMADDir)
}

// PlanningDir is the absolute planning artifacts directory.
func (c *Config) PlanningDir() string {
	return c.resolve(c.PlanningArtifacts)
}

// ImplementationDir is the absolute implementation artifacts directory.
func (c *Config) ImplementationDir() string {
	return c.resolve(c.ImplementationArtifacts)
}

// EpicsSource is epics.md, or the sharded epics/ directory when only that exists.
func (c *Config) EpicsSource() string {
	return document.EpicsSource(c.PlanningDir())
}

// StoryDir holds one markdown file per story.
func (c *Config) StoryDir() string {
	return filepath.Join(c.ImplementationDir(), "stories")
}

// LedgerPath is the sprint-status.yaml file.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.ImplementationDir(), ledger.FileName)
}

// Layout locates the provisioned Beads CLI.
func (c *Config) Layout() provision.Layout {
	return provision.Layout{BMADDir: c.BMADPath()}
}

// TrackerPath returns the bd executable to run: the configured path, else
// the provisioned wrapper if present, else "bd" on PATH.
func (c *Config) TrackerPath() string {
	if c.BDPath != "" {
		return c.BDPath
	}
	local := c.Layout().LocalBD()
	if _, err := os.Stat(local); err == nil {
		return local
	}
	return "bd"
}

// WatchDirs are the directories reconcile --watch observes.
func (c *Config) WatchDirs() []string {
	return []string{c.PlanningDir(), filepath.Join(c.PlanningDir(), "epics"), c.ImplementationDir(), c.StoryDir()}
}
