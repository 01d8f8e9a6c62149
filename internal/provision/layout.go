package provision

import (
	"path/filepath"
	"runtime"
)

// Paths relative to the BMAD directory.
const (
	ToolsDir = "_tools/beads"
	BinDir   = "bin"
	// Package is the npm package that ships bd.
	Package = "@beads/bd"
)

// Layout locates the provisioned files under a BMAD directory (_bmad).
type Layout struct {
	BMADDir string
	GOOS    string // runtime.GOOS if empty
}

func (l Layout) windows() bool {
	goos := l.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	return goos == "windows"
}

// ToolsPath is the npm project directory holding package.json and node_modules.
func (l Layout) ToolsPath() string {
	return filepath.Join(l.BMADDir, filepath.FromSlash(ToolsDir))
}

// BinPath is the directory holding the wrapper scripts.
func (l Layout) BinPath() string {
	return filepath.Join(l.BMADDir, BinDir)
}

// LocalBD is the wrapper script callers should invoke on this platform.
func (l Layout) LocalBD() string {
	if l.windows() {
		return filepath.Join(l.BinPath(), "bd.cmd")
	}
	return filepath.Join(l.BinPath(), "bd")
}

// NodeModulesBD is the launcher npm installs for the package.
func (l Layout) NodeModulesBD() string {
	dir := filepath.Join(l.ToolsPath(), "node_modules", ".bin")
	if l.windows() {
		return filepath.Join(dir, "bd.cmd")
	}
	return filepath.Join(dir, "bd")
}
