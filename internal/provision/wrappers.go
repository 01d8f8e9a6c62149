package provision

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

const unixWrapper = `#!/bin/sh
# BMAD Beads CLI wrapper - auto-generated
# Invokes bd from the project-local installation.

SCRIPT_DIR="$(cd "$(dirname "$0")" && pwd)"
BD_PATH="%[1]s"

# Fall back to the path relative to this script if the project moved.
if [ ! -x "$BD_PATH" ]; then
  BD_PATH="$SCRIPT_DIR/../%[2]s/node_modules/.bin/bd"
fi

if [ ! -x "$BD_PATH" ]; then
  echo "Error: Beads CLI (bd) not found. Run bmad-beads provision." >&2
  exit 1
fi

exec "$BD_PATH" "$@"
`

const windowsWrapper = "@echo off\r\n" +
	"REM BMAD Beads CLI wrapper - auto-generated\r\n" +
	"REM Invokes bd from the project-local installation.\r\n" +
	"\r\n" +
	"set \"SCRIPT_DIR=%%~dp0\"\r\n" +
	"set \"BD_PATH=%[1]s\"\r\n" +
	"\r\n" +
	"if not exist \"%%BD_PATH%%\" (\r\n" +
	"  set \"BD_PATH=%%SCRIPT_DIR%%..\\%[2]s\\node_modules\\.bin\\bd.cmd\"\r\n" +
	")\r\n" +
	"\r\n" +
	"if not exist \"%%BD_PATH%%\" (\r\n" +
	"  echo Error: Beads CLI ^(bd^) not found. Run bmad-beads provision. >&2\r\n" +
	"  exit /b 1\r\n" +
	")\r\n" +
	"\r\n" +
	"\"%%BD_PATH%%\" %%*\r\n"

// writeWrappers writes both launchers into the bin directory. target is the
// absolute path of the installed binary; the scripts fall back to the path
// relative to themselves when it no longer exists.
func writeWrappers(l Layout, target string) error {
	unixPath := filepath.Join(l.BinPath(), "bd")
	unixScript := fmt.Sprintf(unixWrapper, target, ToolsDir)
	if err := atomic.WriteFile(unixPath, strings.NewReader(unixScript)); err != nil {
		return fmt.Errorf("failed to write %s: %w", unixPath, err)
	}
	// atomic.WriteFile does not set permissions on new files
	// #nosec G302 -- the wrapper must be executable
	if err := os.Chmod(unixPath, 0o755); err != nil {
		return fmt.Errorf("failed to make %s executable: %w", unixPath, err)
	}

	cmdPath := filepath.Join(l.BinPath(), "bd.cmd")
	cmdScript := fmt.Sprintf(windowsWrapper, target, strings.ReplaceAll(ToolsDir, "/", `\`))
	if err := atomic.WriteFile(cmdPath, strings.NewReader(cmdScript)); err != nil {
		return fmt.Errorf("failed to write %s: %w", cmdPath, err)
	}
	return nil
}
