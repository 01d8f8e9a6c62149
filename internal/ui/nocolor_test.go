package ui

import (
	"os"
	"testing"
)

// unsetNoColor removes NO_COLOR for the duration of the test. NO_COLOR is
// honored when set to any value, so t.Setenv("NO_COLOR", "") is not enough.
func unsetNoColor(t *testing.T) {
	t.Helper()
	old, had := os.LookupEnv("NO_COLOR")
	_ = os.Unsetenv("NO_COLOR")
	t.Cleanup(func() {
		if had {
			_ = os.Setenv("NO_COLOR", old)
		}
	})
}
