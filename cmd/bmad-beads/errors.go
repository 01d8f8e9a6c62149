package main

import (
	"fmt"
	"os"
)

// FatalError writes an error message to stderr and exits with code 1.
// Use this for fatal errors that prevent the command from completing.
func FatalError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	exit(1)
}

// FatalErrorWithHint writes an error message with a hint to stderr and exits.
func FatalErrorWithHint(message, hint string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	exit(1)
}

// WarnError writes a warning message to stderr and returns.
// Use this for auxiliary steps whose failure does not affect the result.
func WarnError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

// fail reports err as JSON with --json, else as plain text, and exits.
func fail(err error, code string) {
	if jsonOutput {
		outputJSONError(err, code)
	}
	FatalError("%v", err)
}

func failWithHint(err error, code, hint string) {
	if jsonOutput {
		outputJSONError(err, code)
	}
	FatalErrorWithHint(err.Error(), hint)
}
