package config

import (
	"fmt"
	"os"
)

// Exit codes used by command entry points.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// Exitf writes a formatted error message to stderr and exits with ExitFailure.
func Exitf(format string, args ...any) {
	ExitCodef(ExitFailure, format, args...)
}

// ExitCodef writes a formatted error message to stderr and exits with code.
func ExitCodef(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
