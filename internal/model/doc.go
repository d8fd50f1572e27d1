// Package model defines the shared value types for the release-publisher CLI.
//
// This package contains pure data structures with no external dependencies:
// the release steps, the result of a successful run, and the exit codes and
// custom error type (CLIError) used to map failures onto process exit codes.
package model
