// Package main is the entry point for the release-publisher CLI.
//
// It delegates all functionality to the internal/cli package, which
// defines the cobra command.
//
// Build-time variables (version, commit, date) are injected via ldflags
// by GoReleaser during the release process. During development, they
// default to "dev", "none", and "unknown" respectively.
package main

import (
	"github.com/shinji-kodama/release-publisher/internal/cli"
)

// version, commit, and date are set by GoReleaser at build time
// via ldflags. They are shown by the --version flag.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Must be set before NewRootCommand, which formats the version string.
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	cli.Execute(cli.NewRootCommand())
}
