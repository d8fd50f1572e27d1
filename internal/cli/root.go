// Package cli implements the cobra-based command line for release-publisher.
//
// The root command is the publish operation itself; there are no
// subcommands. This file defines the root command, global flags, and the
// translation of errors into exit codes.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/release-publisher/internal/config"
	"github.com/shinji-kodama/release-publisher/internal/model"
)

// Global flag variables, bound to persistent flags on the root command.
var (
	// jsonOutput switches the result and error output to JSON and
	// suppresses the text progress trace.
	jsonOutput bool

	// verbose enables [verbose] diagnostics on stderr.
	verbose bool
)

// Version, Commit, and Date describe the build. The main package copies
// its ldflags-injected values into them before NewRootCommand runs.
var (
	// Version is the semantic version of the binary (e.g., "v1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "release-publisher",
		Short: "Tag and push a release from the version in the project manifest",
		Long: `release-publisher reads the version from the project manifest
(package.json by default), checks that it is well formed (vMAJOR.MINOR.PATCH),
not already tagged, and that the working tree is clean, then creates the tag
and pushes commits and tags to the remote.

Every step is printed as it runs. The first failure aborts the run; nothing
is rolled back, so a tag created before a failed push stays local.

Examples:
  release-publisher
  release-publisher --dry-run
  release-publisher --manifest Chart.yaml -m "Release notes in CHANGELOG.md"
  release-publisher --repo ../my-app --remote upstream`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd)
		},

		// Errors are printed by Run, in text or JSON.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	config.RegisterFlags(rootCmd.Flags())

	return rootCmd
}

// Execute runs the root command and exits the process with the
// resulting exit code. This is the entry point called from main.go.
func Execute(rootCmd *cobra.Command) {
	os.Exit(int(Run(rootCmd)))
}

// Run executes the root command and returns the exit code it maps to.
// Errors are printed to the command's error writer.
//
// CLIError values carry their own exit codes; other errors (flag parsing,
// configuration) default to ExitGeneralError.
func Run(rootCmd *cobra.Command) model.ExitCode {
	err := rootCmd.Execute()
	if err == nil {
		return model.ExitSuccess
	}

	code := model.ExitCodeOf(err)
	printError(rootCmd.ErrOrStderr(), err, code)
	return code
}

// printError writes err to w in the format selected by --json.
//
// The JSON form is {"error": {"kind": ..., "code": ..., "message": ...}}
// on a single object, written to stderr like the text form so that stdout
// only ever carries a successful result.
func printError(w io.Writer, err error, code model.ExitCode) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"kind":    code.String(),
				"code":    int(code),
				"message": err.Error(),
			},
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	fmt.Fprintf(w, "Error: %v\n", err)
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}
