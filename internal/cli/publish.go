// publish.go wires configuration, the git client and the
// release publisher together for the root command.

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/release-publisher/internal/config"
	"github.com/shinji-kodama/release-publisher/internal/git"
	"github.com/shinji-kodama/release-publisher/internal/model"
	"github.com/shinji-kodama/release-publisher/internal/release"
)

// runPublish resolves the configuration and runs one release.
func runPublish(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid configuration", err)
	}
	VerboseLog("Repository root: %s", cfg.RepoRoot)
	VerboseLog("Manifest: %s", cfg.ManifestPath)
	VerboseLog("Timeouts: query %s, push %s", cfg.QueryTimeout, cfg.PushTimeout)
	if cfg.Remote != "" {
		VerboseLog("Remote: %s", cfg.Remote)
	}

	client := git.NewClient(cfg.RepoRoot, cfg.GitOptions())

	// The progress trace is the text output; JSON mode prints only the
	// final result.
	var trace io.Writer = cmd.OutOrStdout()
	if IsJSONOutput() {
		trace = io.Discard
	}

	publisher := release.NewPublisher(client, release.Options{
		ManifestPath: cfg.ManifestPath,
		Remote:       client.Remote(),
		TagMessage:   cfg.TagMessage,
		DryRun:       cfg.DryRun,
	}, trace)

	result, err := publisher.Publish(cmd.Context())
	if err != nil {
		return err
	}
	VerboseLog("Completed steps: %v", result.Steps)

	if IsJSONOutput() {
		return printResultJSON(cmd.OutOrStdout(), result)
	}
	return nil
}

// printResultJSON writes the release result as indented JSON.
func printResultJSON(w io.Writer, result *model.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
