// Package model defines the shared types for the release-publisher CLI.
//
// A release run is transient: nothing is persisted between runs, and every
// value here lives for the duration of a single invocation.
package model

import (
	"errors"
	"fmt"
)

// Step names one state in the linear release chain:
//
//	ReadManifest → Validate → FetchTags → CheckDuplicate → CheckClean
//	  → CreateTag → PushCommits → PushTags → Done
//
// Each step has a single failure exit and there are no back-edges.
type Step string

const (
	// StepReadManifest loads the version string from the manifest file.
	StepReadManifest Step = "read-manifest"

	// StepValidate checks the version string format.
	StepValidate Step = "validate"

	// StepFetchTags lists the tags that already exist in the repository.
	StepFetchTags Step = "fetch-tags"

	// StepCheckDuplicate rejects a version that is already tagged.
	StepCheckDuplicate Step = "check-duplicate"

	// StepCheckClean rejects a working tree with uncommitted or untracked files.
	StepCheckClean Step = "check-clean"

	// StepCreateTag creates the release tag.
	StepCreateTag Step = "create-tag"

	// StepPushCommits pushes the current branch to the remote.
	StepPushCommits Step = "push-commits"

	// StepPushTags pushes all local tags to the remote.
	StepPushTags Step = "push-tags"

	// StepDone is the terminal state of a successful run.
	StepDone Step = "done"
)

// Steps lists every working step in execution order. StepDone is not a
// working step; it is recorded once the last one succeeds.
var Steps = []Step{
	StepReadManifest,
	StepValidate,
	StepFetchTags,
	StepCheckDuplicate,
	StepCheckClean,
	StepCreateTag,
	StepPushCommits,
	StepPushTags,
}

// String returns the string representation of Step.
func (s Step) String() string {
	return string(s)
}

// Mutating reports whether the step changes local or remote repository
// state. A dry run stops before the first mutating step.
func (s Step) Mutating() bool {
	switch s {
	case StepCreateTag, StepPushCommits, StepPushTags:
		return true
	default:
		return false
	}
}

// Result summarizes a completed release run. It is printed as JSON when
// the --json flag is set.
type Result struct {
	// ManifestPath is the path the version was read from.
	ManifestPath string `json:"manifestPath"`

	// Version is the validated version string.
	Version string `json:"version"`

	// Tag is the tag that was created. Equal to Version unless DryRun is set,
	// in which case it is the tag that would have been created.
	Tag string `json:"tag"`

	// Annotated is true when the tag carries a message.
	Annotated bool `json:"annotated"`

	// Remote is the remote that was pushed to. Empty means the branch's
	// configured upstream.
	Remote string `json:"remote,omitempty"`

	// DryRun is true when the run stopped before creating the tag.
	DryRun bool `json:"dryRun"`

	// Steps lists the steps that completed, in execution order. A full
	// release ends with StepDone; a dry run ends with the last check.
	Steps []Step `json:"steps"`
}

// ExitCode defines the CLI exit codes. Each release error kind has its own
// code so scripts and CI systems can tell failures apart.
type ExitCode int

const (
	// ExitSuccess indicates the release completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error, including invalid
	// flags or configuration.
	ExitGeneralError ExitCode = 1

	// ExitManifestError indicates the manifest is missing, unreadable,
	// malformed, or has no string "version" field.
	ExitManifestError ExitCode = 2

	// ExitInvalidVersion indicates the manifest version does not match
	// the vMAJOR.MINOR.PATCH format.
	ExitInvalidVersion ExitCode = 3

	// ExitVersionControlError indicates a git command exited non-zero,
	// could not be started, or timed out.
	ExitVersionControlError ExitCode = 4

	// ExitDuplicateVersion indicates the version already exists as a tag.
	ExitDuplicateVersion ExitCode = 5

	// ExitDirtyWorkingTree indicates the working tree has uncommitted
	// changes or untracked files.
	ExitDirtyWorkingTree ExitCode = 6
)

// String returns the error kind name for the exit code.
func (c ExitCode) String() string {
	switch c {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "GeneralError"
	case ExitManifestError:
		return "ManifestError"
	case ExitInvalidVersion:
		return "InvalidVersionError"
	case ExitVersionControlError:
		return "VersionControlError"
	case ExitDuplicateVersion:
		return "DuplicateVersionError"
	case ExitDirtyWorkingTree:
		return "DirtyWorkingTreeError"
	default:
		return fmt.Sprintf("ExitCode(%d)", int(c))
	}
}

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate release failures into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS. It also identifies
	// the error kind.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ExitCodeOf returns the exit code carried by the outermost CLIError in
// err's chain. A nil error maps to ExitSuccess and any other error to
// ExitGeneralError.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return ExitGeneralError
}
