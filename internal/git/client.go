package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/shinji-kodama/release-publisher/internal/model"
)

const (
	// DefaultQueryTimeout bounds local git calls (tag, status).
	DefaultQueryTimeout = 1 * time.Second

	// DefaultPushTimeout bounds git calls that contact the remote.
	DefaultPushTimeout = 15 * time.Second
)

// Options configures a Client. Zero-valued timeouts fall back to the
// package defaults.
type Options struct {
	// Binary is the git executable to run. Defaults to "git" on PATH.
	Binary string

	// Remote is the remote to push to. Empty means the current branch's
	// configured upstream (plain `git push`).
	Remote string

	// QueryTimeout bounds ListTags, Status and CreateTag.
	QueryTimeout time.Duration

	// PushTimeout bounds Push and PushTags.
	PushTimeout time.Duration
}

// Client runs git commands against a single repository.
//
// The repository root is passed to git via -C on every call, so the
// process working directory is never changed.
type Client struct {
	repoPath string
	opts     Options
}

// NewClient creates a Client for the repository at repoPath.
func NewClient(repoPath string, opts Options) *Client {
	if opts.Binary == "" {
		opts.Binary = "git"
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	if opts.PushTimeout <= 0 {
		opts.PushTimeout = DefaultPushTimeout
	}
	return &Client{repoPath: repoPath, opts: opts}
}

// Remote returns the configured push remote, or "" for the upstream.
func (c *Client) Remote() string {
	return c.opts.Remote
}

// ListTags returns the names of all tags in the repository, one per
// line of `git tag` output.
func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	stdout, _, err := c.run(ctx, c.opts.QueryTimeout, "tag")
	if err != nil {
		return nil, err
	}
	return parseTagList(stdout), nil
}

// Status returns the raw `git status --porcelain` output. An empty
// string means the working tree is clean.
//
// Only stdout is considered: warnings git prints on stderr do not make
// the tree dirty.
func (c *Client) Status(ctx context.Context) (string, error) {
	stdout, _, err := c.run(ctx, c.opts.QueryTimeout, "status", "--porcelain")
	return stdout, err
}

// CreateTag creates a tag named name at HEAD. With an empty message the
// tag is lightweight; otherwise it is annotated with the message.
func (c *Client) CreateTag(ctx context.Context, name, message string) (string, error) {
	args := []string{"tag", name}
	if message != "" {
		args = []string{"tag", "-a", name, "-m", message}
	}
	return c.combined(ctx, c.opts.QueryTimeout, args...)
}

// Push pushes the current branch's commits.
func (c *Client) Push(ctx context.Context) (string, error) {
	return c.combined(ctx, c.opts.PushTimeout, c.pushArgs()...)
}

// PushTags pushes all local tags.
func (c *Client) PushTags(ctx context.Context) (string, error) {
	return c.combined(ctx, c.opts.PushTimeout, append(c.pushArgs(), "--tags")...)
}

func (c *Client) pushArgs() []string {
	if c.opts.Remote != "" {
		return []string{"push", c.opts.Remote}
	}
	return []string{"push"}
}

// combined runs a git command and returns stdout followed by stderr.
// git writes push progress to stderr, so both belong in the trace.
func (c *Client) combined(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	stdout, stderr, err := c.run(ctx, timeout, args...)
	if err != nil {
		return "", err
	}
	return stdout + stderr, nil
}

// run executes a git command bounded by timeout and returns its stdout
// and stderr separately.
//
// On failure it returns a model.CLIError with ExitVersionControlError,
// including the trimmed stderr in the message for diagnostics. A
// timeout is reported as such rather than as the kill signal's exit
// status.
func (c *Client) run(ctx context.Context, timeout time.Duration, args ...string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fullArgs := append([]string{"-C", c.repoPath}, args...)

	// #nosec G204: args are constructed internally, not from user input
	cmd := exec.CommandContext(ctx, c.opts.Binary, fullArgs...)

	// Never block waiting for credentials on a terminal that may not exist.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// A killed git may leave a child (ssh, credential helper) holding the
	// pipes open; don't wait on it forever.
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if err != nil {
		command := "git " + strings.Join(args, " ")

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", "", model.WrapCLIError(
				model.ExitVersionControlError,
				fmt.Sprintf("%s timed out after %s", command, timeout),
				ctx.Err(),
			)
		}

		message := fmt.Sprintf("%s failed", command)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			message = fmt.Sprintf("%s (exit code %d)", message, exitErr.ExitCode())
		}
		if out := strings.TrimSpace(stderr.String()); out != "" {
			message = fmt.Sprintf("%s: %s", message, out)
		}
		return "", "", model.WrapCLIError(model.ExitVersionControlError, message, err)
	}

	return stdout.String(), stderr.String(), nil
}

// parseTagList splits `git tag` output into tag names, dropping blank
// lines and surrounding whitespace.
func parseTagList(output string) []string {
	var tags []string
	for _, line := range strings.Split(output, "\n") {
		if tag := strings.TrimSpace(line); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
