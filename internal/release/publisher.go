// Package release implements the release publisher: the strictly
// sequential chain that turns a manifest version into a pushed git tag.
//
// Orchestration steps:
//  1. Read the version from the manifest
//  2. Validate the version format
//  3. Fetch existing tags
//  4. Reject a version that is already tagged
//  5. Reject a dirty working tree
//  6. Create the tag
//  7. Push commits
//  8. Push tags
//
// Every step is fail-fast: the first error aborts the run and nothing is
// retried or rolled back. If the tag is created and a push then fails,
// the local tag remains and must be removed by hand (git tag -d <tag>).
package release

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/shinji-kodama/release-publisher/internal/manifest"
	"github.com/shinji-kodama/release-publisher/internal/model"
	"github.com/shinji-kodama/release-publisher/internal/version"
)

// VCS is the version-control capability the publisher needs. It is
// implemented by *git.Client; tests substitute an in-memory fake.
//
// CreateTag, Push and PushTags return git's output for the progress trace.
type VCS interface {
	ListTags(ctx context.Context) ([]string, error)
	Status(ctx context.Context) (string, error)
	CreateTag(ctx context.Context, name, message string) (string, error)
	Push(ctx context.Context) (string, error)
	PushTags(ctx context.Context) (string, error)
}

// Options configures a single release run.
type Options struct {
	// ManifestPath is the manifest file to read the version from.
	ManifestPath string

	// Remote is reported in the Result. The VCS implementation decides
	// where pushes actually go.
	Remote string

	// TagMessage, when non-empty, makes the release tag annotated.
	TagMessage string

	// DryRun stops the run before the first mutating step, so only the
	// checks run.
	DryRun bool
}

// Publisher runs the release chain against a VCS.
type Publisher struct {
	vcs  VCS
	opts Options
	out  io.Writer
}

// NewPublisher creates a Publisher. Progress is written to out; a nil
// writer discards it.
func NewPublisher(vcs VCS, opts Options, out io.Writer) *Publisher {
	if out == nil {
		out = io.Discard
	}
	return &Publisher{vcs: vcs, opts: opts, out: out}
}

// Publish runs the release chain and returns a summary of the steps that
// completed. On failure the returned error is a *model.CLIError whose
// Code identifies the failing error kind; the printed trace shows how
// far the run got.
func (p *Publisher) Publish(ctx context.Context) (*model.Result, error) {
	result := &model.Result{
		ManifestPath: p.opts.ManifestPath,
		Remote:       p.opts.Remote,
		Annotated:    p.opts.TagMessage != "",
		DryRun:       p.opts.DryRun,
	}

	// Step 1: read the manifest. No VCS call happens before the version
	// has been read and validated.
	p.printf("Fetching version from %s", p.opts.ManifestPath)
	m, err := manifest.Load(p.opts.ManifestPath)
	if err != nil {
		return nil, err
	}
	p.printf("Version found in %s is %s", p.opts.ManifestPath, m.Version)
	result.Steps = append(result.Steps, model.StepReadManifest)

	// Step 2: validate.
	v, err := version.Parse(m.Version)
	if err != nil {
		return nil, err
	}
	result.Version = v.String()
	result.Tag = v.String()
	result.Steps = append(result.Steps, model.StepValidate)

	// Step 3: fetch tags.
	p.printf("Fetching tags from git")
	tags, err := p.vcs.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	result.Steps = append(result.Steps, model.StepFetchTags)

	// Step 4: reject a version that is already tagged.
	p.printf("Checking new version against previous versions")
	if slices.Contains(tags, v.String()) {
		return nil, model.NewCLIError(
			model.ExitDuplicateVersion,
			fmt.Sprintf("%s already exists as a tag", v),
		)
	}
	result.Steps = append(result.Steps, model.StepCheckDuplicate)

	// Step 5: reject a dirty working tree. The raw status is part of the
	// message so the operator can see what is uncommitted.
	p.printf("Checking that git working directory is clean")
	status, err := p.vcs.Status(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" {
		return nil, model.NewCLIError(
			model.ExitDirtyWorkingTree,
			"you have uncommitted changes or untracked files in your working directory:\n"+
				strings.TrimRight(status, "\n"),
		)
	}
	result.Steps = append(result.Steps, model.StepCheckClean)

	if p.halts(model.StepCreateTag) {
		p.printf("Dry run: would create git tag %s and push commits and tags", v)
		return result, nil
	}

	// Step 6: create the tag.
	if p.opts.TagMessage != "" {
		p.printf("Creating annotated git tag %s (git tag -a '%s' -m ...)", v, v)
	} else {
		p.printf("Creating git tag %s (git tag '%s')", v, v)
	}
	out, err := p.vcs.CreateTag(ctx, v.String(), p.opts.TagMessage)
	if err != nil {
		return nil, err
	}
	p.output(out)
	result.Steps = append(result.Steps, model.StepCreateTag)

	// Step 7: push commits. From here on, a failure leaves the local tag
	// in place.
	p.printf("Pushing git commits (git push)")
	out, err = p.vcs.Push(ctx)
	if err != nil {
		return nil, p.tagLeftBehind(v, err)
	}
	p.output(out)
	result.Steps = append(result.Steps, model.StepPushCommits)

	// Step 8: push tags.
	p.printf("Pushing git tags (git push --tags)")
	out, err = p.vcs.PushTags(ctx)
	if err != nil {
		return nil, p.tagLeftBehind(v, err)
	}
	p.output(out)
	result.Steps = append(result.Steps, model.StepPushTags)

	p.printf("Done")
	result.Steps = append(result.Steps, model.StepDone)
	return result, nil
}

// halts reports whether the run must stop before step: a dry run stops
// before the first step that changes repository state.
func (p *Publisher) halts(step model.Step) bool {
	return p.opts.DryRun && step.Mutating()
}

// tagLeftBehind tells the operator that a push failed after the tag was
// created locally, then returns err unchanged.
func (p *Publisher) tagLeftBehind(v version.Version, err error) error {
	p.printf("Local tag %s was created but not pushed; remove it with: git tag -d %s", v, v)
	return err
}

func (p *Publisher) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// output echoes git's output, skipping it entirely when there is none.
func (p *Publisher) output(s string) {
	if s = strings.TrimRight(s, "\n"); s != "" {
		fmt.Fprintln(p.out, s)
	}
}
