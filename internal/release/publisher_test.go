package release

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/release-publisher/internal/model"
)

// fakeVCS is an in-memory VCS that records every call in order.
// CreateTag adds the tag to the tag list, so a second run sees it.
type fakeVCS struct {
	tags   []string
	status string

	listErr, statusErr, tagErr, pushErr, pushTagsErr error

	calls      []string
	tagName    string
	tagMessage string
}

func (f *fakeVCS) ListTags(context.Context) ([]string, error) {
	f.calls = append(f.calls, "ListTags")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.tags...), nil
}

func (f *fakeVCS) Status(context.Context) (string, error) {
	f.calls = append(f.calls, "Status")
	return f.status, f.statusErr
}

func (f *fakeVCS) CreateTag(_ context.Context, name, message string) (string, error) {
	f.calls = append(f.calls, "CreateTag")
	if f.tagErr != nil {
		return "", f.tagErr
	}
	f.tagName, f.tagMessage = name, message
	f.tags = append(f.tags, name)
	return "", nil
}

func (f *fakeVCS) Push(context.Context) (string, error) {
	f.calls = append(f.calls, "Push")
	return "Everything up-to-date\n", f.pushErr
}

func (f *fakeVCS) PushTags(context.Context) (string, error) {
	f.calls = append(f.calls, "PushTags")
	return " * [new tag]         v2.0.0 -> v2.0.0\n", f.pushTagsErr
}

// writeManifest writes a package.json with the given body into a fresh
// temporary directory and returns its path.
func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "package.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// requireKind asserts that err is a CLIError of the given kind.
func requireKind(t *testing.T, err error, code model.ExitCode) {
	t.Helper()
	require.Error(t, err)
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, code, cliErr.Code, "unexpected error kind: %v", err)
}

// TestPublish_Success verifies the full chain: create-tag with exactly
// the manifest version, then push, then push-tags, in that order.
func TestPublish_Success(t *testing.T) {
	path := writeManifest(t, `{"name": "app", "version": "v2.0.0"}`)
	vcs := &fakeVCS{tags: []string{"v1.0.0", "v1.1.0"}}
	var out bytes.Buffer

	result, err := NewPublisher(vcs, Options{ManifestPath: path}, &out).Publish(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"ListTags", "Status", "CreateTag", "Push", "PushTags"}, vcs.calls)
	assert.Equal(t, "v2.0.0", vcs.tagName)
	assert.Empty(t, vcs.tagMessage)

	assert.Equal(t, path, result.ManifestPath)
	assert.Equal(t, "v2.0.0", result.Version)
	assert.Equal(t, "v2.0.0", result.Tag)
	assert.False(t, result.DryRun)
	assert.False(t, result.Annotated)
	assert.Equal(t, []model.Step{
		model.StepReadManifest,
		model.StepValidate,
		model.StepFetchTags,
		model.StepCheckDuplicate,
		model.StepCheckClean,
		model.StepCreateTag,
		model.StepPushCommits,
		model.StepPushTags,
		model.StepDone,
	}, result.Steps)

	trace := out.String()
	assert.Contains(t, trace, "Fetching version from "+path)
	assert.Contains(t, trace, "Version found in "+path+" is v2.0.0")
	assert.Contains(t, trace, "Creating git tag v2.0.0 (git tag 'v2.0.0')")
	assert.Contains(t, trace, "Everything up-to-date")
	assert.Contains(t, trace, "[new tag]")
	assert.Contains(t, trace, "Done\n")
}

// TestPublish_AnnotatedTag verifies that TagMessage is forwarded.
func TestPublish_AnnotatedTag(t *testing.T) {
	path := writeManifest(t, `{"version": "v1.0.0"}`)
	vcs := &fakeVCS{}

	result, err := NewPublisher(vcs, Options{ManifestPath: path, TagMessage: "First release"}, nil).
		Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "First release", vcs.tagMessage)
	assert.True(t, result.Annotated)
}

// TestPublish_Duplicate verifies that an existing tag is rejected before
// any tag-creation or push call.
func TestPublish_Duplicate(t *testing.T) {
	path := writeManifest(t, `{"version": "v1.2.3"}`)
	vcs := &fakeVCS{tags: []string{"v1.2.2", "v1.2.3"}}

	result, err := NewPublisher(vcs, Options{ManifestPath: path}, nil).Publish(context.Background())
	requireKind(t, err, model.ExitDuplicateVersion)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "v1.2.3 already exists as a tag")
	assert.Equal(t, []string{"ListTags"}, vcs.calls)
}

// TestPublish_DuplicateIsExactMatch verifies that tag membership is whole
// string equality, not a prefix or substring match.
func TestPublish_DuplicateIsExactMatch(t *testing.T) {
	path := writeManifest(t, `{"version": "v1.2.3"}`)
	vcs := &fakeVCS{tags: []string{"v1.2.30", "v1.2.3-rc.1", "release-v1.2.3"}}

	_, err := NewPublisher(vcs, Options{ManifestPath: path}, nil).Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", vcs.tagName)
}

// TestPublish_DirtyWorkingTree verifies that non-empty status output
// aborts the run with the raw status in the message and no tag created.
func TestPublish_DirtyWorkingTree(t *testing.T) {
	path := writeManifest(t, `{"version": "v2.0.0"}`)
	vcs := &fakeVCS{status: " M src/index.ts\n?? notes.txt\n"}

	_, err := NewPublisher(vcs, Options{ManifestPath: path}, nil).Publish(context.Background())
	requireKind(t, err, model.ExitDirtyWorkingTree)
	assert.Contains(t, err.Error(), " M src/index.ts\n?? notes.txt")
	assert.Equal(t, []string{"ListTags", "Status"}, vcs.calls)
	assert.Empty(t, vcs.tagName)
}

// TestPublish_Idempotence verifies that a second run with the same
// manifest version fails because the first run created the tag.
func TestPublish_Idempotence(t *testing.T) {
	path := writeManifest(t, `{"version": "v2.0.0"}`)
	vcs := &fakeVCS{}
	p := NewPublisher(vcs, Options{ManifestPath: path}, nil)

	_, err := p.Publish(context.Background())
	require.NoError(t, err)

	vcs.calls = nil
	_, err = p.Publish(context.Background())
	requireKind(t, err, model.ExitDuplicateVersion)
	assert.Equal(t, []string{"ListTags"}, vcs.calls)
}

// TestPublish_ManifestErrors verifies that manifest problems abort the
// run before any VCS call.
func TestPublish_ManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing version field", func(t *testing.T) string {
			return writeManifest(t, `{"name": "app"}`)
		}},
		{"missing file", func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "package.json")
		}},
		{"malformed file", func(t *testing.T) string {
			return writeManifest(t, `{"version": `)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vcs := &fakeVCS{}
			_, err := NewPublisher(vcs, Options{ManifestPath: tt.path(t)}, nil).Publish(context.Background())
			requireKind(t, err, model.ExitManifestError)
			assert.Empty(t, vcs.calls, "no VCS call may happen on a manifest error")
		})
	}
}

// TestPublish_InvalidVersion verifies that format validation happens
// before any VCS call.
func TestPublish_InvalidVersion(t *testing.T) {
	for _, v := range []string{"1.0.0", "v01.0.0", "v1.0", "v1.0.0-beta"} {
		t.Run(v, func(t *testing.T) {
			path := writeManifest(t, `{"version": "`+v+`"}`)
			vcs := &fakeVCS{}

			_, err := NewPublisher(vcs, Options{ManifestPath: path}, nil).Publish(context.Background())
			requireKind(t, err, model.ExitInvalidVersion)
			assert.Empty(t, vcs.calls)
		})
	}
}

// TestPublish_VersionControlFailures verifies fail-fast behavior: the
// first failing VCS call aborts the run and later calls never happen.
func TestPublish_VersionControlFailures(t *testing.T) {
	vcsErr := model.NewCLIError(model.ExitVersionControlError, "git failed")

	tests := []struct {
		name      string
		vcs       *fakeVCS
		wantCalls []string
		tagLeft   bool
	}{
		{
			name:      "list tags",
			vcs:       &fakeVCS{listErr: vcsErr},
			wantCalls: []string{"ListTags"},
		},
		{
			name:      "status",
			vcs:       &fakeVCS{statusErr: vcsErr},
			wantCalls: []string{"ListTags", "Status"},
		},
		{
			name:      "create tag",
			vcs:       &fakeVCS{tagErr: vcsErr},
			wantCalls: []string{"ListTags", "Status", "CreateTag"},
		},
		{
			name:      "push",
			vcs:       &fakeVCS{pushErr: vcsErr},
			wantCalls: []string{"ListTags", "Status", "CreateTag", "Push"},
			tagLeft:   true,
		},
		{
			name:      "push tags",
			vcs:       &fakeVCS{pushTagsErr: vcsErr},
			wantCalls: []string{"ListTags", "Status", "CreateTag", "Push", "PushTags"},
			tagLeft:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, `{"version": "v3.0.0"}`)
			var out bytes.Buffer

			result, err := NewPublisher(tt.vcs, Options{ManifestPath: path}, &out).Publish(context.Background())
			requireKind(t, err, model.ExitVersionControlError)
			assert.True(t, errors.Is(err, vcsErr))
			assert.Nil(t, result)
			assert.Equal(t, tt.wantCalls, tt.vcs.calls)
			assert.NotContains(t, out.String(), "Done")

			if tt.tagLeft {
				// No rollback: the tag stays and the operator is told how to remove it.
				assert.Contains(t, tt.vcs.tags, "v3.0.0")
				assert.Contains(t, out.String(), "git tag -d v3.0.0")
			} else {
				assert.NotContains(t, out.String(), "git tag -d")
			}
		})
	}
}

// TestPublish_DryRun verifies that a dry run performs every check but
// makes no mutating call.
func TestPublish_DryRun(t *testing.T) {
	path := writeManifest(t, `{"version": "v2.0.0"}`)
	vcs := &fakeVCS{}
	var out bytes.Buffer

	result, err := NewPublisher(vcs, Options{ManifestPath: path, DryRun: true, Remote: "upstream"}, &out).
		Publish(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"ListTags", "Status"}, vcs.calls)
	assert.True(t, result.DryRun)
	assert.Equal(t, "v2.0.0", result.Tag)
	assert.Equal(t, "upstream", result.Remote)
	assert.Equal(t, []model.Step{
		model.StepReadManifest,
		model.StepValidate,
		model.StepFetchTags,
		model.StepCheckDuplicate,
		model.StepCheckClean,
	}, result.Steps)
	for _, step := range result.Steps {
		assert.False(t, step.Mutating())
	}
	assert.NotContains(t, result.Steps, model.StepDone)
	assert.Contains(t, out.String(), "Dry run: would create git tag v2.0.0")
}

// TestPublish_DryRunStillChecksDuplicates verifies that a dry run reports
// the same failures a real run would.
func TestPublish_DryRunStillChecksDuplicates(t *testing.T) {
	path := writeManifest(t, `{"version": "v1.0.0"}`)
	vcs := &fakeVCS{tags: []string{"v1.0.0"}}

	_, err := NewPublisher(vcs, Options{ManifestPath: path, DryRun: true}, nil).Publish(context.Background())
	requireKind(t, err, model.ExitDuplicateVersion)
}
