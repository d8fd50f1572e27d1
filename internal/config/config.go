// Package config resolves the settings for a release run from command-line
// flags and RELEASE_PUBLISHER_* environment variables.
//
// Precedence, highest first: explicitly set flags, environment variables,
// flag defaults. There is no config file; the manifest is the only file
// the tool reads.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shinji-kodama/release-publisher/internal/git"
	"github.com/shinji-kodama/release-publisher/internal/manifest"
)

// EnvPrefix is prepended to every environment variable, e.g.
// RELEASE_PUBLISHER_PUSH_TIMEOUT.
const EnvPrefix = "RELEASE_PUBLISHER"

// Flag names double as viper keys.
const (
	KeyManifest     = "manifest"
	KeyRepo         = "repo"
	KeyRemote       = "remote"
	KeyMessage      = "message"
	KeyDryRun       = "dry-run"
	KeyQueryTimeout = "query-timeout"
	KeyPushTimeout  = "push-timeout"
)

// Config holds the resolved settings for one release run.
type Config struct {
	// RepoRoot is the absolute path of the repository to release.
	RepoRoot string

	// ManifestPath is the manifest file, resolved against RepoRoot when
	// it was given as a relative path.
	ManifestPath string

	// Remote is the remote to push to; empty means the upstream.
	Remote string

	// TagMessage makes the tag annotated when non-empty.
	TagMessage string

	// DryRun stops before the tag is created.
	DryRun bool

	// QueryTimeout bounds local git calls.
	QueryTimeout time.Duration

	// PushTimeout bounds git calls that contact the remote.
	PushTimeout time.Duration
}

// RegisterFlags defines the release flags on fs with their defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyManifest, manifest.DefaultFileName, "Manifest file holding the version (relative to --repo)")
	fs.String(KeyRepo, ".", "Repository root")
	fs.String(KeyRemote, "", "Remote to push to (default: the branch's upstream)")
	fs.StringP(KeyMessage, "m", "", "Create an annotated tag with this message")
	fs.Bool(KeyDryRun, false, "Run all checks but do not tag or push")
	fs.Duration(KeyQueryTimeout, git.DefaultQueryTimeout, "Timeout for local git commands")
	fs.Duration(KeyPushTimeout, git.DefaultPushTimeout, "Timeout for git push commands")
}

// Load resolves a Config from the flags registered by RegisterFlags and
// the environment, then validates it.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("binding flags: %w", err)
	}

	cfg := Config{
		RepoRoot:     v.GetString(KeyRepo),
		ManifestPath: v.GetString(KeyManifest),
		Remote:       v.GetString(KeyRemote),
		TagMessage:   v.GetString(KeyMessage),
		DryRun:       v.GetBool(KeyDryRun),
		QueryTimeout: v.GetDuration(KeyQueryTimeout),
		PushTimeout:  v.GetDuration(KeyPushTimeout),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	root, err := filepath.Abs(cfg.RepoRoot)
	if err != nil {
		return Config{}, fmt.Errorf("resolving repository root %q: %w", cfg.RepoRoot, err)
	}
	cfg.RepoRoot = root
	if !filepath.IsAbs(cfg.ManifestPath) {
		cfg.ManifestPath = filepath.Join(root, cfg.ManifestPath)
	}

	return cfg, nil
}

// Validate checks that all settings are usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.RepoRoot) == "" {
		return fmt.Errorf("invalid %s: must not be empty", KeyRepo)
	}
	if strings.TrimSpace(c.ManifestPath) == "" {
		return fmt.Errorf("invalid %s: must not be empty", KeyManifest)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("invalid %s: must be positive, got %s", KeyQueryTimeout, c.QueryTimeout)
	}
	if c.PushTimeout <= 0 {
		return fmt.Errorf("invalid %s: must be positive, got %s", KeyPushTimeout, c.PushTimeout)
	}
	return nil
}

// GitOptions returns the git client options for this configuration.
func (c Config) GitOptions() git.Options {
	return git.Options{
		Remote:       c.Remote,
		QueryTimeout: c.QueryTimeout,
		PushTimeout:  c.PushTimeout,
	}
}
