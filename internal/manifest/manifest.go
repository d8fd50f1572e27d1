// Package manifest reads the release version from a project manifest.
//
// JSON manifests (package.json, composer.json, ...) may contain comments
// and trailing commas, so this package uses github.com/tidwall/jsonc to
// strip them before handing the bytes to encoding/json. YAML manifests
// (Chart.yaml, pubspec.yaml, ...) are parsed with gopkg.in/yaml.v3.
//
// Only the top-level "version" key is read. All other content is ignored.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/release-publisher/internal/model"
)

// DefaultFileName is the manifest read when no path is configured.
const DefaultFileName = "package.json"

// VersionKey is the top-level key holding the release version.
const VersionKey = "version"

// Format identifies the manifest encoding.
type Format string

const (
	// FormatJSON is JSON with optional JSONC comments and trailing commas.
	FormatJSON Format = "json"

	// FormatYAML is a YAML document whose root is a mapping.
	FormatYAML Format = "yaml"
)

// Manifest is the subset of a project manifest the publisher needs.
type Manifest struct {
	// Path is the file the manifest was read from.
	Path string

	// Format is the encoding detected from the file extension.
	Format Format

	// Version is the raw, unvalidated value of the "version" key.
	Version string
}

// DetectFormat picks the manifest format from the file extension.
// Unknown extensions are treated as JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads the manifest at path and extracts its "version" field.
//
// Returns a CLIError with ExitManifestError if the file is missing or
// unreadable, cannot be parsed, or has no string "version" field.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitManifestError,
				fmt.Sprintf("manifest not found: %s", path),
				err,
			)
		}
		return nil, model.WrapCLIError(
			model.ExitManifestError,
			fmt.Sprintf("failed to read manifest %s", path),
			err,
		)
	}

	format := DetectFormat(path)
	fields, err := decode(data, format)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitManifestError,
			fmt.Sprintf("failed to parse %s manifest %s", format, path),
			err,
		)
	}

	raw, ok := fields[VersionKey]
	if !ok {
		return nil, model.NewCLIError(
			model.ExitManifestError,
			fmt.Sprintf("manifest %s has no %q field", path, VersionKey),
		)
	}
	v, ok := raw.(string)
	if !ok {
		return nil, model.NewCLIError(
			model.ExitManifestError,
			fmt.Sprintf("manifest %s: %q must be a string, got %T", path, VersionKey, raw),
		)
	}

	return &Manifest{Path: path, Format: format, Version: v}, nil
}

// decode parses the manifest root into a generic map. A root that is not
// an object/mapping is a parse error.
func decode(data []byte, format Format) (map[string]any, error) {
	var fields map[string]any

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return nil, err
		}
	default:
		// encoding/json rejects comments, so strip them first.
		if err := json.Unmarshal(jsonc.ToJSON(data), &fields); err != nil {
			return nil, err
		}
	}

	// An empty YAML document or a JSON "null" decodes to a nil map.
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
