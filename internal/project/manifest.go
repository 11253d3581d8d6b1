package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file that marks a Reef project root.
const ManifestName = "reef.toml"

// SourceDir is the directory under the project root holding module sources.
const SourceDir = "src"

// Repository points at the hosting platform of the project sources.
type Repository struct {
	User     string `toml:"user"`
	Project  string `toml:"project"`
	Platform string `toml:"platform"`
}

// Manifest describes a project's reef.toml.
type Manifest struct {
	Project struct {
		Name        string `toml:"name"`
		Version     string `toml:"version"`
		Description string `toml:"description"`
	} `toml:"project"`
	Repository *Repository `toml:"repository"`
}

var (
	// ErrProjectSectionMissing indicates that [project] is missing in a manifest.
	ErrProjectSectionMissing = errors.New("missing [project]")
	// ErrProjectNameMissing indicates that [project].name is missing.
	ErrProjectNameMissing = errors.New("missing [project].name")
)

// LoadManifest parses a reef.toml manifest.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("project") {
		return Manifest{}, fmt.Errorf("%s: %w", path, ErrProjectSectionMissing)
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(m.Project.Name) == "" {
		return Manifest{}, fmt.Errorf("%s: %w", path, ErrProjectNameMissing)
	}
	return m, nil
}

// SourceURL returns the repository's browse URL, or "" when unset.
func (r *Repository) SourceURL() string {
	if r == nil || r.User == "" || r.Project == "" {
		return ""
	}
	platform := r.Platform
	if platform == "" {
		platform = "github"
	}
	return fmt.Sprintf("https://%s.com/%s/%s", platform, r.User, r.Project)
}
