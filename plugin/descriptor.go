package plugin

import (
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	"github.com/ncatbot/core/errors"
)

// Descriptor is a discovered plugin's static metadata (§3.1 "Plugin
// descriptor"), before any code has run.
type Descriptor struct {
	Name         string
	Version      *semver.Version
	Author       string
	Description  string
	Dependencies map[string]string // name -> semver range
	SourcePath   string            // the plugin's own directory
	WorkspaceDir string            // <workspace-root>/<name>, created at Initialization
	EntrySymbol  string
	Manifest     *Manifest

	State State
	// FailReason is set when Resolve excludes this descriptor from the load
	// order (StateFailed); nil otherwise.
	FailReason error
}

// NewDescriptor discovers dir as a plugin candidate, parsing its
// manifest.toml (§4.5 Discovery).
func NewDescriptor(dir, workspaceRoot string) (*Descriptor, error) {
	m, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}
	version, err := semver.NewVersion(m.Version)
	if err != nil {
		return nil, errors.ConfigError(err, "plugin %s declares invalid version", m.Name)
	}
	return &Descriptor{
		Name:         m.Name,
		Version:      version,
		Author:       m.Author,
		Description:  m.Description,
		Dependencies: m.Dependencies,
		SourcePath:   dir,
		WorkspaceDir: filepath.Join(workspaceRoot, m.Name),
		EntrySymbol:  entrySymbol(m),
		Manifest:     m,
		State:        StateDiscovered,
	}, nil
}
