package plugin

import (
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/ncatbot/core/errors"
)

// ManifestFile is the name every candidate plugin directory must contain
// (§4.5 Discovery).
const ManifestFile = "manifest.toml"

// Manifest is the parsed shape of a plugin's manifest.toml (§6.2).
type Manifest struct {
	Name         string            `toml:"name"`
	Version      string            `toml:"version"`
	Author       string            `toml:"author"`
	Description  string            `toml:"description"`
	Main         string            `toml:"main"`
	EntryClass   string            `toml:"entry_class"`
	Dependencies map[string]string `toml:"dependencies"`
}

// LoadManifest parses <dir>/manifest.toml, applying the default main path
// ("plugin.go") when the field is left unset.
func LoadManifest(dir string) (*Manifest, error) {
	var m Manifest
	path := filepath.Join(dir, ManifestFile)
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, errors.ConfigError(err, "parsing manifest %s", path)
	}
	if m.Name == "" {
		return nil, errors.ConfigError(errors.Newf("missing name"), "manifest %s", path)
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return nil, errors.ConfigError(err, "manifest %s declares invalid version %q", path, m.Version)
	}
	if m.Main == "" {
		m.Main = "plugin.go"
	}
	return &m, nil
}
