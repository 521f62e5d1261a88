package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(contents), 0o644))
}

func TestLoadManifestParsesRequiredFields(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
name = "echo"
version = "1.0.0"
author = "alice"
`)
	m, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "echo", m.Name)
	assert.Equal(t, "plugin.go", m.Main)
}

func TestLoadManifestRejectsMissingName(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `version = "1.0.0"`)
	_, err := LoadManifest(dir)
	assert.Error(t, err)
}

func TestLoadManifestRejectsInvalidVersion(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
name = "echo"
version = "not-a-version"
`)
	_, err := LoadManifest(dir)
	assert.Error(t, err)
}

func TestLoadManifestKeepsExplicitMain(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
name = "echo"
version = "1.0.0"
main = "entry.go"
`)
	m, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "entry.go", m.Main)
}

func TestNewDescriptorUsesEntryClassWhenSet(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
name = "echo"
version = "1.0.0"
entry_class = "custom.symbol"
`)
	desc, err := NewDescriptor(dir, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "custom.symbol", desc.EntrySymbol)
	assert.Equal(t, StateDiscovered, desc.State)
}

func TestNewDescriptorFallsBackToNameAsEntrySymbol(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
name = "echo"
version = "1.0.0"
`)
	desc, err := NewDescriptor(dir, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "echo", desc.EntrySymbol)
}
