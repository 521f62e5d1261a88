package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "bt_uin: \"12345\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "12345", cfg.BtUin)
	assert.Equal(t, "plugins", cfg.PluginDir)
	assert.Equal(t, "ws://127.0.0.1:3001", cfg.Napcat.WSURI)
}

func TestLoadOverridesDefaultsFromFile(t *testing.T) {
	path := writeConfig(t, "plugin_dir: custom-plugins\nnapcat:\n  ws_uri: ws://example:8080\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom-plugins", cfg.PluginDir)
	assert.Equal(t, "ws://example:8080", cfg.Napcat.WSURI)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	path := writeConfig(t, "plugin_dir: plugins\n")
	t.Setenv("NCATBOT_PLUGIN_DIR", "env-plugins")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-plugins", cfg.PluginDir)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestValidateRejectsWeakTokenWhenListeningPublicly(t *testing.T) {
	cfg := &BotConfig{ListenAll: true, Napcat: NapcatConfig{WSToken: "weak"}}
	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidateAllowsStrongTokenWhenListeningPublicly(t *testing.T) {
	cfg := &BotConfig{ListenAll: true, Napcat: NapcatConfig{WSToken: "Str0ng!Passw0rd"}}
	assert.NoError(t, Validate(cfg))
}

func TestValidateAllowsWeakTokenWhenNotListeningPublicly(t *testing.T) {
	cfg := &BotConfig{ListenAll: false, Napcat: NapcatConfig{WSToken: "weak"}}
	assert.NoError(t, Validate(cfg))
}

func TestPluginConfigPath(t *testing.T) {
	assert.Equal(t, "data/echo/echo.yaml", PluginConfigPath("data", "echo"))
}

type pluginCfg struct {
	Greeting string `yaml:"greeting"`
}

func TestSaveAndLoadPluginConfigRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "echo", "echo.yaml")

	require.NoError(t, SavePluginConfig(path, &pluginCfg{Greeting: "hi"}))

	var loaded pluginCfg
	require.NoError(t, LoadPluginConfig(path, &loaded))
	assert.Equal(t, "hi", loaded.Greeting)
}

func TestLoadPluginConfigMissingFileIsNoop(t *testing.T) {
	var loaded pluginCfg
	err := LoadPluginConfig("/nonexistent/plugin.yaml", &loaded)
	assert.NoError(t, err)
	assert.Equal(t, pluginCfg{}, loaded)
}
