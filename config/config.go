// Package config loads the bot's layered configuration (defaults -> file ->
// NCATBOT_-prefixed environment overrides) via viper, and the per-plugin
// config documents loaded/saved around a plugin's on_load/on_close (§6.3).
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ncatbot/core/errors"
)

// NapcatConfig is the gateway sub-section of BotConfig.
type NapcatConfig struct {
	WSURI   string `mapstructure:"ws_uri" yaml:"ws_uri"`
	WSToken string `mapstructure:"ws_token" yaml:"ws_token"`
}

// BotConfig is the main configuration document (§6.3).
type BotConfig struct {
	BtUin     string       `mapstructure:"bt_uin" yaml:"bt_uin"`
	RootUin   string       `mapstructure:"root_uin" yaml:"root_uin"`
	WebUIURI  string       `mapstructure:"webui_uri" yaml:"webui_uri"`
	WebUIToken string      `mapstructure:"webui_token" yaml:"webui_token"`
	PluginDir string       `mapstructure:"plugin_dir" yaml:"plugin_dir"`
	DataDir   string       `mapstructure:"data_dir" yaml:"data_dir"`
	Debug     bool         `mapstructure:"debug" yaml:"debug"`
	ListenAll bool         `mapstructure:"listen_all" yaml:"listen_all"`
	Napcat    NapcatConfig `mapstructure:"napcat" yaml:"napcat"`
}

// SetDefaults installs the framework's default values into v before any
// file or env source is merged in, following the teacher's am.SetDefaults
// convention.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("plugin_dir", "plugins")
	v.SetDefault("data_dir", "data")
	v.SetDefault("debug", false)
	v.SetDefault("listen_all", false)
	v.SetDefault("napcat.ws_uri", "ws://127.0.0.1:3001")
}

// Load reads configuration from configPath (YAML per §6.3) layered over
// defaults and NCATBOT_-prefixed environment overrides, and validates the
// result (most importantly the token-strength policy for public listeners).
func Load(configPath string) (*BotConfig, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("NCATBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.ConfigError(err, "reading bot config from %s", configPath)
	}

	var cfg BotConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.ConfigError(err, "unmarshaling bot config")
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate applies the §6.3 token-strength policy: a WS listener bound to
// 0.0.0.0 (ListenAll) must carry a strong token.
func Validate(cfg *BotConfig) error {
	if cfg.ListenAll && !IsStrongToken(cfg.Napcat.WSToken) {
		return errors.ConfigError(
			errors.Newf("weak token on publicly-bound listener"),
			"napcat.ws_token must be >=12 chars with digit, lowercase, uppercase, and special char when listen_all is set",
		)
	}
	return nil
}

// PluginConfigPath returns the per-plugin config document path,
// <data-dir>/<plugin-name>/<plugin-name>.yaml (§6.3).
func PluginConfigPath(dataDir, pluginName string) string {
	return dataDir + "/" + pluginName + "/" + pluginName + ".yaml"
}

// LoadPluginConfig loads a plugin's YAML config document into dst (a
// pointer). If the file doesn't yet exist (first run) it returns nil and
// leaves dst untouched.
func LoadPluginConfig(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.ConfigError(err, "reading plugin config %s", path)
	}
	if err := yaml.Unmarshal(raw, dst); err != nil {
		return errors.ConfigError(err, "parsing plugin config %s", path)
	}
	return nil
}

// SavePluginConfig persists src as the plugin's YAML config document,
// creating parent directories as needed.
func SavePluginConfig(path string, src any) error {
	out, err := yaml.Marshal(src)
	if err != nil {
		return errors.ConfigError(err, "marshaling plugin config")
	}
	if err := os.MkdirAll(parentDir(path), 0o755); err != nil {
		return errors.ConfigError(err, "creating plugin config directory for %s", path)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return errors.ConfigError(err, "writing plugin config %s", path)
	}
	return nil
}

func parentDir(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}
	return path[:idx]
}
