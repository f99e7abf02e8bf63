package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Diff     DiffConfig
	Watch    WatchConfig
	UI       UIConfig
}

// DatabaseConfig holds sqlite settings for the recent-files history.
type DatabaseConfig struct {
	Path string
}

// DiffConfig bounds divergence computation.
type DiffConfig struct {
	// TimeoutMs caps how long a single diff may run. Past the cap the diff
	// engine returns a coarser edit script, never an error.
	TimeoutMs int `mapstructure:"timeout_ms"`
}

// WatchConfig controls the on-disk change watcher for the paired file.
type WatchConfig struct {
	Enabled    bool
	DebounceMs int `mapstructure:"debounce_ms"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	ShowSimilarity bool `mapstructure:"show_similarity"`
	TabWidth       int  `mapstructure:"tab_width"`
}

// Load reads configuration from file and env. Env var overrides use prefix TETHER_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "tether", "tether.db"))
	v.SetDefault("diff.timeout_ms", 1000)
	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.debounce_ms", 500)
	v.SetDefault("ui.show_similarity", true)
	v.SetDefault("ui.tab_width", 4)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("TETHER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "tether"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TETHER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := os.Getenv("TETHER_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "tether", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("diff.timeout_ms", cfg.Diff.TimeoutMs)
	v.Set("watch.enabled", cfg.Watch.Enabled)
	v.Set("watch.debounce_ms", cfg.Watch.DebounceMs)
	v.Set("ui.show_similarity", cfg.UI.ShowSimilarity)
	v.Set("ui.tab_width", cfg.UI.TabWidth)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
