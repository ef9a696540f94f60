package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// defaultChannels seeds a freshly-created config with the channel names
// named in §6: brain, physics, pressure, network, plus a catch-all
// "default" channel used by callers that don't name one.
var defaultChannels = map[string]Level{
	"default":  LevelInfo,
	"brain":    LevelInfo,
	"physics":  LevelInfo,
	"pressure": LevelWarn,
	"network":  LevelInfo,
}

// RotationConfig controls dirtsim.log's on-disk rotation, backed by
// lumberjack.
type RotationConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Truncate   bool   `json:"truncate"`
}

// Config is the parsed shape of logging-config.json.
type Config struct {
	Channels map[string]Level `json:"channels"`
	Rotation RotationConfig   `json:"rotation"`
}

func defaultConfig() Config {
	channels := make(map[string]Level, len(defaultChannels))
	for k, v := range defaultChannels {
		channels[k] = v
	}
	return Config{
		Channels: channels,
		Rotation: RotationConfig{
			Path:       "dirtsim.log",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
	}
}

// Load reads logging-config.json from dir, preferring a
// logging-config.local.json override when present. A missing config (in
// both forms) is created with defaultConfig() and written to the
// canonical (non-.local) path.
func Load(dir string) (Config, error) {
	localPath := filepath.Join(dir, "logging-config.local.json")
	canonicalPath := filepath.Join(dir, "logging-config.json")

	if cfg, ok, err := tryLoad(localPath); err != nil {
		return Config{}, err
	} else if ok {
		return cfg, nil
	}

	if cfg, ok, err := tryLoad(canonicalPath); err != nil {
		return Config{}, err
	} else if ok {
		return cfg, nil
	}

	cfg := defaultConfig()
	if err := writeConfig(canonicalPath, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func tryLoad(path string) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, false, nil
	}
	if err != nil {
		return Config{}, false, fmt.Errorf("read %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, true, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default logging config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create logging config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LevelFor returns the configured level for channel, falling back to the
// "default" channel's level (or Info) when channel is unconfigured.
func (c Config) LevelFor(channel string) Level {
	if lvl, ok := c.Channels[channel]; ok {
		return lvl
	}
	if lvl, ok := c.Channels["default"]; ok {
		return lvl
	}
	return LevelInfo
}
