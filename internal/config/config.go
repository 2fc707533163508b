package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chaz8081/ampremote/internal/ble"
	"github.com/chaz8081/ampremote/internal/remote"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Device   DeviceConfig  `yaml:"device"`
	Control  ControlConfig `yaml:"control"`
	HTTP     HTTPConfig    `yaml:"http"`
	Hotkey   HotkeyConfig  `yaml:"hotkey"`
	LogLevel string        `yaml:"log_level"`
}

// DeviceConfig selects the amplifier.
type DeviceConfig struct {
	Address       string `yaml:"address"`         // empty picks the strongest advertiser
	ScanTimeoutMS int    `yaml:"scan_timeout_ms"` // how long to scan when connecting
}

// ControlConfig tunes the write engine.
type ControlConfig struct {
	DebounceMS      int     `yaml:"debounce_ms"`
	MuteMinStep     int     `yaml:"mute_min_step"` // volume restored on unmute when none is known
	VolumeStep      int     `yaml:"volume_step"`   // increment/decrement size
	MaxWritesPerSec float64 `yaml:"max_writes_per_sec"`
}

// HTTPConfig holds the control API settings.
type HTTPConfig struct {
	Listen string `yaml:"listen"` // empty disables the API
}

// HotkeyConfig holds global hotkey bindings.
type HotkeyConfig struct {
	Enabled    bool     `yaml:"enabled"`
	VolumeUp   []string `yaml:"volume_up"`
	VolumeDown []string `yaml:"volume_down"`
	Mute       []string `yaml:"mute"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ampremote")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			ScanTimeoutMS: 5000,
		},
		Control: ControlConfig{
			DebounceMS:  150,
			MuteMinStep: 1,
			VolumeStep:  5,
		},
		HTTP: HTTPConfig{
			Listen: "127.0.0.1:8431",
		},
		Hotkey: HotkeyConfig{
			Enabled:    false,
			VolumeUp:   []string{"ctrl", "alt", "up"},
			VolumeDown: []string{"ctrl", "alt", "down"},
			Mute:       []string{"ctrl", "alt", "m"},
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(expandTilde(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// WriteDefault writes the default config to DefaultConfigPath. It returns
// the written path, or "" if a config already exists there.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	var buf bytes.Buffer
	buf.WriteString("# ampremote configuration\n")
	buf.WriteString("# Set device.address to pin a specific amplifier.\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Default()); err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Device.ScanTimeoutMS <= 0 {
		return fmt.Errorf("device.scan_timeout_ms must be > 0")
	}

	if c.Control.DebounceMS <= 0 {
		return fmt.Errorf("control.debounce_ms must be > 0")
	}

	if c.Control.MuteMinStep < 1 || c.Control.MuteMinStep > 100 {
		return fmt.Errorf("control.mute_min_step must be between 1 and 100, got %d", c.Control.MuteMinStep)
	}

	if c.Control.VolumeStep < 1 || c.Control.VolumeStep > 100 {
		return fmt.Errorf("control.volume_step must be between 1 and 100, got %d", c.Control.VolumeStep)
	}

	if c.Control.MaxWritesPerSec < 0 {
		return fmt.Errorf("control.max_writes_per_sec must be >= 0")
	}

	if c.Hotkey.Enabled {
		for name, keys := range map[string][]string{
			"volume_up":   c.Hotkey.VolumeUp,
			"volume_down": c.Hotkey.VolumeDown,
			"mute":        c.Hotkey.Mute,
		} {
			if len(keys) == 0 {
				return fmt.Errorf("hotkey.%s must not be empty when hotkeys are enabled", name)
			}
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// RemoteOptions converts the config into options for the remote engine.
func (c *Config) RemoteOptions() remote.Options {
	return remote.Options{
		Request: ble.RequestOptions{
			Address:     c.Device.Address,
			ScanTimeout: time.Duration(c.Device.ScanTimeoutMS) * time.Millisecond,
		},
		Scheduler: remote.SchedulerOptions{
			Debounce:        time.Duration(c.Control.DebounceMS) * time.Millisecond,
			MaxWritesPerSec: c.Control.MaxWritesPerSec,
		},
		MinStep: remote.Value(c.Control.MuteMinStep),
	}
}

// ParseLogLevel maps a config log level to slog. Unknown values mean info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
