package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chaz8081/ampremote/internal/remote"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Device.Address != "" {
		t.Errorf("Device.Address = %q, want empty", cfg.Device.Address)
	}
	if cfg.Device.ScanTimeoutMS != 5000 {
		t.Errorf("Device.ScanTimeoutMS = %d, want 5000", cfg.Device.ScanTimeoutMS)
	}
	if cfg.Control.DebounceMS != 150 {
		t.Errorf("Control.DebounceMS = %d, want 150", cfg.Control.DebounceMS)
	}
	if cfg.Control.MuteMinStep != 1 {
		t.Errorf("Control.MuteMinStep = %d, want 1", cfg.Control.MuteMinStep)
	}
	if cfg.Control.MaxWritesPerSec != 0 {
		t.Errorf("Control.MaxWritesPerSec = %v, want 0", cfg.Control.MaxWritesPerSec)
	}
	if cfg.Hotkey.Enabled {
		t.Error("Hotkey.Enabled = true, want false")
	}
	if len(cfg.Hotkey.Mute) == 0 {
		t.Error("Hotkey.Mute is empty")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte(`device:
  address: "AA:BB:CC:DD:EE:FF"
control:
  debounce_ms: 80
  mute_min_step: 5
log_level: debug
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Device.Address != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("Device.Address = %q", cfg.Device.Address)
	}
	if cfg.Control.DebounceMS != 80 {
		t.Errorf("Control.DebounceMS = %d, want 80", cfg.Control.DebounceMS)
	}
	if cfg.Control.MuteMinStep != 5 {
		t.Errorf("Control.MuteMinStep = %d, want 5", cfg.Control.MuteMinStep)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	// Fields not in the file should keep defaults
	if cfg.Device.ScanTimeoutMS != 5000 {
		t.Errorf("Device.ScanTimeoutMS = %d, want default 5000", cfg.Device.ScanTimeoutMS)
	}
	if cfg.Control.VolumeStep != 5 {
		t.Errorf("Control.VolumeStep = %d, want default 5", cfg.Control.VolumeStep)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := os.WriteFile(filepath.Join(home, "amp.yaml"), []byte("log_level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("~/amp.yaml")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("control: [nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default",
			modify: func(c *Config) {},
		},
		{
			name:    "zero scan timeout",
			modify:  func(c *Config) { c.Device.ScanTimeoutMS = 0 },
			wantErr: "scan_timeout_ms",
		},
		{
			name:    "zero debounce",
			modify:  func(c *Config) { c.Control.DebounceMS = 0 },
			wantErr: "debounce_ms",
		},
		{
			name:    "min step too small",
			modify:  func(c *Config) { c.Control.MuteMinStep = 0 },
			wantErr: "mute_min_step",
		},
		{
			name:    "min step too large",
			modify:  func(c *Config) { c.Control.MuteMinStep = 101 },
			wantErr: "mute_min_step",
		},
		{
			name:    "volume step zero",
			modify:  func(c *Config) { c.Control.VolumeStep = 0 },
			wantErr: "volume_step",
		},
		{
			name:    "negative write rate",
			modify:  func(c *Config) { c.Control.MaxWritesPerSec = -1 },
			wantErr: "max_writes_per_sec",
		},
		{
			name: "hotkeys enabled without mute binding",
			modify: func(c *Config) {
				c.Hotkey.Enabled = true
				c.Hotkey.Mute = nil
			},
			wantErr: "hotkey.mute",
		},
		{
			name: "hotkeys disabled ignores empty bindings",
			modify: func(c *Config) {
				c.Hotkey.Enabled = false
				c.Hotkey.VolumeUp = nil
			},
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRemoteOptions(t *testing.T) {
	cfg := Default()
	cfg.Device.Address = "11:22:33:44:55:66"
	cfg.Device.ScanTimeoutMS = 2500
	cfg.Control.DebounceMS = 90
	cfg.Control.MuteMinStep = 4
	cfg.Control.MaxWritesPerSec = 20

	opts := cfg.RemoteOptions()
	if opts.Request.Address != "11:22:33:44:55:66" {
		t.Errorf("Request.Address = %q", opts.Request.Address)
	}
	if opts.Request.ScanTimeout != 2500*time.Millisecond {
		t.Errorf("Request.ScanTimeout = %v, want 2.5s", opts.Request.ScanTimeout)
	}
	if opts.Scheduler.Debounce != 90*time.Millisecond {
		t.Errorf("Scheduler.Debounce = %v, want 90ms", opts.Scheduler.Debounce)
	}
	if opts.Scheduler.MaxWritesPerSec != 20 {
		t.Errorf("Scheduler.MaxWritesPerSec = %v, want 20", opts.Scheduler.MaxWritesPerSec)
	}
	if opts.MinStep != remote.Value(4) {
		t.Errorf("MinStep = %d, want 4", opts.MinStep)
	}
}

func TestWriteDefault_CreatesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error: %v", err)
	}
	want := filepath.Join(home, ".config", "ampremote", "config.yaml")
	if path != want {
		t.Errorf("WriteDefault() path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# ampremote") {
		t.Errorf("config missing header comment, got %q", string(data)[:20])
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() written default: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("written default does not validate: %v", err)
	}
}

func TestWriteDefault_NoOpIfExists(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "ampremote")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	existing := []byte("log_level: error\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), existing, 0644); err != nil {
		t.Fatal(err)
	}

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error: %v", err)
	}
	if path != "" {
		t.Errorf("WriteDefault() path = %q, want empty", path)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if string(data) != string(existing) {
		t.Errorf("existing config overwritten: %q", data)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: info\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) { changes <- cfg })
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	// An invalid edit is skipped.
	if err := os.WriteFile(path, []byte("log_level: loud\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if cfg.LogLevel == "debug" {
				cancel()
				if err := <-done; err != nil {
					t.Errorf("Watch() = %v", err)
				}
				return
			}
			if cfg.LogLevel != "info" {
				t.Fatalf("reload delivered invalid level %q", cfg.LogLevel)
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestWatch_MissingDir(t *testing.T) {
	err := Watch(context.Background(), "/nonexistent/dir/config.yaml", func(*Config) {})
	if err == nil {
		t.Fatal("Watch() expected error for missing directory")
	}
}
