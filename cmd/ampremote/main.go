package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chaz8081/ampremote/internal/ble"
	"github.com/chaz8081/ampremote/internal/config"
	"github.com/chaz8081/ampremote/internal/hotkey"
	"github.com/chaz8081/ampremote/internal/panel"
	"github.com/chaz8081/ampremote/internal/remote"
	"github.com/chaz8081/ampremote/internal/web"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/ampremote/config.yaml)")
	connect := flag.Bool("connect", false, "connect to the amplifier at startup")
	initConfig := flag.Bool("init", false, "write the default config file and exit")
	flag.Parse()

	var level slog.LevelVar
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	if *initConfig {
		path, err := config.WriteDefault()
		if err != nil {
			fatal("config init", err)
		}
		if path == "" {
			fmt.Println("Config already exists at", config.DefaultConfigPath())
			return
		}
		fmt.Println("Wrote default config to", path)
		return
	}

	// Load configuration
	cfg, watchPath, err := loadConfig(*configPath)
	if err != nil {
		fatal("config", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("config validation", err)
	}
	level.Set(config.ParseLogLevel(cfg.LogLevel))

	printBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Reload the log level when the config file changes.
	if watchPath != "" {
		go func() {
			err := config.Watch(ctx, watchPath, func(c *config.Config) {
				level.Set(config.ParseLogLevel(c.LogLevel))
			})
			if err != nil {
				slog.Warn("config watch stopped", "err", err)
			}
		}()
	}

	p := panel.New()
	rem := remote.New(ble.NewTinyGoAdapter(), p, p, cfg.RemoteOptions())

	// Initialize hotkey listener
	var listener *hotkey.Listener
	if cfg.Hotkey.Enabled {
		listener = hotkey.NewListener([]hotkey.Binding{
			{Action: hotkey.ActionVolumeUp, Keys: cfg.Hotkey.VolumeUp},
			{Action: hotkey.ActionVolumeDown, Keys: cfg.Hotkey.VolumeDown},
			{Action: hotkey.ActionMute, Keys: cfg.Hotkey.Mute},
		})
		go listener.Start()
		go hotkey.Dispatch(ctx, listener.Events(), rem, cfg.Control.VolumeStep)
		slog.Info("hotkeys ready",
			"volume_up", strings.Join(cfg.Hotkey.VolumeUp, "+"),
			"volume_down", strings.Join(cfg.Hotkey.VolumeDown, "+"),
			"mute", strings.Join(cfg.Hotkey.Mute, "+"))
	}

	if *connect {
		go func() {
			if err := rem.Connect(ctx); err != nil {
				slog.Error("startup connect failed", "err", err)
			}
		}()
	}

	if cfg.HTTP.Listen != "" {
		api := web.NewRouter(rem, p)
		if err := web.Serve(ctx, cfg.HTTP.Listen, api); err != nil {
			slog.Error("http server failed", "err", err)
		}
	} else {
		<-ctx.Done()
	}

	slog.Info("shutting down")
	rem.Disconnect()
	if listener != nil {
		// Exit directly to avoid gohook's C cleanup crash.
		// The OS reclaims the event hook on process exit.
		os.Exit(0)
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults. It also returns the
// path of the file that was loaded, if any.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}

	// Try default config path
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		slog.Info("config loaded", "path", defaultPath)
		return cfg, defaultPath, nil
	}

	// No config file, use defaults
	slog.Info("no config file found, using defaults")
	return config.Default(), "", nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	device := cfg.Device.Address
	if device == "" {
		device = "strongest advertiser"
	}
	listen := cfg.HTTP.Listen
	if listen == "" {
		listen = "disabled"
	}
	hotkeys := "disabled"
	if cfg.Hotkey.Enabled {
		hotkeys = "enabled"
	}
	fmt.Println("=== ampremote ===")
	fmt.Printf("  Device:   %s\n", device)
	fmt.Printf("  Debounce: %dms\n", cfg.Control.DebounceMS)
	fmt.Printf("  HTTP:     %s\n", listen)
	fmt.Printf("  Hotkeys:  %s\n", hotkeys)
	fmt.Printf("  Log:      %s\n", cfg.LogLevel)
	fmt.Println("=================")
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
