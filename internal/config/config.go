// Package config loads gesturetube settings from defaults and an optional TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default values. The margins are pixel distances tuned for a 640x480 webcam frame.
const (
	DefaultAddr        = ":8080"
	DefaultTickFPS     = 30
	DefaultCooldownMs  = 200
	DefaultReleaseMs   = 500
	DefaultFlashMs     = 300
	DefaultPlayMargin  = 30.0
	DefaultPauseMargin = 30.0
	DefaultPlugin      = "media-control"
	DefaultPluginMs    = 2000
)

// Config is the top-level application configuration.
type Config struct {
	DataDir   string          `toml:"data_dir"`
	Server    ServerConfig    `toml:"server"`
	Camera    CameraConfig    `toml:"camera"`
	Detection DetectionConfig `toml:"detection"`
	Player    PlayerConfig    `toml:"player"`
	Log       LogConfig       `toml:"log"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr      string `toml:"addr"`
	StaticDir string `toml:"static_dir"`
}

// CameraConfig configures frame capture and the tick rate.
type CameraConfig struct {
	DeviceID int `toml:"device_id"`
	FPS      int `toml:"fps"`
}

// DetectionConfig holds classifier thresholds and debounce windows.
type DetectionConfig struct {
	CooldownMs  int     `toml:"cooldown_ms"`
	ReleaseMs   int     `toml:"release_ms"`
	FlashMs     int     `toml:"flash_ms"`
	PlayMargin  float64 `toml:"play_margin"`
	PauseMargin float64 `toml:"pause_margin"`
}

// PlayerConfig selects and configures the playback control surface.
type PlayerConfig struct {
	PluginDir string `toml:"plugin_dir"`
	Plugin    string `toml:"plugin"`
	TimeoutMs int    `toml:"timeout_ms"`
	VideoURL  string `toml:"video_url"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns a Config with every field set.
func Default() Config {
	dataDir := ".gesturetube"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".gesturetube")
	}

	return Config{
		DataDir: dataDir,
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		Camera: CameraConfig{
			DeviceID: 0,
			FPS:      DefaultTickFPS,
		},
		Detection: DetectionConfig{
			CooldownMs:  DefaultCooldownMs,
			ReleaseMs:   DefaultReleaseMs,
			FlashMs:     DefaultFlashMs,
			PlayMargin:  DefaultPlayMargin,
			PauseMargin: DefaultPauseMargin,
		},
		Player: PlayerConfig{
			PluginDir: filepath.Join(dataDir, "plugins"),
			Plugin:    DefaultPlugin,
			TimeoutMs: DefaultPluginMs,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load returns the defaults overlaid with the TOML file at path.
// An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS)
	}
	if c.Detection.CooldownMs < 0 || c.Detection.ReleaseMs < 0 || c.Detection.FlashMs < 0 {
		return fmt.Errorf("detection windows must not be negative")
	}
	if c.Detection.PlayMargin < 0 || c.Detection.PauseMargin < 0 {
		return fmt.Errorf("detection margins must not be negative")
	}
	if c.Player.TimeoutMs <= 0 {
		return fmt.Errorf("player.timeout_ms must be positive, got %d", c.Player.TimeoutMs)
	}
	return nil
}

// TickInterval is the scheduling period derived from the camera FPS.
func (c CameraConfig) TickInterval() time.Duration {
	if c.FPS <= 0 {
		return time.Second / DefaultTickFPS
	}
	return time.Second / time.Duration(c.FPS)
}

// Cooldown returns the cooldown window.
func (d DetectionConfig) Cooldown() time.Duration {
	return time.Duration(d.CooldownMs) * time.Millisecond
}

// Release returns the release window.
func (d DetectionConfig) Release() time.Duration {
	return time.Duration(d.ReleaseMs) * time.Millisecond
}

// Flash returns how long an accepted gesture stays highlighted.
func (d DetectionConfig) Flash() time.Duration {
	return time.Duration(d.FlashMs) * time.Millisecond
}

// DBPath is the SQLite database location inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "gesturetube.db")
}
