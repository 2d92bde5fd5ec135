package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	LibrarySources []string `koanf:"library_sources"` // paths to scan for music library
	StatePath      string   `koanf:"state_path"`      // sqlite state file, empty means XDG data dir
	LogLevel       string   `koanf:"log_level"`       // "debug", "info", "warn", "error" (default: "info")
	MPRIS          *bool    `koanf:"mpris"`           // expose the session over D-Bus (default: true)
	WatchLibrary   bool     `koanf:"watch_library"`   // drop deleted files from the queue
	Notifications  bool     `koanf:"notifications"`   // desktop notifications on track change and errors

	// Last.fm scrobbling (enables scrobbling when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`

	// Playback session tuning
	Playback PlaybackConfig `koanf:"playback"`
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"`
}

// PlaybackConfig holds playback session timings as read from the file.
type PlaybackConfig struct {
	ProgressIntervalMs int     `koanf:"progress_interval_ms"` // progress poll (default: 500)
	PersistIntervalMs  int     `koanf:"persist_interval_ms"`  // position save (default: 10000)
	DebounceMs         int     `koanf:"debounce_ms"`          // transition burst window (default: 100)
	PlayThreshold      float64 `koanf:"play_threshold"`       // fraction played before a play counts (0-1, default: 0.5)
	NearEdgeMs         int     `koanf:"near_edge_ms"`         // restart detection edge (default: 5000)
	AccessWorkers      int     `koanf:"access_workers"`       // concurrent file checks (1-32, default: 4)
}

// Playback is PlaybackConfig with defaults applied and units resolved.
type Playback struct {
	ProgressInterval time.Duration
	PersistInterval  time.Duration
	Debounce         time.Duration
	PlayThreshold    float64
	NearEdge         time.Duration
	AccessWorkers    int
}

// DefaultPlayback returns the playback settings used when nothing is configured.
func DefaultPlayback() Playback {
	return (&Config{}).GetPlaybackConfig()
}

func Load() (*Config, error) {
	return load(getConfigPaths())
}

func load(paths []string) (*Config, error) {
	k := koanf.New(".")

	// Later files override earlier ones
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	for i, src := range cfg.LibrarySources {
		cfg.LibrarySources[i] = expandPath(src)
	}
	if cfg.StatePath != "" {
		cfg.StatePath = expandPath(cfg.StatePath)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/ripple/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ripple", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasLastfmConfig returns true if Last.fm scrobbling is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != "" && c.Lastfm.SessionKey != ""
}

// MPRISEnabled returns true unless mpris is explicitly disabled.
func (c *Config) MPRISEnabled() bool {
	return c.MPRIS == nil || *c.MPRIS
}

// GetLogLevel returns the configured log level, "info" when unset.
func (c *Config) GetLogLevel() string {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		return c.LogLevel
	default:
		return "info"
	}
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() Playback {
	p := c.Playback

	// Apply defaults
	if p.ProgressIntervalMs <= 0 {
		p.ProgressIntervalMs = 500
	}
	if p.PersistIntervalMs <= 0 {
		p.PersistIntervalMs = 10_000
	}
	if p.DebounceMs <= 0 {
		p.DebounceMs = 100
	}
	if p.PlayThreshold <= 0 || p.PlayThreshold > 1 {
		p.PlayThreshold = 0.5
	}
	if p.NearEdgeMs <= 0 {
		p.NearEdgeMs = 5000
	}
	if p.AccessWorkers <= 0 || p.AccessWorkers > 32 {
		p.AccessWorkers = 4
	}

	return Playback{
		ProgressInterval: time.Duration(p.ProgressIntervalMs) * time.Millisecond,
		PersistInterval:  time.Duration(p.PersistIntervalMs) * time.Millisecond,
		Debounce:         time.Duration(p.DebounceMs) * time.Millisecond,
		PlayThreshold:    p.PlayThreshold,
		NearEdge:         time.Duration(p.NearEdgeMs) * time.Millisecond,
		AccessWorkers:    p.AccessWorkers,
	}
}
