// Package config loads the shell's settings from a TOML file. A missing file yields the
// defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultHomePage is loaded by the home command and by new tabs.
const DefaultHomePage = "https://www.google.com"

// Duration is a time.Duration written as a string such as "250ms" or "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full set of settings.
type Config struct {
	HomePage string  `toml:"home_page"`
	Database string  `toml:"database"`
	Window   Window  `toml:"window"`
	Log      Log     `toml:"log"`
	Network  Network `toml:"network"`
	Scripts  Scripts `toml:"scripts"`
}

type Window struct {
	Width  float32 `toml:"width"`
	Height float32 `toml:"height"`
}

type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type Network struct {
	UserAgent    string   `toml:"user_agent"`
	Timeout      Duration `toml:"timeout"`
	CacheEntries int      `toml:"cache_entries"`
}

type Scripts struct {
	Enabled bool     `toml:"enabled"`
	Timeout Duration `toml:"timeout"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		HomePage: DefaultHomePage,
		Database: "browser_data.db",
		Window:   Window{Width: 1200, Height: 800},
		Log:      Log{Level: "info"},
		Network: Network{
			UserAgent:    "tabshell/1.0",
			Timeout:      Duration{30 * time.Second},
			CacheEntries: 256,
		},
		Scripts: Scripts{
			Enabled: true,
			Timeout: Duration{250 * time.Millisecond},
		},
	}
}

// DefaultPath is tabshell/config.toml under the user configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	return filepath.Join(dir, "tabshell", "config.toml"), nil
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HomePage) == "" {
		errs = append(errs, errors.New("home_page must not be empty"))
	}
	if strings.TrimSpace(c.Database) == "" {
		errs = append(errs, errors.New("database must not be empty"))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %vx%v must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Network.Timeout.Duration < 0 {
		errs = append(errs, errors.New("network.timeout must not be negative"))
	}
	if c.Scripts.Timeout.Duration < 0 {
		errs = append(errs, errors.New("scripts.timeout must not be negative"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log.level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}
