package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the optional psclone configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Exclude  ExcludeConfig  `toml:"exclude"`
	Theme    ThemeConfig    `toml:"theme"`
}

// DefaultsConfig holds persistent flag defaults. A nil field leaves the
// built-in default in place.
type DefaultsConfig struct {
	MaxDepth     *int    `toml:"max_depth"`
	MaxBytes     *string `toml:"max_bytes"`
	PollTimeout  *string `toml:"poll_timeout"`
	CrossDevice  *bool   `toml:"cross_device"`
	Hidden       *bool   `toml:"hidden"`
	NonBlock     *bool   `toml:"nonblock"`
	Cache        *bool   `toml:"cache"`
	CacheContent *bool   `toml:"cache_content"`
}

// ExcludeConfig lists exclusions applied to every run, in addition to
// those given on the command line.
type ExcludeConfig struct {
	Names []string `toml:"names"`
	Paths []string `toml:"paths"` // glob patterns
}

// ThemeConfig holds optional color overrides for the summary.
type ThemeConfig struct {
	Green  *string `toml:"green"`
	Yellow *string `toml:"yellow"`
	Red    *string `toml:"red"`
	Mauve  *string `toml:"mauve"`
	Muted  *string `toml:"muted"`
	Bright *string `toml:"bright"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "psclone", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path. A missing file is not an error.
// Keys the file sets that psclone does not know are rejected.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that are parsed later.
func (c Config) Validate() error {
	if d := c.Defaults.MaxDepth; d != nil && *d < -1 {
		return fmt.Errorf("max_depth %d: must be -1 (unlimited) or more", *d)
	}
	if _, err := c.Defaults.PollTimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// PollTimeoutDuration parses poll_timeout. It returns zero when unset.
func (d DefaultsConfig) PollTimeoutDuration() (time.Duration, error) {
	if d.PollTimeout == nil {
		return 0, nil
	}
	v, err := time.ParseDuration(*d.PollTimeout)
	if err != nil {
		return 0, fmt.Errorf("poll_timeout: %w", err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("poll_timeout %s: must be positive", v)
	}
	return v, nil
}
