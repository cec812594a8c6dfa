// Package config loads page-turner settings from a YAML file, PAGE_TURNER_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mj1618/page-turner/internal/activation"
	"github.com/mj1618/page-turner/internal/platform"
	"github.com/mj1618/page-turner/internal/session"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. PAGE_TURNER_INTERVAL=8s.
const EnvPrefix = "PAGE_TURNER"

// Config is the resolved configuration.
type Config struct {
	Driver      string        `mapstructure:"driver"`
	URL         string        `mapstructure:"url"`
	Headless    bool          `mapstructure:"headless"`
	Viewport    string        `mapstructure:"viewport"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserDataDir string        `mapstructure:"user_data_dir"`

	Interval    time.Duration `mapstructure:"interval"`
	StartDelay  time.Duration `mapstructure:"start_delay"`
	PrePause    time.Duration `mapstructure:"pre_pause"`
	Settle      time.Duration `mapstructure:"settle"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
	WaitFor     string        `mapstructure:"wait_for"`
	RetryStale  bool          `mapstructure:"retry_stale"`

	// Matchers is the path of a discovery matcher file; empty uses the
	// built-in matchers.
	Matchers string `mapstructure:"matchers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Driver:      "cdp",
		Headless:    false,
		Viewport:    "1280x800",
		Timeout:     30 * time.Second,
		Interval:    session.DefaultInterval,
		StartDelay:  session.DefaultStartDelay,
		PrePause:    activation.DefaultPrePause,
		Settle:      activation.DefaultSettle,
		WaitTimeout: session.DefaultWaitTimeout,
		RetryStale:  true,
	}
}

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"driver":        "driver",
	"url":           "url",
	"headless":      "headless",
	"viewport":      "viewport",
	"timeout":       "timeout",
	"user_data_dir": "user-data-dir",
	"interval":      "interval",
	"start_delay":   "start-delay",
	"pre_pause":     "pre-pause",
	"settle":        "settle",
	"wait_timeout":  "wait-timeout",
	"wait_for":      "wait-for",
	"retry_stale":   "retry-stale",
	"matchers":      "matchers",
}

// DefaultPath returns ~/.config/page-turner/config.yaml (or the platform
// equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "page-turner", "config.yaml"), nil
}

// Load resolves the configuration. An explicit path must exist; with an
// empty path the default location is read if present. Flags that were set
// on the command line win over file and environment values.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	def := Default()
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("driver", def.Driver)
	v.SetDefault("url", def.URL)
	v.SetDefault("headless", def.Headless)
	v.SetDefault("viewport", def.Viewport)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("user_data_dir", def.UserDataDir)
	v.SetDefault("interval", def.Interval)
	v.SetDefault("start_delay", def.StartDelay)
	v.SetDefault("pre_pause", def.PrePause)
	v.SetDefault("settle", def.Settle)
	v.SetDefault("wait_timeout", def.WaitTimeout)
	v.SetDefault("wait_for", def.WaitFor)
	v.SetDefault("retry_stale", def.RetryStale)
	v.SetDefault("matchers", def.Matchers)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		case explicit || !errors.Is(statErr, os.ErrNotExist):
			return Config{}, fmt.Errorf("config %s: %w", path, statErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.URL = os.ExpandEnv(cfg.URL)
	cfg.Matchers = os.ExpandEnv(cfg.Matchers)
	cfg.UserDataDir = os.ExpandEnv(cfg.UserDataDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and formats.
func (c Config) Validate() error {
	if c.Driver == "" {
		return errors.New("driver is required")
	}
	if err := session.ValidateInterval(c.Interval); err != nil {
		return err
	}
	if _, err := platform.ParseViewport(c.Viewport); err != nil {
		return err
	}
	for name, d := range map[string]time.Duration{
		"start_delay":  c.StartDelay,
		"pre_pause":    c.PrePause,
		"settle":       c.Settle,
		"wait_timeout": c.WaitTimeout,
		"timeout":      c.Timeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, d)
		}
	}
	return nil
}

// PlatformOptions returns the driver options.
func (c Config) PlatformOptions() platform.Options {
	vp, _ := platform.ParseViewport(c.Viewport)
	return platform.Options{
		URL:         c.URL,
		Headless:    c.Headless,
		Viewport:    vp,
		Timeout:     c.Timeout,
		UserDataDir: c.UserDataDir,
	}
}
