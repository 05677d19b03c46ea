// Package config loads st settings from a TOML file, a .env file and the
// environment. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config mirrors config.toml.
type Config struct {
	// Path is the file the config was read from, "" for defaults only.
	Path    string        `toml:"-"`
	Collect CollectConfig `toml:"collect"`
	Report  ReportConfig  `toml:"report"`
}

// CollectConfig is the [collect] section.
type CollectConfig struct {
	Tool     string  `toml:"tool"`     // eu-stack or gdb
	EUStack  string  `toml:"eu_stack"` // eu-stack binary
	GDB      string  `toml:"gdb"`      // gdb binary
	Interval float64 `toml:"interval"` // seconds between samples, 0 disables sampling
	Count    int     `toml:"count"`    // samples per process
}

// ReportConfig is the [report] section.
type ReportConfig struct {
	Unique   bool     `toml:"unique"`
	Raw      bool     `toml:"raw"`
	Color    string   `toml:"color"` // auto, on or off
	Pager    string   `toml:"pager"`
	Keywords []string `toml:"keywords"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Collect: CollectConfig{Tool: "eu-stack", Count: 1},
		Report:  ReportConfig{Color: "auto"},
	}
}

// Getenv reads an environment variable; os.Getenv in production.
type Getenv func(string) string

// Load reads .env from the working directory, locates the config file and
// decodes it over the defaults, then applies ST_* environment overrides.
// explicit is the --config flag value.
func Load(explicit string) (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	path, err := Resolve(explicit, os.Getenv)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if path != "" {
		if cfg, err = Decode(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve returns the config file to read: explicit, $ST_CONFIG, then
// $XDG_CONFIG_HOME/st/config.toml (~/.config/st/config.toml). Explicit
// paths must exist; the default location is optional and "" is returned
// when it is absent.
func Resolve(explicit string, getenv Getenv) (string, error) {
	for _, p := range []string{explicit, getenv("ST_CONFIG")} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config file %q: %w", p, err)
		}
		return p, nil
	}

	base := getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", nil
		}
		base = filepath.Join(home, ".config")
	}
	candidate := filepath.Join(base, "st", "config.toml")
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
	}
	return candidate, nil
}

// Decode reads path over the defaults. Keys absent from the file keep their
// default value.
func Decode(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if meta.IsDefined("collect", "tool") && strings.TrimSpace(cfg.Collect.Tool) == "" {
		return Config{}, fmt.Errorf("%s: [collect].tool must not be empty", path)
	}
	cfg.Path = path
	return cfg, nil
}

// ApplyEnv overrides the file settings with ST_TOOL and ST_PAGER.
func (c *Config) ApplyEnv(getenv Getenv) {
	if v := strings.TrimSpace(getenv("ST_TOOL")); v != "" {
		c.Collect.Tool = v
	}
	if v := strings.TrimSpace(getenv("ST_PAGER")); v != "" {
		c.Report.Pager = v
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	where := "config"
	if c.Path != "" {
		where = c.Path
	}
	switch strings.ToLower(c.Collect.Tool) {
	case "eu-stack", "gdb":
	default:
		return fmt.Errorf("%s: unknown tool %q (expected eu-stack or gdb)", where, c.Collect.Tool)
	}
	if c.Collect.Interval < 0 {
		return fmt.Errorf("%s: [collect].interval must not be negative", where)
	}
	if c.Collect.Count < 1 {
		return fmt.Errorf("%s: [collect].count must be at least 1, got %d", where, c.Collect.Count)
	}
	switch strings.ToLower(c.Report.Color) {
	case "", "auto", "on", "off":
	default:
		return fmt.Errorf("%s: [report].color must be auto, on or off", where)
	}
	return nil
}

// ToolPath returns the configured binary for [collect].tool.
func (c *Config) ToolPath() string {
	return c.PathFor(c.Collect.Tool)
}

// PathFor returns the configured binary for tool, "" when none is set.
func (c *Config) PathFor(tool string) string {
	if strings.EqualFold(tool, "gdb") {
		return c.Collect.GDB
	}
	return c.Collect.EUStack
}
