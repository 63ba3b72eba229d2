// Package config loads stylespec settings from YAML or TOML, layered over
// embedded defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/stylespec/pkg/tokens"
	"github.com/gnana997/stylespec/pkg/util"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ProjectConfigPath is where a project keeps its config, relative to the
// working directory.
const ProjectConfigPath = ".stylespec/config.yaml"

// Config holds every tunable of the engine and its front ends.
type Config struct {
	Version   string          `yaml:"version" toml:"version"`
	Tokens    TokensConfig    `yaml:"tokens" toml:"tokens"`
	Modes     ModesConfig     `yaml:"modes" toml:"modes"`
	Placement PlacementConfig `yaml:"placement" toml:"placement"`
	Semantics SemanticsConfig `yaml:"semantics" toml:"semantics"`
	Cache     CacheConfig     `yaml:"cache" toml:"cache"`
	Log       LogConfig       `yaml:"log" toml:"log"`
	MCP       MCPConfig       `yaml:"mcp" toml:"mcp"`
	Watch     WatchConfig     `yaml:"watch" toml:"watch"`

	// Source is the file the config was read from, empty for defaults.
	Source string `yaml:"-" toml:"-"`
}

// TokensConfig lists token sources.
type TokensConfig struct {
	Paths    []string `yaml:"paths" toml:"paths"`
	External []string `yaml:"external" toml:"external"`
	Discover bool     `yaml:"discover" toml:"discover"`
	Exclude  []string `yaml:"exclude" toml:"exclude"`
}

// ModesConfig is the data-driven mode classification table.
type ModesConfig struct {
	Rules           []tokens.Rule  `yaml:"rules" toml:"rules"`
	NamedThresholds map[string]int `yaml:"named_thresholds" toml:"named_thresholds"`
	DefaultTheme    string         `yaml:"default_theme" toml:"default_theme"`
	ThemeAttribute  string         `yaml:"theme_attribute" toml:"theme_attribute"`
}

// PlacementConfig controls the property-placement classifier.
type PlacementConfig struct {
	TokenBackedUtilities bool     `yaml:"token_backed_utilities" toml:"token_backed_utilities"`
	StructuralProperties []string `yaml:"structural_properties" toml:"structural_properties"`
	VisualProperties     []string `yaml:"visual_properties" toml:"visual_properties"`
}

// SemanticsConfig controls element hints.
type SemanticsConfig struct {
	HeadingMinFontSize float64 `yaml:"heading_min_font_size" toml:"heading_min_font_size"`
}

// CacheConfig sizes per-run caches.
type CacheConfig struct {
	AliasCacheSize int `yaml:"alias_cache_size" toml:"alias_cache_size"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MCPConfig configures the MCP server.
type MCPConfig struct {
	LogPath string `yaml:"log_path" toml:"log_path"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMS int      `yaml:"debounce_ms" toml:"debounce_ms"`
	Exclude    []string `yaml:"exclude" toml:"exclude"`
}

// Default returns the embedded defaults.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return &cfg
}

// Load reads a config file and layers it over the defaults. The format is
// chosen by extension: .toml is TOML, everything else is YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data, formatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

// Format is a config file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()

	switch format {
	case FormatTOML:
		var scratch Config
		md, err := toml.Decode(string(data), &scratch)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
		// The TOML decoder reuses existing slice elements, so lists the
		// file sets must start empty to replace the defaults.
		cfg.clearLists(md)
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c *Config) clearLists(md toml.MetaData) {
	lists := []struct {
		key  []string
		list any
	}{
		{[]string{"tokens", "paths"}, &c.Tokens.Paths},
		{[]string{"tokens", "external"}, &c.Tokens.External},
		{[]string{"tokens", "exclude"}, &c.Tokens.Exclude},
		{[]string{"modes", "rules"}, &c.Modes.Rules},
		{[]string{"placement", "structural_properties"}, &c.Placement.StructuralProperties},
		{[]string{"placement", "visual_properties"}, &c.Placement.VisualProperties},
		{[]string{"watch", "exclude"}, &c.Watch.Exclude},
	}
	for _, l := range lists {
		if !md.IsDefined(l.key...) {
			continue
		}
		switch v := l.list.(type) {
		case *[]string:
			*v = nil
		case *[]tokens.Rule:
			*v = nil
		}
	}
}

// Resolve returns the config to use, applying the fallback chain:
//  1. Explicit --config flag value
//  2. .stylespec/config.yaml (or .toml) in the working directory
//  3. Embedded defaults
func Resolve(flagValue string) (*Config, error) {
	if flagValue != "" {
		return Load(flagValue)
	}
	for _, candidate := range []string{ProjectConfigPath, strings.TrimSuffix(ProjectConfigPath, ".yaml") + ".toml"} {
		if _, err := os.Stat(candidate); err == nil {
			return Load(candidate)
		}
	}
	return Default(), nil
}

// Validate checks the config for values the engine cannot work with.
// Returns a slice of validation errors (empty slice if valid).
func (c *Config) Validate() []error {
	var errs []error

	if _, err := c.ModeRules(); err != nil {
		errs = append(errs, fmt.Errorf("modes: %w", err))
	}
	if len(c.Modes.Rules) == 0 {
		errs = append(errs, errors.New("modes.rules: at least one rule is required"))
	}
	for kw, px := range c.Modes.NamedThresholds {
		if px < 0 {
			errs = append(errs, fmt.Errorf("modes.named_thresholds.%s: must not be negative", kw))
		}
	}
	if c.Modes.ThemeAttribute == "" || strings.ContainsAny(c.Modes.ThemeAttribute, " \"[]=") {
		errs = append(errs, fmt.Errorf("modes.theme_attribute: %q is not a valid attribute name", c.Modes.ThemeAttribute))
	}
	if c.Semantics.HeadingMinFontSize <= 0 {
		errs = append(errs, errors.New("semantics.heading_min_font_size: must be positive"))
	}
	if c.Cache.AliasCacheSize <= 0 {
		errs = append(errs, errors.New("cache.alias_cache_size: must be positive"))
	}
	if c.Watch.DebounceMS < 0 {
		errs = append(errs, errors.New("watch.debounce_ms: must not be negative"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text", "pretty", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errs
}

// ModeRules compiles the mode classification table.
func (c *Config) ModeRules() (*tokens.ModeRules, error) {
	mr := &tokens.ModeRules{
		Rules:               append([]tokens.Rule(nil), c.Modes.Rules...),
		NamedThresholds:     make(map[string]int, len(c.Modes.NamedThresholds)),
		DefaultThemeKeyword: c.Modes.DefaultTheme,
	}
	for k, v := range c.Modes.NamedThresholds {
		mr.NamedThresholds[strings.ToLower(k)] = v
	}
	if err := mr.Compile(); err != nil {
		return nil, err
	}
	return mr, nil
}

// LoggerConfig converts the log section for util.NewLogger.
func (c *Config) LoggerConfig() util.LoggerConfig {
	lc := util.DefaultLoggerConfig()
	lc.Level = util.ParseLogLevel(c.Log.Level)
	lc.Format = util.ParseLogFormat(c.Log.Format)
	return lc
}

// Debounce returns the watch debounce interval.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}
