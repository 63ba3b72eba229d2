package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/stylespec/pkg/tokens"
	"github.com/gnana997/stylespec/pkg/util"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Empty(t, cfg.Validate())
	require.Len(t, cfg.Modes.Rules, 3)
	assert.Equal(t, tokens.ClassTheme, cfg.Modes.Rules[0].Classification)
	assert.Equal(t, 768, cfg.Modes.NamedThresholds["tablet"])
	assert.Equal(t, "data-theme", cfg.Modes.ThemeAttribute)
	assert.True(t, cfg.Placement.TokenBackedUtilities)
	assert.Equal(t, 24.0, cfg.Semantics.HeadingMinFontSize)
	assert.Equal(t, 200*time.Millisecond, cfg.Debounce())
}

func TestDefault_RulesMatchBuiltins(t *testing.T) {
	rules, err := Default().ModeRules()
	require.NoError(t, err)

	builtin := tokens.DefaultModeRules()
	for _, name := range []string{"Light Desktop", "Dark", "Mobile", "md-768px", "Brand"} {
		assert.Equal(t, builtin.ClassifyMode(name), rules.ClassifyMode(name), name)
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
placement:
  token_backed_utilities: false
modes:
  named_thresholds:
    wide: 1440
  theme_attribute: data-color-mode
log:
  level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.False(t, cfg.Placement.TokenBackedUtilities)
	assert.Equal(t, "data-color-mode", cfg.Modes.ThemeAttribute)
	assert.Equal(t, 1440, cfg.Modes.NamedThresholds["wide"])
	assert.Equal(t, 0, cfg.Modes.NamedThresholds["mobile"], "maps merge with defaults")
	assert.Len(t, cfg.Modes.Rules, 3, "untouched sections keep defaults")
	assert.Equal(t, util.LevelDebug, cfg.LoggerConfig().Level)
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[semantics]
heading_min_font_size = 32

[[modes.rules]]
classification = "theme"
contains = ["night", "day"]

[[modes.rules]]
classification = "breakpoint"
pattern = '^bp-\d+$'

[log]
format = "pretty"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 32.0, cfg.Semantics.HeadingMinFontSize)
	require.Len(t, cfg.Modes.Rules, 2)
	assert.Equal(t, util.FormatPretty, cfg.LoggerConfig().Format)

	rules, err := cfg.ModeRules()
	require.NoError(t, err)
	assert.Equal(t, tokens.ClassTheme, rules.ClassifyMode("Night"))
	assert.Equal(t, tokens.ClassBreakpoint, rules.ClassifyMode("bp-600"))
	assert.Equal(t, tokens.ClassUnknown, rules.ClassifyMode("Dark"))
}

func TestParse_ValidationErrors(t *testing.T) {
	_, err := Parse([]byte(`
modes:
  rules:
    - classification: brand
      contains: ["acme"]
  theme_attribute: "data theme"
semantics:
  heading_min_font_size: 0
cache:
  alias_cache_size: -1
log:
  level: loud
`), FormatYAML)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "config validation failed")
	assert.Contains(t, msg, `unknown classification "brand"`)
	assert.Contains(t, msg, "modes.theme_attribute")
	assert.Contains(t, msg, "semantics.heading_min_font_size")
	assert.Contains(t, msg, "cache.alias_cache_size")
	assert.Contains(t, msg, `unknown level "loud"`)
}

func TestParse_InvalidSyntax(t *testing.T) {
	_, err := Parse([]byte("modes: [unclosed"), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML config")

	_, err = Parse([]byte("[modes"), FormatTOML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML config")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestResolve_Chain(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	// No flag, no project file: defaults
	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Source)

	// Project file
	require.NoError(t, os.MkdirAll(".stylespec", 0755))
	require.NoError(t, os.WriteFile(ProjectConfigPath, []byte("semantics:\n  heading_min_font_size: 20\n"), 0644))
	cfg, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, ProjectConfigPath, cfg.Source)
	assert.Equal(t, 20.0, cfg.Semantics.HeadingMinFontSize)

	// Flag wins
	flagPath := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(flagPath, []byte("semantics:\n  heading_min_font_size: 40\n"), 0644))
	cfg, err = Resolve(flagPath)
	require.NoError(t, err)
	assert.Equal(t, 40.0, cfg.Semantics.HeadingMinFontSize)
}
