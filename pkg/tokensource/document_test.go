package tokensource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/stylespec/pkg/tokens"
)

func TestLoadJSON_Flat(t *testing.T) {
	data := []byte(`{
  "collections": [{"name": "Theme", "modes": ["Light", "Dark"], "default": "Light"}],
  "tokens": [
    {"name": "color.surface", "collection": "Theme", "modes": {"Light": "#ffffff", "Dark": "#0a0a0a"}},
    {"name": "space.4", "value": 16},
    {"name": "radius.md", "value": {"value": 8, "unit": "px"}},
    {"name": "color.link", "value": "{color.surface}", "promoted": false}
  ]
}`)

	s, err := LoadJSON(data, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, []CollectionSpec{{Name: "Theme", Modes: []string{"Light", "Dark"}, Default: "Light"}}, s.Collections)
	require.Len(t, s.Tokens, 4)

	got := byName(s)
	assert.Equal(t, "16", got["space.4"].Value)
	assert.Equal(t, "8px", got["radius.md"].Value)
	require.NotNil(t, got["color.link"].Promoted)
	assert.False(t, *got["color.link"].Promoted)

	table := buildSet(t, s)
	v, ok := table.ResolveMode("color.link", "Dark")
	require.True(t, ok)
	assert.Equal(t, "#0a0a0a", v)
}

func TestLoadJSON_FlatMissingName(t *testing.T) {
	_, err := LoadJSON([]byte(`{"tokens": [{"value": "#fff"}]}`), quietLogger())
	assert.ErrorContains(t, err, "token 0 has no name")
}

func TestLoadJSON_Tree(t *testing.T) {
	data := []byte(`{
  "$collections": [{"name": "Theme", "modes": ["light", "dark"]}],
  "color": {
    "$type": "color",
    "primary": {
      "DEFAULT": {"$value": "#3b82f6"},
      "hover": {"$value": "#2563eb"}
    },
    "surface": {
      "$value": "#ffffff",
      "$extensions": {"collection": "Theme", "modes": {"light": "#ffffff", "dark": "#0a0a0a"}}
    },
    "note": "not a token"
  },
  "size": {
    "gap": {"$value": {"value": 0.5, "unit": "rem"}, "$type": "spacing"}
  },
  "elevation": {
    "1": {"$type": "shadow", "$value": [
      {"offsetX": "0", "offsetY": "1px", "blur": "2px", "color": "#0000001a"},
      {"inset": true, "offsetX": "0", "offsetY": "0", "blur": "0", "spread": "1px", "color": "#e5e7eb"}
    ]}
  },
  "type": {
    "body": {"$type": "typography", "$value": {"fontFamily": "Inter", "fontSize": "14px"}}
  }
}`)

	s, err := LoadJSON(data, quietLogger())
	require.NoError(t, err)

	got := byName(s)
	assert.Len(t, got, 5, "composite typography values are skipped")

	assert.Equal(t, tokens.Token{Name: "color.primary", Value: "#3b82f6", Category: tokens.CategoryColor}, got["color.primary"])
	assert.Equal(t, tokens.CategoryColor, got["color.primary.hover"].Category, "$type is inherited")
	assert.Equal(t, "Theme", got["color.surface"].Collection)
	assert.Equal(t, map[string]string{"light": "#ffffff", "dark": "#0a0a0a"}, got["color.surface"].Modes)
	assert.Equal(t, tokens.Token{Name: "size.gap", Value: "0.5rem", Category: tokens.CategorySpacing}, got["size.gap"])
	assert.Equal(t, "0 1px 2px #0000001a, inset 0 0 0 1px #e5e7eb", got["elevation.1"].Value)
	assert.Equal(t, tokens.CategoryShadow, got["elevation.1"].Category)

	// Natural key order keeps output stable.
	names := make([]string, len(s.Tokens))
	for i, tok := range s.Tokens {
		names[i] = tok.Name
	}
	assert.Equal(t, []string{"color.primary", "color.primary.hover", "color.surface", "elevation.1", "size.gap"}, names)
}

func TestLoadJSON_Invalid(t *testing.T) {
	_, err := LoadJSON([]byte(`{"tokens": [`), quietLogger())
	assert.ErrorContains(t, err, "failed to parse token JSON")

	_, err = LoadJSON([]byte(`[1, 2]`), quietLogger())
	assert.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	data := []byte(`
space:
  $type: spacing
  2: { $value: 8px }
  4: { $value: 16 }
color:
  bg:
    $value: "#ffffff"
    $extensions:
      origin: external
`)
	s, err := LoadYAML(data, quietLogger())
	require.NoError(t, err)

	got := byName(s)
	require.Len(t, got, 3)
	assert.Equal(t, "8px", got["space.2"].Value)
	assert.Equal(t, "16", got["space.4"].Value)
	assert.Equal(t, tokens.CategorySpacing, got["space.4"].Category)
	assert.Equal(t, tokens.OriginExternal, got["color.bg"].Origin)
}

func TestLoadYAML_Flat(t *testing.T) {
	data := []byte(`
collections:
  - name: Breakpoints
    modes: [Mobile, Desktop]
tokens:
  - name: font.size.body
    collection: Breakpoints
    modes: { Mobile: 14px, Desktop: 18px }
`)
	s, err := LoadYAML(data, quietLogger())
	require.NoError(t, err)

	table := buildSet(t, s)
	c, ok := table.Collection("Breakpoints")
	require.True(t, ok)
	assert.Equal(t, "Mobile", c.Default())
	v, _ := table.Resolve("font.size.body")
	assert.Equal(t, "14px", v)
}

func TestLoadYAML_NotMapping(t *testing.T) {
	_, err := LoadYAML([]byte("- a\n- b\n"), quietLogger())
	assert.ErrorContains(t, err, "mapping")
}
