package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/stylespec/pkg/tokens"
)

func collection(t *testing.T, name string, modes ...string) *tokens.Collection {
	t.Helper()
	c, _, err := tokens.NewCollection(name, modes, "", nil)
	require.NoError(t, err)
	return c
}

func TestConditions_BreakpointsAscending(t *testing.T) {
	// Declaration order does not matter; output is mobile-first.
	c := collection(t, "Breakpoints", "Desktop", "Mobile", "Tablet")
	require.Equal(t, "Mobile", c.Default())

	got := Conditions(c, "")
	assert.Equal(t, []Condition{
		{Mode: "Tablet", Kind: BlockMinWidth, Query: "@media (min-width: 768px)", Threshold: 768},
		{Mode: "Desktop", Kind: BlockMinWidth, Query: "@media (min-width: 1024px)", Threshold: 1024},
	}, got)
}

func TestConditions_NumericBreakpoints(t *testing.T) {
	c := collection(t, "Widths", "1280px", "md-768px", "375")
	require.Equal(t, "375", c.Default())

	got := Conditions(c, "")
	require.Len(t, got, 2)
	assert.Equal(t, 768, got[0].Threshold)
	assert.Equal(t, 1280, got[1].Threshold)
}

func TestConditions_Theme(t *testing.T) {
	c := collection(t, "Theme", "Light Desktop", "Dark Desktop")
	require.Equal(t, tokens.ClassTheme, c.Classification())

	got := Conditions(c, "data-mode")
	assert.Equal(t, []Condition{
		{Mode: "Dark Desktop", Kind: BlockColorScheme, Query: "@media (prefers-color-scheme: dark)"},
		{Mode: "Dark Desktop", Kind: BlockAttribute, Query: `[data-mode="dark-desktop"]`, OverridesAutomatic: true},
	}, got)
}

func TestConditions_ThemeWithoutScheme(t *testing.T) {
	c := collection(t, "Theme", "Light", "High Contrast Theme")

	got := Conditions(c, "")
	assert.Equal(t, []Condition{
		{Mode: "High Contrast Theme", Kind: BlockAttribute, Query: `[data-theme="high-contrast-theme"]`, OverridesAutomatic: true},
	}, got)
}

func TestConditions_Unknown(t *testing.T) {
	c := collection(t, "Brand", "Acme", "Globex")
	require.Equal(t, tokens.ClassUnknown, c.Classification())
	assert.Empty(t, Conditions(c, ""))
}

func TestMerge(t *testing.T) {
	table := newTestTable(t)

	blocks, diags := Merge(table, []string{"color.surface", "font.size.body", "brand.primary", "color.blue.500", "color.surface", ""}, "")
	assert.Empty(t, diags)
	require.Len(t, blocks, 5)

	base := blocks[0]
	assert.Equal(t, BlockBase, base.Kind)
	assert.Equal(t, ":root", base.Query)
	assert.Equal(t, []Declaration{
		{Property: "--color-blue-500", Value: "#3b82f6", Layer: LayerToken, Token: "color.blue.500"},
		{Property: "--color-surface", Value: "#ffffff", Layer: LayerToken, Token: "color.surface"},
		{Property: "--font-size-body", Value: "14px", Layer: LayerToken, Token: "font.size.body"},
	}, base.Declarations, "external tokens are not defined in the base block")

	assert.Equal(t, "@media (min-width: 768px)", blocks[1].Query)
	assert.Equal(t, []Declaration{{Property: "--font-size-body", Value: "16px", Layer: LayerToken, Token: "font.size.body"}}, blocks[1].Declarations)
	assert.Equal(t, "@media (min-width: 1024px)", blocks[2].Query)
	assert.Equal(t, "18px", blocks[2].Declarations[0].Value)

	assert.Equal(t, BlockColorScheme, blocks[3].Kind)
	assert.Equal(t, "Theme", blocks[3].Collection)
	assert.Equal(t, "Dark", blocks[3].Mode)
	assert.False(t, blocks[3].OverridesAutomatic)
	assert.Equal(t, []Declaration{{Property: "--color-surface", Value: "#0a0a0a", Layer: LayerToken, Token: "color.surface"}}, blocks[3].Declarations)

	assert.Equal(t, BlockAttribute, blocks[4].Kind)
	assert.Equal(t, `[data-theme="dark"]`, blocks[4].Query)
	assert.True(t, blocks[4].OverridesAutomatic)
	assert.Equal(t, blocks[3].Declarations, blocks[4].Declarations)
}

func TestMerge_AliasOfThemedToken(t *testing.T) {
	b := tokens.NewBuilder(nil).WithLogger(quietLogger())
	require.NoError(t, b.AddCollection("Theme", []string{"Light", "Dark"}, ""))
	require.NoError(t, b.AddCollection("Breakpoints", []string{"Mobile", "Desktop 1024"}, ""))
	b.Add(
		tokens.Token{Name: "color.surface", Collection: "Theme", Modes: map[string]string{"Light": "#ffffff", "Dark": "#0a0a0a"}},
		tokens.Token{Name: "button.bg", Alias: "{color.surface}"},
		tokens.Token{Name: "card.bg", Alias: "{button.bg}"},
		tokens.Token{Name: "space.page", Collection: "Breakpoints", Modes: map[string]string{"Mobile": "16px", "Desktop 1024": "32px"}},
		tokens.Token{Name: "layout.gutter", Alias: "{space.page}"},
	)
	table, diags := b.Build()
	require.Empty(t, diags)

	blocks, diags := Merge(table, []string{"button.bg", "card.bg", "layout.gutter"}, "")
	assert.Empty(t, diags)
	require.Len(t, blocks, 4)

	assert.Equal(t, []Declaration{
		{Property: "--button-bg", Value: "#ffffff", Layer: LayerToken, Token: "button.bg"},
		{Property: "--card-bg", Value: "#ffffff", Layer: LayerToken, Token: "card.bg"},
		{Property: "--layout-gutter", Value: "16px", Layer: LayerToken, Token: "layout.gutter"},
	}, blocks[0].Declarations)

	assert.Equal(t, "Breakpoints", blocks[1].Collection)
	assert.Equal(t, "@media (min-width: 1024px)", blocks[1].Query)
	assert.Equal(t, []Declaration{
		{Property: "--layout-gutter", Value: "32px", Layer: LayerToken, Token: "layout.gutter"},
	}, blocks[1].Declarations)

	dark := []Declaration{
		{Property: "--button-bg", Value: "#0a0a0a", Layer: LayerToken, Token: "button.bg"},
		{Property: "--card-bg", Value: "#0a0a0a", Layer: LayerToken, Token: "card.bg"},
	}
	assert.Equal(t, BlockColorScheme, blocks[2].Kind)
	assert.Equal(t, "Dark", blocks[2].Mode)
	assert.Equal(t, dark, blocks[2].Declarations)
	assert.Equal(t, BlockAttribute, blocks[3].Kind)
	assert.Equal(t, dark, blocks[3].Declarations)
}

func TestMerge_SkipsUnchangedValues(t *testing.T) {
	b := tokens.NewBuilder(nil).WithLogger(quietLogger())
	require.NoError(t, b.AddCollection("Theme", []string{"Light", "Dark"}, ""))
	b.Add(
		tokens.Token{Name: "color.brand", Collection: "Theme", Modes: map[string]string{"Light": "#ff0000", "Dark": "#ff0000"}},
		tokens.Token{Name: "color.bg", Collection: "Theme", Modes: map[string]string{"Light": "#ffffff"}},
	)
	table, _ := b.Build()

	blocks, _ := Merge(table, []string{"color.brand", "color.bg"}, "")
	require.Len(t, blocks, 1, "no conditional block when nothing differs")
	assert.Len(t, blocks[0].Declarations, 2)
}

func TestMerge_UnresolvedAlias(t *testing.T) {
	b := tokens.NewBuilder(nil).WithLogger(quietLogger())
	b.Add(tokens.Token{Name: "color.loop", Alias: "{color.loop}"})
	table, _ := b.Build()

	blocks, diags := Merge(table, []string{"color.loop"}, "")
	require.Len(t, blocks, 1)
	assert.Equal(t, "", blocks[0].Declarations[0].Value)
	require.Len(t, diags, 1)
}

func TestMerge_Empty(t *testing.T) {
	blocks, diags := Merge(newTestTable(t), nil, "")
	assert.Empty(t, diags)
	require.Len(t, blocks, 1)
	assert.NotNil(t, blocks[0].Declarations)
	assert.Empty(t, blocks[0].Declarations)
}
