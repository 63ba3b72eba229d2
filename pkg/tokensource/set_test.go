package tokensource

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/stylespec/pkg/tokens"
)

func TestMerge(t *testing.T) {
	a := &Set{
		Sources:     []string{"a.css"},
		Collections: []CollectionSpec{{Name: "Theme", Modes: []string{"light", "dark"}, Default: "light"}},
		Tokens:      []tokens.Token{{Name: "x", Value: "1"}},
	}
	b := &Set{
		Sources: []string{"b.css"},
		Collections: []CollectionSpec{
			{Name: "Theme", Modes: []string{"light", "ocean"}},
			{Name: "Breakpoints", Modes: []string{"0px", "768px"}},
		},
		Tokens: []tokens.Token{{Name: "x", Value: "2"}},
	}

	got := Merge(a, nil, b)
	assert.Equal(t, []string{"a.css", "b.css"}, got.Sources)
	assert.Equal(t, []CollectionSpec{
		{Name: "Theme", Modes: []string{"light", "dark", "ocean"}, Default: "light"},
		{Name: "Breakpoints", Modes: []string{"0px", "768px"}},
	}, got.Collections)
	assert.Len(t, got.Tokens, 2)

	// Inputs are not aliased.
	assert.Equal(t, []string{"light", "dark"}, a.Collections[0].Modes)

	table := buildSet(t, got)
	v, ok := table.Resolve("x")
	require.True(t, ok)
	assert.Equal(t, "2", v, "later sets win")
}

func TestAddTo_InfersCollections(t *testing.T) {
	s := &Set{Tokens: []tokens.Token{
		{Name: "color.bg", Collection: "Theme", Modes: map[string]string{"Light": "#fff", "Dark": "#000"}},
		{Name: "color.fg", Collection: "Theme", Modes: map[string]string{"Light": "#111"}},
	}}

	b := tokens.NewBuilder(nil).WithLogger(quietLogger())
	require.NoError(t, s.AddTo(b, tokens.OriginExternal))
	table, diags := b.Build()
	assert.Empty(t, diags)

	c, ok := table.Collection("Theme")
	require.True(t, ok)
	assert.Equal(t, "Light", c.Default())
	assert.Equal(t, tokens.ClassTheme, c.Classification())

	v, _ := table.ResolveMode("color.bg", "Dark")
	assert.Equal(t, "#000", v)

	tok, _ := table.Lookup("color.fg")
	assert.Equal(t, tokens.OriginExternal, tok.Origin)
}

func TestAddTo_EmptyCollection(t *testing.T) {
	s := &Set{Collections: []CollectionSpec{{Name: "Empty"}}}
	err := s.AddTo(tokens.NewBuilder(nil).WithLogger(quietLogger()), "")
	assert.True(t, errors.Is(err, tokens.ErrEmptyModeCollection))
}

func TestTokenName(t *testing.T) {
	assert.Equal(t, "color.primary", tokenName([]string{"color", "primary", "DEFAULT"}))
	assert.Equal(t, "color.primary.hover", tokenName([]string{"color", "primary", "_", "hover"}))
	assert.Equal(t, "", tokenName([]string{"@"}))
}

func TestSourceError(t *testing.T) {
	inner := errors.New("boom")
	err := error(&SourceError{Path: "a.json", Err: inner})
	assert.Equal(t, "a.json: boom", err.Error())
	assert.ErrorIs(t, err, inner)
}
