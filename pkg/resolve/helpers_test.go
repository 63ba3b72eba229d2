package resolve

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gnana997/stylespec/pkg/tokens"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestTable builds a small design system: a light/dark theme, a
// mobile-first breakpoint set, plain spacing/radius/shadow tokens and one
// external brand color.
func newTestTable(t *testing.T) *tokens.Table {
	t.Helper()

	b := tokens.NewBuilder(nil).WithLogger(quietLogger())
	require.NoError(t, b.AddCollection("Theme", []string{"Light", "Dark"}, ""))
	require.NoError(t, b.AddCollection("Breakpoints", []string{"Mobile", "Tablet", "Desktop"}, ""))

	b.Add(
		tokens.Token{Name: "color.blue.500", Value: "#3b82f6"},
		tokens.Token{Name: "color.border", Value: "#E5E7EB"},
		tokens.Token{Name: "color.surface", Collection: "Theme", Modes: map[string]string{
			"Light": "#ffffff",
			"Dark":  "#0a0a0a",
		}},
		tokens.Token{Name: "color.text", Collection: "Theme", Modes: map[string]string{
			"Light": "#111111",
			"Dark":  "#f5f5f5",
		}},
		tokens.Token{Name: "font.size.body", Collection: "Breakpoints", Modes: map[string]string{
			"Mobile":  "14px",
			"Tablet":  "16px",
			"Desktop": "18px",
		}},
		tokens.Token{Name: "space.2", Value: "8px"},
		tokens.Token{Name: "space.4", Value: "16px"},
		tokens.Token{Name: "radius.md", Value: "8px"},
		tokens.Token{Name: "shadow.sm", Value: "0 1px 2px #0000001a"},
		tokens.Token{Name: "brand.primary", Value: "#ff0066", Origin: tokens.OriginExternal},
	)

	table, diags := b.Build()
	require.Empty(t, diags)
	return table
}
