package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/stylespec/pkg/resolve"
	"github.com/gnana997/stylespec/pkg/tokens"
	"github.com/gnana997/stylespec/pkg/watch"
)

const cardDesign = `{
  "name": "card",
  "root": {
    "id": "1:1",
    "name": "Card",
    "kind": "container",
    "layout": {"axis": "column", "gap": 16},
    "visual": {"fill": "#ffffff", "corner_radius": 8}
  }
}`

const tokenFile = `{
  "collections": [{"name": "Theme", "modes": ["Light", "Dark"]}],
  "tokens": [
    {"name": "color.surface", "collection": "Theme", "modes": {"Light": "#ffffff", "Dark": "#0a0a0a"}},
    {"name": "space.4", "value": "16px"},
    {"name": "radius.md", "value": "8px"}
  ]
}`

// project writes files into a temp dir and makes it the working directory.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(dir)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--log-format", "text"))
	err := root.Execute()
	return stdout.String(), err
}

func TestResolveCommand(t *testing.T) {
	project(t, map[string]string{
		"tokens.json":      tokenFile,
		"card.design.json": cardDesign,
	})

	out, err := execute(t, "resolve", "card.design.json")
	require.NoError(t, err)

	var res resolve.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "card", res.Document)
	require.Len(t, res.Nodes, 1)

	bg, ok := res.Nodes[0].Get("background-color")
	require.True(t, ok)
	assert.Equal(t, "var(--color-surface)", bg.Value)

	gap, ok := res.Nodes[0].Get("gap")
	require.True(t, ok)
	assert.Equal(t, resolve.LayerStructural, gap.Layer)
	assert.Equal(t, "space.4", gap.Token)

	require.NotEmpty(t, res.Modes)
	assert.Equal(t, resolve.BlockBase, res.Modes[0].Kind)
}

func TestResolveCommand_ExplicitTokensAndOut(t *testing.T) {
	dir := project(t, map[string]string{
		"design/tokens.json": tokenFile,
		"a.json":             cardDesign,
		"b.json":             cardDesign,
	})

	out, err := execute(t, "resolve", "a.json", "b.json", "--out", "build", "--tokens", "design/tokens.json")
	require.NoError(t, err)
	assert.Contains(t, out, "resolved 2 document(s)")

	for _, name := range []string{"a.styles.json", "b.styles.json"} {
		data, err := os.ReadFile(filepath.Join(dir, "build", name))
		require.NoError(t, err)
		var res resolve.Result
		require.NoError(t, json.Unmarshal(data, &res))
		assert.Equal(t, "card", res.Document)
	}
}

func TestResolveCommand_ManyToStdout(t *testing.T) {
	project(t, map[string]string{"a.json": cardDesign, "b.json": cardDesign})

	out, err := execute(t, "resolve", "a.json", "b.json")
	require.NoError(t, err)
	var results []resolve.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Len(t, results, 2)
}

func TestResolveCommand_Errors(t *testing.T) {
	project(t, map[string]string{"bad.json": `{"name": "x"}`})

	_, err := execute(t, "resolve")
	assert.Error(t, err, "at least one document is required")

	_, err = execute(t, "resolve", "missing.json")
	assert.ErrorContains(t, err, "failed to read design file")

	_, err = execute(t, "resolve", "bad.json")
	assert.ErrorContains(t, err, "root node is required")
}

func TestModesCommand(t *testing.T) {
	project(t, nil)

	out, err := execute(t, "modes", "Mobile", "Tablet", "Desktop", "--collection", "Breakpoints")
	require.NoError(t, err)
	assert.Contains(t, out, "Breakpoints")
	assert.Contains(t, out, "default Mobile")
	assert.Contains(t, out, "@media (min-width: 768px)")
	assert.Contains(t, out, "@media (min-width: 1024px)")
}

func TestModesCommand_JSON(t *testing.T) {
	project(t, nil)

	out, err := execute(t, "modes", "Light", "Dark", "--json")
	require.NoError(t, err)

	var got modesOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, tokens.ClassTheme, got.Collection.Classification)
	assert.Equal(t, "Light", got.Collection.Default)
	require.Len(t, got.Conditions, 2)
	assert.Equal(t, "@media (prefers-color-scheme: dark)", got.Conditions[0].Query)
	assert.Equal(t, `[data-theme="dark"]`, got.Conditions[1].Query)
}

func TestModesCommand_ThemeAttributeFromConfig(t *testing.T) {
	project(t, map[string]string{
		".stylespec/config.yaml": "modes:\n  theme_attribute: data-mode\n",
	})

	out, err := execute(t, "modes", "Light", "Dark", "--json")
	require.NoError(t, err)
	var got modesOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Conditions, 2)
	assert.Equal(t, `[data-mode="dark"]`, got.Conditions[1].Query)
}

func TestTokensCommand(t *testing.T) {
	project(t, map[string]string{
		"tokens.json": tokenFile,
		"brand.json":  `{"tokens": [{"name": "brand.primary", "value": "#ff0066"}]}`,
	})

	out, err := execute(t, "tokens", "--json", "--external-tokens", "brand.json")
	require.NoError(t, err)
	var rows []tokenRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 4)

	out, err = execute(t, "tokens", "--json", "--external-tokens", "brand.json", "--origin", "external")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "--brand-primary", rows[0].CustomProperty)

	out, err = execute(t, "tokens", "--category", "spacing")
	require.NoError(t, err)
	assert.Contains(t, out, "--space-4")
	assert.Contains(t, out, "1 of 3 tokens")
}

func TestVersionCommand(t *testing.T) {
	project(t, nil)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "stylespec "+version+"\n", out)
}

func TestInvalidConfig(t *testing.T) {
	project(t, map[string]string{"bad.yaml": "modes:\n  named_thresholds:\n    tablet: -1\n"})

	_, err := execute(t, "--config", "bad.yaml", "modes", "Light")
	assert.ErrorContains(t, err, "must not be negative")
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "card.design.styles.json", outputName("/x/card.design.json"))
	assert.Equal(t, "page.styles.json", outputName("page.json"))
}

func TestWatchSink(t *testing.T) {
	dir := t.TempDir()
	a := &app{logger: quietLogger()}
	res := &resolve.Result{Document: "card", Nodes: []resolve.NodeStyles{{NodeID: "1:1"}}}

	var buf bytes.Buffer
	sink := a.watchSink(&buf, filepath.Join(dir, "out"), true)
	sink(watch.Event{Run: "r1", Op: watch.OpResolved, Path: "/src/card.json", Result: res})
	sink(watch.Event{Run: "r2", Op: watch.OpFailed, Path: "/src/bad.json", Err: errors.New("boom")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var ok, failed watchEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ok))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failed))

	assert.Equal(t, watch.OpResolved, ok.Op)
	assert.Equal(t, 1, ok.Nodes)
	assert.Equal(t, filepath.Join(dir, "out", "card.styles.json"), ok.Output)
	assert.FileExists(t, ok.Output)

	assert.Equal(t, watch.OpFailed, failed.Op)
	assert.Equal(t, "boom", failed.Error)
}

func TestWatchSink_Human(t *testing.T) {
	a := &app{logger: quietLogger()}
	var buf bytes.Buffer
	sink := a.watchSink(&buf, "", false)
	sink(watch.Event{Op: watch.OpResolved, Path: "card.json", Result: &resolve.Result{}})
	sink(watch.Event{Op: watch.OpRemoved, Path: "old.json"})
	assert.Contains(t, buf.String(), "card.json: 0 nodes, 0 diagnostics")
	assert.Contains(t, buf.String(), "old.json removed")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
