package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/stylespec/pkg/resolve"
	"github.com/gnana997/stylespec/pkg/tokens"
)

// --- helpers ---

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTable(t *testing.T) *tokens.Table {
	t.Helper()
	b := tokens.NewBuilder(nil).WithLogger(quietLogger())
	require.NoError(t, b.AddCollection("Theme", []string{"Light", "Dark"}, ""))
	b.Add(
		tokens.Token{Name: "color.blue.500", Value: "#3b82f6"},
		tokens.Token{Name: "color.surface", Collection: "Theme", Modes: map[string]string{
			"Light": "#ffffff",
			"Dark":  "#0a0a0a",
		}},
		tokens.Token{Name: "color.primary", Value: "{color.blue.500}"},
		tokens.Token{Name: "space.2", Value: "8px"},
		tokens.Token{Name: "radius.md", Value: "8px"},
		tokens.Token{Name: "brand.accent", Value: "#ff0066", Origin: tokens.OriginExternal},
	)
	table, diags := b.Build()
	require.Empty(t, diags)
	return table
}

func testServer(t *testing.T) *Server {
	t.Helper()
	engine := resolve.NewEngine(testTable(t), resolve.DefaultOptions(), quietLogger())
	return NewServer(engine, Options{Logger: quietLogger()})
}

func callTool(t *testing.T, s *Server, req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	var handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
	switch req.Params.Name {
	case "resolve_styles":
		handler = s.handleResolveStyles
	case "classify_modes":
		handler = s.handleClassifyModes
	case "lookup_token":
		handler = s.handleLookupToken
	case "list_tokens":
		handler = s.handleListTokens
	default:
		t.Fatalf("unknown tool: %s", req.Params.Name)
	}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

const cardDesign = `{
  "name": "card",
  "root": {
    "id": "1:1",
    "name": "Card",
    "kind": "container",
    "layout": {"axis": "column", "gap": 8},
    "visual": {"fill": "#FFFFFF", "corner_radius": 8},
    "children": [
      {
        "id": "1:2",
        "name": "Title",
        "kind": "text",
        "sizing": {"horizontal": "fill", "vertical": "hug"},
        "text": {"content": "Hello", "font_size": 16, "color": "#3b82f6"}
      }
    ]
  }
}`

func declaration(t *testing.T, ns resolve.NodeStyles, prop string) resolve.Declaration {
	t.Helper()
	d, ok := ns.Get(prop)
	require.True(t, ok, "node %s has no %s declaration", ns.NodeID, prop)
	return d
}

// --- resolve_styles ---

func TestHandleResolveStyles(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("resolve_styles", map[string]any{"design": cardDesign}))
	require.False(t, result.IsError, resultJSON(t, result))

	var res resolve.Result
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &res))
	assert.Equal(t, "card", res.Document)
	require.Len(t, res.Nodes, 2)

	root := res.Nodes[0]
	bg := declaration(t, root, "background-color")
	assert.Equal(t, resolve.LayerToken, bg.Layer)
	assert.Equal(t, "var(--color-surface)", bg.Value)
	assert.Equal(t, "radius.md", declaration(t, root, "border-radius").Token)

	// color.surface is themed, so the document carries its mode blocks.
	require.NotEmpty(t, res.Modes)
	assert.Equal(t, resolve.BlockBase, res.Modes[0].Kind)
}

func TestHandleResolveStyles_NodeFilter(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("resolve_styles", map[string]any{
		"design":   cardDesign,
		"node_ids": []any{"1:2"},
	}))
	require.False(t, result.IsError)

	var res resolve.Result
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &res))
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, "Title", res.Nodes[0].Name)
	assert.Equal(t, "color.blue.500", declaration(t, res.Nodes[0], "color").Token)
}

func TestHandleResolveStyles_UnknownNode(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("resolve_styles", map[string]any{
		"design":   cardDesign,
		"node_ids": []any{"9:9"},
	}))
	assert.True(t, result.IsError)
	assert.Contains(t, resultJSON(t, result), "9:9")
}

func TestHandleResolveStyles_Errors(t *testing.T) {
	s := testServer(t)

	result := callTool(t, s, makeRequest("resolve_styles", nil))
	assert.True(t, result.IsError, "design is required")

	result = callTool(t, s, makeRequest("resolve_styles", map[string]any{"design": "{not json"}))
	assert.True(t, result.IsError)
	assert.Contains(t, resultJSON(t, result), "failed to parse design JSON")
}

// --- classify_modes ---

func TestHandleClassifyModes_Breakpoints(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("classify_modes", map[string]any{
		"modes":      []any{"Desktop", "Mobile", "Tablet"},
		"collection": "Breakpoints",
	}))
	require.False(t, result.IsError, resultJSON(t, result))

	var out classifyModesResult
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &out))
	assert.Equal(t, "Breakpoints", out.Collection.Name)
	assert.Equal(t, tokens.ClassBreakpoint, out.Collection.Classification)
	assert.Equal(t, "Mobile", out.Collection.Default)

	require.Len(t, out.Conditions, 2)
	assert.Equal(t, "Tablet", out.Conditions[0].Mode)
	assert.Equal(t, "@media (min-width: 768px)", out.Conditions[0].Query)
	assert.Equal(t, "Desktop", out.Conditions[1].Mode)
	assert.Equal(t, "@media (min-width: 1024px)", out.Conditions[1].Query)
}

func TestHandleClassifyModes_Theme(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("classify_modes", map[string]any{
		"modes": []any{"Light", "Dark"},
	}))
	require.False(t, result.IsError)

	var out classifyModesResult
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &out))
	assert.Equal(t, tokens.ClassTheme, out.Collection.Classification)
	assert.Equal(t, "Light", out.Collection.Default)
	require.Len(t, out.Conditions, 2)
	assert.Equal(t, resolve.BlockColorScheme, out.Conditions[0].Kind)
	assert.Equal(t, resolve.BlockAttribute, out.Conditions[1].Kind)
	assert.Equal(t, `[data-theme="dark"]`, out.Conditions[1].Query)
	assert.Empty(t, out.Diagnostics)
}

func TestHandleClassifyModes_ExplicitDefault(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("classify_modes", map[string]any{
		"modes":   []any{"Light", "Dark"},
		"default": "Dark",
	}))
	require.False(t, result.IsError)

	var out classifyModesResult
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &out))
	assert.Equal(t, "Dark", out.Collection.Default)
	require.NotEmpty(t, out.Conditions)
	assert.Equal(t, "Light", out.Conditions[0].Mode)
}

func TestHandleClassifyModes_Empty(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("classify_modes", map[string]any{"modes": []any{}}))
	assert.True(t, result.IsError)
	assert.Contains(t, resultJSON(t, result), tokens.ErrEmptyModeCollection.Error())
}

// --- lookup_token ---

func TestHandleLookupToken(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("lookup_token", map[string]any{"value": "#3B82F6"}))
	require.False(t, result.IsError)

	var out lookupResult
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &out))
	require.True(t, out.Found)
	require.NotNil(t, out.Reference)
	assert.Equal(t, "color.blue.500", out.Reference.Token, "ties go to the first name in natural order")
	assert.Equal(t, "--color-blue-500", out.Reference.Property)
}

func TestHandleLookupToken_External(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("lookup_token", map[string]any{"value": "#ff0066"}))

	var out lookupResult
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &out))
	require.NotNil(t, out.Reference)
	assert.Equal(t, tokens.OriginExternal, out.Reference.Origin)
	assert.Equal(t, "#ff0066", out.Reference.Fallback)
}

func TestHandleLookupToken_WithProperty(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("lookup_token", map[string]any{
		"value":    "8px",
		"property": "border-radius",
	}))

	var out lookupResult
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &out))
	require.True(t, out.Found)
	require.NotNil(t, out.Declaration)
	assert.Equal(t, resolve.LayerToken, out.Declaration.Layer)
	assert.Equal(t, "var(--radius-md)", out.Declaration.Value)
	assert.Equal(t, []string{"radius.md"}, out.Refs)
}

func TestHandleLookupToken_NotFound(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("lookup_token", map[string]any{"value": "#123456"}))
	require.False(t, result.IsError)
	assert.JSONEq(t, `{"found": false}`, resultJSON(t, result))
}

// --- list_tokens ---

func TestHandleListTokens(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("list_tokens", nil))
	require.False(t, result.IsError)

	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &out))
	assert.Len(t, out, 6)
}

func TestHandleListTokens_Filters(t *testing.T) {
	s := testServer(t)

	result := callTool(t, s, makeRequest("list_tokens", map[string]any{"prefix": "color.", "category": "color"}))
	var out []tokenEntry
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &out))
	require.Len(t, out, 3)
	for _, e := range out {
		if e.Name == "color.primary" {
			assert.Equal(t, "#3b82f6", e.Resolved, "aliases are listed with their resolved value")
			assert.Equal(t, "--color-primary", e.CustomProperty)
		}
	}

	result = callTool(t, s, makeRequest("list_tokens", map[string]any{"collection": "Theme"}))
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "color.surface", out[0].Name)

	result = callTool(t, s, makeRequest("list_tokens", map[string]any{"origin": "external"}))
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "brand.accent", out[0].Name)
}
