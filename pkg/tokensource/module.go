package tokensource

import (
	"fmt"
	"log/slog"

	"github.com/gnana997/stylespec/pkg/parser"
	"github.com/gnana997/stylespec/pkg/tokens"
)

// wrapperExports are export names that hold tokens directly, without adding
// a path segment.
var wrapperExports = map[string]bool{
	parser.ExportDefault:  true,
	parser.ExportCommonJS: true,
	"tokens":              true,
	"theme":               true,
}

// LoadModule reads a JS or TS theme module. Nested keys of every exported
// object literal become dot paths; an export named other than default,
// tokens or theme prefixes its keys with its name. A leading "theme" or
// "theme.extend" wrapper, as in Tailwind configs, is dropped.
func LoadModule(m *parser.Manager, data []byte, path string, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tree, err := m.ParseFile(data, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse theme module: %w", err)
	}
	defer tree.Close()

	entries := parser.ExportedObjects(tree.RootNode(), data)
	if len(entries) == 0 {
		logger.Warn("theme module exports no object literals", "path", path)
	}

	s := &Set{}
	seen := make(map[string]int)
	for _, e := range entries {
		keys := trimWrappers(e.Path)
		if !wrapperExports[e.Export] {
			keys = append([]string{e.Export}, keys...)
		}
		name := tokenName(keys)
		if name == "" {
			continue
		}
		if line, dup := seen[name]; dup {
			logger.Debug("duplicate token in module, later value wins", "token", name, "first_line", line, "line", e.Line)
		}
		seen[name] = e.Line
		s.Tokens = append(s.Tokens, tokens.Token{Name: name, Value: e.Value})
	}
	return s, nil
}

func trimWrappers(path []string) []string {
	if len(path) > 1 && path[0] == "theme" {
		path = path[1:]
		if len(path) > 1 && path[0] == "extend" {
			path = path[1:]
		}
	}
	return path
}
