package tokensource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/stylespec/pkg/tokens"
)

// LoadJSON parses a token document. Two shapes are accepted:
//
//	{"collections": [{"name", "modes", "default"}], "tokens": [{"name", "value", ...}]}
//
// and a nested tree in the Design Tokens Community Group format, where any
// object with a "$value" is a token, "$type" is inherited by descendants,
// and "$extensions" may carry "collection" and per-mode "modes" values.
// A root "$collections" array declares collections for the tree form.
func LoadJSON(data []byte, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse token JSON: %w", err)
	}
	return fromTree(root, logger)
}

// LoadYAML parses the same shapes as LoadJSON from YAML.
func LoadYAML(data []byte, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse token YAML: %w", err)
	}
	root, ok := stringKeys(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("token YAML must be a mapping at the top level")
	}
	return fromTree(root, logger)
}

// stringKeys converts YAML mappings with non-string keys (e.g. "4: 16px")
// into map[string]any.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			t[k] = stringKeys(x)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[fmt.Sprint(k)] = stringKeys(x)
		}
		return out
	case []any:
		for i, x := range t {
			t[i] = stringKeys(x)
		}
		return t
	}
	return v
}

type flatDocument struct {
	Collections []CollectionSpec `json:"collections"`
	Tokens      []tokens.Token   `json:"tokens"`
}

func fromTree(root map[string]any, logger *slog.Logger) (*Set, error) {
	if list, ok := root["tokens"].([]any); ok {
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				stringifyValues(m)
			}
		}
		// Round-trip through JSON so the flat form decodes with the
		// Token struct tags whichever syntax it came from.
		raw, err := json.Marshal(map[string]any{"collections": root["collections"], "tokens": list})
		if err != nil {
			return nil, fmt.Errorf("failed to read token list: %w", err)
		}
		var doc flatDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to read token list: %w", err)
		}
		for i, t := range doc.Tokens {
			if strings.TrimSpace(t.Name) == "" {
				return nil, fmt.Errorf("token %d has no name", i)
			}
		}
		return &Set{Collections: doc.Collections, Tokens: doc.Tokens}, nil
	}

	s := &Set{}
	if cols, ok := root["$collections"]; ok {
		raw, err := json.Marshal(cols)
		if err != nil {
			return nil, fmt.Errorf("failed to read $collections: %w", err)
		}
		if err := json.Unmarshal(raw, &s.Collections); err != nil {
			return nil, fmt.Errorf("failed to read $collections: %w", err)
		}
	}
	walkTree(s, root, nil, "", logger)
	return s, nil
}

// stringifyValues lets flat token entries use bare numbers and dimension
// objects for "value" and "modes".
func stringifyValues(m map[string]any) {
	if v, ok := m["value"]; ok {
		if s, ok := scalar(v); ok {
			m["value"] = s
		}
	}
	if modes, ok := m["modes"].(map[string]any); ok {
		for k, v := range modes {
			if s, ok := scalar(v); ok {
				modes[k] = s
			}
		}
	}
}

func walkTree(s *Set, group map[string]any, path []string, inherited string, logger *slog.Logger) {
	if t, ok := group["$type"].(string); ok {
		inherited = t
	}

	keys := make([]string, 0, len(group))
	for k := range group {
		if !strings.HasPrefix(k, "$") {
			keys = append(keys, k)
		}
	}
	sort.Sort(natural.StringSlice(keys))

	for _, k := range keys {
		child, ok := group[k].(map[string]any)
		if !ok {
			logger.Debug("skipping non-object token entry", "path", strings.Join(append(path, k), "."))
			continue
		}
		p := append(append([]string(nil), path...), k)
		if _, isToken := child["$value"]; isToken {
			if tok, ok := treeToken(child, p, inherited, logger); ok {
				s.Tokens = append(s.Tokens, tok)
			}
			continue
		}
		walkTree(s, child, p, inherited, logger)
	}
}

func treeToken(node map[string]any, path []string, inherited string, logger *slog.Logger) (tokens.Token, bool) {
	name := tokenName(path)
	typ := inherited
	if t, ok := node["$type"].(string); ok {
		typ = t
	}

	value, ok := scalar(node["$value"])
	if !ok {
		logger.Warn("skipping token with unsupported value", "token", name, "type", typ)
		return tokens.Token{}, false
	}

	tok := tokens.Token{
		Name:     name,
		Value:    value,
		Category: categoryForType(typ),
	}
	if ext, ok := node["$extensions"].(map[string]any); ok {
		if c, ok := ext["collection"].(string); ok {
			tok.Collection = c
		}
		if modes, ok := ext["modes"].(map[string]any); ok {
			tok.Modes = make(map[string]string, len(modes))
			for m, raw := range modes {
				if v, ok := scalar(raw); ok {
					tok.Modes[m] = v
				}
			}
		}
		if p, ok := ext["promoted"].(bool); ok {
			tok.Promoted = &p
		}
		if o, ok := ext["origin"].(string); ok {
			tok.Origin = tokens.Origin(o)
		}
	}
	return tok, true
}

// scalar renders a token value as a CSS literal. Dimension objects and
// shadow objects (or lists of them) are flattened; other composites are
// rejected.
func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case int, int64, uint64, float64:
		return fmt.Sprint(t), true
	case bool:
		return "", false
	case map[string]any:
		if n, ok := t["value"]; ok {
			num, ok := scalar(n)
			if !ok {
				return "", false
			}
			unit, _ := t["unit"].(string)
			return num + unit, true
		}
		if _, ok := t["color"]; ok {
			return shadow(t)
		}
	case []any:
		parts := make([]string, 0, len(t))
		for _, x := range t {
			p, ok := scalar(x)
			if !ok {
				return "", false
			}
			parts = append(parts, p)
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ", "), true
	}
	return "", false
}

func shadow(m map[string]any) (string, bool) {
	var parts []string
	if inset, _ := m["inset"].(bool); inset {
		parts = append(parts, "inset")
	}
	for _, k := range []string{"offsetX", "offsetY", "blur", "spread", "color"} {
		raw, ok := m[k]
		if !ok {
			continue
		}
		v, ok := scalar(raw)
		if !ok {
			return "", false
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " "), true
}

func categoryForType(typ string) tokens.Category {
	switch typ {
	case "color":
		return tokens.CategoryColor
	case "shadow":
		return tokens.CategoryShadow
	case "borderRadius":
		return tokens.CategoryRadius
	case "spacing":
		return tokens.CategorySpacing
	case "fontFamily", "fontWeight", "fontSize", "lineHeight", "letterSpacing", "typography":
		return tokens.CategoryTypography
	}
	return ""
}
