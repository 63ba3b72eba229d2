package parser

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Export names used for anonymous exports.
const (
	ExportDefault  = "default"
	ExportCommonJS = "module.exports"
)

// Entry is one scalar leaf of an exported object literal.
type Entry struct {
	// Export is the exported binding: a const name, ExportDefault or
	// ExportCommonJS.
	Export string
	// Path holds the object keys leading to the leaf.
	Path  []string
	Value string
	Line  int
}

// ExportedObjects flattens every object literal a module exports, in source
// order. It understands
//
//	export const tokens = { ... }
//	export default { ... }
//	const theme = { ... }; export default theme
//	module.exports = { ... }
//
// TypeScript "as const" and "satisfies" wrappers are looked through. Leaves
// that are not string, number or template literals are skipped, and arrays
// of literals are joined with ", ".
func ExportedObjects(root *ts.Node, source []byte) []Entry {
	if root == nil {
		return nil
	}

	locals := make(map[string]*ts.Node)
	var out []Entry

	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Kind() {
		case "lexical_declaration", "variable_declaration":
			for _, d := range declarators(stmt, source) {
				locals[d.name] = d.value
			}

		case "export_statement":
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				for _, d := range declarators(decl, source) {
					out = flatten(out, d.value, d.name, nil, source)
				}
				continue
			}
			value := unwrap(stmt.ChildByFieldName("value"))
			if value != nil && value.Kind() == "identifier" {
				value = locals[value.Utf8Text(source)]
			}
			out = flatten(out, value, ExportDefault, nil, source)

		case "expression_statement":
			assign := stmt.NamedChild(0)
			if assign == nil || assign.Kind() != "assignment_expression" {
				continue
			}
			left := assign.ChildByFieldName("left")
			if left == nil || left.Utf8Text(source) != ExportCommonJS {
				continue
			}
			value := unwrap(assign.ChildByFieldName("right"))
			if value != nil && value.Kind() == "identifier" {
				value = locals[value.Utf8Text(source)]
			}
			out = flatten(out, value, ExportCommonJS, nil, source)
		}
	}
	return out
}

type declarator struct {
	name  string
	value *ts.Node
}

// declarators returns the object-valued declarators of a const/let/var.
func declarators(decl *ts.Node, source []byte) []declarator {
	var out []declarator
	for i := uint(0); i < decl.NamedChildCount(); i++ {
		d := decl.NamedChild(i)
		if d.Kind() != "variable_declarator" {
			continue
		}
		name := d.ChildByFieldName("name")
		value := unwrap(d.ChildByFieldName("value"))
		if name == nil || name.Kind() != "identifier" || value == nil || value.Kind() != "object" {
			continue
		}
		out = append(out, declarator{name: name.Utf8Text(source), value: value})
	}
	return out
}

func unwrap(n *ts.Node) *ts.Node {
	for n != nil {
		switch n.Kind() {
		case "as_expression", "satisfies_expression", "parenthesized_expression", "non_null_expression":
			n = n.NamedChild(0)
		default:
			return n
		}
	}
	return nil
}

func flatten(out []Entry, obj *ts.Node, export string, path []string, source []byte) []Entry {
	if obj == nil || obj.Kind() != "object" {
		return out
	}
	for i := uint(0); i < obj.NamedChildCount(); i++ {
		pair := obj.NamedChild(i)
		if pair.Kind() != "pair" {
			continue
		}
		key, ok := keyName(pair.ChildByFieldName("key"), source)
		if !ok {
			continue
		}
		value := unwrap(pair.ChildByFieldName("value"))
		if value == nil {
			continue
		}

		p := make([]string, len(path), len(path)+1)
		copy(p, path)
		p = append(p, key)

		if value.Kind() == "object" {
			out = flatten(out, value, export, p, source)
			continue
		}
		if v, ok := literal(value, source); ok {
			out = append(out, Entry{Export: export, Path: p, Value: v, Line: int(value.StartPosition().Row) + 1})
		}
	}
	return out
}

func keyName(n *ts.Node, source []byte) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind() {
	case "property_identifier", "number":
		return n.Utf8Text(source), true
	case "string":
		return unquote(n.Utf8Text(source)), true
	}
	return "", false
}

func literal(n *ts.Node, source []byte) (string, bool) {
	switch n.Kind() {
	case "string":
		return unquote(n.Utf8Text(source)), true
	case "number":
		return n.Utf8Text(source), true
	case "unary_expression":
		arg := n.ChildByFieldName("argument")
		if arg != nil && arg.Kind() == "number" {
			return strings.ReplaceAll(n.Utf8Text(source), " ", ""), true
		}
	case "template_string":
		for i := uint(0); i < n.NamedChildCount(); i++ {
			if n.NamedChild(i).Kind() == "template_substitution" {
				return "", false
			}
		}
		return unquote(n.Utf8Text(source)), true
	case "array":
		parts := make([]string, 0, n.NamedChildCount())
		for i := uint(0); i < n.NamedChildCount(); i++ {
			v, ok := literal(n.NamedChild(i), source)
			if !ok {
				return "", false
			}
			parts = append(parts, v)
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ", "), true
	}
	return "", false
}

func unquote(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '"', '\'', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}
