package design

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gnana997/stylespec/pkg/util"
)

// Document is one normalized design tree as produced by the upstream extractor.
type Document struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Root    *Node  `json:"root"`

	// Source is the file the document was loaded from, if any.
	Source string `json:"-"`
}

// Walk visits every node in pre-order together with its parent (nil for the
// root). Returning false from fn skips that node's children.
func (d *Document) Walk(fn func(n, parent *Node) bool) {
	if d.Root == nil {
		return
	}
	walk(d.Root, nil, fn)
}

func walk(n, parent *Node, fn func(n, parent *Node) bool) {
	if !fn(n, parent) {
		return
	}
	for _, child := range n.Children {
		if child != nil {
			walk(child, n, fn)
		}
	}
}

// Validate checks the structural invariants of the tree.
// Returns a slice of validation errors (empty slice if valid).
func (d *Document) Validate() []error {
	var errs []error

	if d.Root == nil {
		return append(errs, fmt.Errorf("document %q: root node is required", d.Name))
	}

	seen := make(map[string]bool)
	d.Walk(func(n, parent *Node) bool {
		label := n.ID
		if label == "" {
			label = n.Name
		}

		if n.ID == "" {
			errs = append(errs, fmt.Errorf("node %q: id is required", n.Name))
		} else if seen[n.ID] {
			errs = append(errs, fmt.Errorf("node %q: duplicate id", n.ID))
		}
		seen[n.ID] = true

		if !n.Kind.Valid() {
			errs = append(errs, fmt.Errorf("node %q: unknown kind %q", label, n.Kind))
		}

		if n.Layout != nil {
			if !n.IsContainer() {
				errs = append(errs, fmt.Errorf("node %q: layout is only allowed on containers", label))
			}
			if !n.Layout.Axis.Valid() {
				errs = append(errs, fmt.Errorf("node %q: unknown axis %q", label, n.Layout.Axis))
			}
		}

		if len(n.Children) > 0 && !n.IsContainer() {
			errs = append(errs, fmt.Errorf("node %q: only containers may have children", label))
		}

		if n.Sizing != nil {
			if parent == nil || !parent.IsContainer() {
				errs = append(errs, fmt.Errorf("node %q: sizing requires a parent container", label))
			}
			if !n.Sizing.Horizontal.Valid() {
				errs = append(errs, fmt.Errorf("node %q: unknown horizontal sizing %q", label, n.Sizing.Horizontal))
			}
			if !n.Sizing.Vertical.Valid() {
				errs = append(errs, fmt.Errorf("node %q: unknown vertical sizing %q", label, n.Sizing.Vertical))
			}
		}

		if n.Text != nil && n.Kind != KindText {
			errs = append(errs, fmt.Errorf("node %q: text descriptor is only allowed on text nodes", label))
		}

		return true
	})

	return errs
}

// LoadFromFile reads, parses and validates a design document.
func LoadFromFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read design file: %w", err)
	}
	doc, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// LoadFromCache is LoadFromFile backed by a shared FileCache.
func LoadFromCache(fc util.FileCache, path string) (*Document, error) {
	data, err := fc.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read design file: %w", err)
	}
	doc, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// LoadFromBytes parses a design document from raw JSON bytes and validates it.
func LoadFromBytes(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse design JSON: %w", err)
	}

	if errs := doc.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("design validation failed: %w", errors.Join(errs...))
	}

	return &doc, nil
}
