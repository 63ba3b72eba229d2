package resolve

import (
	"strings"

	"github.com/gnana997/stylespec/pkg/diag"
	"github.com/gnana997/stylespec/pkg/tokens"
)

// propertyKind is the placement class of a CSS property.
type propertyKind int

const (
	kindUnknown propertyKind = iota
	kindStructural
	kindVisual
)

// propertyTable maps CSS property names to their placement class.
type propertyTable map[string]propertyKind

// defaultProperties is the closed property enumeration.
var defaultProperties = propertyTable{
	// Flex container
	"display":         kindStructural,
	"flex-direction":  kindStructural,
	"flex-wrap":       kindStructural,
	"justify-content": kindStructural,
	"align-items":     kindStructural,
	"align-content":   kindStructural,
	"gap":             kindStructural,
	"row-gap":         kindStructural,
	"column-gap":      kindStructural,

	// Box model
	"padding":        kindStructural,
	"padding-top":    kindStructural,
	"padding-right":  kindStructural,
	"padding-bottom": kindStructural,
	"padding-left":   kindStructural,
	"overflow":       kindStructural,

	// Flex item sizing
	"flex-grow":   kindStructural,
	"flex-basis":  kindStructural,
	"flex-shrink": kindStructural,
	"align-self":  kindStructural,
	"width":       kindStructural,
	"height":      kindStructural,
	"min-width":   kindStructural,
	"max-width":   kindStructural,
	"min-height":  kindStructural,
	"max-height":  kindStructural,

	// Positioning
	"position": kindStructural,
	"left":     kindStructural,
	"top":      kindStructural,
	"right":    kindStructural,
	"bottom":   kindStructural,

	// Fills and borders
	"background":       kindVisual,
	"background-color": kindVisual,
	"background-image": kindVisual,
	"border":           kindVisual,
	"border-color":     kindVisual,
	"border-width":     kindVisual,
	"border-style":     kindVisual,
	"border-radius":    kindVisual,
	"outline":          kindVisual,
	"box-shadow":       kindVisual,
	"fill":             kindVisual,
	"stroke":           kindVisual,
	"stroke-width":     kindVisual,

	// Typography
	"color":           kindVisual,
	"font-family":     kindVisual,
	"font-size":       kindVisual,
	"font-weight":     kindVisual,
	"font-style":      kindVisual,
	"line-height":     kindVisual,
	"letter-spacing":  kindVisual,
	"text-decoration": kindVisual,
	"text-transform":  kindVisual,

	// Effects
	"opacity":         kindVisual,
	"mix-blend-mode":  kindVisual,
	"filter":          kindVisual,
	"backdrop-filter": kindVisual,
	"transition":      kindVisual,
}

// tokenBackedStructural lists the structural properties whose values may be
// design tokens when utilities are token-backed.
var tokenBackedStructural = map[string]bool{
	"gap":            true,
	"row-gap":        true,
	"column-gap":     true,
	"padding":        true,
	"padding-top":    true,
	"padding-right":  true,
	"padding-bottom": true,
	"padding-left":   true,
}

// compositeProperties have values made of several parts, some of which may
// be colors that match tokens.
var compositeProperties = map[string]bool{
	"border":     true,
	"outline":    true,
	"box-shadow": true,
	"background": true,
}

// preferredCategories ranks token categories per property for value matching.
func preferredCategories(property string) []tokens.Category {
	switch {
	case property == "border-radius":
		return []tokens.Category{tokens.CategoryRadius}
	case property == "box-shadow":
		return []tokens.Category{tokens.CategoryShadow}
	case property == "color", strings.HasSuffix(property, "-color"), property == "background",
		property == "fill", property == "stroke":
		return []tokens.Category{tokens.CategoryColor}
	case strings.HasPrefix(property, "font-"), property == "line-height", property == "letter-spacing":
		return []tokens.Category{tokens.CategoryTypography}
	case tokenBackedStructural[property]:
		return []tokens.Category{tokens.CategorySpacing}
	}
	return nil
}

// ClassifierOptions configures a Classifier.
type ClassifierOptions struct {
	// TokenBackedUtilities makes token-matched gap and padding values render
	// as references inside the structural layer. The policy applies to every
	// property alike.
	TokenBackedUtilities bool

	// Extra properties appended to the closed enumeration.
	StructuralProperties []string
	VisualProperties     []string
}

// Classifier assigns declarations to output layers. It is read-only after
// construction and safe to share between goroutines that each use their own
// token table snapshot.
type Classifier struct {
	table      *tokens.Table
	properties propertyTable
	opts       ClassifierOptions
}

// NewClassifier creates a classifier over a token table. A nil table
// disables token matching.
func NewClassifier(table *tokens.Table, opts ClassifierOptions) *Classifier {
	props := make(propertyTable, len(defaultProperties)+len(opts.StructuralProperties)+len(opts.VisualProperties))
	for k, v := range defaultProperties {
		props[k] = v
	}
	for _, p := range opts.StructuralProperties {
		props[strings.ToLower(strings.TrimSpace(p))] = kindStructural
	}
	for _, p := range opts.VisualProperties {
		props[strings.ToLower(strings.TrimSpace(p))] = kindVisual
	}
	return &Classifier{table: table, properties: props, opts: opts}
}

// WithTable returns a classifier sharing the property tables but reading
// from another token table.
func (c *Classifier) WithTable(table *tokens.Table) *Classifier {
	cp := *c
	cp.table = table
	return &cp
}

// Placement is the classifier's verdict for one pair.
type Placement struct {
	Declaration Declaration

	// Refs lists every token the value refers to, in order of appearance.
	Refs []string

	// Diagnostics are data-quality findings about this pair.
	Diagnostics []diag.Diagnostic
}

// IsStructural reports whether property is in the structural set.
func (c *Classifier) IsStructural(property string) bool {
	return c.properties[property] == kindStructural
}

// Classify decides the layer for a pair. The first matching rule wins:
//
//  1. structural property -> structural-utility
//  2. property outside the enumeration -> component-rule, literal kept
//  3. explicit binding or exact token value match -> token-reference
//  4. visual property -> component-rule, with token colors substituted
//     inside composite values
func (c *Classifier) Classify(p Pair) Placement {
	prop := strings.ToLower(strings.TrimSpace(p.Property))
	value := strings.TrimSpace(p.Value)
	decl := Declaration{Property: prop, Value: value}

	switch c.properties[prop] {
	case kindStructural:
		decl.Layer = LayerStructural
		if !c.opts.TokenBackedUtilities || !tokenBackedStructural[prop] {
			return Placement{Declaration: decl}
		}
		pl := Placement{Declaration: decl}
		ref, ok, d := c.lookup(p.Token, value, prop)
		if d != nil {
			pl.Diagnostics = append(pl.Diagnostics, *d)
		}
		if ok {
			pl.apply(ref, value)
		}
		return pl

	case kindUnknown:
		decl.Layer = LayerComponent
		return Placement{
			Declaration: decl,
			Diagnostics: []diag.Diagnostic{diag.New(diag.KindUnsupportedProperty, diag.SeverityWarning, prop,
				"property %q is not in the placement table, emitting it as a component rule", prop)},
		}
	}

	pl := Placement{Declaration: decl}
	ref, ok, d := c.lookup(p.Token, value, prop)
	if d != nil {
		pl.Diagnostics = append(pl.Diagnostics, *d)
	}
	if ok && pl.apply(ref, value) {
		pl.Declaration.Layer = LayerToken
		return pl
	}

	pl.Declaration.Layer = LayerComponent
	if compositeProperties[prop] && c.table != nil {
		c.substituteParts(&pl, p.Token)
	}
	return pl
}

// lookup finds the token for a value: the explicit binding first, then an
// exact match among promoted tokens. A binding to a missing token is
// reported and matching falls back to the literal.
func (c *Classifier) lookup(bound, value, prop string) (tokens.Reference, bool, *diag.Diagnostic) {
	if c.table == nil {
		return tokens.Reference{}, false, nil
	}
	var d *diag.Diagnostic
	if bound != "" {
		if ref, ok := c.table.Reference(bound); ok {
			return ref, true, nil
		}
		dd := diag.New(diag.KindUnresolvedTokenAlias, diag.SeverityWarning, bound,
			"%s is bound to token %q which does not exist, using the literal", prop, bound)
		d = &dd
	}
	if value == "" {
		return tokens.Reference{}, false, d
	}
	tok, ok := c.table.Match(value, preferredCategories(prop)...)
	if !ok {
		return tokens.Reference{}, false, d
	}
	ref, ok := c.table.Reference(tok.Name)
	return ref, ok, d
}

// apply rewrites the declaration value to the reference form. External
// references always carry a fallback: the token's value, or the literal the
// design used when the token has none. With neither there is nothing to fall
// back to, so the literal stays and apply reports false.
func (pl *Placement) apply(ref tokens.Reference, literal string) bool {
	if ref.Origin == tokens.OriginExternal && ref.Fallback == "" {
		if literal == "" {
			pl.Diagnostics = append(pl.Diagnostics, diag.New(diag.KindUnresolvedTokenAlias, diag.SeverityWarning, ref.Token,
				"external token %q has no value and no literal to fall back to, leaving %s unbound", ref.Token, pl.Declaration.Property))
			return false
		}
		ref.Fallback = literal
	}
	pl.Declaration.Token = ref.Token
	pl.Declaration.Value = ref.String()
	pl.Declaration.Literal = literal
	if ref.HasFallback() {
		pl.Declaration.Fallback = ref.Fallback
	}
	pl.Refs = append(pl.Refs, ref.Token)
	return true
}

// substituteParts rewrites color parts of composite values such as
// "1px solid #e5e7eb" or shadow lists. A bound token replaces the first
// color part.
func (c *Classifier) substituteParts(pl *Placement, bound string) {
	literal := pl.Declaration.Value
	layers := splitTopLevel(literal, ',')
	changed := false

	for li, layer := range layers {
		parts := splitTopLevel(layer, ' ')
		for pi, part := range parts {
			if !looksLikeColor(part) {
				continue
			}
			var (
				ref tokens.Reference
				ok  bool
			)
			if bound != "" {
				ref, ok = c.table.Reference(bound)
				bound = ""
			}
			if !ok {
				if tok, found := c.table.Match(part, tokens.CategoryColor); found {
					ref, ok = c.table.Reference(tok.Name)
				}
			}
			if !ok {
				continue
			}
			if ref.Origin == tokens.OriginExternal && ref.Fallback == "" {
				ref.Fallback = part
			}
			parts[pi] = ref.String()
			pl.Refs = append(pl.Refs, ref.Token)
			if pl.Declaration.Token == "" {
				pl.Declaration.Token = ref.Token
				if ref.HasFallback() {
					pl.Declaration.Fallback = ref.Fallback
				}
			}
			changed = true
		}
		layers[li] = strings.Join(parts, " ")
	}

	if changed {
		pl.Declaration.Value = strings.Join(layers, ", ")
		pl.Declaration.Literal = literal
	}
}

func looksLikeColor(s string) bool {
	s = strings.ToLower(s)
	return strings.HasPrefix(s, "#") ||
		strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") ||
		strings.HasPrefix(s, "hsl(") || strings.HasPrefix(s, "hsla(")
}

// splitTopLevel splits s on sep outside parentheses and trims each part.
func splitTopLevel(s string, sep rune) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				if part := strings.TrimSpace(s[start:i]); part != "" {
					parts = append(parts, part)
				}
				start = i + 1
			}
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}
