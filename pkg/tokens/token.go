// Package tokens holds design tokens, their mode collections, and the
// immutable lookup table the resolver consults during a pass.
package tokens

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// Origin records where a token is defined.
type Origin string

const (
	// OriginLocal tokens are defined by the project itself; their custom
	// properties are always present in the generated stylesheet.
	OriginLocal Origin = "local"
	// OriginExternal tokens come from a shared library whose stylesheet may
	// not be loaded, so references to them carry a fallback literal.
	OriginExternal Origin = "external"
)

// Category groups tokens by the kind of value they hold.
type Category string

const (
	CategoryColor      Category = "color"
	CategorySpacing    Category = "spacing"
	CategoryRadius     Category = "radius"
	CategoryTypography Category = "typography"
	CategoryShadow     Category = "shadow"
	CategoryOther      Category = "other"
)

// Token is a named indirection to a literal design value, optionally varying
// per mode.
type Token struct {
	// Name is the logical path, "color.brand.primary" or "color/brand/primary".
	Name string `json:"name"`

	// Value is the resolved literal for the default mode.
	Value string `json:"value,omitempty"`

	// Alias names another token this one points to. "{color.primary}" and
	// "color.primary" are both accepted.
	Alias string `json:"alias,omitempty"`

	Origin     Origin   `json:"origin,omitempty"`
	Collection string   `json:"collection,omitempty"`
	Category   Category `json:"category,omitempty"`

	// Modes maps mode name to a literal or an alias in "{name}" form.
	Modes map[string]string `json:"modes,omitempty"`

	// Promoted marks the token as eligible for value matching. Nil means true.
	Promoted *bool `json:"promoted,omitempty"`
}

// IsPromoted reports whether literal values may be rewritten to this token.
func (t Token) IsPromoted() bool {
	return t.Promoted == nil || *t.Promoted
}

// CustomProperty returns the CSS custom property name for the token,
// e.g. "color/brand.primary" -> "--color-brand-primary".
func (t Token) CustomProperty() string {
	return CustomPropertyName(t.Name)
}

// CustomPropertyName slugifies a token path into a custom property name.
func CustomPropertyName(name string) string {
	name = strings.NewReplacer("/", "-", ".", "-", " ", "-").Replace(name)
	return "--" + slug.Make(name)
}

// ParseAlias extracts the target of an alias expression. It accepts the
// "{color.primary}" form used in token files and the "var(--color-primary)"
// form found in stylesheets.
func ParseAlias(s string) (string, bool) {
	s = strings.TrimSpace(s)
	switch {
	case len(s) > 2 && strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
		return strings.TrimSpace(s[1 : len(s)-1]), true
	case strings.HasPrefix(s, "var(") && strings.HasSuffix(s, ")"):
		inner := strings.TrimSpace(s[4 : len(s)-1])
		if i := strings.IndexByte(inner, ','); i >= 0 {
			inner = strings.TrimSpace(inner[:i])
		}
		if strings.HasPrefix(inner, "--") && len(inner) > 2 {
			return inner, true
		}
	}
	return "", false
}

// InferCategory guesses a token's category from its name.
func InferCategory(name string) Category {
	lower := strings.ToLower(name)
	parts := strings.FieldsFunc(lower, func(r rune) bool {
		return r == '.' || r == '/' || r == '-' || r == '_'
	})
	has := func(words ...string) bool {
		for _, p := range parts {
			for _, w := range words {
				if p == w {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has("radius", "radii", "rounded", "corner"):
		return CategoryRadius
	case has("shadow", "shadows", "elevation"):
		return CategoryShadow
	case has("color", "colors", "colour", "bg", "background", "foreground", "fg", "border", "ring", "fill", "stroke"):
		return CategoryColor
	case has("font", "fonts", "text", "typography", "leading", "tracking", "weight", "line", "letter"):
		return CategoryTypography
	case has("spacing", "space", "gap", "padding", "margin", "size", "sizes"):
		return CategorySpacing
	}
	return CategoryOther
}

// Reference is the rendered indirection for a token.
type Reference struct {
	Token    string `json:"token"`
	Property string `json:"property"`
	Origin   Origin `json:"origin"`

	// Fallback is set only for external tokens.
	Fallback string `json:"fallback,omitempty"`
}

// HasFallback reports whether the rendered reference carries a fallback.
// Only external references do, and only when a fallback value is known.
func (r Reference) HasFallback() bool {
	return r.Origin == OriginExternal && r.Fallback != ""
}

// String renders the reference as var(--name) or var(--name, fallback).
func (r Reference) String() string {
	if r.HasFallback() {
		return fmt.Sprintf("var(%s, %s)", r.Property, r.Fallback)
	}
	return fmt.Sprintf("var(%s)", r.Property)
}

// normalizeValue makes literal comparison insensitive to whitespace and hex
// case.
func normalizeValue(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	if strings.HasPrefix(v, "#") {
		v = strings.ToLower(v)
		if len(v) == 4 {
			v = "#" + string([]byte{v[1], v[1], v[2], v[2], v[3], v[3]})
		}
	}
	return v
}
