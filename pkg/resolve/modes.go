package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"github.com/maruel/natural"

	"github.com/gnana997/stylespec/pkg/diag"
	"github.com/gnana997/stylespec/pkg/tokens"
)

// DefaultThemeAttribute is the attribute manual theme selectors key on.
const DefaultThemeAttribute = "data-theme"

// BlockKind is the kind of wrapper a mode block is emitted under.
type BlockKind string

const (
	// BlockBase holds default values and has no condition.
	BlockBase BlockKind = "base"
	// BlockMinWidth is a mobile-first @media (min-width) block.
	BlockMinWidth BlockKind = "min-width"
	// BlockColorScheme is an automatic @media (prefers-color-scheme) block.
	BlockColorScheme BlockKind = "color-scheme"
	// BlockAttribute is a manual theme switch keyed on an attribute.
	BlockAttribute BlockKind = "attribute"
)

// Condition is one conditional wrapper for a non-default mode.
type Condition struct {
	Mode  string    `json:"mode"`
	Kind  BlockKind `json:"kind"`
	Query string    `json:"query"`

	// Threshold is the min-width in px for breakpoint conditions.
	Threshold int `json:"threshold,omitempty"`

	// OverridesAutomatic marks manual theme selectors. They come after the
	// matching color-scheme block so an explicit choice beats the system
	// preference at equal specificity.
	OverridesAutomatic bool `json:"overrides_automatic,omitempty"`
}

// Conditions returns the wrappers for every non-default mode of c in
// emission order: breakpoints ascending by threshold, themes as an automatic
// block followed by its manual override. Unknown collections get none.
// A theme mode naming neither light nor dark has no prefers-color-scheme
// value and gets only the attribute selector.
func Conditions(c *tokens.Collection, attr string) []Condition {
	if attr == "" {
		attr = DefaultThemeAttribute
	}
	modes := c.Modes()

	var out []Condition
	switch c.Classification() {
	case tokens.ClassBreakpoint:
		type bp struct {
			idx int
			m   tokens.Mode
		}
		var bps []bp
		for i, m := range modes {
			if c.IsDefault(i) {
				continue
			}
			bps = append(bps, bp{i, m})
		}
		// Stable on declaration order for equal thresholds.
		sort.SliceStable(bps, func(i, j int) bool { return bps[i].m.Threshold < bps[j].m.Threshold })
		for _, b := range bps {
			out = append(out, Condition{
				Mode:      b.m.Name,
				Kind:      BlockMinWidth,
				Query:     fmt.Sprintf("@media (min-width: %dpx)", b.m.Threshold),
				Threshold: b.m.Threshold,
			})
		}

	case tokens.ClassTheme:
		for i, m := range modes {
			if c.IsDefault(i) {
				continue
			}
			if scheme := colorScheme(m.Name); scheme != "" {
				out = append(out, Condition{
					Mode:  m.Name,
					Kind:  BlockColorScheme,
					Query: fmt.Sprintf("@media (prefers-color-scheme: %s)", scheme),
				})
			}
			out = append(out, Condition{
				Mode:               m.Name,
				Kind:               BlockAttribute,
				Query:              fmt.Sprintf("[%s=%q]", attr, slug.Make(m.Name)),
				OverridesAutomatic: true,
			})
		}
	}
	return out
}

// colorScheme maps a theme mode onto a prefers-color-scheme value. Modes
// such as "High Contrast" have no system preference to follow.
func colorScheme(mode string) string {
	lower := strings.ToLower(mode)
	switch {
	case strings.Contains(lower, "dark"):
		return "dark"
	case strings.Contains(lower, "light"):
		return "light"
	}
	return ""
}

// ModeBlock is a set of token declarations under one condition.
type ModeBlock struct {
	Collection         string        `json:"collection,omitempty"`
	Mode               string        `json:"mode,omitempty"`
	Kind               BlockKind     `json:"kind"`
	Query              string        `json:"query,omitempty"`
	OverridesAutomatic bool          `json:"overrides_automatic,omitempty"`
	Declarations       []Declaration `json:"declarations"`
}

// Merge builds the mode blocks for the referenced tokens. The base block
// comes first and defines every referenced local token at its default value.
// Each collection then contributes its conditional blocks, collections in
// natural name order. A token takes part in a collection's blocks when it or
// anything its alias chain reaches is in that collection, so an alias of a
// themed token is overridden alongside it. A conditional block only lists
// tokens whose value in that mode differs from the default; empty blocks are
// dropped.
//
// External tokens are never defined here; their references carry a fallback.
func Merge(table *tokens.Table, referenced []string, attr string) ([]ModeBlock, []diag.Diagnostic) {
	names := uniqueSorted(referenced)

	var (
		diags []diag.Diagnostic
		local []*tokens.Token
	)
	base := ModeBlock{Kind: BlockBase, Query: ":root", Declarations: []Declaration{}}
	for _, name := range names {
		tok, ok := table.Lookup(name)
		if !ok || tok.Origin == tokens.OriginExternal {
			continue
		}
		local = append(local, tok)
		v, d := table.ResolveDiag(tok.Name, "")
		if d != nil {
			diags = append(diags, *d)
		}
		base.Declarations = append(base.Declarations, Declaration{
			Property: tok.CustomProperty(),
			Value:    v,
			Layer:    LayerToken,
			Token:    tok.Name,
		})
	}
	blocks := []ModeBlock{base}

	for _, c := range table.Collections() {
		for _, cond := range Conditions(c, attr) {
			block := ModeBlock{
				Collection:         c.Name(),
				Mode:               cond.Mode,
				Kind:               cond.Kind,
				Query:              cond.Query,
				OverridesAutomatic: cond.OverridesAutomatic,
			}
			for _, tok := range local {
				if !table.DependsOn(tok.Name, c.Name()) {
					continue
				}
				def, _ := table.Resolve(tok.Name)
				v, _ := table.ResolveMode(tok.Name, cond.Mode)
				if v == def {
					continue
				}
				block.Declarations = append(block.Declarations, Declaration{
					Property: tok.CustomProperty(),
					Value:    v,
					Layer:    LayerToken,
					Token:    tok.Name,
				})
			}
			if len(block.Declarations) > 0 {
				blocks = append(blocks, block)
			}
		}
	}
	return blocks, diags
}

func uniqueSorted(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Sort(natural.StringSlice(out))
	return out
}
