package tokensource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/gnana997/stylespec/pkg/tokens"
)

// Collections LoadCSS creates.
const (
	ThemeCollection      = "Theme"
	BreakpointCollection = "Breakpoints"

	// LightMode is the default theme mode; ":root" values land here.
	LightMode = "light"
	// BaseBreakpoint is the default breakpoint mode; ":root" values land here.
	BaseBreakpoint = "0px"
)

var (
	minWidthRe    = regexp.MustCompile(`min-width:(\d+(?:\.\d+)?)(px|em|rem)`)
	colorSchemeRe = regexp.MustCompile(`prefers-color-scheme:(dark|light)`)
	attrRe        = regexp.MustCompile(`^\[([a-z-]+)=["']?([^"'\]]+)["']?\]$`)
	classRe       = regexp.MustCompile(`^\.(-?[a-z_][a-z0-9_-]*)$`)
	rootPrefixRe  = regexp.MustCompile(`^(:root|html|:host)`)
)

// scope is where a block of custom properties applies.
type scope struct {
	theme      string
	breakpoint int
	skip       bool
}

func (s scope) with(inner scope) scope {
	if s.skip || inner.skip {
		return scope{skip: true}
	}
	out := s
	if inner.theme != "" {
		out.theme = inner.theme
	}
	if inner.breakpoint > out.breakpoint {
		out.breakpoint = inner.breakpoint
	}
	return out
}

type cssVar struct {
	base        string
	hasBase     bool
	themes      map[string]string
	breakpoints map[int]string
}

// cssSheet accumulates custom properties while the grammar loop runs.
type cssSheet struct {
	vars        map[string]*cssVar
	order       []string
	themeOrder  []string
	breakpoints map[int]bool
	logger      *slog.Logger
}

// LoadCSS reads CSS custom properties. ":root", "html" and ":host" blocks
// give default values. ".dark", ".theme-x", ".x-theme" and attribute
// selectors like [data-theme="x"] give theme modes, as does
// @media (prefers-color-scheme: dark). @media (min-width: N) blocks give
// breakpoint modes named "Npx". @theme blocks count as root scope. @layer
// and @supports blocks are read through; other at-rules and selectors are
// ignored.
func LoadCSS(data []byte, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sheet := &cssSheet{
		vars:        make(map[string]*cssVar),
		breakpoints: make(map[int]bool),
		logger:      logger,
	}

	// NewInput copies the reader, so mapped file data is never written.
	p := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	if err := sheet.read(p, scope{}); err != nil {
		return nil, err
	}
	return sheet.set(), nil
}

// read consumes grammar until the end of input or the end of the enclosing
// at-rule.
func (s *cssSheet) read(p *css.Parser, outer scope) error {
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := p.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("failed to parse CSS: %w", err)
			}
			return nil

		case css.EndAtRuleGrammar:
			return nil

		case css.BeginAtRuleGrammar:
			name := strings.ToLower(string(data))
			switch name {
			case "@media":
				inner := mediaScope(p.Values())
				if inner.skip {
					s.logger.Debug("skipping unsupported media block", "query", joinTokens(p.Values()))
				}
				if err := s.read(p, outer.with(inner)); err != nil {
					return err
				}
			case "@layer", "@supports":
				if err := s.read(p, outer); err != nil {
					return err
				}
			case "@theme":
				for _, pr := range declarations(p, css.EndAtRuleGrammar) {
					s.record(pr.name, pr.value, outer)
				}
			default:
				skipBlock(p)
			}

		case css.BeginRulesetGrammar:
			selectors := splitSelectors(data, p.Values())
			props := declarations(p, css.EndRulesetGrammar)
			for _, sel := range selectors {
				inner, ok := selectorScope(sel)
				if !ok {
					if len(props) > 0 {
						s.logger.Debug("ignoring custom properties outside a token scope", "selector", sel)
					}
					continue
				}
				sc := outer.with(inner)
				if sc.skip {
					continue
				}
				for _, pr := range props {
					s.record(pr.name, pr.value, sc)
				}
			}
		}
	}
}

func (s *cssSheet) record(name, value string, sc scope) {
	v, ok := s.vars[name]
	if !ok {
		v = &cssVar{themes: make(map[string]string), breakpoints: make(map[int]string)}
		s.vars[name] = v
		s.order = append(s.order, name)
	}

	switch {
	case sc.theme != "":
		if !contains(s.themeOrder, sc.theme) {
			s.themeOrder = append(s.themeOrder, sc.theme)
		}
		if sc.breakpoint > 0 {
			s.logger.Warn("custom property varies by theme and breakpoint at once, keeping the theme value",
				"property", name, "theme", sc.theme, "min_width", sc.breakpoint)
		}
		v.themes[sc.theme] = value
	case sc.breakpoint > 0:
		s.breakpoints[sc.breakpoint] = true
		v.breakpoints[sc.breakpoint] = value
	default:
		v.base, v.hasBase = value, true
	}
}

func (s *cssSheet) set() *Set {
	out := &Set{}

	themeModes := []string{LightMode}
	for _, t := range s.themeOrder {
		if t != LightMode {
			themeModes = append(themeModes, t)
		}
	}
	if len(s.themeOrder) > 0 {
		out.Collections = append(out.Collections, CollectionSpec{Name: ThemeCollection, Modes: themeModes, Default: LightMode})
	}

	widths := make([]int, 0, len(s.breakpoints))
	for w := range s.breakpoints {
		widths = append(widths, w)
	}
	sort.Ints(widths)
	if len(widths) > 0 {
		modes := []string{BaseBreakpoint}
		for _, w := range widths {
			modes = append(modes, breakpointMode(w))
		}
		out.Collections = append(out.Collections, CollectionSpec{Name: BreakpointCollection, Modes: modes, Default: BaseBreakpoint})
	}

	for _, name := range s.order {
		v := s.vars[name]
		tok := tokens.Token{Name: strings.TrimPrefix(name, "--"), Value: v.base}

		switch {
		case len(v.themes) > 0:
			if len(v.breakpoints) > 0 {
				s.logger.Warn("custom property varies by theme and breakpoint, dropping breakpoint values", "property", name)
			}
			tok.Collection = ThemeCollection
			tok.Modes = make(map[string]string, len(v.themes)+1)
			if v.hasBase {
				tok.Modes[LightMode] = v.base
			}
			for t, val := range v.themes {
				tok.Modes[t] = val
			}
		case len(v.breakpoints) > 0:
			tok.Collection = BreakpointCollection
			tok.Modes = make(map[string]string, len(v.breakpoints)+1)
			if v.hasBase {
				tok.Modes[BaseBreakpoint] = v.base
			}
			for w, val := range v.breakpoints {
				tok.Modes[breakpointMode(w)] = val
			}
		}
		out.Tokens = append(out.Tokens, tok)
	}
	return out
}

func breakpointMode(w int) string { return strconv.Itoa(w) + "px" }

// mediaScope interprets an @media prelude.
func mediaScope(values []css.Token) scope {
	q := strings.ToLower(strings.Join(strings.Fields(joinTokens(values)), ""))

	var sc scope
	matched := false
	if m := colorSchemeRe.FindStringSubmatch(q); m != nil {
		sc.theme = m[1]
		matched = true
	}
	if m := minWidthRe.FindStringSubmatch(q); m != nil {
		n, _ := strconv.ParseFloat(m[1], 64)
		if m[2] != "px" {
			n *= 16
		}
		sc.breakpoint = int(n)
		matched = true
	}
	if !matched || strings.Contains(q, "max-width") {
		return scope{skip: true}
	}
	return sc
}

// selectorScope maps a selector to the theme it defines. Root selectors map
// to the default scope.
func selectorScope(sel string) (scope, bool) {
	sel = strings.ToLower(strings.Join(strings.Fields(sel), ""))
	switch sel {
	case ":root", "html", ":host":
		return scope{}, true
	}

	rest := rootPrefixRe.ReplaceAllString(sel, "")
	if m := attrRe.FindStringSubmatch(rest); m != nil {
		attr := m[1]
		if strings.Contains(attr, "theme") || strings.Contains(attr, "mode") || strings.Contains(attr, "scheme") {
			return scope{theme: m[2]}, true
		}
		return scope{}, false
	}
	if m := classRe.FindStringSubmatch(rest); m != nil {
		class := m[1]
		switch {
		case class == "dark" || class == "light":
			return scope{theme: class}, true
		case strings.HasPrefix(class, "theme-") && len(class) > len("theme-"):
			return scope{theme: strings.TrimPrefix(class, "theme-")}, true
		case strings.HasSuffix(class, "-theme") && len(class) > len("-theme"):
			return scope{theme: strings.TrimSuffix(class, "-theme")}, true
		}
	}
	return scope{}, false
}

type customProperty struct {
	name, value string
}

// declarations collects custom properties up to the end grammar of the
// enclosing block.
func declarations(p *css.Parser, end css.GrammarType) []customProperty {
	var props []customProperty
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar, end:
			return props
		case css.CustomPropertyGrammar:
			value := strings.TrimSpace(joinTokens(p.Values()))
			props = append(props, customProperty{name: string(data), value: value})
		case css.BeginRulesetGrammar, css.BeginAtRuleGrammar:
			// Nested rules are not token scopes.
			skipBlock(p)
		}
	}
}

func skipBlock(p *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

func splitSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}
	var out []string
	for _, s := range strings.Split(sb.String(), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinTokens(values []css.Token) string {
	var sb strings.Builder
	for _, v := range values {
		sb.Write(v.Data)
	}
	return sb.String()
}
