package tokens

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gnana997/stylespec/pkg/diag"
)

// ErrEmptyModeCollection is returned when a collection declares no modes.
var ErrEmptyModeCollection = errors.New("mode collection has no modes")

// Classification is what a collection's modes vary over.
type Classification string

const (
	ClassBreakpoint Classification = "breakpoint"
	ClassTheme      Classification = "theme"
	ClassUnknown    Classification = "unknown"
)

// Rule is one row of the mode classification table. A mode matches when its
// lowercased name contains any keyword or matches Pattern.
type Rule struct {
	Classification Classification `json:"classification" yaml:"classification" toml:"classification"`
	Contains       []string       `json:"contains,omitempty" yaml:"contains,omitempty" toml:"contains,omitempty"`
	Pattern        string         `json:"pattern,omitempty" yaml:"pattern,omitempty" toml:"pattern,omitempty"`

	re *regexp.Regexp
}

func (r *Rule) matches(lowerName string) bool {
	for _, kw := range r.Contains {
		if kw != "" && strings.Contains(lowerName, strings.ToLower(kw)) {
			return true
		}
	}
	return r.re != nil && r.re.MatchString(lowerName)
}

// ModeRules drives collection classification, threshold parsing and default
// selection. Rules are evaluated in order and the first match wins per mode.
type ModeRules struct {
	Rules []Rule

	// NamedThresholds maps a keyword to a min-width in px for breakpoint
	// modes whose names carry no number.
	NamedThresholds map[string]int

	// DefaultThemeKeyword picks the default mode of a theme collection.
	DefaultThemeKeyword string

	namedOrder []string
}

var pixelPattern = regexp.MustCompile(`(\d+)\s*(?:px)?`)

// DefaultModeRules returns the built-in table: theme keywords before
// breakpoint keywords, then a bare or suffixed pixel number.
func DefaultModeRules() *ModeRules {
	mr := &ModeRules{
		Rules: []Rule{
			{Classification: ClassTheme, Contains: []string{"light", "dark", "theme"}},
			{Classification: ClassBreakpoint, Contains: []string{"mobile", "tablet", "desktop"}},
			{Classification: ClassBreakpoint, Pattern: `\b\d+(px)?\b`},
		},
		NamedThresholds: map[string]int{
			"mobile":  0,
			"tablet":  768,
			"desktop": 1024,
		},
		DefaultThemeKeyword: "light",
	}
	if err := mr.Compile(); err != nil {
		panic(err)
	}
	return mr
}

// Compile validates the rule table and prepares patterns. It must be called
// before the rules are used if they were built by hand.
func (mr *ModeRules) Compile() error {
	var errs []error
	for i := range mr.Rules {
		r := &mr.Rules[i]
		switch r.Classification {
		case ClassBreakpoint, ClassTheme, ClassUnknown:
		default:
			errs = append(errs, fmt.Errorf("mode rule %d: unknown classification %q", i, r.Classification))
		}
		if len(r.Contains) == 0 && r.Pattern == "" {
			errs = append(errs, fmt.Errorf("mode rule %d: needs contains or pattern", i))
		}
		r.re = nil
		if r.Pattern != "" {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				errs = append(errs, fmt.Errorf("mode rule %d: %w", i, err))
				continue
			}
			r.re = re
		}
	}

	mr.namedOrder = mr.namedOrder[:0]
	for k := range mr.NamedThresholds {
		mr.namedOrder = append(mr.namedOrder, k)
	}
	// Longer keywords first so "large-desktop" beats "desktop".
	sort.Slice(mr.namedOrder, func(i, j int) bool {
		a, b := mr.namedOrder[i], mr.namedOrder[j]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})

	if mr.DefaultThemeKeyword == "" {
		mr.DefaultThemeKeyword = "light"
	}
	return errors.Join(errs...)
}

// ClassifyMode returns the classification of the first rule matching name.
func (mr *ModeRules) ClassifyMode(name string) Classification {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i := range mr.Rules {
		if mr.Rules[i].matches(lower) {
			return mr.Rules[i].Classification
		}
	}
	return ClassUnknown
}

// Threshold parses a breakpoint width from a mode name: the first number in
// the name, else a configured named threshold.
func (mr *ModeRules) Threshold(name string) (int, bool) {
	lower := strings.ToLower(name)
	if m := pixelPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	for _, kw := range mr.namedOrder {
		if strings.Contains(lower, kw) {
			return mr.NamedThresholds[kw], true
		}
	}
	return 0, false
}

// Mode is one mode of a collection.
type Mode struct {
	Name string `json:"name"`

	// Threshold is the min-width in px. Only meaningful for breakpoints.
	Threshold int `json:"threshold,omitempty"`
}

// Collection is a named, classified group of modes. It is immutable once
// built by NewCollection.
type Collection struct {
	name           string
	modes          []Mode
	classification Classification
	defaultIndex   int
}

// NewCollection classifies modes and picks the default. A non-empty
// explicitDefault naming one of the modes overrides the heuristic.
// Ties are resolved to the first declared mode and reported as diagnostics.
func NewCollection(name string, modes []string, explicitDefault string, rules *ModeRules) (*Collection, []diag.Diagnostic, error) {
	if len(modes) == 0 {
		return nil, nil, fmt.Errorf("collection %q: %w", name, ErrEmptyModeCollection)
	}
	if rules == nil {
		rules = DefaultModeRules()
	}

	c := &Collection{
		name:  name,
		modes: make([]Mode, len(modes)),
	}
	for i, m := range modes {
		c.modes[i] = Mode{Name: m}
	}

	c.classification = classify(modes, rules)
	if c.classification == ClassBreakpoint {
		for i := range c.modes {
			th, ok := rules.Threshold(c.modes[i].Name)
			if !ok {
				// A breakpoint without a width cannot be ordered.
				c.classification = ClassUnknown
				break
			}
			c.modes[i].Threshold = th
		}
		if c.classification != ClassBreakpoint {
			for i := range c.modes {
				c.modes[i].Threshold = 0
			}
		}
	}

	var diags []diag.Diagnostic
	if explicitDefault != "" {
		if idx := c.indexOf(explicitDefault); idx >= 0 {
			c.defaultIndex = idx
			return c, diags, nil
		}
		diags = append(diags, diag.New(diag.KindMissingDefaultMode, diag.SeverityWarning, name,
			"collection %q: declared default %q is not one of its modes", name, explicitDefault))
	}

	var candidates []int
	switch c.classification {
	case ClassBreakpoint:
		smallest := c.modes[0].Threshold
		for _, m := range c.modes[1:] {
			if m.Threshold < smallest {
				smallest = m.Threshold
			}
		}
		for i, m := range c.modes {
			if m.Threshold == smallest {
				candidates = append(candidates, i)
			}
		}
	case ClassTheme:
		kw := strings.ToLower(rules.DefaultThemeKeyword)
		for i, m := range c.modes {
			if strings.Contains(strings.ToLower(m.Name), kw) {
				candidates = append(candidates, i)
			}
		}
	}

	if len(candidates) > 0 {
		c.defaultIndex = candidates[0]
	}
	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, idx := range candidates {
			names[i] = c.modes[idx].Name
		}
		diags = append(diags, diag.New(diag.KindAmbiguousDefaultMode, diag.SeverityWarning, name,
			"collection %q: modes %s all qualify as default, using %q",
			name, strings.Join(quoteAll(names), ", "), c.modes[c.defaultIndex].Name))
	}

	return c, diags, nil
}

func classify(modes []string, rules *ModeRules) Classification {
	allBreakpoints := true
	for _, m := range modes {
		switch rules.ClassifyMode(m) {
		case ClassTheme:
			return ClassTheme
		case ClassBreakpoint:
		default:
			allBreakpoints = false
		}
	}
	if allBreakpoints {
		return ClassBreakpoint
	}
	return ClassUnknown
}

func (c *Collection) indexOf(mode string) int {
	for i, m := range c.modes {
		if m.Name == mode {
			return i
		}
	}
	return -1
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Classification returns what the collection varies over.
func (c *Collection) Classification() Classification { return c.classification }

// Default returns the default mode name.
func (c *Collection) Default() string { return c.modes[c.defaultIndex].Name }

// Modes returns a copy of the modes in declaration order.
func (c *Collection) Modes() []Mode {
	out := make([]Mode, len(c.modes))
	copy(out, c.modes)
	return out
}

// HasMode reports whether mode is declared by the collection.
func (c *Collection) HasMode(mode string) bool { return c.indexOf(mode) >= 0 }

// IsDefault reports whether the mode at index is the default. With duplicate
// mode names only the first declared one is the default.
func (c *Collection) IsDefault(index int) bool { return index == c.defaultIndex }

// CollectionInfo is the serializable view of a Collection.
type CollectionInfo struct {
	Name           string         `json:"name"`
	Classification Classification `json:"classification"`
	Default        string         `json:"default"`
	Modes          []Mode         `json:"modes"`
}

// Info returns the serializable view of the collection.
func (c *Collection) Info() CollectionInfo {
	return CollectionInfo{
		Name:           c.name,
		Classification: c.classification,
		Default:        c.Default(),
		Modes:          c.Modes(),
	}
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strconv.Quote(s)
	}
	return out
}
