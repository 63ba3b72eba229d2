package tokens

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/maruel/natural"

	"github.com/gnana997/stylespec/pkg/diag"
)

// DefaultAliasCacheSize bounds the per-table alias cache.
const DefaultAliasCacheSize = 4096

// Builder accumulates tokens and collections from one or more sources and
// produces an immutable Table. A Builder is not safe for concurrent use.
type Builder struct {
	rules       *ModeRules
	tokens      map[string]Token
	collections map[string]*Collection
	diags       []diag.Diagnostic
	cacheSize   int
	logger      *slog.Logger
}

// NewBuilder creates a Builder that classifies collections with rules
// (DefaultModeRules when nil).
func NewBuilder(rules *ModeRules) *Builder {
	if rules == nil {
		rules = DefaultModeRules()
	}
	return &Builder{
		rules:       rules,
		tokens:      make(map[string]Token),
		collections: make(map[string]*Collection),
		cacheSize:   DefaultAliasCacheSize,
		logger:      slog.Default(),
	}
}

// WithLogger sets the logger used for build diagnostics.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithCacheSize sets the alias cache size for tables built from b.
func (b *Builder) WithCacheSize(n int) *Builder {
	if n > 0 {
		b.cacheSize = n
	}
	return b
}

// Rules returns the mode rules the builder classifies with.
func (b *Builder) Rules() *ModeRules { return b.rules }

// AddCollection classifies and registers a collection. An empty collection
// is rejected with ErrEmptyModeCollection and recorded as a diagnostic; the
// rest of the build is unaffected.
func (b *Builder) AddCollection(name string, modes []string, explicitDefault string) error {
	c, diags, err := NewCollection(name, modes, explicitDefault, b.rules)
	if err != nil {
		b.diags = append(b.diags, diag.New(diag.KindEmptyModeCollection, diag.SeverityError, name, "%v", err))
		return err
	}
	b.diags = append(b.diags, diags...)
	b.collections[name] = c
	return nil
}

// Add registers tokens. A token whose name was already added replaces the
// earlier definition, so later sources override earlier ones.
func (b *Builder) Add(toks ...Token) {
	for _, t := range toks {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			continue
		}
		if t.Alias == "" {
			if target, ok := ParseAlias(t.Value); ok {
				t.Alias, t.Value = target, ""
			}
		} else if target, ok := ParseAlias(t.Alias); ok {
			t.Alias = target
		}
		if t.Origin == "" {
			t.Origin = OriginLocal
		}
		if t.Category == "" {
			t.Category = InferCategory(t.Name)
		}
		if len(t.Modes) > 0 {
			modes := make(map[string]string, len(t.Modes))
			for k, v := range t.Modes {
				modes[k] = v
			}
			t.Modes = modes
		}
		b.tokens[t.Name] = t
	}
}

// Len returns the number of distinct tokens added so far.
func (b *Builder) Len() int { return len(b.tokens) }

// Build freezes the builder into a Table. The returned diagnostics cover
// collections and tokens that were recovered with a fallback.
func (b *Builder) Build() (*Table, []diag.Diagnostic) {
	diags := append([]diag.Diagnostic(nil), b.diags...)

	t := &Table{
		byName:      make(map[string]*Token, len(b.tokens)),
		byProperty:  make(map[string]*Token, len(b.tokens)),
		byValue:     make(map[string][]string),
		collections: make(map[string]*Collection, len(b.collections)),
		cacheSize:   b.cacheSize,
	}

	for name, c := range b.collections {
		t.collections[name] = c
	}

	names := make([]string, 0, len(b.tokens))
	for name := range b.tokens {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	t.names = names

	for _, name := range names {
		tok := b.tokens[name]

		if len(tok.Modes) > 1 || tok.Collection != "" {
			c, ok := t.collections[tok.Collection]
			switch {
			case tok.Collection == "":
				diags = append(diags, diag.New(diag.KindMissingDefaultMode, diag.SeverityWarning, name,
					"token %q has %d mode values but no collection designating a default", name, len(tok.Modes)))
			case !ok:
				diags = append(diags, diag.New(diag.KindUnknownCollection, diag.SeverityWarning, name,
					"token %q references unknown collection %q", name, tok.Collection))
			default:
				if v, ok := tok.Modes[c.Default()]; ok && tok.Value == "" && tok.Alias == "" {
					if target, isAlias := ParseAlias(v); isAlias {
						tok.Alias = target
					} else {
						tok.Value = v
					}
				}
			}
		}
		if tok.Value == "" && tok.Alias == "" && len(tok.Modes) > 0 {
			// No usable default: take the first mode in natural order so the
			// choice does not depend on map iteration.
			keys := make([]string, 0, len(tok.Modes))
			for k := range tok.Modes {
				keys = append(keys, k)
			}
			sort.Sort(natural.StringSlice(keys))
			if target, isAlias := ParseAlias(tok.Modes[keys[0]]); isAlias {
				tok.Alias = target
			} else {
				tok.Value = tok.Modes[keys[0]]
			}
		}

		tk := tok
		t.byName[name] = &tk
		t.byProperty[tk.CustomProperty()] = &tk
	}

	t.cache = t.newCache()

	// Value index over promoted tokens, using resolved default values.
	for _, name := range names {
		tok := t.byName[name]
		if !tok.IsPromoted() {
			continue
		}
		v, res := t.resolve(name, "")
		if !res.ok {
			diags = append(diags, diag.New(diag.KindUnresolvedTokenAlias, diag.SeverityWarning, name,
				"token %q: %s, using %q", name, res.reason, v))
		}
		if v == "" {
			continue
		}
		key := normalizeValue(v)
		t.byValue[key] = append(t.byValue[key], name)
	}

	for _, d := range diags {
		diag.Log(b.logger, d)
	}
	b.logger.Debug("token table built",
		"tokens", len(t.byName),
		"collections", len(t.collections),
		"values", len(t.byValue),
		"diagnostics", len(diags))

	return t, diags
}

// Table is an immutable token snapshot. Lookups are safe for concurrent use;
// each parallel run should still take its own Snapshot so alias caches are
// not shared between runs.
type Table struct {
	names       []string
	byName      map[string]*Token
	byProperty  map[string]*Token
	byValue     map[string][]string
	collections map[string]*Collection

	cache     *lru.Cache[string, aliasResult]
	cacheSize int
}

type aliasResult struct {
	value  string
	ok     bool
	reason string
}

func (t *Table) newCache() *lru.Cache[string, aliasResult] {
	c, err := lru.New[string, aliasResult](t.cacheSize)
	if err != nil {
		// Only fails for a non-positive size.
		c, _ = lru.New[string, aliasResult](DefaultAliasCacheSize)
	}
	return c
}

// Snapshot returns a view of the same immutable token data with a fresh
// alias cache.
func (t *Table) Snapshot() *Table {
	s := *t
	s.cache = t.newCache()
	return &s
}

// Len returns the number of tokens.
func (t *Table) Len() int { return len(t.byName) }

// Lookup finds a token by logical name or custom property name.
func (t *Table) Lookup(name string) (*Token, bool) {
	if tok, ok := t.byName[name]; ok {
		return tok, true
	}
	if strings.HasPrefix(name, "--") {
		tok, ok := t.byProperty[name]
		return tok, ok
	}
	tok, ok := t.byProperty[CustomPropertyName(name)]
	return tok, ok
}

// Collection returns a collection by name.
func (t *Table) Collection(name string) (*Collection, bool) {
	c, ok := t.collections[name]
	return c, ok
}

// Collections returns all collections sorted by name.
func (t *Table) Collections() []*Collection {
	names := make([]string, 0, len(t.collections))
	for name := range t.collections {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	out := make([]*Collection, len(names))
	for i, name := range names {
		out[i] = t.collections[name]
	}
	return out
}

// Filter selects tokens for Tokens. Empty fields match everything.
type Filter struct {
	Category   Category
	Collection string
	Origin     Origin
	Prefix     string
}

// Tokens returns copies of the tokens matching f in natural name order.
func (t *Table) Tokens(f Filter) []Token {
	result := make([]Token, 0)
	for _, name := range t.names {
		tok := t.byName[name]
		if f.Category != "" && tok.Category != f.Category {
			continue
		}
		if f.Collection != "" && tok.Collection != f.Collection {
			continue
		}
		if f.Origin != "" && tok.Origin != f.Origin {
			continue
		}
		if f.Prefix != "" && !strings.HasPrefix(tok.Name, f.Prefix) {
			continue
		}
		result = append(result, *tok)
	}
	return result
}

// Resolve follows the alias chain of name for the default mode. When the
// chain is dangling or cyclic it returns the last terminal value seen (or "")
// and false.
func (t *Table) Resolve(name string) (string, bool) {
	v, res := t.resolve(name, "")
	return v, res.ok
}

// ResolveMode is Resolve for a specific mode. Tokens without a value for
// mode fall back to their default value.
func (t *Table) ResolveMode(name, mode string) (string, bool) {
	v, res := t.resolve(name, mode)
	return v, res.ok
}

// ResolveDiag is Resolve that also explains a failed resolution.
func (t *Table) ResolveDiag(name, mode string) (string, *diag.Diagnostic) {
	v, res := t.resolve(name, mode)
	if res.ok {
		return v, nil
	}
	d := diag.New(diag.KindUnresolvedTokenAlias, diag.SeverityWarning, name,
		"token %q: %s, using %q", name, res.reason, v)
	return v, &d
}

func (t *Table) resolve(name, mode string) (string, aliasResult) {
	key := name + "\x00" + mode
	if r, ok := t.cache.Get(key); ok {
		return r.value, r
	}

	r := t.walk(name, mode)
	t.cache.Add(key, r)
	return r.value, r
}

func (t *Table) walk(name, mode string) aliasResult {
	seen := make(map[string]bool)
	last := ""
	cur := name
	for {
		tok, ok := t.Lookup(cur)
		if !ok {
			reason := fmt.Sprintf("alias target %q does not exist", cur)
			if cur == name {
				reason = "token does not exist"
			}
			return aliasResult{value: last, reason: reason}
		}
		if seen[tok.Name] {
			return aliasResult{value: last, reason: fmt.Sprintf("alias cycle through %q", tok.Name)}
		}
		seen[tok.Name] = true

		raw, isAlias := tok.Value, tok.Alias != ""
		target := tok.Alias
		if mode != "" {
			if mv, ok := tok.Modes[mode]; ok {
				if tgt, a := ParseAlias(mv); a {
					target, isAlias = tgt, true
				} else {
					raw, isAlias = mv, false
				}
			}
		}

		if !isAlias {
			return aliasResult{value: raw, ok: true}
		}
		if tok.Value != "" {
			last = tok.Value
		}
		cur = target
	}
}

// Match finds the token whose resolved default value equals value. With no
// preferred categories every token qualifies. Otherwise only tokens in a
// preferred category or in CategoryOther qualify, preferred ones first, so a
// font size never becomes a radius token. Ties go to the first name in
// natural order.
func (t *Table) Match(value string, prefer ...Category) (*Token, bool) {
	names := t.byValue[normalizeValue(value)]
	if len(names) == 0 {
		return nil, false
	}
	if len(prefer) == 0 {
		return t.byName[names[0]], true
	}
	var other *Token
	for _, name := range names {
		tok := t.byName[name]
		if slices.Contains(prefer, tok.Category) {
			return tok, true
		}
		if other == nil && tok.Category == CategoryOther {
			other = tok
		}
	}
	return other, other != nil
}

// Reference renders the indirection for a token. External tokens carry their
// resolved default value as fallback.
func (t *Table) Reference(name string) (Reference, bool) {
	tok, ok := t.Lookup(name)
	if !ok {
		return Reference{}, false
	}
	ref := Reference{
		Token:    tok.Name,
		Property: tok.CustomProperty(),
		Origin:   tok.Origin,
	}
	if tok.Origin == OriginExternal {
		ref.Fallback, _ = t.Resolve(tok.Name)
	}
	return ref, true
}

// DependsOn reports whether name, or any token its alias chain reaches in
// any mode, belongs to collection. A semantic token aliasing a themed
// primitive depends on the primitive's collection.
func (t *Table) DependsOn(name, collection string) bool {
	seen := make(map[string]bool)
	stack := []string{name}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		tok, ok := t.Lookup(cur)
		if !ok || seen[tok.Name] {
			continue
		}
		seen[tok.Name] = true
		if tok.Collection == collection {
			return true
		}
		if tok.Alias != "" {
			stack = append(stack, tok.Alias)
		}
		for _, v := range tok.Modes {
			if target, isAlias := ParseAlias(v); isAlias {
				stack = append(stack, target)
			}
		}
	}
	return false
}
