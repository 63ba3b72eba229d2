// Package tokensource loads design tokens from JSON, YAML, CSS and JS/TS
// theme modules and feeds them into a tokens.Builder.
package tokensource

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"github.com/gnana997/stylespec/pkg/tokens"
)

// GroupMarkers are object keys that name their parent group itself, so
// "color.primary.DEFAULT" defines "color.primary".
var GroupMarkers = []string{"_", "@", "DEFAULT"}

// CollectionSpec declares a mode collection in a token source.
type CollectionSpec struct {
	Name    string   `json:"name"`
	Modes   []string `json:"modes"`
	Default string   `json:"default,omitempty"`
}

// Set is the parsed content of one or more token sources.
type Set struct {
	Sources     []string         `json:"sources,omitempty"`
	Collections []CollectionSpec `json:"collections"`
	Tokens      []tokens.Token   `json:"tokens"`
}

// Merge combines sets in order. Collections with the same name are unioned
// (first declared default wins) and later tokens replace earlier ones when
// added to a Builder.
func Merge(sets ...*Set) *Set {
	out := &Set{}
	byName := make(map[string]int)
	for _, s := range sets {
		if s == nil {
			continue
		}
		out.Sources = append(out.Sources, s.Sources...)
		for _, c := range s.Collections {
			i, ok := byName[c.Name]
			if !ok {
				byName[c.Name] = len(out.Collections)
				out.Collections = append(out.Collections, CollectionSpec{
					Name:    c.Name,
					Modes:   append([]string(nil), c.Modes...),
					Default: c.Default,
				})
				continue
			}
			merged := &out.Collections[i]
			for _, m := range c.Modes {
				if !contains(merged.Modes, m) {
					merged.Modes = append(merged.Modes, m)
				}
			}
			if merged.Default == "" {
				merged.Default = c.Default
			}
		}
		out.Tokens = append(out.Tokens, s.Tokens...)
	}
	return out
}

// AddTo registers the set's collections and tokens with b. A non-empty
// origin overrides the origin of every token. Collections that tokens
// reference without declaring are inferred from the mode names they use.
func (s *Set) AddTo(b *tokens.Builder, origin tokens.Origin) error {
	err := s.withInferredCollections().addCollections(b)
	s.addTokens(b, origin)
	return err
}

func (s *Set) addCollections(b *tokens.Builder) error {
	var errs []error
	for _, c := range s.Collections {
		if err := b.AddCollection(c.Name, c.Modes, c.Default); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Set) addTokens(b *tokens.Builder, origin tokens.Origin) {
	for _, t := range s.Tokens {
		if origin != "" {
			t.Origin = origin
		}
		b.Add(t)
	}
}

func (s *Set) withInferredCollections() *Set {
	declared := make(map[string]bool, len(s.Collections))
	for _, c := range s.Collections {
		declared[c.Name] = true
	}

	inferred := make(map[string][]string)
	var order []string
	for _, t := range s.Tokens {
		if t.Collection == "" || declared[t.Collection] {
			continue
		}
		if _, ok := inferred[t.Collection]; !ok {
			order = append(order, t.Collection)
		}
		for m := range t.Modes {
			if !contains(inferred[t.Collection], m) {
				inferred[t.Collection] = append(inferred[t.Collection], m)
			}
		}
	}
	if len(order) == 0 {
		return s
	}

	out := *s
	out.Collections = append([]CollectionSpec(nil), s.Collections...)
	for _, name := range order {
		modes := inferred[name]
		if len(modes) == 0 {
			continue
		}
		sort.Sort(natural.StringSlice(modes))
		out.Collections = append(out.Collections, CollectionSpec{Name: name, Modes: modes})
	}
	return &out
}

// tokenName joins a key path into a dotted token name, dropping group
// markers.
func tokenName(path []string) string {
	parts := make([]string, 0, len(path))
	for _, p := range path {
		if p == "" || contains(GroupMarkers, p) {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ".")
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// SourceError ties a load failure to its file.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *SourceError) Unwrap() error { return e.Err }
