package tokensource

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns match the token files Discover picks up.
var DefaultPatterns = []string{
	"**/tokens.json",
	"**/*.tokens.json",
	"**/design-tokens.json",
	"**/tokens.{yaml,yml}",
	"**/*.tokens.{yaml,yml}",
	"**/tokens.css",
	"**/*.tokens.css",
	"**/tokens.{ts,js,mjs,cjs}",
}

// Discover walks root for token files matching DefaultPatterns.
func Discover(root string, excludes []string) ([]string, error) {
	return DiscoverPatterns(root, DefaultPatterns, excludes)
}

// DiscoverPatterns walks root for files matching any of patterns, skipping
// paths and directories that match an exclude glob. Patterns match the
// slash-separated path relative to root. Results are absolute.
func DiscoverPatterns(root string, patterns, excludes []string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}
	for _, p := range append(append([]string(nil), patterns...), excludes...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if Excluded(rel, excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, rel); ok {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Excluded reports whether the slash-separated relative path matches one of
// the exclude globs. A directory pattern like "**/node_modules/**" also
// excludes the directory itself.
func Excluded(rel string, excludes []string) bool {
	for _, pattern := range excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel+"/"); ok {
			return true
		}
	}
	return false
}
