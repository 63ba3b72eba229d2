package tokensource

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"tokens.json":                  "{}",
		"sub/design-tokens.json":       "{}",
		"sub/theme.tokens.css":         ":root{}",
		"src/tokens.ts":                "export default {}",
		"config/brand.tokens.yml":      "a: b",
		"node_modules/pkg/tokens.json": "{}",
		"dist/tokens.css":              "",
		"other.json":                   "{}",
		"README.md":                    "",
	})

	files, err := Discover(dir, []string{"**/node_modules/**", "dist/**"})
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "tokens.json"),
		filepath.Join(dir, "sub", "design-tokens.json"),
		filepath.Join(dir, "sub", "theme.tokens.css"),
		filepath.Join(dir, "src", "tokens.ts"),
		filepath.Join(dir, "config", "brand.tokens.yml"),
	}
	assert.ElementsMatch(t, want, files)
}

func TestDiscoverPatterns_InvalidPattern(t *testing.T) {
	_, err := DiscoverPatterns(t.TempDir(), []string{"[abc"}, nil)
	assert.ErrorContains(t, err, "invalid glob pattern")
}

func TestExcluded(t *testing.T) {
	excludes := []string{"**/node_modules/**", "**/.git/**"}
	assert.True(t, Excluded("node_modules", excludes))
	assert.True(t, Excluded("web/node_modules/x/tokens.json", excludes))
	assert.True(t, Excluded(".git", excludes))
	assert.False(t, Excluded("src/tokens.json", excludes))
	assert.False(t, Excluded("src/tokens.json", nil))
}
