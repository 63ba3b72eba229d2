package parser

import (
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestParse(t *testing.T) {
	m := NewManager(testLogger(), 0)
	defer m.Close()

	tests := []struct {
		name   string
		source string
		lang   Language
		tsx    bool
	}{
		{"typescript", "export const tokens = { space: { 4: '16px' } } as const;", LanguageTypeScript, false},
		{"tsx", "export const Box = () => <div className=\"p-4\" />;", LanguageTypeScript, true},
		{"javascript", "module.exports = { color: '#fff' };", LanguageJavaScript, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := m.Parse([]byte(tt.source), tt.lang, tt.tsx)
			require.NoError(t, err)
			defer tree.Close()

			root := tree.RootNode()
			assert.Equal(t, "program", root.Kind())
			assert.False(t, root.HasError())
		})
	}
}

func TestParseFile(t *testing.T) {
	m := NewManager(testLogger(), 0)
	defer m.Close()

	tree, err := m.ParseFile([]byte("export default { a: 1 };"), "theme.mjs")
	require.NoError(t, err)
	tree.Close()

	_, err = m.ParseFile([]byte("a: 1"), "theme.yaml")
	assert.Error(t, err)
}

func TestParse_UnknownLanguage(t *testing.T) {
	m := NewManager(testLogger(), 0)
	defer m.Close()

	tree, err := m.Parse([]byte("x"), LanguageUnknown, false)
	assert.Error(t, err)
	assert.Nil(t, tree)
}

func TestParse_InvalidSyntaxKeepsTree(t *testing.T) {
	m := NewManager(testLogger(), 0)
	defer m.Close()

	tree, err := m.Parse([]byte("export const tokens = { a: };"), LanguageTypeScript, false)
	require.NoError(t, err)
	defer tree.Close()
	assert.True(t, tree.RootNode().HasError())
}

func TestLazyPools(t *testing.T) {
	m := NewManager(testLogger(), 0)
	defer m.Close()

	assert.Equal(t, Stats{}, m.Stats())

	src := []byte("const x = 1;")
	for i := 0; i < 2; i++ {
		tree, err := m.Parse(src, LanguageTypeScript, false)
		require.NoError(t, err)
		tree.Close()
	}
	assert.Equal(t, Stats{ParsersCreated: 1, ParsesCalled: 2}, m.Stats(), "sequential parses reuse one parser")

	tree, err := m.Parse(src, LanguageJavaScript, false)
	require.NoError(t, err)
	tree.Close()
	assert.Equal(t, 2, m.Stats().ParsersCreated)
}

func TestConcurrentParse(t *testing.T) {
	const poolSize = 3
	m := NewManager(testLogger(), poolSize)
	defer m.Close()

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(lang Language) {
			defer wg.Done()
			tree, err := m.Parse([]byte("export const t = { a: '1' };"), lang, false)
			if err != nil {
				errs <- err
				return
			}
			tree.Close()
		}(SupportedLanguages()[i%2])
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	stats := m.Stats()
	assert.Equal(t, n, stats.ParsesCalled)
	assert.LessOrEqual(t, stats.ParsersCreated, 2*poolSize)
}

func TestClose(t *testing.T) {
	m := NewManager(testLogger(), 0)
	tree, err := m.Parse([]byte("const x = 1;"), LanguageJavaScript, false)
	require.NoError(t, err)
	tree.Close()

	require.NoError(t, m.Close())
	assert.Empty(t, m.pools)
	require.NoError(t, m.Close(), "second close is a no-op")

	_, err = m.Parse([]byte("const x = 1;"), LanguageJavaScript, false)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
		tsx  bool
	}{
		{"tokens.ts", LanguageTypeScript, false},
		{"theme.TSX", LanguageTypeScript, true},
		{"tokens.mts", LanguageTypeScript, false},
		{"tokens.js", LanguageJavaScript, false},
		{"tailwind.config.cjs", LanguageJavaScript, false},
		{"tokens.json", LanguageUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.path))
			assert.Equal(t, tt.tsx, IsTSXFile(tt.path))
		})
	}
	assert.Equal(t, "unknown", LanguageUnknown.String())
}
