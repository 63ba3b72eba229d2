package tokensource

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gnana997/stylespec/pkg/tokens"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// writeFiles creates files under dir from a path -> content map.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func buildSet(t *testing.T, s *Set) *tokens.Table {
	t.Helper()
	b := tokens.NewBuilder(nil).WithLogger(quietLogger())
	require.NoError(t, s.AddTo(b, ""))
	table, _ := b.Build()
	return table
}

func byName(s *Set) map[string]tokens.Token {
	out := make(map[string]tokens.Token, len(s.Tokens))
	for _, t := range s.Tokens {
		out[t.Name] = t
	}
	return out
}
