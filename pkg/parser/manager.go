package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/gnana997/stylespec/pkg/util"
)

// ErrClosed is returned by Parse after Close.
var ErrClosed = errors.New("parser manager closed")

type poolKey struct {
	lang Language
	tsx  bool
}

// Manager owns one lazily created parser pool per grammar and is safe for
// concurrent use. Callers own the returned trees and must Close them.
//
//	m := parser.NewManager(logger, 0)
//	defer m.Close()
//	tree, err := m.ParseFile(src, "theme.ts")
type Manager struct {
	mu       sync.RWMutex
	pools    map[poolKey]*parserPool
	poolSize int
	closed   bool
	parses   int

	logger *slog.Logger
}

// Stats reports parser usage.
type Stats struct {
	ParsersCreated int
	ParsesCalled   int
}

// NewManager creates a Manager whose pools hold up to poolSize parsers each.
// A poolSize of 0 sizes pools from the CPU count.
func NewManager(logger *slog.Logger, poolSize int) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		pools:    make(map[poolKey]*parserPool),
		poolSize: util.GetOptimalPoolSizeWithOverride(poolSize),
		logger:   logger,
	}
}

// Parse parses source with the given grammar. Syntax errors do not fail the
// parse; the partial tree is returned and a warning logged.
func (m *Manager) Parse(source []byte, lang Language, tsx bool) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}

	pool, err := m.pool(poolKey{lang: lang, tsx: tsx && lang == LanguageTypeScript})
	if err != nil {
		return nil, err
	}

	p, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}
	tree := p.Parse(source, nil)
	pool.release(p)

	if tree == nil {
		return nil, fmt.Errorf("%s parser returned no tree", lang)
	}
	if tree.RootNode().HasError() {
		m.logger.Warn("parse tree contains errors", "language", lang.String())
	}
	return tree, nil
}

// ParseFile parses source with the grammar its extension selects.
func (m *Manager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	return m.Parse(source, lang, IsTSXFile(filePath))
}

func (m *Manager) pool(key poolKey) (*parserPool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	m.parses++
	if p, ok := m.pools[key]; ok {
		return p, nil
	}

	langPtr, err := languagePointer(key)
	if err != nil {
		return nil, err
	}
	p := newParserPool(key, langPtr, m.poolSize, m.logger)
	m.pools[key] = p
	m.logger.Debug("created parser pool", "language", key.lang.String(), "tsx", key.tsx, "max_size", m.poolSize)
	return p, nil
}

func languagePointer(key poolKey) (unsafe.Pointer, error) {
	switch key.lang {
	case LanguageTypeScript:
		if key.tsx {
			return ts_typescript.LanguageTSX(), nil
		}
		return ts_typescript.LanguageTypescript(), nil
	case LanguageJavaScript:
		return ts_javascript.Language(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", key.lang)
	}
}

// Stats returns usage counters.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Stats{ParsesCalled: m.parses}
	for _, p := range m.pools {
		s.ParsersCreated += p.createdCount()
	}
	return s
}

// Close frees every pooled parser. Trees already returned stay valid. Close
// must not run concurrently with Parse.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	closed := 0
	for _, p := range m.pools {
		closed += p.close()
	}
	m.pools = make(map[poolKey]*parserPool)
	m.logger.Debug("parser manager closed", "parses", m.parses, "parsers_closed", closed)
	return nil
}
