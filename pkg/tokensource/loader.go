package tokensource

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gnana997/stylespec/pkg/config"
	"github.com/gnana997/stylespec/pkg/diag"
	"github.com/gnana997/stylespec/pkg/parser"
	"github.com/gnana997/stylespec/pkg/tokens"
	"github.com/gnana997/stylespec/pkg/util"
)

// Format is a token file syntax.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatCSS     Format = "css"
	FormatModule  Format = "module"
	FormatUnknown Format = ""
)

// DetectFormat picks a Format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".css":
		return FormatCSS
	}
	if parser.DetectLanguage(path) != parser.LanguageUnknown {
		return FormatModule
	}
	return FormatUnknown
}

// Loader reads token files through a FileCache. The tree-sitter parsers
// for theme modules are created on first use. A Loader is safe for
// concurrent use and must be closed.
type Loader struct {
	cache  util.FileCache
	logger *slog.Logger

	once    sync.Once
	parsers *parser.Manager
}

// NewLoader creates a Loader. A nil cache reads files through a fresh
// unbounded FileCache owned by the Loader.
func NewLoader(cache util.FileCache, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = util.NewFileCache(util.UnboundedFileCacheConfig())
	}
	return &Loader{cache: cache, logger: logger}
}

func (l *Loader) parserManager() *parser.Manager {
	l.once.Do(func() {
		l.parsers = parser.NewManager(l.logger, 0)
	})
	return l.parsers
}

// LoadFile reads one token file.
func (l *Loader) LoadFile(path string) (*Set, error) {
	data, err := l.cache.Read(path)
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}

	var s *Set
	switch DetectFormat(path) {
	case FormatJSON:
		s, err = LoadJSON(data, l.logger)
	case FormatYAML:
		s, err = LoadYAML(data, l.logger)
	case FormatCSS:
		s, err = LoadCSS(data, l.logger)
	case FormatModule:
		s, err = LoadModule(l.parserManager(), data, path, l.logger)
	default:
		err = fmt.Errorf("unsupported token file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}

	s.Sources = []string{path}
	l.logger.Debug("loaded token file",
		"path", path,
		"tokens", len(s.Tokens),
		"collections", len(s.Collections))
	return s, nil
}

// Load reads every path and merges the results in order. Files that fail
// are reported in the joined error; the rest are still merged.
func (l *Loader) Load(paths []string) (*Set, error) {
	sets := make([]*Set, 0, len(paths))
	var errs []error
	for _, p := range paths {
		s, err := l.LoadFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sets = append(sets, s)
	}
	return Merge(sets...), errors.Join(errs...)
}

// Evict drops a cached file so the next load sees fresh contents.
func (l *Loader) Evict(path string) { l.cache.Evict(path) }

// Close releases the parsers. The FileCache is closed too.
func (l *Loader) Close() error {
	var err error
	if l.parsers != nil {
		err = l.parsers.Close()
	}
	return errors.Join(err, l.cache.Close())
}

// Sources lists the token files for one table.
type Sources struct {
	// Local files define the project's own tokens.
	Local []string
	// External files hold library tokens; references to them carry fallbacks.
	External []string
	// Root is searched with Discover when no local files are given and
	// discovery is enabled. Relative paths are resolved against it.
	Root string
}

// SourcesFromConfig combines config paths with extra paths from flags.
func SourcesFromConfig(cfg *config.Config, root string, local, external []string) Sources {
	return Sources{
		Local:    append(append([]string(nil), cfg.Tokens.Paths...), local...),
		External: append(append([]string(nil), cfg.Tokens.External...), external...),
		Root:     root,
	}
}

// BuildTable loads src and builds a Table configured by cfg. External
// tokens are added first so a local token of the same name wins. The table
// is returned even when some sources failed; err then joins the failures.
func (l *Loader) BuildTable(cfg *config.Config, src Sources) (*tokens.Table, []diag.Diagnostic, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	rules, err := cfg.ModeRules()
	if err != nil {
		return nil, nil, err
	}

	local := l.resolvePaths(src.Root, src.Local)
	if len(local) == 0 && cfg.Tokens.Discover && src.Root != "" {
		found, err := Discover(src.Root, cfg.Tokens.Exclude)
		if err != nil {
			return nil, nil, fmt.Errorf("token discovery failed: %w", err)
		}
		l.logger.Info("discovered token files", "root", src.Root, "files", len(found))
		local = found
	}
	external := l.resolvePaths(src.Root, src.External)

	extSet, extErr := l.Load(external)
	localSet, localErr := l.Load(local)

	b := tokens.NewBuilder(rules).WithLogger(l.logger).WithCacheSize(cfg.Cache.AliasCacheSize)
	// Collections are declared once so modes from both origins are unioned.
	colErr := Merge(extSet, localSet).withInferredCollections().addCollections(b)
	extSet.addTokens(b, tokens.OriginExternal)
	localSet.addTokens(b, "")

	table, diags := b.Build()
	l.logger.Info("token table ready",
		"tokens", table.Len(),
		"local_files", len(local),
		"external_files", len(external),
		"diagnostics", len(diags))
	return table, diags, errors.Join(extErr, localErr, colErr)
}

func (l *Loader) resolvePaths(root string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if root != "" && !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		out = append(out, p)
	}
	return out
}
