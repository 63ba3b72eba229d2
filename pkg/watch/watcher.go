// Package watch re-resolves design documents as they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/maruel/natural"

	"github.com/gnana997/stylespec/pkg/design"
	"github.com/gnana997/stylespec/pkg/resolve"
	"github.com/gnana997/stylespec/pkg/tokensource"
	"github.com/gnana997/stylespec/pkg/util"
)

// DefaultDebounce groups bursts of writes to one file.
const DefaultDebounce = 200 * time.Millisecond

// Op says what happened to a watched file.
type Op string

const (
	OpResolved       Op = "resolved"
	OpRemoved        Op = "removed"
	OpFailed         Op = "failed"
	OpTokensReloaded Op = "tokens-reloaded"
)

// Event is delivered to the Sink once per processed change.
type Event struct {
	// Run groups the events produced by one change.
	Run      string
	Path     string
	Op       Op
	Result   *resolve.Result
	Err      error
	Duration time.Duration
}

// Sink receives events on the watcher's goroutine. It must not block for
// long; later changes queue behind it.
type Sink func(Event)

// ReloadFunc rebuilds the engine after the token file at changed was
// written or removed. A non-nil engine returned with an error is still used.
type ReloadFunc func(ctx context.Context, changed string) (*resolve.Engine, error)

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration

	// Exclude holds doublestar patterns relative to the watched root.
	Exclude []string

	// TokenPatterns marks files whose changes trigger Reload. Defaults to
	// tokensource.DefaultPatterns.
	TokenPatterns []string

	// Reload is called when a token file changes. Nil ignores token files.
	Reload ReloadFunc

	// Initial resolves every design document found at Start.
	Initial bool

	Cache  util.FileCache
	Logger *slog.Logger
}

// Watcher watches a directory tree for design documents (*.json files that
// are not token files) and resolves them after each change.
//
//	w, err := watch.New(engine, sink, watch.Options{Exclude: cfg.Watch.Exclude})
//	if err != nil { ... }
//	if err := w.Start(dir); err != nil { ... }
//	defer w.Stop()
type Watcher struct {
	fsw    *fsnotify.Watcher
	engine atomic.Pointer[resolve.Engine]
	sink   Sink
	opts   Options
	cache  util.FileCache
	ownsFC bool
	logger *slog.Logger
	root   string

	ctx    context.Context
	cancel context.CancelFunc

	timersMu sync.Mutex
	timers   map[string]*time.Timer
	fire     chan string

	// known is only touched from the event loop.
	known map[string]struct{}

	mu      sync.Mutex
	started bool
	stopped bool
	done    chan struct{}
}

// New creates a watcher. Call Start to begin watching.
func New(engine *resolve.Engine, sink Sink, opts Options) (*Watcher, error) {
	if engine == nil {
		return nil, errors.New("watch: engine is required")
	}
	if sink == nil {
		return nil, errors.New("watch: sink is required")
	}
	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("watch: invalid exclude pattern %q", p)
		}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.TokenPatterns == nil {
		opts.TokenPatterns = tokensource.DefaultPatterns
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		fsw:    fsw,
		sink:   sink,
		opts:   opts,
		cache:  opts.Cache,
		logger: opts.Logger,
		timers: make(map[string]*time.Timer),
		fire:   make(chan string),
		known:  make(map[string]struct{}),
		done:   make(chan struct{}),
	}
	if w.cache == nil {
		w.cache = util.NewFileCache(util.UnboundedFileCacheConfig())
		w.ownsFC = true
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.engine.Store(engine)
	return w, nil
}

// Start watches root and its subdirectories. It may be called once.
func (w *Watcher) Start(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return errors.New("watch: watcher already stopped")
	}
	if w.started {
		return errors.New("watch: watcher already started")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	w.root = abs

	var designs []string
	if err := w.addTree(abs, &designs); err != nil {
		return err
	}
	w.started = true
	w.logger.Info("file watcher started", "root", abs, "designs", len(designs))

	go w.loop()

	if w.opts.Initial {
		sort.Sort(natural.StringSlice(designs))
		for _, p := range designs {
			w.schedule(p, 0)
		}
	}
	return nil
}

// Stop ends the watch and waits for the event loop to exit. It is safe to
// call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	started := w.started
	w.mu.Unlock()

	w.cancel()

	w.timersMu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.timersMu.Unlock()

	err := w.fsw.Close()
	if started {
		<-w.done
	}
	if w.ownsFC {
		if cerr := w.cache.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	w.logger.Info("file watcher stopped")
	return err
}

// Pending reports how many files wait for their debounce timer.
func (w *Watcher) Pending() int {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()
	return len(w.timers)
}

// addTree watches every non-excluded directory under dir and collects the
// design documents it finds.
func (w *Watcher) addTree(dir string, designs *[]string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if w.excluded(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				w.logger.Warn("failed to watch directory", "path", path, "error", err)
			}
			return nil
		}
		if designs != nil && w.isDesign(path) {
			*designs = append(*designs, path)
		}
		return nil
	})
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) excluded(path string) bool {
	if path == w.root {
		return false
	}
	return tokensource.Excluded(w.rel(path), w.opts.Exclude)
}

func (w *Watcher) isToken(path string) bool {
	rel := w.rel(path)
	for _, p := range w.opts.TokenPatterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) isDesign(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json") && !w.isToken(path)
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)

		case path := <-w.fire:
			w.process(path)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if w.excluded(path) {
		return
	}

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		if ev.Has(fsnotify.Create) && isDir(path) {
			// New directories may already hold files written before the
			// watch was added.
			var designs []string
			if err := w.addTree(path, &designs); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			for _, p := range designs {
				w.schedule(p, w.opts.Debounce)
			}
			return
		}
		if w.isDesign(path) || (w.opts.Reload != nil && w.isToken(path)) {
			w.logger.Debug("file event", "op", ev.Op.String(), "file", path)
			w.schedule(path, w.opts.Debounce)
		}

	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancelTimer(path)
		w.cache.Evict(path)
		if _, ok := w.known[path]; ok {
			delete(w.known, path)
			w.sink(Event{Run: uuid.NewString(), Path: path, Op: OpRemoved})
		} else if w.opts.Reload != nil && w.isToken(path) {
			w.schedule(path, w.opts.Debounce)
		}
	}
}

// schedule (re)arms the debounce timer for path. When it fires the path is
// handed to the event loop.
func (w *Watcher) schedule(path string, delay time.Duration) {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(delay, func() {
		select {
		case w.fire <- path:
		case <-w.ctx.Done():
		}
	})
}

func (w *Watcher) cancelTimer(path string) {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) process(path string) {
	w.timersMu.Lock()
	delete(w.timers, path)
	w.timersMu.Unlock()

	w.cache.Evict(path)
	run := uuid.NewString()

	if w.isToken(path) {
		w.reload(run, path)
		return
	}
	w.resolve(run, path)
}

func (w *Watcher) reload(run, path string) {
	if w.opts.Reload == nil {
		return
	}
	start := time.Now()
	engine, err := w.opts.Reload(w.ctx, path)
	if err != nil && engine == nil {
		w.logger.Warn("token reload failed", "file", path, "error", err)
		w.sink(Event{Run: run, Path: path, Op: OpFailed, Err: err, Duration: time.Since(start)})
		return
	}
	if err != nil {
		w.logger.Warn("token reload incomplete", "file", path, "error", err)
	}
	w.engine.Store(engine)
	w.sink(Event{Run: run, Path: path, Op: OpTokensReloaded, Err: err, Duration: time.Since(start)})

	designs := make([]string, 0, len(w.known))
	for p := range w.known {
		designs = append(designs, p)
	}
	sort.Sort(natural.StringSlice(designs))
	for _, p := range designs {
		w.resolve(run, p)
	}
}

func (w *Watcher) resolve(run, path string) {
	start := time.Now()
	doc, err := design.LoadFromCache(w.cache, path)
	if err == nil {
		var res *resolve.Result
		res, err = w.engine.Load().Resolve(w.ctx, doc)
		if err == nil {
			w.known[path] = struct{}{}
			w.logger.Debug("design resolved", "file", path, "nodes", len(res.Nodes), "diagnostics", len(res.Diagnostics))
			w.sink(Event{Run: run, Path: path, Op: OpResolved, Result: res, Duration: time.Since(start)})
			return
		}
	}
	if w.ctx.Err() != nil {
		return
	}
	w.logger.Warn("failed to resolve design", "file", path, "error", err)
	w.sink(Event{Run: run, Path: path, Op: OpFailed, Err: err, Duration: time.Since(start)})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
