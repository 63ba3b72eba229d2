// FileCache provides shared read access to design documents and token files
// using memory-mapped files.
//
// **Why mmap here:**
//   - Design exports are large JSON files that are read repeatedly (CLI batch
//     runs over a directory, the MCP server re-resolving the same document,
//     watch mode re-reading token files on every design change)
//   - Only accessed pages are loaded into RAM (on-demand paging)
//
// **Safety Features:**
//   - Optional MaxFiles limit (prevents file descriptor exhaustion)
//   - Optional MaxMemoryMB limit (prevents runaway virtual memory usage)
//   - Graceful fallback to os.ReadFile if mmap fails
//   - Thread-safe with sync.RWMutex (parallel reads, exclusive writes)
//   - Evict() drops a mapping after the file changed on disk (watch mode)
package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
)

// FileCache provides memory-mapped file access.
//
// Thread-safe: Multiple goroutines can call methods concurrently.
type FileCache interface {
	// Get returns the mapped file, loading it on first access.
	Get(filePath string) (*MappedFile, error)

	// Read returns the full file contents as a byte slice. The slice aliases
	// the mapping and must not be modified; it stays valid until the file is
	// evicted or the cache is closed.
	Read(filePath string) ([]byte, error)

	// Evict unmaps a single file so that the next Get sees fresh contents.
	Evict(filePath string)

	// Size returns number of currently cached files.
	Size() int

	// Stats returns current cache metrics.
	Stats() FileCacheStats

	// Close unmaps all files and releases resources.
	Close() error
}

// FileCacheConfig controls FileCache behavior.
type FileCacheConfig struct {
	// MaxFiles is the maximum number of files to keep cached (0 = unlimited).
	MaxFiles int

	// MaxMemoryMB limits mapped virtual memory in MB (0 = unlimited).
	MaxMemoryMB int

	// EnableMetrics determines whether to track cache statistics.
	EnableMetrics bool

	// Logger for warnings and errors. If nil, uses slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig returns limits suitable for a design workspace.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles:      2000,
		MaxMemoryMB:   1024,
		EnableMetrics: true,
		Logger:        nil,
	}
}

// UnboundedFileCacheConfig returns config with no limits. Use for tests.
func UnboundedFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles:      0,
		MaxMemoryMB:   0,
		EnableMetrics: true,
		Logger:        nil,
	}
}

// MappedFile represents a memory-mapped file.
type MappedFile struct {
	// Path is the path the file was loaded from.
	Path string

	// Data is the mapped region. Nil for empty files.
	Data mmap.MMap

	// File is kept open for the lifetime of the mapping. Nil for fallback entries.
	File *os.File

	// Size is the file size in bytes.
	Size int64

	// MappedAt is when this file was first mapped.
	MappedAt time.Time
}

// FileCacheStats tracks cache performance metrics.
type FileCacheStats struct {
	FilesLoaded   int64
	FilesCached   int
	CacheHits     int64
	CacheMisses   int64
	MmapFailures  int64
	Evictions     int64
	TotalMappedMB float64
}

// NewFileCache creates a new FileCache with the given config.
//
// If config is nil, uses DefaultFileCacheConfig().
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &fileCacheImpl{
		config:        config,
		cache:         make(map[string]*MappedFile),
		fallbackCache: make(map[string][]byte),
		logger:        config.Logger,
	}
}

// fileCacheImpl is the internal implementation of FileCache.
//
// Thread-safety:
//   - mu (RWMutex): protects cache and fallbackCache
//   - statsMu (Mutex): protects stats, separate to avoid contention
type fileCacheImpl struct {
	config *FileCacheConfig
	logger *slog.Logger

	cache         map[string]*MappedFile
	fallbackCache map[string][]byte
	mu            sync.RWMutex

	stats   FileCacheStats
	statsMu sync.Mutex
}

// Get returns mmap'd file or loads it on first access.
func (fc *fileCacheImpl) Get(filePath string) (*MappedFile, error) {
	// Fast path: already cached.
	fc.mu.RLock()
	if mf, ok := fc.cache[filePath]; ok {
		fc.mu.RUnlock()
		fc.recordHit()
		return mf, nil
	}
	if data, ok := fc.fallbackCache[filePath]; ok {
		fc.mu.RUnlock()
		fc.recordHit()
		return wrapFallbackData(filePath, data), nil
	}
	fc.mu.RUnlock()

	// Slow path: load under the write lock.
	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Double-check: another goroutine might have loaded it while we waited.
	if mf, ok := fc.cache[filePath]; ok {
		fc.recordHit()
		return mf, nil
	}
	if data, ok := fc.fallbackCache[filePath]; ok {
		fc.recordHit()
		return wrapFallbackData(filePath, data), nil
	}

	var fileSize int64
	if fc.config.MaxMemoryMB > 0 {
		stat, err := os.Stat(filePath)
		if err != nil {
			fc.recordMiss()
			return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
		}
		fileSize = stat.Size()
	}

	if err := fc.checkLimitsWithNewFile(fileSize); err != nil {
		fc.recordMiss()
		return nil, err
	}

	mf, err := fc.loadFile(filePath)
	if err != nil {
		fc.recordMiss()
		return nil, err
	}

	if mf.File != nil || mf.Size == 0 {
		fc.cache[filePath] = mf
	}
	fc.recordLoad()

	return mf, nil
}

// Read returns the whole file.
func (fc *fileCacheImpl) Read(filePath string) ([]byte, error) {
	mf, err := fc.Get(filePath)
	if err != nil {
		return nil, err
	}
	if len(mf.Data) == 0 {
		return []byte{}, nil
	}
	return mf.Data, nil
}

// Evict drops a file from the cache.
func (fc *fileCacheImpl) Evict(filePath string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if mf, ok := fc.cache[filePath]; ok {
		fc.release(filePath, mf)
		delete(fc.cache, filePath)
		fc.recordEviction()
	}
	if _, ok := fc.fallbackCache[filePath]; ok {
		delete(fc.fallbackCache, filePath)
		fc.recordEviction()
	}
}

// checkLimitsWithNewFile verifies that adding a new file won't exceed limits.
//
// Must be called while holding mu.Lock.
func (fc *fileCacheImpl) checkLimitsWithNewFile(newFileSize int64) error {
	if fc.config.MaxFiles > 0 {
		currentFiles := len(fc.cache) + len(fc.fallbackCache)
		if currentFiles >= fc.config.MaxFiles {
			return fmt.Errorf("FileCache limit reached: %d files (limit: %d files)",
				currentFiles, fc.config.MaxFiles)
		}
	}

	if fc.config.MaxMemoryMB > 0 && newFileSize > 0 {
		currentMB := fc.calculateTotalMappedMBLocked()
		newFileMB := float64(newFileSize) / (1024 * 1024)
		if currentMB+newFileMB >= float64(fc.config.MaxMemoryMB) {
			return fmt.Errorf("FileCache memory limit reached: %.2f MB + %.2f MB (limit: %d MB)",
				currentMB, newFileMB, fc.config.MaxMemoryMB)
		}
	}

	return nil
}

// loadFile opens and mmaps a file, with fallback to os.ReadFile if mmap fails.
//
// Must be called while holding mu.Lock.
func (fc *fileCacheImpl) loadFile(filePath string) (*MappedFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}

	// Zero-length files can't be mapped.
	if stat.Size() == 0 {
		file.Close()
		return &MappedFile{Path: filePath, MappedAt: time.Now()}, nil
	}

	mmapData, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		fc.logger.Warn("mmap failed, using fallback",
			"file", filePath,
			"size", stat.Size(),
			"error", err)
		file.Close()

		data, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, fmt.Errorf("mmap failed and fallback failed for %q: mmap error: %v, read error: %w",
				filePath, err, readErr)
		}

		fc.fallbackCache[filePath] = data
		fc.recordMmapFailure()
		return wrapFallbackData(filePath, data), nil
	}

	return &MappedFile{
		Path:     filePath,
		Data:     mmapData,
		File:     file,
		Size:     stat.Size(),
		MappedAt: time.Now(),
	}, nil
}

// wrapFallbackData wraps a byte slice as a MappedFile (for fallback cache).
func wrapFallbackData(filePath string, data []byte) *MappedFile {
	return &MappedFile{
		Path:     filePath,
		Data:     mmap.MMap(data),
		Size:     int64(len(data)),
		MappedAt: time.Now(),
	}
}

// release unmaps and closes one entry. Must be called while holding mu.Lock.
func (fc *fileCacheImpl) release(path string, mf *MappedFile) error {
	var errs []error
	if mf.Data != nil && mf.File != nil {
		if err := mf.Data.Unmap(); err != nil {
			fc.logger.Warn("failed to unmap file", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("unmap %q: %w", path, err))
		}
	}
	if mf.File != nil {
		if err := mf.File.Close(); err != nil {
			fc.logger.Warn("failed to close file", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("close %q: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("release %q: %v", path, errs)
	}
	return nil
}

// Size returns number of currently cached files.
func (fc *fileCacheImpl) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	return len(fc.cache) + len(fc.fallbackCache)
}

// Stats returns current cache metrics.
func (fc *fileCacheImpl) Stats() FileCacheStats {
	fc.mu.RLock()
	cachedFiles := len(fc.cache) + len(fc.fallbackCache)
	totalMappedMB := fc.calculateTotalMappedMBLocked()
	fc.mu.RUnlock()

	fc.statsMu.Lock()
	defer fc.statsMu.Unlock()

	stats := fc.stats
	stats.FilesCached = cachedFiles
	stats.TotalMappedMB = totalMappedMB
	return stats
}

// Must be called while holding mu.RLock or mu.Lock.
func (fc *fileCacheImpl) calculateTotalMappedMBLocked() float64 {
	total := int64(0)
	for _, mf := range fc.cache {
		total += mf.Size
	}
	for _, data := range fc.fallbackCache {
		total += int64(len(data))
	}
	return float64(total) / (1024 * 1024)
}

// Close unmaps all files and releases resources.
func (fc *fileCacheImpl) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var errs []error
	for path, mf := range fc.cache {
		if err := fc.release(path, mf); err != nil {
			errs = append(errs, err)
		}
	}

	fc.cache = make(map[string]*MappedFile)
	fc.fallbackCache = make(map[string][]byte)

	fc.statsMu.Lock()
	fc.logger.Debug("FileCache closed",
		"files_loaded", fc.stats.FilesLoaded,
		"cache_hits", fc.stats.CacheHits,
		"cache_misses", fc.stats.CacheMisses,
		"mmap_failures", fc.stats.MmapFailures)
	fc.statsMu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

// Metrics recording methods

func (fc *fileCacheImpl) recordHit() {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	fc.stats.CacheHits++
	fc.statsMu.Unlock()
}

func (fc *fileCacheImpl) recordMiss() {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	fc.stats.CacheMisses++
	fc.statsMu.Unlock()
}

func (fc *fileCacheImpl) recordLoad() {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	fc.stats.FilesLoaded++
	fc.statsMu.Unlock()
}

func (fc *fileCacheImpl) recordMmapFailure() {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	fc.stats.MmapFailures++
	fc.statsMu.Unlock()
}

func (fc *fileCacheImpl) recordEviction() {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	fc.stats.Evictions++
	fc.statsMu.Unlock()
}
