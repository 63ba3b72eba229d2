// Package mcplog writes one JSON line per MCP tool call.
package mcplog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// Entry is the schema of one JSONL line.
type Entry struct {
	Ts            string         `json:"ts"`
	Session       string         `json:"session,omitempty"`
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"params"`
	DurationMs    int64          `json:"duration_ms"`
	ResponseBytes int            `json:"response_bytes"`
	IsError       bool           `json:"is_error"`
	Error         *string        `json:"error"`
}

// Logger appends entries to a writer. It is safe for concurrent use, and a
// nil *Logger discards everything.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	c   io.Closer
	enc *json.Encoder
}

// Open appends to the file at path, creating parent directories. An empty
// path returns a nil Logger.
func Open(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mcplog: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	l := New(f)
	l.c = f
	return l, nil
}

// New logs to w. Close does not close w.
func New(w io.Writer) *Logger {
	return &Logger{w: w, enc: json.NewEncoder(w)}
}

// Write appends one entry. Callers ignore the error so logging never
// changes a tool result.
func (l *Logger) Write(e Entry) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(e)
}

// Close closes the file opened by Open.
func (l *Logger) Close() error {
	if l == nil || l.c == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Close()
}

// maxParamString is the longest string parameter logged verbatim.
const maxParamString = 64

// SanitizeParams copies args for logging. Long strings (design documents)
// are replaced by a "<key>_len" entry and lists by "<key>_count".
func SanitizeParams(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		switch t := v.(type) {
		case string:
			if len(t) > maxParamString {
				out[k+"_len"] = len(t)
				continue
			}
		case []any:
			if len(t) > 8 {
				out[k+"_count"] = len(t)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// ResponseBytes is the serialized size of a result's content, 0 for nil.
func ResponseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}

// Now is replaced in tests.
var Now = time.Now
