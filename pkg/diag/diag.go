// Package diag carries the non-fatal findings produced while loading tokens
// and resolving styles. Data-quality problems never abort a pass; they end up
// here and in the log instead.
package diag

import (
	"context"
	"fmt"
	"log/slog"
)

// Kind identifies what went wrong.
type Kind string

const (
	KindInvalidAxisContext   Kind = "InvalidAxisContext"
	KindEmptyModeCollection  Kind = "EmptyModeCollection"
	KindAmbiguousDefaultMode Kind = "AmbiguousDefaultMode"
	KindUnresolvedTokenAlias Kind = "UnresolvedTokenAlias"
	KindUnsupportedProperty  Kind = "UnsupportedProperty"
	KindMissingDefaultMode   Kind = "MissingDefaultMode"
	KindUnknownCollection    Kind = "UnknownCollection"
)

// Severity mirrors the levels used for log output.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is one finding. NodeID is empty for findings about tokens or
// collections; Subject names the token, collection, mode or property.
type Diagnostic struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	NodeID   string   `json:"node_id,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Message  string   `json:"message"`
}

// New builds a Diagnostic with a formatted message.
func New(kind Kind, sev Severity, subject, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: sev,
		Subject:  subject,
		Message:  fmt.Sprintf(format, args...),
	}
}

// WithNode returns a copy of d attributed to a design node.
func (d Diagnostic) WithNode(id string) Diagnostic {
	d.NodeID = id
	return d
}

func (d Diagnostic) String() string {
	if d.NodeID != "" {
		return fmt.Sprintf("%s [%s] node %s: %s", d.Severity, d.Kind, d.NodeID, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s", d.Severity, d.Kind, d.Message)
}

// Log writes d to logger at the level matching its severity.
func Log(logger *slog.Logger, d Diagnostic) {
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelWarn
	switch d.Severity {
	case SeverityError:
		level = slog.LevelError
	case SeverityInfo:
		level = slog.LevelInfo
	}
	attrs := []any{"kind", string(d.Kind)}
	if d.NodeID != "" {
		attrs = append(attrs, "node", d.NodeID)
	}
	if d.Subject != "" {
		attrs = append(attrs, "subject", d.Subject)
	}
	logger.Log(context.Background(), level, d.Message, attrs...)
}

// Count returns how many diagnostics have the given kind.
func Count(ds []Diagnostic, kind Kind) int {
	n := 0
	for _, d := range ds {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
