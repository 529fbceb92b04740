package contractkit

import (
	"context"
	"path/filepath"
	"strings"
)

// UnknownPolicy controls how unknown keys are handled.
type UnknownPolicy int

const (
	UnknownStrict UnknownPolicy = iota // Reject unknown keys with an error.
	UnknownStrip                       // Drop unknown keys.
)

func (p UnknownPolicy) String() string {
	if p == UnknownStrip {
		return "strip"
	}
	return "strict"
}

// Severity expresses the severity level for issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// ParseSeverity maps "ignore", "warn" and "error" to a Severity. Unknown
// names report ok=false.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore", "":
		return Ignore, true
	case "warn":
		return Warn, true
	case "error":
		return Error, true
	}
	return Ignore, false
}

// Strictness configures enforcement for duplicate keys in the raw document.
type Strictness struct {
	OnDuplicateKey Severity // Ignore, Warn or Error (duplicate object keys).
}

// ParseOpt bundles parsing options.
type ParseOpt struct {
	Strictness Strictness
	MaxDepth   int   // 0 disables the nesting limit.
	MaxBytes   int64 // 0 disables the size cap.
	FailFast   bool  // Stop at the first issue instead of collecting all.
}

// Format is a document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// ParseFormat maps "json"/"yaml"/"yml" to a Format.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, true
	case "yaml", "yml":
		return FormatYAML, true
	}
	return FormatJSON, false
}

// FormatFromPath picks a Format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	f, _ := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return f
}

// ---- Parse-time context options ----

type contextKey int

const (
	_ctxKeyFailFast contextKey = iota
)

// WithFailFast returns a child context that marks fail-fast parsing behavior.
// ParseFrom sets it from ParseOpt; Parse consumes it.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current parse should stop on the first issue.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, _ := v.(bool)
	return b
}
