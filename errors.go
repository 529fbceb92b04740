package contractkit

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType  = "invalid_type"
	CodeRequired     = "required"
	CodeUnknownKey   = "unknown_key"
	CodeDuplicateKey = "duplicate_key"
	CodeTooShort     = "too_short"
	CodeInvalidEnum  = "invalid_enum"
	CodeParseError   = "parse_error"
	CodeTruncated    = "truncated"
	CodeBusinessRule = "business_rule"
)

// Cross-field rule names recorded in Issue.Rule.
const (
	RuleIncrementalColumnRequired  = "incremental_column_required"
	RuleIncrementalColumnForbidden = "incremental_column_forbidden"
)

// Sentinel errors for errors.Is checks. Each concrete failure kind matches
// exactly one of them.
var (
	ErrSchema          = errors.New("contractkit: schema validation failed")
	ErrMalformedInput  = errors.New("contractkit: malformed input")
	ErrUnknownVersion  = errors.New("contractkit: unknown version")
	ErrNoMigrationPath = errors.New("contractkit: no migration path")
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /source/incremental_column).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, allowed values, etc.
	// Params carries structured parameters (e.g., {"allowed": [...], "got": "x"})
	// for i18n and tooling.
	Params map[string]any
	// Rule optionally records the cross-field rule that produced this issue.
	Rule string
}

// Issues is the schema error: every failing field of a document, reported
// together. It implements error and matches ErrSchema.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_enum at /connection/connection_type
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Is reports whether target is ErrSchema.
func (iss Issues) Is(target error) bool { return target == ErrSchema }

// Sort orders issues by path, then code, so reports are stable across runs.
func (iss Issues) Sort() {
	sort.SliceStable(iss, func(i, j int) bool {
		if iss[i].Path != iss[j].Path {
			return iss[i].Path < iss[j].Path
		}
		return iss[i].Code < iss[j].Code
	})
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// MalformedInputError reports input that could not be interpreted as a
// structured mapping at all.
type MalformedInputError struct {
	Reason string
	Cause  error
}

func (e *MalformedInputError) Error() string {
	msg := "malformed input"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error        { return e.Cause }
func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

// UnknownVersionError reports a version tag that no registered variant carries.
type UnknownVersionError struct {
	Version Version
	Known   []Version
}

func (e *UnknownVersionError) Error() string {
	known := make([]string, len(e.Known))
	for i, v := range e.Known {
		known[i] = string(v)
	}
	return fmt.Sprintf("unknown contract version %q (known: %s)", e.Version, strings.Join(known, ", "))
}

func (e *UnknownVersionError) Is(target error) bool { return target == ErrUnknownVersion }

// NoMigrationPathError reports a known, non-latest version without a
// successor step. It indicates a registry/migrator mismatch, not bad data.
type NoMigrationPathError struct {
	From   Version
	Latest Version
}

func (e *NoMigrationPathError) Error() string {
	return fmt.Sprintf("no migration step from version %q towards %q", e.From, e.Latest)
}

func (e *NoMigrationPathError) Is(target error) bool { return target == ErrNoMigrationPath }

func malformed(reason string, cause error) error {
	return &MalformedInputError{Reason: reason, Cause: cause}
}
