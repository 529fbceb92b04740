package contractkit

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/reoring/contractkit/i18n"
)

// collector accumulates issues for one parse. In fail-fast mode it keeps
// only the first issue.
type collector struct {
	failFast bool
	issues   Issues
}

func newCollector(ctx context.Context) *collector {
	return &collector{failFast: IsFailFast(ctx)}
}

func (c *collector) add(it Issue) {
	if c.failFast && len(c.issues) > 0 {
		return
	}
	c.issues = AppendIssues(c.issues, it)
}

func (c *collector) failed() bool { return len(c.issues) > 0 }

// stop reports whether further checks can be skipped.
func (c *collector) stop() bool { return c.failFast && c.failed() }

func (c *collector) err() error {
	if len(c.issues) == 0 {
		return nil
	}
	c.issues.Sort()
	return c.issues
}

// object walks one mapping of the input, recording which keys were consumed
// so unknown ones can be reported or dropped afterwards.
type object struct {
	path PathRef
	src  map[string]any
	seen map[string]struct{}
	c    *collector
}

func newObject(path PathRef, src map[string]any, c *collector) *object {
	return &object{path: path, src: src, seen: make(map[string]struct{}, len(src)), c: c}
}

// lookup returns the raw value for key. A JSON null counts as present.
func (o *object) lookup(key string) (any, bool) {
	o.seen[key] = struct{}{}
	v, ok := o.src[key]
	return v, ok
}

func (o *object) required(key string) {
	o.c.add(Issue{
		Path:    o.path.Field(key).Pointer(),
		Code:    CodeRequired,
		Message: i18n.T(CodeRequired, nil),
		Hint:    "required property missing",
	})
}

func (o *object) invalidType(key, expected string, got any) {
	o.c.add(Issue{
		Path:    o.path.Field(key).Pointer(),
		Code:    CodeInvalidType,
		Message: i18n.T(CodeInvalidType, map[string]string{"expected": expected}),
		Hint:    "expected " + expected + ", got " + typeName(got),
		Params:  map[string]any{"expected": expected, "got": typeName(got)},
	})
}

// child descends into a nested mapping. A missing or mistyped value records
// an issue and returns nil.
func (o *object) child(key string) *object {
	v, ok := o.lookup(key)
	if !ok {
		o.required(key)
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		o.invalidType(key, "object", v)
		return nil
	}
	return newObject(o.path.Field(key), m, o.c)
}

// str reads a required string that must not be empty.
func (o *object) str(key string) string {
	v, ok := o.lookup(key)
	if !ok {
		o.required(key)
		return ""
	}
	s, ok := v.(string)
	if !ok {
		o.invalidType(key, "string", v)
		return ""
	}
	if s == "" {
		o.c.add(Issue{
			Path:    o.path.Field(key).Pointer(),
			Code:    CodeTooShort,
			Message: i18n.T(CodeTooShort, nil),
			Hint:    "must not be empty",
			Params:  map[string]any{"min": 1},
		})
	}
	return s
}

// optStr reads an optional string; absent and null both yield nil. When
// nonEmpty is set an empty string is rejected.
func (o *object) optStr(key string, nonEmpty bool) *string {
	v, ok := o.lookup(key)
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		o.invalidType(key, "string", v)
		return nil
	}
	if nonEmpty && s == "" {
		o.c.add(Issue{
			Path:    o.path.Field(key).Pointer(),
			Code:    CodeTooShort,
			Message: i18n.T(CodeTooShort, nil),
			Hint:    "must not be empty when present",
			Params:  map[string]any{"min": 1},
		})
		return nil
	}
	return &s
}

// boolean reads a boolean. When def is nil the key is required.
func (o *object) boolean(key string, def *bool) bool {
	v, ok := o.lookup(key)
	if !ok {
		if def != nil {
			return *def
		}
		o.required(key)
		return false
	}
	b, ok := v.(bool)
	if !ok {
		o.invalidType(key, "boolean", v)
		return false
	}
	return b
}

// enum reads a string constrained to allowed, falling back to def when the
// key is absent.
func (o *object) enum(key string, allowed []string, def string) string {
	v, ok := o.lookup(key)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		o.invalidType(key, "string", v)
		return def
	}
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	o.c.add(Issue{
		Path:    o.path.Field(key).Pointer(),
		Code:    CodeInvalidEnum,
		Message: i18n.T(CodeInvalidEnum, map[string]string{"allowed": strings.Join(allowed, ", ")}),
		Hint:    fmt.Sprintf("got %q, allowed: %s", s, strings.Join(allowed, ", ")),
		Params:  map[string]any{"allowed": allowed, "got": s},
	})
	return def
}

// unknown applies the policy to every key the decoder did not consume.
func (o *object) unknown(policy UnknownPolicy) {
	if policy == UnknownStrip {
		return
	}
	uks := make([]string, 0, len(o.src))
	for k := range o.src {
		if _, known := o.seen[k]; !known {
			uks = append(uks, k)
		}
	}
	sort.Strings(uks)
	for _, k := range uks {
		o.c.add(Issue{
			Path:    o.path.Field(k).Pointer(),
			Code:    CodeUnknownKey,
			Message: i18n.T(CodeUnknownKey, nil),
			Hint:    "extra fields are not permitted",
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case int, int64, float64, fmt.Stringer:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func enumStrings[T ~string](vs []T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

// ---- value objects ----
//
// Each variant composes these readers explicitly. A rule change for one
// version gets its own reader rather than a flag here.

var defaultFalse = false

func readSource(o *object) Source {
	s := Source{
		TableName:         o.str("table_name"),
		Database:          o.str("database"),
		Incremental:       o.boolean("incremental", &defaultFalse),
		IncrementalColumn: o.optStr("incremental_column", true),
	}
	o.unknown(UnknownStrip)
	return s
}

// checkIncremental enforces that incremental_column is present if and only
// if incremental is true. It runs after the field checks for the source
// object and is skipped when either field already failed.
func checkIncremental(o *object, s Source, fieldIssues int) {
	if len(o.c.issues) > fieldIssues {
		for _, it := range o.c.issues[fieldIssues:] {
			p := it.Path
			if p == o.path.Field("incremental").Pointer() || p == o.path.Field("incremental_column").Pointer() {
				return
			}
		}
	}
	col := o.path.Field("incremental_column")
	switch {
	case s.Incremental && s.IncrementalColumn == nil:
		o.c.add(Issue{
			Path:    col.Pointer(),
			Code:    CodeBusinessRule,
			Message: i18n.T(CodeBusinessRule, map[string]string{"rule": RuleIncrementalColumnRequired}),
			Hint:    "incremental_column must be provided if incremental is true",
			Rule:    RuleIncrementalColumnRequired,
		})
	case !s.Incremental && s.IncrementalColumn != nil:
		o.c.add(Issue{
			Path:    col.Pointer(),
			Code:    CodeBusinessRule,
			Message: i18n.T(CodeBusinessRule, map[string]string{"rule": RuleIncrementalColumnForbidden}),
			Hint:    "incremental_column must be absent if incremental is false",
			Rule:    RuleIncrementalColumnForbidden,
		})
	}
}

func readTarget(o *object) Target {
	t := Target{
		TargetTableName: o.str("target_table_name"),
		TargetDatabase:  o.str("target_database"),
	}
	o.unknown(UnknownStrip)
	return t
}

func readConnection(o *object) Connection {
	c := Connection{
		ConnectionString: o.str("connection_string"),
		ConnectionType:   ConnectionType(o.enum("connection_type", enumStrings(ConnectionTypes()), string(DefaultConnectionType))),
	}
	o.unknown(UnknownStrip)
	return c
}

func readDataPatterns(o *object) DataPatterns {
	d := DataPatterns{
		Pattern:           WritePattern(o.enum("pattern", enumStrings(WritePatterns()), string(DefaultWritePattern))),
		SchemaEnforcement: o.boolean("schemaEnforcement", nil),
	}
	o.unknown(UnknownStrip)
	return d
}

// readBody reads the fields shared by every known version, in document
// order. Cross-field checks run once all of them are known.
func readBody(root *object) (src Source, tgt Target, conn Connection, dp DataPatterns, trigger string) {
	mark := len(root.c.issues)
	var so *object
	if so = root.child("source"); so != nil {
		src = readSource(so)
	}
	if o := root.child("target"); o != nil {
		tgt = readTarget(o)
	}
	if o := root.child("connection"); o != nil {
		conn = readConnection(o)
	}
	if o := root.child("data_patterns"); o != nil {
		dp = readDataPatterns(o)
	}
	trigger = root.str("trigger")
	if so != nil && !root.c.stop() {
		checkIncremental(so, src, mark)
	}
	return src, tgt, conn, dp, trigger
}
