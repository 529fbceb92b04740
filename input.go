package contractkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	eng "github.com/reoring/contractkit/internal/engine"
	"github.com/reoring/contractkit/internal/log"
)

// Input is a raw document awaiting decoding into the mapping Parse accepts.
type Input interface {
	// Decode returns the document's untyped value. Decode failures are
	// *MalformedInputError; duplicate keys under Strictness Error are Issues.
	Decode(opt ParseOpt) (any, error)
	Format() Format
}

type readerInput struct {
	r      io.Reader
	format Format
}

// JSONReader wraps an io.Reader as a JSON Input.
func JSONReader(r io.Reader) Input { return readerInput{r: r, format: FormatJSON} }

// JSONBytes wraps a byte slice as a JSON Input.
func JSONBytes(b []byte) Input { return JSONReader(bytes.NewReader(b)) }

// YAMLReader wraps an io.Reader as a YAML Input.
func YAMLReader(r io.Reader) Input { return readerInput{r: r, format: FormatYAML} }

// YAMLBytes wraps a byte slice as a YAML Input.
func YAMLBytes(b []byte) Input { return YAMLReader(bytes.NewReader(b)) }

// Bytes wraps b as an Input of the given format.
func Bytes(b []byte, f Format) Input { return readerInput{r: bytes.NewReader(b), format: f} }

func (s readerInput) Format() Format { return s.format }

func (s readerInput) Decode(opt ParseOpt) (any, error) {
	r := s.r
	if opt.MaxBytes > 0 {
		data, err := io.ReadAll(io.LimitReader(r, opt.MaxBytes+1))
		if err != nil {
			return nil, malformed("read", err)
		}
		if int64(len(data)) > opt.MaxBytes {
			return nil, malformed(fmt.Sprintf("document exceeds %d bytes", opt.MaxBytes), nil)
		}
		r = bytes.NewReader(data)
	}

	var warnings Issues
	eo := eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		FailFast:    opt.FailFast,
		IssueSink: func(si eng.SimpleIssue) {
			warnings = AppendIssues(warnings, Issue{Path: si.Path, Code: si.Code, Message: si.Message})
		},
	}

	var v any
	var err error
	switch s.format {
	case FormatYAML:
		v, err = eng.DecodeYAML(r, eo)
	default:
		v, err = eng.DecodeDocument(eng.WrapWithEnforcement(eng.NewJSONReader(r), eo))
	}
	if err != nil {
		return nil, fromEngineError(s.format, err)
	}
	for _, w := range warnings {
		log.Warn(log.CatParse, "duplicate key", "path", w.Path, "message", w.Message)
	}
	return v, nil
}

type valueInput struct{ v any }

// Value wraps an already-decoded value (for example a map built in code).
func Value(v any) Input { return valueInput{v: v} }

func (s valueInput) Decode(ParseOpt) (any, error) { return s.v, nil }
func (s valueInput) Format() Format               { return FormatJSON }

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Error:
		return eng.DupError
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupIgnore
	}
}

// fromEngineError maps decode failures onto the error taxonomy: duplicate
// keys are schema issues with a path, everything else is malformed input.
func fromEngineError(f Format, err error) error {
	var ie eng.IssueError
	if errors.As(err, &ie) && ie.Code == CodeDuplicateKey {
		return Issues{{Path: ie.Path, Code: ie.Code, Message: ie.Message, Hint: "keys must be unique within an object"}}
	}
	return malformed("invalid "+f.String()+" data", err)
}

// ParseFrom decodes src and validates the result against the registry.
// The last opts entry wins.
func (r *Registry) ParseFrom(ctx context.Context, src Input, opts ...ParseOpt) (Contract, error) {
	var opt ParseOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.FailFast {
		ctx = WithFailFast(ctx, true)
	}
	v, err := src.Decode(opt)
	if err != nil {
		return nil, err
	}
	return r.Parse(ctx, v)
}

// ParseFrom decodes src and validates it against the default registry.
func ParseFrom(ctx context.Context, src Input, opts ...ParseOpt) (Contract, error) {
	return defaultRegistry.ParseFrom(ctx, src, opts...)
}

// ParseJSON validates a JSON document against the default registry.
func ParseJSON(ctx context.Context, data []byte, opts ...ParseOpt) (Contract, error) {
	return defaultRegistry.ParseFrom(ctx, JSONBytes(data), opts...)
}

// ParseYAML validates a YAML document against the default registry.
func ParseYAML(ctx context.Context, data []byte, opts ...ParseOpt) (Contract, error) {
	return defaultRegistry.ParseFrom(ctx, YAMLBytes(data), opts...)
}
