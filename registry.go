package contractkit

import (
	"context"
	"fmt"
	"slices"

	"github.com/reoring/contractkit/i18n"
	"github.com/reoring/contractkit/internal/log"
	js "github.com/reoring/contractkit/jsonschema"
)

// variant bundles everything the registry knows about one schema version.
type variant struct {
	version Version
	unknown UnknownPolicy
	// decode reads the root mapping; failures are recorded on the object's
	// collector and the returned contract is discarded when any exist.
	decode func(ctx context.Context, root *object) Contract
	schema func() *js.Schema
}

// Registry maps version tags to schema variants. Versions are ordered oldest
// first; the last one is the latest. A Registry is immutable after
// construction and safe for concurrent use.
type Registry struct {
	order    []Version
	variants map[Version]variant
}

func newRegistry(vs ...variant) *Registry {
	r := &Registry{variants: make(map[Version]variant, len(vs))}
	for _, v := range vs {
		if _, dup := r.variants[v.version]; dup {
			panic(fmt.Sprintf("contractkit: duplicate schema variant %q", v.version))
		}
		r.order = append(r.order, v.version)
		r.variants[v.version] = v
	}
	return r
}

var defaultRegistry = newRegistry(variantV1(), variantV2())

// DefaultRegistry returns the process-wide registry of known versions.
func DefaultRegistry() *Registry { return defaultRegistry }

// Versions returns the known versions, oldest first.
func (r *Registry) Versions() []Version { return slices.Clone(r.order) }

// Latest returns the newest known version.
func (r *Registry) Latest() Version { return r.order[len(r.order)-1] }

// Known reports whether v names a registered variant.
func (r *Registry) Known(v Version) bool {
	_, ok := r.variants[v]
	return ok
}

// UnknownPolicy returns the top-level unknown-key policy of version v.
func (r *Registry) UnknownPolicy(v Version) (UnknownPolicy, error) {
	vr, ok := r.variants[v]
	if !ok {
		return UnknownStrict, &UnknownVersionError{Version: v, Known: r.Versions()}
	}
	return vr.unknown, nil
}

func (r *Registry) index(v Version) int { return slices.Index(r.order, v) }

// Parse validates an untyped mapping (as produced by decoding a JSON or YAML
// document) and returns the contract variant selected by its "version"
// field. A missing version selects the latest variant.
//
// Errors: *MalformedInputError when v is not a mapping, Issues for field and
// cross-field failures (all of them, unless fail-fast is set on ctx), and
// *UnknownVersionError for an unregistered version tag.
func (r *Registry) Parse(ctx context.Context, v any) (Contract, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, malformed(fmt.Sprintf("expected an object, got %s", typeName(v)), nil)
	}

	ver := r.Latest()
	if raw, present := m["version"]; present {
		s, ok := raw.(string)
		if !ok {
			return nil, Issues{Root().Field("version").Issue(CodeInvalidType,
				i18n.T(CodeInvalidType, map[string]string{"expected": "string"}),
				"expected", "string", "got", typeName(raw))}
		}
		ver = Version(s)
	}

	vr, ok := r.variants[ver]
	if !ok {
		return nil, &UnknownVersionError{Version: ver, Known: r.Versions()}
	}

	c := newCollector(ctx)
	out := vr.decode(ctx, newObject(Root(), m, c))
	if err := c.err(); err != nil {
		log.Debug(log.CatParse, "contract rejected", "version", ver, "issues", len(c.issues))
		return nil, err
	}
	return out, nil
}

// JSONSchema exports version v as a JSON Schema document. Every version but
// the latest requires an explicit "version" field.
func (r *Registry) JSONSchema(v Version) (*js.Schema, error) {
	vr, ok := r.variants[v]
	if !ok {
		return nil, &UnknownVersionError{Version: v, Known: r.Versions()}
	}
	s := vr.schema()
	if v != r.Latest() {
		s.Required = append([]string{"version"}, s.Required...)
	}
	return s, nil
}

// UnionSchema exports every version as one JSON Schema whose oneOf branches
// are the per-version schemas, oldest first.
func (r *Registry) UnionSchema() *js.Schema {
	u := &js.Schema{SchemaURI: js.Draft, Title: "SQL contract (any version)"}
	for _, v := range r.order {
		s, _ := r.JSONSchema(v)
		s.SchemaURI = ""
		u.OneOf = append(u.OneOf, s)
	}
	return u
}

// Parse validates v against the default registry.
func Parse(ctx context.Context, v any) (Contract, error) {
	return defaultRegistry.Parse(ctx, v)
}
