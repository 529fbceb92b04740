package contractkit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/reoring/contractkit/internal/log"
)

// MigratedFromV1 is the provenance description set by the 1.0 -> 2.0 step.
const MigratedFromV1 = "Migrated from V1"

const tracerName = "github.com/reoring/contractkit"

// StepFunc maps a contract of the step's source version onto the untyped
// document of its destination version. The result is re-validated by the
// registry before it is returned to callers.
type StepFunc func(ctx context.Context, c Contract) (map[string]any, error)

// Step is a deterministic transformation between two adjacent versions.
type Step struct {
	From  Version
	To    Version
	Apply StepFunc
}

// Migrator upgrades contracts to the latest version of its registry, one hop
// at a time. It is immutable and safe for concurrent use.
type Migrator struct {
	reg  *Registry
	next map[Version]Step
}

// NewMigrator builds a migrator over reg. Each step must lead from a known
// version to its immediate successor, and each version may have at most one
// step. Missing steps are not an error here: they surface as
// *NoMigrationPathError when a contract needs them.
func NewMigrator(reg *Registry, steps ...Step) (*Migrator, error) {
	m := &Migrator{reg: reg, next: make(map[Version]Step, len(steps))}
	for _, s := range steps {
		if s.Apply == nil {
			return nil, fmt.Errorf("migration step %s -> %s: nil apply func", s.From, s.To)
		}
		i := reg.index(s.From)
		if i < 0 {
			return nil, fmt.Errorf("migration step %s -> %s: %w", s.From, s.To, &UnknownVersionError{Version: s.From, Known: reg.Versions()})
		}
		if i+1 >= len(reg.order) || reg.order[i+1] != s.To {
			return nil, fmt.Errorf("migration step %s -> %s: destination is not the successor of %s", s.From, s.To, s.From)
		}
		if _, dup := m.next[s.From]; dup {
			return nil, fmt.Errorf("migration step %s -> %s: duplicate step for %s", s.From, s.To, s.From)
		}
		m.next[s.From] = s
	}
	return m, nil
}

var defaultMigrator = mustMigrator(NewMigrator(defaultRegistry,
	Step{From: V1, To: V2, Apply: migrateV1ToV2},
))

func mustMigrator(m *Migrator, err error) *Migrator {
	if err != nil {
		panic("contractkit: " + err.Error())
	}
	return m
}

// DefaultMigrator returns the migrator for the default registry.
func DefaultMigrator() *Migrator { return defaultMigrator }

// Registry returns the registry the migrator validates against.
func (m *Migrator) Registry() *Registry { return m.reg }

// Plan returns the steps that lead from version from to the latest version,
// in order. It is empty when from is already the latest.
func (m *Migrator) Plan(from Version) ([]Step, error) {
	if !m.reg.Known(from) {
		return nil, &UnknownVersionError{Version: from, Known: m.reg.Versions()}
	}
	latest := m.reg.Latest()
	var plan []Step
	for v := from; v != latest; {
		s, ok := m.next[v]
		if !ok {
			return nil, &NoMigrationPathError{From: v, Latest: latest}
		}
		plan = append(plan, s)
		v = s.To
	}
	return plan, nil
}

// Migrate brings c forward to the latest version. A contract that is already
// latest is returned as is (the same value, not a copy). Every hop's output
// is validated as its destination version; a step that produces an invalid
// document fails the whole migration.
func (m *Migrator) Migrate(ctx context.Context, c Contract) (Contract, error) {
	if isNil(c) {
		return nil, malformed("nil contract", nil)
	}
	from := c.SchemaVersion()
	latest := m.reg.Latest()
	if from == latest {
		return c, nil
	}
	plan, err := m.Plan(from)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "contractkit.Migrate",
		trace.WithAttributes(
			attribute.String("contract.version.from", string(from)),
			attribute.String("contract.version.to", string(latest)),
		))
	defer span.End()

	cur := c
	for _, s := range plan {
		next, err := m.apply(ctx, s, cur)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "migration failed")
			return nil, err
		}
		span.AddEvent("contract.migrated", trace.WithAttributes(
			attribute.String("from", string(s.From)),
			attribute.String("to", string(s.To)),
		))
		log.Info(log.CatMigrate, "Migrated contract to version "+string(s.To), "from", s.From, "to", s.To)
		cur = next
	}
	return cur, nil
}

func (m *Migrator) apply(ctx context.Context, s Step, c Contract) (Contract, error) {
	doc, err := s.Apply(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("migrate %s -> %s: %w", s.From, s.To, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("migrate %s -> %s: step produced no document", s.From, s.To)
	}
	doc["version"] = string(s.To)
	out, err := m.reg.Parse(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("migrate %s -> %s: produced invalid document: %w", s.From, s.To, err)
	}
	return out, nil
}

// migrateV1ToV2 copies every field and records provenance in description.
func migrateV1ToV2(_ context.Context, c Contract) (map[string]any, error) {
	if _, ok := c.(*ContractV1); !ok {
		return nil, fmt.Errorf("expected a %s contract, got %s", V1, c.SchemaVersion())
	}
	doc := ToMap(c)
	doc["version"] = string(V2)
	doc["description"] = MigratedFromV1
	return doc, nil
}

// Migrate upgrades c with the default migrator.
func Migrate(ctx context.Context, c Contract) (Contract, error) {
	return defaultMigrator.Migrate(ctx, c)
}
