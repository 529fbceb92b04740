package contractkit_test

import (
	"context"
	"errors"
	"testing"

	ck "github.com/reoring/contractkit"
)

func TestMigrate_V1ToV2(t *testing.T) {
	ctx := context.Background()
	c, err := ck.ParseJSON(ctx, []byte(v1JSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := ck.Migrate(ctx, c)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	v2, ok := out.(*ck.ContractV2)
	if !ok {
		t.Fatalf("expected *ContractV2, got %T", out)
	}
	if v2.Version != ck.V2 {
		t.Fatalf("unexpected version %q", v2.Version)
	}
	if v2.Description == nil || *v2.Description != ck.MigratedFromV1 {
		t.Fatalf("unexpected description: %v", v2.Description)
	}
	v1 := c.(*ck.ContractV1)
	if v2.Target != v1.Target || v2.Connection != v1.Connection || v2.DataPatterns != v1.DataPatterns || v2.Trigger != v1.Trigger {
		t.Fatalf("fields not carried over: %+v", v2)
	}
	if v2.Source.TableName != "t" || !v2.Source.Incremental || v2.Source.IncrementalColumn == nil || *v2.Source.IncrementalColumn != "updated_at" {
		t.Fatalf("source not carried over: %+v", v2.Source)
	}
	// the input is left untouched
	if v1.Version != ck.V1 {
		t.Fatalf("input contract was mutated")
	}
}

func TestMigrate_LatestIsIdentity(t *testing.T) {
	ctx := context.Background()
	doc := validDoc("2.0")
	doc["description"] = "keep me"
	c, err := ck.Parse(ctx, doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := ck.Migrate(ctx, c)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if out != c {
		t.Fatalf("latest contract should be returned unchanged")
	}
	if *out.(*ck.ContractV2).Description != "keep me" {
		t.Fatalf("description overwritten")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	c, err := ck.Parse(ctx, validDoc("1.0"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	once, err := ck.Migrate(ctx, c)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	twice, err := ck.Migrate(ctx, once)
	if err != nil {
		t.Fatalf("migrate again: %v", err)
	}
	if !ck.Equal(once, twice) {
		t.Fatalf("migration is not idempotent: %+v vs %+v", once, twice)
	}
}

func TestMigrate_NilContract(t *testing.T) {
	for _, c := range []ck.Contract{nil, (*ck.ContractV1)(nil), (*ck.ContractV2)(nil)} {
		if _, err := ck.Migrate(context.Background(), c); !errors.Is(err, ck.ErrMalformedInput) {
			t.Fatalf("Migrate(%#v): expected ErrMalformedInput, got %v", c, err)
		}
		if ck.ToMap(c) != nil {
			t.Fatalf("ToMap(%#v) should be nil", c)
		}
		if _, err := ck.Encode(c, ck.FormatJSON); err == nil {
			t.Fatalf("Encode(%#v) should fail", c)
		}
	}
}

func TestMigrator_Plan(t *testing.T) {
	m := ck.DefaultMigrator()
	plan, err := m.Plan(ck.V1)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan) != 1 || plan[0].From != ck.V1 || plan[0].To != ck.V2 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	plan, err = m.Plan(ck.V2)
	if err != nil || len(plan) != 0 {
		t.Fatalf("latest should have an empty plan: %v %v", plan, err)
	}
	if _, err := m.Plan("0.1"); !errors.Is(err, ck.ErrUnknownVersion) {
		t.Fatalf("expected ErrUnknownVersion, got %v", err)
	}
	if m.Registry() != ck.DefaultRegistry() {
		t.Fatalf("default migrator should use the default registry")
	}
}

func TestNewMigrator_RejectsBadSteps(t *testing.T) {
	reg := ck.DefaultRegistry()
	noop := func(context.Context, ck.Contract) (map[string]any, error) { return nil, nil }
	cases := map[string][]ck.Step{
		"nil apply":       {{From: ck.V1, To: ck.V2}},
		"unknown from":    {{From: "0.5", To: ck.V1, Apply: noop}},
		"not a successor": {{From: ck.V2, To: ck.V1, Apply: noop}},
		"duplicate":       {{From: ck.V1, To: ck.V2, Apply: noop}, {From: ck.V1, To: ck.V2, Apply: noop}},
	}
	for name, steps := range cases {
		if _, err := ck.NewMigrator(reg, steps...); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestMigrator_MissingStep(t *testing.T) {
	m, err := ck.NewMigrator(ck.DefaultRegistry())
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	c, err := ck.Parse(context.Background(), validDoc("1.0"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = m.Migrate(context.Background(), c)
	if !errors.Is(err, ck.ErrNoMigrationPath) {
		t.Fatalf("expected ErrNoMigrationPath, got %v", err)
	}
	var np *ck.NoMigrationPathError
	if !errors.As(err, &np) || np.From != ck.V1 || np.Latest != ck.V2 {
		t.Fatalf("unexpected error detail: %#v", err)
	}
}

func TestMigrator_StepOutputIsValidated(t *testing.T) {
	bad := func(_ context.Context, c ck.Contract) (map[string]any, error) {
		doc := ck.ToMap(c)
		delete(doc, "trigger")
		return doc, nil
	}
	m, err := ck.NewMigrator(ck.DefaultRegistry(), ck.Step{From: ck.V1, To: ck.V2, Apply: bad})
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	c, err := ck.Parse(context.Background(), validDoc("1.0"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = m.Migrate(context.Background(), c)
	if !errors.Is(err, ck.ErrSchema) {
		t.Fatalf("expected schema error from invalid step output, got %v", err)
	}

	failing := func(context.Context, ck.Contract) (map[string]any, error) { return nil, errors.New("boom") }
	m, err = ck.NewMigrator(ck.DefaultRegistry(), ck.Step{From: ck.V1, To: ck.V2, Apply: failing})
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	if _, err := m.Migrate(context.Background(), c); err == nil || err.Error() != "migrate 1.0 -> 2.0: boom" {
		t.Fatalf("unexpected error: %v", err)
	}
}
