package contractkit_test

import (
	"context"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	ck "github.com/reoring/contractkit"
)

func TestEncode_JSONFieldNames(t *testing.T) {
	c, err := ck.ParseJSON(context.Background(), []byte(v1JSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, err := ck.Encode(c, ck.FormatJSON)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["version"] != "1.0" || m["trigger"] != "daily" {
		t.Fatalf("unexpected top level: %v", m)
	}
	if _, ok := m["description"]; ok {
		t.Fatalf("1.0 output must not carry description")
	}
	dp := m["data_patterns"].(map[string]any)
	if dp["schemaEnforcement"] != true || dp["pattern"] != "merge" {
		t.Fatalf("unexpected data_patterns: %v", dp)
	}
	if !strings.HasSuffix(string(b), "}\n") {
		t.Fatalf("expected trailing newline")
	}
}

func TestEncode_OmitsUnsetOptionals(t *testing.T) {
	c, err := ck.Parse(context.Background(), validDoc("2.0"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, f := range []ck.Format{ck.FormatJSON, ck.FormatYAML} {
		b, err := ck.Encode(c, f)
		if err != nil {
			t.Fatalf("%s: encode: %v", f, err)
		}
		if strings.Contains(string(b), "description") || strings.Contains(string(b), "incremental_column") {
			t.Fatalf("%s: unset optionals should be omitted:\n%s", f, b)
		}
	}
	if _, ok := ck.ToMap(c)["description"]; ok {
		t.Fatalf("ToMap should omit unset description")
	}
}

func TestEncode_YAMLRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := ck.ParseYAML(ctx, []byte(v2YAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, err := ck.Encode(c, ck.FormatYAML)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(b), `version: "2.0"`) {
		t.Fatalf("version must stay a string:\n%s", b)
	}
	back, err := ck.ParseYAML(ctx, b)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, b)
	}
	if !ck.Equal(c, back) {
		t.Fatalf("round trip changed the contract:\n%s", b)
	}
}

func TestEncode_Nil(t *testing.T) {
	if _, err := ck.Encode(nil, ck.FormatJSON); err == nil {
		t.Fatalf("expected error for nil contract")
	}
	if ck.ToMap(nil) != nil {
		t.Fatalf("ToMap(nil) should be nil")
	}
}

func TestFormatHelpers(t *testing.T) {
	if ck.FormatFromPath("a/b/contract.yml") != ck.FormatYAML || ck.FormatFromPath("c.json") != ck.FormatJSON || ck.FormatFromPath("noext") != ck.FormatJSON {
		t.Fatalf("unexpected FormatFromPath result")
	}
	if f, ok := ck.ParseFormat("YAML"); !ok || f != ck.FormatYAML {
		t.Fatalf("ParseFormat(YAML) failed")
	}
	if _, ok := ck.ParseFormat("toml"); ok {
		t.Fatalf("toml should not be accepted")
	}
}

func TestEqual(t *testing.T) {
	ctx := context.Background()
	a, _ := ck.Parse(ctx, validDoc("1.0"))
	b, _ := ck.Parse(ctx, validDoc("1.0"))
	c, _ := ck.Parse(ctx, validDoc("2.0"))
	if !ck.Equal(a, b) {
		t.Fatalf("identical documents should be equal")
	}
	if ck.Equal(a, c) {
		t.Fatalf("different variants must not be equal")
	}
	if ck.Equal(nil, nil) {
		t.Fatalf("nil contracts are not comparable")
	}
}
