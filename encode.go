package contractkit

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ToMap renders c as the untyped mapping Parse accepts. Optional fields that
// are unset are omitted. A nil contract yields nil.
func ToMap(c Contract) map[string]any {
	if isNil(c) {
		return nil
	}
	switch x := c.(type) {
	case *ContractV1:
		return bodyMap(x.Version, x.Source, x.Target, x.Connection, x.DataPatterns, x.Trigger)
	case *ContractV2:
		m := bodyMap(x.Version, x.Source, x.Target, x.Connection, x.DataPatterns, x.Trigger)
		if x.Description != nil {
			m["description"] = *x.Description
		}
		return m
	}
	return nil
}

func bodyMap(v Version, s Source, t Target, c Connection, d DataPatterns, trigger string) map[string]any {
	src := map[string]any{
		"table_name":  s.TableName,
		"database":    s.Database,
		"incremental": s.Incremental,
	}
	if s.IncrementalColumn != nil {
		src["incremental_column"] = *s.IncrementalColumn
	}
	return map[string]any{
		"version": string(v),
		"source":  src,
		"target": map[string]any{
			"target_table_name": t.TargetTableName,
			"target_database":   t.TargetDatabase,
		},
		"connection": map[string]any{
			"connection_string": c.ConnectionString,
			"connection_type":   string(c.ConnectionType),
		},
		"data_patterns": map[string]any{
			"pattern":           string(d.Pattern),
			"schemaEnforcement": d.SchemaEnforcement,
		},
		"trigger": trigger,
	}
}

// Encode serializes c in the given format. JSON output is indented with two
// spaces; field order follows the struct declaration.
func Encode(c Contract, f Format) ([]byte, error) {
	if isNil(c) {
		return nil, fmt.Errorf("encode: nil contract")
	}
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		b, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(b, '\n'), nil
	}
}
