package contractkit

import js "github.com/reoring/contractkit/jsonschema"

func nonEmptyString(desc string) *js.Schema {
	return &js.Schema{Type: "string", MinLength: js.Int(1), Description: desc}
}

func sourceSchema() *js.Schema {
	return &js.Schema{
		Type: "object",
		Properties: map[string]*js.Schema{
			"table_name":         nonEmptyString("Name of the source table"),
			"database":           nonEmptyString(""),
			"incremental":        {Type: "boolean", Default: false, Description: "Is the source incremental?"},
			"incremental_column": {Type: []string{"string", "null"}, MinLength: js.Int(1)},
		},
		Required: []string{"table_name", "database"},
		// incremental_column is present if and only if incremental is true.
		If: &js.Schema{
			Properties: map[string]*js.Schema{"incremental": {Const: true}},
			Required:   []string{"incremental"},
		},
		Then: &js.Schema{Required: []string{"incremental_column"}},
		Else: &js.Schema{Not: &js.Schema{Required: []string{"incremental_column"}}},
	}
}

func targetSchema() *js.Schema {
	return &js.Schema{
		Type: "object",
		Properties: map[string]*js.Schema{
			"target_table_name": nonEmptyString("Name of the target table"),
			"target_database":   nonEmptyString(""),
		},
		Required: []string{"target_table_name", "target_database"},
	}
}

func connectionSchema() *js.Schema {
	return &js.Schema{
		Type: "object",
		Properties: map[string]*js.Schema{
			"connection_string": nonEmptyString("Connection string for the database"),
			"connection_type": {
				Type:    "string",
				Enum:    enumStrings(ConnectionTypes()),
				Default: string(DefaultConnectionType),
			},
		},
		Required: []string{"connection_string"},
	}
}

func dataPatternsSchema() *js.Schema {
	return &js.Schema{
		Type: "object",
		Properties: map[string]*js.Schema{
			"pattern": {
				Type:    "string",
				Enum:    enumStrings(WritePatterns()),
				Default: string(DefaultWritePattern),
			},
			"schemaEnforcement": {Type: "boolean"},
		},
		Required: []string{"schemaEnforcement"},
	}
}

// bodyProperties returns the property schemas shared by every known version.
// Callers own the returned map.
func bodyProperties(v Version) map[string]*js.Schema {
	return map[string]*js.Schema{
		"version":       {Type: "string", Const: string(v)},
		"source":        sourceSchema(),
		"target":        targetSchema(),
		"connection":    connectionSchema(),
		"data_patterns": dataPatternsSchema(),
		"trigger":       nonEmptyString("Schedule or trigger expression"),
	}
}

var bodyRequired = []string{"source", "target", "connection", "data_patterns", "trigger"}
