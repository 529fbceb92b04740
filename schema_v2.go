package contractkit

import (
	"context"

	js "github.com/reoring/contractkit/jsonschema"
)

// variantV2 is the open 2.0 schema: adds description and drops unknown
// top-level keys instead of rejecting them.
func variantV2() variant {
	return variant{
		version: V2,
		unknown: UnknownStrip,
		decode:  decodeV2,
		schema:  schemaV2,
	}
}

func decodeV2(_ context.Context, root *object) Contract {
	root.lookup("version")
	src, tgt, conn, dp, trigger := readBody(root)
	desc := root.optStr("description", false)
	root.unknown(UnknownStrip)
	return &ContractV2{
		Version:      V2,
		Source:       src,
		Target:       tgt,
		Connection:   conn,
		DataPatterns: dp,
		Trigger:      trigger,
		Description:  desc,
	}
}

func schemaV2() *js.Schema {
	props := bodyProperties(V2)
	props["description"] = &js.Schema{Type: []string{"string", "null"}, Description: "Optional description of the contract"}
	return &js.Schema{
		SchemaURI:  js.Draft,
		Title:      "SQL contract v2.0",
		Type:       "object",
		Properties: props,
		Required:   bodyRequired,
	}
}
