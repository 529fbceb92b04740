package contractkit

import (
	"context"

	js "github.com/reoring/contractkit/jsonschema"
)

// variantV1 is the closed 1.0 schema: unknown top-level keys are errors.
func variantV1() variant {
	return variant{
		version: V1,
		unknown: UnknownStrict,
		decode:  decodeV1,
		schema:  schemaV1,
	}
}

func decodeV1(_ context.Context, root *object) Contract {
	root.lookup("version")
	src, tgt, conn, dp, trigger := readBody(root)
	root.unknown(UnknownStrict)
	return &ContractV1{
		Version:      V1,
		Source:       src,
		Target:       tgt,
		Connection:   conn,
		DataPatterns: dp,
		Trigger:      trigger,
	}
}

func schemaV1() *js.Schema {
	return &js.Schema{
		SchemaURI:            js.Draft,
		Title:                "SQL contract v1.0",
		Type:                 "object",
		Properties:           bodyProperties(V1),
		Required:             bodyRequired,
		AdditionalProperties: js.Bool(false),
	}
}
