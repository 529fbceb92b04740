// Package contractkit validates and migrates versioned data-movement
// contracts (source table -> target table, with connection and write-pattern
// metadata).
//
// It provides:
//
// - A registry of schema variants selected by the "version" discriminator (Parse/ParseFrom)
// - A stable error model via Issues (JSON Pointer, code, message) plus typed errors
// - A migrator that upgrades older contracts one version at a time (Migrate)
// - JSON/YAML decoding with duplicate-key/depth/size enforcement, and encoding back
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - Persistence lives under store/, the CLI under cmd/contractctl.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	c, err := contractkit.ParseJSON(ctx, data)
//	latest, err := contractkit.Migrate(ctx, c)
//	out, err := contractkit.Encode(latest, contractkit.FormatJSON)
package contractkit
