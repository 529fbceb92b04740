package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	ck "github.com/reoring/contractkit"
)

const v1Doc = `{
  "version": "1.0",
  "source": {"table_name": "orders", "database": "shop", "incremental": true, "incremental_column": "updated_at"},
  "target": {"target_table_name": "orders", "target_database": "dw"},
  "connection": {"connection_string": "mysql://db"},
  "data_patterns": {"schemaEnforcement": true},
  "trigger": "daily"
}
`

const badDoc = `{"version":"1.0","source":{"table_name":"","database":"shop","incremental":true}}`

// testEnv holds a temp config whose store lives under the test directory.
type testEnv struct {
	dir    string
	config string
}

func newEnv(t *testing.T, backend string) testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := "store:\n" +
		"  backend: " + backend + "\n" +
		"  dir: " + filepath.Join(dir, "store") + "\n" +
		"  sqlite_path: " + filepath.Join(dir, "contracts.db") + "\n" +
		"tracing:\n  enabled: false\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return testEnv{dir: dir, config: path}
}

func (e testEnv) file(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func (e testEnv) run(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	err := run(context.Background(), append([]string{"--config", e.config}, args...), &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestValidate(t *testing.T) {
	e := newEnv(t, "file")
	good := e.file(t, "good.json", v1Doc)
	bad := e.file(t, "bad.json", badDoc)

	out, _, err := e.run("validate", good)
	require.NoError(t, err)
	require.Equal(t, "OK   "+good+" (1.0)\n", out)

	out, errOut, err := e.run("validate", good, bad)
	require.ErrorIs(t, err, errReported)
	require.Contains(t, out, "FAIL "+bad)
	require.Contains(t, out, "/source/table_name: too_short")
	require.Contains(t, out, "/target: required")
	require.Contains(t, errOut, "1 of 2 documents invalid")

	out, _, err = e.run("validate", "--fail-fast", bad)
	require.ErrorIs(t, err, errReported)
	require.Equal(t, 2, strings.Count(out, "\n"))
}

func TestValidate_MissingFile(t *testing.T) {
	e := newEnv(t, "file")
	out, _, err := e.run("validate", filepath.Join(e.dir, "nope.json"))
	require.ErrorIs(t, err, errReported)
	require.Contains(t, out, "FAIL ")
}

func TestMigrate(t *testing.T) {
	e := newEnv(t, "file")
	p := e.file(t, "orders.json", v1Doc)

	out, _, err := e.run("migrate", p)
	require.NoError(t, err)
	c, err := ck.ParseJSON(context.Background(), []byte(out))
	require.NoError(t, err)
	require.Equal(t, ck.V2, c.SchemaVersion())
	require.Equal(t, ck.MigratedFromV1, *c.(*ck.ContractV2).Description)

	out, _, err = e.run("migrate", "--plan", p)
	require.NoError(t, err)
	require.Equal(t, "1.0 -> 2.0\n", out)

	out, _, err = e.run("migrate", "--diff", p)
	require.NoError(t, err)
	require.Contains(t, out, "--- "+p)
	require.Contains(t, out, `+  "version": "2.0",`)
	require.Contains(t, out, `-  "version": "1.0",`)

	out, _, err = e.run("migrate", "--write", p)
	require.NoError(t, err)
	require.Equal(t, p+": migrated 1.0 -> 2.0\n", out)

	out, _, err = e.run("migrate", "--write", p)
	require.NoError(t, err)
	require.Contains(t, out, "already at latest version 2.0")

	out, _, err = e.run("migrate", "--plan", p)
	require.NoError(t, err)
	require.Contains(t, out, "already at latest version")

	_, _, err = e.run("migrate", "--plan", "--write", p)
	require.Error(t, err)
}

func TestMigrate_InvalidDocument(t *testing.T) {
	e := newEnv(t, "file")
	p := e.file(t, "bad.json", badDoc)
	out, _, err := e.run("migrate", p)
	require.ErrorIs(t, err, errReported)
	require.Contains(t, out, "FAIL "+p)
}

func TestSchemaAndVersions(t *testing.T) {
	e := newEnv(t, "file")

	out, _, err := e.run("schema")
	require.NoError(t, err)
	require.Contains(t, out, "Optional description of the contract")

	out, _, err = e.run("schema", "1.0")
	require.NoError(t, err)
	require.NotContains(t, out, "Optional description of the contract")
	require.Contains(t, out, `"additionalProperties": false`)

	out, _, err = e.run("schema", "--all")
	require.NoError(t, err)
	require.Contains(t, out, `"oneOf"`)
	require.Contains(t, out, `"const": "1.0"`)
	require.Contains(t, out, `"const": "2.0"`)

	_, _, err = e.run("schema", "--all", "1.0")
	require.Error(t, err)

	_, _, err = e.run("schema", "9.9")
	require.ErrorIs(t, err, ck.ErrUnknownVersion)

	out, _, err = e.run("versions")
	require.NoError(t, err)
	require.Equal(t, "1.0\tunknown keys: strict\n2.0\tunknown keys: strip\t(latest)\n", out)
}

func TestStoreCommands(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			e := newEnv(t, backend)
			p := e.file(t, "orders.json", v1Doc)

			out, _, err := e.run("save", p, "jobs/orders.yaml")
			require.NoError(t, err)
			require.Equal(t, "jobs/orders.yaml\n", out)

			out, _, err = e.run("save", "--latest", p)
			require.NoError(t, err)
			generated := strings.TrimSpace(out)
			require.True(t, strings.HasPrefix(generated, "contract-"), generated)
			require.True(t, strings.HasSuffix(generated, ".json"), generated)

			out, _, err = e.run("load", "jobs/orders.yaml")
			require.NoError(t, err)
			require.Contains(t, out, `version: "1.0"`)

			out, _, err = e.run("load", "--latest", "-o", "json", "jobs/orders.yaml")
			require.NoError(t, err)
			require.Contains(t, out, `"version": "2.0"`)

			out, _, err = e.run("list")
			require.NoError(t, err)
			require.Equal(t, generated+"\t2.0\njobs/orders.yaml\t1.0\n", out)

			out, _, err = e.run("list", "--upgrade")
			require.NoError(t, err)
			require.Equal(t, generated+"\t2.0\njobs/orders.yaml\t2.0 (upgraded)\n", out)

			_, _, err = e.run("load", "missing.json")
			require.Error(t, err)

			_, _, err = e.run("load", "-o", "xml", "jobs/orders.yaml")
			require.Error(t, err)
		})
	}
}

func TestSave_RejectsInvalidDocument(t *testing.T) {
	e := newEnv(t, "file")
	p := e.file(t, "bad.json", badDoc)
	out, _, err := e.run("save", p)
	require.ErrorIs(t, err, errReported)
	require.Contains(t, out, "FAIL "+p)

	out, _, err = e.run("list")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("store:\n  backend: redis\n"), 0o600))
	var out, errOut bytes.Buffer
	err := run(context.Background(), []string{"--config", cfg, "versions"}, &out, &errOut)
	require.ErrorContains(t, err, "unknown backend")
}
