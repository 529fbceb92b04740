package tracing

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	ck "github.com/reoring/contractkit"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.False(t, cfg.Enabled)
	require.Equal(t, ExporterFile, cfg.Exporter)
	require.Equal(t, 1.0, cfg.SampleRate)
	require.Equal(t, "contractkit", cfg.ServiceName)
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	require.False(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "noop")
	require.False(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Errors(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: ExporterFile})
	require.ErrorContains(t, err, "file_path required")

	_, err = NewProvider(Config{Enabled: true, Exporter: "zipkin"})
	require.ErrorContains(t, err, "unsupported exporter type")
}

func TestNewProvider_NoExporter(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
	p, err := NewProvider(Config{Enabled: true, Exporter: ExporterNone})
	require.NoError(t, err)
	require.True(t, p.Enabled())
	_, span := p.Tracer().Start(context.Background(), "internal")
	require.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestFileExporter_RecordsMigrationHops(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
	path := filepath.Join(t.TempDir(), "traces", "traces.jsonl")
	p, err := NewProvider(Config{Enabled: true, Exporter: ExporterFile, FilePath: path, ServiceName: "test"})
	require.NoError(t, err)

	ctx := context.Background()
	c, err := ck.ParseJSON(ctx, []byte(`{"version":"1.0","source":{"table_name":"t","database":"d"},"target":{"target_table_name":"t","target_database":"d"},"connection":{"connection_string":"x"},"data_patterns":{"schemaEnforcement":false},"trigger":"daily"}`))
	require.NoError(t, err)
	_, err = ck.Migrate(ctx, c)
	require.NoError(t, err)
	require.NoError(t, p.Shutdown(ctx))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var found *SpanRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec SpanRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		if rec.Name == "contractkit.Migrate" {
			found = &rec
		}
	}
	require.NoError(t, sc.Err())
	require.NotNil(t, found, "migration span not exported")
	require.Equal(t, "1.0", found.Attributes["contract.version.from"])
	require.Equal(t, "2.0", found.Attributes["contract.version.to"])
	require.Len(t, found.Events, 1)
	require.Equal(t, "contract.migrated", found.Events[0].Name)
	require.Equal(t, "2.0", found.Events[0].Attributes["to"])
}
