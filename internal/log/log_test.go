package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog_DisabledByDefault(t *testing.T) {
	SetOutput(nil)
	// Must not panic without a logger.
	Info(CatParse, "ignored")
	SetEnabled(true)
	SetMinLevel(LevelDebug)
}

func TestLog_FormatAndFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	Info(CatMigrate, "Migrated contract to version 2.0", "from", "1.0", "to", "2.0")
	line := buf.String()
	require.Contains(t, line, "[INFO] [migrate] Migrated contract to version 2.0")
	require.Contains(t, line, "from=1.0 to=2.0")
	require.True(t, strings.HasSuffix(line, "\n"))
}

func TestLog_OddFieldsAndErrorErr(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	Warn(CatStore, "orphan", "key")
	require.Contains(t, buf.String(), " key=")

	buf.Reset()
	ErrorErr(CatStore, "write failed", errors.New("disk full"), "location", "a.json")
	require.Contains(t, buf.String(), "[ERROR] [store] write failed location=a.json error=disk full")

	buf.Reset()
	ErrorErr(CatStore, "write failed", nil)
	require.Contains(t, buf.String(), "error=<nil>")
}

func TestLog_MinLevelAndEnabled(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	SetMinLevel(LevelWarn)
	Debug(CatParse, "hidden")
	Info(CatParse, "hidden")
	require.Empty(t, buf.String())
	Error(CatParse, "shown")
	require.Contains(t, buf.String(), "shown")

	buf.Reset()
	SetEnabled(false)
	Error(CatParse, "hidden")
	require.Empty(t, buf.String())
}

func TestInit_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contractkit.log")
	cleanup, err := Init(path)
	require.NoError(t, err)
	t.Cleanup(func() { SetOutput(nil) })

	Debug(CatConfig, "loaded", "file", "config.yaml")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[DEBUG] [config] loaded file=config.yaml")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "": LevelInfo, "warning": LevelWarn, "error": LevelError} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}
