package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/contractkit/store"
	"github.com/reoring/contractkit/store/storetest"
)

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.DocumentStore {
		s, err := New(filepath.Join(t.TempDir(), "docs"))
		require.NoError(t, err)
		return s
	})
}

func TestStore_WritesPlainFiles(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), "jobs/a.yaml", []byte("trigger: daily\n")))

	b, err := os.ReadFile(filepath.Join(s.Root(), "jobs", "a.yaml"))
	require.NoError(t, err)
	require.Equal(t, "trigger: daily\n", string(b))

	entries, err := os.ReadDir(filepath.Join(s.Root(), "jobs"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestStore_ListSkipsTempFiles(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), tmpPrefix+"123"), []byte("x"), 0o600))
	got, err := s.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}
