package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/contractkit/store"
	"github.com/reoring/contractkit/store/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "contracts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.DocumentStore { return openTemp(t) })
}

func TestOpen_ReappliesMigrationsIdempotently(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contracts.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "a.json", []byte("kept")))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Read(ctx, "a.json")
	require.NoError(t, err)
	require.Equal(t, "kept", string(got))
}

func TestStore_DetectsCorruption(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	require.NoError(t, s.Write(ctx, "a.json", []byte("original")))
	_, err := s.db.ExecContext(ctx, `UPDATE documents SET content = ? WHERE location = ?`, []byte("tampered"), "a.json")
	require.NoError(t, err)

	_, err = s.Read(ctx, "a.json")
	require.ErrorIs(t, err, store.ErrCorrupt)
}
