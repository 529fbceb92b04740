package pgstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/contractkit/store"
	"github.com/reoring/contractkit/store/storetest"
)

// Set CONTRACTKIT_TEST_POSTGRES_DSN to run these against a scratch database.
// The documents table is truncated before each subtest.
func openTest(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("CONTRACTKIT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CONTRACTKIT_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	_, err = s.pool.Exec(ctx, `TRUNCATE contract_documents`)
	require.NoError(t, err)
	return s
}

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.DocumentStore { return openTest(t) })
}

func TestStore_DetectsCorruption(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	require.NoError(t, s.Write(ctx, "a.json", []byte("original")))
	_, err := s.pool.Exec(ctx, `UPDATE contract_documents SET content = $1 WHERE location = $2`, []byte("tampered"), "a.json")
	require.NoError(t, err)
	_, err = s.Read(ctx, "a.json")
	require.ErrorIs(t, err, store.ErrCorrupt)
}
