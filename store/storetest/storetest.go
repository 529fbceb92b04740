// Package storetest is a conformance suite for store.DocumentStore
// implementations.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/contractkit/store"
)

// Run exercises the DocumentStore contract against stores made by newStore.
// Each subtest gets a fresh, empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.DocumentStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("write then read", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Write(ctx, "a.json", []byte(`{"a":1}`)))
		got, err := s.Read(ctx, "a.json")
		require.NoError(t, err)
		require.Equal(t, `{"a":1}`, string(got))
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Write(ctx, "a.json", []byte("one")))
		require.NoError(t, s.Write(ctx, "a.json", []byte("two")))
		got, err := s.Read(ctx, "a.json")
		require.NoError(t, err)
		require.Equal(t, "two", string(got))
	})

	t.Run("missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Read(ctx, "nope.json")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, s.Delete(ctx, "nope.json"), store.ErrNotFound)
	})

	t.Run("list is sorted and includes nested locations", func(t *testing.T) {
		s := newStore(t)
		for _, loc := range []string{"b.yaml", "jobs/orders.json", "a.json"} {
			require.NoError(t, s.Write(ctx, loc, []byte(loc)))
		}
		got, err := s.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"a.json", "b.yaml", "jobs/orders.json"}, got)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Write(ctx, "a.json", []byte("x")))
		require.NoError(t, s.Delete(ctx, "a.json"))
		_, err := s.Read(ctx, "a.json")
		require.ErrorIs(t, err, store.ErrNotFound)
		got, err := s.List(ctx)
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("rejects escaping locations", func(t *testing.T) {
		s := newStore(t)
		for _, loc := range []string{"", "/abs.json", "../up.json", "a/../../b.json"} {
			require.ErrorIs(t, s.Write(ctx, loc, []byte("x")), store.ErrInvalidLocation, loc)
			_, err := s.Read(ctx, loc)
			require.ErrorIs(t, err, store.ErrInvalidLocation, loc)
			require.ErrorIs(t, s.Delete(ctx, loc), store.ErrInvalidLocation, loc)
		}
	})

	t.Run("concurrent writers", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.Write(ctx, "shared.json", []byte{byte('a' + i)}))
			}()
		}
		wg.Wait()
		got, err := s.Read(ctx, "shared.json")
		require.NoError(t, err)
		require.Len(t, got, 1)
	})
}
