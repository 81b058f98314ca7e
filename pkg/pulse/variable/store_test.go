package variable_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulse/pkg/pulse/variable"
)

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) variable.Store

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	ctx := context.Background()

	t.Run(name+"/Set_and_Get", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Set(ctx, "score", []byte(`42`)))

		got, err := store.Get(ctx, "score")
		require.NoError(t, err)
		assert.Equal(t, []byte(`42`), got)
	})

	t.Run(name+"/Get_NotFound", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, variable.ErrNotFound)
	})

	t.Run(name+"/Set_Overwrite", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Set(ctx, "k", []byte("first")))
		require.NoError(t, store.Set(ctx, "k", []byte("second")))

		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run(name+"/Delete", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Set(ctx, "k", []byte("v")))
		require.NoError(t, store.Delete(ctx, "k"))
		_, err := store.Get(ctx, "k")
		assert.ErrorIs(t, err, variable.ErrNotFound)

		assert.NoError(t, store.Delete(ctx, "never-existed"))
	})

	t.Run(name+"/List_Prefix", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		for _, k := range []string{"avatar.b", "avatar.a", "world.x", "avatar*literal"} {
			require.NoError(t, store.Set(ctx, k, []byte("1")))
		}

		keys, err := store.List(ctx, "avatar.")
		require.NoError(t, err)
		assert.Equal(t, []string{"avatar.a", "avatar.b"}, keys)

		all, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run(name+"/List_Empty", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		keys, err := store.List(ctx, "nothing")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run(name+"/Concurrent", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("k%02d", i)
				assert.NoError(t, store.Set(ctx, key, []byte(key)))
				_, err := store.Get(ctx, key)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		keys, err := store.List(ctx, "k")
		require.NoError(t, err)
		assert.Len(t, keys, 20)
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.Close())

		_, err := store.Get(ctx, "k")
		assert.ErrorIs(t, err, variable.ErrStoreClosed)
		assert.ErrorIs(t, store.Set(ctx, "k", nil), variable.ErrStoreClosed)
		assert.NoError(t, store.Close())
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContractTest(t, "MemoryStore", func(t *testing.T) variable.Store {
		return variable.NewMemoryStore()
	})
}

func TestSQLiteStore_Contract(t *testing.T) {
	storeContractTest(t, "SQLiteStore", func(t *testing.T) variable.Store {
		store, err := variable.NewSQLiteStore(filepath.Join(t.TempDir(), "variables.db"))
		require.NoError(t, err)
		return store
	})
}

func TestRedisStore_Contract(t *testing.T) {
	storeContractTest(t, "RedisStore", func(t *testing.T) variable.Store {
		mr := miniredis.RunT(t)
		client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
		return variable.NewRedisStoreFromClient(client)
	})
}

func TestSQLiteStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "variables.db")

	store, err := variable.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "counter", []byte("7")))
	require.NoError(t, store.Close())

	reopened, err := variable.NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, []byte("7"), got)
}

func TestRedisStore_PrefixAndTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := variable.NewRedisStoreFromClient(client,
		variable.WithPrefix("test:"),
		variable.WithTTL(time.Minute),
	)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "blink", []byte("true")))
	assert.True(t, mr.Exists("test:blink"))
	assert.Equal(t, time.Minute, mr.TTL("test:blink"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, "blink")
	assert.ErrorIs(t, err, variable.ErrNotFound)
}
