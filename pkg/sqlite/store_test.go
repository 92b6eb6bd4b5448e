package sqlite_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/honeytracks/pkg/sqlite"
)

func TestStore_LoadSave(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := sqlite.Open(":memory:", "htevents")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Save(ctx, `[{"action":"A","eventData":{}}]`))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"action":"A","eventData":{}}]`, got)

	require.NoError(t, store.Save(ctx, "[]"))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestStore_Persistence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "tracking.db")

	first, err := sqlite.Open(dbPath, "htevents")
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, `[{"action":"persistent","eventData":{}}]`))
	require.NoError(t, first.Close())

	second, err := sqlite.Open(dbPath, "htevents")
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	got, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"action":"persistent","eventData":{}}]`, got)
}

func TestStore_KeysAreIndependent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "tracking.db")

	a, err := sqlite.Open(dbPath, "a")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Save(ctx, "[1]"))

	b, err := sqlite.Open(dbPath, "b")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	_, err := sqlite.Open(":memory:", "")
	assert.ErrorIs(t, err, sqlite.ErrEmptyKey)

	_, err = sqlite.Open("/nonexistent/path/db.sqlite", "htevents")
	assert.Error(t, err)
}

func TestStore_Closed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := sqlite.Open(":memory:", "htevents")
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, sqlite.ErrStoreClosed)
	assert.ErrorIs(t, store.Save(ctx, "[]"), sqlite.ErrStoreClosed)
}

func TestStore_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "tracking.db"), "htevents")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if id%2 == 0 {
				assert.NoError(t, store.Save(ctx, "[]"))
				return
			}
			_, err := store.Load(ctx)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}
