package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vibeplanner/vibeplanner/internal/database/testutil"
)

func TestDatabaseStoreSetGetDelete(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewDatabaseStore(db)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "greeting", []byte("hello"), time.Minute))

	value, ok, err := store.Get(ctx, "greeting")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), value)

	require.NoError(t, store.Set(ctx, "greeting", []byte("bye"), time.Minute))
	value, ok, err = store.Get(ctx, "greeting")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("bye"), value)

	require.NoError(t, store.Delete(ctx, "greeting"))
	_, ok, err = store.Get(ctx, "greeting")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseStoreGetExpired(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewDatabaseStore(db)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "ttl", []byte("x"), time.Nanosecond))
	time.Sleep(2 * time.Millisecond)

	_, ok, err := store.Get(ctx, "ttl")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseStoreIncrementWithTTL(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewDatabaseStore(db)
	ctx := context.Background()

	count, remaining, err := store.IncrementWithTTL(ctx, "counter", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Greater(t, remaining, time.Duration(0))

	count, _, err = store.IncrementWithTTL(ctx, "counter", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestNormalizeKey(t *testing.T) {
	require.Equal(t, "a:b:c", normalizeKey("a::b:::c"))
	require.Equal(t, "", normalizeKey(""))
}
