package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "k", sample{Name: "cafe", Score: 0.5}, time.Minute))

	var got sample
	found, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "cafe", got.Name)
	assert.InDelta(t, 0.5, got.Score, 1e-9)

	require.NoError(t, store.Delete(ctx, "k"))
	found, err = store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "k", sample{Name: "park"}, time.Minute))

	now = now.Add(2 * time.Minute)
	var got sample
	found, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Purge(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "short", sample{Name: "a"}, time.Minute))
	require.NoError(t, store.Set(ctx, "long", sample{Name: "b"}, time.Hour))
	require.NoError(t, store.Set(ctx, "forever", sample{Name: "c"}, 0))

	now = now.Add(10 * time.Minute)
	store.Purge()

	assert.Equal(t, 2, store.Len())
}

func TestHasher_OrderIndependent(t *testing.T) {
	a := (&Hasher{}).Add("v1", "v2", "v3").Sum()
	b := (&Hasher{}).Add("v3", "v1", "v2").Sum()
	c := (&Hasher{}).Add("v1", "v2").Sum()

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
