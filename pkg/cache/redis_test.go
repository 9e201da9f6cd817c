package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, namespace string) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, namespace), mr
}

func TestStore_GetMiss(t *testing.T) {
	s, _ := newTestStore(t, "test")

	_, err := s.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestStore_SetGetNamespaced(t *testing.T) {
	s, mr := newTestStore(t, "idem")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k1", []byte("v1"), time.Minute))

	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
	assert.True(t, mr.Exists("idem:k1"))

	mr.FastForward(2 * time.Minute)
	_, err = s.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestStore_SetNX(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()

	ok, err := s.SetNX(ctx, "lock", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "lock", []byte("2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Delete(ctx, "lock"))
	ok, err = s.SetNX(ctx, "lock", []byte("3"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
