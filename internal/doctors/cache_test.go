package doctors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/patient-booking/pkg/logging"
)

type countingSource struct {
	doc   Doctor
	err   error
	calls int
}

func (s *countingSource) Lookup(_ context.Context, id ID) (Doctor, error) {
	s.calls++
	if s.err != nil {
		return Doctor{}, s.err
	}
	doc := s.doc
	doc.ID = id
	return doc, nil
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestCachedDirectoryReadThrough(t *testing.T) {
	mr, client := setupTestRedis(t)
	src := &countingSource{doc: Doctor{FullName: "Dr. C"}}
	cache := NewCachedDirectory(src, client, time.Minute, logging.Nop())
	ctx := context.Background()

	first, err := cache.Lookup(ctx, "8")
	require.NoError(t, err)
	second, err := cache.Lookup(ctx, "8")
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("doctor:profile:8"))
	assert.Equal(t, time.Minute, mr.TTL("doctor:profile:8"))

	mr.FastForward(2 * time.Minute)
	_, err = cache.Lookup(ctx, "8")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCachedDirectorySkipsPlaceholders(t *testing.T) {
	mr, client := setupTestRedis(t)
	src := &countingSource{doc: Placeholder("")}
	cache := NewCachedDirectory(src, client, time.Minute, logging.Nop())

	_, err := cache.Lookup(context.Background(), "9")
	require.NoError(t, err)
	assert.False(t, mr.Exists("doctor:profile:9"))
}

func TestCachedDirectoryPropagatesSourceErrors(t *testing.T) {
	_, client := setupTestRedis(t)
	src := &countingSource{err: ErrNotFound}
	cache := NewCachedDirectory(src, client, time.Minute, logging.Nop())

	_, err := cache.Lookup(context.Background(), "1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCachedDirectoryBypassesBrokenRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()
	src := &countingSource{doc: Doctor{FullName: "Dr. D"}}
	cache := NewCachedDirectory(src, client, time.Minute, logging.Nop())

	doc, err := cache.Lookup(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "Dr. D", doc.FullName)
	assert.Equal(t, 1, src.calls)
}

func TestCachedDirectoryCorruptEntry(t *testing.T) {
	mr, client := setupTestRedis(t)
	require.NoError(t, mr.Set("doctor:profile:3", "{not json"))
	src := &countingSource{doc: Doctor{FullName: "Dr. E"}}
	cache := NewCachedDirectory(src, client, time.Minute, logging.Nop())

	doc, err := cache.Lookup(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Dr. E", doc.FullName)
	assert.Equal(t, 1, src.calls)
}

func TestCachedDirectoryInvalidate(t *testing.T) {
	mr, client := setupTestRedis(t)
	src := &countingSource{doc: Doctor{FullName: "Dr. F"}}
	cache := NewCachedDirectory(src, client, time.Minute, logging.Nop())
	ctx := context.Background()

	_, err := cache.Lookup(ctx, "5")
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, "5"))
	assert.False(t, mr.Exists("doctor:profile:5"))
}

func TestCachedDirectoryWithoutRedis(t *testing.T) {
	src := &countingSource{doc: Doctor{FullName: "Dr. G"}}
	cache := NewCachedDirectory(src, nil, 0, nil)

	_, err := cache.Lookup(context.Background(), "6")
	require.NoError(t, err)
	_, err = cache.Lookup(context.Background(), "6")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}
