package cache

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemCacheBasics(t *testing.T) {
	c := NewMemCache()

	_, hit, err := c.Get("test:shacl")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set("test:shacl", []byte(`{"version":"1.0.0"}`)))
	value, hit, err := c.Get("test:shacl")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, `{"version":"1.0.0"}`, string(value))

	require.NoError(t, c.Delete("test:shacl"))
	_, hit, _ = c.Get("test:shacl")
	assert.False(t, hit)
}

func TestMemCacheCopiesPayload(t *testing.T) {
	c := NewMemCache()
	payload := []byte("original")
	require.NoError(t, c.Set("k", payload))

	// mutating the stored slice must not reach the cache
	payload[0] = 'X'
	got, _, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	// mutating a retrieved slice must not reach the cache either
	got[0] = 'Y'
	again, _, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(again))
}

func TestMemCacheClear(t *testing.T) {
	c := NewMemCache()
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	require.NoError(t, c.Clear())
	_, hit, _ := c.Get("a")
	assert.False(t, hit)
	_, hit, _ = c.Get("b")
	assert.False(t, hit)
}

func TestRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c, err := NewRedisCache("redis://" + mr.Addr())
	require.NoError(t, err)
	defer c.Close()

	_, hit, err := c.Get("dmtest:shacl")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set("dmtest:shacl", []byte("artifact")))
	value, hit, err := c.Get("dmtest:shacl")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "artifact", string(value))

	require.NoError(t, c.Delete("dmtest:shacl"))
	_, hit, _ = c.Get("dmtest:shacl")
	assert.False(t, hit)

	c.Set("x", []byte("1"))
	require.NoError(t, c.Clear())
	_, hit, _ = c.Get("x")
	assert.False(t, hit)
}

func TestRedisCacheBadURL(t *testing.T) {
	_, err := NewRedisCache("://nope")
	assert.Error(t, err)
}

func TestSetDefault(t *testing.T) {
	mem := NewMemCache()
	SetDefault(mem)
	assert.Same(t, mem, Default())
}
