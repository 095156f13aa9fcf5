package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_HashDependsOnLanguagePair(t *testing.T) {
	a := Key{Source: "en", Target: "zh-TW", Text: "Hello"}
	b := Key{Source: "en", Target: "zh-CN", Text: "Hello"}
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.Equal(t, a.Hash(), Key{Source: "en", Target: "zh-TW", Text: "Hello"}.Hash())
}

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(2)
	require.NoError(t, err)

	key := Key{Source: "en", Target: "zh-TW", Text: "Hello"}
	_, ok := m.Get(ctx, key)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, key, "你好"))
	got, ok := m.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "你好", got)
}

func TestMemory_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(2)
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, m.Set(ctx, Key{Source: "en", Target: "ja", Text: text}, text+"!"))
	}
	assert.Equal(t, 2, m.Len())
	_, ok := m.Get(ctx, Key{Source: "en", Target: "ja", Text: "one"})
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, closeFn, err := Open(ctx, "off", 10, "")
	require.NoError(t, err)
	assert.Nil(t, c)
	closeFn()

	c, closeFn, err = Open(ctx, "memory", 10, "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)
	closeFn()

	_, _, err = Open(ctx, "postgres", 10, "")
	assert.Error(t, err)

	_, _, err = Open(ctx, "redis", 10, "")
	assert.Error(t, err)
}
