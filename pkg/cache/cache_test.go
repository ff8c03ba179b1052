package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	var got []string
	assert.ErrorIs(t, c.GetJSON(ctx, "k", &got), ErrMiss)

	require.NoError(t, c.SetJSON(ctx, "k", []string{"a", "b"}, time.Minute))
	require.NoError(t, c.GetJSON(ctx, "k", &got))
	assert.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.GetJSON(ctx, "k", &got), ErrMiss)

	require.NoError(t, c.SetJSON(ctx, "expired", 1, time.Nanosecond))
	time.Sleep(time.Millisecond)
	var n int
	assert.ErrorIs(t, c.GetJSON(ctx, "expired", &n), ErrMiss)
}
