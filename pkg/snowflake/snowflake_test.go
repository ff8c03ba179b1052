package snowflake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUniqueIncreasing(t *testing.T) {
	require.NoError(t, Init("2024-01-01", 1))

	prev, err := GenerateID()
	require.NoError(t, err)
	seen := map[int64]bool{prev: true}
	for i := 0; i < 1000; i++ {
		id, err := GenerateID()
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		assert.False(t, seen[id])
		seen[id] = true
		prev = id
	}

	s, err := GenerateString()
	require.NoError(t, err)
	assert.NotEmpty(t, s)
}

func TestInitRejectsBadInput(t *testing.T) {
	assert.Error(t, Init("not-a-date", 1))
	assert.Error(t, Init("2024-01-01", 5000))
}
