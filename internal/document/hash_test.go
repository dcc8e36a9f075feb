package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeKeyDeterminism(t *testing.T) {
	v := map[string]any{"conclusion": "True", "hypotheses": []any{}}

	k1, err := NodeKey(v)
	require.NoError(t, err)
	k2, err := NodeKey(v)
	require.NoError(t, err)

	assert.Equal(t, k1, k2, "NodeKey must be deterministic")
	assert.Len(t, k1, 64, "SHA-256 hex is 64 characters")
}

func TestNodeKeyChangesWithContent(t *testing.T) {
	k1 := MustNodeKey(map[string]any{"conclusion": "True"})
	k2 := MustNodeKey(map[string]any{"conclusion": "False"})

	assert.NotEqual(t, k1, k2)
}

func TestDomainSeparation(t *testing.T) {
	v := map[string]any{"conclusion": "True"}

	nodeKey := MustNodeKey(v)
	blockKey := MustBlockKey(v)

	assert.NotEqual(t, nodeKey, blockKey,
		"same content must hash differently under different domains")
}

func TestChunksHash(t *testing.T) {
	h1, err := ChunksHash([]string{"Goal True.", "trivial."})
	require.NoError(t, err)
	h2, err := ChunksHash([]string{"Goal True.", "trivial."})
	require.NoError(t, err)
	h3, err := ChunksHash([]string{"Goal True."})
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}
