package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)
	assert.Equal(t, 5, uf.Count())

	assert.True(t, uf.Union(0, 1))
	assert.True(t, uf.Union(2, 3))
	assert.False(t, uf.Union(1, 0))
	assert.Equal(t, 3, uf.Count())

	assert.True(t, uf.Connected(0, 1))
	assert.False(t, uf.Connected(1, 2))

	assert.True(t, uf.Union(1, 3))
	assert.True(t, uf.Connected(0, 2))
	assert.Equal(t, uf.Find(0), uf.Find(3))
	assert.Equal(t, 2, uf.Count())
	assert.False(t, uf.Connected(4, 0))
}
