package geo2d_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carthorse/carthorse/internal/geo2d"
)

// buildClusteredSet unions {0,1,2} and {3,4}, leaving 5 a singleton —
// mirrors the teacher's buildTriangle fixture shape: a few small known
// groups over a handful of named elements.
func buildClusteredSet() *geo2d.UnionFind {
	uf := geo2d.NewUnionFind(6)
	uf.Union(0, 1)
	uf.Union(1, 2)
	uf.Union(3, 4)
	return uf
}

func TestUnionFind_GroupsClusteredElements(t *testing.T) {
	uf := buildClusteredSet()
	groups := uf.Groups()

	assert.Len(t, groups, 3, "expected 2 unioned groups plus one singleton")
	assert.Equal(t, []int{0, 1, 2}, groups[0])
	assert.Equal(t, []int{3, 4}, groups[1])
	assert.Equal(t, []int{5}, groups[2])
}

func TestUnionFind_FindIsStableAfterUnion(t *testing.T) {
	uf := buildClusteredSet()
	assert.Equal(t, uf.Find(0), uf.Find(1))
	assert.Equal(t, uf.Find(1), uf.Find(2))
	assert.NotEqual(t, uf.Find(0), uf.Find(3))
}

func TestUnionFind_UnionIsIdempotent(t *testing.T) {
	uf := geo2d.NewUnionFind(3)
	uf.Union(0, 1)
	before := uf.Find(0)
	uf.Union(0, 1)
	assert.Equal(t, before, uf.Find(0), "re-unioning an already-merged pair should not change its root")
}

func TestUnionFind_SingletonsStayApart(t *testing.T) {
	uf := geo2d.NewUnionFind(3)
	groups := uf.Groups()
	assert.Len(t, groups, 3)
	for i, g := range groups {
		assert.Equal(t, []int{i}, g)
	}
}
