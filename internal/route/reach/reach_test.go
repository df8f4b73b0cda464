package reach_test

import (
	"testing"

	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/route/reach"
	"github.com/carthorse/carthorse/internal/routegraph"
)

// chain builds a 5-vertex path 0-1-2-3-4, each edge 1km long.
func chain() *routegraph.Graph {
	vertices := []geomodel.Vertex{{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	edges := []geomodel.Edge{
		{ID: 0, Source: 0, Target: 1, LengthKM: 1, Cost: 1, ReverseCost: 1},
		{ID: 1, Source: 1, Target: 2, LengthKM: 1, Cost: 1, ReverseCost: 1},
		{ID: 2, Source: 2, Target: 3, LengthKM: 1, Cost: 1, ReverseCost: 1},
		{ID: 3, Source: 3, Target: 4, LengthKM: 1, Cost: 1, ReverseCost: 1},
	}
	return routegraph.New(vertices, edges)
}

func TestWithinWindow_FiltersByDistance(t *testing.T) {
	g := chain()
	got := reach.WithinWindow(g, 0, 2, 3)
	if len(got) != 2 {
		t.Fatalf("expected 2 vertices within [2,3]km, got %d (%v)", len(got), got)
	}
	if got[0].VertexID != 2 || got[1].VertexID != 3 {
		t.Fatalf("expected vertices 2 then 3, got %v", got)
	}
}

func TestWithinWindow_ExcludesStart(t *testing.T) {
	g := chain()
	for _, c := range reach.WithinWindow(g, 0, 0, 10) {
		if c.VertexID == 0 {
			t.Fatalf("start vertex should never appear in its own window results")
		}
	}
}

func TestConnected(t *testing.T) {
	g := chain()
	if !reach.Connected(g, 0, 4) {
		t.Fatalf("expected 0 and 4 to be connected")
	}
	isolated := routegraph.New([]geomodel.Vertex{{ID: 0}, {ID: 1}}, nil)
	if reach.Connected(isolated, 0, 1) {
		t.Fatalf("expected isolated vertices to be disconnected")
	}
}

func TestBoundedPointToPoint_RespectsWindowAndDepth(t *testing.T) {
	g := chain()
	walks := reach.BoundedPointToPoint(g, []int64{0}, 2, 3, 10)
	if len(walks) == 0 {
		t.Fatalf("expected at least one walk in range")
	}
	for _, w := range walks {
		if w.DistanceKM < 2 || w.DistanceKM > 3 {
			t.Fatalf("walk distance %v outside requested window", w.DistanceKM)
		}
	}
}

func TestBoundedPointToPoint_DepthZeroFindsNothing(t *testing.T) {
	g := chain()
	walks := reach.BoundedPointToPoint(g, []int64{0}, 0, 10, 0)
	if len(walks) != 0 {
		t.Fatalf("expected no walks with maxDepth=0, got %d", len(walks))
	}
}
