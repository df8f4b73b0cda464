package ksp_test

import (
	"testing"

	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/route/ksp"
	"github.com/carthorse/carthorse/internal/routegraph"
)

// diamond builds 0-1-3 and 0-2-3, both length 2, plus a longer 0-3 direct
// edge, so the two short paths must rank ahead of the long one.
func diamond() *routegraph.Graph {
	vertices := []geomodel.Vertex{{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3}}
	edges := []geomodel.Edge{
		{ID: 0, Source: 0, Target: 1, LengthKM: 1, Cost: 1, ReverseCost: 1},
		{ID: 1, Source: 1, Target: 3, LengthKM: 1, Cost: 1, ReverseCost: 1},
		{ID: 2, Source: 0, Target: 2, LengthKM: 1, Cost: 1, ReverseCost: 1},
		{ID: 3, Source: 2, Target: 3, LengthKM: 1, Cost: 1, ReverseCost: 1},
		{ID: 4, Source: 0, Target: 3, LengthKM: 5, Cost: 5, ReverseCost: 5},
	}
	return routegraph.New(vertices, edges)
}

func TestKShortestPaths_OrdersByDistance(t *testing.T) {
	g := diamond()
	paths := ksp.KShortestPaths(g, 0, 3, 3)
	if len(paths) != 3 {
		t.Fatalf("expected 3 paths, got %d", len(paths))
	}
	for i, p := range paths {
		if p.VertexIDs[0] != 0 || p.VertexIDs[len(p.VertexIDs)-1] != 3 {
			t.Fatalf("path %d does not connect source to target: %v", i, p.VertexIDs)
		}
	}
	if paths[0].DistanceKM > paths[1].DistanceKM || paths[1].DistanceKM > paths[2].DistanceKM {
		t.Fatalf("paths not ascending by distance: %v, %v, %v", paths[0].DistanceKM, paths[1].DistanceKM, paths[2].DistanceKM)
	}
	if paths[2].DistanceKM != 5 {
		t.Fatalf("expected the direct edge as the third-shortest path, got distance %v", paths[2].DistanceKM)
	}
}

func TestKShortestPaths_FewerThanKAvailable(t *testing.T) {
	g := diamond()
	paths := ksp.KShortestPaths(g, 0, 3, 10)
	if len(paths) != 3 {
		t.Fatalf("expected exactly 3 distinct loopless paths in a diamond graph, got %d", len(paths))
	}
}

func TestKShortestPaths_SameSourceAndTarget(t *testing.T) {
	g := diamond()
	if paths := ksp.KShortestPaths(g, 0, 0, 3); paths != nil {
		t.Fatalf("expected nil for source == target, got %v", paths)
	}
}

func TestKShortestPaths_Unreachable(t *testing.T) {
	vertices := []geomodel.Vertex{{ID: 0}, {ID: 1}}
	g := routegraph.New(vertices, nil)
	if paths := ksp.KShortestPaths(g, 0, 1, 3); paths != nil {
		t.Fatalf("expected nil for an unreachable target, got %v", paths)
	}
}
