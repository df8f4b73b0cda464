package route

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/routegraph"
)

func threeEdgeGraph() *routegraph.Graph {
	vertices := []geomodel.Vertex{
		{ID: 0, Classification: geomodel.VertexIntersection},
		{ID: 1, Classification: geomodel.VertexIntersection},
		{ID: 2, Classification: geomodel.VertexIntersection},
	}
	edges := []geomodel.Edge{
		{ID: 0, Source: 0, Target: 1, LengthKM: 1, ElevGainM: 10, OriginatingTrailName: "north"},
		{ID: 1, Source: 1, Target: 2, LengthKM: 2, ElevGainM: 20, OriginatingTrailName: "east"},
		{ID: 2, Source: 2, Target: 0, LengthKM: 1, ElevGainM: 5, OriginatingTrailName: "north"},
	}
	return routegraph.New(vertices, edges)
}

func TestMeasure_SumsDistanceGainAndDedupesTrailNames(t *testing.T) {
	g := threeEdgeGraph()
	d := draft{shape: geomodel.ShapeLoop, edgeIDs: []int64{0, 1, 2}}

	distanceKM, gainM, names := measure(g, d)

	if distanceKM != 4 {
		t.Errorf("distanceKM = %v, want 4", distanceKM)
	}
	if gainM != 35 {
		t.Errorf("gainM = %v, want 35", gainM)
	}
	want := []string{"north", "east"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("trail names mismatch (-want +got):\n%s", diff)
	}
}

func TestMeasure_SkipsMissingEdges(t *testing.T) {
	g := threeEdgeGraph()
	d := draft{edgeIDs: []int64{0, 99}}
	distanceKM, _, _ := measure(g, d)
	if distanceKM != 1 {
		t.Errorf("distanceKM = %v, want 1 (edge 99 does not exist and should be skipped)", distanceKM)
	}
}

func TestMinEdgeID(t *testing.T) {
	got := minEdgeID([]int64{5, 1, 9, 3})
	if got != 1 {
		t.Errorf("minEdgeID = %d, want 1", got)
	}
}

func TestOverlapFraction(t *testing.T) {
	cases := []struct {
		name     string
		outbound []int64
		ret      []int64
		want     float64
	}{
		{"no outbound edges", nil, []int64{1, 2}, 0},
		{"no overlap", []int64{1, 2}, []int64{3, 4}, 0},
		{"full overlap", []int64{1, 2}, []int64{1, 2}, 1},
		{"partial overlap", []int64{1, 2, 3, 4}, []int64{3, 4}, 0.5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := overlapFraction(c.outbound, c.ret); got != c.want {
				t.Errorf("overlapFraction(%v, %v) = %v, want %v", c.outbound, c.ret, got, c.want)
			}
		})
	}
}

func TestReverseInts(t *testing.T) {
	got := reverseInts([]int64{1, 2, 3})
	want := []int64{3, 2, 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reverseInts mismatch (-want +got):\n%s", diff)
	}
}

func TestReverseInts_EmptyStaysEmpty(t *testing.T) {
	got := reverseInts(nil)
	if len(got) != 0 {
		t.Errorf("reverseInts(nil) = %v, want empty", got)
	}
}
