package intersect

import (
	"testing"

	"github.com/google/uuid"

	"github.com/carthorse/carthorse/internal/geomodel"
)

func TestClassify_TrueCrossing(t *testing.T) {
	a := []geomodel.Point2D{{X: 0, Y: 0}, {X: 2, Y: 2}}
	b := []geomodel.Point2D{{X: 0, Y: 2}, {X: 2, Y: 0}}

	res := classify(a, b, 1.0, 1.0)
	if len(res.trueCrossings) != 1 {
		t.Fatalf("got %d true crossings, want 1", len(res.trueCrossings))
	}
	if len(res.yt) != 0 || len(res.nearMiss) != 0 {
		t.Errorf("expected no Y/T touches or near-misses for a clean crossing, got %+v", res)
	}
}

func TestClassify_YTouch(t *testing.T) {
	// b's start point (1,0.5) lands on a's interior.
	a := []geomodel.Point2D{{X: 1, Y: 0}, {X: 1, Y: 1}}
	b := []geomodel.Point2D{{X: 1, Y: 0.5}, {X: 2, Y: 0.5}}

	res := classify(a, b, 1.0, 1.0)
	if len(res.yt) != 1 {
		t.Fatalf("got %d Y/T touches, want 1: %+v", len(res.yt), res)
	}
	if len(res.trueCrossings) != 0 {
		t.Errorf("expected no true crossings for a T-touch, got %+v", res.trueCrossings)
	}
}

func TestClassify_NearMissEndpoints(t *testing.T) {
	a := []geomodel.Point2D{{X: 0, Y: 0}, {X: 0, Y: 1}}
	// b starts very close (but not coincident) to a's end.
	b := []geomodel.Point2D{{X: 0.00001, Y: 1.00001}, {X: 1, Y: 2}}

	res := classify(a, b, 5.0, 5.0) // tolerance in meters, generous for this test
	if len(res.nearMiss) != 1 {
		t.Fatalf("got %d near-misses, want 1: %+v", len(res.nearMiss), res)
	}
	if res.nearMiss[0].aEndIsStart {
		t.Errorf("aEndIsStart = true, want false: the near endpoint is a's end (index 1)")
	}
}

func TestClassify_NearMissUsesBridgingRadiusNotIntersectionRadius(t *testing.T) {
	// Endpoints ~2.8m apart: inside a 20m bridging radius but outside a 2m
	// intersection tolerance. A narrow near-miss search (bounded by the
	// intersection tolerance) must miss this pair entirely; a search bounded
	// by the wider bridging tolerance must catch it.
	a := []geomodel.Point2D{{X: 0, Y: 0}, {X: 0, Y: 0.001}}
	b := []geomodel.Point2D{{X: 0.00002, Y: 0.001015}, {X: 0.001, Y: 0.002}}

	narrow := classify(a, b, 2.0, 2.0)
	if len(narrow.nearMiss) != 0 {
		t.Fatalf("got %d near-misses under a 2m search radius, want 0 (endpoints are ~2.8m apart)", len(narrow.nearMiss))
	}

	wide := classify(a, b, 2.0, 20.0)
	if len(wide.nearMiss) != 1 {
		t.Fatalf("got %d near-misses under a 20m search radius, want 1", len(wide.nearMiss))
	}
}

func TestClassify_DisjointNoMatch(t *testing.T) {
	a := []geomodel.Point2D{{X: 0, Y: 0}, {X: 0, Y: 1}}
	b := []geomodel.Point2D{{X: 10, Y: 10}, {X: 10, Y: 11}}

	res := classify(a, b, 1.0, 1.0)
	if len(res.trueCrossings) != 0 || len(res.yt) != 0 || len(res.nearMiss) != 0 {
		t.Errorf("expected no matches for disjoint trails, got %+v", res)
	}
}

func TestSpatialIndex_PrunesDisjointPairs(t *testing.T) {
	boxes := []geomodel.BBox{
		{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1},
		{MinX: 0.5, MinY: 0.5, MaxX: 1.5, MaxY: 1.5}, // overlaps box 0
		{MinX: 100, MinY: 100, MaxX: 101, MaxY: 101}, // far away
	}
	idx := BuildSpatialIndex(boxes, 0)
	pairs := idx.CandidatePairs()
	if len(pairs) != 1 {
		t.Fatalf("got %d candidate pairs, want 1: %v", len(pairs), pairs)
	}
	if pairs[0] != [2]int{0, 1} {
		t.Errorf("candidate pair = %v, want [0 1]", pairs[0])
	}
}

func TestResult_SortedInstructions_CollapsesNearDuplicates(t *testing.T) {
	id := uuid.New()
	r := Result{Instructions: map[uuid.UUID][]SplitInstruction{
		id: {
			{ArcLengthM: 100},
			{ArcLengthM: 101}, // within snap tolerance of 100, collapsed
			{ArcLengthM: 200},
		},
	}}
	out := r.SortedInstructions(id, 5)
	if len(out) != 2 {
		t.Fatalf("got %d instructions, want 2 after collapsing duplicates", len(out))
	}
	if out[0].ArcLengthM != 100 || out[1].ArcLengthM != 200 {
		t.Errorf("SortedInstructions = %+v, want [100 200]", out)
	}
}
