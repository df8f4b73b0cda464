package route

import (
	"testing"

	"github.com/carthorse/carthorse/internal/geomodel"
)

func TestDeterministicRouteID_StableAcrossCalls(t *testing.T) {
	edgeIDs := []int64{3, 1, 2}
	a := deterministicRouteID(geomodel.ShapeLoop, edgeIDs)
	b := deterministicRouteID(geomodel.ShapeLoop, edgeIDs)
	if a != b {
		t.Errorf("deterministicRouteID is not stable: %s vs %s", a, b)
	}
}

func TestDeterministicRouteID_LoopIgnoresRotationAndDirection(t *testing.T) {
	a := deterministicRouteID(geomodel.ShapeLoop, []int64{1, 2, 3})
	b := deterministicRouteID(geomodel.ShapeLoop, []int64{2, 3, 1})
	if a != b {
		t.Errorf("loop ids should match under rotation: %s vs %s", a, b)
	}
	c := deterministicRouteID(geomodel.ShapeLoop, []int64{3, 2, 1})
	if a != c {
		t.Errorf("loop ids should match under reversal: %s vs %s", a, c)
	}
}

func TestDeterministicRouteID_DiffersAcrossShapes(t *testing.T) {
	edgeIDs := []int64{1, 2, 3}
	loop := deterministicRouteID(geomodel.ShapeLoop, edgeIDs)
	p2p := deterministicRouteID(geomodel.ShapePointToPoint, edgeIDs)
	if loop == p2p {
		t.Errorf("expected distinct ids for distinct shapes over the same edges, got %s for both", loop)
	}
}

func TestDeterministicRouteID_DiffersAcrossEdgeSets(t *testing.T) {
	a := deterministicRouteID(geomodel.ShapePointToPoint, []int64{1, 2, 3})
	b := deterministicRouteID(geomodel.ShapePointToPoint, []int64{1, 2, 4})
	if a == b {
		t.Errorf("expected distinct ids for distinct edge sets, got matching %s", a)
	}
}
