package split

import (
	"testing"

	"github.com/google/uuid"

	"github.com/carthorse/carthorse/internal/geo2d"
	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/intersect"
)

func straightLine(id uuid.UUID) geomodel.Trail {
	pts := []geomodel.Point3D{{X: 0, Y: 0}, {X: 0, Y: 0.01}, {X: 0, Y: 0.02}, {X: 0, Y: 0.03}}
	geom := geomodel.LineString{Points: pts}
	return geomodel.Trail{ID: id, Geometry: geom, LengthKM: 3.3}
}

func TestChildrenFor_SingleSplitPoint(t *testing.T) {
	id := uuid.New()
	parent := straightLine(id)
	flat := parent.Geometry.Flat()
	total := geo2d.PolylineLengthKM(flat) * 1000

	instr := []intersect.SplitInstruction{{ArcLengthM: total / 2}}
	children := ChildrenFor(parent, instr, 1)

	if len(children) != 2 {
		t.Fatalf("got %d children, want 2", len(children))
	}
	for i, c := range children {
		if c.ParentID == nil || *c.ParentID != id {
			t.Errorf("child %d ParentID = %v, want %s", i, c.ParentID, id)
		}
		if c.Class != geomodel.TrailSplitChild {
			t.Errorf("child %d Class = %v, want TrailSplitChild", i, c.Class)
		}
	}
}

func TestChildrenFor_NoInstructionsReturnsWholeTrailAsOneChild(t *testing.T) {
	parent := straightLine(uuid.New())
	children := ChildrenFor(parent, nil, 1)
	if len(children) != 1 {
		t.Fatalf("got %d children, want 1 for a trail with no split instructions", len(children))
	}
}

func TestChildrenFor_DropsChildBelowMinLength(t *testing.T) {
	id := uuid.New()
	parent := straightLine(id)
	// Split extremely close to the very start: the first child would be
	// a few meters, well under a 500m minimum.
	instr := []intersect.SplitInstruction{{ArcLengthM: 2}}
	children := ChildrenFor(parent, instr, 500)
	if len(children) != 1 {
		t.Fatalf("got %d children, want 1 (the too-short leading piece dropped)", len(children))
	}
}

func TestChildrenFor_DeterministicIDs(t *testing.T) {
	id := uuid.New()
	parent := straightLine(id)
	instr := []intersect.SplitInstruction{{ArcLengthM: 500}}
	c1 := ChildrenFor(parent, instr, 1)
	c2 := ChildrenFor(parent, instr, 1)
	if len(c1) != len(c2) {
		t.Fatalf("nondeterministic child count: %d vs %d", len(c1), len(c2))
	}
	for i := range c1 {
		if c1[i].ID != c2[i].ID {
			t.Errorf("child %d id differs across runs: %s vs %s", i, c1[i].ID, c2[i].ID)
		}
	}
}
