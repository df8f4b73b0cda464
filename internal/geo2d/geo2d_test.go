package geo2d

import (
	"math"
	"testing"

	"github.com/carthorse/carthorse/internal/geomodel"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestHaversineMeters_KnownDistance(t *testing.T) {
	// Roughly one degree of longitude along the equator is ~111.3km.
	a := geomodel.Point2D{X: 0, Y: 0}
	b := geomodel.Point2D{X: 1, Y: 0}
	d := HaversineMeters(a, b)
	if !approxEqual(d, 111320, 200) {
		t.Errorf("HaversineMeters(0,0 -> 1,0) = %f, want ~111320", d)
	}
}

func TestHaversineMeters_SamePoint(t *testing.T) {
	p := geomodel.Point2D{X: -122.4, Y: 37.7}
	if d := HaversineMeters(p, p); d != 0 {
		t.Errorf("distance from a point to itself = %f, want 0", d)
	}
}

func TestPolylineLengthKM(t *testing.T) {
	pts := []geomodel.Point2D{{X: 0, Y: 0}, {X: 0, Y: 0.01}, {X: 0, Y: 0.02}}
	got := PolylineLengthKM(pts)
	want := HaversineMeters(pts[0], pts[1])/1000 + HaversineMeters(pts[1], pts[2])/1000
	if !approxEqual(got, want, 1e-9) {
		t.Errorf("PolylineLengthKM = %f, want %f", got, want)
	}
}

func TestElevationGainLoss(t *testing.T) {
	pts := []geomodel.Point3D{{Z: 0}, {Z: 10}, {Z: 5}, {Z: 15}}
	gain, loss := ElevationGainLoss(pts)
	if gain != 20 {
		t.Errorf("gain = %f, want 20", gain)
	}
	if loss != 5 {
		t.Errorf("loss = %f, want 5", loss)
	}
}

func TestSegmentIntersection_ProperCrossing(t *testing.T) {
	a1 := geomodel.Point2D{X: 0, Y: 0}
	a2 := geomodel.Point2D{X: 2, Y: 2}
	b1 := geomodel.Point2D{X: 0, Y: 2}
	b2 := geomodel.Point2D{X: 2, Y: 0}

	pt, ok, proper := SegmentIntersection(a1, a2, b1, b2)
	if !ok || !proper {
		t.Fatalf("expected a proper crossing, got ok=%v proper=%v", ok, proper)
	}
	if !approxEqual(pt.X, 1, 1e-9) || !approxEqual(pt.Y, 1, 1e-9) {
		t.Errorf("intersection point = %+v, want (1,1)", pt)
	}
}

func TestSegmentIntersection_NoCrossing(t *testing.T) {
	a1 := geomodel.Point2D{X: 0, Y: 0}
	a2 := geomodel.Point2D{X: 1, Y: 0}
	b1 := geomodel.Point2D{X: 0, Y: 1}
	b2 := geomodel.Point2D{X: 1, Y: 1}

	_, ok, _ := SegmentIntersection(a1, a2, b1, b2)
	if ok {
		t.Errorf("expected no intersection between parallel segments")
	}
}

func TestIsSimple(t *testing.T) {
	simple := []geomodel.Point2D{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	if !IsSimple(simple) {
		t.Errorf("expected simple polyline to be reported simple")
	}

	selfCrossing := []geomodel.Point2D{
		{X: 0, Y: 0}, {X: 2, Y: 2}, {X: 2, Y: 0}, {X: 0, Y: 2},
	}
	if IsSimple(selfCrossing) {
		t.Errorf("expected self-crossing polyline to be reported not simple")
	}
}

func TestProjectPoint(t *testing.T) {
	line := []geomodel.Point2D{{X: 0, Y: 0}, {X: 0, Y: 1}}
	p := geomodel.Point2D{X: 0.001, Y: 0.5}

	proj, segIndex, t_, _ := ProjectPoint(line, p)
	if segIndex != 0 {
		t.Errorf("segIndex = %d, want 0", segIndex)
	}
	if !approxEqual(t_, 0.5, 1e-6) {
		t.Errorf("t = %f, want ~0.5", t_)
	}
	if !approxEqual(proj.Y, 0.5, 1e-6) {
		t.Errorf("proj.Y = %f, want ~0.5", proj.Y)
	}
}

func TestSimplify_RemovesNearlyCollinearPoint(t *testing.T) {
	pts := []geomodel.Point2D{
		{X: 0, Y: 0},
		{X: 0.5, Y: 0.0000001}, // essentially on the line
		{X: 1, Y: 0},
	}
	out := Simplify(pts, 50) // 50m tolerance, well above the tiny wiggle
	if len(out) != 2 {
		t.Errorf("Simplify dropped to %d points, want 2 (endpoints only)", len(out))
	}
}

func TestSimplify_KeepsSignificantDetour(t *testing.T) {
	pts := []geomodel.Point2D{
		{X: 0, Y: 0},
		{X: 0.5, Y: 0.01}, // ~1.1km detour, well above tolerance
		{X: 1, Y: 0},
	}
	out := Simplify(pts, 10)
	if len(out) != 3 {
		t.Errorf("Simplify dropped the midpoint, got %d points, want 3", len(out))
	}
}

func TestInterpolateZ(t *testing.T) {
	pts := []geomodel.Point3D{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 100}}
	arcs := ArcLengths([]geomodel.Point2D{pts[0].Flat(), pts[1].Flat()})
	mid := arcs[1] / 2
	z := InterpolateZ(pts, mid)
	if !approxEqual(z, 50, 1) {
		t.Errorf("InterpolateZ(midpoint) = %f, want ~50", z)
	}
}
