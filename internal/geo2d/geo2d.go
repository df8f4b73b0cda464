// Package geo2d implements the planar geometry primitives the pipeline's
// spatial stages share: geodesic distance, segment intersection, arc-length
// projection, polyline simplification, and simple-polygon testing. The
// planar functions operate on geomodel.Point2D; elevation is looked up separately
// by the caller via arc-length interpolation, per the "avoid entangling
// elevation with planar ops" design note.
package geo2d

import (
	"math"

	"github.com/carthorse/carthorse/internal/geomodel"
)

// earthRadiusM is the mean Earth radius used for haversine distance.
const earthRadiusM = 6371008.8

// MetersToDegrees converts a metric tolerance to an approximate degrees
// value usable as a coarse bbox pre-filter at the given latitude. It
// over-estimates slightly near the poles, which is the conservative
// direction for a pre-filter (false positives are cheap, false negatives
// would silently drop real candidates).
func MetersToDegrees(meters, atLat float64) float64 {
	latDeg := meters / 111320.0
	cos := math.Cos(atLat * math.Pi / 180)
	if cos < 0.01 {
		cos = 0.01
	}
	lngDeg := meters / (111320.0 * cos)
	if lngDeg > latDeg {
		return lngDeg
	}
	return latDeg
}

// HaversineMeters computes the great-circle distance between two WGS84
// points in meters.
func HaversineMeters(a, b geomodel.Point2D) float64 {
	lat1 := a.Y * math.Pi / 180
	lat2 := b.Y * math.Pi / 180
	dLat := (b.Y - a.Y) * math.Pi / 180
	dLng := (b.X - a.X) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLng := math.Sin(dLng / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusM * c
}

// PolylineLengthKM sums geodesic distance across consecutive points,
// returning kilometers.
func PolylineLengthKM(pts []geomodel.Point2D) float64 {
	if len(pts) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(pts); i++ {
		total += HaversineMeters(pts[i-1], pts[i])
	}
	return total / 1000.0
}

// ArcLengths returns the cumulative arc-length (meters, from the start) at
// each vertex of the polyline. len(result) == len(pts).
func ArcLengths(pts []geomodel.Point2D) []float64 {
	out := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		out[i] = out[i-1] + HaversineMeters(pts[i-1], pts[i])
	}
	return out
}

// ElevationGainLoss walks a 3D polyline and sums positive/negative z deltas
// between consecutive points, in the polyline's stored direction of travel.
func ElevationGainLoss(pts []geomodel.Point3D) (gain, loss float64) {
	for i := 1; i < len(pts); i++ {
		d := pts[i].Z - pts[i-1].Z
		if d > 0 {
			gain += d
		} else {
			loss += -d
		}
	}
	return gain, loss
}

// ElevationMinMaxAvg scans the z-values of a 3D polyline.
func ElevationMinMaxAvg(pts []geomodel.Point3D) (min, max, avg float64) {
	if len(pts) == 0 {
		return 0, 0, 0
	}
	min = pts[0].Z
	max = pts[0].Z
	var sum float64
	for _, p := range pts {
		if p.Z < min {
			min = p.Z
		}
		if p.Z > max {
			max = p.Z
		}
		sum += p.Z
	}
	return min, max, sum / float64(len(pts))
}

// Segment is a single 2D line segment identified by the polyline index of
// its start point.
type Segment struct {
	A, B geomodel.Point2D
	// Index is the position of A within the owning polyline.
	Index int
}

// Segments returns every consecutive (A,B) segment of a polyline.
func Segments(pts []geomodel.Point2D) []Segment {
	if len(pts) < 2 {
		return nil
	}
	out := make([]Segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		out = append(out, Segment{A: pts[i], B: pts[i+1], Index: i})
	}
	return out
}

// orient2D returns the signed area of the triangle (a,b,c); sign gives the
// turn direction, zero means collinear.
func orient2D(a, b, c geomodel.Point2D) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p geomodel.Point2D) bool {
	return math.Min(a.X, b.X)-1e-12 <= p.X && p.X <= math.Max(a.X, b.X)+1e-12 &&
		math.Min(a.Y, b.Y)-1e-12 <= p.Y && p.Y <= math.Max(a.Y, b.Y)+1e-12
}

// SegmentIntersection reports whether segments (a1,a2) and (b1,b2) cross or
// touch, and if so, returns the intersection point (or, for an overlapping
// collinear pair, one representative point) and whether it is a single
// proper interior point.
func SegmentIntersection(a1, a2, b1, b2 geomodel.Point2D) (pt geomodel.Point2D, ok bool, proper bool) {
	d1 := orient2D(b1, b2, a1)
	d2 := orient2D(b1, b2, a2)
	d3 := orient2D(a1, a2, b1)
	d4 := orient2D(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		// Proper crossing: solve the line-line intersection directly.
		denom := (a2.X-a1.X)*(b2.Y-b1.Y) - (a2.Y-a1.Y)*(b2.X-b1.X)
		if denom == 0 {
			return geomodel.Point2D{}, false, false
		}
		t := ((b1.X-a1.X)*(b2.Y-b1.Y) - (b1.Y-a1.Y)*(b2.X-b1.X)) / denom
		pt = geomodel.Point2D{X: a1.X + t*(a2.X-a1.X), Y: a1.Y + t*(a2.Y-a1.Y)}
		return pt, true, true
	}

	// Collinear/touching special cases.
	if d1 == 0 && onSegment(b1, b2, a1) {
		return a1, true, false
	}
	if d2 == 0 && onSegment(b1, b2, a2) {
		return a2, true, false
	}
	if d3 == 0 && onSegment(a1, a2, b1) {
		return b1, true, false
	}
	if d4 == 0 && onSegment(a1, a2, b2) {
		return b2, true, false
	}

	return geomodel.Point2D{}, false, false
}

// IsSimple reports whether a polyline's 2D representation is simple: it
// returns false as soon as any two non-adjacent segments cross or touch.
// Adjacent segments sharing an endpoint are not considered a
// self-intersection.
func IsSimple(pts []geomodel.Point2D) bool {
	segs := Segments(pts)
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			if j == i+1 {
				// Adjacent segments share an endpoint by construction; skip.
				continue
			}
			if _, ok, _ := SegmentIntersection(segs[i].A, segs[i].B, segs[j].A, segs[j].B); ok {
				return false
			}
		}
	}
	return true
}

// ClosestPointOnSegment projects p onto segment (a,b) and returns the
// closest point plus the parametric position t in [0,1].
func ClosestPointOnSegment(p, a, b geomodel.Point2D) (geomodel.Point2D, float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a, 0
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return geomodel.Point2D{X: a.X + t*dx, Y: a.Y + t*dy}, t
}

// ProjectPoint finds the closest point on a polyline to p, returning that
// point, the segment index it falls on, the parametric position on that
// segment, and the geodesic distance from p.
func ProjectPoint(pts []geomodel.Point2D, p geomodel.Point2D) (proj geomodel.Point2D, segIndex int, t float64, distM float64) {
	best := math.Inf(1)
	for i := 0; i < len(pts)-1; i++ {
		cand, ct := ClosestPointOnSegment(p, pts[i], pts[i+1])
		d := HaversineMeters(p, cand)
		if d < best {
			best = d
			proj = cand
			segIndex = i
			t = ct
		}
	}
	return proj, segIndex, t, best
}

// ArcLengthAtProjection returns the arc-length position (meters from start)
// of a point known to sit on segment segIndex at parametric position t.
func ArcLengthAtProjection(pts []geomodel.Point2D, segIndex int, t float64) float64 {
	arc := ArcLengths(pts)
	segLen := HaversineMeters(pts[segIndex], pts[segIndex+1])
	return arc[segIndex] + t*segLen
}

// Simplify runs Douglas-Peucker simplification with tolerance (meters)
// measured via geodesic distance from the simplified chord.
func Simplify(pts []geomodel.Point2D, toleranceM float64) []geomodel.Point2D {
	if len(pts) < 3 || toleranceM <= 0 {
		return pts
	}
	keep := make([]bool, len(pts))
	keep[0] = true
	keep[len(pts)-1] = true
	simplifyRange(pts, 0, len(pts)-1, toleranceM, keep)

	out := make([]geomodel.Point2D, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

func simplifyRange(pts []geomodel.Point2D, lo, hi int, tol float64, keep []bool) {
	if hi <= lo+1 {
		return
	}
	var maxDist float64
	maxIdx := -1
	for i := lo + 1; i < hi; i++ {
		d := perpendicularDistanceM(pts[i], pts[lo], pts[hi])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxIdx == -1 || maxDist <= tol {
		return
	}
	keep[maxIdx] = true
	simplifyRange(pts, lo, maxIdx, tol, keep)
	simplifyRange(pts, maxIdx, hi, tol, keep)
}

// perpendicularDistanceM approximates the perpendicular distance (meters)
// from p to the chord (a,b) using the projection onto the segment.
func perpendicularDistanceM(p, a, b geomodel.Point2D) float64 {
	cand, _ := ClosestPointOnSegment(p, a, b)
	return HaversineMeters(p, cand)
}

// InterpolateZ linearly interpolates the elevation of a point known to sit
// a given arc-length along a 3D polyline.
func InterpolateZ(pts []geomodel.Point3D, arcLenM float64) float64 {
	flat := make([]geomodel.Point2D, len(pts))
	for i, p := range pts {
		flat[i] = p.Flat()
	}
	arcs := ArcLengths(flat)
	if arcLenM <= arcs[0] {
		return pts[0].Z
	}
	if arcLenM >= arcs[len(arcs)-1] {
		return pts[len(pts)-1].Z
	}
	for i := 1; i < len(arcs); i++ {
		if arcLenM <= arcs[i] {
			segLen := arcs[i] - arcs[i-1]
			if segLen == 0 {
				return pts[i-1].Z
			}
			t := (arcLenM - arcs[i-1]) / segLen
			return pts[i-1].Z + t*(pts[i].Z-pts[i-1].Z)
		}
	}
	return pts[len(pts)-1].Z
}
