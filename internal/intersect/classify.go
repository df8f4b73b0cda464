package intersect

import (
	"github.com/carthorse/carthorse/internal/geo2d"
	"github.com/carthorse/carthorse/internal/geomodel"
)

// endpointSnapToleranceM is the distance below which a point is considered
// "at" a trail endpoint rather than in its interior (spec.md §4.2's Y/T
// rule: "distance > 1m").
const endpointSnapToleranceM = 1.0

// pairResult is everything classify can conclude about one trail pair.
type pairResult struct {
	trueCrossings  []geomodel.Point2D
	yt             []ytTouch
	nearMiss       []nearMissTouch
}

type ytTouch struct {
	// visitedIsA: true if A's interior hosts B's endpoint; false if B's
	// interior hosts A's endpoint.
	visitedIsA bool
	point      geomodel.Point2D
}

type nearMissTouch struct {
	aEndIsStart bool
	bEndIsStart bool
	distanceM   float64
}

// classify implements the five-category detection rule of spec.md §4.2 for
// a single trail pair, given their flattened 2D geometry. toleranceM governs
// true-crossing/Y-T detection; nearMissToleranceM is the separate, wider
// radius near-miss endpoints are searched within — the Bridger's own radius,
// not the intersection tolerance, since a repairable near-miss is routinely
// farther apart than two trails that actually cross.
func classify(a, b []geomodel.Point2D, toleranceM, nearMissToleranceM float64) pairResult {
	var res pairResult

	segsA := geo2d.Segments(a)
	segsB := geo2d.Segments(b)

	for _, sa := range segsA {
		for _, sb := range segsB {
			pt, ok, proper := geo2d.SegmentIntersection(sa.A, sa.B, sb.A, sb.B)
			if !ok {
				continue
			}
			if proper {
				if !nearEndpoint(pt, a, toleranceM) && !nearEndpoint(pt, b, toleranceM) {
					res.trueCrossings = append(res.trueCrossings, pt)
				}
			}
		}
	}

	checkEndpointOnInterior(a, b, toleranceM, true, &res)
	checkEndpointOnInterior(b, a, toleranceM, false, &res)

	checkNearMiss(a, b, nearMissToleranceM, &res)

	return res
}

// checkEndpointOnInterior checks whether either endpoint of "visiting" lies
// within tolerance of "hosted"'s interior (not near one of hosted's own
// endpoints), recording a Y/T touch when so. visitingIsA tags which side of
// the original pair "visiting" is, so the caller can split the right trail.
func checkEndpointOnInterior(visiting, hosted []geomodel.Point2D, toleranceM float64, visitingIsA bool, res *pairResult) {
	ends := []geomodel.Point2D{visiting[0], visiting[len(visiting)-1]}
	for _, end := range ends {
		proj, _, _, dist := geo2d.ProjectPoint(hosted, end)
		if dist > toleranceM {
			continue
		}
		if nearEndpoint(proj, hosted, endpointSnapToleranceM) {
			continue
		}
		res.yt = append(res.yt, ytTouch{visitedIsA: !visitingIsA, point: proj})
	}
}

func checkNearMiss(a, b []geomodel.Point2D, toleranceM float64, res *pairResult) {
	aEnds := [2]geomodel.Point2D{a[0], a[len(a)-1]}
	bEnds := [2]geomodel.Point2D{b[0], b[len(b)-1]}
	for ai, ap := range aEnds {
		for bi, bp := range bEnds {
			d := geo2d.HaversineMeters(ap, bp)
			if d <= toleranceM {
				res.nearMiss = append(res.nearMiss, nearMissTouch{
					aEndIsStart: ai == 0,
					bEndIsStart: bi == 0,
					distanceM:   d,
				})
			}
		}
	}
}

func nearEndpoint(p geomodel.Point2D, poly []geomodel.Point2D, toleranceM float64) bool {
	return geo2d.HaversineMeters(p, poly[0]) <= toleranceM ||
		geo2d.HaversineMeters(p, poly[len(poly)-1]) <= toleranceM
}
