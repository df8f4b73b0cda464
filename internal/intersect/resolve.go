package intersect

import (
	"github.com/google/uuid"

	"github.com/carthorse/carthorse/internal/geo2d"
	"github.com/carthorse/carthorse/internal/geomodel"
)

// Resolve implements the Intersection Resolver's single-pass detection
// rule over every candidate trail pair (spec.md §4.2). Candidate pairs are
// pre-filtered by a tolerance-expanded bounding-box index so the pass
// doesn't degrade to O(n^2) exact geometry checks on large regions. The
// index is expanded to the wider of toleranceDeg and nearMissToleranceDeg
// so a pair only close enough to bridge, not to cross, still surfaces as a
// candidate.
func Resolve(trails []geomodel.Trail, toleranceM, toleranceDeg, nearMissToleranceM, nearMissToleranceDeg float64) Result {
	result := Result{Instructions: make(map[uuid.UUID][]SplitInstruction)}
	if len(trails) < 2 {
		return result
	}

	indexToleranceDeg := toleranceDeg
	if nearMissToleranceDeg > indexToleranceDeg {
		indexToleranceDeg = nearMissToleranceDeg
	}

	boxes := make([]geomodel.BBox, len(trails))
	for i, t := range trails {
		boxes[i] = t.BBox
	}
	idx := BuildSpatialIndex(boxes, indexToleranceDeg)

	for _, pair := range idx.CandidatePairs() {
		a, b := trails[pair[0]], trails[pair[1]]
		flatA, flatB := a.Geometry.Flat(), b.Geometry.Flat()

		res := classify(flatA, flatB, toleranceM, nearMissToleranceM)

		switch {
		case len(res.trueCrossings) == 1:
			pt := res.trueCrossings[0]
			addSplit(&result, a, pt, toleranceM)
			addSplit(&result, b, pt, toleranceM)
		case len(res.trueCrossings) >= 2:
			for _, pt := range res.trueCrossings {
				addSplit(&result, a, pt, toleranceM)
				addSplit(&result, b, pt, toleranceM)
			}
		}

		for _, touch := range res.yt {
			if touch.visitedIsA {
				addSplit(&result, a, touch.point, toleranceM)
			} else {
				addSplit(&result, b, touch.point, toleranceM)
			}
		}

		for _, nm := range res.nearMiss {
			result.NearMiss = append(result.NearMiss, NearMissPair{
				TrailA: a.ID, TrailB: b.ID,
				AEndIsStart: nm.aEndIsStart, BEndIsStart: nm.bEndIsStart,
				DistanceM: nm.distanceM,
			})
		}
	}

	return result
}

// addSplit projects a 2D intersection point onto trail t's geometry to
// recover its arc-length position and interpolated elevation, then records
// a SplitInstruction for t.
func addSplit(result *Result, t geomodel.Trail, pt geomodel.Point2D, toleranceM float64) {
	flat := t.Geometry.Flat()
	_, segIndex, param, _ := geo2d.ProjectPoint(flat, pt)
	arc := geo2d.ArcLengthAtProjection(flat, segIndex, param)

	// Discard split points within tolerance of a trail endpoint; the
	// endpoint already acts as a node (spec.md §4.2).
	arcs := geo2d.ArcLengths(flat)
	total := arcs[len(arcs)-1]
	if arc <= toleranceM || total-arc <= toleranceM {
		return
	}

	z := geo2d.InterpolateZ(t.Geometry.Points, arc)
	result.Instructions[t.ID] = append(result.Instructions[t.ID], SplitInstruction{
		ArcLengthM: arc,
		Point:      geomodel.Point3D{X: pt.X, Y: pt.Y, Z: z},
	})
}
