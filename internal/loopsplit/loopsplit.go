// Package loopsplit implements the Loop-Splitting Helper: it turns a
// self-intersecting (or near-closed) single trail into two simple polyline
// children by splitting at the apex — the vertex farthest in geodesic
// distance from the start point.
package loopsplit

import (
	"github.com/carthorse/carthorse/internal/geo2d"
	"github.com/carthorse/carthorse/internal/geomodel"
)

// closedRingToleranceM is the distance below which a trail's start and end
// are considered coincident (spec.md §4.8).
const closedRingToleranceM = 10.0

// NeedsSplit reports whether a trail must be handed to the helper: its 2D
// representation self-crosses, or its start and end lie within
// closedRingToleranceM of each other.
func NeedsSplit(geom geomodel.LineString) bool {
	flat := geom.Flat()
	if len(flat) < 2 {
		return false
	}
	if !geo2d.IsSimple(flat) {
		return true
	}
	return geo2d.HaversineMeters(flat[0], flat[len(flat)-1]) <= closedRingToleranceM
}

// Split computes the apex and divides geom into two contiguous children at
// that point, each retaining the shared apex vertex (so the pair remains
// connected once re-inserted as trails). Ties for farthest vertex are
// broken by earliest arc-length index, per the Intersection Resolver's
// general tie-break rule.
func Split(geom geomodel.LineString) (first, second geomodel.LineString, apexIndex int) {
	flat := geom.Flat()
	start := flat[0]

	apexIndex = 0
	best := -1.0
	for i, p := range flat {
		d := geo2d.HaversineMeters(start, p)
		if d > best {
			best = d
			apexIndex = i
		}
	}

	// A degenerate apex at either end means nothing useful can be split;
	// callers should treat this as "already simple enough" and skip.
	if apexIndex <= 0 || apexIndex >= len(geom.Points)-1 {
		return geom, geomodel.LineString{}, apexIndex
	}

	first = geomodel.LineString{Points: append([]geomodel.Point3D(nil), geom.Points[:apexIndex+1]...)}
	second = geomodel.LineString{Points: append([]geomodel.Point3D(nil), geom.Points[apexIndex:]...)}
	return first, second, apexIndex
}
