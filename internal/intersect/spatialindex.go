// Package intersect implements the Intersection Resolver: it detects true
// crossings, Y/T touches, near-miss endpoints, and multi-point
// intersections between trail pairs, and emits an ordered set of split
// instructions per trail plus a set of near-miss pairs for the Bridger.
package intersect

import "github.com/carthorse/carthorse/internal/geomodel"

// SpatialIndex is a bbox-only candidate-pair pre-filter: a flat list of
// (bbox, index) entries scanned pairwise. It avoids the O(n^2) geometric
// intersection test for pairs whose expanded bounding boxes don't even
// overlap, the same role a proper r-tree would play at regional scale.
type SpatialIndex struct {
	entries []indexEntry
}

type indexEntry struct {
	box   geomodel.BBox
	index int
}

// BuildSpatialIndex indexes n trails' (tolerance-expanded) bounding boxes.
func BuildSpatialIndex(boxes []geomodel.BBox, toleranceDeg float64) *SpatialIndex {
	idx := &SpatialIndex{entries: make([]indexEntry, len(boxes))}
	for i, b := range boxes {
		idx.entries[i] = indexEntry{box: b.ExpandByDegrees(toleranceDeg), index: i}
	}
	return idx
}

// CandidatePairs returns every pair of indices (i < j) whose expanded boxes
// overlap. The exact geometric check still happens downstream; this only
// prunes pairs that cannot possibly intersect.
func (idx *SpatialIndex) CandidatePairs() [][2]int {
	var out [][2]int
	for i := 0; i < len(idx.entries); i++ {
		for j := i + 1; j < len(idx.entries); j++ {
			if idx.entries[i].box.Intersects(idx.entries[j].box) {
				out = append(out, [2]int{idx.entries[i].index, idx.entries[j].index})
			}
		}
	}
	return out
}
