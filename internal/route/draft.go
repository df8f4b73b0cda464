package route

import (
	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/routegraph"
)

// draft is a candidate route before scoring/deduplication: a plain edge
// sequence plus the anchor it was discovered from.
type draft struct {
	shape        geomodel.RouteShape
	edgeIDs      []int64
	anchorVertex int64
}

// measure walks a draft's edges against the graph and returns the total
// distance, elevation gain, and the distinct originating trail names
// along the path, in first-seen order.
func measure(g *routegraph.Graph, d draft) (distanceKM, gainM float64, trailNames []string) {
	seen := map[string]bool{}
	for _, edgeID := range d.edgeIDs {
		e, ok := g.Edge(edgeID)
		if !ok {
			continue
		}
		distanceKM += e.LengthKM
		gainM += e.ElevGainM
		if !seen[e.OriginatingTrailName] {
			seen[e.OriginatingTrailName] = true
			trailNames = append(trailNames, e.OriginatingTrailName)
		}
	}
	return distanceKM, gainM, trailNames
}

func minEdgeID(edgeIDs []int64) int64 {
	min := edgeIDs[0]
	for _, id := range edgeIDs[1:] {
		if id < min {
			min = id
		}
	}
	return min
}

// overlapFraction is the fraction of the outbound edge set also present
// in the return edge set, the quantity spec.md §4.7's true-loop
// acceptance rule bounds.
func overlapFraction(outbound, ret []int64) float64 {
	if len(outbound) == 0 {
		return 0
	}
	in := make(map[int64]bool, len(outbound))
	for _, id := range outbound {
		in[id] = true
	}
	shared := 0
	for _, id := range ret {
		if in[id] {
			shared++
		}
	}
	return float64(shared) / float64(len(outbound))
}

func reverseInts(ids []int64) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

