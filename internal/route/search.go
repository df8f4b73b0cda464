package route

import (
	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/route/cycles"
	"github.com/carthorse/carthorse/internal/route/ksp"
	"github.com/carthorse/carthorse/internal/route/reach"
	"github.com/carthorse/carthorse/internal/routegraph"
)

const (
	trueLoopMaxOverlapDefault = 0.30
	pointToPointMinFraction   = 0.30
)

// searchLoops implements spec.md §4.7's loop search: Hawick-style
// elementary-cycle enumeration up to a cost cap, plus anchor-based
// true-loop construction from shortest-outbound/top-K-return pairs.
func searchLoops(g *routegraph.Graph, p geomodel.Pattern, kspK int, maxOverlap float64) []draft {
	if maxOverlap <= 0 {
		maxOverlap = trueLoopMaxOverlapDefault
	}
	lo := p.TargetKM * (1 - p.TolerancePct/100)
	hi := p.TargetKM * (1 + p.TolerancePct/100)

	var drafts []draft

	for _, c := range cycles.Enumerate(g, hi) {
		if c.DistanceKM < lo || c.DistanceKM > hi {
			continue
		}
		drafts = append(drafts, draft{shape: geomodel.ShapeLoop, edgeIDs: c.EdgeIDs, anchorVertex: c.VertexIDs[0]})
	}

	for _, anchor := range g.AnchorVertices() {
		for _, dest := range reach.WithinWindow(g, anchor, p.TargetKM*0.2, p.TargetKM*0.8) {
			outbound := ksp.KShortestPaths(g, anchor, dest.VertexID, 1)
			if len(outbound) == 0 {
				continue
			}
			returns := ksp.KShortestPaths(g, dest.VertexID, anchor, kspK)
			if len(returns) == 0 {
				continue
			}

			bestIdx := -1
			bestOverlap := 1.0
			for i, r := range returns {
				ov := overlapFraction(outbound[0].EdgeIDs, r.EdgeIDs)
				if ov < bestOverlap {
					bestOverlap = ov
					bestIdx = i
				}
			}
			if bestIdx < 0 || bestOverlap >= maxOverlap {
				continue
			}

			edgeIDs := append(append([]int64(nil), outbound[0].EdgeIDs...), returns[bestIdx].EdgeIDs...)
			total := outbound[0].DistanceKM + returns[bestIdx].DistanceKM
			if total < lo || total > hi {
				continue
			}
			drafts = append(drafts, draft{shape: geomodel.ShapeLoop, edgeIDs: edgeIDs, anchorVertex: anchor})
		}
	}

	return drafts
}

// searchOutAndBack implements spec.md §4.7's out-and-back search: shortest
// path from an anchor to a destination at roughly target/2, doubled back
// along the same edges in reverse.
func searchOutAndBack(g *routegraph.Graph, p geomodel.Pattern) []draft {
	half := p.TargetKM / 2
	tol := half * (p.TolerancePct / 100)

	var drafts []draft
	for _, anchor := range g.AnchorVertices() {
		for _, dest := range reach.WithinWindow(g, anchor, half-tol, half+tol) {
			out := ksp.KShortestPaths(g, anchor, dest.VertexID, 1)
			if len(out) == 0 {
				continue
			}
			edgeIDs := append(append([]int64(nil), out[0].EdgeIDs...), reverseInts(out[0].EdgeIDs)...)
			drafts = append(drafts, draft{shape: geomodel.ShapeOutAndBack, edgeIDs: edgeIDs, anchorVertex: anchor})
		}
	}
	return drafts
}

// searchPointToPoint implements spec.md §4.7's point-to-point search:
// bounded DFS from every intersection vertex, pruned to
// [30%×target, target×(1+tol)].
func searchPointToPoint(g *routegraph.Graph, p geomodel.Pattern) []draft {
	var starts []int64
	for _, id := range g.VertexIDs() {
		v, ok := g.Vertex(id)
		if ok && v.Classification == geomodel.VertexIntersection {
			starts = append(starts, id)
		}
	}

	minKM := p.TargetKM * pointToPointMinFraction
	maxKM := p.TargetKM * (1 + p.TolerancePct/100)
	maxDepth := p.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 12
	}

	var drafts []draft
	for _, w := range reach.BoundedPointToPoint(g, starts, minKM, maxKM, maxDepth) {
		drafts = append(drafts, draft{
			shape:        geomodel.ShapePointToPoint,
			edgeIDs:      w.EdgeIDs,
			anchorVertex: w.VertexIDs[0],
		})
	}
	return drafts
}
