package reach

import "github.com/carthorse/carthorse/internal/routegraph"

// Walk is one accumulated path produced by BoundedPointToPoint.
type Walk struct {
	VertexIDs  []int64
	EdgeIDs    []int64
	DistanceKM float64
}

// BoundedPointToPoint implements the point-to-point search's recursive
// bounded DFS (spec.md §4.7): starting from each vertex in starts, it
// extends the walk edge by edge, pruning any branch whose running total
// exceeds maxKM or whose depth exceeds maxDepth, and records every walk
// whose final total falls in [minKM, maxKM].
func BoundedPointToPoint(g *routegraph.Graph, starts []int64, minKM, maxKM float64, maxDepth int) []Walk {
	var out []Walk
	for _, s := range starts {
		visitVertex := map[int64]bool{s: true}
		walk(g, s, []int64{s}, nil, 0, minKM, maxKM, maxDepth, visitVertex, &out)
	}
	return out
}

func walk(
	g *routegraph.Graph,
	current int64,
	vertexPath, edgePath []int64,
	distKM, minKM, maxKM float64,
	remainingDepth int,
	visited map[int64]bool,
	out *[]Walk,
) {
	if distKM >= minKM && len(edgePath) > 0 {
		*out = append(*out, Walk{
			VertexIDs:  append([]int64(nil), vertexPath...),
			EdgeIDs:    append([]int64(nil), edgePath...),
			DistanceKM: distKM,
		})
	}
	if remainingDepth <= 0 {
		return
	}

	for _, edgeID := range g.IncidentEdges(current) {
		e, ok := g.Edge(edgeID)
		if !ok {
			continue
		}
		next := g.Other(edgeID, current)
		if visited[next] {
			continue
		}
		w := e.Cost
		if next == e.Source && current == e.Target {
			w = e.ReverseCost
		}
		nextDist := distKM + w
		if nextDist > maxKM {
			continue
		}

		visited[next] = true
		walk(g, next, append(vertexPath, next), append(edgePath, edgeID), nextDist, minKM, maxKM, remainingDepth-1, visited, out)
		delete(visited, next)
	}
}
