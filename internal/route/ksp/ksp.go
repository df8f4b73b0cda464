// Package ksp finds the K shortest loopless paths between two vertices of
// a routable graph. It is adapted from the teacher toolkit's heap-based
// Dijkstra (dijkstra.Dijkstra): the same lazy-decrease-key min-heap core,
// generalized from a single-source all-distances run to a single
// source-to-target run that also returns the predecessor chain, then
// wrapped in Yen's algorithm to produce K alternatives by repeatedly
// removing the root path's edges/vertices and re-running the core.
//
// Anchor-based true-loop search (spec.md §4.7) uses this package as its
// "forward path plus top-K alternative return paths" primitive: the
// region-sized graphs here never need the bidirectional contraction
// hierarchy the corpus's larger router example builds, so a plain
// single-direction KSP is enough.
package ksp

import (
	"container/heap"
	"sort"

	"github.com/carthorse/carthorse/internal/routegraph"
)

// Path is one source-to-target path through the graph.
type Path struct {
	VertexIDs  []int64
	EdgeIDs    []int64
	DistanceKM float64
}

// nodeItem is a (vertex, distance) pair ordered by ascending distance, the
// same shape the teacher's Dijkstra heap entries use.
type nodeItem struct {
	id   int64
	dist float64
}

type nodePQ []*nodeItem

func (pq nodePQ) Len() int            { return len(pq) }
func (pq nodePQ) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq nodePQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *nodePQ) Push(x interface{}) { *pq = append(*pq, x.(*nodeItem)) }
func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// shortestPath runs a lazy-decrease-key Dijkstra from source to target,
// skipping any edge id in bannedEdges and any vertex id (other than source
// and target themselves) in bannedVertices. It mirrors the teacher's
// runner.process/relax split but stops early once target is finalized and
// returns the reconstructed path rather than the full distance map.
func shortestPath(g *routegraph.Graph, source, target int64, bannedEdges, bannedVertices map[int64]bool) (Path, bool) {
	dist := map[int64]float64{source: 0}
	prevVertex := map[int64]int64{}
	prevEdge := map[int64]int64{}
	visited := map[int64]bool{}

	pq := make(nodePQ, 0, 16)
	heap.Init(&pq)
	heap.Push(&pq, &nodeItem{id: source, dist: 0})

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*nodeItem)
		u, d := item.id, item.dist
		if visited[u] {
			continue
		}
		visited[u] = true
		if u == target {
			break
		}

		for _, edgeID := range g.IncidentEdges(u) {
			if bannedEdges[edgeID] {
				continue
			}
			e, ok := g.Edge(edgeID)
			if !ok {
				continue
			}
			v := g.Other(edgeID, u)
			if v != target && bannedVertices[v] {
				continue
			}
			w := e.Cost
			if v == e.Source && u == e.Target {
				w = e.ReverseCost
			}
			newDist := d + w
			if existing, ok := dist[v]; ok && newDist >= existing {
				continue
			}
			dist[v] = newDist
			prevVertex[v] = u
			prevEdge[v] = edgeID
			heap.Push(&pq, &nodeItem{id: v, dist: newDist})
		}
	}

	if !visited[target] {
		return Path{}, false
	}

	var vertexPath []int64
	var edgePath []int64
	for v := target; ; {
		vertexPath = append([]int64{v}, vertexPath...)
		if v == source {
			break
		}
		edgePath = append([]int64{prevEdge[v]}, edgePath...)
		v = prevVertex[v]
	}

	return Path{VertexIDs: vertexPath, EdgeIDs: edgePath, DistanceKM: dist[target]}, true
}

// KShortestPaths returns up to k loopless shortest paths from source to
// target, ordered by ascending distance, using Yen's algorithm over the
// shortestPath core above.
func KShortestPaths(g *routegraph.Graph, source, target int64, k int) []Path {
	if k <= 0 || source == target {
		return nil
	}

	first, ok := shortestPath(g, source, target, nil, nil)
	if !ok {
		return nil
	}
	found := []Path{first}

	type candidate struct {
		path Path
	}
	var candidates []candidate
	seen := map[string]bool{pathKey(first): true}

	for len(found) < k {
		prev := found[len(found)-1]
		for i := 0; i < len(prev.VertexIDs)-1; i++ {
			spurNode := prev.VertexIDs[i]
			rootVertices := append([]int64(nil), prev.VertexIDs[:i+1]...)
			rootEdges := append([]int64(nil), prev.EdgeIDs[:i]...)

			bannedEdges := map[int64]bool{}
			for _, p := range found {
				if len(p.VertexIDs) > i && samePrefix(p.VertexIDs[:i+1], rootVertices) {
					if i < len(p.EdgeIDs) {
						bannedEdges[p.EdgeIDs[i]] = true
					}
				}
			}
			bannedVertices := map[int64]bool{}
			for _, v := range rootVertices[:len(rootVertices)-1] {
				bannedVertices[v] = true
			}

			spurPath, ok := shortestPath(g, spurNode, target, bannedEdges, bannedVertices)
			if !ok {
				continue
			}

			totalVertices := append(append([]int64(nil), rootVertices[:len(rootVertices)-1]...), spurPath.VertexIDs...)
			totalEdges := append(append([]int64(nil), rootEdges...), spurPath.EdgeIDs...)
			rootDist := pathDistance(g, rootVertices, rootEdges)
			total := Path{VertexIDs: totalVertices, EdgeIDs: totalEdges, DistanceKM: rootDist + spurPath.DistanceKM}

			key := pathKey(total)
			if seen[key] {
				continue
			}
			seen[key] = true
			candidates = append(candidates, candidate{path: total})
		}

		if len(candidates) == 0 {
			break
		}
		sort.Slice(candidates, func(a, b int) bool { return candidates[a].path.DistanceKM < candidates[b].path.DistanceKM })
		next := candidates[0].path
		candidates = candidates[1:]
		found = append(found, next)
	}

	return found
}

// pathDistance sums edge weights along a vertex/edge sequence, using the
// reverse cost whenever the sequence traverses an edge target-to-source.
func pathDistance(g *routegraph.Graph, vertices, edges []int64) float64 {
	var total float64
	for i, edgeID := range edges {
		e, ok := g.Edge(edgeID)
		if !ok {
			continue
		}
		u := vertices[i]
		if u == e.Source {
			total += e.Cost
		} else {
			total += e.ReverseCost
		}
	}
	return total
}

func samePrefix(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func pathKey(p Path) string {
	out := make([]byte, 0, len(p.VertexIDs)*8)
	for _, v := range p.VertexIDs {
		out = append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), ',')
	}
	return string(out)
}
