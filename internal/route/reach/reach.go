// Package reach answers the Route Enumerator's two bounded-search
// questions: "which vertices sit within a distance window of an anchor"
// (anchor-based true-loop destination discovery, spec.md §4.7) and
// "which simple paths from a set of start vertices stay within a
// distance window" (point-to-point search, same section).
//
// The distance-window walk is adapted from the teacher toolkit's
// bfs.BFS: the same enqueue/visit/dequeue walker shape, generalized
// from an unweighted hop-count frontier to a weighted distance
// frontier ordered by a min-heap, since the routable graph's edges
// carry real-world lengths rather than unit weight.
package reach

import (
	"container/heap"
	"sort"

	"github.com/carthorse/carthorse/internal/routegraph"
)

// Candidate is one vertex found within a queried distance window, along
// with the edge used to first reach it and the cumulative distance.
type Candidate struct {
	VertexID   int64
	ViaEdge    int64
	DistanceKM float64
}

type frontierItem struct {
	id   int64
	dist float64
}

type frontierPQ []*frontierItem

func (pq frontierPQ) Len() int            { return len(pq) }
func (pq frontierPQ) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq frontierPQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *frontierPQ) Push(x interface{}) { *pq = append(*pq, x.(*frontierItem)) }
func (pq *frontierPQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// WithinWindow walks outward from start in order of increasing distance
// and returns every vertex whose shortest distance from start falls in
// [minKM, maxKM], ascending by distance. It stops expanding past a
// vertex once maxKM is exceeded, the same early-stop the teacher's
// Dijkstra applies via MaxDistance.
func WithinWindow(g *routegraph.Graph, start int64, minKM, maxKM float64) []Candidate {
	dist := map[int64]float64{start: 0}
	viaEdge := map[int64]int64{}
	visited := map[int64]bool{}

	pq := make(frontierPQ, 0, 16)
	heap.Init(&pq)
	heap.Push(&pq, &frontierItem{id: start, dist: 0})

	var out []Candidate
	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*frontierItem)
		u, d := item.id, item.dist
		if visited[u] {
			continue
		}
		visited[u] = true
		if d > maxKM {
			continue
		}
		if u != start && d >= minKM {
			out = append(out, Candidate{VertexID: u, ViaEdge: viaEdge[u], DistanceKM: d})
		}

		for _, edgeID := range g.IncidentEdges(u) {
			e, ok := g.Edge(edgeID)
			if !ok {
				continue
			}
			v := g.Other(edgeID, u)
			w := e.Cost
			if v == e.Source && u == e.Target {
				w = e.ReverseCost
			}
			newDist := d + w
			if newDist > maxKM {
				continue
			}
			if existing, ok := dist[v]; ok && newDist >= existing {
				continue
			}
			dist[v] = newDist
			viaEdge[v] = edgeID
			heap.Push(&pq, &frontierItem{id: v, dist: newDist})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKM < out[j].DistanceKM })
	return out
}

// Connected reports whether target is reachable from start at all,
// ignoring any distance window.
func Connected(g *routegraph.Graph, start, target int64) bool {
	if start == target {
		return true
	}
	visited := map[int64]bool{start: true}
	queue := []int64{start}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, edgeID := range g.IncidentEdges(u) {
			v := g.Other(edgeID, u)
			if v == target {
				return true
			}
			if !visited[v] {
				visited[v] = true
				queue = append(queue, v)
			}
		}
	}
	return false
}
