// Package cycles enumerates elementary cycles of the routable graph up to
// a cost cap, implementing the "Hawick circuits" strategy of spec.md
// §4.7. It is adapted from the teacher toolkit's three-color DFS cycle
// detector (dfs.DetectCycles), generalized from "detect whether any cycle
// exists" to "record each cycle a depth-first walk closes under a distance
// budget", and from string vertex ids to the routegraph's int64 ids.
package cycles

import (
	"sort"
	"strconv"

	"github.com/carthorse/carthorse/internal/routegraph"
)

const (
	white = iota
	gray
	black
)

// Cycle is one elementary cycle found in the graph, closed (first vertex
// repeats as the last).
type Cycle struct {
	VertexIDs  []int64
	EdgeIDs    []int64
	DistanceKM float64
}

// Enumerate walks the graph depth-first from each not-yet-visited vertex
// and records every cycle closed by an edge back to a vertex still on the
// walk's path, deduplicated by canonical rotation/reversal the way the
// teacher's cycle detector canonicalizes string-keyed cycles. Every
// recorded cycle's total length is at most costCapKM. A vertex is not
// walked again once its walk finishes, so cycles formed only by combining
// recorded ones (such as the outer ring of two triangles sharing an edge)
// are not reported, and a cycle reached by a path whose length from the
// walk's start already exceeds the cap is missed.
func Enumerate(g *routegraph.Graph, costCapKM float64) []Cycle {
	state := make(map[int64]int)
	seen := make(map[string]struct{})
	var cycles []Cycle

	for _, v := range g.VertexIDs() {
		if state[v] == white {
			visit(g, v, -1, state, nil, nil, 0, costCapKM, seen, &cycles)
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return signature(cycles[i].VertexIDs) < signature(cycles[j].VertexIDs)
	})
	return cycles
}

func visit(
	g *routegraph.Graph,
	v, viaEdge int64,
	state map[int64]int,
	vertexPath, edgePath []int64,
	distKM, capKM float64,
	seen map[string]struct{},
	cycles *[]Cycle,
) {
	state[v] = gray
	vertexPath = append(vertexPath, v)

	for _, edgeID := range g.IncidentEdges(v) {
		if edgeID == viaEdge {
			continue // skip the trivial backtrack over the same edge
		}
		e, ok := g.Edge(edgeID)
		if !ok {
			continue
		}
		nbr := g.Other(edgeID, v)
		nextDist := distKM + e.LengthKM
		if nextDist > capKM {
			continue
		}

		switch state[nbr] {
		case white:
			visit(g, nbr, edgeID, state, vertexPath, append(edgePath, edgeID), nextDist, capKM, seen, cycles)
		case gray:
			idx := indexOf(vertexPath, nbr)
			if idx < 0 || len(vertexPath)-idx < 2 {
				continue
			}
			cycleEdges := append(append([]int64(nil), edgePath[idx:]...), edgeID)
			recordCycle(g, vertexPath[idx:], cycleEdges, seen, cycles)
		}
	}

	state[v] = black
}

func recordCycle(g *routegraph.Graph, vertexCycle, edgeCycle []int64, seen map[string]struct{}, cycles *[]Cycle) {
	sig := signature(vertexCycle)
	if _, ok := seen[sig]; ok {
		return
	}
	seen[sig] = struct{}{}

	var distKM float64
	for _, edgeID := range edgeCycle {
		if e, ok := g.Edge(edgeID); ok {
			distKM += e.LengthKM
		}
	}

	closed := append(append([]int64(nil), vertexCycle...), vertexCycle[0])
	*cycles = append(*cycles, Cycle{VertexIDs: closed, EdgeIDs: edgeCycle, DistanceKM: distKM})
}

func indexOf(path []int64, v int64) int {
	for i, p := range path {
		if p == v {
			return i
		}
	}
	return -1
}

// signature canonicalizes a cycle's vertex sequence by minimal rotation
// across both directions (forward and reversed), so two DFS discoveries of
// the same cycle produce the same key.
func signature(vertexCycle []int64) string {
	n := len(vertexCycle)
	best := minimalRotation(vertexCycle)
	reversed := make([]int64, n)
	for i, v := range vertexCycle {
		reversed[n-1-i] = v
	}
	if r := minimalRotation(reversed); lessSeq(r, best) {
		best = r
	}
	return joinInts(best)
}

func minimalRotation(seq []int64) []int64 {
	n := len(seq)
	best := seq
	for r := 1; r < n; r++ {
		rotated := append(append([]int64(nil), seq[r:]...), seq[:r]...)
		if lessSeq(rotated, best) {
			best = rotated
		}
	}
	return best
}

func lessSeq(a, b []int64) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func joinInts(ids []int64) string {
	out := make([]byte, 0, len(ids)*8)
	for _, id := range ids {
		out = strconv.AppendInt(out, id, 10)
		out = append(out, ',')
	}
	return string(out)
}
