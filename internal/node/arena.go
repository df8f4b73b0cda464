// Package node implements the Noder & Topology Builder stage: it collapses
// trail geometries into a planar-noded, topology-consistent vertex/edge
// set suitable for graph routing.
//
// The routable graph is represented as two dense arenas addressed by
// integer id rather than a pointer-linked structure — the "arena + index"
// design adapted from the teacher toolkit's core.Graph, generalized from
// string-keyed vertices/edges guarded by separate RWMutexes to int64-keyed
// dense slices built once per pipeline run and then read-only.
package node

import (
	"sync"

	"github.com/carthorse/carthorse/internal/geomodel"
)

// VertexArena is a dense, thread-safe store of vertices addressed by id.
type VertexArena struct {
	mu    sync.RWMutex
	items []geomodel.Vertex
}

// NewVertexArena builds an arena from a slice already in id order (index i
// must have ID == int64(i)).
func NewVertexArena(vertices []geomodel.Vertex) *VertexArena {
	return &VertexArena{items: vertices}
}

// Len returns the number of vertices.
func (a *VertexArena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// Get returns the vertex at id, and whether id was in range.
func (a *VertexArena) Get(id int64) (geomodel.Vertex, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id < 0 || int(id) >= len(a.items) {
		return geomodel.Vertex{}, false
	}
	return a.items[id], true
}

// SetDegree updates the degree of vertex id in place.
func (a *VertexArena) SetDegree(id int64, degree int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items[id].Degree = degree
}

// All returns a copy of every vertex, in id order.
func (a *VertexArena) All() []geomodel.Vertex {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]geomodel.Vertex(nil), a.items...)
}

// EdgeArena is a dense, thread-safe store of edges addressed by id.
type EdgeArena struct {
	mu    sync.RWMutex
	items []geomodel.Edge
}

// NewEdgeArena builds an arena from a slice already in id order.
func NewEdgeArena(edges []geomodel.Edge) *EdgeArena {
	return &EdgeArena{items: edges}
}

// Len returns the number of edges.
func (a *EdgeArena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// Get returns the edge at id, and whether id was in range.
func (a *EdgeArena) Get(id int64) (geomodel.Edge, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id < 0 || int(id) >= len(a.items) {
		return geomodel.Edge{}, false
	}
	return a.items[id], true
}

// All returns a copy of every edge, in id order.
func (a *EdgeArena) All() []geomodel.Edge {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]geomodel.Edge(nil), a.items...)
}

// Incident returns the ids of every edge referencing vertexID as source or
// target.
func (a *EdgeArena) Incident(vertexID int64) []int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []int64
	for _, e := range a.items {
		if e.Source == vertexID || e.Target == vertexID {
			out = append(out, e.ID)
		}
	}
	return out
}
