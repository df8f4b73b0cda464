// Package routegraph is the routable graph the Route Enumerator searches:
// an undirected, weighted graph over geomodel.Vertex/geomodel.Edge,
// adapted from the teacher toolkit's core.Graph — the same
// separate-RWMutex-guarded adjacency design, generalized from string
// vertex ids to the dense int64 ids the Noder assigns, and built once
// per run from the workspace's vertex/edge tables rather than mutated
// interactively.
package routegraph

import (
	"sort"
	"sync"

	"github.com/carthorse/carthorse/internal/geomodel"
)

// Graph is a read-mostly adjacency view over a region's noded topology.
type Graph struct {
	muVert sync.RWMutex
	muAdj  sync.RWMutex

	vertices map[int64]geomodel.Vertex
	edges    map[int64]geomodel.Edge
	adjacency map[int64][]int64 // vertex id -> incident edge ids
}

// New builds a Graph from a region's vertex and edge tables.
func New(vertices []geomodel.Vertex, edges []geomodel.Edge) *Graph {
	g := &Graph{
		vertices:  make(map[int64]geomodel.Vertex, len(vertices)),
		edges:     make(map[int64]geomodel.Edge, len(edges)),
		adjacency: make(map[int64][]int64, len(vertices)),
	}
	for _, v := range vertices {
		g.vertices[v.ID] = v
	}
	for _, e := range edges {
		g.edges[e.ID] = e
		g.adjacency[e.Source] = append(g.adjacency[e.Source], e.ID)
		if e.Target != e.Source {
			g.adjacency[e.Target] = append(g.adjacency[e.Target], e.ID)
		}
	}
	return g
}

// VertexIDs returns every vertex id in ascending order, for deterministic
// iteration.
func (g *Graph) VertexIDs() []int64 {
	g.muVert.RLock()
	defer g.muVert.RUnlock()
	ids := make([]int64, 0, len(g.vertices))
	for id := range g.vertices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Vertex returns the vertex at id.
func (g *Graph) Vertex(id int64) (geomodel.Vertex, bool) {
	g.muVert.RLock()
	defer g.muVert.RUnlock()
	v, ok := g.vertices[id]
	return v, ok
}

// Edge returns the edge at id.
func (g *Graph) Edge(id int64) (geomodel.Edge, bool) {
	g.muAdj.RLock()
	defer g.muAdj.RUnlock()
	e, ok := g.edges[id]
	return e, ok
}

// IncidentEdges returns, in ascending edge-id order, every edge id
// touching vertexID.
func (g *Graph) IncidentEdges(vertexID int64) []int64 {
	g.muAdj.RLock()
	defer g.muAdj.RUnlock()
	ids := append([]int64(nil), g.adjacency[vertexID]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Other returns the endpoint of edgeID that is not vertexID (or vertexID
// itself, for a self-loop).
func (g *Graph) Other(edgeID, vertexID int64) int64 {
	e, ok := g.Edge(edgeID)
	if !ok {
		return vertexID
	}
	if e.Source == vertexID {
		return e.Target
	}
	return e.Source
}

// Degree returns the number of incident edges at vertexID, counting a
// self-loop once (matching geomodel.Vertex.Degree's definition).
func (g *Graph) Degree(vertexID int64) int {
	return len(g.IncidentEdges(vertexID))
}

// AnchorVertices returns every vertex of degree ≥ 3, ascending by id —
// the candidate start/end points for loop and out-and-back search
// (spec.md's Anchor vertex glossary entry).
func (g *Graph) AnchorVertices() []int64 {
	var out []int64
	for _, id := range g.VertexIDs() {
		if g.Degree(id) >= 3 {
			out = append(out, id)
		}
	}
	return out
}
