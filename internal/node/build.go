package node

import (
	"sort"

	"github.com/carthorse/carthorse/internal/geo2d"
	"github.com/carthorse/carthorse/internal/geomodel"
)

// endpoint is one trail endpoint prior to vertex assignment.
type endpoint struct {
	trailIndex int
	isStart    bool
	point      geomodel.Point3D
}

// Options configures a single Build call with the tolerances §4.5 names.
type Options struct {
	SnapToleranceDeg    float64
	BridgingToleranceDeg float64
	MinEdgeLengthMeters float64
}

// Build implements the Noder & Topology Builder's algorithm (spec.md
// §4.5): collapse trail geometries to 2D, assign dense vertex ids to
// clustered endpoints, emit one edge per trail, apply the post-noding snap
// repair pass, compute degrees, and discard vertices of degree 0.
func Build(trails []geomodel.Trail, opts Options) ([]geomodel.Vertex, []geomodel.Edge) {
	if len(trails) == 0 {
		return nil, nil
	}

	endpoints := make([]endpoint, 0, len(trails)*2)
	for i, t := range trails {
		pts := t.Geometry.Points
		endpoints = append(endpoints,
			endpoint{trailIndex: i, isStart: true, point: pts[0]},
			endpoint{trailIndex: i, isStart: false, point: pts[len(pts)-1]},
		)
	}

	clusters := clusterEndpoints(endpoints, opts.SnapToleranceDeg)
	vertices, vertexOfEndpoint := assignVertexIDs(clusters, endpoints)

	edges := buildEdges(trails, vertexOfEndpoint, opts.MinEdgeLengthMeters)
	edges = postNodingSnap(vertices, edges, opts.BridgingToleranceDeg)

	degrees := make([]int, len(vertices))
	for _, e := range edges {
		degrees[e.Source]++
		if e.Target != e.Source {
			degrees[e.Target]++
		}
	}

	// Vertices left with no incident edge (merged away by the snap pass, or
	// touched only by dropped edges) are discarded; survivors are renumbered
	// densely in their existing coordinate order.
	newID := make([]int64, len(vertices))
	kept := vertices[:0]
	for i, v := range vertices {
		if degrees[i] == 0 {
			continue
		}
		newID[i] = int64(len(kept))
		v.ID = newID[i]
		v.Degree = degrees[i]
		kept = append(kept, v)
	}
	for i := range edges {
		edges[i].Source = newID[edges[i].Source]
		edges[i].Target = newID[edges[i].Target]
	}

	return kept, edges
}

// clusterEndpoints groups endpoint indices whose points lie within
// toleranceDeg of one another, using the same union-find shape the Bridger
// uses for near-miss clustering.
func clusterEndpoints(endpoints []endpoint, toleranceDeg float64) [][]int {
	uf := geo2d.NewUnionFind(len(endpoints))
	for i := 0; i < len(endpoints); i++ {
		for j := i + 1; j < len(endpoints); j++ {
			pi, pj := endpoints[i].point.Flat(), endpoints[j].point.Flat()
			dx, dy := pi.X-pj.X, pi.Y-pj.Y
			if dx < 0 {
				dx = -dx
			}
			if dy < 0 {
				dy = -dy
			}
			if dx <= toleranceDeg && dy <= toleranceDeg {
				uf.Union(i, j)
			}
		}
	}
	return uf.Groups()
}

// assignVertexIDs builds one Vertex per cluster, in ascending canonical 2D
// coordinate order so ids are reproducible across runs with the same
// input (spec.md §5), and returns the vertex id each endpoint maps to.
func assignVertexIDs(clusters [][]int, endpoints []endpoint) ([]geomodel.Vertex, []int64) {
	type clusterInfo struct {
		centroid geomodel.Point3D
		members  []int
	}

	infos := make([]clusterInfo, len(clusters))
	for i, cluster := range clusters {
		var sum geomodel.Point3D
		for _, idx := range cluster {
			p := endpoints[idx].point
			sum.X += p.X
			sum.Y += p.Y
			sum.Z += p.Z
		}
		n := float64(len(cluster))
		infos[i] = clusterInfo{
			centroid: geomodel.Point3D{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n},
			members:  cluster,
		}
	}

	order := make([]int, len(infos))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ca, cb := infos[order[a]].centroid, infos[order[b]].centroid
		if ca.X != cb.X {
			return ca.X < cb.X
		}
		return ca.Y < cb.Y
	})

	vertices := make([]geomodel.Vertex, len(infos))
	vertexOfEndpoint := make([]int64, len(endpoints))
	for newID, oldIdx := range order {
		info := infos[oldIdx]
		vertices[newID] = geomodel.Vertex{
			ID:    int64(newID),
			Point: info.centroid,
		}
		for _, endpointIdx := range info.members {
			vertexOfEndpoint[endpointIdx] = int64(newID)
		}
	}
	return vertices, vertexOfEndpoint
}

// buildEdges emits one edge per trail (every trail is already a simple
// segment between two nodes by the time it reaches the Noder), dropping
// edges shorter than minEdgeLengthM.
func buildEdges(trails []geomodel.Trail, vertexOfEndpoint []int64, minEdgeLengthM float64) []geomodel.Edge {
	edges := make([]geomodel.Edge, 0, len(trails))
	nextID := int64(0)
	for i, t := range trails {
		if t.LengthKM*1000 < minEdgeLengthM {
			continue
		}
		source := vertexOfEndpoint[2*i]
		target := vertexOfEndpoint[2*i+1]

		edges = append(edges, geomodel.Edge{
			ID:                   nextID,
			Source:               source,
			Target:               target,
			Geometry:             t.Geometry,
			LengthKM:             t.LengthKM,
			ElevGainM:            t.ElevGainM,
			ElevLossM:            t.ElevLossM,
			Cost:                 t.LengthKM,
			ReverseCost:          t.LengthKM,
			OriginatingTrailID:   t.ID,
			OriginatingTrailName: t.Name,
		})
		nextID++
	}
	return edges
}

// postNodingSnap repairs edges whose endpoints landed just outside the
// micro snap tolerance but within bridging tolerance of one another —
// typically a bridge connector's own endpoints, which coincide exactly
// with the trails it joins but sit a few meters from each other (spec.md
// §4.5's "post-noding snap"). Vertices within bridgingToleranceDeg of one
// another are merged transitively (the same union-find clusterEndpoints
// uses) down to their lowest-id member, so a chain of near-miss vertices
// collapses to one, rather than each edge endpoint independently picking
// its own "nearest" neighbor and disagreeing with the other end of the
// same short connector. Edges left as self-loops by the merge — a
// connector whose whole span collapsed into one vertex — are dropped, since
// they no longer represent a traversable gap.
func postNodingSnap(vertices []geomodel.Vertex, edges []geomodel.Edge, bridgingToleranceDeg float64) []geomodel.Edge {
	if bridgingToleranceDeg <= 0 || len(vertices) == 0 {
		return edges
	}

	uf := geo2d.NewUnionFind(len(vertices))
	for i := 0; i < len(vertices); i++ {
		pi := vertices[i].Point.Flat()
		for j := i + 1; j < len(vertices); j++ {
			pj := vertices[j].Point.Flat()
			dx, dy := pi.X-pj.X, pi.Y-pj.Y
			if dx < 0 {
				dx = -dx
			}
			if dy < 0 {
				dy = -dy
			}
			if dx <= bridgingToleranceDeg && dy <= bridgingToleranceDeg {
				uf.Union(i, j)
			}
		}
	}

	canonical := make([]int64, len(vertices))
	for _, group := range uf.Groups() {
		rep := int64(group[0])
		for _, idx := range group {
			canonical[idx] = rep
		}
	}

	out := edges[:0:0]
	for _, e := range edges {
		e.Source = canonical[e.Source]
		e.Target = canonical[e.Target]
		if e.Source == e.Target {
			continue
		}
		out = append(out, e)
	}
	return out
}
