// Package bridge implements the Bridger stage: it closes near-miss
// endpoint gaps recorded by the Intersection Resolver by inserting short
// connector trails, clustering co-located endpoints into a single bridge
// star via union-find.
package bridge

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carthorse/carthorse/internal/geo2d"
	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/intersect"
	"github.com/carthorse/carthorse/internal/pipeline"
)

// endpointRef identifies one endpoint of one trail in the near-miss graph.
type endpointRef struct {
	trailID uuid.UUID
	isStart bool
}

// Stage runs the Bridger over the near-miss pairs the Resolver stage
// recorded (read from In), inserting connector trails into the workspace.
type Stage struct {
	In *intersect.Handoff
}

// New returns a Bridger stage reading near-miss pairs from in.
func New(in *intersect.Handoff) *Stage { return &Stage{In: in} }

func (s *Stage) Name() string { return "bridge" }

// Run implements pipeline.Stage.
func (s *Stage) Run(ctx context.Context, pc *pipeline.Context) (pipeline.StageReport, error) {
	if !pc.Config.BridgingEnabled {
		return pipeline.StageReport{Stage: "bridge", Notes: "bridging disabled"}, nil
	}

	pairs := s.In.Result.NearMiss
	if len(pairs) == 0 {
		return pipeline.StageReport{Stage: "bridge", Notes: "no near-miss pairs"}, nil
	}

	trails, err := pc.Workspace.ListTrails(ctx)
	if err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("bridge", pipeline.ClassResource, "list trails", err)
	}
	byID := make(map[uuid.UUID]geomodel.Trail, len(trails))
	for _, t := range trails {
		byID[t.ID] = t
	}

	clusters, refs := ClusterEndpoints(pairs, pc.Config.BridgingToleranceMeters)

	connectors := make([]geomodel.Trail, 0, len(clusters))
	for _, cluster := range clusters {
		if len(cluster) < 2 {
			continue
		}
		members := make([]geomodel.Point3D, 0, len(cluster))
		for _, idx := range cluster {
			ref := refs[idx]
			t, ok := byID[ref.trailID]
			if !ok {
				continue
			}
			members = append(members, endpointPoint(t, ref.isStart))
		}
		if len(members) < 2 {
			continue
		}
		centroid := centroidOf(members)
		for _, p := range members {
			connectors = append(connectors, buildConnector(p, centroid, pc.Config.RegionKey))
		}
	}

	if err := pc.Workspace.InsertTrails(ctx, connectors); err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("bridge", pipeline.ClassResource, "insert connectors", err)
	}

	return pipeline.StageReport{
		Stage:     "bridge",
		TrailsIn:  len(trails),
		TrailsOut: len(connectors),
		Notes:     fmt.Sprintf("clusters=%d connectors=%d", len(clusters), len(connectors)),
	}, nil
}

// ClusterEndpoints groups near-miss pairs transitively into clusters via
// union-find: if A-B and B-C are both near-miss pairs, A, B, and C all join
// one bridge star, per spec.md §4.4. Returns each cluster as a list of
// indices into refs, the deduplicated list of endpoint references touched
// by any pair.
func ClusterEndpoints(pairs []intersect.NearMissPair, toleranceM float64) ([][]int, []endpointRef) {
	refIndex := make(map[endpointRef]int)
	var refs []endpointRef

	indexOf := func(r endpointRef) int {
		if i, ok := refIndex[r]; ok {
			return i
		}
		refs = append(refs, r)
		refIndex[r] = len(refs) - 1
		return len(refs) - 1
	}

	var edges [][2]int
	for _, p := range pairs {
		if p.DistanceM > toleranceM {
			continue
		}
		a := indexOf(endpointRef{trailID: p.TrailA, isStart: p.AEndIsStart})
		b := indexOf(endpointRef{trailID: p.TrailB, isStart: p.BEndIsStart})
		edges = append(edges, [2]int{a, b})
	}

	uf := geo2d.NewUnionFind(len(refs))
	for _, e := range edges {
		uf.Union(e[0], e[1])
	}
	return uf.Groups(), refs
}

func endpointPoint(t geomodel.Trail, isStart bool) geomodel.Point3D {
	if isStart {
		return t.Geometry.Points[0]
	}
	return t.Geometry.Points[len(t.Geometry.Points)-1]
}

func centroidOf(pts []geomodel.Point3D) geomodel.Point3D {
	var sum geomodel.Point3D
	for _, p := range pts {
		sum.X += p.X
		sum.Y += p.Y
		sum.Z += p.Z
	}
	n := float64(len(pts))
	return geomodel.Point3D{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}
}

func buildConnector(from, to geomodel.Point3D, regionKey string) geomodel.Trail {
	geom := geomodel.LineString{Points: []geomodel.Point3D{from, to}}
	flat := geom.Flat()
	lengthKM := geo2d.PolylineLengthKM(flat)
	gain, loss := geo2d.ElevationGainLoss(geom.Points)
	minZ, maxZ, avgZ := geo2d.ElevationMinMaxAvg(geom.Points)

	return geomodel.Trail{
		ID:        connectorID(from, to),
		SourceID:  "bridge",
		RegionKey: regionKey,
		Name:      "Connector",
		Geometry:  geom,
		Class:     geomodel.TrailConnector,
		LengthKM:  lengthKM,
		ElevGainM: gain,
		ElevLossM: loss,
		ElevMinM:  minZ,
		ElevMaxM:  maxZ,
		ElevAvgM:  avgZ,
		BBox:      geom.BBox(),
	}
}

var connectorNamespace = uuid.MustParse("1d7f3c9b-5e6a-4b2d-8c1f-3a9e6b7d4c20")

func connectorID(from, to geomodel.Point3D) uuid.UUID {
	return uuid.NewSHA1(connectorNamespace, []byte(fmt.Sprintf("%.9f,%.9f->%.9f,%.9f", from.X, from.Y, to.X, to.Y)))
}
