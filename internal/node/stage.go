package node

import (
	"context"
	"fmt"

	"github.com/carthorse/carthorse/internal/geo2d"
	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/pipeline"
	"github.com/carthorse/carthorse/internal/store"
)

// Stage runs the Noder & Topology Builder over every trail currently in
// the workspace, holding an exclusive lock on the vertices/edges tables
// for the duration of its run (spec.md §5).
type Stage struct{}

func New() *Stage { return &Stage{} }

func (s *Stage) Name() string { return "node" }

// Run implements pipeline.Stage.
func (s *Stage) Run(ctx context.Context, pc *pipeline.Context) (pipeline.StageReport, error) {
	unlock, err := pc.Workspace.Lock(ctx, store.TableVertices, store.TableNodedEdges)
	if err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("node", pipeline.ClassResource, "acquire topology lock", err)
	}
	defer unlock()

	trails, err := pc.Workspace.ListTrails(ctx)
	if err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("node", pipeline.ClassResource, "list trails", err)
	}

	lat := regionLatitude(trails)
	vertices, edges := Build(trails, Options{
		SnapToleranceDeg:     pc.Config.SnapToleranceDegrees,
		BridgingToleranceDeg: geo2d.MetersToDegrees(pc.Config.BridgingToleranceMeters, lat),
		MinEdgeLengthMeters:  pc.Config.MinEdgeLengthMeters,
	})

	if err := pc.Workspace.SetVertices(ctx, vertices); err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("node", pipeline.ClassResource, "write vertices", err)
	}
	if err := pc.Workspace.SetEdges(ctx, edges); err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("node", pipeline.ClassResource, "write edges", err)
	}

	zeroDegree := 0
	for _, v := range vertices {
		if v.Degree == 0 {
			zeroDegree++
		}
	}

	return pipeline.StageReport{
		Stage:       "node",
		TrailsIn:    len(trails),
		VerticesOut: len(vertices),
		EdgesOut:    len(edges),
		Notes:       fmt.Sprintf("zero_degree_vertices=%d", zeroDegree),
	}, nil
}

func regionLatitude(trails []geomodel.Trail) float64 {
	if len(trails) == 0 {
		return 0
	}
	var sum float64
	for _, t := range trails {
		sum += (t.BBox.MinY + t.BBox.MaxY) / 2
	}
	return sum / float64(len(trails))
}
