package loopsplit

import (
	"context"
	"fmt"

	"github.com/carthorse/carthorse/internal/geo2d"
	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/pipeline"
)

// Stage runs the Loop-Splitting Helper over every trail currently in the
// workspace, replacing self-intersecting or near-closed trails with their
// two simple children before the Intersection Resolver ever sees them.
type Stage struct{}

func New() *Stage { return &Stage{} }

func (s *Stage) Name() string { return "loopsplit" }

// Run implements pipeline.Stage.
func (s *Stage) Run(ctx context.Context, pc *pipeline.Context) (pipeline.StageReport, error) {
	trails, err := pc.Workspace.ListTrails(ctx)
	if err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("loopsplit", pipeline.ClassResource, "list trails", err)
	}

	split := 0
	for _, t := range trails {
		if !NeedsSplit(t.Geometry) {
			continue
		}
		first, second, _ := Split(t.Geometry)
		if len(second.Points) == 0 {
			// Apex degenerate at an endpoint; nothing useful to split.
			continue
		}

		children := []geomodel.Trail{
			childTrail(t, first, 0),
			childTrail(t, second, 1),
		}
		if err := pc.Workspace.ReplaceTrails(ctx, t.ID, children); err != nil {
			return pipeline.StageReport{}, pipeline.NewStageError("loopsplit", pipeline.ClassTopology,
				fmt.Sprintf("replace self-intersecting trail %s", t.ID), err)
		}
		split++
	}

	return pipeline.StageReport{
		Stage:    "loopsplit",
		TrailsIn: len(trails),
		Notes:    fmt.Sprintf("apex_split=%d", split),
	}, nil
}

func childTrail(parent geomodel.Trail, geom geomodel.LineString, ordinal int) geomodel.Trail {
	flat := geom.Flat()
	lengthKM := geo2d.PolylineLengthKM(flat)
	gain, loss := geo2d.ElevationGainLoss(geom.Points)
	minZ, maxZ, avgZ := geo2d.ElevationMinMaxAvg(geom.Points)
	parentID := parent.ID

	return geomodel.Trail{
		ID:         childID(parent.ID, ordinal),
		SourceID:   parent.SourceID,
		ExternalID: parent.ExternalID,
		ParentID:   &parentID,
		RegionKey:  parent.RegionKey,
		Name:       parent.Name,
		Geometry:   geom,
		Class:      geomodel.TrailSplitChild,
		LengthKM:   lengthKM,
		ElevGainM:  gain,
		ElevLossM:  loss,
		ElevMinM:   minZ,
		ElevMaxM:   maxZ,
		ElevAvgM:   avgZ,
		BBox:       geom.BBox(),
	}
}
