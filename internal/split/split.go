// Package split implements the Splitter stage: it rewrites the trail set
// so that every trail with at least one split instruction is replaced by
// its ordered children, atomically per parent.
package split

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carthorse/carthorse/internal/geo2d"
	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/intersect"
	"github.com/carthorse/carthorse/internal/pipeline"
)

// Stage applies the Intersection Resolver's split instructions (read from
// In, populated by the intersect.Stage that ran immediately before it) to
// every trail in the workspace.
type Stage struct {
	In *intersect.Handoff
}

// New returns a Splitter stage reading split instructions from in.
func New(in *intersect.Handoff) *Stage { return &Stage{In: in} }

func (s *Stage) Name() string { return "split" }

// Run implements pipeline.Stage.
func (s *Stage) Run(ctx context.Context, pc *pipeline.Context) (pipeline.StageReport, error) {
	trails, err := pc.Workspace.ListTrails(ctx)
	if err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("split", pipeline.ClassResource, "list trails", err)
	}

	minLenM := pc.Config.MinSegmentLengthMeters
	snapToleranceM := pc.Config.IntersectionToleranceMeters

	var splitCount, keptUnsplit int
	for _, t := range trails {
		instr := s.In.Result.SortedInstructions(t.ID, snapToleranceM)
		if len(instr) == 0 {
			continue
		}

		children := ChildrenFor(t, instr, minLenM)
		if len(children) <= 1 {
			// Rejection would collapse the series; keep the original trail
			// unsplit (spec.md §4.3).
			keptUnsplit++
			continue
		}

		if err := pc.Workspace.ReplaceTrails(ctx, t.ID, children); err != nil {
			return pipeline.StageReport{}, pipeline.NewStageError("split", pipeline.ClassTopology,
				fmt.Sprintf("replace trail %s with %d children", t.ID, len(children)), err)
		}
		splitCount++
	}

	return pipeline.StageReport{
		Stage:    "split",
		TrailsIn: len(trails),
		Notes:    fmt.Sprintf("trails_split=%d kept_unsplit_below_min=%d", splitCount, keptUnsplit),
	}, nil
}

// ChildrenFor computes the ordered children a trail splits into, dropping
// any child whose length would fall below minLenM. Per spec.md §4.3, if
// dropping a would-be-too-short child collapses the whole series back to
// one piece, the caller should treat that as "no split" and keep the
// original trail; ChildrenFor signals this by returning a slice of length
// ≤ 1.
func ChildrenFor(parent geomodel.Trail, instr []intersect.SplitInstruction, minLenM float64) []geomodel.Trail {
	flat := parent.Geometry.Flat()
	arcs := geo2d.ArcLengths(flat)
	total := arcs[len(arcs)-1]

	bounds := make([]float64, 0, len(instr)+2)
	bounds = append(bounds, 0)
	for _, s := range instr {
		bounds = append(bounds, s.ArcLengthM)
	}
	bounds = append(bounds, total)

	var children []geomodel.Trail
	for i := 0; i < len(bounds)-1; i++ {
		lo, hi := bounds[i], bounds[i+1]
		if hi-lo < minLenM {
			continue
		}
		pts := extractSubPolyline(parent.Geometry, arcs, lo, hi)
		if len(pts) < 2 {
			continue
		}
		children = append(children, buildChild(parent, pts, i))
	}
	return children
}

// extractSubPolyline returns the 3D points of parent's geometry between
// arc-length positions lo and hi (inclusive), inserting interpolated
// boundary points at lo/hi exactly.
func extractSubPolyline(geom geomodel.LineString, arcs []float64, lo, hi float64) []geomodel.Point3D {
	var out []geomodel.Point3D
	out = append(out, pointAtArc(geom, arcs, lo))
	for i, a := range arcs {
		if a > lo && a < hi {
			out = append(out, geom.Points[i])
		}
	}
	out = append(out, pointAtArc(geom, arcs, hi))
	return out
}

func pointAtArc(geom geomodel.LineString, arcs []float64, target float64) geomodel.Point3D {
	for i := 0; i < len(arcs); i++ {
		if arcs[i] == target {
			return geom.Points[i]
		}
		if i+1 < len(arcs) && arcs[i] < target && target < arcs[i+1] {
			segLen := arcs[i+1] - arcs[i]
			t := (target - arcs[i]) / segLen
			a, b := geom.Points[i], geom.Points[i+1]
			return geomodel.Point3D{
				X: a.X + t*(b.X-a.X),
				Y: a.Y + t*(b.Y-a.Y),
				Z: a.Z + t*(b.Z-a.Z),
			}
		}
	}
	return geom.Points[len(geom.Points)-1]
}

func buildChild(parent geomodel.Trail, pts []geomodel.Point3D, ordinal int) geomodel.Trail {
	geom := geomodel.LineString{Points: pts}
	flat := geom.Flat()
	lengthKM := geo2d.PolylineLengthKM(flat)
	gain, loss := geo2d.ElevationGainLoss(pts)
	minZ, maxZ, avgZ := geo2d.ElevationMinMaxAvg(pts)
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

var splitChildNamespace = uuid.MustParse("8f9e6d2a-4c2b-4a5e-9f1d-2b7c6a5e9d30")

func childID(parent uuid.UUID, ordinal int) uuid.UUID {
	return uuid.NewSHA1(splitChildNamespace, []byte(fmt.Sprintf("%s/%d", parent, ordinal)))
}
