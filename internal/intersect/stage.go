package intersect

import (
	"context"
	"fmt"

	"github.com/carthorse/carthorse/internal/geo2d"
	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/pipeline"
)

// Stage runs Resolve over the workspace's current trail set and populates
// Out for the Splitter and Bridger stages that follow it.
type Stage struct {
	Out *Handoff
}

// New returns an Intersection Resolver stage that writes its result into
// out, which must outlive this stage's Run call (the Splitter and Bridger
// stages read from the same Handoff).
func New(out *Handoff) *Stage { return &Stage{Out: out} }

func (s *Stage) Name() string { return "intersect" }

// Run implements pipeline.Stage.
func (s *Stage) Run(ctx context.Context, pc *pipeline.Context) (pipeline.StageReport, error) {
	trails, err := pc.Workspace.ListTrails(ctx)
	if err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("intersect", pipeline.ClassResource, "list trails", err)
	}

	toleranceM := pc.Config.IntersectionToleranceMeters
	lat := regionLatitude(trails)
	toleranceDeg := geo2d.MetersToDegrees(toleranceM, lat)

	// Near-miss endpoints are handed to the Bridger, which searches out to
	// its own (wider) radius — gate the search on that tolerance, not the
	// intersection tolerance, or bridgeable pairs never get recorded.
	var nearMissToleranceM, nearMissToleranceDeg float64
	if pc.Config.BridgingEnabled {
		nearMissToleranceM = pc.Config.BridgingToleranceMeters
		nearMissToleranceDeg = geo2d.MetersToDegrees(nearMissToleranceM, lat)
	}

	s.Out.Result = Resolve(trails, toleranceM, toleranceDeg, nearMissToleranceM, nearMissToleranceDeg)

	splitCount := 0
	for _, instr := range s.Out.Result.Instructions {
		splitCount += len(instr)
	}

	return pipeline.StageReport{
		Stage:    "intersect",
		TrailsIn: len(trails),
		Notes:    fmt.Sprintf("split_instructions=%d near_miss_pairs=%d", splitCount, len(s.Out.Result.NearMiss)),
	}, nil
}

// regionLatitude picks a representative latitude for the meters→degrees
// conversion; the mean of all trail bbox centers is close enough at
// regional scale.
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
