// Package prepare implements the Trail Preparer stage: it turns a stream
// of raw trail records into the pipeline's initial trail set, filtering by
// region, validating geometry, canonicalizing coordinates, and deduplicating
// by exact 2D geometric identity.
package prepare

import (
	"context"
	"fmt"
	"sort"

	"github.com/carthorse/carthorse/internal/config"
	"github.com/carthorse/carthorse/internal/geo2d"
	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/pipeline"
)

// RawTrail is an upstream record handed to the Preparer; it carries no
// derived statistics, only what an ingestion source is required to supply
// (spec.md §6's Input contract).
type RawTrail struct {
	SourceID   string
	ExternalID *string
	RegionKey  string
	Name       string
	Geometry   geomodel.LineString
}

// Stats counts what happened to the raw input, surfaced in the StageReport
// so a caller can see the input was mostly accepted rather than silently
// shrunk (spec.md §4.1 "failures are never fatal for the stage").
type Stats struct {
	Scanned          int
	Kept             int
	RejectedGeometry int
	RejectedShort    int
	Deduped          int
}

// Stage is the pipeline.Stage implementation for the Trail Preparer.
type Stage struct {
	Input []RawTrail
}

// New returns a Preparer stage over the given raw input batch.
func New(input []RawTrail) *Stage { return &Stage{Input: input} }

func (s *Stage) Name() string { return "prepare" }

// Run implements pipeline.Stage.
func (s *Stage) Run(ctx context.Context, pc *pipeline.Context) (pipeline.StageReport, error) {
	cfg := pc.Config
	stats := Stats{Scanned: len(s.Input)}

	filtered := make([]RawTrail, 0, len(s.Input))
	for _, raw := range s.Input {
		if raw.RegionKey != cfg.RegionKey {
			continue
		}
		if cfg.BoundingBox != nil && !boxIntersects(raw.Geometry.BBox(), *cfg.BoundingBox) {
			continue
		}
		filtered = append(filtered, raw)
	}

	trails := make([]geomodel.Trail, 0, len(filtered))
	for _, raw := range filtered {
		t, ok := canonicalize(raw)
		if !ok {
			stats.RejectedGeometry++
			continue
		}
		if t.LengthKM <= 0 {
			stats.RejectedShort++
			continue
		}
		trails = append(trails, t)
	}

	deduped, dupCount := dedupeByGeometry(trails)
	stats.Deduped = dupCount
	stats.Kept = len(deduped)

	if err := pc.Workspace.InsertTrails(ctx, deduped); err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("prepare", pipeline.ClassResource, "insert prepared trails", err)
	}

	return pipeline.StageReport{
		Stage:     "prepare",
		TrailsIn:  stats.Scanned,
		TrailsOut: stats.Kept,
		Notes: fmt.Sprintf("rejected_geometry=%d rejected_short=%d deduped=%d",
			stats.RejectedGeometry, stats.RejectedShort, stats.Deduped),
	}, nil
}

func boxIntersects(b geomodel.BBox, box config.BoundingBox) bool {
	other := geomodel.BBox{MinX: box.MinLng, MinY: box.MinLat, MaxX: box.MaxLng, MaxY: box.MaxLat}
	return b.Intersects(other)
}

// canonicalize drops duplicate consecutive points, rejects degenerate
// geometry, and computes every derived statistic a Trail carries.
func canonicalize(raw RawTrail) (geomodel.Trail, bool) {
	pts := dropConsecutiveDuplicates(raw.Geometry.Points)
	if len(distinct2D(pts)) < 2 {
		return geomodel.Trail{}, false
	}

	flat := (geomodel.LineString{Points: pts}).Flat()
	lengthKM := geo2d.PolylineLengthKM(flat)
	if lengthKM <= 0 {
		return geomodel.Trail{}, false
	}
	gain, loss := geo2d.ElevationGainLoss(pts)
	minZ, maxZ, avgZ := geo2d.ElevationMinMaxAvg(pts)

	name := raw.Name
	if name == "" {
		name = "Unnamed Trail"
	}

	t := geomodel.Trail{
		ID:         deterministicTrailID(raw),
		SourceID:   raw.SourceID,
		ExternalID: raw.ExternalID,
		RegionKey:  raw.RegionKey,
		Name:       name,
		Geometry:   geomodel.LineString{Points: pts},
		Class:      geomodel.TrailRaw,
		LengthKM:   lengthKM,
		ElevGainM:  gain,
		ElevLossM:  loss,
		ElevMinM:   minZ,
		ElevMaxM:   maxZ,
		ElevAvgM:   avgZ,
	}
	t.BBox = t.Geometry.BBox()
	return t, true
}

func dropConsecutiveDuplicates(pts []geomodel.Point3D) []geomodel.Point3D {
	if len(pts) == 0 {
		return nil
	}
	out := make([]geomodel.Point3D, 0, len(pts))
	out = append(out, pts[0])
	for _, p := range pts[1:] {
		last := out[len(out)-1]
		if p.X == last.X && p.Y == last.Y && p.Z == last.Z {
			continue
		}
		out = append(out, p)
	}
	return out
}

func distinct2D(pts []geomodel.Point3D) map[[2]float64]struct{} {
	set := make(map[[2]float64]struct{}, len(pts))
	for _, p := range pts {
		set[[2]float64{p.X, p.Y}] = struct{}{}
	}
	return set
}

// dedupeByGeometry keeps, within each group of trails sharing exact 2D
// geometry, the member with the smallest identifier (spec.md §4.1).
func dedupeByGeometry(trails []geomodel.Trail) ([]geomodel.Trail, int) {
	groups := make(map[string][]geomodel.Trail)
	order := make([]string, 0)
	for _, t := range trails {
		key := geometryKey(t.Geometry)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], t)
	}

	out := make([]geomodel.Trail, 0, len(order))
	dropped := 0
	for _, key := range order {
		group := groups[key]
		sort.Slice(group, func(i, j int) bool {
			return group[i].ID.String() < group[j].ID.String()
		})
		out = append(out, group[0])
		dropped += len(group) - 1
	}
	return out, dropped
}

func geometryKey(l geomodel.LineString) string {
	key := make([]byte, 0, len(l.Points)*24)
	for _, p := range l.Points {
		key = fmt.Appendf(key, "%.9f,%.9f;", p.X, p.Y)
	}
	return string(key)
}
