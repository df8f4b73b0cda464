package prepare

import (
	"context"
	"testing"

	"github.com/carthorse/carthorse/internal/config"
	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/pipeline"
	"github.com/carthorse/carthorse/internal/store/memstore"
)

func line(x1, y1, x2, y2 float64) geomodel.LineString {
	return geomodel.LineString{Points: []geomodel.Point3D{{X: x1, Y: y1}, {X: x2, Y: y2}}}
}

func TestRun_FiltersByRegion(t *testing.T) {
	input := []RawTrail{
		{SourceID: "a", RegionKey: "here", Name: "keep", Geometry: line(0, 0, 0, 0.01)},
		{SourceID: "b", RegionKey: "elsewhere", Name: "drop", Geometry: line(0, 0, 0, 0.01)},
	}
	ws := memstore.New("here")
	pc := &pipeline.Context{Config: config.Config{RegionKey: "here"}, Workspace: ws}

	report, err := New(input).Run(context.Background(), pc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TrailsIn != 2 {
		t.Errorf("TrailsIn = %d, want 2", report.TrailsIn)
	}
	if report.TrailsOut != 1 {
		t.Errorf("TrailsOut = %d, want 1", report.TrailsOut)
	}

	trails, err := ws.ListTrails(context.Background())
	if err != nil {
		t.Fatalf("ListTrails: %v", err)
	}
	if len(trails) != 1 || trails[0].Name != "keep" {
		t.Errorf("kept trails = %+v, want only %q", trails, "keep")
	}
}

func TestRun_RejectsDegenerateGeometry(t *testing.T) {
	input := []RawTrail{
		{SourceID: "a", RegionKey: "here", Geometry: line(1, 1, 1, 1)}, // zero-length
	}
	ws := memstore.New("here")
	pc := &pipeline.Context{Config: config.Config{RegionKey: "here"}, Workspace: ws}

	report, err := New(input).Run(context.Background(), pc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TrailsOut != 0 {
		t.Errorf("TrailsOut = %d, want 0 for a degenerate single-point trail", report.TrailsOut)
	}
}

func TestRun_DedupesExactGeometry(t *testing.T) {
	geom := line(0, 0, 0, 0.02)
	input := []RawTrail{
		{SourceID: "a", RegionKey: "here", Name: "first", Geometry: geom},
		{SourceID: "b", RegionKey: "here", Name: "duplicate", Geometry: geom},
	}
	ws := memstore.New("here")
	pc := &pipeline.Context{Config: config.Config{RegionKey: "here"}, Workspace: ws}

	report, err := New(input).Run(context.Background(), pc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TrailsOut != 1 {
		t.Errorf("TrailsOut = %d, want 1 after dedup", report.TrailsOut)
	}
}

func TestRun_DeterministicIDsAcrossRuns(t *testing.T) {
	raw := RawTrail{SourceID: "a", RegionKey: "here", Name: "ridge", Geometry: line(0, 0, 0, 0.02)}
	t1, ok1 := canonicalize(raw)
	t2, ok2 := canonicalize(raw)
	if !ok1 || !ok2 {
		t.Fatalf("canonicalize failed: ok1=%v ok2=%v", ok1, ok2)
	}
	if t1.ID != t2.ID {
		t.Errorf("canonicalizing the same raw trail twice gave different ids: %s vs %s", t1.ID, t2.ID)
	}
}
