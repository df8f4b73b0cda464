package classify

import (
	"context"
	"testing"

	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/pipeline"
	"github.com/carthorse/carthorse/internal/store/memstore"
)

func TestClassifyByDegree(t *testing.T) {
	cases := []struct {
		degree int
		want   geomodel.VertexClass
	}{
		{0, geomodel.VertexEndpoint},
		{1, geomodel.VertexEndpoint},
		{2, geomodel.VertexConnector},
		{3, geomodel.VertexIntersection},
		{5, geomodel.VertexIntersection},
	}
	for _, c := range cases {
		if got := ClassifyByDegree(c.degree); got != c.want {
			t.Errorf("ClassifyByDegree(%d) = %v, want %v", c.degree, got, c.want)
		}
	}
}

func TestStage_Run_LabelsEveryVertex(t *testing.T) {
	ws := memstore.New("test-region")
	ctx := context.Background()
	if err := ws.SetVertices(ctx, []geomodel.Vertex{
		{ID: 1, Degree: 1},
		{ID: 2, Degree: 2},
		{ID: 3, Degree: 4},
	}); err != nil {
		t.Fatalf("SetVertices: %v", err)
	}

	pc := &pipeline.Context{Workspace: ws}
	stage := New(nil)
	report, err := stage.Run(ctx, pc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.VerticesOut != 3 {
		t.Errorf("VerticesOut = %d, want 3", report.VerticesOut)
	}

	got, err := ws.ListVertices(ctx)
	if err != nil {
		t.Fatalf("ListVertices: %v", err)
	}
	want := map[int64]geomodel.VertexClass{
		1: geomodel.VertexEndpoint,
		2: geomodel.VertexConnector,
		3: geomodel.VertexIntersection,
	}
	for _, v := range got {
		if v.Classification != want[v.ID] {
			t.Errorf("vertex %d classification = %v, want %v", v.ID, v.Classification, want[v.ID])
		}
	}
}

type fixedPrediction struct {
	pred *geomodel.ClassifierPrediction
}

func (f fixedPrediction) Predict(geomodel.Vertex) *geomodel.ClassifierPrediction { return f.pred }

func TestStage_Run_AttachesPredictions(t *testing.T) {
	ws := memstore.New("test-region")
	ctx := context.Background()
	if err := ws.SetVertices(ctx, []geomodel.Vertex{{ID: 1, Degree: 2}}); err != nil {
		t.Fatalf("SetVertices: %v", err)
	}

	wantPred := &geomodel.ClassifierPrediction{Action: geomodel.ActionMergeThrough, Confidence: 0.9}
	stage := New(fixedPrediction{pred: wantPred})
	if _, err := stage.Run(ctx, &pipeline.Context{Workspace: ws}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := ws.ListVertices(ctx)
	if err != nil {
		t.Fatalf("ListVertices: %v", err)
	}
	if got[0].Prediction == nil || got[0].Prediction.Action != geomodel.ActionMergeThrough {
		t.Errorf("Prediction = %+v, want %+v", got[0].Prediction, wantPred)
	}
}
