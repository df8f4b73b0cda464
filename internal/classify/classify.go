// Package classify implements the Vertex Classifier stage: it labels
// every vertex with {endpoint, connector, intersection} based on degree,
// and exposes an optional prediction source for learned merge/split
// recommendations without coupling the classifier to any specific model.
package classify

import (
	"context"

	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/pipeline"
)

// PredictionSource supplies an optional recommendation for a vertex; the
// classifier surfaces these for the Route Enumerator's scoring but never
// applies them to the graph itself (spec.md §4.6).
type PredictionSource interface {
	Predict(v geomodel.Vertex) *geomodel.ClassifierPrediction
}

// DegreeBased is the default PredictionSource: it never overrides, since
// no predictions table is wired by default.
type DegreeBased struct{}

func (DegreeBased) Predict(geomodel.Vertex) *geomodel.ClassifierPrediction { return nil }

// ClassifyByDegree labels v per spec.md §4.6: degree 1 → endpoint, degree
// 2 → connector, degree ≥ 3 → intersection.
func ClassifyByDegree(degree int) geomodel.VertexClass {
	switch {
	case degree <= 1:
		return geomodel.VertexEndpoint
	case degree == 2:
		return geomodel.VertexConnector
	default:
		return geomodel.VertexIntersection
	}
}

// Stage applies ClassifyByDegree to every vertex in the workspace and
// attaches any optional PredictionSource's recommendation.
type Stage struct {
	Predictions PredictionSource
}

// New returns a Vertex Classifier stage. A nil PredictionSource defaults
// to DegreeBased.
func New(predictions PredictionSource) *Stage {
	if predictions == nil {
		predictions = DegreeBased{}
	}
	return &Stage{Predictions: predictions}
}

func (s *Stage) Name() string { return "classify" }

// Run implements pipeline.Stage.
func (s *Stage) Run(ctx context.Context, pc *pipeline.Context) (pipeline.StageReport, error) {
	vertices, err := pc.Workspace.ListVertices(ctx)
	if err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("classify", pipeline.ClassResource, "list vertices", err)
	}

	for i := range vertices {
		vertices[i].Classification = ClassifyByDegree(vertices[i].Degree)
		vertices[i].Prediction = s.Predictions.Predict(vertices[i])
	}

	if err := pc.Workspace.SetVertices(ctx, vertices); err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("classify", pipeline.ClassResource, "write classified vertices", err)
	}

	return pipeline.StageReport{
		Stage:       "classify",
		VerticesOut: len(vertices),
	}, nil
}
