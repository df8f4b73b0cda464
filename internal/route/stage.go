// Package route is the Route Enumerator: it composes the loop, out-and-back,
// and point-to-point search strategies of spec.md §4.7 over the region's
// routable graph, scores and deduplicates the results, and persists the
// surviving candidates. Each configured pattern is searched by its own
// goroutine since pattern searches are independent (spec.md §5); results are
// merged deterministically once every goroutine has returned.
package route

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/pipeline"
	"github.com/carthorse/carthorse/internal/route/score"
	"github.com/carthorse/carthorse/internal/routegraph"
)

// Stage runs the Route Enumerator over the workspace's current vertices
// and edges.
type Stage struct {
	KSPK          int
	MaxOverlapPct float64
	MinSimilarity float64
}

// New returns a Route Enumerator stage. kspK and maxOverlapPct feed the
// loop search's anchor-based true-loop strategy; minSimilarity is the
// discard threshold (defaults to score.MinSimilarity when ≤ 0).
func New(kspK int, maxOverlapPct, minSimilarity float64) *Stage {
	return &Stage{KSPK: kspK, MaxOverlapPct: maxOverlapPct, MinSimilarity: minSimilarity}
}

func (s *Stage) Name() string { return "route" }

// Run implements pipeline.Stage.
func (s *Stage) Run(ctx context.Context, pc *pipeline.Context) (pipeline.StageReport, error) {
	vertices, err := pc.Workspace.ListVertices(ctx)
	if err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("route", pipeline.ClassResource, "list vertices", err)
	}
	edges, err := pc.Workspace.ListEdges(ctx)
	if err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("route", pipeline.ClassResource, "list edges", err)
	}
	g := routegraph.New(vertices, edges)

	patterns := make([]geomodel.Pattern, 0, len(pc.Config.Patterns))
	for _, cp := range pc.Config.Patterns {
		p, err := toPattern(cp)
		if err != nil {
			return pipeline.StageReport{}, pipeline.NewStageError("route", pipeline.ClassInput, "parse pattern", err)
		}
		patterns = append(patterns, p)
	}

	perPattern := make([][]draft, len(patterns))
	eg, _ := errgroup.WithContext(ctx)
	for i, p := range patterns {
		i, p := i, p
		eg.Go(func() error {
			perPattern[i] = searchPattern(g, p, s.KSPK, s.MaxOverlapPct)
			return nil
		})
	}
	_ = eg.Wait() // pattern searches never return an error; non-fatal by design

	minSimilarity := s.MinSimilarity
	if minSimilarity <= 0 {
		minSimilarity = score.MinSimilarity
	}

	candidates := mergeAndScore(g, patterns, perPattern, minSimilarity)

	if err := pc.Workspace.SetRoutes(ctx, candidates); err != nil {
		return pipeline.StageReport{}, pipeline.NewStageError("route", pipeline.ClassResource, "write routes", err)
	}

	return pipeline.StageReport{
		Stage:       "route",
		VerticesOut: len(vertices),
		EdgesOut:    len(edges),
		RoutesOut:   len(candidates),
	}, nil
}

func searchPattern(g *routegraph.Graph, p geomodel.Pattern, kspK int, maxOverlapPct float64) []draft {
	switch p.Shape {
	case geomodel.ShapeLoop:
		return searchLoops(g, p, kspK, maxOverlapPct/100)
	case geomodel.ShapeOutAndBack:
		return searchOutAndBack(g, p)
	case geomodel.ShapePointToPoint:
		return searchPointToPoint(g, p)
	default:
		return nil
	}
}

// mergeAndScore turns every pattern's drafts into scored RouteCandidate
// values, discards anything below minSimilarity, deduplicates by
// canonical edge sequence (keeping the best-scoring representative), and
// orders survivors per spec.md §4.7's determinism rule: descending
// similarity, then ascending distance, then ascending minimum edge id.
func mergeAndScore(g *routegraph.Graph, patterns []geomodel.Pattern, perPattern [][]draft, minSimilarity float64) []geomodel.RouteCandidate {
	var candidates []geomodel.RouteCandidate
	var keys []string
	var similarities []float64
	var distances []float64
	var minIDs []int64

	for pi, drafts := range perPattern {
		p := patterns[pi]
		for _, d := range drafts {
			if len(d.edgeIDs) == 0 {
				continue
			}
			distanceKM, gainM, trailNames := measure(g, d)
			sim := score.Similarity(distanceKM, p.TargetKM, gainM, p.TargetGainM)
			if sim < minSimilarity {
				continue
			}
			candidates = append(candidates, geomodel.RouteCandidate{
				ID:           deterministicRouteID(d.shape, d.edgeIDs),
				Shape:        d.shape,
				EdgeIDs:      d.edgeIDs,
				DistanceKM:   distanceKM,
				GainM:        gainM,
				Similarity:   sim,
				AnchorVertex: d.anchorVertex,
				TrailNames:   trailNames,
			})
			keys = append(keys, score.Canonicalize(d.edgeIDs, d.shape == geomodel.ShapeLoop))
			similarities = append(similarities, sim)
			distances = append(distances, distanceKM)
			minIDs = append(minIDs, minEdgeID(d.edgeIDs))
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	survivorIdx := score.Dedupe(keys, similarities, distances, minIDs)
	out := make([]geomodel.RouteCandidate, len(survivorIdx))
	for i, idx := range survivorIdx {
		out[i] = candidates[idx]
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		if out[i].DistanceKM != out[j].DistanceKM {
			return out[i].DistanceKM < out[j].DistanceKM
		}
		return minEdgeID(out[i].EdgeIDs) < minEdgeID(out[j].EdgeIDs)
	})
	return out
}
