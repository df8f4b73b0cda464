package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Runner executes a fixed sequence of stages in order, per spec.md §5:
// "stages run sequentially and each stage fully completes before the next
// begins." A stage's returned error always halts the run; there is no
// partial-pipeline recovery, since each stage's Workspace writes are only
// meaningful once every upstream stage has finished.
type Runner struct {
	stages        []Stage
	stageDeadline time.Duration
}

// NewRunner builds a Runner over the given stages, applied in order. A
// zero stageDeadline means stages run with no per-stage timeout beyond the
// caller's own context.
func NewRunner(stageDeadline time.Duration, stages ...Stage) *Runner {
	return &Runner{stages: stages, stageDeadline: stageDeadline}
}

// Run executes every stage in order, returning the reports of the stages
// that completed (the stage that failed, if any, contributes no report)
// alongside the first error encountered.
func (r *Runner) Run(ctx context.Context, pc *Context) ([]StageReport, error) {
	reports := make([]StageReport, 0, len(r.stages))
	for _, s := range r.stages {
		stageCtx, cancel := WithStageDeadline(ctx, r.stageDeadline)
		log := pc.Log
		if log == nil {
			log = zap.NewNop()
		}
		log.Info("stage starting", zap.String("stage", s.Name()))

		report, err := s.Run(stageCtx, pc)
		cancel()
		if err != nil {
			log.Error("stage failed", zap.String("stage", s.Name()), zap.Error(err))
			return reports, err
		}
		reports = append(reports, report)
		log.Info("stage finished",
			zap.String("stage", s.Name()),
			zap.Int("trails_out", report.TrailsOut),
			zap.Int("vertices_out", report.VerticesOut),
			zap.Int("edges_out", report.EdgesOut),
			zap.Int("routes_out", report.RoutesOut),
		)
	}
	return reports, nil
}
