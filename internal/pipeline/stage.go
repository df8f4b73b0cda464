package pipeline

import "context"

// StageReport summarizes what a Stage did, for logging and for the caller
// deciding whether downstream stages have meaningful work to do.
type StageReport struct {
	Stage       string
	TrailsIn    int
	TrailsOut   int
	VerticesOut int
	EdgesOut    int
	RoutesOut   int
	Notes       string
}

// Stage is one step of the pipeline (spec.md §3's ordered stage list). Each
// stage reads whatever it needs from the Workspace in pc, does its work,
// writes its output back to the Workspace, and returns a report. A stage
// must not retain pc or ctx beyond the call.
type Stage interface {
	Name() string
	Run(ctx context.Context, pc *Context) (StageReport, error)
}
