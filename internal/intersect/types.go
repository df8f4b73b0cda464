package intersect

import (
	"sort"

	"github.com/google/uuid"

	"github.com/carthorse/carthorse/internal/geomodel"
)

// SplitInstruction is one ordered split point along a trail, in arc-length
// position from the trail's start.
type SplitInstruction struct {
	ArcLengthM float64
	Point      geomodel.Point3D
}

// NearMissPair is a recorded endpoint-to-endpoint near miss for the
// Bridger, per spec.md §4.2's "Record for the Bridger; do not split".
type NearMissPair struct {
	TrailA, TrailB         uuid.UUID
	AEndIsStart, BEndIsStart bool
	DistanceM              float64
}

// Result is the Intersection Resolver's full output: per-trail ordered
// split instructions plus the near-miss pairs handed to the Bridger. It is
// ephemeral — consumed within the same pipeline run by the Splitter and
// Bridger stages, never persisted to the workspace (spec.md §3).
type Result struct {
	Instructions map[uuid.UUID][]SplitInstruction
	NearMiss     []NearMissPair
}

// Handoff is the scratch slot the Splitter and Bridger stages read from
// after the Resolver stage populates it, within a single pipeline run.
type Handoff struct {
	Result Result
}

// SortedInstructions returns trailID's split instructions in ascending
// arc-length order, with duplicates (within snapToleranceM of a
// neighbor) collapsed to the earliest one, per spec.md §4.2's tie-break.
func (r Result) SortedInstructions(trailID uuid.UUID, snapToleranceM float64) []SplitInstruction {
	instr := append([]SplitInstruction(nil), r.Instructions[trailID]...)
	sort.Slice(instr, func(i, j int) bool { return instr[i].ArcLengthM < instr[j].ArcLengthM })

	out := instr[:0:0]
	for _, s := range instr {
		if len(out) > 0 && s.ArcLengthM-out[len(out)-1].ArcLengthM <= snapToleranceM {
			continue
		}
		out = append(out, s)
	}
	return out
}
