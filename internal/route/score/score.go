// Package score implements the Route Enumerator's similarity scoring and
// duplicate canonicalization (spec.md §4.7), shared by every search
// strategy in internal/route so that loop, out-and-back, and
// point-to-point candidates are ranked and deduplicated the same way.
package score

import (
	"sort"
	"strconv"
)

// Similarity scores a candidate against a requested (targetKM,
// targetGainM) pair: 1 minus the mean of the relative distance error and
// the relative gain error, floored at 0, so a candidate whose two relative
// errors sum to 2 or more scores 0 rather than going negative.
func Similarity(actualKM, targetKM, actualGainM, targetGainM float64) float64 {
	if targetKM <= 0 || targetGainM <= 0 {
		return 0
	}
	distErr := abs(actualKM-targetKM) / targetKM
	gainErr := abs(actualGainM-targetGainM) / targetGainM
	s := 1 - (distErr+gainErr)/2
	if s < 0 {
		return 0
	}
	return s
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// MinSimilarity is the discard threshold named in spec.md §4.7.
const MinSimilarity = 0.3

// Canonicalize produces a stable dedup key for an edge-id sequence,
// collapsing the rotation and reversal symmetries a closed loop can be
// discovered under (the same scheme internal/route/cycles uses for
// elementary-cycle signatures) and, for an open (non-loop) sequence,
// just the forward/reverse symmetry.
func Canonicalize(edgeIDs []int64, closed bool) string {
	if len(edgeIDs) == 0 {
		return ""
	}
	reversed := make([]int64, len(edgeIDs))
	for i, id := range edgeIDs {
		reversed[len(edgeIDs)-1-i] = id
	}

	var best []int64
	if closed {
		best = minimalRotation(edgeIDs)
		if r := minimalRotation(reversed); lessSeq(r, best) {
			best = r
		}
	} else {
		best = edgeIDs
		if lessSeq(reversed, best) {
			best = reversed
		}
	}
	return joinInts(best)
}

func minimalRotation(seq []int64) []int64 {
	n := len(seq)
	best := seq
	for r := 1; r < n; r++ {
		rotated := append(append([]int64(nil), seq[r:]...), seq[:r]...)
		if lessSeq(rotated, best) {
			best = rotated
		}
	}
	return best
}

func lessSeq(a, b []int64) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func joinInts(ids []int64) string {
	out := make([]byte, 0, len(ids)*8)
	for _, id := range ids {
		out = strconv.AppendInt(out, id, 10)
		out = append(out, ',')
	}
	return string(out)
}

// Dedupe keeps only the best-scoring candidate per canonical key,
// returning survivors ordered by descending similarity, then ascending
// distance, then ascending minimum edge id (spec.md §4.7's determinism
// rule).
func Dedupe(keys []string, similarity, distanceKM []float64, minEdgeID []int64) []int {
	best := make(map[string]int, len(keys))
	for i, k := range keys {
		cur, ok := best[k]
		if !ok || similarity[i] > similarity[cur] {
			best[k] = i
		}
	}
	survivors := make([]int, 0, len(best))
	for _, i := range best {
		survivors = append(survivors, i)
	}
	sort.Slice(survivors, func(a, b int) bool {
		ia, ib := survivors[a], survivors[b]
		if similarity[ia] != similarity[ib] {
			return similarity[ia] > similarity[ib]
		}
		if distanceKM[ia] != distanceKM[ib] {
			return distanceKM[ia] < distanceKM[ib]
		}
		return minEdgeID[ia] < minEdgeID[ib]
	})
	return survivors
}
