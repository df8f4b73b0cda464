package score_test

import (
	"testing"

	"github.com/carthorse/carthorse/internal/route/score"
)

func TestSimilarity_ExactMatch(t *testing.T) {
	if s := score.Similarity(10, 10, 200, 200); s != 1 {
		t.Fatalf("expected similarity 1 for an exact match, got %v", s)
	}
}

func TestSimilarity_SaturatesAtZero(t *testing.T) {
	if s := score.Similarity(100, 10, 200, 200); s != 0 {
		t.Fatalf("expected similarity 0 for a wildly off candidate, got %v", s)
	}
}

func TestSimilarity_BelowThresholdDiscarded(t *testing.T) {
	s := score.Similarity(26, 10, 200, 200)
	if s >= score.MinSimilarity {
		t.Fatalf("expected this candidate's similarity %v to fall below the discard threshold", s)
	}
}

func TestCanonicalize_RotationInvariant(t *testing.T) {
	a := score.Canonicalize([]int64{1, 2, 3}, true)
	b := score.Canonicalize([]int64{2, 3, 1}, true)
	c := score.Canonicalize([]int64{3, 1, 2}, true)
	if a != b || b != c {
		t.Fatalf("expected all rotations to canonicalize identically: %q %q %q", a, b, c)
	}
}

func TestCanonicalize_ReversalInvariant(t *testing.T) {
	a := score.Canonicalize([]int64{1, 2, 3}, true)
	b := score.Canonicalize([]int64{3, 2, 1}, true)
	if a != b {
		t.Fatalf("expected forward and reversed loops to canonicalize identically: %q %q", a, b)
	}
}

func TestCanonicalize_OpenSequenceDoesNotRotate(t *testing.T) {
	a := score.Canonicalize([]int64{1, 2, 3}, false)
	b := score.Canonicalize([]int64{2, 3, 1}, false)
	if a == b {
		t.Fatalf("a rotation of an open sequence should not canonicalize the same as the original")
	}
	rev := score.Canonicalize([]int64{3, 2, 1}, false)
	if a != rev {
		t.Fatalf("expected an open sequence and its reversal to canonicalize identically")
	}
}

func TestDedupe_KeepsBestScoringPerKey(t *testing.T) {
	keys := []string{"x", "x", "y"}
	similarity := []float64{0.5, 0.9, 0.7}
	distanceKM := []float64{5, 5, 3}
	minEdgeID := []int64{1, 2, 3}

	survivors := score.Dedupe(keys, similarity, distanceKM, minEdgeID)
	if len(survivors) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(survivors))
	}
	if survivors[0] != 1 {
		t.Fatalf("expected the better-scoring duplicate (index 1) ranked first, got %d", survivors[0])
	}
}
