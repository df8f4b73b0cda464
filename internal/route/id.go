package route

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/route/score"
)

// routeNamespace seeds deterministic route-candidate ids so the same
// graph and pattern set always produce the same RouteCandidate.ID
// (spec.md §5's round-trip idempotence invariant, extended to routes).
var routeNamespace = uuid.MustParse("7e8e6a9e-9b8e-4b1a-9e8a-1e6c9a2c9d88")

func deterministicRouteID(shape geomodel.RouteShape, edgeIDs []int64) uuid.UUID {
	closed := shape == geomodel.ShapeLoop
	seed := fmt.Sprintf("%d/%s", shape, score.Canonicalize(edgeIDs, closed))
	return uuid.NewSHA1(routeNamespace, []byte(seed))
}
