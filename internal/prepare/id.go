package prepare

import (
	"fmt"

	"github.com/google/uuid"
)

// carthorseNamespace seeds the Preparer's deterministic (SHA-1, version 5)
// trail-id derivation, so identical input always yields identical trail ids
// across runs (spec.md §8, round-trip idempotence).
var carthorseNamespace = uuid.MustParse("3c9c1b0a-0a7e-4f1a-9a3e-6b9f0a2c9d11")

// deterministicTrailID derives a stable UUID from a raw trail's source
// identity and region, so re-running the Preparer on the same input
// produces the same trail ids.
func deterministicTrailID(raw RawTrail) uuid.UUID {
	seed := fmt.Sprintf("%s/%s/%s", raw.RegionKey, raw.SourceID, derefOr(raw.ExternalID, ""))
	return uuid.NewSHA1(carthorseNamespace, []byte(seed))
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
