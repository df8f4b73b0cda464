package loopsplit

import (
	"fmt"

	"github.com/google/uuid"
)

var apexChildNamespace = uuid.MustParse("6a1e8d22-6f0b-4d9a-9e33-1a6f2a8b6c40")

// childID deterministically derives an apex-split child's id from its
// parent and position, so re-running the helper on the same input
// reproduces identical ids.
func childID(parent uuid.UUID, ordinal int) uuid.UUID {
	return uuid.NewSHA1(apexChildNamespace, []byte(fmt.Sprintf("%s/%d", parent, ordinal)))
}
