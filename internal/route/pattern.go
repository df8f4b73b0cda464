package route

import (
	"fmt"

	"github.com/carthorse/carthorse/internal/config"
	"github.com/carthorse/carthorse/internal/geomodel"
)

// shapeFromConfig maps the YAML-facing pattern shape string to the
// internal RouteShape enum.
func shapeFromConfig(s string) (geomodel.RouteShape, error) {
	switch s {
	case "loop":
		return geomodel.ShapeLoop, nil
	case "out-and-back":
		return geomodel.ShapeOutAndBack, nil
	case "point-to-point":
		return geomodel.ShapePointToPoint, nil
	default:
		return 0, fmt.Errorf("route: unrecognized pattern shape %q", s)
	}
}

// toPattern converts one config.Pattern into the internal geomodel.Pattern
// the search strategies operate on.
func toPattern(p config.Pattern) (geomodel.Pattern, error) {
	shape, err := shapeFromConfig(p.Shape)
	if err != nil {
		return geomodel.Pattern{}, err
	}
	return geomodel.Pattern{
		Shape:        shape,
		TargetKM:     p.TargetKM,
		TargetGainM:  p.TargetGainM,
		TolerancePct: p.TolerancePct,
		MaxDepth:     p.MaxDepth,
	}, nil
}
