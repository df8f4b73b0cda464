// Package geomodel defines the entities that flow through the Carthorse
// pipeline: trails, vertices, edges, and route candidates, plus the small
// geometric value types (points, bounding boxes, line strings) they are
// built from.
//
// Every identity that must survive a stage boundary (trail, route) carries a
// uuid.UUID; every identity that is assigned densely within a region
// (vertex, edge) is a plain int64 index into an arena (see internal/node and
// internal/routegraph). There is no pointer aliasing between entities:
// relations are always expressed as ids, per the arena-and-index design.
package geomodel

import (
	"math"

	"github.com/google/uuid"
)

// Point2D is a planar WGS84 coordinate (longitude, latitude in degrees).
type Point2D struct {
	X, Y float64
}

// Point3D adds an elevation in meters to Point2D.
type Point3D struct {
	X, Y, Z float64
}

// Flat discards elevation.
func (p Point3D) Flat() Point2D { return Point2D{X: p.X, Y: p.Y} }

// BBox is an axis-aligned bounding box in longitude/latitude degrees.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether the box has never been extended by a point.
func (b BBox) Empty() bool { return b.MinX > b.MaxX || b.MinY > b.MaxY }

// EmptyBBox returns a box in the "not yet extended" state, ready for Extend.
func EmptyBBox() BBox {
	return BBox{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
}

// Extend grows the box, if necessary, to contain p.
func (b BBox) Extend(p Point2D) BBox {
	if p.X < b.MinX {
		b.MinX = p.X
	}
	if p.Y < b.MinY {
		b.MinY = p.Y
	}
	if p.X > b.MaxX {
		b.MaxX = p.X
	}
	if p.Y > b.MaxY {
		b.MaxY = p.Y
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b BBox) Union(o BBox) BBox {
	if o.Empty() {
		return b
	}
	if b.Empty() {
		return o
	}
	return BBox{
		MinX: min(b.MinX, o.MinX),
		MinY: min(b.MinY, o.MinY),
		MaxX: max(b.MaxX, o.MaxX),
		MaxY: max(b.MaxY, o.MaxY),
	}
}

// Intersects reports whether b and o overlap or touch.
func (b BBox) Intersects(o BBox) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// ExpandByDegrees grows the box symmetrically by d degrees on every side.
// Used to turn a metric tolerance into a coarse bbox pre-filter before an
// exact geodesic distance check.
func (b BBox) ExpandByDegrees(d float64) BBox {
	return BBox{MinX: b.MinX - d, MinY: b.MinY - d, MaxX: b.MaxX + d, MaxY: b.MaxY + d}
}

// LineString is an ordered 3D polyline. Planar algorithms operate on Flat();
// elevation is only consulted when a stage explicitly needs it.
type LineString struct {
	Points []Point3D
}

// Flat projects every point to 2D, discarding elevation.
func (l LineString) Flat() []Point2D {
	out := make([]Point2D, len(l.Points))
	for i, p := range l.Points {
		out[i] = p.Flat()
	}
	return out
}

// BBox computes the 2D bounding box of the line string.
func (l LineString) BBox() BBox {
	b := EmptyBBox()
	for _, p := range l.Points {
		b = b.Extend(p.Flat())
	}
	return b
}

// TrailClass tags which lifecycle position produced a Trail, replacing the
// source repository's practice of overloading "trail" to mean raw, split
// child, or bridged connector.
type TrailClass int

const (
	TrailRaw TrailClass = iota
	TrailSplitChild
	TrailConnector
)

func (c TrailClass) String() string {
	switch c {
	case TrailRaw:
		return "raw"
	case TrailSplitChild:
		return "split-child"
	case TrailConnector:
		return "connector"
	default:
		return "unknown"
	}
}

// Trail is a named 3D polyline plus its derived statistics. See spec.md §3
// for the full invariant list; the Preparer, the Loop-Splitting Helper and
// the Splitter are the stages that construct new Trail values (Bridger
// constructs TrailConnector trails directly).
type Trail struct {
	ID         uuid.UUID
	SourceID   string
	ExternalID *string
	ParentID   *uuid.UUID
	RegionKey  string
	Name       string
	Geometry   LineString
	Class      TrailClass

	LengthKM  float64
	ElevGainM float64
	ElevLossM float64
	ElevMinM  float64
	ElevMaxM  float64
	ElevAvgM  float64
	BBox      BBox
}

// IntersectionKind classifies an IntersectionCandidate per spec.md §4.2.
type IntersectionKind int

const (
	KindTrueCrossing IntersectionKind = iota
	KindEndpointOnTrail
	KindEndpointNearMiss
	KindMultiPoint
)

// IntersectionCandidate is an ephemeral record emitted by the resolver and
// consumed by the splitter/bridger within a single pipeline run; it is never
// persisted to the workspace.
type IntersectionCandidate struct {
	TrailA, TrailB uuid.UUID
	Kind           IntersectionKind
	Points         []Point2D
	MinDistanceM   float64
}

// VertexClass labels a noded vertex by its degree, per spec.md §4.6.
type VertexClass int

const (
	VertexEndpoint VertexClass = iota
	VertexConnector
	VertexIntersection
)

// ClassifierAction is an optional learned recommendation surfaced alongside
// a Vertex's degree-derived classification; the Vertex Classifier never
// applies these itself (spec.md §4.6).
type ClassifierAction int

const (
	ActionKeep ClassifierAction = iota
	ActionMergeThrough
	ActionSplitYT
)

// ClassifierPrediction is an optional override surfaced by a predictions
// table for the Route Enumerator's scoring.
type ClassifierPrediction struct {
	Action     ClassifierAction
	Confidence float64
}

// Vertex is a planar-noded point of the routable graph.
type Vertex struct {
	ID             int64
	Point          Point3D
	Degree         int
	Classification VertexClass
	Prediction     *ClassifierPrediction
}

// Edge is a routable segment between two vertices.
type Edge struct {
	ID                   int64
	Source, Target       int64
	Geometry             LineString
	LengthKM             float64
	ElevGainM, ElevLossM float64
	Cost, ReverseCost    float64
	OriginatingTrailID   uuid.UUID
	OriginatingTrailName string
}

// RouteShape is the requested shape for a route candidate/pattern.
type RouteShape int

const (
	ShapeLoop RouteShape = iota
	ShapeOutAndBack
	ShapePointToPoint
)

func (s RouteShape) String() string {
	switch s {
	case ShapeLoop:
		return "loop"
	case ShapeOutAndBack:
		return "out-and-back"
	case ShapePointToPoint:
		return "point-to-point"
	default:
		return "unknown"
	}
}

// Pattern is one configured route-matching target (spec.md §4.7/§6).
type Pattern struct {
	Shape         RouteShape
	TargetKM      float64
	TargetGainM   float64
	TolerancePct  float64
	MaxDepth      int
}

// RouteCandidate is an ordered sequence of edges forming a path.
type RouteCandidate struct {
	ID           uuid.UUID
	Shape        RouteShape
	EdgeIDs      []int64
	DistanceKM   float64
	GainM        float64
	Similarity   float64
	AnchorVertex int64
	TrailNames   []string
}
