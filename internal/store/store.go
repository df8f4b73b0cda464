// Package store defines the Workspace contract every pipeline stage reads
// from and writes to: a namespaced, region-scoped set of tables holding the
// intermediate state of a single pipeline run (spec.md §6, "Persisted state
// layout"). Two implementations exist: memstore, an in-process store used
// by tests and the end-to-end pipeline scenarios, and postgres, a
// PostGIS-backed store for real runs.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/carthorse/carthorse/internal/geomodel"
)

// Well-known table names, per spec.md §6.
const (
	TableTrails            = "trails"
	TableIntersectionPoints = "intersection_points"
	TableNodedEdges         = "noded_edges"
	TableVertices           = "vertices"
	TableRoutes             = "routes"
)

// Unlock releases a lock acquired by Workspace.Lock.
type Unlock func()

// Workspace is the staging workspace a single pipeline run targets. It is a
// single-writer region (spec.md §5): exactly one run should hold it at a
// time, enforced by callers via Lock on the tables a stage mutates.
type Workspace interface {
	// RegionKey identifies which region this workspace instance serves.
	RegionKey() string

	// Trails

	ListTrails(ctx context.Context) ([]geomodel.Trail, error)
	InsertTrails(ctx context.Context, trails []geomodel.Trail) error
	DeleteTrails(ctx context.Context, ids []uuid.UUID) error

	// ReplaceTrails atomically deletes a parent trail and inserts its
	// children in a single logical commit (spec.md §4.3).
	ReplaceTrails(ctx context.Context, parent uuid.UUID, children []geomodel.Trail) error

	// Topology

	SetVertices(ctx context.Context, vertices []geomodel.Vertex) error
	SetEdges(ctx context.Context, edges []geomodel.Edge) error
	ListVertices(ctx context.Context) ([]geomodel.Vertex, error)
	ListEdges(ctx context.Context) ([]geomodel.Edge, error)

	// Routes

	SetRoutes(ctx context.Context, routes []geomodel.RouteCandidate) error
	ListRoutes(ctx context.Context) ([]geomodel.RouteCandidate, error)

	// Lock acquires an exclusive lock on the named tables for the duration
	// of the caller's stage, per spec.md §5 ("the noder and topology
	// builder hold an exclusive lock on the routable-edges and vertices
	// tables for the duration of their run").
	Lock(ctx context.Context, tables ...string) (Unlock, error)
}
