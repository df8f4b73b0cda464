// Package memstore is an in-process store.Workspace backed by guarded maps,
// used by the pipeline's own tests and by small local runs that don't need
// a real spatial relational store. It follows the same separate-mutex,
// guarded-map shape the adapted routegraph uses for its own vertex/edge
// storage, scaled down to a single coarse-grained lock per table group
// since staging volumes are small enough that contention isn't a concern.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/carthorse/carthorse/internal/geomodel"
	"github.com/carthorse/carthorse/internal/store"
)

// Store is a single region's in-memory workspace.
type Store struct {
	regionKey string

	muTrails sync.RWMutex
	trails   map[uuid.UUID]geomodel.Trail

	muTopo   sync.RWMutex
	vertices []geomodel.Vertex
	edges    []geomodel.Edge

	muRoutes sync.RWMutex
	routes   []geomodel.RouteCandidate

	muLock sync.Mutex
	locked map[string]bool
}

// New creates an empty Store scoped to regionKey.
func New(regionKey string) *Store {
	return &Store{
		regionKey: regionKey,
		trails:    make(map[uuid.UUID]geomodel.Trail),
		locked:    make(map[string]bool),
	}
}

var _ store.Workspace = (*Store)(nil)

// RegionKey implements store.Workspace.
func (s *Store) RegionKey() string { return s.regionKey }

// ListTrails implements store.Workspace.
func (s *Store) ListTrails(_ context.Context) ([]geomodel.Trail, error) {
	s.muTrails.RLock()
	defer s.muTrails.RUnlock()
	out := make([]geomodel.Trail, 0, len(s.trails))
	for _, t := range s.trails {
		out = append(out, t)
	}
	return out, nil
}

// InsertTrails implements store.Workspace.
func (s *Store) InsertTrails(_ context.Context, trails []geomodel.Trail) error {
	s.muTrails.Lock()
	defer s.muTrails.Unlock()
	for _, t := range trails {
		s.trails[t.ID] = t
	}
	return nil
}

// DeleteTrails implements store.Workspace.
func (s *Store) DeleteTrails(_ context.Context, ids []uuid.UUID) error {
	s.muTrails.Lock()
	defer s.muTrails.Unlock()
	for _, id := range ids {
		delete(s.trails, id)
	}
	return nil
}

// ReplaceTrails implements store.Workspace.
func (s *Store) ReplaceTrails(_ context.Context, parent uuid.UUID, children []geomodel.Trail) error {
	s.muTrails.Lock()
	defer s.muTrails.Unlock()
	if _, ok := s.trails[parent]; !ok {
		return fmt.Errorf("memstore: replace trails: parent %s not found", parent)
	}
	delete(s.trails, parent)
	for _, c := range children {
		s.trails[c.ID] = c
	}
	return nil
}

// SetVertices implements store.Workspace.
func (s *Store) SetVertices(_ context.Context, vertices []geomodel.Vertex) error {
	s.muTopo.Lock()
	defer s.muTopo.Unlock()
	s.vertices = append([]geomodel.Vertex(nil), vertices...)
	return nil
}

// SetEdges implements store.Workspace.
func (s *Store) SetEdges(_ context.Context, edges []geomodel.Edge) error {
	s.muTopo.Lock()
	defer s.muTopo.Unlock()
	s.edges = append([]geomodel.Edge(nil), edges...)
	return nil
}

// ListVertices implements store.Workspace.
func (s *Store) ListVertices(_ context.Context) ([]geomodel.Vertex, error) {
	s.muTopo.RLock()
	defer s.muTopo.RUnlock()
	return append([]geomodel.Vertex(nil), s.vertices...), nil
}

// ListEdges implements store.Workspace.
func (s *Store) ListEdges(_ context.Context) ([]geomodel.Edge, error) {
	s.muTopo.RLock()
	defer s.muTopo.RUnlock()
	return append([]geomodel.Edge(nil), s.edges...), nil
}

// SetRoutes implements store.Workspace.
func (s *Store) SetRoutes(_ context.Context, routes []geomodel.RouteCandidate) error {
	s.muRoutes.Lock()
	defer s.muRoutes.Unlock()
	s.routes = append([]geomodel.RouteCandidate(nil), routes...)
	return nil
}

// ListRoutes implements store.Workspace.
func (s *Store) ListRoutes(_ context.Context) ([]geomodel.RouteCandidate, error) {
	s.muRoutes.RLock()
	defer s.muRoutes.RUnlock()
	return append([]geomodel.RouteCandidate(nil), s.routes...), nil
}

// Lock implements store.Workspace with a simple in-process exclusive flag
// per table name; it is not reentrant and returns an error on a detected
// double-lock, which would indicate two stages racing on the same workspace.
func (s *Store) Lock(_ context.Context, tables ...string) (store.Unlock, error) {
	s.muLock.Lock()
	for _, t := range tables {
		if s.locked[t] {
			s.muLock.Unlock()
			return nil, fmt.Errorf("memstore: table %q already locked", t)
		}
	}
	for _, t := range tables {
		s.locked[t] = true
	}
	s.muLock.Unlock()

	return func() {
		s.muLock.Lock()
		for _, t := range tables {
			delete(s.locked, t)
		}
		s.muLock.Unlock()
	}, nil
}
