package memstore

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/carthorse/carthorse/internal/geomodel"
)

func TestInsertAndListTrails(t *testing.T) {
	s := New("region-a")
	ctx := context.Background()
	trail := geomodel.Trail{ID: uuid.New(), Name: "ridge"}

	if err := s.InsertTrails(ctx, []geomodel.Trail{trail}); err != nil {
		t.Fatalf("InsertTrails: %v", err)
	}
	got, err := s.ListTrails(ctx)
	if err != nil {
		t.Fatalf("ListTrails: %v", err)
	}
	if len(got) != 1 || got[0].ID != trail.ID {
		t.Fatalf("ListTrails = %+v, want one trail with id %s", got, trail.ID)
	}
}

func TestReplaceTrails_UnknownParentErrors(t *testing.T) {
	s := New("region-a")
	ctx := context.Background()
	err := s.ReplaceTrails(ctx, uuid.New(), nil)
	if err == nil {
		t.Fatalf("expected an error replacing a nonexistent parent trail")
	}
}

func TestReplaceTrails_SwapsParentForChildren(t *testing.T) {
	s := New("region-a")
	ctx := context.Background()
	parent := geomodel.Trail{ID: uuid.New(), Name: "whole"}
	if err := s.InsertTrails(ctx, []geomodel.Trail{parent}); err != nil {
		t.Fatalf("InsertTrails: %v", err)
	}

	child1 := geomodel.Trail{ID: uuid.New(), Name: "whole-1", ParentID: &parent.ID}
	child2 := geomodel.Trail{ID: uuid.New(), Name: "whole-2", ParentID: &parent.ID}
	if err := s.ReplaceTrails(ctx, parent.ID, []geomodel.Trail{child1, child2}); err != nil {
		t.Fatalf("ReplaceTrails: %v", err)
	}

	got, err := s.ListTrails(ctx)
	if err != nil {
		t.Fatalf("ListTrails: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d trails, want 2", len(got))
	}
	for _, tr := range got {
		if tr.ID == parent.ID {
			t.Errorf("parent trail %s still present after ReplaceTrails", parent.ID)
		}
	}
}

func TestLock_RejectsDoubleLock(t *testing.T) {
	s := New("region-a")
	ctx := context.Background()

	unlock, err := s.Lock(ctx, "vertices")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	if _, err := s.Lock(ctx, "vertices"); err == nil {
		t.Fatalf("expected second Lock on the same table to fail")
	}

	unlock()

	if unlock2, err := s.Lock(ctx, "vertices"); err != nil {
		t.Fatalf("Lock after Unlock: %v", err)
	} else {
		unlock2()
	}
}

func TestSetVertices_ReplacesPriorSet(t *testing.T) {
	s := New("region-a")
	ctx := context.Background()

	if err := s.SetVertices(ctx, []geomodel.Vertex{{ID: 1}, {ID: 2}}); err != nil {
		t.Fatalf("SetVertices: %v", err)
	}
	if err := s.SetVertices(ctx, []geomodel.Vertex{{ID: 9}}); err != nil {
		t.Fatalf("SetVertices: %v", err)
	}

	got, err := s.ListVertices(ctx)
	if err != nil {
		t.Fatalf("ListVertices: %v", err)
	}
	if len(got) != 1 || got[0].ID != 9 {
		t.Fatalf("ListVertices = %+v, want a single vertex with id 9", got)
	}
}
