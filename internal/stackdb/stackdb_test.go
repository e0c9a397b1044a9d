package stackdb

import (
	"testing"
	"time"

	"github.com/standardbeagle/tldr/internal/types"
)

func edge(src, dst string) types.ResolvedEdge {
	return types.ResolvedEdge{SrcFile: src, SrcFunc: "f", DstFile: dst, DstFunc: "g"}
}

func TestAddAndGetAllEdges(t *testing.T) {
	db := New()
	db.AddEdge(edge("a.go", "b.go"))
	db.AddEdge(edge("b.go", "c.go"))

	edges := db.GetAllEdges()
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(edges))
	}
}

func TestRemoveEdgeShadowsAcrossFork(t *testing.T) {
	db := New()
	id := db.AddEdge(edge("a.go", "b.go"))

	forked := db.Fork()
	forked.AddEdge(edge("c.go", "d.go"))
	forked.RemoveEdge(id)

	edges := forked.GetAllEdges()
	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1 (the root edge should be shadowed)", len(edges))
	}
	if edges[0].SrcFile != "c.go" {
		t.Errorf("unexpected surviving edge: %+v", edges[0])
	}

	// The original DB (pre-fork) must be unaffected by the fork's deletion.
	if len(db.GetAllEdges()) != 1 {
		t.Error("root DB should still see its own edge")
	}
}

func TestRollbackAtRootReturnsEmptyDB(t *testing.T) {
	db := New()
	db.AddEdge(edge("a.go", "b.go"))

	back := db.Rollback()
	if len(back.GetAllEdges()) != 0 {
		t.Error("rollback at root should produce an empty DB, not an error")
	}
}

func TestRollbackReturnsParentLayer(t *testing.T) {
	db := New()
	db.AddEdge(edge("a.go", "b.go"))

	forked := db.Fork()
	forked.AddEdge(edge("c.go", "d.go"))

	back := forked.Rollback()
	edges := back.GetAllEdges()
	if len(edges) != 1 || edges[0].SrcFile != "a.go" {
		t.Errorf("expected rollback to expose only the parent's edge, got %+v", edges)
	}
}

func TestCompactDropsDeletions(t *testing.T) {
	db := New()
	id := db.AddEdge(edge("a.go", "b.go"))
	db.AddEdge(edge("c.go", "d.go"))
	db.RemoveEdge(id)

	compacted := db.Compact()
	edges := compacted.GetAllEdges()
	if len(edges) != 1 {
		t.Fatalf("got %d edges after compact, want 1", len(edges))
	}

	// A fork of the compacted DB that deletes nothing should see the same edge,
	// confirming no deletion records survived compaction.
	forked := compacted.Fork()
	if len(forked.GetAllEdges()) != 1 {
		t.Error("compacted DB should carry no stale deletions forward")
	}
}

func TestQueryAtStack(t *testing.T) {
	db := New()
	db.AddEdge(edge("a.go", "b.go"))
	rootID := db.TopID()

	forked := db.Fork()
	forked.AddEdge(edge("c.go", "d.go"))

	edges, ok := forked.QueryAtStack(rootID)
	if !ok {
		t.Fatal("expected to find the root stack by id")
	}
	if len(edges) != 1 || edges[0].SrcFile != "a.go" {
		t.Errorf("unexpected edges at root stack: %+v", edges)
	}
}

func TestCompactResetsDepthToOne(t *testing.T) {
	db := New()
	db.AddEdge(edge("a.go", "b.go"))

	forked := db.Fork()
	forked.AddEdge(edge("c.go", "d.go"))
	twiceForked := forked.Fork()
	twiceForked.AddEdge(edge("e.go", "f.go"))

	if got := twiceForked.Depth(); got != 3 {
		t.Fatalf("depth before compact = %d, want 3", got)
	}

	before := twiceForked.GetAllEdges()
	compacted := twiceForked.Compact()

	if got := compacted.Depth(); got != 1 {
		t.Errorf("depth() after compact = %d, want 1", got)
	}
	after := compacted.GetAllEdges()
	if len(after) != len(before) {
		t.Fatalf("get_all_edges() changed across compact: before %d, after %d", len(before), len(after))
	}
}

func TestQueryAtTime(t *testing.T) {
	db := New()
	db.AddEdge(edge("a.go", "b.go"))
	mid := time.Now()

	time.Sleep(time.Millisecond)
	forked := db.Fork()
	forked.AddEdge(edge("c.go", "d.go"))

	edges, ok := forked.QueryAtTime(mid)
	if !ok {
		t.Fatal("expected to find an ancestor at or before mid")
	}
	if len(edges) != 1 || edges[0].SrcFile != "a.go" {
		t.Errorf("query_at_time should see only the root layer's edge, got %+v", edges)
	}
}
