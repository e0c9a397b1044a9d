// Package stackdb implements the stacked snapshot database (C7): an
// immutable chain of call-graph layers supporting cheap forks, rollback,
// and deletion-shadowing across layers (the "meta-glean" rule from
// spec.md §4.7).
package stackdb

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/tldr/internal/types"
)

// DB is the stacked snapshot database. Only the top stack is writable;
// fork/rollback/compact return new DBs rather than mutating in place.
type DB struct {
	mu  sync.RWMutex
	top *types.ImmutableStack
	seq uint64
}

// New creates a DB with a single root stack.
func New() *DB {
	return &DB{top: types.NewStack(genID("root", 0), nil)}
}

func genID(prefix string, seq uint64) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%s-%d-%d", prefix, seq, time.Now().UnixNano())
	return fmt.Sprintf("%s-%016x", prefix, h.Sum64())
}

// AddEdge appends an edge to the topmost stack, returning its id.
func (db *DB) AddEdge(e types.ResolvedEdge) string {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.seq++
	id := genID("edge", db.seq)
	db.top.Edges = append(db.top.Edges, types.Edge{ID: id, Value: e})
	return id
}

// RemoveEdge shadows edgeID in the topmost stack's deletion set. The edge
// may have been defined in this stack or any ancestor; either way it
// becomes invisible from this point down the chain.
func (db *DB) RemoveEdge(edgeID string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.top.Deletions[edgeID] = struct{}{}
}

// GetAllEdges walks from the top stack to the root, accumulating
// deletions seen so far; an edge is visible iff no stack from the top
// down to (and including) its own layer shadows its id.
func (db *DB) GetAllEdges() []types.ResolvedEdge {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return getAllEdges(db.top)
}

func getAllEdges(top *types.ImmutableStack) []types.ResolvedEdge {
	shadowed := make(map[string]struct{})
	var chain []*types.ImmutableStack
	for s := top; s != nil; s = s.Parent {
		chain = append(chain, s)
	}
	for _, s := range chain {
		for id := range s.Deletions {
			shadowed[id] = struct{}{}
		}
	}

	seen := make(map[string]struct{})
	var out []types.ResolvedEdge
	for _, s := range chain {
		for _, e := range s.Edges {
			if _, dead := shadowed[e.ID]; dead {
				continue
			}
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			out = append(out, e.Value)
		}
	}
	return out
}

// Fork returns a new DB whose top stack has this DB's current top as
// parent — a cheap speculative branch that shares all prior layers.
func (db *DB) Fork() *DB {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return &DB{top: types.NewStack(genID("fork", db.seq), db.top)}
}

// Rollback returns a DB whose top is the parent of the current top. At
// root, it returns a fresh empty DB rather than an error.
func (db *DB) Rollback() *DB {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.top.Parent == nil {
		return New()
	}
	return &DB{top: db.top.Parent}
}

// Compact returns a new DB with a single root stack containing exactly
// the currently visible edges; no deletions are retained.
func (db *DB) Compact() *DB {
	edges := db.GetAllEdges()
	out := New()
	for _, e := range edges {
		out.AddEdge(e)
	}
	return out
}

// QueryAtStack returns the visible edge set as of the stack with the
// given id, searching from top to root. It returns (nil, false) if no
// stack in the chain has that id.
func (db *DB) QueryAtStack(id string) ([]types.ResolvedEdge, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for s := db.top; s != nil; s = s.Parent {
		if s.ID == id {
			return getAllEdges(s), true
		}
	}
	return nil, false
}

// QueryAtTime selects the most recent ancestor of the current top whose
// CreatedAt is at or before t, and returns its visible edge set.
func (db *DB) QueryAtTime(t time.Time) ([]types.ResolvedEdge, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for s := db.top; s != nil; s = s.Parent {
		if !s.CreatedAt.After(t) {
			return getAllEdges(s), true
		}
	}
	return nil, false
}

// TopID returns the id of the current topmost stack, for status reporting.
func (db *DB) TopID() string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.top.ID
}

// Depth returns the number of stacks from the current top down to (and
// including) the root, i.e. 1 for a DB with no forks.
func (db *DB) Depth() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	n := 0
	for s := db.top; s != nil; s = s.Parent {
		n++
	}
	return n
}
