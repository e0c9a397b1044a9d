// Package query implements the memoizing query layer (C8): each query is
// a pure function of its canonicalized argument tuple and of the file
// revisions it read. A cache hit requires every recorded revision to
// still be current; otherwise the entry is discarded and recomputed.
// Concurrent identical requests collapse onto a single computation via
// golang.org/x/sync/singleflight.
package query

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Revisions tracks a monotonic counter per file path. notify_file_changed
// bumps it; a cached result's dependency set is checked against this
// before being served.
type Revisions struct {
	mu   sync.RWMutex
	rev  map[string]uint64
}

func NewRevisions() *Revisions {
	return &Revisions{rev: make(map[string]uint64)}
}

// Current returns path's revision (0 if never touched).
func (r *Revisions) Current(path string) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rev[path]
}

// NotifyFileChanged bumps path's revision counter.
func (r *Revisions) NotifyFileChanged(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rev[path]++
}

type cacheEntry struct {
	value   any
	depRevs map[string]uint64
}

// Layer is a memoized query cache, keyed by canonical argument tuple. The
// kernel keeps a single Layer for all operations; CanonicalKey puts the
// operation name first in every key, so operations never share entries.
type Layer struct {
	mu        sync.RWMutex
	entries   map[string]cacheEntry
	group     singleflight.Group
	revisions *Revisions

	hits   uint64
	misses uint64
}

// NewLayer creates a memoizing layer backed by revisions for invalidation.
func NewLayer(revisions *Revisions) *Layer {
	return &Layer{entries: make(map[string]cacheEntry), revisions: revisions}
}

// Compute runs fn(key) memoized by key, recording deps as the set of file
// paths the computation read. A stale cache entry (one whose recorded
// revision no longer matches Revisions' current value) is discarded and
// recomputed; concurrent callers with the same key share one computation.
func (l *Layer) Compute(key string, deps []string, fn func() (any, error)) (any, error) {
	if v, ok := l.lookup(key); ok {
		l.mu.Lock()
		l.hits++
		l.mu.Unlock()
		return v, nil
	}

	result, err, _ := l.group.Do(key, func() (any, error) {
		if v, ok := l.lookup(key); ok {
			return v, nil
		}
		v, err := fn()
		if err != nil {
			return nil, err
		}
		l.store(key, v, deps)
		return v, nil
	})
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.misses++
	l.mu.Unlock()
	return result, nil
}

func (l *Layer) lookup(key string) (any, bool) {
	l.mu.RLock()
	e, ok := l.entries[key]
	l.mu.RUnlock()
	if !ok {
		return nil, false
	}
	for path, rev := range e.depRevs {
		if l.revisions.Current(path) != rev {
			l.mu.Lock()
			delete(l.entries, key)
			l.mu.Unlock()
			return nil, false
		}
	}
	return e.value, true
}

func (l *Layer) store(key string, value any, deps []string) {
	depRevs := make(map[string]uint64, len(deps))
	for _, d := range deps {
		depRevs[d] = l.revisions.Current(d)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = cacheEntry{value: value, depRevs: depRevs}
}

// Stats reports hit/miss counters for status output.
func (l *Layer) Stats() (hits, misses uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.hits, l.misses
}

// Invalidate drops every cached entry that depends on path. The kernel's
// notify handler calls it right after Revisions.NotifyFileChanged bumps
// path's counter, as an eager sweep of entries that Compute's lookup
// check would otherwise discard lazily.
func (l *Layer) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if _, ok := e.depRevs[path]; ok {
			delete(l.entries, key)
		}
	}
}

// CanonicalKey builds a deterministic cache key from an operation name and
// a set of named arguments. List-valued arguments are sorted first since
// their order is semantically irrelevant for every memoized operation in
// spec.md §4.8 (slice directions and single values pass through as-is).
func CanonicalKey(op string, args ...any) string {
	var b strings.Builder
	b.WriteString(op)
	for _, a := range args {
		b.WriteByte('|')
		switch v := a.(type) {
		case []string:
			sorted := append([]string(nil), v...)
			sort.Strings(sorted)
			b.WriteString(strings.Join(sorted, ","))
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}
	return b.String()
}
