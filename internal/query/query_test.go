package query

import (
	"sync/atomic"
	"testing"
)

func TestComputeMemoizes(t *testing.T) {
	revisions := NewRevisions()
	layer := NewLayer(revisions)

	var calls int32
	fn := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return "result", nil
	}

	key := CanonicalKey("extract", "a.go")
	v1, err := layer.Compute(key, []string{"a.go"}, fn)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := layer.Compute(key, []string{"a.go"}, fn)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != "result" || v2 != "result" {
		t.Fatalf("unexpected values: %v %v", v1, v2)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1 (memoized)", calls)
	}

	hits, misses := layer.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("hits=%d misses=%d, want 1/1", hits, misses)
	}
}

func TestNotifyFileChangedInvalidates(t *testing.T) {
	revisions := NewRevisions()
	layer := NewLayer(revisions)

	var calls int32
	fn := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return "v", nil
	}

	key := CanonicalKey("extract", "a.go")
	layer.Compute(key, []string{"a.go"}, fn)
	revisions.NotifyFileChanged("a.go")
	layer.Compute(key, []string{"a.go"}, fn)

	if calls != 2 {
		t.Errorf("fn called %d times, want 2 (cache invalidated after notify)", calls)
	}
}

func TestCanonicalKeySortsListArgs(t *testing.T) {
	k1 := CanonicalKey("tree", []string{"b", "a"})
	k2 := CanonicalKey("tree", []string{"a", "b"})
	if k1 != k2 {
		t.Errorf("expected order-independent list args to produce the same key: %q vs %q", k1, k2)
	}
}

func TestInvalidateDropsDependentEntries(t *testing.T) {
	revisions := NewRevisions()
	layer := NewLayer(revisions)

	fn := func() (any, error) { return "v", nil }
	key := CanonicalKey("extract", "a.go")
	layer.Compute(key, []string{"a.go"}, fn)

	layer.Invalidate("a.go")

	var calls int32
	fn2 := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return "v2", nil
	}
	layer.Compute(key, []string{"a.go"}, fn2)
	if calls != 1 {
		t.Error("expected eager invalidation to force recomputation")
	}
}
