package daemon

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/tldr/internal/workspace"
)

func writeFixture(t *testing.T, root string) {
	t.Helper()
	main := `package main

func main() {
	helper()
}

func helper() {
	println("hi")
}
`
	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte(main), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	root := t.TempDir()
	writeFixture(t, root)
	filter := workspace.NewFilter(workspace.Config{})
	k := NewKernel(root, filter, 0)
	if err := k.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(k.Shutdown)
	return k
}

func TestKernelStartIndexesFixture(t *testing.T) {
	k := newTestKernel(t)
	if got := k.Indexer.FileCount(); got != 1 {
		t.Fatalf("FileCount = %d, want 1", got)
	}
}

func TestDispatchPing(t *testing.T) {
	k := newTestKernel(t)
	resp := k.Dispatch("ping", nil)
	if resp.Status != "ok" {
		t.Fatalf("status = %q, want ok", resp.Status)
	}
	if resp.Fields["pong"] != true {
		t.Fatalf("pong field missing or false: %+v", resp.Fields)
	}
}

func TestDispatchSearchFindsHelper(t *testing.T) {
	k := newTestKernel(t)
	resp := k.Dispatch("search", mustArgs(t, map[string]any{"name": "help"}))
	if resp.Status != "ok" {
		t.Fatalf("search failed: %+v", resp)
	}
	matches, ok := resp.Fields["matches"].([]funcMatch)
	if !ok {
		t.Fatalf("matches field has unexpected type: %T", resp.Fields["matches"])
	}
	if len(matches) != 1 || matches[0].Name != "helper" {
		t.Fatalf("matches = %+v, want one match named helper", matches)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	k := newTestKernel(t)
	resp := k.Dispatch("bogus", nil)
	if resp.Status != "error" {
		t.Fatalf("status = %q, want error", resp.Status)
	}
}

func TestDispatchShutdownIsIdempotent(t *testing.T) {
	k := newTestKernel(t)
	r1 := k.Dispatch("shutdown", nil)
	r2 := k.Dispatch("shutdown", nil)
	if r1.Status != "ok" || r2.Status != "ok" {
		t.Fatalf("shutdown should always report ok, got %+v / %+v", r1, r2)
	}
	k.mu.Lock()
	state := k.state
	k.mu.Unlock()
	if state != StateStopped {
		t.Fatalf("state after shutdown = %q, want stopped", state)
	}
}

// mustArgs encodes a plain map into the map[string]json.RawMessage shape
// Dispatch expects, matching what readRequest produces off the wire.
func mustArgs(t *testing.T, m map[string]any) map[string]json.RawMessage {
	t.Helper()
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		out[k] = data
	}
	return out
}
