package resolver

import (
	"testing"

	"github.com/standardbeagle/tldr/internal/types"
)

func TestResolveSameFileWins(t *testing.T) {
	files := []types.FileFacts{
		{
			Path:      "a.go",
			Functions: []types.FunctionFact{{Name: "helper"}},
			IntraCalls: []types.CallEdge{
				{CallerFunction: "main", CalleeName: "helper"},
			},
		},
		{
			Path:      "b.go",
			Functions: []types.FunctionFact{{Name: "helper"}},
		},
	}
	table := NewSymbolTable(files)
	edges := Resolve(files[0], table)

	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(edges))
	}
	if edges[0].DstFile != "a.go" {
		t.Errorf("expected same-file definition to win, got %q", edges[0].DstFile)
	}
}

func TestResolveUnresolvedCallDropped(t *testing.T) {
	files := []types.FileFacts{
		{
			Path: "a.go",
			IntraCalls: []types.CallEdge{
				{CallerFunction: "main", CalleeName: "doesNotExist"},
			},
		},
	}
	table := NewSymbolTable(files)
	edges := Resolve(files[0], table)
	if len(edges) != 0 {
		t.Errorf("expected unresolved call to be dropped, got %+v", edges)
	}
}

func TestResolveQualifiedCalleeStripsReceiver(t *testing.T) {
	files := []types.FileFacts{
		{
			Path:      "a.go",
			Functions: []types.FunctionFact{{Name: "send"}},
			IntraCalls: []types.CallEdge{
				{CallerFunction: "handler", CalleeName: "res.send"},
			},
		},
	}
	table := NewSymbolTable(files)
	edges := Resolve(files[0], table)
	if len(edges) != 1 || edges[0].DstFunc != "send" {
		t.Errorf("expected qualified callee to resolve to send, got %+v", edges)
	}
}

func TestResolveAmbiguousAcrossFilesPicksDeterministically(t *testing.T) {
	files := []types.FileFacts{
		{
			Path: "caller.go",
			IntraCalls: []types.CallEdge{
				{CallerFunction: "main", CalleeName: "build"},
			},
		},
		{Path: "pkg/b.go", Functions: []types.FunctionFact{{Name: "build"}}},
		{Path: "pkg/a.go", Functions: []types.FunctionFact{{Name: "build"}}},
	}
	table := NewSymbolTable(files)
	edges1 := Resolve(files[0], table)
	edges2 := Resolve(files[0], table)

	if len(edges1) != 1 || len(edges2) != 1 {
		t.Fatalf("expected exactly one edge each run")
	}
	if edges1[0].DstFile != edges2[0].DstFile {
		t.Error("expected deterministic tie-break across repeated resolution")
	}
}
