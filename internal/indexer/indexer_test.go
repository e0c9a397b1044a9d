package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/tldr/internal/workspace"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReindexFindsAndResolvesCalls(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), `package main

func main() {
	helper()
}
`)
	writeFile(t, filepath.Join(root, "helper.go"), `package main

func helper() {
	println("hi")
}
`)

	ix := New(root, workspace.NewFilter(workspace.Config{}), 0)
	indexed, failed := ix.Reindex()
	if indexed != 2 {
		t.Fatalf("indexed = %d, want 2 (failed: %v)", indexed, failed)
	}
	if len(failed) != 0 {
		t.Fatalf("unexpected failures: %v", failed)
	}

	paths := ix.Paths()
	if len(paths) != 2 {
		t.Fatalf("Paths() = %v, want 2 entries", paths)
	}

	edges := ix.Stack.GetAllEdges()
	var found bool
	for _, e := range edges {
		if e.SrcFunc == "main" && e.DstFunc == "helper" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a resolved main->helper edge, got %+v", edges)
	}
}

func TestNotifyChangedEvictsCacheAndReportsDurability(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	writeFile(t, path, "package main\n\nfunc main() {}\n")

	ix := New(root, workspace.NewFilter(workspace.Config{}), 0)
	ix.Reindex()
	if _, ok := ix.FileFacts(path); !ok {
		t.Fatal("expected main.go to be indexed")
	}

	durable := ix.NotifyChanged(path)
	if durable {
		t.Fatal("main.go is not under a vendored directory, want durable=false")
	}
	if _, ok := ix.FileFacts(path); ok {
		t.Fatal("NotifyChanged should drop the file's cached facts")
	}

	vendoredPath := filepath.Join(root, "node_modules", "pkg", "index.js")
	writeFile(t, vendoredPath, "function f() {}\n")
	if durable := ix.NotifyChanged(vendoredPath); !durable {
		t.Fatal("node_modules path should report durable=true")
	}
}

func TestReindexSkipsExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n\nfunc main() {}\n")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), "function f() {}\n")

	ix := New(root, workspace.NewFilter(workspace.Config{}), 0)
	indexed, _ := ix.Reindex()
	if indexed != 1 {
		t.Fatalf("indexed = %d, want 1 (node_modules should be excluded)", indexed)
	}
}
