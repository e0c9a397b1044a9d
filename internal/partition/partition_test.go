package partition

import (
	"testing"

	"github.com/standardbeagle/tldr/internal/types"
)

func TestIsDurable(t *testing.T) {
	cases := map[string]bool{
		"src/main.go":                                   false,
		"node_modules/lodash/index.js":                  true,
		"backend/.venv/lib/python3.11/site-packages/x":   true,
		"vendor/github.com/pkg/errors/errors.go":        true,
		"app/__pycache__/mod.cpython-311.pyc":           true,
		`windows\node_modules\x\y.js`:                   true,
	}
	for path, want := range cases {
		if got := IsDurable(path); got != want {
			t.Errorf("IsDurable(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestPackageKeyNodeModules(t *testing.T) {
	if got := PackageKey("node_modules/lodash/index.js"); got != "lodash" {
		t.Errorf("got %q, want lodash", got)
	}
}

func TestPackageKeyScopedNodeModules(t *testing.T) {
	if got := PackageKey("node_modules/@types/react/index.d.ts"); got != "@types/react" {
		t.Errorf("got %q, want @types/react", got)
	}
}

func TestPackageKeySitePackages(t *testing.T) {
	if got := PackageKey(".venv/lib/python3.11/site-packages/numpy/core.py"); got != "numpy" {
		t.Errorf("got %q, want numpy", got)
	}
}

func TestPackageKeyVendorGoStyle(t *testing.T) {
	if got := PackageKey("vendor/github.com/pkg/errors/errors.go"); got != "github.com/pkg/errors" {
		t.Errorf("got %q, want github.com/pkg/errors", got)
	}
}

func TestPackageKeyVendorSimple(t *testing.T) {
	if got := PackageKey("vendor/lodash/index.js"); got != "lodash" {
		t.Errorf("got %q, want lodash", got)
	}
}

func TestClassifySortsIntoDurableAndVolatile(t *testing.T) {
	idx := types.NewPartitionedIndex()
	Classify(idx, types.ResolvedEdge{SrcFile: "node_modules/lodash/index.js", SrcFunc: "f", DstFile: "node_modules/lodash/index.js", DstFunc: "g"})
	Classify(idx, types.ResolvedEdge{SrcFile: "src/main.go", SrcFunc: "main", DstFile: "src/util.go", DstFunc: "helper"})

	if len(idx.Durable) != 1 {
		t.Fatalf("expected 1 durable partition, got %d", len(idx.Durable))
	}
	if _, ok := idx.Durable["lodash"]; !ok {
		t.Error("expected lodash partition")
	}
	if len(idx.Volatile.ByFile["src/main.go"]) != 1 {
		t.Error("expected volatile edge for src/main.go")
	}
}

func TestFilterReindexableDropsDurable(t *testing.T) {
	in := []string{"src/main.go", "node_modules/lodash/index.js", "vendor/github.com/pkg/errors/errors.go"}
	out := FilterReindexable(in)
	if len(out) != 1 || out[0] != "src/main.go" {
		t.Errorf("got %v, want only src/main.go", out)
	}
}
