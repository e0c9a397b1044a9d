package graphs

import (
	"testing"

	"github.com/standardbeagle/tldr/internal/types"
)

func TestBuildDFGTracksDefThenUse(t *testing.T) {
	source := "func f() {\n\tx := 1\n\ty := x\n}\n"
	fn := types.FunctionFact{Name: "f", StartLine: 1, EndLine: 4}
	dfg := BuildDFG(fn, source)

	if len(dfg.DataflowEdges) == 0 {
		t.Fatal("expected at least one dataflow edge from x's definition to its use")
	}
	found := false
	for _, e := range dfg.DataflowEdges {
		if e.VarName == "x" {
			found = true
		}
	}
	if !found {
		t.Error("expected a dataflow edge for variable x")
	}
}

func TestBuildDFGFieldAccessUsesObjectOnly(t *testing.T) {
	source := "func f() {\n\ta := 1\n\tb := a.Field\n}\n"
	fn := types.FunctionFact{Name: "f", StartLine: 1, EndLine: 4}
	dfg := BuildDFG(fn, source)

	for _, ref := range dfg.VarRefs {
		if ref.Name == "Field" {
			t.Error("field access a.Field must not record a use of Field")
		}
	}
}

func TestBuildDFGMissingFunctionReturnsEmpty(t *testing.T) {
	fn := types.FunctionFact{Name: "missing", StartLine: 99, EndLine: 100}
	dfg := BuildDFG(fn, "short\nfile\n")
	if len(dfg.VarRefs) != 0 || len(dfg.DataflowEdges) != 0 {
		t.Error("expected an empty DFG, not an error, for an out-of-range function")
	}
}
