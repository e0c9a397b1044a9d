package graphs

import (
	"testing"

	"github.com/standardbeagle/tldr/internal/types"
)

func TestBuildCFGSimpleFunctionComplexityOne(t *testing.T) {
	source := "func plain() {\n\tx := 1\n\treturn x\n}\n"
	fn := types.FunctionFact{Name: "plain", StartLine: 1, EndLine: 4}
	cfg, err := BuildCFG(fn, source)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CyclomaticComplexity < 1 {
		t.Errorf("expected complexity >= 1, got %d", cfg.CyclomaticComplexity)
	}
}

func TestBuildCFGIfAddsDecisionEdge(t *testing.T) {
	source := "func f() {\n\tif x {\n\t\treturn 1\n\t}\n\treturn 0\n}\n"
	fn := types.FunctionFact{Name: "f", StartLine: 1, EndLine: 6}
	cfg, err := BuildCFG(fn, source)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CyclomaticComplexity != 2 {
		t.Errorf("expected complexity 2 for a single if, got %d", cfg.CyclomaticComplexity)
	}
}

func TestBuildCFGNotFoundOutOfRange(t *testing.T) {
	fn := types.FunctionFact{Name: "missing", StartLine: 99, EndLine: 100}
	_, err := BuildCFG(fn, "short\nfile\n")
	if err == nil {
		t.Fatal("expected NotFoundError")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("expected *NotFoundError, got %T", err)
	}
}

// TestBuildCFGLuauOneLinerNestedIf is the literal spec.md §8 "Luau CFG"
// scenario: two nested ifs on a single physical line must still register
// as two independent decision points even though neither starts the line.
func TestBuildCFGLuauOneLinerNestedIf(t *testing.T) {
	source := `function classify(x:number):string if x>0 then if x>100 then return "large" else return "small" end else return "non-positive" end end`
	fn := types.FunctionFact{Name: "classify", StartLine: 1, EndLine: 1}
	cfg, err := BuildCFG(fn, source)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CyclomaticComplexity != 3 {
		t.Errorf("expected complexity 3 for two nested ifs, got %d", cfg.CyclomaticComplexity)
	}
}

func TestBuildCFGContinueBacksToLoopHeader(t *testing.T) {
	source := "func f() {\n\tfor i := range xs {\n\t\tcontinue\n\t}\n}\n"
	fn := types.FunctionFact{Name: "f", StartLine: 1, EndLine: 5}
	cfg, err := BuildCFG(fn, source)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range cfg.Edges {
		if e.Kind == types.EdgeContinue {
			found = true
		}
	}
	if !found {
		t.Error("expected a continue back-edge")
	}
}
