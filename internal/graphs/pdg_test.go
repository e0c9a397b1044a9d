package graphs

import (
	"testing"

	"github.com/standardbeagle/tldr/internal/types"
)

func TestBuildPDGControlEdgesFromDecision(t *testing.T) {
	source := "func f() {\n\tif x {\n\t\treturn 1\n\t}\n\treturn 0\n}\n"
	fn := types.FunctionFact{Name: "f", StartLine: 1, EndLine: 6}
	pdg, err := BuildPDG(fn, source)
	if err != nil {
		t.Fatal(err)
	}
	hasTrue, hasFalse := false, false
	for _, e := range pdg.Edges {
		if e.DepType != types.DepControl {
			continue
		}
		if e.Label == "true" {
			hasTrue = true
		}
		if e.Label == "false" {
			hasFalse = true
		}
	}
	if !hasTrue || !hasFalse {
		t.Error("expected both a true-branch and false-branch control edge")
	}
}

func TestBuildPDGNoResultOnMissingFunction(t *testing.T) {
	fn := types.FunctionFact{Name: "missing", StartLine: 99, EndLine: 100}
	_, err := BuildPDG(fn, "short\nfile\n")
	if err == nil {
		t.Fatal("expected a NoResultError")
	}
	if _, ok := err.(*NoResultError); !ok {
		t.Errorf("expected *NoResultError, got %T", err)
	}
}
