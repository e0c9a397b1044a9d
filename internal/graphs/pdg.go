package graphs

import (
	"fmt"

	"github.com/standardbeagle/tldr/internal/types"
)

// NoResultError is returned by BuildPDG when the underlying CFG can't be
// built (spec.md §4.3: PDG "returns no result" on failure).
type NoResultError struct{ FunctionName string }

func (e *NoResultError) Error() string {
	return fmt.Sprintf("no result for function %q", e.FunctionName)
}

// BuildPDG builds the program-dependence graph for fn: control edges from
// each condition/loop-header block to the blocks its branch decides
// (a direct stand-in for the conventional post-dominator formulation,
// exact for the single-entry/single-exit shape BuildCFG produces), and
// data edges mirroring the DFG's reaching definitions at block
// granularity.
func BuildPDG(fn types.FunctionFact, source string) (types.PDGInfo, error) {
	cfg, lineToBlock, err := buildCFG(fn, source)
	if err != nil {
		return types.PDGInfo{}, &NoResultError{FunctionName: fn.Name}
	}
	dfg := BuildDFG(fn, source)

	var edges []types.PDGEdge
	for _, e := range cfg.Edges {
		switch e.Kind {
		case types.EdgeTrueBranch:
			edges = append(edges, types.PDGEdge{SrcBlock: e.SrcID, DstBlock: e.DstID, DepType: types.DepControl, Label: "true"})
		case types.EdgeFalseBranch:
			edges = append(edges, types.PDGEdge{SrcBlock: e.SrcID, DstBlock: e.DstID, DepType: types.DepControl, Label: "false"})
		}
	}

	for _, d := range dfg.DataflowEdges {
		srcBlock, ok1 := lineToBlock[d.DefSite.Line]
		dstBlock, ok2 := lineToBlock[d.UseSite.Line]
		if !ok1 || !ok2 {
			continue
		}
		edges = append(edges, types.PDGEdge{
			SrcBlock: srcBlock,
			DstBlock: dstBlock,
			DepType:  types.DepData,
			Label:    d.VarName,
		})
	}

	return types.PDGInfo{CFG: cfg, DFG: dfg, Edges: edges}, nil
}
