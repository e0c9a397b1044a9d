package types

// CFGBlockKind enumerates the block roles in a control-flow graph.
type CFGBlockKind string

const (
	BlockEntry          CFGBlockKind = "entry"
	BlockExit           CFGBlockKind = "exit"
	BlockBasic          CFGBlockKind = "basic"
	BlockCondition      CFGBlockKind = "condition"
	BlockLoopHeader     CFGBlockKind = "loop_header"
	BlockContinueTarget CFGBlockKind = "continue_target"
	BlockBreakTarget    CFGBlockKind = "break_target"
)

// CFGEdgeKind enumerates the control-flow edge kinds.
type CFGEdgeKind string

const (
	EdgeFallThrough CFGEdgeKind = "fall_through"
	EdgeTrueBranch  CFGEdgeKind = "true_branch"
	EdgeFalseBranch CFGEdgeKind = "false_branch"
	EdgeBack        CFGEdgeKind = "back_edge"
	EdgeBreak       CFGEdgeKind = "break_edge"
	EdgeContinue    CFGEdgeKind = "continue_edge"
)

// CFGBlock is one basic block.
type CFGBlock struct {
	ID            int
	Kind          CFGBlockKind
	StatementIDs  []int
}

// CFGEdge is a directed edge between two blocks.
type CFGEdge struct {
	SrcID int
	DstID int
	Kind  CFGEdgeKind
}

// CFGInfo is the control-flow graph for a single function.
type CFGInfo struct {
	FunctionName         string
	Blocks               []CFGBlock
	Edges                []CFGEdge
	EntryBlockID         int
	ExitBlockIDs         []int
	CyclomaticComplexity int
}

// ComputeCyclomaticComplexity applies spec.md's E - N + 2 formula for a
// single connected component (one function, one entry).
func ComputeCyclomaticComplexity(edges []CFGEdge, blocks []CFGBlock) int {
	return len(edges) - len(blocks) + 2
}

// VarRefKind distinguishes a definition from a use in the DFG.
type VarRefKind string

const (
	RefDefinition VarRefKind = "definition"
	RefUse        VarRefKind = "use"
)

// VarRef is one variable reference site.
type VarRef struct {
	Name   string
	Kind   VarRefKind
	Line   int
	Column int
}

// DataflowEdge connects a reaching definition to a use of the same variable.
type DataflowEdge struct {
	VarName string
	DefSite VarRef
	UseSite VarRef
}

// DFGInfo is the data-flow graph for a single function.
type DFGInfo struct {
	FunctionName  string
	VarRefs       []VarRef
	DataflowEdges []DataflowEdge
}

// PDGDepKind distinguishes control dependence from data dependence.
type PDGDepKind string

const (
	DepControl PDGDepKind = "control"
	DepData    PDGDepKind = "data"
)

// PDGEdge is one program-dependence edge.
type PDGEdge struct {
	SrcBlock int
	DstBlock int
	DepType  PDGDepKind
	Label    string // variable name for data deps, branch label for control deps
}

// PDGInfo wraps a CFG/DFG pair with the derived dependence edges.
type PDGInfo struct {
	CFG   CFGInfo
	DFG   DFGInfo
	Edges []PDGEdge
}
