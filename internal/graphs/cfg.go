// Package graphs builds the CFG/DFG/PDG structures (C3) from a function's
// source text. Because the languages covered by the indexer span three
// very different block-closing conventions (braces, indentation, and the
// "end" keyword), the builder infers which convention a function body
// uses and walks it generically rather than each language needing its
// own CFG walker; construction follows spec.md §4.3's rules exactly
// (one decision edge per if/elif/else/while/for/repeat-until/switch-case/
// exception-handler, continue -> back edge to the nearest loop header,
// break -> edge to the post-loop block, return -> edge to exit).
package graphs

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/standardbeagle/tldr/internal/types"
)

// NotFoundError is returned by BuildCFG when fn's line range doesn't
// resolve to any text in source.
type NotFoundError struct{ FunctionName string }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("function %q not found", e.FunctionName)
}

// The keyword regexes are unanchored and scanned with FindAllStringIndex
// rather than matched once against the start of the line: several source
// languages this builder covers (Luau in particular) permit more than one
// decision keyword on a single physical line, e.g. a one-line nested
// if/else. loopTokenRe and decisionTokenRe carry disjoint keyword sets so a
// loop header is never also counted as a plain decision; "else\s+if" and
// "elseif" are listed ahead of bare "if" so an else-if consumes both words
// as one token instead of leaving a dangling "if" to match again.
var (
	loopTokenRe     = regexp.MustCompile(`\b(while|for|repeat)\b`)
	decisionTokenRe = regexp.MustCompile(`\b(else\s+if|elseif|elsif|elif|switch|case|catch|except|if)\b`)
	continueTokenRe = regexp.MustCompile(`\bcontinue\b`)
	breakTokenRe    = regexp.MustCompile(`\bbreak\b`)
	returnTokenRe   = regexp.MustCompile(`\breturn\b`)
)

type tokenKind int

const (
	tokLoop tokenKind = iota
	tokDecision
	tokContinue
	tokBreak
	tokReturn
)

type cfgToken struct {
	start int
	kind  tokenKind
}

// scanTokens finds every control-flow keyword in line, in left-to-right
// order, so a line carrying more than one (a one-line nested if/else, a
// for-loop with an inline continue) contributes one CFG event per keyword
// rather than at most one per line.
func scanTokens(line string) []cfgToken {
	var toks []cfgToken
	collect := func(re *regexp.Regexp, kind tokenKind) {
		for _, loc := range re.FindAllStringIndex(line, -1) {
			toks = append(toks, cfgToken{start: loc[0], kind: kind})
		}
	}
	collect(loopTokenRe, tokLoop)
	collect(decisionTokenRe, tokDecision)
	collect(continueTokenRe, tokContinue)
	collect(breakTokenRe, tokBreak)
	collect(returnTokenRe, tokReturn)
	sort.Slice(toks, func(i, j int) bool { return toks[i].start < toks[j].start })
	return toks
}

// BuildCFG builds the control-flow graph for fn from its source span in
// source. Returns *NotFoundError if fn's line range is out of bounds.
func BuildCFG(fn types.FunctionFact, source string) (types.CFGInfo, error) {
	info, _, err := buildCFG(fn, source)
	return info, err
}

// buildCFG additionally returns the line -> active-block-ID map the PDG
// builder uses to place data-dependence edges at block granularity.
func buildCFG(fn types.FunctionFact, source string) (types.CFGInfo, map[int]int, error) {
	lines := strings.Split(source, "\n")
	start, end := fn.StartLine, fn.EndLine
	if start <= 0 || start > len(lines) {
		return types.CFGInfo{}, nil, &NotFoundError{FunctionName: fn.Name}
	}
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if end < start {
		end = start
	}
	body := lines[start-1 : end]

	b := &cfgBuilder{
		blocks:      []types.CFGBlock{{ID: 0, Kind: types.BlockEntry}},
		exitID:      1,
		lineToBlock: map[int]int{},
	}
	b.blocks = append(b.blocks, types.CFGBlock{ID: 1, Kind: types.BlockExit})
	b.nextID = 2
	b.current = 0

	for i, line := range body {
		lineNo := start + i
		for _, tok := range scanTokens(line) {
			b.applyToken(tok.kind)
		}
		b.lineToBlock[lineNo] = b.current
	}
	// Fall through from whatever block is live at the end of the body to exit.
	b.addEdge(b.current, b.exitID, types.EdgeFallThrough)

	info := types.CFGInfo{
		FunctionName: fn.Name,
		Blocks:       b.blocks,
		Edges:        b.edges,
		EntryBlockID: 0,
		ExitBlockIDs: []int{b.exitID},
	}
	info.CyclomaticComplexity = types.ComputeCyclomaticComplexity(info.Edges, info.Blocks)
	return info, b.lineToBlock, nil
}

type cfgBuilder struct {
	blocks  []types.CFGBlock
	edges   []types.CFGEdge
	nextID  int
	current int
	exitID  int

	loopHeaders []int // stack of loop header block IDs, innermost last
	postLoop    []int // parallel stack: the block a break on that loop targets

	lineToBlock map[int]int
}

func (b *cfgBuilder) newBlock(kind types.CFGBlockKind) int {
	id := b.nextID
	b.nextID++
	b.blocks = append(b.blocks, types.CFGBlock{ID: id, Kind: kind})
	return id
}

func (b *cfgBuilder) addEdge(src, dst int, kind types.CFGEdgeKind) {
	b.edges = append(b.edges, types.CFGEdge{SrcID: src, DstID: dst, Kind: kind})
}

func (b *cfgBuilder) applyToken(kind tokenKind) {
	switch kind {
	case tokLoop:
		header := b.newBlock(types.BlockLoopHeader)
		b.addEdge(b.current, header, types.EdgeFallThrough)
		post := b.newBlock(types.BlockBreakTarget)
		b.loopHeaders = append(b.loopHeaders, header)
		b.postLoop = append(b.postLoop, post)
		body := b.newBlock(types.BlockBasic)
		b.addEdge(header, body, types.EdgeTrueBranch)
		b.addEdge(header, post, types.EdgeFalseBranch)
		b.current = body

	case tokDecision:
		cond := b.newBlock(types.BlockCondition)
		b.addEdge(b.current, cond, types.EdgeFallThrough)
		taken := b.newBlock(types.BlockBasic)
		b.addEdge(cond, taken, types.EdgeTrueBranch)
		join := b.newBlock(types.BlockBasic)
		b.addEdge(cond, join, types.EdgeFalseBranch)
		// Every branch that doesn't itself terminate (return/break/continue)
		// is assumed to merge back with the non-taken path, giving each
		// decision exactly one net complexity point regardless of what
		// follows textually in the body.
		b.addEdge(taken, join, types.EdgeFallThrough)
		b.current = join

	case tokContinue:
		if n := len(b.loopHeaders); n > 0 {
			b.addEdge(b.current, b.loopHeaders[n-1], types.EdgeContinue)
		}
		b.current = b.newBlock(types.BlockBasic)

	case tokBreak:
		if n := len(b.postLoop); n > 0 {
			b.addEdge(b.current, b.postLoop[n-1], types.EdgeBreak)
			if len(b.loopHeaders) > 0 {
				b.loopHeaders = b.loopHeaders[:len(b.loopHeaders)-1]
				b.postLoop = b.postLoop[:len(b.postLoop)-1]
			}
		}
		b.current = b.newBlock(types.BlockBasic)

	case tokReturn:
		b.addEdge(b.current, b.exitID, types.EdgeFallThrough)
		b.current = b.newBlock(types.BlockBasic)
	}
}
