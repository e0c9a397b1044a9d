package graphs

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/tldr/internal/types"
)

var (
	// assignRe matches "name = expr", "name := expr" (Go-style declare-
	// assign), and "name += expr" etc, without consuming any of the RHS.
	// Group 2 is the declare colon, group 3 the compound operator (both
	// empty for a plain "="), group 4 a trailing "=" that means this was
	// actually "==" (comparison, not assignment).
	assignRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*(:)?([+\-*/%]?)=(=?)`)
	paramDeclRe = regexp.MustCompile(`\b(?:var|let|const|local)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	forVarRe    = regexp.MustCompile(`^\s*for\s+([A-Za-z_][A-Za-z0-9_]*)\b`)
	identRe     = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*`)
)

// BuildDFG builds the data-flow graph for fn. Per spec.md §4.3, an empty
// graph is returned (never an error) when fn can't be located, preserving
// the no-throw contract bulk indexers rely on.
func BuildDFG(fn types.FunctionFact, source string) types.DFGInfo {
	info := types.DFGInfo{FunctionName: fn.Name}

	lines := strings.Split(source, "\n")
	start, end := fn.StartLine, fn.EndLine
	if start <= 0 || start > len(lines) {
		return info
	}
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if end < start {
		end = start
	}
	body := lines[start-1 : end]

	lastDef := map[string]types.VarRef{}

	recordUse := func(name string, ref types.VarRef) {
		info.VarRefs = append(info.VarRefs, ref)
		if def, ok := lastDef[name]; ok {
			info.DataflowEdges = append(info.DataflowEdges, types.DataflowEdge{
				VarName: name,
				DefSite: def,
				UseSite: ref,
			})
		}
	}
	recordDef := func(name string, ref types.VarRef) {
		info.VarRefs = append(info.VarRefs, ref)
		lastDef[name] = ref
	}

	for i, line := range body {
		lineNo := start + i

		if m := forVarRe.FindStringSubmatch(line); m != nil {
			recordDef(m[1], types.VarRef{Name: m[1], Kind: types.RefDefinition, Line: lineNo})
		}
		for _, m := range paramDeclRe.FindAllStringSubmatch(line, -1) {
			recordDef(m[1], types.VarRef{Name: m[1], Kind: types.RefDefinition, Line: lineNo})
		}

		assignedName := ""
		isCompound := false
		rhsStart := 0
		if m := assignRe.FindStringSubmatchIndex(line); m != nil && m[8] == m[9] {
			// m[8]:m[9] is the "==" indicator group; equal bounds means empty,
			// i.e. this was a real assignment rather than a comparison.
			assignedName = line[m[2]:m[3]]
			isCompound = m[7] > m[6]
			rhsStart = m[1]
		}

		if assignedName != "" && isCompound {
			// Compound assignment is both a use and a definition of the LHS.
			recordUse(assignedName, types.VarRef{Name: assignedName, Kind: types.RefUse, Line: lineNo})
		}

		scanFrom := 0
		if assignedName != "" {
			scanFrom = rhsStart
		}
		for _, tok := range identRe.FindAllString(line[scanFrom:], -1) {
			base := tok
			if dot := strings.IndexByte(tok, '.'); dot >= 0 {
				base = tok[:dot] // field access a.b: use of a only
			}
			if isKeyword(base) || base == assignedName {
				continue
			}
			recordUse(base, types.VarRef{Name: base, Kind: types.RefUse, Line: lineNo})
		}

		if assignedName != "" {
			recordDef(assignedName, types.VarRef{Name: assignedName, Kind: types.RefDefinition, Line: lineNo})
		}
	}

	return info
}

var keywords = map[string]bool{
	"if": true, "else": true, "elif": true, "elsif": true, "while": true, "for": true,
	"return": true, "break": true, "continue": true, "function": true, "def": true,
	"func": true, "var": true, "let": true, "const": true, "local": true, "end": true,
	"do": true, "then": true, "switch": true, "case": true, "catch": true, "try": true,
	"except": true, "class": true, "struct": true, "fun": true, "val": true,
}

func isKeyword(s string) bool { return keywords[s] }
