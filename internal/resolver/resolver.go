// Package resolver implements the cross-file call resolver (C4): turning
// each file's intra-file CallEdges into project-wide ResolvedEdges against
// a symbol table of exported definitions.
package resolver

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/tldr/internal/types"
)

// Definition is one entry in the project-wide symbol table: a function
// name and the file that defines it.
type Definition struct {
	Name string
	File string
}

// SymbolTable maps an exported name to every file that defines it.
type SymbolTable map[string][]Definition

// NewSymbolTable builds a SymbolTable from a set of FileFacts, indexing
// every top-level function and method by name.
func NewSymbolTable(files []types.FileFacts) SymbolTable {
	table := make(SymbolTable)
	for _, f := range files {
		for _, fn := range f.Functions {
			table[fn.Name] = append(table[fn.Name], Definition{Name: fn.Name, File: f.Path})
		}
		for _, cls := range f.Classes {
			for _, m := range cls.Methods {
				table[m.Name] = append(table[m.Name], Definition{Name: m.Name, File: f.Path})
			}
		}
	}
	return table
}

// Resolve converts f's intra-file CallEdges into ResolvedEdges against
// table. A callee with no definition in table is silently dropped and
// never produces an edge; a callee defined in several files resolves to
// exactly one of them through pickDefinition's tie-break chain.
func Resolve(f types.FileFacts, table SymbolTable) []types.ResolvedEdge {
	var out []types.ResolvedEdge
	for _, call := range f.IntraCalls {
		name := lastSegment(call.CalleeName)
		defs, ok := table[name]
		if !ok || len(defs) == 0 {
			continue
		}
		def, ok := pickDefinition(f.Path, name, defs)
		if !ok {
			continue
		}
		out = append(out, types.ResolvedEdge{
			SrcFile: f.Path,
			SrcFunc: call.CallerFunction,
			DstFile: def.File,
			DstFunc: def.Name,
		})
	}
	return out
}

// lastSegment strips a receiver/namespace qualifier (obj.f, a::f, a:f) so
// the bare callee name can be looked up in the symbol table.
func lastSegment(callee string) string {
	for _, sep := range []string{"::", ".", ":"} {
		if i := strings.LastIndex(callee, sep); i >= 0 {
			return callee[i+len(sep):]
		}
	}
	return callee
}

// pickDefinition applies the tie-break chain from spec.md §4.4:
// (a) same-file definition wins; (b) otherwise the definition whose file
// path is the closest edit-distance match to the caller's file, with a
// lexicographic fallback for an exact tie.
func pickDefinition(callerFile, name string, defs []Definition) (Definition, bool) {
	if len(defs) == 1 {
		return defs[0], true
	}

	for _, d := range defs {
		if d.File == callerFile {
			return d, true
		}
	}

	bestScore := -1.0
	var bestDefs []Definition
	for _, d := range defs {
		score, err := edlib.StringsSimilarity(callerFile, d.File, edlib.Levenshtein)
		if err != nil {
			continue
		}
		s := float64(score)
		switch {
		case s > bestScore:
			bestScore = s
			bestDefs = []Definition{d}
		case s == bestScore:
			bestDefs = append(bestDefs, d)
		}
	}
	if len(bestDefs) == 0 {
		return defs[0], true
	}

	sort.Slice(bestDefs, func(i, j int) bool { return bestDefs[i].File < bestDefs[j].File })
	return bestDefs[0], true
}
