// Package treesitter implements the tree-sitter-backed path of the
// per-file extractor (C2) for the languages the pack ships real grammars
// for: Go, Python, JavaScript, TypeScript, Java, C#, C++, PHP, and Rust.
// Each language registers a spec with engine.go's generic query-driven
// walker rather than hand-writing a bespoke tree walk per grammar.
package treesitter

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/tldr/internal/langregistry"
	"github.com/standardbeagle/tldr/internal/types"
)

// spec binds one language to its grammar and the queries used to recover
// function/method/class definitions and call expressions from its parse
// tree.
type spec struct {
	lang *sitter.Language

	// funcQuery captures @function.name (and optionally @method.name) on
	// the node spanning the whole function/method, plus the optional
	// @function.params (a parameter-list node) and @function.async
	// (present iff an "async" token was matched).
	funcQuery string
	// classQuery captures @class.name on the node spanning the whole
	// class/struct/interface declaration (@class). Optional: languages
	// with no class concept (Go, Rust) simply omit it.
	classQuery string
	// callQuery captures @call.name on the callee of a call expression;
	// @call.object is set when the callee has a receiver (x.map(...)).
	callQuery string
	// importQuery captures @import.source, the module/path string literal.
	importQuery string
}

type engine struct {
	language types.Language
	spec     spec

	parser  *sitter.Parser
	funcQ   *sitter.Query
	classQ  *sitter.Query
	callQ   *sitter.Query
	importQ *sitter.Query
}

func newEngine(language types.Language, s spec) *engine {
	parser := sitter.NewParser()
	if err := parser.SetLanguage(s.lang); err != nil {
		return nil
	}
	e := &engine{language: language, spec: s, parser: parser}
	if q, err := sitter.NewQuery(s.lang, s.funcQuery); err == nil && q != nil {
		e.funcQ = q
	}
	if s.classQuery != "" {
		if q, err := sitter.NewQuery(s.lang, s.classQuery); err == nil && q != nil {
			e.classQ = q
		}
	}
	if q, err := sitter.NewQuery(s.lang, s.callQuery); err == nil && q != nil {
		e.callQ = q
	}
	if s.importQuery != "" {
		if q, err := sitter.NewQuery(s.lang, s.importQuery); err == nil && q != nil {
			e.importQ = q
		}
	}
	return e
}

func register(language types.Language, s spec) {
	e := newEngine(language, s)
	if e == nil {
		return
	}
	langregistry.Register(language, e)
}

// ExtractFacts implements langregistry.Extractor.
func (e *engine) ExtractFacts(path, source string) (types.FileFacts, error) {
	content := []byte(source)
	tree := e.parser.Parse(content, nil)
	if tree == nil {
		return types.FileFacts{}, fmt.Errorf("treesitter: failed to parse %s", path)
	}
	defer tree.Close()
	root := tree.RootNode()

	facts := types.FileFacts{Path: path, Language: e.language}

	if e.funcQ != nil {
		facts.Functions = e.extractFunctions(root, content, path)
	}
	if e.classQ != nil {
		facts.Classes = e.extractClasses(root, content, facts.Functions)
	}
	if e.callQ != nil {
		facts.IntraCalls = e.extractCalls(root, content, facts.Functions)
	}
	imports, _ := e.ParseImports(source)
	facts.Imports = imports
	return facts, nil
}

// ParseImports implements langregistry.Extractor.
func (e *engine) ParseImports(source string) ([]types.ImportFact, error) {
	if e.importQ == nil {
		return nil, nil
	}
	content := []byte(source)
	tree := e.parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("treesitter: failed to parse for imports")
	}
	defer tree.Close()

	var imports []types.ImportFact
	runQuery(e.importQ, tree.RootNode(), content, func(captures map[string]*sitter.Node) {
		n, ok := captures["import.source"]
		if !ok {
			return
		}
		module := strings.Trim(textOf(n, content), `"'`)
		imports = append(imports, types.ImportFact{
			Kind:   types.ImportKindImport,
			Module: module,
			Line:   int(n.StartPosition().Row) + 1,
		})
	})
	return imports, nil
}

func (e *engine) extractFunctions(root *sitter.Node, content []byte, path string) []types.FunctionFact {
	var out []types.FunctionFact
	runQuery(e.funcQ, root, content, func(captures map[string]*sitter.Node) {
		nameNode, ok := captures["function.name"]
		if !ok {
			nameNode, ok = captures["method.name"]
		}
		if !ok {
			return
		}
		// jsExportedAssignment matches any `object.NAME = function…`; restrict
		// it to `exports.NAME` / `module.exports.NAME` here rather than via a
		// query predicate (engine cannot assume the binding evaluates those).
		if objNode, gated := captures["_export.object"]; gated {
			if !strings.Contains(textOf(objNode, content), "exports") {
				return
			}
		}
		scopeNode, hasScope := captures["function"]
		if !hasScope {
			scopeNode, hasScope = captures["method"]
		}
		if !hasScope {
			scopeNode = nameNode
		}
		out = append(out, types.FunctionFact{
			Name:       textOf(nameNode, content),
			Params:     paramNames(captures["function.params"], content),
			IsAsync:    captures["function.async"] != nil,
			StartLine:  int(scopeNode.StartPosition().Row) + 1,
			EndLine:    int(scopeNode.EndPosition().Row) + 1,
			Language:   e.language,
			OwningFile: path,
		})
	})
	return out
}

// extractClasses finds class/struct declarations and attaches whichever
// already-extracted functions/methods fall within each class's line span.
func (e *engine) extractClasses(root *sitter.Node, content []byte, functions []types.FunctionFact) []types.ClassFact {
	var out []types.ClassFact
	runQuery(e.classQ, root, content, func(captures map[string]*sitter.Node) {
		nameNode, ok := captures["class.name"]
		if !ok {
			return
		}
		scopeNode, hasScope := captures["class"]
		if !hasScope {
			scopeNode = nameNode
		}
		start := int(scopeNode.StartPosition().Row) + 1
		end := int(scopeNode.EndPosition().Row) + 1
		var methods []types.FunctionFact
		for _, fn := range functions {
			if fn.StartLine >= start && fn.EndLine <= end {
				methods = append(methods, fn)
			}
		}
		out = append(out, types.ClassFact{
			Name:      textOf(nameNode, content),
			Methods:   methods,
			StartLine: start,
			EndLine:   end,
		})
	})
	return out
}

// paramNames recovers ordered parameter names from a grammar's
// parameter-list node. It walks each named child and, for the common
// "name"/"pattern"/"left" field conventions grammars use for defaulted,
// typed, or destructured parameters, recurses to the identifier underneath;
// n may be nil when a query's optional parameter-list capture didn't match.
func paramNames(n *sitter.Node, content []byte) []string {
	if n == nil {
		return nil
	}
	var names []string
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		if name := paramName(child, content); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func paramName(n *sitter.Node, content []byte) string {
	switch n.Kind() {
	case "identifier", "shorthand_property_identifier_pattern":
		return textOf(n, content)
	}
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return paramName(nameNode, content)
	}
	if patNode := n.ChildByFieldName("pattern"); patNode != nil {
		return paramName(patNode, content)
	}
	if leftNode := n.ChildByFieldName("left"); leftNode != nil {
		return paramName(leftNode, content)
	}
	if n.NamedChildCount() > 0 {
		return paramName(n.NamedChild(0), content)
	}
	return textOf(n, content)
}

func (e *engine) extractCalls(root *sitter.Node, content []byte, functions []types.FunctionFact) []types.CallEdge {
	var out []types.CallEdge
	runQuery(e.callQ, root, content, func(captures map[string]*sitter.Node) {
		nameNode, ok := captures["call.name"]
		if !ok {
			return
		}
		line := int(nameNode.StartPosition().Row) + 1
		callee := textOf(nameNode, content)
		if obj, ok := captures["call.object"]; ok {
			callee = textOf(obj, content) + "." + callee
		}
		out = append(out, types.CallEdge{
			CallerFunction: enclosingFunction(functions, line),
			CalleeName:     callee,
			Line:           line,
		})
	})
	return out
}

// enclosingFunction returns the name of the function whose [StartLine,
// EndLine] contains line, or "" for module-level calls.
func enclosingFunction(functions []types.FunctionFact, line int) string {
	best := ""
	bestSpan := -1
	for _, f := range functions {
		if line < f.StartLine || line > f.EndLine {
			continue
		}
		span := f.EndLine - f.StartLine
		if best == "" || span < bestSpan {
			best = f.Name
			bestSpan = span
		}
	}
	return best
}

func textOf(n *sitter.Node, content []byte) string {
	return string(content[n.StartByte():n.EndByte()])
}

// runQuery executes q over root and invokes fn once per match with a
// capture-name -> node map, matching the pattern used throughout the
// query-driven extractor: collect the match's captures by name, then let
// the caller pick out what it needs.
func runQuery(q *sitter.Query, root *sitter.Node, content []byte, fn func(map[string]*sitter.Node)) {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	names := q.CaptureNames()
	matches := cursor.Matches(q, root, content)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		captures := make(map[string]*sitter.Node, len(match.Captures))
		for _, c := range match.Captures {
			captures[names[c.Index]] = c.Node
		}
		fn(captures)
	}
}
