// Package types holds the data model shared by every indexing component:
// the immutable per-file facts produced by extraction, the graphs produced
// from control/data-flow analysis, and the edges that flow into the
// partitioned call-graph store.
package types

// Language identifies one of the languages the registry dispatches to.
type Language string

const (
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangRuby       Language = "ruby"
	LangPHP        Language = "php"
	LangSwift      Language = "swift"
	LangKotlin     Language = "kotlin"
	LangScala      Language = "scala"
	LangLua        Language = "lua"
	LangLuau       Language = "luau"
	LangUnknown    Language = ""
)

// ImportKind enumerates the forms an ImportFact can take across languages.
type ImportKind string

const (
	ImportKindImport        ImportKind = "import"
	ImportKindFromImport    ImportKind = "from_import"
	ImportKindRequire       ImportKind = "require"
	ImportKindUse           ImportKind = "use"
	ImportKindIncludeSystem ImportKind = "include_system"
	ImportKindIncludeLocal  ImportKind = "include_local"
	ImportKindService       ImportKind = "service"
	ImportKindUsing         ImportKind = "using"
	ImportKindExternCrate   ImportKind = "extern_crate"
)

// FunctionFact describes a single extracted function or method.
type FunctionFact struct {
	Name       string
	Params     []string
	IsAsync    bool
	StartLine  int
	EndLine    int
	Language   Language
	OwningFile string
	Docstring  string // empty when absent; attachment is best-effort (spec.md §4.2)
}

// ClassFact describes an extracted class/struct/interface and its methods.
type ClassFact struct {
	Name      string
	Methods   []FunctionFact
	StartLine int
	EndLine   int
}

// ImportFact describes one import/require/use statement.
type ImportFact struct {
	Kind   ImportKind
	Module string
	Name   string // imported symbol, empty if whole-module import
	Alias  string // empty when not aliased
	Line   int
}

// CallEdge is a raw, intra-file call site discovered while walking a single
// function body. CalleeName may be qualified ("obj.method", "pkg::f").
type CallEdge struct {
	CallerFunction string // empty for calls outside any function body
	CalleeName     string
	Line           int
	Column         int
}

// ResolvedEdge is the cross-file 4-tuple produced by the resolver (C4).
// Two ResolvedEdges with identical fields are the same edge (set semantics).
type ResolvedEdge struct {
	SrcFile string
	SrcFunc string
	DstFile string
	DstFunc string
}

// FileFacts is the immutable per-file extraction result, keyed by
// (Path, ContentHash) for the lifetime rules in spec.md §3.
type FileFacts struct {
	Path        string
	ContentHash string
	Language    Language
	Functions   []FunctionFact
	Classes     []ClassFact
	Imports     []ImportFact
	IntraCalls  []CallEdge
}
