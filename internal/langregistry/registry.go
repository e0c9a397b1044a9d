// Package langregistry maps file extensions to languages and holds the
// per-language Extractor contract (C1): extract_facts and parse_imports.
// CFG/DFG/PDG building is not part of it (see Extractor). Concrete extractors register
// themselves here at init time (tree-sitter-backed or regex-fallback);
// the indexing pipeline never imports a specific language package
// directly.
package langregistry

import (
	"strings"

	"github.com/standardbeagle/tldr/internal/types"
)

// extensionTable is the fixed extension→language dispatch table from
// spec.md §4.1. ".luau" must never fall back to "lua" so it gets its own
// entry rather than sharing a suffix check with ".lua".
var extensionTable = map[string]types.Language{
	".py":    types.LangPython,
	".ts":    types.LangTypeScript,
	".tsx":   types.LangTypeScript,
	".js":    types.LangJavaScript,
	".jsx":   types.LangJavaScript,
	".go":    types.LangGo,
	".rs":    types.LangRust,
	".java":  types.LangJava,
	".c":     types.LangC,
	".h":     types.LangC,
	".cpp":   types.LangCPP,
	".cxx":   types.LangCPP,
	".cc":    types.LangCPP,
	".hpp":   types.LangCPP,
	".cs":    types.LangCSharp,
	".rb":    types.LangRuby,
	".php":   types.LangPHP,
	".swift": types.LangSwift,
	".kt":    types.LangKotlin,
	".kts":   types.LangKotlin,
	".scala": types.LangScala,
	".sc":    types.LangScala,
	".lua":   types.LangLua,
	".luau":  types.LangLuau,
}

// LanguageForPath returns the language for path's extension, or
// LangUnknown if the extension isn't in the table.
func LanguageForPath(path string) types.Language {
	ext := extOf(path)
	if lang, ok := extensionTable[ext]; ok {
		return lang
	}
	return types.LangUnknown
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(path[i:])
}

// Extractor is the two-method contract every language implements.
// CFG/DFG/PDG construction (internal/graphs) runs generically from a
// function's raw source span instead of through a per-language builder,
// so it covers every registered language — including the regex-fallback
// ones — uniformly; see internal/graphs for that.
type Extractor interface {
	ExtractFacts(path, source string) (types.FileFacts, error)
	ParseImports(source string) ([]types.ImportFact, error)
}

var registry = map[types.Language]Extractor{}

// Register associates an Extractor with a language. Called from each
// extractor package's init().
func Register(lang types.Language, e Extractor) {
	registry[lang] = e
}

// Lookup returns the registered Extractor for lang, or ok=false if no
// extractor (not even a regex fallback) has been registered for it.
func Lookup(lang types.Language) (Extractor, bool) {
	e, ok := registry[lang]
	return e, ok
}
