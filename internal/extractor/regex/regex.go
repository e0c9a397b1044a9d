// Package regex implements the fallback extraction path (C2) for the
// languages the pack has no tree-sitter grammar for: C, Ruby, Swift,
// Kotlin, Scala, Lua, and Luau. Per spec.md §4.1 this path is
// correctness-best-effort: it finds function definitions and IDENT(...)
// call sites (possibly qualified by ".", "::", or ":") with line-based
// regular expressions rather than a real parse tree.
package regex

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/standardbeagle/tldr/internal/langregistry"
	"github.com/standardbeagle/tldr/internal/types"
)

// funcPattern matches one function/method definition form; group 1 is the
// name, group 2 (optional) is the raw, unparsed parameter list.
type funcPattern struct {
	re *regexp.Regexp
}

// closeFinder locates the line on which the function opened at startIdx
// (0-based) closes, using the language's block-closing convention. It
// returns a 1-based line number.
type closeFinder func(lines []string, startIdx int) int

// languageSpec bundles the patterns used to fall back-extract one language.
type languageSpec struct {
	lang       types.Language
	funcPats   []funcPattern
	importPats []*regexp.Regexp
	findClose  closeFinder
}

// callPattern finds a (possibly qualified) call expression: IDENT(...),
// obj.method(...), mod::func(...), or tbl:method(...).
var callPattern = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*(?:(?:\.|::|:)[A-Za-z_][A-Za-z0-9_]*)*)\s*\(`)

// asyncPattern covers the one fallback language with an "async" modifier
// in common use (Swift's "func f() async -> T"); the rest simply never
// match it, leaving IsAsync false.
var asyncPattern = regexp.MustCompile(`\basync\b`)

type extractor struct{ spec languageSpec }

func register(s languageSpec) {
	langregistry.Register(s.lang, &extractor{spec: s})
}

func init() {
	register(languageSpec{
		lang: types.LangC,
		funcPats: []funcPattern{
			{re: regexp.MustCompile(`^\s*(?:[A-Za-z_][A-Za-z0-9_ \*]*\s+)+([A-Za-z_][A-Za-z0-9_]*)\s*\(([^;]*)\)\s*\{?\s*$`)},
		},
		importPats: []*regexp.Regexp{
			regexp.MustCompile(`^\s*#include\s*[<"]([^>"]+)[>"]`),
		},
		findClose: braceEndLine,
	})

	register(languageSpec{
		lang: types.LangRuby,
		funcPats: []funcPattern{
			{re: regexp.MustCompile(`^\s*def\s+(?:self\.)?([A-Za-z_][A-Za-z0-9_?!=]*)\s*(?:\(([^)]*)\))?`)},
		},
		importPats: []*regexp.Regexp{
			regexp.MustCompile(`^\s*require(?:_relative)?\s+['"]([^'"]+)['"]`),
		},
		findClose: rubyEndLine,
	})

	register(languageSpec{
		lang: types.LangSwift,
		funcPats: []funcPattern{
			{re: regexp.MustCompile(`^\s*(?:(?:public|private|internal|fileprivate|open|static|final|override|mutating)\s+)*func\s+([A-Za-z_][A-Za-z0-9_]*)\s*(?:<[^>]*>)?\s*\(([^)]*)\)`)},
		},
		importPats: []*regexp.Regexp{
			regexp.MustCompile(`^\s*import\s+([A-Za-z_][A-Za-z0-9_.]*)`),
		},
		findClose: braceEndLine,
	})

	register(languageSpec{
		lang: types.LangKotlin,
		funcPats: []funcPattern{
			{re: regexp.MustCompile(`^\s*(?:(?:public|private|internal|protected|open|override|suspend|inline)\s+)*fun\s+(?:<[^>]*>\s*)?(?:[A-Za-z_][A-Za-z0-9_.<>]*\.)?([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)`)},
		},
		importPats: []*regexp.Regexp{
			regexp.MustCompile(`^\s*import\s+([A-Za-z_][A-Za-z0-9_.]*)`),
		},
		findClose: braceEndLine,
	})

	register(languageSpec{
		lang: types.LangScala,
		funcPats: []funcPattern{
			{re: regexp.MustCompile(`^\s*(?:(?:private|protected|final|override|implicit)\s+)*def\s+([A-Za-z_][A-Za-z0-9_]*)\s*(?:\[[^\]]*\])?\s*(?:\(([^)]*)\))?`)},
		},
		importPats: []*regexp.Regexp{
			regexp.MustCompile(`^\s*import\s+([A-Za-z_][A-Za-z0-9_.{}, ]*)`),
		},
		findClose: braceEndLine,
	})

	register(languageSpec{
		lang: types.LangLua,
		funcPats: []funcPattern{
			{re: regexp.MustCompile(`^\s*(?:local\s+)?function\s+([A-Za-z_][A-Za-z0-9_]*(?:[.:][A-Za-z_][A-Za-z0-9_]*)*)\s*\(([^)]*)\)`)},
		},
		importPats: []*regexp.Regexp{
			regexp.MustCompile(`require\s*\(?\s*['"]([^'"]+)['"]`),
		},
		findClose: luaEndLine,
	})

	register(languageSpec{
		lang: types.LangLuau,
		funcPats: []funcPattern{
			// Luau adds generic headers (<T>) between the name and the
			// parameter list; type annotations on params/returns never
			// introduce control flow so they're stripped by paramNameFromChunk
			// rather than modeled as their own tokens.
			{re: regexp.MustCompile(`^\s*(?:local\s+)?function\s+([A-Za-z_][A-Za-z0-9_]*(?:[.:][A-Za-z_][A-Za-z0-9_]*)*)\s*(?:<[^>]*>)?\s*\(([^)]*)\)`)},
		},
		importPats: []*regexp.Regexp{
			regexp.MustCompile(`require\s*\(?\s*['"]([^'"]+)['"]`),
		},
		findClose: luaEndLine,
	})
}

// ExtractFacts implements langregistry.Extractor using line-oriented
// regular expressions. Calls are attributed to the nearest function
// definition seen at or before their line; this is a best-effort
// approximation since the fallback path has no real block boundaries.
func (e *extractor) ExtractFacts(path, source string) (types.FileFacts, error) {
	facts := types.FileFacts{Path: path, Language: e.spec.lang}

	lines := splitLines(source)
	currentFunc := ""

	for i, line := range lines {
		lineNo := i + 1
		if name, params, ok := e.matchFunc(line); ok {
			end := lineNo
			if e.spec.findClose != nil {
				end = e.spec.findClose(lines, i)
			}
			facts.Functions = append(facts.Functions, types.FunctionFact{
				Name:       name,
				Params:     params,
				IsAsync:    asyncPattern.MatchString(line),
				StartLine:  lineNo,
				EndLine:    end,
				Language:   e.spec.lang,
				OwningFile: path,
			})
			currentFunc = name
		}

		for _, m := range callPattern.FindAllStringSubmatch(line, -1) {
			callee := m[1]
			if e.isOwnDefinitionLine(line, callee) {
				continue
			}
			facts.IntraCalls = append(facts.IntraCalls, types.CallEdge{
				CallerFunction: currentFunc,
				CalleeName:     callee,
				Line:           lineNo,
			})
		}
	}

	imports, _ := e.ParseImports(source)
	facts.Imports = imports
	return facts, nil
}

// isOwnDefinitionLine avoids double-counting a function's own header
// (e.g. "function foo(") as a call to foo.
func (e *extractor) isOwnDefinitionLine(line, callee string) bool {
	for _, fp := range e.spec.funcPats {
		if m := fp.re.FindStringSubmatch(line); m != nil && m[1] == callee {
			return true
		}
	}
	return false
}

// matchFunc returns the defined name and parsed parameter names, which for
// Lua/Luau may carry its M.f/M:f qualifier (method_kind is recoverable
// from the separator: ":" marks an instance-like method, "." a
// static-like one).
func (e *extractor) matchFunc(line string) (name string, params []string, ok bool) {
	for _, fp := range e.spec.funcPats {
		m := fp.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		raw := ""
		if len(m) > 2 {
			raw = m[2]
		}
		return m[1], splitParamNames(raw), true
	}
	return "", nil, false
}

// ParseImports implements langregistry.Extractor.
func (e *extractor) ParseImports(source string) ([]types.ImportFact, error) {
	var out []types.ImportFact
	for i, line := range splitLines(source) {
		for _, re := range e.spec.importPats {
			if m := re.FindStringSubmatch(line); m != nil {
				out = append(out, types.ImportFact{
					Kind:   types.ImportKindImport,
					Module: strings.TrimSpace(m[1]),
					Line:   i + 1,
				})
			}
		}
	}
	return out, nil
}

func splitLines(source string) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(source))
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

// splitParamNames turns a raw, unparsed parameter-list string into ordered
// parameter names, stripping types, labels, and defaults.
func splitParamNames(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var names []string
	for _, chunk := range splitTopLevelCommas(raw) {
		if name := paramNameFromChunk(chunk); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// splitTopLevelCommas splits on commas that aren't nested inside (), <>,
// or [] — generics, tuple types, and default-value calls all use one of
// those to hold their own internal commas.
func splitTopLevelCommas(raw string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range raw {
		switch r {
		case '(', '<', '[':
			depth++
		case ')', '>', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, raw[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, raw[start:])
	return parts
}

// paramNameFromChunk recovers the parameter name from one comma-separated
// entry, handling the common fallback-language shapes: bare names (Ruby,
// Lua), "name: Type" (Luau, Kotlin, Scala, Swift), "name: Type = default",
// "Type name"/"Type *name" (C), and Swift's external-label form
// ("label name: Type").
func paramNameFromChunk(chunk string) string {
	chunk = strings.TrimSpace(chunk)
	if chunk == "" {
		return ""
	}
	if i := strings.IndexAny(chunk, ":="); i >= 0 {
		chunk = chunk[:i]
	}
	fields := strings.Fields(chunk)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimLeft(fields[len(fields)-1], "*&")
}

// braceEndLine finds the line where brace depth, tracked from startIdx
// onward, first returns to zero after having gone positive — the C-family
// block-closing convention shared by C, Swift, Kotlin, and Scala.
func braceEndLine(lines []string, startIdx int) int {
	depth := 0
	opened := false
	for i := startIdx; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i + 1
		}
	}
	return startIdx + 1
}

var (
	rubyLineStartOpenRe = regexp.MustCompile(`^(def|class|module|begin|if|unless|while|until|case)\b`)
	rubyTrailingDoRe    = regexp.MustCompile(`\bdo(\s*\|[^|]*\|)?\s*$`)
	rubyEndRe           = regexp.MustCompile(`\bend\b`)
)

// rubyEndLine tracks def/class/module/begin and line-leading if/unless/
// while/until/case as openers (their statement-modifier form, e.g.
// "return x if y", never starts a line so is never miscounted), a
// trailing "do" as a do-block opener, and "end" as the closer.
func rubyEndLine(lines []string, startIdx int) int {
	depth := 0
	for i := startIdx; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if rubyLineStartOpenRe.MatchString(trimmed) {
			depth++
		}
		if rubyTrailingDoRe.MatchString(trimmed) {
			depth++
		}
		depth -= len(rubyEndRe.FindAllString(trimmed, -1))
		if depth <= 0 {
			return i + 1
		}
	}
	return startIdx + 1
}

var (
	luaOpenRe         = regexp.MustCompile(`\b(function|if|for|while)\b`)
	luaStandaloneDoRe = regexp.MustCompile(`^do$`)
	luaEndRe          = regexp.MustCompile(`\bend\b`)
)

// luaEndLine tracks function/if/for/while as openers (each pairs with
// exactly one "end" regardless of any elseif/else branches in between)
// plus a standalone "do" block, and "end" as the closer. A "for"/"while"
// header's trailing "do" is not itself counted as a second opener — it is
// the required keyword before the loop body, not its own block.
func luaEndLine(lines []string, startIdx int) int {
	depth := 0
	for i := startIdx; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		depth += len(luaOpenRe.FindAllString(trimmed, -1))
		if luaStandaloneDoRe.MatchString(trimmed) {
			depth++
		}
		depth -= len(luaEndRe.FindAllString(trimmed, -1))
		if depth <= 0 {
			return i + 1
		}
	}
	return startIdx + 1
}
