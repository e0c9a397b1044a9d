package treesitter

import (
	"testing"

	"github.com/standardbeagle/tldr/internal/langregistry"
	"github.com/standardbeagle/tldr/internal/types"
)

func lookup(t *testing.T, lang types.Language) langregistry.Extractor {
	t.Helper()
	e, ok := langregistry.Lookup(lang)
	if !ok {
		t.Fatalf("no extractor registered for %s", lang)
	}
	return e
}

func findFunc(facts types.FileFacts, name string) (types.FunctionFact, bool) {
	for _, fn := range facts.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return types.FunctionFact{}, false
}

// TestJSCommonJSExportExtraction is the literal spec.md §8 scenario:
// `exports.helloWorld = function(req, res) { res.send('Hello!'); };` must
// extract {name:"helloWorld", params:["req","res"], is_async:false} and a
// call edge from helloWorld to send on res, not a bare top-level call.
func TestJSCommonJSExportExtraction(t *testing.T) {
	src := `exports.helloWorld = function(req, res) { res.send('Hello!'); };`
	facts, err := lookup(t, types.LangJavaScript).ExtractFacts("handler.js", src)
	if err != nil {
		t.Fatalf("ExtractFacts: %v", err)
	}

	fn, ok := findFunc(facts, "helloWorld")
	if !ok {
		t.Fatalf("helloWorld not extracted; got functions %+v", facts.Functions)
	}
	if fn.IsAsync {
		t.Error("helloWorld should not be async")
	}
	if len(fn.Params) != 2 || fn.Params[0] != "req" || fn.Params[1] != "res" {
		t.Errorf("params = %v, want [req res]", fn.Params)
	}

	var sawSendOnRes bool
	for _, c := range facts.IntraCalls {
		if c.CalleeName == "res.send" && c.CallerFunction == "helloWorld" {
			sawSendOnRes = true
		}
	}
	if !sawSendOnRes {
		t.Errorf("expected a res.send call inside helloWorld, got %+v", facts.IntraCalls)
	}
}

// TestJSModuleExportsAssignment covers the module.exports.NAME = function
// form named alongside exports.NAME in spec.md §4.2.
func TestJSModuleExportsAssignment(t *testing.T) {
	src := `module.exports.ping = async function(req, res) { res.send('pong'); };`
	facts, err := lookup(t, types.LangJavaScript).ExtractFacts("handler.js", src)
	if err != nil {
		t.Fatalf("ExtractFacts: %v", err)
	}
	fn, ok := findFunc(facts, "ping")
	if !ok {
		t.Fatalf("ping not extracted; got functions %+v", facts.Functions)
	}
	if !fn.IsAsync {
		t.Error("ping should be async")
	}
}

// TestJSExportLikeAssignmentOutsideModuleExportsIsSkipped confirms the
// object-gate only fires for exports-bearing assignments, not arbitrary
// `obj.prop = function(){}` callback assignments.
func TestJSExportLikeAssignmentOutsideModuleExportsIsSkipped(t *testing.T) {
	src := `thing.onClick = function(event) { console.log(event); };`
	facts, err := lookup(t, types.LangJavaScript).ExtractFacts("widget.js", src)
	if err != nil {
		t.Fatalf("ExtractFacts: %v", err)
	}
	if _, ok := findFunc(facts, "onClick"); ok {
		t.Error("onClick assigned onto a non-exports object should not be extracted")
	}
}

// TestTypeScriptArrowConstExtraction is review-flagged: TypeScript's
// funcQuery previously lacked JavaScript's `const NAME = (...)=>` clause,
// so a .ts file extracted zero functions for this construct.
func TestTypeScriptArrowConstExtraction(t *testing.T) {
	src := `const handler = (req: Request, res: Response) => { res.send("ok"); };`
	facts, err := lookup(t, types.LangTypeScript).ExtractFacts("handler.ts", src)
	if err != nil {
		t.Fatalf("ExtractFacts: %v", err)
	}
	if _, ok := findFunc(facts, "handler"); !ok {
		t.Fatalf("handler arrow const not extracted; got functions %+v", facts.Functions)
	}
}

// TestJavaScriptClassExtraction exercises ClassFact extraction and the
// method-nesting it feeds into resolver.go's symbol table.
func TestJavaScriptClassExtraction(t *testing.T) {
	src := `
class Greeter {
	constructor(name) {
		this.name = name;
	}
	greet() {
		console.log(this.name);
	}
}
`
	facts, err := lookup(t, types.LangJavaScript).ExtractFacts("greeter.js", src)
	if err != nil {
		t.Fatalf("ExtractFacts: %v", err)
	}
	if len(facts.Classes) != 1 {
		t.Fatalf("got %d classes, want 1", len(facts.Classes))
	}
	cls := facts.Classes[0]
	if cls.Name != "Greeter" {
		t.Errorf("class name = %q, want Greeter", cls.Name)
	}
	names := map[string]bool{}
	for _, m := range cls.Methods {
		names[m.Name] = true
	}
	if !names["constructor"] || !names["greet"] {
		t.Errorf("expected constructor and greet methods, got %+v", cls.Methods)
	}
}

// TestPythonAsyncDefExtraction confirms async modifiers and parameter
// names are recovered outside JavaScript too.
func TestPythonAsyncDefExtraction(t *testing.T) {
	src := "async def fetch(url, timeout=30):\n    pass\n"
	facts, err := lookup(t, types.LangPython).ExtractFacts("client.py", src)
	if err != nil {
		t.Fatalf("ExtractFacts: %v", err)
	}
	fn, ok := findFunc(facts, "fetch")
	if !ok {
		t.Fatalf("fetch not extracted; got functions %+v", facts.Functions)
	}
	if !fn.IsAsync {
		t.Error("fetch should be async")
	}
	if len(fn.Params) != 2 || fn.Params[0] != "url" || fn.Params[1] != "timeout" {
		t.Errorf("params = %v, want [url timeout]", fn.Params)
	}
}

// TestPythonClassExtraction confirms Python's nested-method class capture.
func TestPythonClassExtraction(t *testing.T) {
	src := "class Greeter:\n    def greet(self, name):\n        print(name)\n"
	facts, err := lookup(t, types.LangPython).ExtractFacts("greeter.py", src)
	if err != nil {
		t.Fatalf("ExtractFacts: %v", err)
	}
	if len(facts.Classes) != 1 || facts.Classes[0].Name != "Greeter" {
		t.Fatalf("expected one Greeter class, got %+v", facts.Classes)
	}
	if len(facts.Classes[0].Methods) != 1 || facts.Classes[0].Methods[0].Name != "greet" {
		t.Errorf("expected greet method, got %+v", facts.Classes[0].Methods)
	}
}
