package regex

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

func TestCEndLineFindsClosingBrace(t *testing.T) {
	src := "int add(int a, int b) {\n" +
		"    if (a > 0) {\n" +
		"        return a + b;\n" +
		"    }\n" +
		"    return b;\n" +
		"}\n"
	facts, err := lookup(t, types.LangC).ExtractFacts("add.c", src)
	if err != nil {
		t.Fatal(err)
	}
	if len(facts.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(facts.Functions))
	}
	fn := facts.Functions[0]
	if fn.StartLine != 1 || fn.EndLine != 6 {
		t.Errorf("add span = [%d,%d], want [1,6]", fn.StartLine, fn.EndLine)
	}
	if len(fn.Params) != 2 || fn.Params[0] != "a" || fn.Params[1] != "b" {
		t.Errorf("params = %v, want [a b]", fn.Params)
	}
}

func TestRubyEndLineTracksNestedDefAndDo(t *testing.T) {
	src := "def each_pair(list)\n" +
		"  list.each do |x|\n" +
		"    puts x\n" +
		"  end\n" +
		"end\n"
	facts, err := lookup(t, types.LangRuby).ExtractFacts("each.rb", src)
	if err != nil {
		t.Fatal(err)
	}
	if len(facts.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(facts.Functions))
	}
	fn := facts.Functions[0]
	if fn.StartLine != 1 || fn.EndLine != 5 {
		t.Errorf("each_pair span = [%d,%d], want [1,5]", fn.StartLine, fn.EndLine)
	}
}

func TestLuauEndLineMultiLineMatchesOneLiner(t *testing.T) {
	src := "function classify(x: number): string\n" +
		"	if x > 0 then\n" +
		"		if x > 100 then\n" +
		"			return \"large\"\n" +
		"		else\n" +
		"			return \"small\"\n" +
		"		end\n" +
		"	else\n" +
		"		return \"non-positive\"\n" +
		"	end\n" +
		"end\n"
	facts, err := lookup(t, types.LangLuau).ExtractFacts("classify.luau", src)
	if err != nil {
		t.Fatal(err)
	}
	if len(facts.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(facts.Functions))
	}
	fn := facts.Functions[0]
	if fn.StartLine != 1 || fn.EndLine != 11 {
		t.Errorf("classify span = [%d,%d], want [1,11]", fn.StartLine, fn.EndLine)
	}
}

func TestSwiftAsyncAndLabeledParams(t *testing.T) {
	src := "func fetch(from url: String) async -> Data {\n" +
		"    return Data()\n" +
		"}\n"
	facts, err := lookup(t, types.LangSwift).ExtractFacts("fetch.swift", src)
	if err != nil {
		t.Fatal(err)
	}
	if len(facts.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(facts.Functions))
	}
	fn := facts.Functions[0]
	if !fn.IsAsync {
		t.Error("fetch should be async")
	}
	if len(fn.Params) != 1 || fn.Params[0] != "url" {
		t.Errorf("params = %v, want [url]", fn.Params)
	}
	if fn.EndLine != 3 {
		t.Errorf("EndLine = %d, want 3", fn.EndLine)
	}
}
