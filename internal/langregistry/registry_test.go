package langregistry

import (
	"testing"

	"github.com/standardbeagle/tldr/internal/types"
)

func TestLanguageForPath(t *testing.T) {
	cases := map[string]types.Language{
		"main.py":          types.LangPython,
		"app.ts":           types.LangTypeScript,
		"app.tsx":          types.LangTypeScript,
		"index.js":         types.LangJavaScript,
		"index.jsx":        types.LangJavaScript,
		"main.go":          types.LangGo,
		"lib.rs":           types.LangRust,
		"Main.java":        types.LangJava,
		"foo.c":            types.LangC,
		"foo.h":            types.LangC,
		"foo.cpp":          types.LangCPP,
		"foo.hpp":          types.LangCPP,
		"Program.cs":       types.LangCSharp,
		"script.rb":        types.LangRuby,
		"index.php":        types.LangPHP,
		"App.swift":        types.LangSwift,
		"Main.kt":          types.LangKotlin,
		"build.kts":        types.LangKotlin,
		"Main.scala":       types.LangScala,
		"script.sc":        types.LangScala,
		"init.lua":         types.LangLua,
		"init.luau":        types.LangLuau,
		"README.md":        types.LangUnknown,
		"no_extension_bin": types.LangUnknown,
	}
	for path, want := range cases {
		if got := LanguageForPath(path); got != want {
			t.Errorf("LanguageForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestLuauNeverFallsBackToLua(t *testing.T) {
	if LanguageForPath("script.luau") == types.LangLua {
		t.Fatal(".luau must resolve to luau, not lua")
	}
}
