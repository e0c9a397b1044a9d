package workspace

import "testing"

func TestFilterDefaultExcludes(t *testing.T) {
	f := NewFilter(Config{})

	cases := []struct {
		path string
		want bool
	}{
		{"src/main.go", true},
		{"node_modules/left-pad/index.js", false},
		{"pkg/node_modules/foo.js", false},
		{"vendor_node_modules_helper/x.go", true},
		{".git/HEAD", false},
		{"backend/target/classes/Main.class", false},
		{"service/__pycache__/mod.pyc", false},
		{"lib/.venv/bin/python", false},
	}
	for _, tt := range cases {
		if got := f.Included(tt.path); got != tt.want {
			t.Errorf("Included(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFilterActivePackages(t *testing.T) {
	f := NewFilter(Config{ActivePackages: []string{"packages/api", "packages/web"}})

	if !f.Included("packages/api/src/handler.go") {
		t.Error("expected path under an active package to be included")
	}
	if f.Included("packages/other/file.go") {
		t.Error("expected path outside active packages to be excluded")
	}
	if !f.Included("packages/web") {
		t.Error("expected the package root itself to be included")
	}
}

func TestFilterCustomExcludePattern(t *testing.T) {
	f := NewFilter(Config{ExcludePatterns: []string{"**/testdata/**"}})
	if f.Included("pkg/foo/testdata/fixture.go") {
		t.Error("expected testdata path to be excluded")
	}
	if !f.Included("pkg/foo/real.go") {
		t.Error("expected non-testdata path to be included")
	}
}

func TestFilterBackslashNormalization(t *testing.T) {
	f := NewFilter(Config{})
	if f.Included(`node_modules\left-pad\index.js`) {
		t.Error("expected backslash path under node_modules to be excluded")
	}
}

func TestIgnoreMatcherBasic(t *testing.T) {
	m := &IgnoreMatcher{patterns: []ignoreLine{
		parseIgnoreLine("*.log"),
		parseIgnoreLine("build/"),
		parseIgnoreLine("!build/keep.txt"),
	}}

	if !m.ShouldIgnore("debug.log", false) {
		t.Error("expected *.log to be ignored")
	}
	if !m.ShouldIgnore("build/output.bin", false) {
		t.Error("expected build/ contents to be ignored")
	}
	if m.ShouldIgnore("readme.md", false) {
		t.Error("did not expect readme.md to be ignored")
	}
}

func TestSegmentNameMatchesWholeSegmentOnly(t *testing.T) {
	if !matchesSegmentPattern("**/target/**", "backend/target/classes/a.class") {
		t.Error("expected target to match as a whole segment")
	}
	if matchesSegmentPattern("**/target/**", "backend/targetted/a.class") {
		t.Error("did not expect a partial segment match")
	}
}
