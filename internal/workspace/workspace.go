// Package workspace implements the workspace/ignore filter (C10): which
// paths are in scope for indexing, given an optional set of active
// packages and a set of exclude globs, plus an optional .tldrignore file.
package workspace

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/tldr/pkg/pathutil"
)

// DefaultExcludes are the directories excluded even with no project config,
// per spec.md §4.10.
var DefaultExcludes = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/target/**",
	"**/__pycache__/**",
	"**/.venv/**",
	"**/venv/**",
	"**/dist/**",
	"**/build/**",
}

// Config mirrors spec.md's WorkspaceConfig.
type Config struct {
	ActivePackages []string
	ExcludePatterns []string
}

// Filter decides whether a path is in scope for indexing.
type Filter struct {
	activePackages  []string
	excludePatterns []string
	ignoreMatcher   *IgnoreMatcher
}

// NewFilter builds a Filter from a workspace Config. DefaultExcludes are
// always included alongside cfg.ExcludePatterns.
func NewFilter(cfg Config) *Filter {
	excludes := make([]string, 0, len(DefaultExcludes)+len(cfg.ExcludePatterns))
	excludes = append(excludes, DefaultExcludes...)
	excludes = append(excludes, cfg.ExcludePatterns...)

	packages := make([]string, len(cfg.ActivePackages))
	for i, p := range cfg.ActivePackages {
		packages[i] = pathutil.ToSlash(p)
	}

	return &Filter{
		activePackages:  packages,
		excludePatterns: excludes,
	}
}

// WithIgnoreFile attaches a .tldrignore matcher; a nil matcher means none
// was loaded and the filter falls back to active packages + excludes only.
func (f *Filter) WithIgnoreFile(m *IgnoreMatcher) *Filter {
	f.ignoreMatcher = m
	return f
}

// Included reports whether path is in scope, per spec.md §4.10:
// (a) active_packages is empty or path is rooted under one of them, and
// (b) no exclude_patterns match.
func (f *Filter) Included(path string) bool {
	norm := pathutil.ToSlash(path)

	if len(f.activePackages) > 0 && !f.underAnyPackage(norm) {
		return false
	}
	for _, pat := range f.excludePatterns {
		if matchesSegmentPattern(pat, norm) {
			return false
		}
	}
	if f.ignoreMatcher != nil && f.ignoreMatcher.ShouldIgnore(norm, false) {
		return false
	}
	return true
}

func (f *Filter) underAnyPackage(norm string) bool {
	for _, pkg := range f.activePackages {
		if norm == pkg || strings.HasPrefix(norm, pkg+"/") {
			return true
		}
	}
	return false
}

// matchesSegmentPattern implements spec.md §4.10's rule that a
// "**/<name>/**" pattern matches a path iff <name> appears as a whole path
// segment, falling back to full doublestar glob semantics for patterns
// that don't fit that shape.
func matchesSegmentPattern(pattern, path string) bool {
	if name, ok := segmentName(pattern); ok {
		for _, seg := range strings.Split(path, "/") {
			if seg == name {
				return true
			}
		}
		return false
	}
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}

// segmentName extracts <name> from a "**/<name>/**" pattern, or reports ok=false.
func segmentName(pattern string) (string, bool) {
	const prefix = "**/"
	const suffix = "/**"
	if strings.HasPrefix(pattern, prefix) && strings.HasSuffix(pattern, suffix) {
		name := pattern[len(prefix) : len(pattern)-len(suffix)]
		if name != "" && !strings.ContainsAny(name, "*?[]/") {
			return name, true
		}
	}
	return "", false
}

// IgnoreMatcher is a gitignore-syntax matcher loaded from .tldrignore.
type IgnoreMatcher struct {
	patterns []ignoreLine
}

type ignoreLine struct {
	pattern   string
	negate    bool
	directory bool
}

// LoadTldrignore loads <root>/.tldrignore. A missing file is not an error:
// the workspace proceeds without it, and the caller may call
// WriteDefaultTldrignore to create one (spec.md §4.10: this step is
// advisory).
func LoadTldrignore(root string) (*IgnoreMatcher, error) {
	path := filepath.Join(root, ".tldrignore")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	m := &IgnoreMatcher{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, parseIgnoreLine(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseIgnoreLine(line string) ignoreLine {
	var l ignoreLine
	if strings.HasPrefix(line, "!") {
		l.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		l.directory = true
		line = strings.TrimSuffix(line, "/")
	}
	line = strings.TrimPrefix(line, "/")
	if !strings.Contains(line, "/") {
		line = "**/" + line
	}
	if !strings.HasSuffix(line, "/**") {
		line = line + "{,/**}"
	}
	l.pattern = line
	return l
}

// ShouldIgnore reports whether path matches the loaded .tldrignore patterns,
// applying later patterns' negation over earlier matches (gitignore order).
func (m *IgnoreMatcher) ShouldIgnore(path string, isDir bool) bool {
	if m == nil {
		return false
	}
	ignored := false
	for _, p := range m.patterns {
		if p.directory && !isDir && !dirPrefixMatch(p.pattern, path) {
			continue
		}
		if ok, err := doublestar.Match(p.pattern, path); err == nil && ok {
			ignored = !p.negate
		}
	}
	return ignored
}

func dirPrefixMatch(pattern, path string) bool {
	base := strings.TrimSuffix(strings.TrimSuffix(pattern, "{,/**}"), "/**")
	return strings.HasPrefix(path, strings.TrimPrefix(base, "**/"))
}

// DefaultTldrignoreTemplate is written by WriteDefaultTldrignore.
const DefaultTldrignoreTemplate = `# tldr ignore patterns (gitignore syntax)
node_modules/
.git/
target/
__pycache__/
.venv/
venv/
dist/
build/
`

// WriteDefaultTldrignore creates <root>/.tldrignore with the documented
// default template if one does not already exist. Indexing proceeds either
// way; this is advisory per spec.md §4.10.
func WriteDefaultTldrignore(root string) error {
	path := filepath.Join(root, ".tldrignore")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(DefaultTldrignoreTemplate), 0o644)
}
