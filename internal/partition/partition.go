// Package partition implements the durability partitioner (C5): classifies
// resolved call edges as durable (vendored/dependency code) or volatile
// (user code), and extracts the package key durable edges are grouped by.
package partition

import (
	"strings"

	"github.com/standardbeagle/tldr/internal/types"
	"github.com/standardbeagle/tldr/pkg/pathutil"
)

// durablePatterns is the fixed substring list from spec.md §4.5, checked
// against the path after normalizing separators to "/".
var durablePatterns = []string{
	"node_modules/",
	".venv/",
	"venv/",
	"vendor/",
	"__pycache__/",
	"site-packages/",
	".tox/",
	"dist-packages/",
}

// IsDurable reports whether path matches any durable pattern.
func IsDurable(path string) bool {
	norm := pathutil.ToSlash(path) + "/"
	for _, pat := range durablePatterns {
		if strings.Contains(norm, pat) {
			return true
		}
	}
	return false
}

// PackageKey extracts the package key a durable path belongs to, per the
// extraction rules in spec.md §4.5. Callers should only invoke this for
// paths where IsDurable is true; for a volatile path it falls back to the
// leading path component.
func PackageKey(path string) string {
	norm := pathutil.ToSlash(path)
	segments := strings.Split(norm, "/")

	if i := indexOf(segments, "node_modules"); i >= 0 && i+1 < len(segments) {
		pkg := segments[i+1]
		if strings.HasPrefix(pkg, "@") && i+2 < len(segments) {
			return pkg + "/" + segments[i+2]
		}
		return pkg
	}

	if i := indexOf(segments, "site-packages"); i >= 0 && i+1 < len(segments) {
		return segments[i+1]
	}

	if i := indexOf(segments, "vendor"); i >= 0 && i+1 < len(segments) {
		rest := segments[i+1:]
		if len(rest) >= 3 && strings.Contains(rest[0], ".") {
			return strings.Join(rest[:3], "/")
		}
		return rest[0]
	}

	if len(segments) > 0 && segments[0] != "" {
		return segments[0]
	}
	return norm
}

func indexOf(segments []string, name string) int {
	for i, s := range segments {
		if s == name {
			return i
		}
	}
	return -1
}

// Classify sorts a ResolvedEdge into idx by its SrcFile's durability.
func Classify(idx *types.PartitionedIndex, e types.ResolvedEdge) {
	if IsDurable(e.SrcFile) {
		key := PackageKey(e.SrcFile)
		p, ok := idx.Durable[key]
		if !ok {
			p = types.NewDurablePartition(key)
			idx.Durable[key] = p
		}
		p.ByFile[e.SrcFile] = append(p.ByFile[e.SrcFile], e)
		return
	}
	idx.Volatile.ByFile[e.SrcFile] = append(idx.Volatile.ByFile[e.SrcFile], e)
}

// FilterReindexable drops any durable entries from dirtyFiles: durable
// partitions are never invalidated by file-watch events (spec.md §4.5).
func FilterReindexable(dirtyFiles []string) []string {
	out := make([]string, 0, len(dirtyFiles))
	for _, f := range dirtyFiles {
		if !IsDurable(f) {
			out = append(out, f)
		}
	}
	return out
}
