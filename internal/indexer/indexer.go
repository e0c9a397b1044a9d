// Package indexer wires the per-file pipeline together: the workspace
// filter (C10) selects paths, the content-hashed cache (C6) short-
// circuits unchanged files, the language registry (C1) dispatches to an
// extractor (C2), the cross-file resolver (C4) turns intra-file calls
// into project edges, the durability partitioner (C5) sorts them, and
// the stacked snapshot DB (C7) stores them.
package indexer

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/tldr/internal/cache"
	"github.com/standardbeagle/tldr/internal/langregistry"
	"github.com/standardbeagle/tldr/internal/partition"
	"github.com/standardbeagle/tldr/internal/pathutil"
	"github.com/standardbeagle/tldr/internal/resolver"
	"github.com/standardbeagle/tldr/internal/security"
	"github.com/standardbeagle/tldr/internal/stackdb"
	"github.com/standardbeagle/tldr/internal/types"
	"github.com/standardbeagle/tldr/internal/workspace"
)

// Indexer holds the long-lived state a running daemon indexes into:
// everything a query needs to read from is reachable through here.
type Indexer struct {
	Root      string
	Filter    *workspace.Filter
	Cache     *cache.Cache
	Stack     *stackdb.DB
	Partition *types.PartitionedIndex
	Validator *security.FileValidator

	MaxFileSizeByte int64

	files map[string]types.FileFacts // path -> last-extracted facts, for resolution
}

// New creates an indexer rooted at root, ready to run Reindex.
func New(root string, filter *workspace.Filter, maxFileSizeByte int64) *Indexer {
	return &Indexer{
		Root:            root,
		Filter:          filter,
		Cache:           cache.New(),
		Stack:           stackdb.New(),
		Partition:       types.NewPartitionedIndex(),
		Validator:       security.NewFileValidator(maxFileSizeByte / 1024),
		MaxFileSizeByte: maxFileSizeByte,
		files:           make(map[string]types.FileFacts),
	}
}

// Reindex walks Root, (re)extracting every included file and rebuilding
// the cross-file edge set from scratch. Per-file failures (ParseError,
// FileTooLarge) are recorded but never abort the walk — spec.md §7's
// "indexing continues" contract.
func (ix *Indexer) Reindex() (indexed int, failed []string) {
	var paths []string
	filepath.Walk(ix.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		rel := pathutil.ToRelative(path, ix.Root)
		if !ix.Filter.Included(rel) {
			return nil
		}
		if langregistry.LanguageForPath(path) == types.LangUnknown {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	sort.Strings(paths)

	// Extraction is CPU-bound (parsing), so it runs on a worker pool bounded
	// to GOMAXPROCS via errgroup.SetLimit rather than one goroutine per
	// file; each slot in results belongs to exactly one goroutine, so no
	// locking is needed until the sequential collection pass below.
	results := make([]types.FileFacts, len(paths))
	errs := make([]error, len(paths))

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			facts, err := ix.extractOne(path)
			results[i] = facts
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	for i, path := range paths {
		if errs[i] != nil {
			failed = append(failed, path)
			continue
		}
		ix.files[path] = results[i]
		indexed++
	}

	ix.resolveAndPartition()
	return indexed, failed
}

// extractOne hashes path's content, serves it from cache on a hit, and
// otherwise dispatches to the registered extractor for its language.
func (ix *Indexer) extractOne(path string) (types.FileFacts, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.FileFacts{}, err
	}
	if ix.MaxFileSizeByte > 0 && info.Size() > ix.MaxFileSizeByte {
		if err := ix.Validator.ValidateLargeFile(path); err != nil {
			return types.FileFacts{}, err
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return types.FileFacts{}, err
	}
	hash := cache.HashContent(content)
	if facts, ok := ix.Cache.Get(path, hash); ok {
		return facts, nil
	}

	lang := langregistry.LanguageForPath(path)
	extractor, ok := langregistry.Lookup(lang)
	if !ok {
		return types.FileFacts{}, os.ErrNotExist
	}
	facts, err := extractor.ExtractFacts(path, string(content))
	if err != nil {
		return types.FileFacts{}, err
	}
	facts.ContentHash = hash
	ix.Cache.Put(path, hash, facts)
	return facts, nil
}

// resolveAndPartition rebuilds the project-wide symbol table, resolves
// every file's intra-file calls against it, and classifies the resulting
// edges into the durable/volatile partitions and the stacked DB.
func (ix *Indexer) resolveAndPartition() {
	ix.Stack = stackdb.New()
	ix.Partition = types.NewPartitionedIndex()

	all :=make([]types.FileFacts, 0, len(ix.files))
	for _, f := range ix.files {
		all = append(all, f)
	}
	table := resolver.NewSymbolTable(all)

	for _, f := range all {
		edges := resolver.Resolve(f, table)
		for _, e := range edges {
			ix.Stack.AddEdge(e)
			partition.Classify(ix.Partition, e)
		}
	}
}

// NotifyChanged drops path from the cache so the next Reindex re-extracts
// it, and reports whether path is durable (durable paths never count
// toward the dirty-reindex threshold, per spec.md §4.5).
func (ix *Indexer) NotifyChanged(path string) (durable bool) {
	ix.Cache.Invalidate(path)
	delete(ix.files, path)
	return partition.IsDurable(path)
}

// FileCount reports how many files are currently indexed.
func (ix *Indexer) FileCount() int { return len(ix.files) }

// FileFacts returns the last-extracted facts for path, if indexed.
func (ix *Indexer) FileFacts(path string) (types.FileFacts, bool) {
	f, ok := ix.files[path]
	return f, ok
}

// Paths returns every currently indexed file path, sorted.
func (ix *Indexer) Paths() []string {
	paths := make([]string, 0, len(ix.files))
	for p := range ix.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
