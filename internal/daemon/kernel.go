package daemon

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/standardbeagle/tldr/internal/cache"
	"github.com/standardbeagle/tldr/internal/debug"
	"github.com/standardbeagle/tldr/internal/graphs"
	"github.com/standardbeagle/tldr/internal/indexer"
	"github.com/standardbeagle/tldr/internal/query"
	"github.com/standardbeagle/tldr/internal/semantic"
	"github.com/standardbeagle/tldr/internal/types"
	"github.com/standardbeagle/tldr/internal/workspace"
	"github.com/standardbeagle/tldr/pkg/pathutil"
)

// State is the daemon's lifecycle stage, mirrored to the status file.
type State string

const (
	StateInitializing State = "initializing"
	StateReady         State = "ready"
	StateServing       State = "serving"
	StateShuttingDown  State = "shutting_down"
	StateStopped       State = "stopped"
)

// DirtyReindexThreshold is the default number of volatile-file change
// notifications that trigger a background semantic reindex (spec.md §4.6).
const DirtyReindexThreshold = 20

// IdleTimeout is how long the daemon waits with no served command before
// shutting itself down (spec.md §4.9).
const IdleTimeout = 30 * time.Minute

// Kernel holds everything one running daemon process needs: the indexer
// pipeline, the memoizing query layer, the process-exclusivity lock, and
// the lifecycle state spec.md §4.9/§6 describe.
type Kernel struct {
	Root string

	mu              sync.Mutex
	state           State
	startedAt       time.Time
	lastActive      time.Time
	dirtyCount      int
	reindexInFlight bool

	Indexer   *indexer.Indexer
	Revisions *query.Revisions
	Query     *query.Layer
	Lock      *Lock
	Listener  net.Listener

	shutdownCh chan struct{}
	shutdownOn sync.Once
}

// NewKernel builds a Kernel rooted at root but does not yet index
// anything; callers run Start (which acquires the lock and performs the
// first full Reindex) before accepting connections.
func NewKernel(root string, filter *workspace.Filter, maxFileSizeByte int64) *Kernel {
	revisions := query.NewRevisions()
	return &Kernel{
		Root:       root,
		state:      StateInitializing,
		startedAt:  time.Now(),
		lastActive: time.Now(),
		Indexer:    indexer.New(root, filter, maxFileSizeByte),
		Revisions:  revisions,
		Query:      query.NewLayer(revisions),
		shutdownCh: make(chan struct{}),
	}
}

// Start acquires the single-instance lock, runs the initial index, and
// moves the kernel to the ready state. The lock is held for the life of
// the process; Shutdown releases it.
func (k *Kernel) Start() error {
	lock, err := Acquire(k.Root)
	if err != nil {
		return err
	}
	k.Lock = lock

	indexed, failed := k.Indexer.Reindex()
	k.logf("initial index: %d files indexed, %d failed", indexed, len(failed))

	k.setState(StateReady)
	return k.writeStatus()
}

func (k *Kernel) setState(s State) {
	k.mu.Lock()
	k.state = s
	k.mu.Unlock()
}

func (k *Kernel) touch() {
	k.mu.Lock()
	k.lastActive = time.Now()
	k.mu.Unlock()
}

func (k *Kernel) logf(format string, args ...any) {
	debug.LogDaemon(format, args...)
}

// IdleSince reports how long it has been since the last served command.
func (k *Kernel) IdleSince() time.Duration {
	k.mu.Lock()
	defer k.mu.Unlock()
	return time.Since(k.lastActive)
}

// ShutdownRequested is closed once shutdown has been initiated, for a
// caller's idle-timeout goroutine to select on alongside a ticker.
func (k *Kernel) ShutdownRequested() <-chan struct{} {
	return k.shutdownCh
}

// Dispatch runs one command through the same handler table serveConn
// uses, for callers that already have decoded args in hand (the MCP
// bridge, in-process tests) rather than a raw protocol line.
func (k *Kernel) Dispatch(cmd string, args map[string]json.RawMessage) Response {
	return k.dispatch(Request{Cmd: cmd, Args: args})
}

// dispatch routes one decoded request to its command handler. Every
// handler turns its own errors into an error Response, and a panic in a
// handler is recovered into one too: only a fatal lock/socket failure
// elsewhere ever kills the process (spec.md §7).
func (k *Kernel) dispatch(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = ErrorResponse("%s failed: %v", req.Cmd, r)
		}
	}()
	k.touch()
	k.mu.Lock()
	if k.state != StateShuttingDown && k.state != StateStopped {
		k.state = StateServing
	}
	k.mu.Unlock()
	defer func() {
		// shutdown moves the kernel past serving; don't bounce it back.
		k.mu.Lock()
		if k.state == StateServing {
			k.state = StateReady
		}
		k.mu.Unlock()
	}()

	switch req.Cmd {
	case "ping":
		return OK(map[string]any{"pong": true})
	case "status":
		return k.cmdStatus()
	case "shutdown":
		return k.cmdShutdown()
	case "search":
		return k.cmdSearch(req)
	case "extract":
		return k.cmdExtract(req)
	case "calls":
		return k.cmdCalls(req)
	case "imports":
		return k.cmdImports(req)
	case "importers":
		return k.cmdImporters(req)
	case "impact":
		return k.cmdImpact(req)
	case "change_impact":
		return k.cmdImpact(req)
	case "dead":
		return k.cmdDead(req)
	case "arch":
		return k.cmdArch(req)
	case "cfg":
		return k.cmdCFG(req)
	case "dfg":
		return k.cmdDFG(req)
	case "slice":
		return k.cmdSlice(req)
	case "semantic":
		return k.cmdSemantic(req)
	case "tree":
		return k.cmdTree(req)
	case "structure":
		return k.cmdArch(req)
	case "context":
		return k.cmdContext(req)
	case "warm":
		return k.cmdWarm(req)
	case "notify":
		return k.cmdNotify(req)
	case "diagnostics":
		return k.cmdDiagnostics(req)
	default:
		return ErrorResponse("unknown command %q", req.Cmd)
	}
}

func (k *Kernel) cmdStatus() Response {
	k.mu.Lock()
	state, started := k.state, k.startedAt
	k.mu.Unlock()

	hits, misses := k.Query.Stats()
	return OK(map[string]any{
		"state":      string(state),
		"uptime_sec": int(time.Since(started).Seconds()),
		"project":    k.Root,
		"files":      k.Indexer.FileCount(),
		"salsa_stats": map[string]any{"hits": hits, "misses": misses},
		"dedup_stats": map[string]any{"edges": len(k.Indexer.Stack.GetAllEdges())},
	})
}

// cmdShutdown stops the listener (unblocking Serve's Accept loop) and
// persists final state; the caller's process then exits once Serve
// returns. Safe to call more than once — only the first call acts.
func (k *Kernel) cmdShutdown() Response {
	k.shutdownOn.Do(func() {
		k.setState(StateShuttingDown)
		close(k.shutdownCh)
		if k.Listener != nil {
			k.Listener.Close()
		}
		k.Shutdown()
	})
	return OK(map[string]any{"shutting_down": true})
}

// Shutdown persists final state, releases the single-instance lock, and
// removes the pid/socket files — spec.md §4.9's cooperative-shutdown
// contract. Idempotent.
func (k *Kernel) Shutdown() {
	k.writeStatus()
	k.Lock.Release()
	os.Remove(PidFilePath(k.Root))
	sockPath, err := SocketPath(k.Root)
	if err == nil {
		os.Remove(sockPath)
	}
	k.setState(StateStopped)
	k.writeStatus()
}

func (k *Kernel) cmdSearch(req Request) Response {
	name, _ := stringArg(req.Args, "name")
	if name == "" {
		return ErrorResponse("search requires a non-empty name")
	}
	limit := intArg(req.Args, "limit", 50)

	key := query.CanonicalKey("search", name, limit)
	result, err := k.Query.Compute(key, k.sortedPaths(), func() (any, error) {
		return k.searchFunctions(name, limit), nil
	})
	if err != nil {
		return ErrorResponse("search failed: %v", err)
	}
	return OK(map[string]any{"matches": result})
}

type funcMatch struct {
	File      string `json:"file"`
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

func (k *Kernel) searchFunctions(name string, limit int) []funcMatch {
	var out []funcMatch
	for _, path := range k.sortedPaths() {
		facts, _ := k.Indexer.FileFacts(path)
		for _, fn := range facts.Functions {
			if !strings.Contains(strings.ToLower(fn.Name), strings.ToLower(name)) {
				continue
			}
			out = append(out, funcMatch{
				File:      pathutil.ToRelative(path, k.Root),
				Name:      fn.Name,
				StartLine: fn.StartLine,
				EndLine:   fn.EndLine,
			})
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

func (k *Kernel) sortedPaths() []string {
	return k.Indexer.Paths()
}

func (k *Kernel) cmdExtract(req Request) Response {
	path, ok := stringArg(req.Args, "file")
	if !ok || path == "" {
		return ErrorResponse("extract requires a file")
	}
	abs := k.resolvePath(path)
	facts, ok := k.Indexer.FileFacts(abs)
	if !ok {
		return ErrorResponse("file not indexed: %s", path)
	}
	return OK(map[string]any{
		"file":      path,
		"language":  string(facts.Language),
		"functions": facts.Functions,
		"classes":   facts.Classes,
		"imports":   facts.Imports,
	})
}

func (k *Kernel) resolvePath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(k.Root, rel)
}

func (k *Kernel) cmdCalls(req Request) Response {
	fn, _ := stringArg(req.Args, "function")
	var out []types.ResolvedEdge
	for _, e := range k.Indexer.Stack.GetAllEdges() {
		if fn == "" || e.SrcFunc == fn || e.DstFunc == fn {
			out = append(out, e)
		}
	}
	return OK(map[string]any{"edges": out})
}

func (k *Kernel) cmdImports(req Request) Response {
	path, _ := stringArg(req.Args, "file")
	abs := k.resolvePath(path)
	facts, ok := k.Indexer.FileFacts(abs)
	if !ok {
		return ErrorResponse("file not indexed: %s", path)
	}
	return OK(map[string]any{"imports": facts.Imports})
}

func (k *Kernel) cmdImporters(req Request) Response {
	module, _ := stringArg(req.Args, "module")
	if module == "" {
		return ErrorResponse("importers requires a module")
	}
	var importers []string
	for _, path := range k.sortedPaths() {
		facts, ok := k.Indexer.FileFacts(path)
		if !ok {
			continue
		}
		for _, imp := range facts.Imports {
			if imp.Module == module {
				importers = append(importers, pathutil.ToRelative(path, k.Root))
				break
			}
		}
	}
	return OK(map[string]any{"importers": importers})
}

// cmdImpact answers "what would change if this function changed": the
// set of functions that directly or transitively call it, found by a
// breadth-first walk over the resolved call-edge set.
func (k *Kernel) cmdImpact(req Request) Response {
	fn, _ := stringArg(req.Args, "function")
	if fn == "" {
		return ErrorResponse("impact requires a function")
	}
	depth := intArg(req.Args, "depth", 5)

	callers := make(map[string][]string)
	for _, e := range k.Indexer.Stack.GetAllEdges() {
		callers[e.DstFunc] = append(callers[e.DstFunc], e.SrcFunc)
	}

	visited := map[string]bool{fn: true}
	frontier := []string{fn}
	var impacted []string
	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string
		for _, name := range frontier {
			for _, caller := range callers[name] {
				if visited[caller] {
					continue
				}
				visited[caller] = true
				impacted = append(impacted, caller)
				next = append(next, caller)
			}
		}
		frontier = next
	}
	sort.Strings(impacted)
	return OK(map[string]any{"function": fn, "impacted": impacted})
}

// cmdDead lists functions with no resolved caller anywhere in the
// project. Functions named main are skipped; other entry points
// (exported handlers) will false-positive here, matching spec.md's
// documented best-effort framing for C4.
func (k *Kernel) cmdDead(req Request) Response {
	called := make(map[string]bool)
	for _, e := range k.Indexer.Stack.GetAllEdges() {
		called[e.DstFunc] = true
	}

	var dead []funcMatch
	for _, path := range k.sortedPaths() {
		facts, ok := k.Indexer.FileFacts(path)
		if !ok {
			continue
		}
		for _, fn := range facts.Functions {
			if called[fn.Name] || fn.Name == "main" {
				continue
			}
			dead = append(dead, funcMatch{
				File:      pathutil.ToRelative(path, k.Root),
				Name:      fn.Name,
				StartLine: fn.StartLine,
				EndLine:   fn.EndLine,
			})
		}
	}
	return OK(map[string]any{"dead_functions": dead})
}

// cmdArch groups files by top-level directory and reports the resolved
// call-edge count crossing each pair, a coarse architecture summary.
func (k *Kernel) cmdArch(req Request) Response {
	groupOf := func(path string) string {
		rel := pathutil.ToRelative(path, k.Root)
		if i := strings.IndexByte(rel, '/'); i >= 0 {
			return rel[:i]
		}
		return rel
	}

	edgeCounts := make(map[string]int)
	groups := make(map[string]bool)
	for _, e := range k.Indexer.Stack.GetAllEdges() {
		src, dst := groupOf(e.SrcFile), groupOf(e.DstFile)
		groups[src] = true
		groups[dst] = true
		edgeCounts[src+"->"+dst]++
	}

	var groupNames []string
	for g := range groups {
		groupNames = append(groupNames, g)
	}
	sort.Strings(groupNames)

	var allFuncs []string
	for _, path := range k.sortedPaths() {
		facts, ok := k.Indexer.FileFacts(path)
		if !ok {
			continue
		}
		for _, fn := range facts.Functions {
			allFuncs = append(allFuncs, fn.Name)
		}
	}
	concepts := semantic.GroupByStem(allFuncs)

	return OK(map[string]any{"groups": groupNames, "edges": edgeCounts, "concepts": concepts})
}

func (k *Kernel) findFunction(name string) (types.FunctionFact, string, bool) {
	for _, path := range k.sortedPaths() {
		facts, ok := k.Indexer.FileFacts(path)
		if !ok {
			continue
		}
		for _, fn := range facts.Functions {
			if fn.Name == name {
				return fn, path, true
			}
		}
	}
	return types.FunctionFact{}, "", false
}

func (k *Kernel) readSource(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (k *Kernel) cmdCFG(req Request) Response {
	name, _ := stringArg(req.Args, "function")
	fn, path, ok := k.findFunction(name)
	if !ok {
		return ErrorResponse("function not found: %s", name)
	}
	source, err := k.readSource(path)
	if err != nil {
		return ErrorResponse("failed to read %s: %v", path, err)
	}
	cfg, err := graphs.BuildCFG(fn, source)
	if err != nil {
		return ErrorResponse("cfg: %v", err)
	}
	return OK(map[string]any{"cfg": cfg})
}

func (k *Kernel) cmdDFG(req Request) Response {
	name, _ := stringArg(req.Args, "function")
	fn, path, ok := k.findFunction(name)
	if !ok {
		return ErrorResponse("function not found: %s", name)
	}
	source, err := k.readSource(path)
	if err != nil {
		return ErrorResponse("failed to read %s: %v", path, err)
	}
	dfg := graphs.BuildDFG(fn, source)
	return OK(map[string]any{"dfg": dfg})
}

// cmdSlice returns the PDG edges (control or data) of the requested
// function whose label equals the "variable" argument, or every edge when
// no variable is given. It reads no line or direction argument and does
// not walk reachability from any line.
func (k *Kernel) cmdSlice(req Request) Response {
	name, _ := stringArg(req.Args, "function")
	varName, _ := stringArg(req.Args, "variable")
	fn, path, ok := k.findFunction(name)
	if !ok {
		return ErrorResponse("function not found: %s", name)
	}
	source, err := k.readSource(path)
	if err != nil {
		return ErrorResponse("failed to read %s: %v", path, err)
	}
	pdg, err := graphs.BuildPDG(fn, source)
	if err != nil {
		return ErrorResponse("slice: %v", err)
	}

	var relevant []types.PDGEdge
	for _, e := range pdg.Edges {
		if varName == "" || e.Label == varName {
			relevant = append(relevant, e)
		}
	}
	return OK(map[string]any{"slice": relevant})
}

func (k *Kernel) cmdSemantic(req Request) Response {
	name, _ := stringArg(req.Args, "function")
	fn, path, ok := k.findFunction(name)
	if !ok {
		return ErrorResponse("function not found: %s", name)
	}
	source, err := k.readSource(path)
	if err != nil {
		return ErrorResponse("failed to read %s: %v", path, err)
	}
	cfg, err := graphs.BuildCFG(fn, source)
	if err != nil {
		return ErrorResponse("semantic: %v", err)
	}
	dfg := graphs.BuildDFG(fn, source)
	return OK(map[string]any{
		"cfg_summary": fmt.Sprintf("complexity:%d, blocks:%d", cfg.CyclomaticComplexity, len(cfg.Blocks)),
		"dfg_summary": fmt.Sprintf("vars:%d, def-use chains:%d", len(dfg.VarRefs), len(dfg.DataflowEdges)),
	})
}

func (k *Kernel) cmdTree(req Request) Response {
	path, _ := stringArg(req.Args, "file")
	abs := k.resolvePath(path)
	facts, ok := k.Indexer.FileFacts(abs)
	if !ok {
		return ErrorResponse("file not indexed: %s", path)
	}
	return OK(map[string]any{"functions": facts.Functions, "classes": facts.Classes})
}

func (k *Kernel) cmdContext(req Request) Response {
	name, _ := stringArg(req.Args, "function")
	fn, path, ok := k.findFunction(name)
	if !ok {
		return ErrorResponse("function not found: %s", name)
	}
	source, err := k.readSource(path)
	if err != nil {
		return ErrorResponse("failed to read %s: %v", path, err)
	}
	lines := strings.Split(source, "\n")
	start := fn.StartLine - 1
	end := fn.EndLine
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	return OK(map[string]any{
		"file":   pathutil.ToRelative(path, k.Root),
		"source": strings.Join(lines[start:end], "\n"),
	})
}

func (k *Kernel) cmdWarm(req Request) Response {
	indexed, failed := k.Indexer.Reindex()
	return OK(map[string]any{"indexed": indexed, "failed": failed})
}

// cmdNotify handles a file-watch change event: durable (vendored) paths
// never count toward the dirty-reindex threshold (spec.md §4.5/§4.6).
func (k *Kernel) cmdNotify(req Request) Response {
	path, _ := stringArg(req.Args, "file")
	if path == "" {
		return ErrorResponse("notify requires a file")
	}
	abs := k.resolvePath(path)
	durable := k.Indexer.NotifyChanged(abs)
	k.Revisions.NotifyFileChanged(abs)
	k.Query.Invalidate(abs)

	triggered := false
	if !durable {
		k.mu.Lock()
		if !k.reindexInFlight {
			k.dirtyCount++
			if k.dirtyCount >= DirtyReindexThreshold {
				k.dirtyCount = 0
				triggered = true
				k.reindexInFlight = true
			}
		}
		k.mu.Unlock()
	}
	if triggered {
		if err := k.spawnReindexSubprocess(); err != nil {
			k.logf("failed to spawn background reindex: %v", err)
			k.mu.Lock()
			k.reindexInFlight = false
			k.mu.Unlock()
		} else {
			go k.awaitReindexSubprocess()
		}
	}
	return OK(map[string]any{"durable": durable, "reindex_triggered": triggered})
}

// spawnReindexSubprocess execs the daemon's own binary with the hidden
// reindex-worker subcommand (spec.md §4.9's "the daemon spawns a
// subprocess to rebuild the semantic index"), isolating the reindex's
// parse-heavy memory use from the serving process. It returns as soon as
// the subprocess has started; completion is observed separately via the
// reindex status file, never via the process's exit state (spec.md §9).
func (k *Kernel) spawnReindexSubprocess() error {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	cmd := exec.Command(exe, ReindexWorkerCommandName, "--root", k.Root)
	return cmd.Start()
}

// awaitReindexSubprocess polls the reindex status file for the
// subprocess's completion rather than waiting on the child process
// itself, then folds its work back into this daemon's in-memory state by
// reloading the content-hash cache it wrote: every file the subprocess
// parsed becomes a cache hit here, so this reindex is cheap.
func (k *Kernel) awaitReindexSubprocess() {
	spawnedAt := time.Now()
	deadline := spawnedAt.Add(60 * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		st, err := ReadReindexStatus(k.Root)
		if err == nil && st.State != "running" && !st.FinishedAt.Before(spawnedAt) {
			k.finishReindexSubprocess(st)
			return
		}
		if time.Now().After(deadline) {
			k.logf("background reindex subprocess timed out after 60s")
			k.mu.Lock()
			k.reindexInFlight = false
			k.mu.Unlock()
			return
		}
	}
}

func (k *Kernel) finishReindexSubprocess(st ReindexStatus) {
	if st.State == "error" {
		k.logf("background reindex failed: %s", st.Error)
	} else {
		if loaded, err := cache.LoadFrom(ContentHashIndexPath(k.Root)); err == nil {
			k.Indexer.Cache = loaded
		}
		indexed, failed := k.Indexer.Reindex()
		k.logf("background reindex: %d indexed, %d failed (subprocess-isolated)", indexed, len(failed))
	}
	k.mu.Lock()
	k.reindexInFlight = false
	k.mu.Unlock()
}

// NotifyFile implements watch.Notifier: a live filesystem change feeds
// through the exact same path a socket-issued "notify" command drives.
func (k *Kernel) NotifyFile(path string) {
	encoded, err := json.Marshal(path)
	if err != nil {
		return
	}
	k.dispatch(Request{Cmd: "notify", Args: map[string]json.RawMessage{"file": encoded}})
}

// cmdDiagnostics reports per-file extraction failures from the most
// recent Reindex, for a client to surface as ParseError/FileTooLarge
// diagnostics (spec.md §7).
func (k *Kernel) cmdDiagnostics(req Request) Response {
	_, failed := k.Indexer.Reindex()
	return OK(map[string]any{"failed_files": failed})
}

// writeStatus persists the daemon's lifecycle state to the project's
// status file, read back by a client before it attempts to connect.
func (k *Kernel) writeStatus() error {
	k.mu.Lock()
	state := k.state
	k.mu.Unlock()

	content := fmt.Sprintf("%s\npid=%d\nstarted=%s\n", state, os.Getpid(), k.startedAt.Format(time.RFC3339))
	dir := ProjectDir(k.Root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(StatusFilePath(k.Root), []byte(content), 0o644)
}
