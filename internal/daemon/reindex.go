package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/standardbeagle/tldr/internal/cache"
	"github.com/standardbeagle/tldr/internal/indexer"
	"github.com/standardbeagle/tldr/internal/workspace"
)

// ReindexWorkerCommandName is the hidden CLI subcommand cmd/tldr registers
// to run RunReindexWorker. The parent daemon execs this as a subprocess
// rather than running the reindex in-process, so the semantic reindex's
// memory and model load time never lands on the serving process
// (spec.md §9 design note).
const ReindexWorkerCommandName = "__reindex-worker"

// ReindexStatus is the on-disk record a background reindex subprocess
// writes as it runs, and the parent daemon polls rather than waiting on
// the subprocess's exit (spec.md §9: "communicate completion through an
// explicit status file, not process state").
type ReindexStatus struct {
	State      string    `json:"state"` // "running", "done", or "error"
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Indexed    int       `json:"indexed"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

func writeReindexStatus(root string, st ReindexStatus) error {
	if err := os.MkdirAll(ProjectDir(root), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(ReindexStatusPath(root), data, 0o644)
}

// ReadReindexStatus loads the most recently written reindex status. A
// missing file (no background reindex has written one yet for this
// project) is returned as the os.ReadFile error, which os.IsNotExist
// recognises.
func ReadReindexStatus(root string) (ReindexStatus, error) {
	data, err := os.ReadFile(ReindexStatusPath(root))
	if err != nil {
		return ReindexStatus{}, err
	}
	var st ReindexStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return ReindexStatus{}, fmt.Errorf("unmarshal reindex status: %w", err)
	}
	return st, nil
}

// RunReindexWorker performs a full, from-scratch reindex in its own
// process: it never touches the serving daemon's in-memory state, only
// the on-disk content-hash cache, so the parent picks the work back up
// cheaply (a cache hit per file) rather than reparsing. This is the body
// cmd/tldr's hidden ReindexWorkerCommandName subcommand runs.
func RunReindexWorker(root string, filter *workspace.Filter, maxFileSizeByte int64) error {
	started := time.Now()
	if err := writeReindexStatus(root, ReindexStatus{State: "running", StartedAt: started}); err != nil {
		return err
	}

	ix := indexer.New(root, filter, maxFileSizeByte)
	if loaded, err := cache.LoadFrom(ContentHashIndexPath(root)); err == nil {
		ix.Cache = loaded
	}

	indexed, failed := ix.Reindex()

	if err := ix.Cache.SaveTo(ContentHashIndexPath(root)); err != nil {
		writeReindexStatus(root, ReindexStatus{
			State:     "error",
			StartedAt: started, FinishedAt: time.Now(),
			Error: err.Error(),
		})
		return err
	}

	return writeReindexStatus(root, ReindexStatus{
		State:     "done",
		StartedAt: started, FinishedAt: time.Now(),
		Indexed: indexed, Failed: len(failed),
	})
}
