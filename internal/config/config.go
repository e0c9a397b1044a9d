// Package config loads and validates a project's tldr configuration: the
// workspace root, ignore/exclude patterns, indexing limits, and daemon
// knobs. KDL (github.com/sblinch/kdl-go) is the primary on-disk format,
// matching the teacher project's .lci.kdl convention; TOML
// (github.com/pelletier/go-toml/v2) is supported as a secondary
// import/export format for tooling that prefers it.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Config is the full resolved configuration for one project.
type Config struct {
	Version     int
	Project     Project
	Workspace   Workspace
	Index       Index
	Performance Performance
	Daemon      Daemon
	Query       Query
}

type Project struct {
	Root string
	Name string
}

// Workspace mirrors spec.md's WorkspaceConfig plus the .tldrignore toggle.
type Workspace struct {
	ActivePackages   []string
	ExcludePatterns  []string
	RespectTldrignore bool
}

type Index struct {
	MaxFileSizeByte int64
	MaxTotalSizeMB  int64
	MaxFileCount    int
	FollowSymlinks  bool
}

type Performance struct {
	MaxGoroutines       int
	ParallelFileWorkers int // 0 = auto-detect (NumCPU-1, at least 1)
	IndexingTimeoutSec  int
}

// Daemon holds the knobs for the daemon kernel (C9).
type Daemon struct {
	IdleTimeoutMinutes     int
	ReindexDirtyThreshold  int
	CommandTimeoutSec      int
	SemanticIndexEnabled   bool
	WatchDebounceMs        int
}

// Query holds knobs for the memoizing query layer (C8).
type Query struct {
	DefaultContextLines int
	MaxResults          int
}

// Default returns the built-in configuration used when no .tldr.kdl or
// .tldr.toml file is found, rooted at root.
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Workspace: Workspace{
			RespectTldrignore: true,
		},
		Index: Index{
			MaxFileSizeByte: 10 * 1024 * 1024,
			MaxTotalSizeMB:  500,
			MaxFileCount:    50000,
			FollowSymlinks:  false,
		},
		Performance: Performance{
			MaxGoroutines:       runtime.NumCPU(),
			ParallelFileWorkers: 0,
			IndexingTimeoutSec:  120,
		},
		Daemon: Daemon{
			IdleTimeoutMinutes:    30,
			ReindexDirtyThreshold: 20,
			CommandTimeoutSec:     60,
			SemanticIndexEnabled:  true,
			WatchDebounceMs:       300,
		},
		Query: Query{
			DefaultContextLines: 0,
			MaxResults:          100,
		},
	}
}

// Load resolves the configuration for root: .tldr.kdl if present, else
// .tldr.toml, else Default(root). Project.Root is always made absolute.
func Load(root string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	if cfg, err := LoadKDL(absRoot); err != nil {
		return nil, err
	} else if cfg != nil {
		cfg.Project.Root = absRoot
		return cfg, nil
	}

	if cfg, err := LoadTOML(absRoot); err != nil {
		return nil, err
	} else if cfg != nil {
		cfg.Project.Root = absRoot
		return cfg, nil
	}

	return Default(absRoot), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
