package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// tomlDoc mirrors Config in a shape convenient for go-toml/v2 marshaling;
// the exported Config type isn't used directly so the on-disk keys stay
// stable (snake_case) independent of Go field names. The Performance
// section has no TOML counterpart: it is neither exported nor loaded.
type tomlDoc struct {
	Version   int            `toml:"version"`
	Project   tomlProject    `toml:"project"`
	Workspace tomlWorkspace  `toml:"workspace"`
	Index     tomlIndex      `toml:"index"`
	Daemon    tomlDaemon     `toml:"daemon"`
	Query     tomlQuery      `toml:"query"`
}

type tomlProject struct {
	Root string `toml:"root"`
	Name string `toml:"name"`
}

type tomlWorkspace struct {
	ActivePackages    []string `toml:"active_packages"`
	ExcludePatterns   []string `toml:"exclude_patterns"`
	RespectTldrignore bool     `toml:"respect_tldrignore"`
}

type tomlIndex struct {
	MaxFileSizeByte int64 `toml:"max_file_size_byte"`
	MaxTotalSizeMB  int64 `toml:"max_total_size_mb"`
	MaxFileCount    int   `toml:"max_file_count"`
	FollowSymlinks  bool  `toml:"follow_symlinks"`
}

type tomlDaemon struct {
	IdleTimeoutMinutes    int  `toml:"idle_timeout_minutes"`
	ReindexDirtyThreshold int  `toml:"reindex_dirty_threshold"`
	CommandTimeoutSec     int  `toml:"command_timeout_sec"`
	SemanticIndexEnabled  bool `toml:"semantic_index_enabled"`
	WatchDebounceMs       int  `toml:"watch_debounce_ms"`
}

type tomlQuery struct {
	DefaultContextLines int `toml:"default_context_lines"`
	MaxResults          int `toml:"max_results"`
}

// LoadTOML loads <root>/.tldr.toml as a secondary config format. A missing
// file returns (nil, nil).
func LoadTOML(root string) (*Config, error) {
	path := filepath.Join(root, ".tldr.toml")
	if !fileExists(path) {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read .tldr.toml: %w", err)
	}

	var doc tomlDoc
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse .tldr.toml: %w", err)
	}

	cfg := Default(root)
	if doc.Version != 0 {
		cfg.Version = doc.Version
	}
	if doc.Project.Root != "" {
		cfg.Project.Root = doc.Project.Root
	}
	cfg.Project.Name = doc.Project.Name
	if len(doc.Workspace.ActivePackages) > 0 {
		cfg.Workspace.ActivePackages = doc.Workspace.ActivePackages
	}
	if len(doc.Workspace.ExcludePatterns) > 0 {
		cfg.Workspace.ExcludePatterns = doc.Workspace.ExcludePatterns
	}
	cfg.Workspace.RespectTldrignore = doc.Workspace.RespectTldrignore

	if doc.Index.MaxFileSizeByte != 0 {
		cfg.Index.MaxFileSizeByte = doc.Index.MaxFileSizeByte
	}
	if doc.Index.MaxTotalSizeMB != 0 {
		cfg.Index.MaxTotalSizeMB = doc.Index.MaxTotalSizeMB
	}
	if doc.Index.MaxFileCount != 0 {
		cfg.Index.MaxFileCount = doc.Index.MaxFileCount
	}
	cfg.Index.FollowSymlinks = doc.Index.FollowSymlinks

	if doc.Daemon.IdleTimeoutMinutes != 0 {
		cfg.Daemon.IdleTimeoutMinutes = doc.Daemon.IdleTimeoutMinutes
	}
	if doc.Daemon.ReindexDirtyThreshold != 0 {
		cfg.Daemon.ReindexDirtyThreshold = doc.Daemon.ReindexDirtyThreshold
	}
	if doc.Daemon.CommandTimeoutSec != 0 {
		cfg.Daemon.CommandTimeoutSec = doc.Daemon.CommandTimeoutSec
	}
	cfg.Daemon.SemanticIndexEnabled = doc.Daemon.SemanticIndexEnabled
	if doc.Daemon.WatchDebounceMs != 0 {
		cfg.Daemon.WatchDebounceMs = doc.Daemon.WatchDebounceMs
	}

	if doc.Query.DefaultContextLines != 0 {
		cfg.Query.DefaultContextLines = doc.Query.DefaultContextLines
	}
	if doc.Query.MaxResults != 0 {
		cfg.Query.MaxResults = doc.Query.MaxResults
	}

	return cfg, nil
}

// ExportTOML serializes cfg to the .tldr.toml format (e.g. migrating a
// KDL config for tooling that only speaks TOML). No CLI subcommand calls
// it.
func ExportTOML(cfg *Config) ([]byte, error) {
	doc := tomlDoc{
		Version: cfg.Version,
		Project: tomlProject{Root: cfg.Project.Root, Name: cfg.Project.Name},
		Workspace: tomlWorkspace{
			ActivePackages:    cfg.Workspace.ActivePackages,
			ExcludePatterns:   cfg.Workspace.ExcludePatterns,
			RespectTldrignore: cfg.Workspace.RespectTldrignore,
		},
		Index: tomlIndex{
			MaxFileSizeByte: cfg.Index.MaxFileSizeByte,
			MaxTotalSizeMB:  cfg.Index.MaxTotalSizeMB,
			MaxFileCount:    cfg.Index.MaxFileCount,
			FollowSymlinks:  cfg.Index.FollowSymlinks,
		},
		Daemon: tomlDaemon{
			IdleTimeoutMinutes:    cfg.Daemon.IdleTimeoutMinutes,
			ReindexDirtyThreshold: cfg.Daemon.ReindexDirtyThreshold,
			CommandTimeoutSec:     cfg.Daemon.CommandTimeoutSec,
			SemanticIndexEnabled:  cfg.Daemon.SemanticIndexEnabled,
			WatchDebounceMs:       cfg.Daemon.WatchDebounceMs,
		},
		Query: tomlQuery{
			DefaultContextLines: cfg.Query.DefaultContextLines,
			MaxResults:          cfg.Query.MaxResults,
		},
	}
	return toml.Marshal(doc)
}
