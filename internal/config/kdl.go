package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL loads <root>/.tldr.kdl. A missing file is not an error: it
// returns (nil, nil) so the caller falls through to the next format.
func LoadKDL(root string) (*Config, error) {
	path := filepath.Join(root, ".tldr.kdl")
	if !fileExists(path) {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read .tldr.kdl: %w", err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse .tldr.kdl: %w", err)
	}

	cfg := Default(root)
	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			parseProjectNode(cfg, n)
		case "workspace":
			parseWorkspaceNode(cfg, n)
		case "index":
			parseIndexNode(cfg, n)
		case "performance":
			parsePerformanceNode(cfg, n)
		case "daemon":
			parseDaemonNode(cfg, n)
		case "query":
			parseQueryNode(cfg, n)
		}
	}
	return cfg, nil
}

func parseProjectNode(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
		assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
	}
}

func parseWorkspaceNode(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "active_packages":
			cfg.Workspace.ActivePackages = collectStringArgs(cn)
		case "exclude":
			cfg.Workspace.ExcludePatterns = collectStringArgs(cn)
		case "respect_tldrignore":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Workspace.RespectTldrignore = b
			}
		}
	}
}

func parseIndexNode(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "max_file_size":
			if s, ok := firstStringArg(cn); ok {
				if sz, err := parseSize(s); err == nil {
					cfg.Index.MaxFileSizeByte = sz
				}
			} else if v, ok := firstIntArg(cn); ok {
				cfg.Index.MaxFileSizeByte = int64(v)
			}
		case "max_total_size_mb":
			if v, ok := firstIntArg(cn); ok {
				cfg.Index.MaxTotalSizeMB = int64(v)
			}
		case "max_file_count":
			if v, ok := firstIntArg(cn); ok {
				cfg.Index.MaxFileCount = v
			}
		case "follow_symlinks":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.FollowSymlinks = b
			}
		}
	}
}

func parsePerformanceNode(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "max_goroutines":
			if v, ok := firstIntArg(cn); ok {
				cfg.Performance.MaxGoroutines = v
			}
		case "parallel_file_workers":
			if v, ok := firstIntArg(cn); ok {
				cfg.Performance.ParallelFileWorkers = v
			}
		case "indexing_timeout_sec":
			if v, ok := firstIntArg(cn); ok {
				cfg.Performance.IndexingTimeoutSec = v
			}
		}
	}
}

func parseDaemonNode(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "idle_timeout_minutes":
			if v, ok := firstIntArg(cn); ok {
				cfg.Daemon.IdleTimeoutMinutes = v
			}
		case "reindex_dirty_threshold":
			if v, ok := firstIntArg(cn); ok {
				cfg.Daemon.ReindexDirtyThreshold = v
			}
		case "command_timeout_sec":
			if v, ok := firstIntArg(cn); ok {
				cfg.Daemon.CommandTimeoutSec = v
			}
		case "semantic_index_enabled":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Daemon.SemanticIndexEnabled = b
			}
		case "watch_debounce_ms":
			if v, ok := firstIntArg(cn); ok {
				cfg.Daemon.WatchDebounceMs = v
			}
		}
	}
}

func parseQueryNode(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "default_context_lines":
			if v, ok := firstIntArg(cn); ok {
				cfg.Query.DefaultContextLines = v
			}
		case "max_results":
			if v, ok := firstIntArg(cn); ok {
				cfg.Query.MaxResults = v
			}
		}
	}
}

// --- small KDL document helpers, grounded on the teacher's kdl_config.go ---

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize parses sizes like "10MB", "500KB", "1GB", or a bare byte count.
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}
