// Package daemon implements the daemon kernel (C9): single-instance
// locking, the length-delimited JSON socket protocol, the
// initializing/ready/serving/shutting_down/stopped state machine, idle
// timeout, and the dirty-file-count reindex trigger.
package daemon

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// projectHash returns the 8-hex-character digest of root's absolute path
// used to derive every deterministic per-project filename (spec.md §6).
func projectHash(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(abs))
	return hex.EncodeToString(sum[:])[:8], nil
}

// runtimeDir returns the per-user tmp-like directory deterministic paths
// are namespaced under.
func runtimeDir() string {
	return filepath.Join(os.TempDir(), "tldr")
}

// LockPath returns the advisory-lock file path for root's project.
func LockPath(root string) (string, error) {
	hash, err := projectHash(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir(), fmt.Sprintf("tldr-%s.lock", hash)), nil
}

// SocketPath returns the POSIX Unix-domain-socket path for root's project.
func SocketPath(root string) (string, error) {
	hash, err := projectHash(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir(), fmt.Sprintf("tldr-%s.sock", hash)), nil
}

// TCPPort returns the deterministic ephemeral-range TCP port used on
// Windows, where Unix domain sockets aren't available: 49152 + (hash8 % 10000).
func TCPPort(root string) (int, error) {
	hash, err := projectHash(root)
	if err != nil {
		return 0, err
	}
	var n int64
	fmt.Sscanf(hash, "%x", &n)
	return 49152 + int(n%10000), nil
}

// UsesTCP reports whether this platform uses the TCP transport (Windows)
// rather than a Unix domain socket.
func UsesTCP() bool { return runtime.GOOS == "windows" }

// ProjectDir returns <root>/.tldr, where persisted state lives.
func ProjectDir(root string) string {
	return filepath.Join(root, ".tldr")
}

func PidFilePath(root string) string    { return filepath.Join(ProjectDir(root), "daemon.pid") }
func StatusFilePath(root string) string { return filepath.Join(ProjectDir(root), "status") }

// ReindexStatusPath returns the file the background-reindex subprocess
// reports its progress and completion through (spec.md §4.9/§9: "communicate
// completion through an explicit status file, not process state").
func ReindexStatusPath(root string) string {
	return filepath.Join(ProjectDir(root), "reindex-status.json")
}
func CallGraphPath(root string) string {
	return filepath.Join(ProjectDir(root), "cache", "call_graph.json")
}
func SemanticMetadataPath(root string) string {
	return filepath.Join(ProjectDir(root), "cache", "semantic", "metadata.json")
}
func DurablePartitionsDir(root string) string {
	return filepath.Join(ProjectDir(root), "cache", "durable")
}
func VolatilePartitionPath(root string) string {
	return filepath.Join(ProjectDir(root), "cache", "volatile.json")
}
func ContentHashIndexPath(root string) string {
	return filepath.Join(ProjectDir(root), "cache", "content_hashes.json")
}

// EncodePackageKey applies spec.md §6's durable-partition filename encoding.
func EncodePackageKey(pkg string) string {
	out := make([]rune, 0, len(pkg))
	for _, r := range pkg {
		switch r {
		case '/':
			out = append(out, '_', '_')
		case '@':
			out = append(out, []rune("_at_")...)
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
