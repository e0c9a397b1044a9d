package mcpbridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/tldr/internal/daemon"
	"github.com/standardbeagle/tldr/internal/workspace"
)

func TestNewRegistersToolsAgainstRunningKernel(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	kernel := daemon.NewKernel(root, workspace.NewFilter(workspace.Config{}), 0)
	if err := kernel.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer kernel.Shutdown()

	bridge := New(kernel)
	if bridge.server == nil {
		t.Fatal("New did not build an mcp.Server")
	}

	// The bridge forwards straight into the kernel's own dispatch table;
	// exercise that path directly rather than through the MCP transport.
	resp := kernel.Dispatch("ping", nil)
	if resp.Status != "ok" {
		t.Fatalf("ping via kernel dispatch = %+v, want ok", resp)
	}
}
