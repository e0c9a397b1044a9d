package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/project")
	if cfg.Project.Root != "/tmp/project" {
		t.Errorf("Project.Root = %q", cfg.Project.Root)
	}
	if cfg.Daemon.IdleTimeoutMinutes != 30 {
		t.Errorf("IdleTimeoutMinutes = %d, want 30", cfg.Daemon.IdleTimeoutMinutes)
	}
	if cfg.Daemon.ReindexDirtyThreshold != 20 {
		t.Errorf("ReindexDirtyThreshold = %d, want 20", cfg.Daemon.ReindexDirtyThreshold)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("Default config should validate cleanly: %v", err)
	}
}

func TestLoadKDL(t *testing.T) {
	dir := t.TempDir()
	content := `project {
    name "demo"
}
workspace {
    active_packages "packages/api" "packages/web"
    exclude "**/testdata/**"
}
index {
    max_file_size "5MB"
    max_file_count 20000
}
daemon {
    idle_timeout_minutes 15
    reindex_dirty_threshold 5
}
`
	if err := os.WriteFile(filepath.Join(dir, ".tldr.kdl"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadKDL(dir)
	if err != nil {
		t.Fatalf("LoadKDL: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.Project.Name != "demo" {
		t.Errorf("Project.Name = %q, want demo", cfg.Project.Name)
	}
	if len(cfg.Workspace.ActivePackages) != 2 {
		t.Errorf("ActivePackages = %v", cfg.Workspace.ActivePackages)
	}
	if cfg.Index.MaxFileSizeByte != 5*1024*1024 {
		t.Errorf("MaxFileSizeByte = %d, want %d", cfg.Index.MaxFileSizeByte, 5*1024*1024)
	}
	if cfg.Index.MaxFileCount != 20000 {
		t.Errorf("MaxFileCount = %d", cfg.Index.MaxFileCount)
	}
	if cfg.Daemon.IdleTimeoutMinutes != 15 {
		t.Errorf("IdleTimeoutMinutes = %d, want 15", cfg.Daemon.IdleTimeoutMinutes)
	}
	if cfg.Daemon.ReindexDirtyThreshold != 5 {
		t.Errorf("ReindexDirtyThreshold = %d, want 5", cfg.Daemon.ReindexDirtyThreshold)
	}
}

func TestLoadKDLMissingReturnsNil(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadKDL(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Fatal("expected nil config for missing .tldr.kdl")
	}
}

func TestParseSize(t *testing.T) {
	cases := map[string]int64{
		"10MB": 10 * 1024 * 1024,
		"500KB": 500 * 1024,
		"1GB":  1024 * 1024 * 1024,
		"100":  100,
	}
	for in, want := range cases {
		got, err := parseSize(in)
		if err != nil {
			t.Errorf("parseSize(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("parseSize(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestExportTOMLRoundTrip(t *testing.T) {
	cfg := Default("/tmp/proj")
	cfg.Workspace.ActivePackages = []string{"a", "b"}

	data, err := ExportTOML(cfg)
	if err != nil {
		t.Fatalf("ExportTOML: %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".tldr.toml"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadTOML(dir)
	if err != nil {
		t.Fatalf("LoadTOML: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected non-nil config")
	}
	if len(loaded.Workspace.ActivePackages) != 2 {
		t.Errorf("ActivePackages = %v", loaded.Workspace.ActivePackages)
	}
}

func TestValidateRejectsNegativeValues(t *testing.T) {
	cfg := Default("/tmp/proj")
	cfg.Index.MaxFileCount = -1
	if err := ValidateConfig(cfg); err == nil {
		t.Error("expected validation error for negative MaxFileCount")
	}
}
