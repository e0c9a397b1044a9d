package config

import (
	"errors"
	"fmt"
	"runtime"

	tldrerrors "github.com/standardbeagle/tldr/internal/errors"
)

// Validator validates configuration and applies smart defaults for
// zero-valued fields left unset by a partial KDL/TOML file.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates cfg and fills in smart defaults.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProject(&cfg.Project); err != nil {
		return tldrerrors.NewConfigError("project", "", err)
	}
	if err := v.validateIndex(&cfg.Index); err != nil {
		return tldrerrors.NewConfigError("index", "", err)
	}
	if err := v.validatePerformance(&cfg.Performance); err != nil {
		return tldrerrors.NewConfigError("performance", "", err)
	}
	if err := v.validateDaemon(&cfg.Daemon); err != nil {
		return tldrerrors.NewConfigError("daemon", "", err)
	}
	if err := v.validateQuery(&cfg.Query); err != nil {
		return tldrerrors.NewConfigError("query", "", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProject(p *Project) error {
	if p.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateIndex(idx *Index) error {
	if idx.MaxFileSizeByte <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", idx.MaxFileSizeByte)
	}
	if idx.MaxTotalSizeMB <= 0 {
		return fmt.Errorf("max_total_size_mb must be positive, got %d", idx.MaxTotalSizeMB)
	}
	if idx.MaxFileCount <= 0 {
		return fmt.Errorf("max_file_count must be positive, got %d", idx.MaxFileCount)
	}
	return nil
}

func (v *Validator) validatePerformance(perf *Performance) error {
	if perf.MaxGoroutines < 0 {
		return fmt.Errorf("max_goroutines cannot be negative, got %d", perf.MaxGoroutines)
	}
	if perf.ParallelFileWorkers < 0 {
		return fmt.Errorf("parallel_file_workers cannot be negative, got %d", perf.ParallelFileWorkers)
	}
	if perf.IndexingTimeoutSec <= 0 {
		return fmt.Errorf("indexing_timeout_sec must be positive, got %d", perf.IndexingTimeoutSec)
	}
	return nil
}

func (v *Validator) validateDaemon(d *Daemon) error {
	if d.IdleTimeoutMinutes <= 0 {
		return fmt.Errorf("idle_timeout_minutes must be positive, got %d", d.IdleTimeoutMinutes)
	}
	if d.ReindexDirtyThreshold <= 0 {
		return fmt.Errorf("reindex_dirty_threshold must be positive, got %d", d.ReindexDirtyThreshold)
	}
	if d.CommandTimeoutSec <= 0 {
		return fmt.Errorf("command_timeout_sec must be positive, got %d", d.CommandTimeoutSec)
	}
	return nil
}

func (v *Validator) validateQuery(q *Query) error {
	if q.DefaultContextLines < 0 {
		return fmt.Errorf("default_context_lines cannot be negative, got %d", q.DefaultContextLines)
	}
	if q.MaxResults < 0 {
		return fmt.Errorf("max_results cannot be negative, got %d", q.MaxResults)
	}
	return nil
}

func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Performance.MaxGoroutines == 0 {
		cfg.Performance.MaxGoroutines = max(1, runtime.NumCPU()-1)
	}
	if cfg.Performance.ParallelFileWorkers == 0 {
		cfg.Performance.ParallelFileWorkers = max(1, runtime.NumCPU()-1)
	}
	if cfg.Query.MaxResults == 0 {
		cfg.Query.MaxResults = 100
	}
}

// ValidateConfig is a convenience wrapper around Validator.
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
