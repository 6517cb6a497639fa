package config

import "fmt"

// Validate checks a loaded Config for internally-inconsistent values
// before the pipeline consumes it. It does not apply defaults — that is
// ApplySmartDefaults' job — it only rejects impossible combinations.
func Validate(cfg *Config) error {
	if cfg.Project.Root == "" {
		return fmt.Errorf("config: project root cannot be empty")
	}

	if cfg.Index.MaxFileSize <= 0 {
		return fmt.Errorf("config: index.max_file_size must be positive, got %d", cfg.Index.MaxFileSize)
	}
	if cfg.Index.MaxTotalSizeMB <= 0 {
		return fmt.Errorf("config: index.max_total_size_mb must be positive, got %d", cfg.Index.MaxTotalSizeMB)
	}
	if cfg.Index.MaxFileCount <= 0 {
		return fmt.Errorf("config: index.max_file_count must be positive, got %d", cfg.Index.MaxFileCount)
	}

	if cfg.Performance.ParallelFileWorkers < 0 {
		return fmt.Errorf("config: performance.parallel_file_workers cannot be negative, got %d", cfg.Performance.ParallelFileWorkers)
	}
	if cfg.Performance.IndexingTimeoutSec < 0 {
		return fmt.Errorf("config: performance.indexing_timeout_sec cannot be negative, got %d", cfg.Performance.IndexingTimeoutSec)
	}

	if cfg.Search.MaxResults < 0 {
		return fmt.Errorf("config: search.max_results cannot be negative, got %d", cfg.Search.MaxResults)
	}
	if cfg.Context.DefaultBudget < 0 {
		return fmt.Errorf("config: context.default_budget cannot be negative, got %d", cfg.Context.DefaultBudget)
	}

	return nil
}
