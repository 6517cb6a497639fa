package config

import "testing"

func validConfig() *Config {
	return &Config{
		Project: Project{Root: "/test/root", Name: "test-project"},
		Index: Index{
			MaxFileSize:    1024 * 1024,
			MaxTotalSizeMB: 1000,
			MaxFileCount:   10000,
		},
		Performance: Performance{ParallelFileWorkers: 4},
		Search:      Search{MaxResults: 100},
		Context:     Context{DefaultBudget: 32000},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Validate failed on a well-formed config: %v", err)
	}
}

func TestValidateRejectsEmptyRoot(t *testing.T) {
	cfg := validConfig()
	cfg.Project.Root = ""
	if err := Validate(cfg); err == nil {
		t.Errorf("expected error for empty project root")
	}
}

func TestValidateRejectsNonPositiveIndexLimits(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Index.MaxFileSize = 0 },
		func(c *Config) { c.Index.MaxTotalSizeMB = 0 },
		func(c *Config) { c.Index.MaxFileCount = 0 },
	}
	for _, mutate := range cases {
		cfg := validConfig()
		mutate(cfg)
		if err := Validate(cfg); err == nil {
			t.Errorf("expected error for non-positive index limit, config: %+v", cfg.Index)
		}
	}
}

func TestValidateRejectsNegativePerformanceFields(t *testing.T) {
	cfg := validConfig()
	cfg.Performance.ParallelFileWorkers = -1
	if err := Validate(cfg); err == nil {
		t.Errorf("expected error for negative ParallelFileWorkers")
	}

	cfg = validConfig()
	cfg.Performance.IndexingTimeoutSec = -1
	if err := Validate(cfg); err == nil {
		t.Errorf("expected error for negative IndexingTimeoutSec")
	}
}

func TestValidateAllowsZeroParallelFileWorkersAsAutoDetect(t *testing.T) {
	cfg := validConfig()
	cfg.Performance.ParallelFileWorkers = 0
	if err := Validate(cfg); err != nil {
		t.Errorf("zero ParallelFileWorkers should mean auto-detect, got error: %v", err)
	}
}

func TestValidateRejectsNegativeSearchAndContextFields(t *testing.T) {
	cfg := validConfig()
	cfg.Search.MaxResults = -1
	if err := Validate(cfg); err == nil {
		t.Errorf("expected error for negative Search.MaxResults")
	}

	cfg = validConfig()
	cfg.Context.DefaultBudget = -1
	if err := Validate(cfg); err == nil {
		t.Errorf("expected error for negative Context.DefaultBudget")
	}
}

func TestApplySmartDefaultsFillsParallelFileWorkers(t *testing.T) {
	cfg := validConfig()
	cfg.Performance.ParallelFileWorkers = 0
	cfg.ApplySmartDefaults()
	if cfg.Performance.ParallelFileWorkers < 1 {
		t.Errorf("expected ParallelFileWorkers to be set to at least 1, got %d", cfg.Performance.ParallelFileWorkers)
	}
}

func TestApplySmartDefaultsLeavesExplicitValueAlone(t *testing.T) {
	cfg := validConfig()
	cfg.Performance.ParallelFileWorkers = 3
	cfg.ApplySmartDefaults()
	if cfg.Performance.ParallelFileWorkers != 3 {
		t.Errorf("expected explicit ParallelFileWorkers to be preserved, got %d", cfg.Performance.ParallelFileWorkers)
	}
}
