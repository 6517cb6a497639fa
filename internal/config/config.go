// Package config loads and validates project configuration for the
// indexing pipeline: project root/name, size and worker limits, the
// exclude/include glob lists the pipeline's deny-list step consults, and
// the context assembler's default token budget. Configuration is KDL
// (github.com/sblinch/kdl-go), with a global `~/.codegraph.kdl` merged
// under a project-local `.codegraph.kdl`.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Default size/worker limits, used both as config.go fallbacks and as
// the base a loaded KDL document overrides field-by-field.
const (
	DefaultMaxFileSize    = 10 * 1024 * 1024 // 10MB
	DefaultMaxTotalSizeMB = 500
	DefaultMaxFileCount   = 50000
)

// Config is the fully-merged, validated configuration for one project.
type Config struct {
	Version     int
	Project     Project
	Index       Index
	Performance Performance
	Search      Search
	Context     Context
	Include     []string
	Exclude     []string
}

// Project identifies the directory being indexed.
type Project struct {
	Root string
	Name string
}

// Index controls the file-discovery and incremental-indexing behavior
// of internal/pipeline.
type Index struct {
	MaxFileSize      int64  // bytes; files larger than this are skipped
	MaxTotalSizeMB   int64  // total-size cap; parsed and merged, not read by internal/pipeline
	MaxFileCount     int    // file-count cap; parsed and merged, not read by internal/pipeline
	FollowSymlinks   bool   // spec.md §4.8: off by default, cycle-guarded if enabled
	RespectGitignore bool   // honor the project's .gitignore as an additional deny-list
	WatchMode        bool   // keep a fsnotify watcher running after the initial index
	WatchDebounceMs  int    // coalesce watcher bursts before re-running IndexDirectory
	PriorityMode     string // "recent" | "none"; parsed and merged, not read by internal/pipeline
}

// Performance controls pipeline concurrency.
type Performance struct {
	ParallelFileWorkers int // 0 = auto (NumCPU-1, minimum 1)
	IndexingTimeoutSec  int // parsed and merged; internal/pipeline applies no timeout
}

// Search holds defaults consumed by cmd/codegraph's search subcommand;
// internal/search.Options itself has no dependency on this package.
type Search struct {
	DefaultLimit int
	MaxResults   int
}

// Context holds the assembler's default token budget; internal/context
// falls back to its own constant when Budget is 0.
type Context struct {
	DefaultBudget int
}

// defaultConfig returns the hardcoded baseline every KDL document is
// merged on top of.
func defaultConfig(root string) Config {
	return Config{
		Version: 1,
		Project: Project{Root: root},
		Index: Index{
			MaxFileSize:      DefaultMaxFileSize,
			MaxTotalSizeMB:   DefaultMaxTotalSizeMB,
			MaxFileCount:     DefaultMaxFileCount,
			FollowSymlinks:   false,
			RespectGitignore: true,
			WatchMode:        false,
			WatchDebounceMs:  300,
			PriorityMode:     "recent",
		},
		Performance: Performance{
			ParallelFileWorkers: 0,
			IndexingTimeoutSec:  0,
		},
		Search: Search{
			DefaultLimit: 20,
			MaxResults:   200,
		},
		Context: Context{
			DefaultBudget: 32000,
		},
		Include: nil,
		Exclude: getDefaultExclusions(),
	}
}

// Load reads configuration for root: a global `~/.codegraph.kdl` merged
// under a project-local `<root>/.codegraph.kdl`, falling back to
// defaultConfig when neither file exists. It never returns an error for
// a missing file; only malformed KDL is an error.
func Load(root string) (*Config, error) {
	return LoadWithRoot(root, root)
}

// LoadWithRoot loads configuration the same way Load does, reading the
// project file from `<root>/.codegraph.kdl` and resolving a relative
// `project.root` in it against baseDir. The returned Config's
// Project.Root is always the absolute form of root, whatever the KDL
// files set.
func LoadWithRoot(root, baseDir string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	base := defaultConfig(absRoot)

	if home, err := os.UserHomeDir(); err == nil {
		if global, err := loadKDLFile(filepath.Join(home, ".codegraph.kdl"), home); err != nil {
			return nil, fmt.Errorf("config: global .codegraph.kdl: %w", err)
		} else if global != nil {
			base = mergeConfigs(&base, global)
		}
	}

	project, err := loadKDLFile(filepath.Join(root, ".codegraph.kdl"), baseDir)
	if err != nil {
		return nil, fmt.Errorf("config: project .codegraph.kdl: %w", err)
	}
	if project == nil {
		base.Project.Root = absRoot
		return &base, nil
	}

	merged := mergeConfigs(&base, project)
	merged.Project.Root = absRoot
	return &merged, nil
}

// mergeConfigs layers project over base: scalar fields set in project
// (non-zero) win, Exclude is deduplicated-union, Include falls back to
// base only when project left it empty.
func mergeConfigs(base, project *Config) Config {
	merged := *base

	if project.Project.Name != "" {
		merged.Project.Name = project.Project.Name
	}
	if project.Project.Root != "" {
		merged.Project.Root = project.Project.Root
	}

	mergeIndex(&merged.Index, project.Index)
	mergePerformance(&merged.Performance, project.Performance)
	mergeSearch(&merged.Search, project.Search)
	if project.Context.DefaultBudget != 0 {
		merged.Context.DefaultBudget = project.Context.DefaultBudget
	}

	if len(project.Include) > 0 {
		merged.Include = project.Include
	}

	seen := make(map[string]bool, len(merged.Exclude)+len(project.Exclude))
	combined := make([]string, 0, len(merged.Exclude)+len(project.Exclude))
	for _, list := range [][]string{merged.Exclude, project.Exclude} {
		for _, pattern := range list {
			if !seen[pattern] {
				seen[pattern] = true
				combined = append(combined, pattern)
			}
		}
	}
	merged.Exclude = combined

	return merged
}

func mergeIndex(dst *Index, src Index) {
	if src.MaxFileSize != 0 {
		dst.MaxFileSize = src.MaxFileSize
	}
	if src.MaxTotalSizeMB != 0 {
		dst.MaxTotalSizeMB = src.MaxTotalSizeMB
	}
	if src.MaxFileCount != 0 {
		dst.MaxFileCount = src.MaxFileCount
	}
	if src.PriorityMode != "" {
		dst.PriorityMode = src.PriorityMode
	}
	if src.WatchDebounceMs != 0 {
		dst.WatchDebounceMs = src.WatchDebounceMs
	}
	// Bools default false; a project file setting them true always wins
	// over the base default since there's no "unset" sentinel in KDL.
	dst.FollowSymlinks = dst.FollowSymlinks || src.FollowSymlinks
	dst.RespectGitignore = dst.RespectGitignore || src.RespectGitignore
	dst.WatchMode = dst.WatchMode || src.WatchMode
}

func mergePerformance(dst *Performance, src Performance) {
	if src.ParallelFileWorkers != 0 {
		dst.ParallelFileWorkers = src.ParallelFileWorkers
	}
	if src.IndexingTimeoutSec != 0 {
		dst.IndexingTimeoutSec = src.IndexingTimeoutSec
	}
}

func mergeSearch(dst *Search, src Search) {
	if src.DefaultLimit != 0 {
		dst.DefaultLimit = src.DefaultLimit
	}
	if src.MaxResults != 0 {
		dst.MaxResults = src.MaxResults
	}
}

// EnrichExclusionsWithBuildArtifacts scans cfg.Project.Root for
// language build-config files (package.json, Cargo.toml, ...) and
// appends any custom output directories they declare to cfg.Exclude.
func (cfg *Config) EnrichExclusionsWithBuildArtifacts() {
	detector := NewBuildArtifactDetector(cfg.Project.Root)
	cfg.Exclude = DeduplicatePatterns(append(cfg.Exclude, detector.DetectOutputDirectories()...))
}

// ApplySmartDefaults fills in any zero-valued auto-detected field
// (worker count today; more may be added as the pipeline grows) based
// on runtime.NumCPU, leaving one core free for the rest of the system.
func (cfg *Config) ApplySmartDefaults() {
	if cfg.Performance.ParallelFileWorkers == 0 {
		cfg.Performance.ParallelFileWorkers = max(1, runtime.NumCPU()-1)
	}
}
