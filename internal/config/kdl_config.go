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

// loadKDLFile reads and parses a `.codegraph.kdl` file at path. Missing
// files are not an error — it returns (nil, nil) so callers fall back
// to whatever base config they already have. Relative `project { root
// "..." }` values are resolved against baseDir.
func loadKDLFile(path, baseDir string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Project.Root != "" && !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(baseDir, cfg.Project.Root))
	}

	return cfg, nil
}

// parseKDL parses the body of a .codegraph.kdl document into a Config.
// Fields absent from the document are left at their zero value; the
// caller (loadKDLFile -> Load/LoadWithRoot) layers this on top of
// defaultConfig via mergeConfigs, so zero here means "inherit base".
func parseKDL(content string) (*Config, error) {
	cfg := &Config{}

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "index":
			parseIndexNode(n, cfg)
		case "performance":
			for _, cn := range n.Children {
				switch nodeName(cn) {
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
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "default_limit":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.DefaultLimit = v
					}
				case "max_results":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.MaxResults = v
					}
				}
			}
		case "context":
			for _, cn := range n.Children {
				if nodeName(cn) == "default_budget" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Context.DefaultBudget = v
					}
				}
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, collectStringArgs(n)...)
		}
	}

	return cfg, nil
}

func parseIndexNode(n *document.Node, cfg *Config) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "max_file_size":
			if s, ok := firstStringArg(cn); ok {
				if sz, err := parseSize(s); err == nil {
					cfg.Index.MaxFileSize = sz
				}
			} else if v, ok := firstIntArg(cn); ok {
				cfg.Index.MaxFileSize = int64(v)
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
		case "respect_gitignore":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.RespectGitignore = b
			}
		case "watch_mode":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.WatchMode = b
			}
		case "watch_debounce_ms":
			if v, ok := firstIntArg(cn); ok {
				cfg.Index.WatchDebounceMs = v
			}
		case "priority_mode":
			if s, ok := firstStringArg(cn); ok {
				cfg.Index.PriorityMode = s
			}
		}
	}
}

// Helpers over the kdl-go document model.

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

	// Block form (`exclude { "pattern" }`) stores each pattern as a
	// child node whose name IS the string, rather than as an argument.
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

// parseSize handles size strings like "10MB", "500KB", "1GB".
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
		multiplier = 1
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

// getDefaultExclusions is the baseline deny-list the indexing pipeline
// applies before ever consulting .gitignore: VCS internals, package
// manager and build-artifact directories, editor/OS cruft, and binary
// media formats that tree-sitter has no grammar for anyway.
func getDefaultExclusions() []string {
	return []string{
		"**/.*/**",

		"**/node_modules/**",
		"**/vendor/**",
		"**/bower_components/**",
		"**/jspm_packages/**",
		"**/.bundle/**",
		"**/.gradle/**",
		"**/.m2/**",
		"**/.ivy2/**",
		"**/.cargo/**",
		"**/venv/**",
		"**/virtualenv/**",
		"**/.venv/**",
		"**/site-packages/**",
		"**/Pods/**",
		"**/Carthage/**",

		"**/dist/**",
		"**/build/**",
		"**/out/**",
		"**/target/**",
		"**/bin/**",
		"**/obj/**",
		"**/Release/**",
		"**/Debug/**",
		"**/*.min.js",
		"**/*.min.css",
		"**/*.bundle.js",
		"**/*.chunk.js",
		"**/CMakeFiles/**",

		"**/*.swp",
		"**/*.swo",
		"**/*~",
		"**/*.tmp",
		"**/*.temp",
		"**/*.bak",
		"**/*.orig",

		"**/__pycache__/**",
		"**/*.pyc",
		"**/*.pyo",
		"**/*.pyd",
		"**/*.egg-info/**",
		"**/.pytest_cache/**",
		"**/.mypy_cache/**",
		"**/.ruff_cache/**",

		"**/Thumbs.db",
		"**/desktop.ini",
		"**/.DS_Store",
		"**/.AppleDouble",
		"**/._*",
		"**/.directory",

		"**/*.exe",
		"**/*.dll",
		"**/*.pdb",
		"**/*.so",
		"**/*.so.*",
		"**/*.a",
		"**/*.o",
		"**/*.dylib",
		"**/*.class",
		"**/*.jar",

		"**/*.zip",
		"**/*.tar",
		"**/*.tar.gz",
		"**/*.tgz",
		"**/*.rar",
		"**/*.7z",
		"**/*.gz",

		"**/.cache/**",
		"**/cache/**",
		"**/.next/**",
		"**/.nuxt/**",
		"**/.parcel-cache/**",
		"**/.turbo/**",
		"**/.vite/**",
		"**/.yarn/**",

		"**/logs/**",
		"**/*.log",
		"**/tmp/**",
		"**/temp/**",

		"**/coverage/**",
		"**/.coverage",
		"**/.nyc_output/**",
		"**/htmlcov/**",
		"**/.tox/**",
		"**/junit.xml",
		"**/test-results/**",

		"**/*.sqlite",
		"**/*.sqlite3",
		"**/*.db",

		"**/*.png",
		"**/*.jpg",
		"**/*.jpeg",
		"**/*.gif",
		"**/*.ico",
		"**/*.svg",
		"**/*.woff",
		"**/*.woff2",
		"**/*.ttf",
		"**/*.eot",
		"**/*.pdf",
	}
}
