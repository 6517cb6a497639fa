// Command codegraph is the CLI front end for the code intelligence
// engine: incremental indexing, hybrid search, graph traversal, analysis
// passes, and budgeted context assembly over a single SQLite-backed
// graph store per project (spec.md §4).
//
// Grounded on _examples/standardbeagle-lci/cmd/lci/main.go's urfave/cli
// App shape (global flags, one subcommand per capability, each loading
// config through loadProject), scaled down to this module's surface.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/config"
	"github.com/standardbeagle/codegraph/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "codegraph",
		Usage: "Code intelligence engine: index, search, and assemble context over a code graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory to index",
				Value:   ".",
			},
		},
		Commands: []*cli.Command{
			indexCommand,
			watchCommand,
			searchCommand,
			contextCommand,
			statsCommand,
			deadCodeCommand,
			complexityCommand,
			cyclesCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "codegraph: %v\n", err)
		os.Exit(1)
	}
}

// loadProject loads the merged configuration for the --root flag's
// directory and opens its graph store.
func loadProject(c *cli.Context) (*config.Config, *store.Store, error) {
	root := c.String("root")
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve root: %w", err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(absRoot, ".codegraph"), 0o755); err != nil {
		return nil, nil, fmt.Errorf("prepare store directory: %w", err)
	}

	st, err := store.Open(dbPath(absRoot))
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	return cfg, st, nil
}

// dbPath returns the per-project graph store file, rooted under a
// `.codegraph` directory alongside the project's config file.
func dbPath(root string) string {
	return filepath.Join(root, ".codegraph", "index.db")
}
