package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/search"
)

var searchCommand = &cli.Command{
	Name:      "search",
	Aliases:   []string{"s"},
	Usage:     "Hybrid keyword + vector search over the indexed graph",
	ArgsUsage: "<query>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Max results"},
		&cli.StringFlag{Name: "language", Usage: "Filter by language"},
		&cli.StringFlag{Name: "kind", Usage: "Filter by node kind"},
	},
	Action: searchAction,
}

func searchAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: codegraph search <query>")
	}
	query := c.Args().First()

	cfg, st, err := loadProject(c)
	if err != nil {
		return err
	}
	defer st.Close()

	limit := c.Int("limit")
	if !c.IsSet("limit") && cfg.Search.DefaultLimit > 0 {
		limit = cfg.Search.DefaultLimit
	}
	if cfg.Search.MaxResults > 0 && limit > cfg.Search.MaxResults {
		limit = cfg.Search.MaxResults
	}

	engine := search.NewEngine(st, nil)
	results, err := engine.Search(context.Background(), query, search.Options{
		Limit:    limit,
		Language: c.String("language"),
		NodeType: c.String("kind"),
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%6.3f  %-8s %-30s %s\n", r.Score, r.Kind, r.Name, r.FilePath)
		if r.Snippet != "" {
			fmt.Printf("        %s\n", r.Snippet)
		}
	}
	return nil
}
