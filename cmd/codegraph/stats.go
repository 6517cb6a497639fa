package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
)

var statsCommand = &cli.Command{
	Name:   "stats",
	Usage:  "Show node/edge/file counts for the indexed graph",
	Action: statsAction,
}

func statsAction(c *cli.Context) error {
	_, st, err := loadProject(c)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.GetStats(context.Background())
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	fmt.Printf("files: %d\n", stats.FileCount)
	fmt.Printf("nodes: %d\n", stats.NodeCount)
	fmt.Printf("edges: %d\n", stats.EdgeCount)
	return nil
}
