package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/analysis"
)

var deadCodeCommand = &cli.Command{
	Name:    "dead-code",
	Aliases: []string{"dead"},
	Usage:   "List symbols with no incoming references",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{Name: "kind", Usage: "Restrict to node kind(s), e.g. --kind function"},
	},
	Action: deadCodeAction,
}

func deadCodeAction(c *cli.Context) error {
	_, st, err := loadProject(c)
	if err != nil {
		return err
	}
	defer st.Close()

	kinds := kindsFromFlag(c.StringSlice("kind"))
	results, err := analysis.FindDeadCode(context.Background(), st, kinds)
	if err != nil {
		return fmt.Errorf("dead-code: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no unreferenced symbols found")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%s:%d  %-8s %-24s impact=%.4f\n", r.FilePath, r.StartLine, r.Kind, r.Name, r.Impact)
	}
	return nil
}
