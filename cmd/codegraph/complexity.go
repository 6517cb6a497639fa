package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/analysis"
	"github.com/standardbeagle/codegraph/internal/graphmodel"
)

var complexityCommand = &cli.Command{
	Name:  "complexity",
	Usage: "Rank functions by cyclomatic/cognitive complexity",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "top", Value: 20, Usage: "Show only the top N results"},
	},
	Action: complexityAction,
}

func complexityAction(c *cli.Context) error {
	_, st, err := loadProject(c)
	if err != nil {
		return err
	}
	defer st.Close()

	results, err := analysis.CalculateAllComplexities(context.Background(), st)
	if err != nil {
		return fmt.Errorf("complexity: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Cognitive > results[j].Cognitive
	})

	top := c.Int("top")
	if top > 0 && len(results) > top {
		results = results[:top]
	}

	for _, r := range results {
		fmt.Printf("cyclomatic=%-3d cognitive=%-3d lines=%-4d %s (%s)\n",
			r.Cyclomatic, r.Cognitive, r.LineCount, r.Name, r.FilePath)
	}
	return nil
}

func kindsFromFlag(raw []string) []graphmodel.NodeKind {
	if len(raw) == 0 {
		return nil
	}
	kinds := make([]graphmodel.NodeKind, len(raw))
	for i, k := range raw {
		kinds[i] = graphmodel.NodeKind(k)
	}
	return kinds
}
