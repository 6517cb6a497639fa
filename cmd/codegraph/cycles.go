package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/traversal"
)

var cyclesCommand = &cli.Command{
	Name:   "cycles",
	Usage:  "Detect strongly-connected-component cycles in the call graph",
	Action: cyclesAction,
}

func cyclesAction(c *cli.Context) error {
	_, st, err := loadProject(c)
	if err != nil {
		return err
	}
	defer st.Close()

	engine := traversal.NewEngine(st)
	cycles, err := engine.DetectCycles(context.Background())
	if err != nil {
		return fmt.Errorf("cycles: %w", err)
	}

	if len(cycles) == 0 {
		fmt.Println("no cycles found")
		return nil
	}
	for i, cyc := range cycles {
		fmt.Printf("cycle %d (%d nodes):\n", i+1, len(cyc.NodeIDs))
		for _, id := range cyc.NodeIDs {
			fmt.Printf("  %s\n", id)
		}
	}
	return nil
}
