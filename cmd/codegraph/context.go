package main

import (
	stdcontext "context"
	"fmt"

	"github.com/urfave/cli/v2"

	ctxassembler "github.com/standardbeagle/codegraph/internal/context"
	"github.com/standardbeagle/codegraph/internal/search"
)

var contextCommand = &cli.Command{
	Name:      "context",
	Aliases:   []string{"ctx"},
	Usage:     "Assemble a budgeted Markdown context document for a query",
	ArgsUsage: "<query>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "budget", Aliases: []string{"b"}, Usage: "Token budget (0 = default)"},
	},
	Action: contextAction,
}

func contextAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: codegraph context <query>")
	}
	query := c.Args().First()

	cfg, st, err := loadProject(c)
	if err != nil {
		return err
	}
	defer st.Close()

	budget := c.Int("budget")
	if budget <= 0 {
		budget = cfg.Context.DefaultBudget
	}

	engine := search.NewEngine(st, nil)
	assembler := ctxassembler.NewAssembler(st, engine)

	doc := assembler.Assemble(stdcontext.Background(), query, budget)
	fmt.Println(doc)
	return nil
}
