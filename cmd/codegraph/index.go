package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/pipeline"
)

var indexCommand = &cli.Command{
	Name:    "index",
	Aliases: []string{"i"},
	Usage:   "Index (or re-index) the project directory",
	Action:  indexAction,
}

var watchCommand = &cli.Command{
	Name:   "watch",
	Usage:  "Index once, then keep re-indexing on file changes",
	Action: watchAction,
}

func indexAction(c *cli.Context) error {
	root := c.String("root")
	cfg, st, err := loadProject(c)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := pipeline.IndexDirectory(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("index %s: %w", root, err)
	}

	printReport(report)
	return nil
}

func watchAction(c *cli.Context) error {
	cfg, st, err := loadProject(c)
	if err != nil {
		return err
	}
	defer st.Close()

	cfg.Index.WatchMode = true

	w, err := pipeline.NewWatcher(cfg, st, func(report pipeline.Report, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "codegraph: watch run failed: %v\n", err)
			return
		}
		printReport(report)
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	fmt.Printf("watching %s for changes (ctrl-c to stop)\n", cfg.Project.Root)
	<-sigCh
	cancel()
	return w.Stop()
}

func printReport(report pipeline.Report) {
	fmt.Printf("scanned %d, indexed %d, unchanged %d, failed %d\n",
		report.FilesScanned, report.FilesIndexed, report.FilesUnchanged, report.FilesFailed)
	fmt.Printf("nodes %d, edges %d, unresolved %d (%s)\n",
		report.Nodes, report.Edges, report.UnresolvedRefs, report.Elapsed.Round(time.Millisecond))
	for _, fe := range report.Errors {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", fe.FilePath, fe.Err)
	}
}
