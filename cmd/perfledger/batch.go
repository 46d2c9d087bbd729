package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"perfledger/internal/runfile"
	"perfledger/types"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type batchCmd struct {
	runOverrides
	workers int
	outDir  string
}

func (*batchCmd) Name() string     { return "batch" }
func (*batchCmd) Synopsis() string { return "analyze every run file in a directory concurrently" }
func (*batchCmd) Usage() string {
	return `perfledger batch [-workers <n>] [-out <dir>] [-close] [-currency <code>] <dir>

  Analyzes each .json, .yaml or .yml run file in <dir>, writes one
  <name>.summary.json per run into -out and prints an overview table.
`
}

func (c *batchCmd) SetFlags(f *flag.FlagSet) {
	c.runOverrides.setFlags(f)
	f.IntVar(&c.workers, "workers", 0, "Number of runs analyzed in parallel. Defaults to batch.workers from the config.")
	f.StringVar(&c.outDir, "out", "", "Directory receiving the JSON summaries. Nothing is written when empty.")
}

type batchResult struct {
	file    string
	summary types.RunSummary
	err     error
}

func (c *batchCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil || f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	files, err := runFiles(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "no run files in %s\n", f.Arg(0))
		return subcommands.ExitFailure
	}
	if c.outDir != "" {
		if err := os.MkdirAll(c.outDir, 0o755); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}

	workers := c.workers
	if workers <= 0 {
		workers = a.cfg.Batch.Workers
	}
	defaults := c.defaults(a, f)
	eng := a.cfg.NewEngine(a.log)
	bar := initProgressBar(len(files))
	results := make([]batchResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := batchResult{file: file}
			in, err := runfile.Load(file, defaults)
			if err != nil {
				res.err = err
				a.log.Warn("run file skipped", zap.String("file", file), zap.Error(err))
			} else {
				if in.RunID == "" {
					in.RunID = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
				}
				res.summary = eng.Analyze(in)
				if c.outDir != "" {
					if err := writeSummaryFile(c.outDir, res.summary); err != nil {
						if !errors.Is(err, errUnsafeRunID) {
							return err
						}
						res.err = err
						a.log.Warn("summary not written", zap.String("file", file), zap.Error(err))
					}
				}
			}
			results[i] = res
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	_ = bar.Finish()
	fmt.Println()

	failed := printBatch(results)
	if failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func runFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read run directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !runfile.IsRunFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

var errUnsafeRunID = errors.New("run id cannot be used as a file name")

// summaryPath keeps summary files inside dir: run ids come from the run files and must
// not carry path elements.
func summaryPath(dir, runID string) (string, error) {
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) || filepath.Base(runID) != runID {
		return "", fmt.Errorf("%w: %q", errUnsafeRunID, runID)
	}
	return filepath.Join(dir, runID+".summary.json"), nil
}

func writeSummaryFile(dir string, s types.RunSummary) error {
	path, err := summaryPath(dir, s.RunID)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer out.Close()
	return runfile.WriteSummary(out, s, runfile.OutputJSON)
}

func printBatch(results []batchResult) int {
	failed := 0
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tNET PNL\tTRADES\tWIN RATE\tMAX DD\tANOMALIES\tFILE")
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(tw, "-\t-\t-\t-\t-\t-\t%s (%v)\n", r.file, r.err)
			continue
		}
		s := r.summary
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s%%\t%s\t%d\t%s\n",
			s.RunID, s.PnL.Net.StringFixed(2), s.TradeStats.TotalTrades, s.TradeStats.WinRate.StringFixed(1),
			s.Drawdown.MaxDrawdown.StringFixed(2), len(s.Meta.Anomalies), r.file)
	}
	_ = tw.Flush()
	return failed
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Analyzing runs..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
