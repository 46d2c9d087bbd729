package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"perfledger/internal/engine"
	"perfledger/internal/runfile"

	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type analyzeCmd struct {
	runOverrides
	cyclesCSV string
	timeline  bool
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "analyze the order and fill events of one run file" }
func (*analyzeCmd) Usage() string {
	return `perfledger analyze [-o text|json|csv] [-close] [-currency <code>] [-cycles <file.csv>] [-timeline] <run.json|run.yaml>

  Rebuilds positions from the run's fills, reconciles PnL against the
  account balances and prints the run summary.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	c.runOverrides.setFlags(f)
	f.StringVar(&c.cyclesCSV, "cycles", "", "Also write the closed position cycles to this CSV file.")
	f.BoolVar(&c.timeline, "timeline", false, "Print the merged order, fill and rejection timeline after a text report.")
}

func (c *analyzeCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil || f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	path := f.Arg(0)

	in, err := runfile.Load(path, c.defaults(a, f))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if in.RunID == "" {
		in.RunID = newRunID()
	}

	summary := a.cfg.NewEngine(a.log).Analyze(in)
	if err := runfile.WriteSummary(os.Stdout, summary, c.output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.timeline && c.output == runfile.OutputText {
		if err := engine.WriteTimeline(os.Stdout, summary.Timeline); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	if c.cyclesCSV != "" {
		if err := engine.WriteCyclesCSVFile(c.cyclesCSV, summary.Cycles); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		a.log.Info("cycles written", zap.String("path", c.cyclesCSV), zap.Int("cycles", len(summary.Cycles)))
	}
	return subcommands.ExitSuccess
}
