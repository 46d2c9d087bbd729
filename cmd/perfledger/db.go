package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"perfledger/internal/repository"
	"perfledger/internal/runfile"

	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type dbCmd struct {
	output  string
	save    bool
	migrate bool
}

func (*dbCmd) Name() string     { return "db" }
func (*dbCmd) Synopsis() string { return "analyze a run stored in Postgres" }
func (*dbCmd) Usage() string {
	return `perfledger db [-o text|json|csv] [-save] [-migrate] <run-id>

  Loads the run's fills, order events and balances from database.url,
  analyzes them and optionally stores the summary back as jsonb.
`
}

func (c *dbCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", runfile.OutputText, "Output format (text, json, csv).")
	f.BoolVar(&c.save, "save", false, "Store the summary in run_summaries.")
	f.BoolVar(&c.migrate, "migrate", false, "Create the run tables before loading.")
}

func (c *dbCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil || f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	runID := f.Arg(0)

	db, err := repository.NewDatabase(ctx, a.cfg.Database.URL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	if c.migrate {
		if err := db.Migrate(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}

	in, err := db.LoadRun(ctx, runID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if in.SettlementCurrency == "" {
		in.SettlementCurrency = a.cfg.SettlementCurrency
	}

	summary := a.cfg.NewEngine(a.log).Analyze(in)
	if err := runfile.WriteSummary(os.Stdout, summary, c.output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.save {
		if err := db.SaveSummary(ctx, summary); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		a.log.Info("summary saved", zap.String("run_id", runID))
	}
	return subcommands.ExitSuccess
}
