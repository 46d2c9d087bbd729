package main

import (
	"flag"
	"perfledger/internal/config"
	"perfledger/internal/runfile"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// app is handed to every command through Execute's variadic arguments.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

func appFrom(args []interface{}) *app {
	for _, a := range args {
		if v, ok := a.(*app); ok {
			return v
		}
	}
	return nil
}

// runOverrides are the per-invocation flags shared by the analysis commands.
type runOverrides struct {
	currency string
	close    bool
	output   string
}

func (o *runOverrides) setFlags(f *flag.FlagSet) {
	f.StringVar(&o.currency, "currency", "", "Settlement currency used when a run does not name one. Defaults to the configured currency.")
	f.BoolVar(&o.close, "close", false, "Close open positions at their mark when the run ends.")
	f.StringVar(&o.output, "o", runfile.OutputText, "Output format (text, json, csv).")
}

func (o *runOverrides) defaults(a *app, f *flag.FlagSet) runfile.Defaults {
	d := runfile.Defaults{
		SettlementCurrency: a.cfg.SettlementCurrency,
		ClosePositions:     a.cfg.ClosePositions,
	}
	if o.currency != "" {
		d.SettlementCurrency = strings.ToUpper(o.currency)
	}
	if isFlagSet(f, "close") {
		d.ClosePositions = o.close
	}
	return d
}

func isFlagSet(f *flag.FlagSet, name string) bool {
	set := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

func newRunID() string {
	return uuid.NewString()
}
