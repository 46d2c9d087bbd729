package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"perfledger/internal/config"
	"perfledger/internal/logger"

	"github.com/google/subcommands"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file.")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&analyzeCmd{}, "analysis")
	commander.Register(&batchCmd{}, "analysis")
	commander.Register(&dbCmd{}, "analysis")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitFailure))
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitFailure))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := commander.Execute(ctx, &app{cfg: cfg, log: log})
	stop()
	_ = log.Sync()
	os.Exit(int(status))
}
