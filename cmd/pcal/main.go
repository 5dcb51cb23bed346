package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pcal/internal/cli"
	"pcal/internal/config"
	appLog "pcal/internal/log"
	"pcal/internal/storage"
)

type flagConfig struct {
	configPath string
	envFile    string
	file       string
	debug      bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if err := conf.ApplyEnv(flags.envFile); err != nil {
		appLog.Error("failed to apply environment", err, "env_file", flags.envFile)
		os.Exit(1)
	}
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid configuration", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	defer appLog.Sync()

	appLog.Info("effective config",
		"data_dir", conf.DataDir,
		"default_format", conf.DefaultFormat,
		"work_start", conf.WorkStart,
		"work_end", conf.WorkEnd,
		"horizon_days", conf.RecurrenceHorizonDays,
		"source_count", len(conf.Sources),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	store := storage.New(conf)
	session, err := cli.NewSession(conf, store, cli.NewLineReader(os.Stdin), os.Stdout)
	if err != nil {
		appLog.Error("failed to start shell", err)
		os.Exit(1)
	}
	if flags.file != "" {
		session.OpenFile(ctx, flags.file)
	}

	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	// The shell blocks on stdin, so a signal ends the process without
	// waiting for the next line.
	select {
	case err := <-done:
		if err != nil {
			appLog.Error("shell stopped", err)
		}
	case sig := <-sigCh:
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
		if store.Dirty() {
			fmt.Fprintf(os.Stderr, "\nUnsaved changes in %s were discarded.\n", store.Path())
		}
	}
	appLog.Info("pcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./pcal.yaml", "Path to config file (created with defaults if missing)")
	flag.StringVar(&cfg.envFile, "env", ".env", "Optional .env file with PCAL_* overrides")
	flag.StringVar(&cfg.file, "file", "", "Calendar file to open on start")
	flag.BoolVar(&cfg.debug, "debug", false, "Log debug messages to stderr")

	flag.Parse()

	return cfg
}
