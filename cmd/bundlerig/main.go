// bundlerig resolves a declarative multi-project build document into
// bundler configurations and drives a worker process over them.
//
// One-shot mode (default) builds every surviving project once, libs
// first, then apps, and exits non-zero on the first failure. Watch mode
// (--watch) keeps the session open: SIGHUP re-resolves the document and
// rebuilds whatever changed, and a status server reports build history
// and metrics while the session lives.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bundlerig/bundlerig"
	"github.com/bundlerig/bundlerig/internal/config"
	"github.com/bundlerig/bundlerig/internal/execdriver"
	"github.com/bundlerig/bundlerig/pkg/rigerr"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if rigerr.IsOption(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		filter     []string
		clean      bool
		verbose    bool
		watch      bool
		progress   bool
	)

	flags := pflag.NewFlagSet("bundlerig", pflag.ContinueOnError)
	flags.StringVarP(&configPath, "config", "c", "bundlerig.yaml", "configuration document (.yaml, .yml, .json or .jsonc)")
	flags.StringSliceVar(&filter, "filter", nil, `build only the named projects ("apps" and "libs" select a whole group)`)
	flags.BoolVar(&clean, "clean", false, "wipe each project's output directory before building")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging and detailed build stats")
	flags.BoolVarP(&watch, "watch", "w", false, "keep the session open and rebuild on SIGHUP")
	flags.BoolVar(&progress, "progress", false, "ask the bundler for progress reporting")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	settings, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(settings, verbose)
	log.Logger = logger

	worker := execdriver.New(execdriver.Config{
		Bin:     settings.WorkerBin,
		Timeout: settings.WorkerTimeout,
	}, logger)

	opts := bundlerig.Options{
		ConfigPath:     configPath,
		CLIDriven:      true,
		Filter:         filter,
		Clean:          clean,
		Verbose:        verbose,
		Progress:       progress,
		Bundler:        worker,
		Logger:         logger,
		HistoryPath:    settings.HistoryPath,
		StatusAddr:     settings.StatusAddr,
		EntryCacheSize: settings.EntryCacheSize,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !watch {
		return bundlerig.Run(ctx, opts)
	}

	logger.Info().
		Str("config", configPath).
		Str("status_addr", settings.StatusAddr).
		Msg("watch session starting, SIGHUP triggers a rebuild")

	triggers := make(chan struct{}, 1)
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for range hup {
			select {
			case triggers <- struct{}{}:
			default:
			}
		}
	}()

	return bundlerig.RunWatch(ctx, opts, triggers)
}

// newLogger builds the process logger from the settings. The "auto"
// format picks console output on a terminal and JSON otherwise, so piped
// and CI output stays machine-parseable.
func newLogger(s *config.Settings, verbose bool) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	format := s.LogFormat
	if format == "auto" {
		format = "json"
		if term.IsTerminal(int(os.Stderr.Fd())) {
			format = "console"
		}
	}
	if format == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if level, err := zerolog.ParseLevel(s.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	if verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}
	return logger
}
