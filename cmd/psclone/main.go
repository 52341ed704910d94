package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/psclone/internal/config"
	"github.com/bamsammich/psclone/internal/engine"
	"github.com/bamsammich/psclone/internal/event"
	"github.com/bamsammich/psclone/internal/manifest"
	"github.com/bamsammich/psclone/internal/stats"
	"github.com/bamsammich/psclone/internal/transport"
	"github.com/bamsammich/psclone/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "psclone [flags] <source> [<destination>]",
		Short: "Snapshot a sysfs or procfs subtree onto an ordinary filesystem",
		Long: `psclone copies a pseudo-filesystem subtree such as /sys or /proc into a
regular directory so it can be archived, inspected or replayed elsewhere.
Attribute files are read up to a size cap regardless of their reported size,
symlinks are recreated verbatim unless named with --deref, and --prune keeps
only the named paths together with everything they reference.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				return nil
			}
			return cobra.RangeArgs(1, 2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "psclone %s\n", version)
				return nil
			}
			return runClone(cmd, &opts, args)
		},
	}
	opts.register(rootCmd)
	rootCmd.AddCommand(newDocsCmd(), newVerifyCmd())
	return rootCmd
}

//nolint:revive // cognitive-complexity: CLI entry point wires every concern
func runClone(cmd *cobra.Command, opts *options, args []string) error {
	// Load optional config file.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := opts.applyConfigDefaults(cmd, cfg.Defaults); err != nil {
		return err
	}
	ui.ApplyTheme(cfg.Theme)

	logger, closeLog, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	engineCfg, err := opts.engineConfig(cfg, args)
	if err != nil {
		return err
	}

	// Set up context with signal handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer transport.CleanupTmpFiles()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)

	var mf *manifest.Manifest
	if opts.manifest != "" {
		mf = manifest.New()
	}

	engineCfg.Stats = collector
	engineCfg.Events = events
	engineCfg.Manifest = mf
	engineCfg.Logger = logger

	// With --log, every event also lands in the JSON log file.
	presenterEvents := (<-chan event.Event)(events)
	if opts.logFile != "" {
		presenterEvents = ui.TeeEvents(events, logger)
	}

	presenter := ui.NewPresenter(ui.Config{
		Writer:  cmd.OutOrStdout(),
		Logger:  logger,
		IsTTY:   ui.IsTTY(os.Stderr.Fd()),
		Quiet:   opts.quiet,
		Verbose: opts.verbose,
	})

	logger.Debug("starting clone",
		"src", engineCfg.Src,
		"dst", engineCfg.Dst,
		"mode", engineCfg.Mode,
		"max_depth", engineCfg.MaxDepth,
		"max_bytes", engineCfg.MaxBytes,
	)

	// Run presenter in background, engine in foreground.
	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterEvents)
	}()

	result := engine.Run(ctx, engineCfg)
	stop()
	close(events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
	}

	if mf != nil {
		if err := mf.WriteFile(opts.manifest); err != nil {
			logger.Error("write manifest", "error", err)
		} else {
			files, size := mf.Totals()
			logger.Info("manifest written", "path", opts.manifest, "files", files, "size", ui.FormatBytes(size))
		}
	}

	if !opts.quiet {
		if summary := presenter.Summary(result.Stats, result.Degraded()); summary != "" {
			fmt.Fprintln(os.Stderr, summary)
		}
	}

	return exitFor(result, logger)
}

// exitFor maps a run result to the process exit status: 0 clean, 1 when a
// fatal error left a partial destination, 2 when nothing was produced.
func exitFor(result engine.Result, logger *slog.Logger) error {
	if result.Err == nil {
		return nil
	}
	logger.Error("clone failed", "error", result.Err)
	if errors.Is(result.Err, engine.ErrInvalidConfig) {
		return &exitError{code: 2}
	}
	if produced(result.Stats) {
		return &exitError{code: 1} // partial failure
	}
	return &exitError{code: 2} // total failure
}

func produced(snap stats.Snapshot) bool {
	for _, k := range []stats.Counter{
		stats.Dirs, stats.Symlinks, stats.Regular, stats.BlockDevs, stats.CharDevs,
		stats.Fifos, stats.Sockets, stats.Others,
	} {
		if snap.Count(k) > 0 {
			return true
		}
	}
	return false
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
