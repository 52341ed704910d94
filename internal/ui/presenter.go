package ui

import (
	"io"
	"log/slog"

	"github.com/bamsammich/psclone/internal/event"
	"github.com/bamsammich/psclone/internal/stats"
)

// Presenter consumes events and renders the final summary.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan event.Event) error
	// Summary returns the final summary for snap.
	Summary(snap stats.Snapshot, degraded bool) string
}

// Config configures a Presenter.
type Config struct {
	Writer  io.Writer // per-node lines in verbose mode
	Logger  *slog.Logger
	IsTTY   bool
	Quiet   bool
	Verbose bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &plainPresenter{
		w:       cfg.Writer,
		logger:  logger,
		styled:  cfg.IsTTY,
		verbose: cfg.Verbose,
	}
}
