package ui

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/bamsammich/psclone/internal/event"
	"github.com/bamsammich/psclone/internal/stats"
)

// plainPresenter turns pass events into log records and, when verbose,
// prints one line per materialized node.
type plainPresenter struct {
	w       io.Writer
	logger  *slog.Logger
	styled  bool
	verbose bool
}

func (p *plainPresenter) Run(events <-chan event.Event) error {
	for ev := range events {
		p.handleEvent(ev)
	}
	return nil
}

func (p *plainPresenter) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.WalkStarted:
		p.logger.Info("walk started", "src", ev.Path, "mode", ev.Detail)
	case event.WalkComplete:
		p.passDone("walk complete", ev)
	case event.PruneComplete:
		p.passDone("prune complete", ev)
	case event.UnrollComplete:
		p.passDone("unroll complete", ev)
	case event.Dereferenced:
		p.logger.Info("dereferenced", "path", ev.Path, "target", ev.Detail)
	case event.FileCopied:
		p.line("%s  %s\n", ev.Path, FormatBytes(ev.Size))
	case event.SymlinkCreated:
		p.line("%s -> %s\n", ev.Path, ev.Detail)
	case event.DirCreated:
		p.line("%s/\n", ev.Path)
	case event.DeviceCreated:
		p.line("%s  device\n", ev.Path)
	case event.NodeSkipped:
		p.line("%s  skipped: %s\n", ev.Path, ev.Detail)
	case event.NodeFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		p.line("%s  %s\n", ev.Path, errMsg)
	}
}

func (p *plainPresenter) passDone(msg string, ev event.Event) {
	if ev.Error != nil {
		p.logger.Warn(msg, "nodes", ev.Size, "error", ev.Error)
		return
	}
	p.logger.Info(msg, "nodes", ev.Size)
}

func (p *plainPresenter) line(format string, args ...any) {
	if !p.verbose || p.w == nil {
		return
	}
	fmt.Fprintf(p.w, format, args...)
}

func (p *plainPresenter) Summary(snap stats.Snapshot, degraded bool) string {
	if p.styled {
		return Report(snap, degraded)
	}
	return CompletionSummary(snap, degraded) + "\n" + snap.String()
}
