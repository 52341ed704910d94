package ui

import (
	"github.com/bamsammich/psclone/internal/event"
	"github.com/bamsammich/psclone/internal/stats"
)

// quietPresenter consumes events but produces no output.
type quietPresenter struct{}

func (p *quietPresenter) Run(events <-chan event.Event) error {
	for range events { //nolint:revive // drain
	}
	return nil
}

func (p *quietPresenter) Summary(stats.Snapshot, bool) string {
	return ""
}
