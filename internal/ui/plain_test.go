package ui

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/psclone/internal/event"
	"github.com/bamsammich/psclone/internal/stats"
)

func runPresenter(t *testing.T, p Presenter, evs ...event.Event) {
	t.Helper()
	events := make(chan event.Event, len(evs))
	for _, ev := range evs {
		events <- ev
	}
	close(events)
	require.NoError(t, p.Run(events))
}

func TestPlainPresenter_VerboseLines(t *testing.T) {
	var out bytes.Buffer
	p := &plainPresenter{w: &out, logger: slog.New(slog.DiscardHandler), verbose: true}

	runPresenter(t, p,
		event.Event{Type: event.DirCreated, Path: "class"},
		event.Event{Type: event.FileCopied, Path: "class/attr", Size: 1024},
		event.Event{Type: event.SymlinkCreated, Path: "class/link", Detail: "../devices/x"},
		event.Event{Type: event.NodeFailed, Path: "class/bad", Error: assert.AnError},
	)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "class/", lines[0])
	assert.Contains(t, lines[1], "class/attr")
	assert.Contains(t, lines[1], "1.0 KiB")
	assert.Equal(t, "class/link -> ../devices/x", lines[2])
	assert.Contains(t, lines[3], assert.AnError.Error())
}

func TestPlainPresenter_NotVerbose(t *testing.T) {
	var out bytes.Buffer
	p := &plainPresenter{w: &out, logger: slog.New(slog.DiscardHandler)}

	runPresenter(t, p, event.Event{Type: event.FileCopied, Path: "attr", Size: 3})
	assert.Empty(t, out.String())
}

func TestPlainPresenter_PassEventsAreLogged(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	p := &plainPresenter{logger: logger}

	runPresenter(t, p,
		event.Event{Type: event.WalkStarted, Path: "/sys", Detail: "cached"},
		event.Event{Type: event.WalkComplete, Size: 42},
		event.Event{Type: event.UnrollComplete, Size: 42, Error: assert.AnError},
	)

	logs := logBuf.String()
	assert.Contains(t, logs, "walk started")
	assert.Contains(t, logs, "mode=cached")
	assert.Contains(t, logs, "nodes=42")
	assert.Contains(t, logs, "level=WARN msg=\"unroll complete\"")
}

func TestPlainPresenter_Summary(t *testing.T) {
	c := stats.NewCollector()
	c.Add(stats.Dirs, 3)
	c.Add(stats.Regular, 1200)
	c.Add(stats.BytesCopied, 2048)
	snap := c.Snapshot()
	snap.Elapsed = 2 * time.Second

	p := &plainPresenter{logger: slog.New(slog.DiscardHandler)}
	s := p.Summary(snap, false)
	assert.Contains(t, s, "done ✓")
	assert.Contains(t, s, "files 1,200")
	assert.Contains(t, s, "size 2.0 KiB")
	assert.Contains(t, s, "time 2s")

	assert.Contains(t, p.Summary(snap, true), "done ✗")
}

func TestQuietPresenter(t *testing.T) {
	p := NewPresenter(Config{Quiet: true})
	runPresenter(t, p, event.Event{Type: event.FileCopied, Path: "x"})
	assert.Empty(t, p.Summary(stats.Snapshot{}, false))
}

func TestReport_ShowsNonZeroCounters(t *testing.T) {
	c := stats.NewCollector()
	c.Add(stats.Regular, 5)
	c.Inc(stats.AtCap)
	c.AddSrcError(stats.ErrIO)
	out := Report(c.Snapshot(), false)

	assert.Contains(t, out, "entries")
	assert.Contains(t, out, "regular")
	assert.Contains(t, out, "at cap")
	assert.Contains(t, out, "io errors")
	assert.Contains(t, out, "io=1")
	assert.NotContains(t, out, "sockets")
	assert.NotContains(t, out, "skipped")
}
