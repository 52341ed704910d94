package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/psclone/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  dirs 1,204  files 9,880  size 3.1 MB  time 2s  errors 0
func CompletionSummary(snap stats.Snapshot, degraded bool) string {
	icon := "✓"
	if degraded {
		icon = "✗"
	}
	return fmt.Sprintf("done %s  dirs %s  files %s  links %s  size %s  time %s  errors %s",
		icon,
		FormatCount(snap.Count(stats.Dirs)),
		FormatCount(snap.Count(stats.Regular)),
		FormatCount(snap.Count(stats.Symlinks)),
		FormatBytes(snap.Count(stats.BytesCopied)),
		FormatDuration(snap.Elapsed),
		FormatCount(snap.Errors()),
	)
}

type reportGroup struct {
	title    string
	counters []stats.Counter
}

var reportGroups = []reportGroup{
	{"entries", []stats.Counter{
		stats.Dirs, stats.Symlinks, stats.Regular, stats.BlockDevs, stats.CharDevs,
		stats.Fifos, stats.Sockets, stats.Others, stats.Dangling,
	}},
	{"skipped", []stats.Counter{
		stats.Hidden, stats.Excluded, stats.ExcludedNames, stats.OtherFS,
		stats.DepthLimited, stats.UnreadableDirs, stats.Pruned,
	}},
	{"transfer", []stats.Counter{
		stats.Exists, stats.FollowOutside, stats.Dereferenced, stats.Markers,
		stats.BytesCopied, stats.AtCap, stats.EmptyReads, stats.PollTimeouts,
	}},
	{"errors", []stats.Counter{
		stats.ClassifyErrors, stats.StructuralErrors, stats.PruneErrors, stats.DerefErrors,
	}},
}

// Report renders every non-zero counter as a styled table, grouped by
// concern, followed by the source and destination error breakdown.
func Report(snap stats.Snapshot, degraded bool) string {
	var sections []string
	for _, g := range reportGroups {
		var rows []string
		for _, k := range g.counters {
			v := snap.Count(k)
			if v == 0 {
				continue
			}
			rows = append(rows, reportRow(k, v))
		}
		if len(rows) == 0 {
			continue
		}
		sections = append(sections, lipgloss.JoinVertical(lipgloss.Left,
			append([]string{styleHeader.Render(g.title)}, rows...)...))
	}

	if snap.SrcErrors.Total() > 0 || snap.DstErrors.Total() > 0 {
		sections = append(sections, lipgloss.JoinVertical(lipgloss.Left,
			styleHeader.Render("io errors"),
			styleLabel.Render("source")+" "+styleError.Render(snap.SrcErrors.String()),
			styleLabel.Render("destination")+" "+styleError.Render(snap.DstErrors.String()),
		))
	}

	status := styleOK.Render(CompletionSummary(snap, degraded))
	if degraded {
		status = styleError.Render(CompletionSummary(snap, degraded))
	} else if snap.Errors() > 0 {
		status = styleWarn.Render(CompletionSummary(snap, degraded))
	}
	sections = append(sections, status)
	return strings.Join(sections, "\n\n")
}

func reportRow(k stats.Counter, v int64) string {
	label := strings.ReplaceAll(k.String(), "_", " ")
	value := FormatCount(v)
	if k == stats.BytesCopied {
		label = "bytes"
		value = FormatBytes(v)
	}
	row := styleLabel.Render(label) + styleValue.Render(value)
	switch k {
	case stats.ClassifyErrors, stats.StructuralErrors, stats.PruneErrors, stats.DerefErrors:
		return styleError.Render(row)
	}
	return row
}
