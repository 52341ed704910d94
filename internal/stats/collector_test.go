package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()
	c.Inc(Dirs)
	c.Inc(Dirs)
	c.Add(BytesCopied, 4096)
	c.AddSrcError(ErrAccess)
	c.AddSrcError(ErrNotFound)
	c.AddDstError(ErrPerm)

	s := c.Snapshot()
	assert.Equal(t, int64(2), s.Count(Dirs))
	assert.Equal(t, int64(4096), s.Count(BytesCopied))
	assert.Equal(t, int64(1), s.SrcErrors.Get(ErrAccess))
	assert.Equal(t, int64(1), s.SrcErrors.Get(ErrNotFound))
	assert.Equal(t, int64(2), s.SrcErrors.Total())
	assert.Equal(t, int64(1), s.DstErrors.Get(ErrPerm))
	assert.Equal(t, int64(3), s.Errors())
}

func TestSnapshotString(t *testing.T) {
	var s Snapshot
	s.Counts[Dirs] = 3
	s.Counts[Symlinks] = 2
	s.Counts[Regular] = 10
	s.Counts[CharDevs] = 1
	s.Counts[BytesCopied] = 4096
	s.Counts[AtCap] = 1
	s.Counts[ClassifyErrors] = 2
	expected := "dirs=3 symlinks=2 regular=10 devices=1 bytes=4096 at_cap=1 errors=2"
	assert.Equal(t, expected, s.String())
}

func TestErrorCountsString(t *testing.T) {
	var e ErrorCounts
	assert.Equal(t, "none", e.String())
	e[ErrIO] = 2
	e[ErrOther] = 1
	assert.Equal(t, "io=2 other=1", e.String())
}

func TestCounterNames(t *testing.T) {
	for _, k := range Counters() {
		assert.NotEqual(t, "unknown", k.String(), "counter %d has no name", int(k))
	}
	assert.Equal(t, "unknown", Counter(999).String())
	assert.Equal(t, "notfound", ErrNotFound.String())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{1073741824, "1.0 GiB"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, FormatBytes(tt.input))
		})
	}
}

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.startTime.IsZero())
	assert.InDelta(t, 0, c.Elapsed().Seconds(), 1)
}

func TestSnapshotIncludesElapsed(t *testing.T) {
	c := NewCollector()
	time.Sleep(10 * time.Millisecond)
	s := c.Snapshot()
	assert.Greater(t, s.Elapsed, time.Duration(0))
}
