package stats

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Counter identifies one statistics counter.
type Counter int

const (
	Dirs Counter = iota
	Symlinks
	Regular
	BlockDevs
	CharDevs
	Fifos
	Sockets
	Others
	Dangling

	Hidden
	Excluded
	ExcludedNames
	OtherFS
	DepthLimited

	Exists
	FollowOutside
	Dereferenced
	Markers
	BytesCopied
	AtCap
	EmptyReads
	PollTimeouts
	UnreadableDirs
	Pruned

	ClassifyErrors
	StructuralErrors
	PruneErrors
	DerefErrors

	numCounters
)

var counterNames = [...]string{
	Dirs:             "dirs",
	Symlinks:         "symlinks",
	Regular:          "regular",
	BlockDevs:        "block_devs",
	CharDevs:         "char_devs",
	Fifos:            "fifos",
	Sockets:          "sockets",
	Others:           "others",
	Dangling:         "dangling",
	Hidden:           "hidden",
	Excluded:         "excluded",
	ExcludedNames:    "excluded_names",
	OtherFS:          "other_fs",
	DepthLimited:     "depth_limited",
	Exists:           "exists",
	FollowOutside:    "follow_outside",
	Dereferenced:     "dereferenced",
	Markers:          "markers",
	BytesCopied:      "bytes",
	AtCap:            "at_cap",
	EmptyReads:       "empty_reads",
	PollTimeouts:     "poll_timeouts",
	UnreadableDirs:   "unreadable_dirs",
	Pruned:           "pruned",
	ClassifyErrors:   "classify_errors",
	StructuralErrors: "structural_errors",
	PruneErrors:      "prune_errors",
	DerefErrors:      "deref_errors",
}

func (k Counter) String() string {
	if k >= 0 && int(k) < len(counterNames) {
		return counterNames[k]
	}
	return "unknown"
}

// Counters lists every counter in display order.
func Counters() []Counter {
	out := make([]Counter, numCounters)
	for i := range out {
		out[i] = Counter(i)
	}
	return out
}

// ErrClass is the errno taxonomy applied to source reads and destination writes.
type ErrClass int

const (
	ErrAccess   ErrClass = iota // EACCES
	ErrPerm                     // EPERM
	ErrIO                       // EIO
	ErrNoData                   // ENODATA
	ErrNotFound                 // ENOENT, ENXIO, ENODEV
	ErrOther

	numErrClasses
)

var errClassNames = [...]string{
	ErrAccess:   "access",
	ErrPerm:     "perm",
	ErrIO:       "io",
	ErrNoData:   "nodata",
	ErrNotFound: "notfound",
	ErrOther:    "other",
}

func (c ErrClass) String() string {
	if c >= 0 && int(c) < len(errClassNames) {
		return errClassNames[c]
	}
	return "unknown"
}

// ErrorCounts holds one count per ErrClass.
type ErrorCounts [numErrClasses]int64

// Get returns the count for cls.
func (e ErrorCounts) Get(cls ErrClass) int64 {
	if cls < 0 || cls >= numErrClasses {
		return 0
	}
	return e[cls]
}

// Total sums every class.
func (e ErrorCounts) Total() int64 {
	var n int64
	for _, v := range e {
		n += v
	}
	return n
}

func (e ErrorCounts) String() string {
	parts := make([]string, 0, numErrClasses)
	for i, v := range e {
		if v > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", ErrClass(i), v))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// Collector is the statistics block of one run. It is passed explicitly to
// every pass; nothing in the engine keeps it in package state.
type Collector struct {
	counters  [numCounters]atomic.Int64
	srcErrs   [numErrClasses]atomic.Int64
	dstErrs   [numErrClasses]atomic.Int64
	startTime time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) Add(k Counter, n int64) { c.counters[k].Add(n) }
func (c *Collector) Inc(k Counter)          { c.counters[k].Add(1) }
func (c *Collector) Get(k Counter) int64    { return c.counters[k].Load() }

// AddSrcError counts a failed source read.
func (c *Collector) AddSrcError(cls ErrClass) { c.srcErrs[cls].Add(1) }

// AddDstError counts a failed destination write.
func (c *Collector) AddDstError(cls ErrClass) { c.dstErrs[cls].Add(1) }

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	Counts    [numCounters]int64
	SrcErrors ErrorCounts
	DstErrors ErrorCounts
	Elapsed   time.Duration
}

// Count returns the value of k in the snapshot.
func (s Snapshot) Count(k Counter) int64 {
	if k < 0 || k >= numCounters {
		return 0
	}
	return s.Counts[k]
}

// Errors is the total of every error counter, source and destination included.
func (s Snapshot) Errors() int64 {
	return s.Counts[ClassifyErrors] + s.Counts[StructuralErrors] +
		s.Counts[PruneErrors] + s.Counts[DerefErrors] +
		s.SrcErrors.Total() + s.DstErrors.Total()
}

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	var s Snapshot
	for i := range c.counters {
		s.Counts[i] = c.counters[i].Load()
	}
	for i := range c.srcErrs {
		s.SrcErrors[i] = c.srcErrs[i].Load()
		s.DstErrors[i] = c.dstErrs[i].Load()
	}
	s.Elapsed = c.Elapsed()
	return s
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	if c.startTime.IsZero() {
		return 0
	}
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"dirs=%d symlinks=%d regular=%d devices=%d bytes=%d at_cap=%d errors=%d",
		s.Counts[Dirs], s.Counts[Symlinks], s.Counts[Regular],
		s.Counts[BlockDevs]+s.Counts[CharDevs], s.Counts[BytesCopied],
		s.Counts[AtCap], s.Errors(),
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
