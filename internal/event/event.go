package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	WalkStarted Type = iota + 1
	WalkComplete
	DirCreated
	SymlinkCreated
	FileCopied
	DeviceCreated
	NodeSkipped
	NodeFailed
	Dereferenced
	PruneComplete
	UnrollComplete
)

var typeNames = [...]string{
	WalkStarted:    "WalkStarted",
	WalkComplete:   "WalkComplete",
	DirCreated:     "DirCreated",
	SymlinkCreated: "SymlinkCreated",
	FileCopied:     "FileCopied",
	DeviceCreated:  "DeviceCreated",
	NodeSkipped:    "NodeSkipped",
	NodeFailed:     "NodeFailed",
	Dereferenced:   "Dereferenced",
	PruneComplete:  "PruneComplete",
	UnrollComplete: "UnrollComplete",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // relative to the destination root
	Detail    string // skip reason, symlink target, dereferenced target
	Size      int64  // bytes written, or node count for pass events
	Error     error
}

// Emit sends e on ch without blocking. A nil channel drops the event.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}
