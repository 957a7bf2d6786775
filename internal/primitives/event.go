// Event is the only channel through which process state changes.
//
// Events are value types. The scheduler copies them into event pool slots on
// flush and copies them out again on delivery; nothing holds a pointer to an
// event across a Run call.
//
// # Canonical ordering
//
// Less is a total order over events, compared field by field:
//
//	(Timestamp, Dst.X, Dst.Y, Dst.Z, HasSrc, Src.X, Src.Y, Src.Z, Payload)
//
// The tie-break after the destination is the source coordinate; events with
// no source sort before events with one. Payload is the final tie-break. Two
// events equal under Less are indistinguishable, so delivery order never
// depends on injection order or on which goroutine injected first.
package primitives

// Event carries a payload to a destination coordinate at a logical time.
type Event struct {
	Timestamp uint64 `json:"timestamp" yaml:"timestamp"`
	Dst       Coord  `json:"dst" yaml:"dst"`
	Src       Coord  `json:"src,omitempty" yaml:"src,omitempty"`
	HasSrc    bool   `json:"hasSrc,omitempty" yaml:"hasSrc,omitempty"`
	Payload   int64  `json:"payload" yaml:"payload"`
}

// NewEvent returns an event with no source coordinate.
func NewEvent(dst Coord, timestamp uint64, payload int64) Event {
	return Event{Timestamp: timestamp, Dst: dst, Payload: payload}
}

// NewEventFrom returns an event that records where it came from.
func NewEventFrom(src, dst Coord, timestamp uint64, payload int64) Event {
	return Event{Timestamp: timestamp, Dst: dst, Src: src, HasSrc: true, Payload: payload}
}

// Wrap folds both coordinates into the grid.
func (e Event) Wrap(n int32) Event {
	e.Dst = e.Dst.Wrap(n)
	if e.HasSrc {
		e.Src = e.Src.Wrap(n)
	} else {
		e.Src = Coord{}
	}
	return e
}

// Compare returns -1, 0 or +1 under the canonical ordering.
// Both events must already be wrapped.
func Compare(a, b *Event) int {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	if c := compareCoord(a.Dst, b.Dst); c != 0 {
		return c
	}
	if a.HasSrc != b.HasSrc {
		if !a.HasSrc {
			return -1
		}
		return 1
	}
	if c := compareCoord(a.Src, b.Src); c != 0 {
		return c
	}
	switch {
	case a.Payload < b.Payload:
		return -1
	case a.Payload > b.Payload:
		return 1
	}
	return 0
}

// Less reports whether a is delivered before b.
func Less(a, b *Event) bool {
	return Compare(a, b) < 0
}
