package primitives

import "strconv"

// PID identifies a spawned process. It is the packed generational handle of
// the process's pool slot, so a PID outlives neither its process nor a reuse
// of its slot.
type PID uint64

func (p PID) String() string {
	return "pid:" + strconv.FormatUint(uint64(p), 16)
}

// Process is the record stored in a process pool slot.
type Process struct {
	ID        PID    `json:"id" yaml:"id"`
	Coord     Coord  `json:"coord" yaml:"coord"`
	State     int64  `json:"state" yaml:"state"`
	FirstEdge uint64 `json:"-" yaml:"-"` // pool handle of the newest outgoing edge, 0 when none
	OutDegree int    `json:"outDegree" yaml:"outDegree"`
}

// Edge is a directed, delayed link from one coordinate to another.
//
// Delay adapts with use: each traversal pulls it down by the reinforce step
// and idle time between traversals pushes it back up, always within
// [MinDelay, MaxDelay].
type Edge struct {
	Src        Coord  `json:"src" yaml:"src"`
	Dst        Coord  `json:"dst" yaml:"dst"`
	Delay      uint64 `json:"delay" yaml:"delay"`
	MinDelay   uint64 `json:"minDelay" yaml:"minDelay"`
	MaxDelay   uint64 `json:"maxDelay" yaml:"maxDelay"`
	LastUsed   uint64 `json:"lastUsed" yaml:"lastUsed"`
	Traversals uint64 `json:"traversals" yaml:"traversals"`
	Next       uint64 `json:"-" yaml:"-"`
}

// Adapt applies one traversal at logical time now: idle decay first, then
// reinforcement, then clamping.
func (e *Edge) Adapt(now, decayWindow, reinforceStep uint64) {
	if decayWindow > 0 && now > e.LastUsed {
		grow := (now - e.LastUsed) / decayWindow
		if grow > e.MaxDelay-e.Delay {
			e.Delay = e.MaxDelay
		} else {
			e.Delay += grow
		}
	}
	switch {
	case e.Delay < e.MinDelay, e.Delay-e.MinDelay < reinforceStep:
		e.Delay = e.MinDelay
	default:
		e.Delay -= reinforceStep
	}
	if e.Delay > e.MaxDelay {
		e.Delay = e.MaxDelay
	}
	e.LastUsed = now
	e.Traversals++
}
