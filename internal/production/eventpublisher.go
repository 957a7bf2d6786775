package production

import (
	"sync"
	"sync/atomic"

	"github.com/comalice/eventgrid/internal/core"
)

// ChannelPublisher is a core.Observer that forwards deliveries to a Go channel.
// Non-blocking publish with drop on backpressure: a slow reader never stalls Run.
type ChannelPublisher struct {
	mu      sync.RWMutex
	ch      chan<- core.Delivery
	closed  bool
	dropped atomic.Uint64
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- core.Delivery) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

// Delivered implements core.Observer.
func (p *ChannelPublisher) Delivered(d core.Delivery) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return
	}
	select {
	case p.ch <- d:
	default:
		p.dropped.Add(1) // Non-blocking drop
	}
}

// Dropped returns how many deliveries could not be forwarded.
func (p *ChannelPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Close closes the output channel. Later deliveries are counted as dropped.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}
