package container

// Handle names a pool slot: the slot index in the low 32 bits and the slot's
// generation in the high 32. Generations start at 1, so the zero Handle never
// refers to a live slot and doubles as "none".
type Handle uint64

// NilHandle is the zero Handle.
const NilHandle Handle = 0

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index))
}

// Index returns the slot index encoded in h.
func (h Handle) Index() uint32 { return uint32(h) }

// Generation returns the generation encoded in h.
func (h Handle) Generation() uint32 { return uint32(h >> 32) }

// IsNil reports whether h is the zero Handle.
func (h Handle) IsNil() bool { return h == NilHandle }

// Pool is a fixed set of T slots with a LIFO free list.
//
// Releasing a slot bumps its generation, so handles to the old occupant go
// stale: Get and Release reject them with ErrInvalidHandle rather than
// touching the new occupant.
type Pool[T any] struct {
	slots []T
	gens  []uint32
	live  []bool
	free  *Vector[uint32]
}

// NewPool reserves capacity slots. Slot 0 is handed out first.
func NewPool[T any](capacity int) *Pool[T] {
	if capacity < 0 {
		capacity = 0
	}
	p := &Pool[T]{
		slots: make([]T, capacity),
		gens:  make([]uint32, capacity),
		live:  make([]bool, capacity),
		free:  NewVector[uint32](capacity),
	}
	for i := capacity - 1; i >= 0; i-- {
		p.gens[i] = 1
		_ = p.free.Push(uint32(i))
	}
	return p
}

// Acquire takes a free slot, zeroes it, and returns its handle and address.
func (p *Pool[T]) Acquire() (Handle, *T, error) {
	idx, ok := p.free.Pop()
	if !ok {
		return NilHandle, nil, ErrFull
	}
	var zero T
	p.slots[idx] = zero
	p.live[idx] = true
	return makeHandle(idx, p.gens[idx]), &p.slots[idx], nil
}

// Release returns the slot named by h to the free list.
func (p *Pool[T]) Release(h Handle) error {
	if !p.Valid(h) {
		return ErrInvalidHandle
	}
	idx := h.Index()
	p.live[idx] = false
	p.gens[idx]++
	if p.gens[idx] == 0 {
		p.gens[idx] = 1
	}
	// Cannot fail: every released slot was popped from this free list.
	_ = p.free.Push(idx)
	return nil
}

// Get returns the live slot named by h.
func (p *Pool[T]) Get(h Handle) (*T, bool) {
	if !p.Valid(h) {
		return nil, false
	}
	return &p.slots[h.Index()], true
}

// Valid reports whether h names a currently live slot of this pool.
func (p *Pool[T]) Valid(h Handle) bool {
	idx := h.Index()
	if h.IsNil() || int(idx) >= len(p.slots) {
		return false
	}
	return p.live[idx] && p.gens[idx] == h.Generation()
}

// Len returns the number of live slots.
func (p *Pool[T]) Len() int { return len(p.slots) - p.free.Len() }

// Cap returns the fixed number of slots.
func (p *Pool[T]) Cap() int { return len(p.slots) }

// Each visits live slots in index order until fn returns false.
func (p *Pool[T]) Each(fn func(h Handle, item *T) bool) {
	for i := range p.slots {
		if !p.live[i] {
			continue
		}
		if !fn(makeHandle(uint32(i), p.gens[i]), &p.slots[i]) {
			return
		}
	}
}
