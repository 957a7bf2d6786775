package arena

import (
	"github.com/comalice/eventgrid/internal/container"
)

// ByteSlab is one contiguous byte region cut into equal slots.
// Free slots are tracked by a LIFO list and a liveness bitmap; the bitmap
// catches double frees without scanning the list.
type ByteSlab struct {
	region   []byte
	slotSize int
	bitmap   []uint64 // set bit = slot in use
	gens     []uint32
	free     *container.Vector[uint32]
}

// NewByteSlab reserves slots*slotSize bytes.
func NewByteSlab(slots, slotSize int) *ByteSlab {
	if slots < 0 {
		slots = 0
	}
	if slotSize < 0 {
		slotSize = 0
	}
	s := &ByteSlab{
		region:   make([]byte, slots*slotSize),
		slotSize: slotSize,
		bitmap:   make([]uint64, (slots+63)/64),
		gens:     make([]uint32, slots),
		free:     container.NewVector[uint32](slots),
	}
	for i := slots - 1; i >= 0; i-- {
		s.gens[i] = 1
		_ = s.free.Push(uint32(i))
	}
	return s
}

// Acquire takes a free slot and zeroes it.
func (s *ByteSlab) Acquire() (container.Handle, error) {
	idx, ok := s.free.Pop()
	if !ok {
		return container.NilHandle, container.ErrFull
	}
	s.bitmap[idx/64] |= 1 << (idx % 64)
	clear(s.slot(idx))
	return makeSlabHandle(idx, s.gens[idx]), nil
}

// Release frees the slot named by h.
func (s *ByteSlab) Release(h container.Handle) error {
	if !s.valid(h) {
		return container.ErrInvalidHandle
	}
	idx := h.Index()
	s.bitmap[idx/64] &^= 1 << (idx % 64)
	s.gens[idx]++
	if s.gens[idx] == 0 {
		s.gens[idx] = 1
	}
	_ = s.free.Push(idx)
	return nil
}

// Bytes returns the slot's byte range. It aliases the region.
func (s *ByteSlab) Bytes(h container.Handle) ([]byte, bool) {
	if !s.valid(h) {
		return nil, false
	}
	return s.slot(h.Index()), true
}

func (s *ByteSlab) SlotSize() int { return s.slotSize }
func (s *ByteSlab) Len() int      { return len(s.gens) - s.free.Len() }
func (s *ByteSlab) Cap() int      { return len(s.gens) }

func (s *ByteSlab) slot(idx uint32) []byte {
	start := int(idx) * s.slotSize
	return s.region[start : start+s.slotSize : start+s.slotSize]
}

func (s *ByteSlab) valid(h container.Handle) bool {
	idx := h.Index()
	if h.IsNil() || int(idx) >= len(s.gens) {
		return false
	}
	if s.bitmap[idx/64]&(1<<(idx%64)) == 0 {
		return false
	}
	return s.gens[idx] == h.Generation()
}

func makeSlabHandle(idx, gen uint32) container.Handle {
	return container.Handle(uint64(gen)<<32 | uint64(idx))
}
