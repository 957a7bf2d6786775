package container

// MinHeap is an array-backed binary min-heap with a fixed maximum length.
//
// Ordering comes from the less function supplied at construction. The heap is
// hand-rolled rather than built on container/heap so pushes and pops stay
// free of interface boxing.
type MinHeap[T any] struct {
	items []T
	less  func(a, b T) bool
}

// NewMinHeap reserves a heap holding at most capacity elements.
func NewMinHeap[T any](capacity int, less func(a, b T) bool) *MinHeap[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &MinHeap[T]{
		items: make([]T, 0, capacity),
		less:  less,
	}
}

// Push inserts item in O(log n), or returns ErrFull.
func (h *MinHeap[T]) Push(item T) error {
	if len(h.items) == cap(h.items) {
		return ErrFull
	}
	h.items = append(h.items, item)
	h.up(len(h.items) - 1)
	return nil
}

// Pop removes and returns the minimum element in O(log n).
func (h *MinHeap[T]) Pop() (T, bool) {
	var zero T
	n := len(h.items)
	if n == 0 {
		return zero, false
	}
	top := h.items[0]
	last := n - 1
	h.items[0] = h.items[last]
	h.items[last] = zero
	h.items = h.items[:last]
	if last > 0 {
		h.down(0)
	}
	return top, true
}

// Peek returns the minimum element without removing it.
func (h *MinHeap[T]) Peek() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[0], true
}

func (h *MinHeap[T]) Len() int { return len(h.items) }
func (h *MinHeap[T]) Cap() int { return cap(h.items) }

// Drain pops every element in heap order, calling fn for each.
func (h *MinHeap[T]) Drain(fn func(T)) {
	for {
		item, ok := h.Pop()
		if !ok {
			return
		}
		fn(item)
	}
}

func (h *MinHeap[T]) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(h.items[i], h.items[parent]) {
			return
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *MinHeap[T]) down(i int) {
	n := len(h.items)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		smallest := left
		if right := left + 1; right < n && h.less(h.items[right], h.items[left]) {
			smallest = right
		}
		if !h.less(h.items[smallest], h.items[i]) {
			return
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}
