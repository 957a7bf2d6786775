package container

import "errors"

var (
	ErrFull          = errors.New("container full")
	ErrInvalidHandle = errors.New("invalid handle")
)

// Vector is an array-backed list with a hard maximum length.
type Vector[T any] struct {
	items []T
}

// NewVector reserves a vector holding at most capacity elements.
// A non-positive capacity yields a vector that rejects every push.
func NewVector[T any](capacity int) *Vector[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Vector[T]{items: make([]T, 0, capacity)}
}

// Push appends v, or returns ErrFull when the vector is at capacity.
func (v *Vector[T]) Push(item T) error {
	if len(v.items) == cap(v.items) {
		return ErrFull
	}
	v.items = append(v.items, item)
	return nil
}

// Pop removes and returns the last element.
func (v *Vector[T]) Pop() (T, bool) {
	var zero T
	n := len(v.items)
	if n == 0 {
		return zero, false
	}
	item := v.items[n-1]
	v.items[n-1] = zero
	v.items = v.items[:n-1]
	return item, true
}

// At returns the element at index i. It panics on an out-of-range index, like a slice.
func (v *Vector[T]) At(i int) T {
	return v.items[i]
}

// Set overwrites the element at index i.
func (v *Vector[T]) Set(i int, item T) {
	v.items[i] = item
}

func (v *Vector[T]) Len() int   { return len(v.items) }
func (v *Vector[T]) Cap() int   { return cap(v.items) }
func (v *Vector[T]) Full() bool { return len(v.items) == cap(v.items) }

// Items exposes the live elements. The slice aliases the backing array and is
// only valid until the next mutating call.
func (v *Vector[T]) Items() []T {
	return v.items
}

// Reset empties the vector, keeping its backing array.
func (v *Vector[T]) Reset() {
	clear(v.items)
	v.items = v.items[:0]
}
