// Package container provides the fixed-capacity building blocks of the engine:
// a bounded vector, a bounded binary min-heap and a generational object pool.
//
// Every container reserves its backing array once, at construction. No
// operation grows it afterwards; a push past capacity returns ErrFull instead.
//
// The containers are not safe for concurrent use. Callers that share one
// across goroutines guard it themselves (the scheduler's pending buffer is a
// Vector behind a mutex).
package container
