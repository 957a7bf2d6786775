package primitives

import "errors"

var (
	// ErrCapacityExceeded matches every *CapacityError.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrOccupied         = errors.New("coordinate already occupied")
	ErrNoProcess        = errors.New("no process at coordinate")
	ErrInvalidHandle    = errors.New("invalid handle")
	ErrSizeTooLarge     = errors.New("allocation larger than slot size")
	ErrClosed           = errors.New("engine closed")
	ErrInvalidConfig    = errors.New("invalid config")
)

// Resource names a bounded structure that can run out of room.
type Resource int

const (
	ResourceProcessPool Resource = iota
	ResourceEventPool
	ResourceEdgePool
	ResourceGenericPool
	ResourcePendingBuffer
	ResourceHeap
	resourceCount
)

var resourceNames = [resourceCount]string{
	ResourceProcessPool:   "process pool",
	ResourceEventPool:     "event pool",
	ResourceEdgePool:      "edge pool",
	ResourceGenericPool:   "generic pool",
	ResourcePendingBuffer: "pending buffer",
	ResourceHeap:          "heap",
}

func (r Resource) String() string {
	if r < 0 || r >= resourceCount {
		return "unknown resource"
	}
	return resourceNames[r]
}

// CapacityError reports which bounded structure rejected a request.
type CapacityError struct {
	Resource Resource
}

func (e *CapacityError) Error() string {
	return e.Resource.String() + ": " + ErrCapacityExceeded.Error()
}

// Is makes errors.Is(err, ErrCapacityExceeded) hold for every CapacityError.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// Built once so hot paths can fail without allocating.
var capacityErrors = func() (errs [resourceCount]*CapacityError) {
	for r := Resource(0); r < resourceCount; r++ {
		errs[r] = &CapacityError{Resource: r}
	}
	return errs
}()

// CapacityExceeded returns the shared CapacityError for r.
func CapacityExceeded(r Resource) error {
	if r < 0 || r >= resourceCount {
		return ErrCapacityExceeded
	}
	return capacityErrors[r]
}
