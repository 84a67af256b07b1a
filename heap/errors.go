package heap

import "errors"

// Errors returned by Heap operations. All of them are reported before any
// mutation happens, so a failed operation leaves the pool untouched.
var (
	ErrInvalidArgument  = errors.New("heap: invalid argument")
	ErrCapacityExceeded = errors.New("heap: capacity exceeded")
	ErrOutOfMemory      = errors.New("heap: out of memory")
	ErrInvalidPointer   = errors.New("heap: invalid pointer")
	ErrDoubleFree       = errors.New("heap: double free")
)
