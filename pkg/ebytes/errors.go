package ebytes

import "errors"

var (
	// ErrIndexOutOfRange is returned when slice bounds exceed the handle
	// length or are misordered.
	ErrIndexOutOfRange = errors.New("ebytes: index out of range")

	// ErrCapacityOverflow is returned when a requested capacity does not fit
	// the platform int, or an inline payload exceeds InlineCap.
	ErrCapacityOverflow = errors.New("ebytes: capacity overflow")

	// ErrAllocationFailure is returned when the allocator cannot satisfy a
	// request.
	ErrAllocationFailure = errors.New("ebytes: allocation failure")
)
