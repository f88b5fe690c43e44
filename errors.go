package bloomgo

import "errors"

var (
	// ErrInvalidCapacity is returned when a filter capacity is not positive.
	ErrInvalidCapacity = errors.New("capacity must be greater than 0")

	// ErrInvalidErrorRate is returned when a target false-positive rate is
	// outside the open interval (0, 1).
	ErrInvalidErrorRate = errors.New("error rate must be between 0 and 1")

	// ErrInvalidGrowthFactor is returned when a scalable filter is built
	// with a growth factor other than SmallSetGrowth or LargeSetGrowth.
	ErrInvalidGrowthFactor = errors.New("growth factor must be 2 or 4")

	// ErrCapacityExceeded is returned by Add once a filter's count has
	// exceeded its capacity.
	ErrCapacityExceeded = errors.New("filter is at capacity")

	// ErrMismatchedFilters is returned by Union and Intersection when the
	// operands do not share capacity and error rate.
	ErrMismatchedFilters = errors.New("filters have mismatched parameters")

	// ErrCorruptData is returned during deserialization when the encoded
	// fields are inconsistent with each other or with the available bytes.
	ErrCorruptData = errors.New("corrupt filter data")
)
