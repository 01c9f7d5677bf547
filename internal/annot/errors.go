package annot

import "errors"

var (
	// ErrInvalidInput is returned for empty or unusable titles and ids.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOutOfRange is returned for bad destination, link or page indexes.
	ErrOutOfRange = errors.New("index out of range")

	// ErrExternalPosition is returned when positioning a URL destination.
	ErrExternalPosition = errors.New("external destinations have no position")

	// ErrUnknownDestination is returned when an id is not in the destination list.
	ErrUnknownDestination = errors.New("unknown destination")

	// ErrDuplicate is returned when adding a destination whose id already exists.
	ErrDuplicate = errors.New("destination already exists")
)
