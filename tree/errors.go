package tree

import "errors"

var (
	// ErrNotPersisted is returned when a mutation references a target
	// node that has not been written to storage yet.
	ErrNotPersisted = errors.New("nestset: target node is not persisted")

	// ErrNotDeleted is returned by Restore on a node that is not
	// soft-deleted.
	ErrNotDeleted = errors.New("nestset: node is not soft-deleted")

	// ErrOddGap is returned when a gap of odd size is requested. Bounds
	// come in lft/rgt pairs, so a valid gap is always even.
	ErrOddGap = errors.New("nestset: gap size must be even")
)
