package errs

import (
	"errors"
)

var (
	// ErrNotFound covers an absent book or reservation, and a book that has
	// no copies available for reservation.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate signals an already existing active reservation for the
	// same user and book, or a catalog conflict such as a duplicate ISBN.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidTransition rejects a status move outside the lifecycle table.
	ErrInvalidTransition = errors.New("invalid status transition")
)
