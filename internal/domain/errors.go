package domain

import "errors"

var (
	// ErrNotFound is returned when a record is not in the current snapshot.
	ErrNotFound = errors.New("not found")

	// ErrUnknownCollection is returned for a collection name the service
	// does not serve.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrInvalidID is returned when an item id is missing.
	ErrInvalidID = errors.New("invalid item id")
)
