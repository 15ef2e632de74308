package table

import "errors"

var (
	// ErrNotFound is returned by Get when no row exists at the given key.
	ErrNotFound = errors.New("table: row not found")

	// ErrAlreadyExists is returned by Insert when a row already exists at the key.
	ErrAlreadyExists = errors.New("table: row already exists")

	// ErrUnsupportedFilter is returned when a filter cannot be expressed by the backend.
	ErrUnsupportedFilter = errors.New("table: unsupported filter")
)
