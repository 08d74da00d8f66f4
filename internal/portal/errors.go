package portal

import "errors"

var (
	// ErrReadFailed is returned when an uploaded file could not be read or stored.
	ErrReadFailed = errors.New("could not read file")
	// ErrInvalidFile is returned when an import bundle cannot be parsed.
	ErrInvalidFile = errors.New("invalid file")
	// ErrNotFound is returned for unknown records or missing file content.
	ErrNotFound = errors.New("not found")
	// ErrPersist is returned when a collection could not be written to the state storage.
	ErrPersist = errors.New("could not save")
)
