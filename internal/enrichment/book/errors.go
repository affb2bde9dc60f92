package book

import "errors"

var (
	// ErrNoSearchKey is returned when a record has no ISBN, title, author or source slug to search with.
	ErrNoSearchKey = errors.New("no search key")

	// ErrUnknownCoverSource is returned when a cover priority names an unknown source.
	ErrUnknownCoverSource = errors.New("unknown cover source")

	// ErrUnknownField is returned when a column override names an unknown logical field.
	ErrUnknownField = errors.New("unknown field")
)
