package engine

import "errors"

var (
	ErrNotLoaded       = errors.New("contacts not loaded")
	ErrDuplicateID     = errors.New("duplicate contact id")
	ErrInvalidRows     = errors.New("invalid contact rows")
	ErrUnknownFormat   = errors.New("unknown data file format")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrUnknownFacet    = errors.New("unknown facet attribute")
	ErrInvalidBucket   = errors.New("invalid date bucket")
	ErrInvalidSort     = errors.New("invalid sort direction")
	ErrUnknownAction   = errors.New("unknown action")
	ErrInvalidSelector = errors.New("invalid selection")
)
