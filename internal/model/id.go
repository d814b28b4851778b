package model

import "github.com/oklog/ulid/v2"

// ID identifies a model object. IDs are ULIDs, so they sort by creation time.
type ID string

// NewID returns a fresh ID. Safe for concurrent use.
func NewID() ID {
	return ID(ulid.Make().String())
}

func (id ID) String() string { return string(id) }
