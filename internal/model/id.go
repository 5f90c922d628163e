package model

import "github.com/oklog/ulid/v2"

// NewID returns a new sortable identifier for stored entities.
func NewID() string {
	return ulid.Make().String()
}
