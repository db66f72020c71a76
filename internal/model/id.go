package model

import (
	"errors"

	"github.com/google/uuid"
)

// ErrMalformedID is returned by ParseID for strings that are not a valid identifier.
var ErrMalformedID = errors.New("malformed id")

// ID is an opaque, stable identifier for users and recipes.
type ID string

// NewID returns a fresh random identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID validates s and returns it in canonical form.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", ErrMalformedID
	}
	return ID(u.String()), nil
}

func (id ID) String() string {
	return string(id)
}

// IsZero reports whether id is unset.
func (id ID) IsZero() bool {
	return id == ""
}
