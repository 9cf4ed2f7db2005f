package quota

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// ID identifies a definition or a frame node. Ids are unique across a whole
// frame: variable definitions, level definitions, frame variables and frame
// levels share one id space.
type ID uuid.UUID

// Nil is the zero ID. It never identifies anything.
var Nil ID

// NewID returns a random ID.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID parses the 32-character hex form produced by String. The dashed
// uuid form is accepted too.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("parse id %q: %w", s, err)
	}
	return ID(u), nil
}

// MustParseID is ParseID for constants in tests and fixtures.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the id as lowercase hex without dashes.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsNil reports whether id is the zero ID.
func (id ID) IsNil() bool {
	return id == Nil
}
