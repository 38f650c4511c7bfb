// Package reference turns external id strings into validated reference keys and
// resolves the two reference styles the CRM uses: typed links that point into
// exactly one target collection, and polymorphic (type, id) attachments.
package reference

import (
	"github.com/google/uuid"
)

// Key is a validated, canonical record identifier.
type Key string

func (k Key) String() string {
	return string(k)
}

// Ptr returns the key as an external value.
func (k Key) Ptr() *string {
	s := string(k)
	return &s
}

// keyLength is the length of the hyphenated UUID form. uuid.Parse also accepts
// braced, urn and bare-hex forms; only the hyphenated one is a valid key.
const keyLength = 36

// Validate parses raw into a Key. It is the only place key format rules live, so
// every caller reports malformed ids with the same message.
func Validate(raw, field string) (Key, error) {
	if len(raw) != keyLength {
		return "", &InvalidReferenceFormatError{Field: field, Raw: raw}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", &InvalidReferenceFormatError{Field: field, Raw: raw}
	}
	return Key(id.String()), nil
}

// NewKey generates a key for a new record.
func NewKey() Key {
	return Key(uuid.New().String())
}
