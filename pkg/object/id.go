package object

import (
	"encoding/hex"
	"fmt"
)

// IDLength is the length of a hex-encoded SHA-1 identifier.
const IDLength = 40

// ID is an object identifier: the 40-character lowercase hex SHA-1 of an
// object's encoded bytes. The zero ID is not valid; the only way to obtain
// a valid one is ParseID or hashing.
type ID struct {
	hex string
}

// ParseID validates s as exactly 40 lowercase hex digits.
func ParseID(s string) (ID, error) {
	if len(s) != IDLength {
		return ID{}, fmt.Errorf("invalid object id %q: want %d hex characters, got %d", s, IDLength, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return ID{}, fmt.Errorf("invalid object id %q: character %q at %d is not lowercase hex", s, c, i)
		}
	}
	return ID{hex: s}, nil
}

// MustParseID is ParseID for known-good literals. It panics on error.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func idFromSum(sum []byte) ID {
	return ID{hex: hex.EncodeToString(sum)}
}

func (id ID) String() string {
	return id.hex
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id.hex == ""
}

func (id ID) MarshalText() ([]byte, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("marshal object id: zero id")
	}
	return []byte(id.hex), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
