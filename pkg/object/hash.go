package object

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"
)

// headerPattern is the grammar of the envelope header. The length has no
// leading zeros; a lone "0" is allowed so empty payloads can round-trip.
var headerPattern = regexp.MustCompile(`^([a-z]+) (0|[1-9][0-9]*)$`)

// Encode builds the envelope "<type> <len>\0<payload>". These exact bytes
// are hashed and compressed.
func Encode(t Type, payload []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", t, len(payload))
	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	return append(out, payload...)
}

// HashEncoded returns the identifier of an already encoded envelope.
func HashEncoded(encoded []byte) ID {
	sum := sha1.Sum(encoded)
	return idFromSum(sum[:])
}

// HashObject computes the identifier of payload stored as type t.
func HashObject(t Type, payload []byte) ID {
	return HashEncoded(Encode(t, payload))
}

// Decode parses an inflated envelope. Unknown type tokens decode to
// TypeInvalid without error; rejecting them is left to the caller. Failures
// wrap ErrMalformedObject.
func Decode(encoded []byte) (*Object, error) {
	nul := bytes.IndexByte(encoded, 0)
	if nul < 0 {
		return nil, malformed("missing NUL separator")
	}
	header := encoded[:nul]
	payload := encoded[nul+1:]

	if !utf8.Valid(header) {
		return nil, malformed("header is not valid text")
	}
	m := headerPattern.FindSubmatch(header)
	if m == nil {
		return nil, malformed(fmt.Sprintf("header %q does not match \"<type> <length>\"", header))
	}
	length, err := strconv.Atoi(string(m[2]))
	if err != nil {
		return nil, malformed(fmt.Sprintf("header length %q: %v", m[2], err))
	}
	if length != len(payload) {
		return nil, malformed(fmt.Sprintf("length mismatch (header=%d, actual=%d)", length, len(payload)))
	}

	data := make([]byte, len(payload))
	copy(data, payload)
	return &Object{Type: ParseType(string(m[1])), Data: data}, nil
}
