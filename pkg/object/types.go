package object

import "strings"

// Type identifies the kind of object stored. The set is closed: any token
// that is not one of the known kinds parses to TypeInvalid.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeBlob
	TypeTree
	TypeCommit
)

var typeTokens = [...]string{
	TypeInvalid: "invalid",
	TypeBlob:    "blob",
	TypeTree:    "tree",
	TypeCommit:  "commit",
}

// ParseType maps a lowercase header token to its Type. It never fails.
func ParseType(token string) Type {
	switch token {
	case "blob":
		return TypeBlob
	case "tree":
		return TypeTree
	case "commit":
		return TypeCommit
	default:
		return TypeInvalid
	}
}

// String returns the canonical header token.
func (t Type) String() string {
	if int(t) < len(typeTokens) {
		return typeTokens[t]
	}
	return typeTokens[TypeInvalid]
}

// IsValid reports whether t is a kind that may legitimately be stored.
func (t Type) IsValid() bool {
	return t == TypeBlob || t == TypeTree || t == TypeCommit
}

// Types lists every Type, TypeInvalid last.
func Types() []Type {
	return []Type{TypeBlob, TypeTree, TypeCommit, TypeInvalid}
}

// Object is a decoded object: its type and payload.
type Object struct {
	Type Type
	Data []byte
}

// IsValid reports whether the object's type is a known kind.
func (o *Object) IsValid() bool {
	return o.Type.IsValid()
}

// Size returns the payload length in bytes.
func (o *Object) Size() int {
	return len(o.Data)
}

// Text decodes the payload for display. Invalid UTF-8 is replaced with
// U+FFFD, so it cannot fail.
func (o *Object) Text() string {
	return strings.ToValidUTF8(string(o.Data), "\uFFFD")
}
