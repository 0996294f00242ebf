package object

import (
	"errors"
	"fmt"
)

var (
	ErrReadFailure      = errors.New("object read failed")
	ErrWriteFailure     = errors.New("object write failed")
	ErrDeleteFailure    = errors.New("object delete failed")
	ErrInputReadFailure = errors.New("input read failed")
	ErrMalformedObject  = errors.New("malformed object")
	ErrInvalidType      = errors.New("invalid object type")
	ErrIntegrity        = errors.New("object hash mismatch")
)

// Error is a store failure. Kind is one of the Err* sentinels; Err is the
// underlying cause, if any. errors.Is matches both.
type Error struct {
	Kind error
	Op   string
	ID   ID
	Path string
	Err  error
}

func (e *Error) Error() string {
	subject := e.Path
	if !e.ID.IsZero() {
		subject = e.ID.String()
	}
	msg := e.Op
	if subject != "" {
		msg += " " + subject
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

type malformedError string

func (m malformedError) Error() string { return string(m) }

func (m malformedError) Is(target error) bool { return target == ErrMalformedObject }

// malformed describes a decode failure; it matches ErrMalformedObject on its
// own so Decode callers need not wrap it.
func malformed(reason string) error {
	return malformedError(reason)
}

func wrapMalformed(op string, id ID, err error) error {
	return &Error{Kind: ErrMalformedObject, Op: op, ID: id, Err: err}
}

func invalidType(op string, id ID, t Type) error {
	return &Error{Kind: ErrInvalidType, Op: op, ID: id, Err: fmt.Errorf("type %q is not a known object type", t)}
}
