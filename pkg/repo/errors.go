package repo

import "errors"

var (
	ErrMetadataUnavailable  = errors.New("file metadata unavailable")
	ErrReadFailure          = errors.New("index read failed")
	ErrWriteFailure         = errors.New("index write failed")
	ErrSerializationFailure = errors.New("index serialization failed")
	ErrConfig               = errors.New("invalid repository config")
)

// Error is a repository failure. Kind is one of the Err* sentinels and Err
// the underlying cause; errors.Is matches both.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
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
