package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/klauspost/compress/zlib"
	"github.com/odvcencio/unrusty/pkg/layout"
)

// Store is a content-addressed object store with a flat layout:
// .unrusty/objects/<40-hex-id>. Each file holds the zlib-compressed envelope
// "type len\0content".
type Store struct {
	layout       *layout.Layout
	level        int
	verifyOnRead bool
}

// Option configures a Store.
type Option func(*Store)

// WithCompressionLevel sets the zlib level used for new objects.
func WithCompressionLevel(level int) Option {
	return func(s *Store) { s.level = level }
}

// WithVerifyOnRead makes every read recompute and check the object hash.
func WithVerifyOnRead(verify bool) Option {
	return func(s *Store) { s.verifyOnRead = verify }
}

// NewStore creates a Store for the repository described by l. The objects/
// directory is created lazily on first write. A Store with a nil layout can
// only hash: every operation other than a simulated insert panics.
func NewStore(l *layout.Layout, opts ...Option) *Store {
	s := &Store{layout: l, level: zlib.DefaultCompression}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) objectPath(id ID) string {
	return s.layout.ObjectPath(id.String())
}

// Has reports whether the store contains an object with the given id.
func (s *Store) Has(id ID) bool {
	_, err := os.Stat(s.objectPath(id))
	return err == nil
}

// Insert encodes content as type t and returns its identifier. Unless
// simulate is set the compressed envelope is written to disk, replacing any
// existing file for the same id; since the id is the hash of the envelope
// the replacement is byte-identical.
func (s *Store) Insert(content []byte, t Type, simulate bool) (ID, error) {
	encoded := Encode(t, content)
	id := HashEncoded(encoded)
	if simulate {
		return id, nil
	}
	if err := s.writeEncoded(id, encoded); err != nil {
		return ID{}, err
	}
	return id, nil
}

// InsertFile reads the whole file at path and inserts it.
func (s *Store) InsertFile(path string, t Type, simulate bool) (ID, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return ID{}, &Error{Kind: ErrInputReadFailure, Op: "insert", Path: path, Err: err}
	}
	return s.Insert(content, t, simulate)
}

// Write is Insert without simulation.
func (s *Store) Write(content []byte, t Type) (ID, error) {
	return s.Insert(content, t, false)
}

// WriteFile is InsertFile without simulation.
func (s *Store) WriteFile(path string, t Type) (ID, error) {
	return s.InsertFile(path, t, false)
}

// Hash computes the id content would have, without writing anything.
func (s *Store) Hash(content []byte, t Type) (ID, error) {
	return s.Insert(content, t, true)
}

// HashFile computes the id of a file's content, without writing anything.
func (s *Store) HashFile(path string, t Type) (ID, error) {
	return s.InsertFile(path, t, true)
}

func (s *Store) writeEncoded(id ID, encoded []byte) error {
	fail := func(err error) error {
		return &Error{Kind: ErrWriteFailure, Op: "insert", ID: id, Err: err}
	}

	if err := os.MkdirAll(s.layout.ObjectsDir, 0o755); err != nil {
		return fail(fmt.Errorf("mkdir: %w", err))
	}

	// Atomic write via temp + rename.
	tmp, err := os.CreateTemp(s.layout.ObjectsDir, ".tmp-*")
	if err != nil {
		return fail(fmt.Errorf("tmpfile: %w", err))
	}
	tmpName := tmp.Name()

	zw, err := zlib.NewWriterLevel(tmp, s.level)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fail(fmt.Errorf("compress: %w", err))
	}
	if _, err := zw.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fail(fmt.Errorf("compress: %w", err))
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fail(fmt.Errorf("compress: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fail(fmt.Errorf("close: %w", err))
	}

	if err := os.Rename(tmpName, s.objectPath(id)); err != nil {
		os.Remove(tmpName)
		return fail(fmt.Errorf("rename: %w", err))
	}
	return nil
}

// Read retrieves an object, rejecting unknown types with ErrInvalidType.
func (s *Store) Read(id ID) (*Object, error) {
	return s.ReadPermissive(id, false)
}

// ReadPermissive retrieves an object. With allowUnknownType an object whose
// header carries an unrecognized type token is returned as TypeInvalid
// instead of failing.
func (s *Store) ReadPermissive(id ID, allowUnknownType bool) (*Object, error) {
	encoded, err := s.readEncoded(id)
	if err != nil {
		return nil, err
	}
	obj, err := Decode(encoded)
	if err != nil {
		return nil, wrapMalformed("read", id, err)
	}
	if s.verifyOnRead {
		if actual := HashEncoded(encoded); actual != id {
			return nil, integrityError(id, actual)
		}
	}
	if !allowUnknownType && !obj.IsValid() {
		return nil, invalidType("read", id, obj.Type)
	}
	return obj, nil
}

// readEncoded reads and inflates an object file.
func (s *Store) readEncoded(id ID) ([]byte, error) {
	raw, err := os.ReadFile(s.objectPath(id))
	if err != nil {
		return nil, &Error{Kind: ErrReadFailure, Op: "read", ID: id, Err: err}
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, wrapMalformed("read", id, fmt.Errorf("zlib: %w", err))
	}
	defer zr.Close()
	encoded, err := io.ReadAll(zr)
	if err != nil {
		return nil, wrapMalformed("read", id, fmt.Errorf("zlib: %w", err))
	}
	return encoded, nil
}

// Check reports whether id names a well-formed object of a known type. It
// returns nil on success and the read failure otherwise.
func (s *Store) Check(id ID) error {
	_, err := s.Read(id)
	return err
}

// TypeOf returns the type recorded in the object's header.
func (s *Store) TypeOf(id ID, allowUnknownType bool) (Type, error) {
	obj, err := s.ReadPermissive(id, allowUnknownType)
	if err != nil {
		return TypeInvalid, err
	}
	return obj.Type, nil
}

// SizeOf returns the payload length of the object.
func (s *Store) SizeOf(id ID, allowUnknownType bool) (int, error) {
	obj, err := s.ReadPermissive(id, allowUnknownType)
	if err != nil {
		return 0, err
	}
	return obj.Size(), nil
}

// Pretty returns the payload decoded as text for display.
func (s *Store) Pretty(id ID) (string, error) {
	obj, err := s.Read(id)
	if err != nil {
		return "", err
	}
	return obj.Text(), nil
}

// Delete removes the object file. Nothing checks whether the object is
// still referenced.
func (s *Store) Delete(id ID) error {
	if err := os.Remove(s.objectPath(id)); err != nil {
		return &Error{Kind: ErrDeleteFailure, Op: "delete", ID: id, Err: err}
	}
	return nil
}

// List returns the ids of all stored objects in ascending order. Files in
// objects/ whose names are not ids (such as in-flight temp files) are
// skipped.
func (s *Store) List() ([]ID, error) {
	entries, err := os.ReadDir(s.layout.ObjectsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &Error{Kind: ErrReadFailure, Op: "list", Path: s.layout.ObjectsDir, Err: err}
	}

	ids := make([]ID, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, err := ParseID(entry.Name())
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids, nil
}
