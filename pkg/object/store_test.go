package object

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/odvcencio/unrusty/pkg/layout"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T, opts ...Option) (*Store, *layout.Layout) {
	t.Helper()
	l := layout.New(t.TempDir())
	return NewStore(l, opts...), l
}

// writeRaw compresses encoded as-is and stores it under id, bypassing
// Encode. It lets tests plant objects the store would never produce.
func writeRaw(t *testing.T, l *layout.Layout, id ID, encoded []byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(encoded)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.MkdirAll(l.ObjectsDir, 0o755))
	require.NoError(t, os.WriteFile(l.ObjectPath(id.String()), buf.Bytes(), 0o644))
}

func TestHashObject_KnownDigest(t *testing.T) {
	// Same value git produces for `printf 'hello world' | git hash-object --stdin`.
	id := HashObject(TypeBlob, []byte("hello world"))
	require.Equal(t, "95d09f2b10159347eece71399a7e2e907ea3df4f", id.String())
}

func TestHashObject_Deterministic(t *testing.T) {
	data := []byte("same bytes")
	require.Equal(t, HashObject(TypeBlob, data), HashObject(TypeBlob, data))
	require.NotEqual(t, HashObject(TypeBlob, data), HashObject(TypeTree, data))
	require.NotEqual(t, HashObject(TypeBlob, []byte("aaa")), HashObject(TypeBlob, []byte("bbb")))
}

func TestEncode_Envelope(t *testing.T) {
	require.Equal(t, []byte("commit 3\x00abc"), Encode(TypeCommit, []byte("abc")))
	require.Equal(t, []byte("blob 0\x00"), Encode(TypeBlob, nil))
}

func TestStoreInsertRead_RoundTrip(t *testing.T) {
	s, _ := tempStore(t)

	for _, typ := range []Type{TypeBlob, TypeTree, TypeCommit} {
		id, err := s.Insert([]byte("hello world"), typ, false)
		require.NoError(t, err)
		require.Len(t, id.String(), IDLength)

		obj, err := s.Read(id)
		require.NoError(t, err)
		require.Equal(t, typ, obj.Type)
		require.Equal(t, []byte("hello world"), obj.Data)
	}
}

func TestStoreInsert_BinaryPayload(t *testing.T) {
	s, _ := tempStore(t)
	payload := []byte{0x00, 0xff, 0x00, 0xde, 0xad, 0xbe, 0xef, 0x00}

	id, err := s.Write(payload, TypeBlob)
	require.NoError(t, err)

	obj, err := s.Read(id)
	require.NoError(t, err)
	require.Equal(t, payload, obj.Data)
}

func TestStoreInsert_EmptyPayload(t *testing.T) {
	s, _ := tempStore(t)

	id, err := s.Write(nil, TypeBlob)
	require.NoError(t, err)
	// git's well-known empty blob id.
	require.Equal(t, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", id.String())

	obj, err := s.Read(id)
	require.NoError(t, err)
	require.Empty(t, obj.Data)
	require.Equal(t, TypeBlob, obj.Type)
}

func TestStoreInsert_StoredFileIsCompressedEnvelope(t *testing.T) {
	s, l := tempStore(t)

	id, err := s.Write([]byte("abc"), TypeBlob)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(l.ObjectsDir, id.String()))
	require.NoError(t, err)
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	var out bytes.Buffer
	_, err = out.ReadFrom(zr)
	require.NoError(t, err)
	require.Equal(t, "blob 3\x00abc", out.String())
	require.Equal(t, HashEncoded(out.Bytes()), id)
}

func TestStoreInsert_Idempotent(t *testing.T) {
	s, l := tempStore(t)
	data := []byte("duplicate")

	id1, err := s.Write(data, TypeBlob)
	require.NoError(t, err)
	first, err := os.ReadFile(l.ObjectPath(id1.String()))
	require.NoError(t, err)

	id2, err := s.Write(data, TypeBlob)
	require.NoError(t, err)
	second, err := os.ReadFile(l.ObjectPath(id2.String()))
	require.NoError(t, err)

	require.Equal(t, id1, id2)
	require.Equal(t, first, second)

	ids, err := s.List()
	require.NoError(t, err)
	require.Equal(t, []ID{id1}, ids)
}

func TestStoreInsert_SimulateWritesNothing(t *testing.T) {
	s, l := tempStore(t)

	simulated, err := s.Insert([]byte("dry run"), TypeBlob, true)
	require.NoError(t, err)
	require.False(t, s.Has(simulated))
	_, err = os.Stat(l.ObjectsDir)
	require.ErrorIs(t, err, fs.ErrNotExist)

	written, err := s.Insert([]byte("dry run"), TypeBlob, false)
	require.NoError(t, err)
	require.Equal(t, simulated, written)
	require.True(t, s.Has(written))
}

func TestStoreInsertFile(t *testing.T) {
	s, _ := tempStore(t)
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("from a file"), 0o644))

	hashed, err := s.HashFile(path, TypeBlob)
	require.NoError(t, err)
	require.False(t, s.Has(hashed))

	id, err := s.WriteFile(path, TypeBlob)
	require.NoError(t, err)
	require.Equal(t, hashed, id)
	require.Equal(t, HashObject(TypeBlob, []byte("from a file")), id)

	text, err := s.Pretty(id)
	require.NoError(t, err)
	require.Equal(t, "from a file", text)
}

func TestStoreInsertFile_Unreadable(t *testing.T) {
	s, _ := tempStore(t)

	_, err := s.InsertFile(filepath.Join(t.TempDir(), "missing"), TypeBlob, true)
	require.ErrorIs(t, err, ErrInputReadFailure)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStoreRead_Missing(t *testing.T) {
	s, _ := tempStore(t)

	_, err := s.Read(HashObject(TypeBlob, []byte("never written")))
	require.ErrorIs(t, err, ErrReadFailure)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStoreRead_MalformedEnvelopes(t *testing.T) {
	cases := map[string]string{
		"no NUL":          "blob 3abc",
		"length mismatch": "blob 4\x00abc",
		"leading zero":    "blob 03\x00abc",
		"no length":       "blob \x00",
		"no type":         " 3\x00abc",
		"uppercase type":  "BLOB 3\x00abc",
		"extra field":     "blob 3 x\x00abc",
		"invalid text":    "bl\xffob 3\x00abc",
		"negative length": "blob -3\x00abc",
	}
	for name, encoded := range cases {
		t.Run(name, func(t *testing.T) {
			s, l := tempStore(t)
			id := HashEncoded([]byte(encoded))
			writeRaw(t, l, id, []byte(encoded))

			_, err := s.ReadPermissive(id, true)
			require.ErrorIs(t, err, ErrMalformedObject)
			require.ErrorIs(t, s.Check(id), ErrMalformedObject)
		})
	}
}

func TestStoreRead_CorruptCompression(t *testing.T) {
	s, l := tempStore(t)
	id := HashObject(TypeBlob, []byte("x"))
	require.NoError(t, os.MkdirAll(l.ObjectsDir, 0o755))
	require.NoError(t, os.WriteFile(l.ObjectPath(id.String()), []byte("not zlib at all"), 0o644))

	_, err := s.Read(id)
	require.ErrorIs(t, err, ErrMalformedObject)
}

func TestStoreRead_PermissiveGate(t *testing.T) {
	s, l := tempStore(t)
	encoded := []byte("widget 5\x00hello")
	id := HashEncoded(encoded)
	writeRaw(t, l, id, encoded)

	obj, err := s.ReadPermissive(id, true)
	require.NoError(t, err)
	require.Equal(t, TypeInvalid, obj.Type)
	require.Equal(t, []byte("hello"), obj.Data)

	_, err = s.Read(id)
	require.ErrorIs(t, err, ErrInvalidType)
	_, err = s.ReadPermissive(id, false)
	require.ErrorIs(t, err, ErrInvalidType)

	typ, err := s.TypeOf(id, true)
	require.NoError(t, err)
	require.Equal(t, TypeInvalid, typ)
	size, err := s.SizeOf(id, true)
	require.NoError(t, err)
	require.Equal(t, 5, size)

	_, err = s.SizeOf(id, false)
	require.ErrorIs(t, err, ErrInvalidType)
	require.ErrorIs(t, s.Check(id), ErrInvalidType)
}

func TestStoreCheck_Valid(t *testing.T) {
	s, _ := tempStore(t)
	id, err := s.Write([]byte("fine"), TypeTree)
	require.NoError(t, err)
	require.NoError(t, s.Check(id))
}

func TestStorePretty_Lossy(t *testing.T) {
	s, _ := tempStore(t)
	id, err := s.Write([]byte("caf\xe9 ok"), TypeBlob)
	require.NoError(t, err)

	text, err := s.Pretty(id)
	require.NoError(t, err)
	require.Equal(t, "caf\uFFFD ok", text)
}

func TestStoreDelete(t *testing.T) {
	s, _ := tempStore(t)
	id, err := s.Write([]byte("short lived"), TypeBlob)
	require.NoError(t, err)

	require.NoError(t, s.Delete(id))
	require.False(t, s.Has(id))

	err = s.Delete(id)
	require.ErrorIs(t, err, ErrDeleteFailure)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStoreList_SkipsForeignFiles(t *testing.T) {
	s, l := tempStore(t)
	a, err := s.Write([]byte("a"), TypeBlob)
	require.NoError(t, err)
	b, err := s.Write([]byte("b"), TypeBlob)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(l.ObjectsDir, ".tmp-123"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(l.ObjectsDir, "pack"), 0o755))

	ids, err := s.List()
	require.NoError(t, err)
	want := []ID{a, b}
	if strings.Compare(a.String(), b.String()) > 0 {
		want = []ID{b, a}
	}
	require.Equal(t, want, ids)
}

func TestStoreVerify_DetectsMismatch(t *testing.T) {
	s, l := tempStore(t)
	good, err := s.Write([]byte("good"), TypeBlob)
	require.NoError(t, err)
	require.NoError(t, s.Verify(good))

	// A correct envelope filed under the wrong name.
	wrong := HashObject(TypeBlob, []byte("something else"))
	writeRaw(t, l, wrong, Encode(TypeBlob, []byte("good")))

	// Plain reads trust the file name.
	obj, err := s.Read(wrong)
	require.NoError(t, err)
	require.Equal(t, []byte("good"), obj.Data)

	require.ErrorIs(t, s.Verify(wrong), ErrIntegrity)
	_, err = s.VerifyAll()
	require.ErrorIs(t, err, ErrIntegrity)

	strict := NewStore(l, WithVerifyOnRead(true))
	_, err = strict.Read(wrong)
	require.ErrorIs(t, err, ErrIntegrity)
	_, err = strict.Read(good)
	require.NoError(t, err)
}

func TestStoreVerifyAll(t *testing.T) {
	s, _ := tempStore(t)
	for _, data := range []string{"one", "two", "three"} {
		_, err := s.Write([]byte(data), TypeBlob)
		require.NoError(t, err)
	}

	report, err := s.VerifyAll()
	require.NoError(t, err)
	require.Equal(t, 3, report.Objects)
}

func TestStoreCompressionLevel(t *testing.T) {
	data := bytes.Repeat([]byte("compressible "), 200)
	stored, l := tempStore(t, WithCompressionLevel(zlib.NoCompression))
	id, err := stored.Write(data, TypeBlob)
	require.NoError(t, err)
	info, err := os.Stat(l.ObjectPath(id.String()))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(len(data)))

	obj, err := stored.Read(id)
	require.NoError(t, err)
	require.Equal(t, data, obj.Data)
}

func TestErrorMessageNamesObject(t *testing.T) {
	s, _ := tempStore(t)
	id := HashObject(TypeBlob, []byte("missing"))
	_, err := s.Read(id)

	var serr *Error
	require.True(t, errors.As(err, &serr))
	require.Equal(t, id, serr.ID)
	require.Contains(t, err.Error(), id.String())
	require.Contains(t, err.Error(), ErrReadFailure.Error())
}
