package repo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/odvcencio/unrusty/pkg/object"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// MergeRole distinguishes the versions of a path staged during a merge.
// Only RoleRegular is assigned today; the others reserve the shape of the
// index for a merge workflow.
type MergeRole uint8

const (
	RoleRegular MergeRole = iota
	RoleCommonAncestor
	RoleHead
	RoleMergeHead
)

var roleNames = [...]string{
	RoleRegular:        "regular",
	RoleCommonAncestor: "common-ancestor",
	RoleHead:           "head",
	RoleMergeHead:      "merge-head",
}

func (m MergeRole) String() string {
	if int(m) < len(roleNames) {
		return roleNames[m]
	}
	return fmt.Sprintf("MergeRole(%d)", int(m))
}

func (m MergeRole) MarshalText() ([]byte, error) {
	if int(m) >= len(roleNames) {
		return nil, fmt.Errorf("unknown merge role %d", int(m))
	}
	return []byte(roleNames[m]), nil
}

func (m *MergeRole) UnmarshalText(text []byte) error {
	for i, name := range roleNames {
		if name == string(text) {
			*m = MergeRole(i)
			return nil
		}
	}
	return fmt.Errorf("unknown merge role %q", text)
}

// Metadata is the filesystem snapshot used to decide whether a staged file
// changed. Content is not compared.
type Metadata struct {
	CTime time.Time `yaml:"c_time"`
	MTime time.Time `yaml:"m_time"`
	Size  int64     `yaml:"size"`
}

// Equal reports whether all three fields match.
func (m Metadata) Equal(other Metadata) bool {
	return m.CTime.Equal(other.CTime) && m.MTime.Equal(other.MTime) && m.Size == other.Size
}

// IndexEntry records the staged state of a single path.
type IndexEntry struct {
	Metadata Metadata  `yaml:"metadata"`
	Role     MergeRole `yaml:"role"`
	Hash     object.ID `yaml:"hash"`
}

// Index is the staging area, keyed by slash-separated path relative to the
// repository root.
type Index struct {
	Entries map[string]*IndexEntry `yaml:"entries"`
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{Entries: make(map[string]*IndexEntry)}
}

// Paths returns the staged paths in sorted order.
func (idx *Index) Paths() []string {
	paths := make([]string, 0, len(idx.Entries))
	for p := range idx.Entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func validIndexKey(key string) bool {
	if key == "" || path.IsAbs(key) || path.Clean(key) != key {
		return false
	}
	return key != ".." && !strings.HasPrefix(key, "../")
}

// CreateIndexAt writes an empty index to path.
func CreateIndexAt(path string) error {
	return WriteIndexAt(path, NewIndex())
}

// CreateIndex writes an empty index for the repository.
func (r *Repo) CreateIndex() error {
	return CreateIndexAt(r.Layout.IndexPath())
}

// ReadIndexAt loads the whole index from path. A missing file is
// ErrReadFailure; anything that does not decode to a well-formed index,
// including an empty file, is ErrSerializationFailure.
func ReadIndexAt(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: ErrReadFailure, Op: "read index", Path: path, Err: err}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var idx Index
	if err := dec.Decode(&idx); err != nil {
		return nil, &Error{Kind: ErrSerializationFailure, Op: "read index", Path: path, Err: err}
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]*IndexEntry)
	}
	for key, entry := range idx.Entries {
		if !validIndexKey(key) {
			return nil, &Error{Kind: ErrSerializationFailure, Op: "read index", Path: path, Err: fmt.Errorf("invalid path key %q", key)}
		}
		if entry == nil || entry.Hash.IsZero() {
			return nil, &Error{Kind: ErrSerializationFailure, Op: "read index", Path: path, Err: fmt.Errorf("entry %q has no hash", key)}
		}
	}
	return &idx, nil
}

// ReadIndex loads the repository's index.
func (r *Repo) ReadIndex() (*Index, error) {
	return ReadIndexAt(r.Layout.IndexPath())
}

// WriteIndexAt replaces the file at path with idx. The new content is
// written to a temp file and renamed into place, so a crash leaves either
// the old or the new index.
func WriteIndexAt(path string, idx *Index) error {
	data, err := yaml.Marshal(idx)
	if err != nil {
		return &Error{Kind: ErrSerializationFailure, Op: "write index", Path: path, Err: err}
	}

	fail := func(err error) error {
		return &Error{Kind: ErrWriteFailure, Op: "write index", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-tmp-*")
	if err != nil {
		return fail(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fail(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fail(err)
	}
	return nil
}

// WriteIndex replaces the repository's index with idx.
func (r *Repo) WriteIndex(idx *Index) error {
	return WriteIndexAt(r.Layout.IndexPath(), idx)
}

// Change says what AddChange did to the index.
type Change int

const (
	ChangeUnchanged Change = iota
	ChangeAdded
	ChangeUpdated
)

func (c Change) String() string {
	switch c {
	case ChangeUnchanged:
		return "unchanged"
	case ChangeAdded:
		return "added"
	case ChangeUpdated:
		return "updated"
	default:
		return fmt.Sprintf("Change(%d)", int(c))
	}
}

// AddChange stages p in idx under role. The file is hashed into the store
// when it has no entry yet or when its metadata snapshot differs from the
// recorded one. An identical snapshot is taken to mean the content is
// unchanged and the file is not read at all. Only idx is modified; the
// caller persists it.
func (r *Repo) AddChange(idx *Index, role MergeRole, p string) (Change, error) {
	key, err := r.Layout.RelativePath(p)
	if err != nil {
		return ChangeUnchanged, fmt.Errorf("add %s: %w", p, err)
	}
	meta, err := statMetadata(p)
	if err != nil {
		return ChangeUnchanged, err
	}

	log := r.Log.WithField("path", key)
	change := ChangeAdded
	if entry, ok := idx.Entries[key]; ok {
		if entry.Metadata.Equal(meta) {
			log.Info("file in index is up to date")
			return ChangeUnchanged, nil
		}
		change = ChangeUpdated
	}

	id, err := r.Store.WriteFile(p, object.TypeBlob)
	if err != nil {
		return ChangeUnchanged, fmt.Errorf("add %s: %w", p, err)
	}
	idx.Entries[key] = &IndexEntry{Metadata: meta, Role: role, Hash: id}
	log.WithFields(logrus.Fields{"hash": id.String(), "change": change.String()}).Info("staged file")
	return change, nil
}

// AddSummary reports the outcome of Add per input path.
type AddSummary struct {
	Added     []string
	Updated   []string
	Unchanged []string
	Failed    map[string]error
}

// Err joins the per-path failures, or returns nil if there were none.
func (s *AddSummary) Err() error {
	paths := make([]string, 0, len(s.Failed))
	for p := range s.Failed {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	errs := make([]error, len(paths))
	for i, p := range paths {
		errs[i] = s.Failed[p]
	}
	return errors.Join(errs...)
}

// Add stages each path under role. The index is read once, each path is
// processed independently (a failure is logged and recorded, and the rest
// still run), and the index is written once at the end. Only failures to
// read or write the index itself are returned as an error.
func (r *Repo) Add(role MergeRole, paths []string) (*AddSummary, error) {
	idx, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}

	summary := &AddSummary{Failed: make(map[string]error)}
	for _, p := range paths {
		change, err := r.AddChange(idx, role, p)
		if err != nil {
			r.Log.WithField("path", p).WithError(err).Warn("adding changes failed")
			summary.Failed[p] = err
			continue
		}
		switch change {
		case ChangeAdded:
			summary.Added = append(summary.Added, p)
		case ChangeUpdated:
			summary.Updated = append(summary.Updated, p)
		default:
			summary.Unchanged = append(summary.Unchanged, p)
		}
	}

	if err := r.WriteIndex(idx); err != nil {
		return summary, fmt.Errorf("add: %w", err)
	}
	return summary, nil
}
