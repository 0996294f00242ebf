// Package layout resolves the on-disk locations of an unrusty repository:
// the repository root, the .unrusty/ marker directory and the files inside
// it. A Layout is built once per invocation and handed to everything that
// needs a path, so nothing re-scans the directory tree on its own.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MarkerDir is the directory whose presence marks a repository root.
	MarkerDir = ".unrusty"

	objectsDir = "objects"
	indexFile  = "index"
	configFile = "config.toml"

	idLength = 40
)

var (
	ErrNoRepositoryFound = errors.New("not an unrusty repository (or any parent up to /)")
	ErrIllegalPath       = errors.New("illegal path")
	ErrNotInRepository   = errors.New("path is outside the repository")
)

// NotInRepositoryError reports a path that resolved outside Root.
type NotInRepositoryError struct {
	Root string
	Path string
}

func (e *NotInRepositoryError) Error() string {
	return fmt.Sprintf("%s: repository %s, file %s", ErrNotInRepository, e.Root, e.Path)
}

func (e *NotInRepositoryError) Is(target error) bool {
	return target == ErrNotInRepository
}

// IllegalPathError wraps the failure to canonicalize Path.
type IllegalPathError struct {
	Path string
	Err  error
}

func (e *IllegalPathError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrIllegalPath, e.Path, e.Err)
}

func (e *IllegalPathError) Unwrap() []error {
	return []error{ErrIllegalPath, e.Err}
}

// Layout holds the canonical root of a repository and the paths derived
// from it.
type Layout struct {
	Root       string // working directory root
	Dir        string // .unrusty/ directory
	ObjectsDir string // .unrusty/objects/
	IndexFile  string // .unrusty/index
	ConfigFile string // .unrusty/config.toml
}

// New builds a Layout for a repository rooted at root. The root is taken as
// given; callers that accept user input should canonicalize it first.
func New(root string) *Layout {
	dir := filepath.Join(root, MarkerDir)
	return &Layout{
		Root:       root,
		Dir:        dir,
		ObjectsDir: filepath.Join(dir, objectsDir),
		IndexFile:  filepath.Join(dir, indexFile),
		ConfigFile: filepath.Join(dir, configFile),
	}
}

// Discover looks for a repository containing start. It returns nil and no
// error when there is none.
func Discover(start string) (*Layout, error) {
	root, ok, err := FindRoot(start)
	if err != nil || !ok {
		return nil, err
	}
	return New(root), nil
}

// Require is Discover, but a missing repository is ErrNoRepositoryFound.
func Require(start string) (*Layout, error) {
	root, err := RequireRoot(start)
	if err != nil {
		return nil, err
	}
	return New(root), nil
}

// RequireFromCwd is Require starting at the process working directory.
func RequireFromCwd() (*Layout, error) {
	root, err := RequireRootFromCwd()
	if err != nil {
		return nil, err
	}
	return New(root), nil
}

// FindRoot canonicalizes start and walks its ancestors, nearest first,
// looking for a directory that contains the marker directory.
func FindRoot(start string) (string, bool, error) {
	cur, err := canonicalize(start)
	if err != nil {
		return "", false, err
	}
	for {
		if isRoot(cur) {
			return cur, true, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", false, nil
		}
		cur = parent
	}
}

// FindRootFromCwd is FindRoot starting at the process working directory.
func FindRootFromCwd() (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, &IllegalPathError{Path: ".", Err: err}
	}
	return FindRoot(cwd)
}

// RequireRoot is FindRoot, but a miss is ErrNoRepositoryFound.
func RequireRoot(start string) (string, error) {
	root, ok, err := FindRoot(start)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoRepositoryFound
	}
	return root, nil
}

// RequireRootFromCwd is RequireRoot starting at the working directory.
func RequireRootFromCwd() (string, error) {
	root, ok, err := FindRootFromCwd()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoRepositoryFound
	}
	return root, nil
}

func isRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, MarkerDir))
	return err == nil && info.IsDir()
}

// ObjectPath returns the file holding the object with the given 40-character
// identifier. Passing anything else is a programming error.
func (l *Layout) ObjectPath(id string) string {
	if len(id) != idLength {
		panic(fmt.Sprintf("layout: object id %q is not %d characters", id, idLength))
	}
	return filepath.Join(l.ObjectsDir, id)
}

// IndexPath returns the staging index file.
func (l *Layout) IndexPath() string {
	return l.IndexFile
}

// RelativePath canonicalizes p and returns it relative to the repository
// root, slash separated. The root itself is ".". Relative inputs are taken
// relative to the working directory.
func (l *Layout) RelativePath(p string) (string, error) {
	canon, err := canonicalize(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(l.Root, canon)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &NotInRepositoryError{Root: l.Root, Path: canon}
	}
	return filepath.ToSlash(rel), nil
}

// canonicalize makes p absolute and resolves every symlink in it. The path
// must exist.
func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", &IllegalPathError{Path: p, Err: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &IllegalPathError{Path: p, Err: err}
	}
	return resolved, nil
}
