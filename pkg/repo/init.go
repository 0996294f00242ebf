package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/unrusty/pkg/layout"
)

// InitResult says what Init did.
type InitResult int

const (
	// InitCreated means a new repository was created.
	InitCreated InitResult = iota
	// InitExisting means path was already inside a repository and nothing
	// was changed.
	InitExisting
	// InitReset means an existing repository was deleted and recreated.
	InitReset
)

func (r InitResult) String() string {
	switch r {
	case InitCreated:
		return "created"
	case InitExisting:
		return "existing"
	case InitReset:
		return "reset"
	default:
		return fmt.Sprintf("InitResult(%d)", int(r))
	}
}

// Init creates a repository at path, which must exist. If path already lies
// inside a repository, that repository is returned untouched unless force is
// set, in which case its .unrusty/ directory is deleted and recreated. A
// fresh repository holds an empty objects/ directory, a default config and
// an empty index.
func Init(path string, force bool, opts ...Option) (*Repo, InitResult, error) {
	o := buildOptions(opts)

	existing, err := layout.Discover(path)
	if err != nil {
		return nil, 0, fmt.Errorf("init: %w", err)
	}

	result := InitCreated
	var l *layout.Layout
	switch {
	case existing != nil && !force:
		o.log.WithField("root", existing.Root).Warn("repository already exists, use --force to reset")
		r, err := openLayout(existing, o)
		if err != nil {
			return nil, 0, fmt.Errorf("init: %w", err)
		}
		return r, InitExisting, nil
	case existing != nil:
		o.log.WithField("dir", existing.Dir).Info("deleting existing repository")
		if err := os.RemoveAll(existing.Dir); err != nil {
			return nil, 0, fmt.Errorf("init: remove %s: %w", existing.Dir, err)
		}
		l = existing
		result = InitReset
	default:
		root, err := filepath.Abs(path)
		if err != nil {
			return nil, 0, fmt.Errorf("init: abs path: %w", err)
		}
		if root, err = filepath.EvalSymlinks(root); err != nil {
			return nil, 0, fmt.Errorf("init: %w", err)
		}
		l = layout.New(root)
	}

	if err := os.MkdirAll(l.ObjectsDir, 0o755); err != nil {
		return nil, 0, fmt.Errorf("init: mkdir %s: %w", l.ObjectsDir, err)
	}
	if err := WriteConfigAt(l.ConfigFile, DefaultConfig()); err != nil {
		return nil, 0, fmt.Errorf("init: %w", err)
	}
	if err := CreateIndexAt(l.IndexPath()); err != nil {
		return nil, 0, fmt.Errorf("init: %w", err)
	}

	r, err := openLayout(l, o)
	if err != nil {
		return nil, 0, fmt.Errorf("init: %w", err)
	}
	r.Log.WithField("root", l.Root).Info("created new repository")
	return r, result, nil
}
