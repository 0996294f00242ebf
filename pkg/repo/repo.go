package repo

import (
	"fmt"

	"github.com/odvcencio/unrusty/pkg/layout"
	"github.com/odvcencio/unrusty/pkg/object"
	"github.com/sirupsen/logrus"
)

// Repo represents an opened unrusty repository. It is built once per
// invocation; every store and index operation goes through it instead of
// rediscovering the root.
type Repo struct {
	RootDir string         // working directory root
	Layout  *layout.Layout // derived .unrusty/ paths
	Store   *object.Store  // content-addressed object store
	Config  *Config        // .unrusty/config.toml, defaults if absent
	Log     logrus.FieldLogger
}

// Option configures Open and Init.
type Option func(*options)

type options struct {
	log logrus.FieldLogger
}

// WithLogger routes the repository's log output to log. The default is the
// logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) options {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open searches upward from path for a .unrusty/ directory and opens the
// repository. It fails with layout.ErrNoRepositoryFound if there is none.
func Open(path string, opts ...Option) (*Repo, error) {
	l, err := layout.Require(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return openLayout(l, buildOptions(opts))
}

func openLayout(l *layout.Layout, o options) (*Repo, error) {
	cfg, err := ReadConfigAt(l.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return &Repo{
		RootDir: l.Root,
		Layout:  l,
		Store:   object.NewStore(l, cfg.storeOptions()...),
		Config:  cfg,
		Log:     o.log,
	}, nil
}
