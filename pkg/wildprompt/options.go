// Package wildprompt provides the public API for the wildcard prompt engine.
package wildprompt

import (
	"go.uber.org/zap"

	"nickandperla.net/wildprompt/internal/config"
	"nickandperla.net/wildprompt/internal/dict"
	"nickandperla.net/wildprompt/internal/store"
)

// Option configures a Runtime.
type Option func(*Runtime)

// opener creates the persistence backend once every option has been applied.
type opener func(r *Runtime) (store.Store, error)

// WithDirStore loads wildcards from directories of .txt and .yaml files.
// Edits are written to persistFile; an empty persistFile makes the
// dictionary read-only on disk.
func WithDirStore(dirs []string, persistFile string) Option {
	return func(r *Runtime) {
		r.open = func(r *Runtime) (store.Store, error) {
			d := store.NewDir(dirs,
				store.WithPersistFile(persistFile),
				store.WithRoot(r.root),
				store.WithLogger(r.log),
			)
			r.dir = d
			return d, nil
		}
	}
}

// WithSQLiteStore configures SQLite persistence at the given path.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		r.open = func(*Runtime) (store.Store, error) {
			return store.NewSQLite(path)
		}
	}
}

// WithBuntStore configures buntdb persistence at the given path.
func WithBuntStore(path string) Option {
	return func(r *Runtime) {
		r.open = func(*Runtime) (store.Store, error) {
			return store.NewBunt(path)
		}
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore(initial *Mapping) Option {
	return func(r *Runtime) {
		r.open = func(*Runtime) (store.Store, error) {
			return store.NewMemory(initial), nil
		}
	}
}

// WithStore uses a caller-provided persistence backend.
func WithStore(s Store) Option {
	return func(r *Runtime) {
		r.open = func(*Runtime) (store.Store, error) { return s, nil }
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(r *Runtime) {
		r.log = log
	}
}

// WithRoot sets the editable root group (default "m").
func WithRoot(root string) Option {
	return func(r *Runtime) {
		r.root = dict.Normalize(root)
	}
}

// WithMaxIterations bounds the expansion rewrite loop.
func WithMaxIterations(n int) Option {
	return func(r *Runtime) {
		r.maxIterations = n
	}
}

// WithWatch reloads the dictionary when files in a directory store change.
// It has no effect on other backends.
func WithWatch(enabled bool) Option {
	return func(r *Runtime) {
		r.watch = enabled
	}
}

// FromConfig translates a loaded configuration into options.
func FromConfig(cfg *config.Config) []Option {
	opts := []Option{
		WithRoot(cfg.Root),
		WithMaxIterations(cfg.MaxIterations),
		WithWatch(cfg.Watch),
	}
	switch cfg.Backend {
	case config.BackendSQLite:
		opts = append(opts, WithSQLiteStore(cfg.Database))
	case config.BackendBunt:
		opts = append(opts, WithBuntStore(cfg.Database))
	case config.BackendMemory:
		opts = append(opts, WithMemoryStore(nil))
	default:
		opts = append(opts, WithDirStore(cfg.Wildcards, cfg.PersistFile))
	}
	return opts
}

// Store interface for custom persistence backends.
type Store = store.Store

// Mapping is an ordered wildcard dictionary.
type Mapping = dict.Mapping

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return dict.NewMapping()
}
