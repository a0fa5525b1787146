package prefs

import (
	"context"
	"fmt"
)

// Options selects and configures a Store.
type Options struct {
	// Backend is "file" (the default) or "redis".
	Backend string
	Path    string
	Redis   RedisConfig
}

// Open returns the store named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "file":
		if opts.Path == "" {
			return nil, fmt.Errorf("prefs: file backend needs a path")
		}
		return NewFileStore(opts.Path), nil
	case "redis":
		return NewRedisStore(ctx, opts.Redis)
	default:
		return nil, fmt.Errorf("prefs: unknown backend %q", opts.Backend)
	}
}

// Load resolves the starting theme. An explicit override wins over the store,
// and a store error falls back to the terminal background.
func Load(ctx context.Context, store Store, override string, systemDark bool) Theme {
	if override != "" {
		if t, err := ParseTheme(override); err == nil {
			return t
		}
	}
	if store == nil {
		return Resolve("", false, systemDark)
	}
	saved, ok, err := store.Theme(ctx)
	if err != nil {
		return Resolve("", false, systemDark)
	}
	return Resolve(saved, ok, systemDark)
}
