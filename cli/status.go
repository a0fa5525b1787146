package cli

import (
	"context"
	"fmt"

	"knowledge-center/api"
	"knowledge-center/prefs"
)

func runStatus(ctx context.Context, env *Env, args []string) error {
	if len(args) > 0 {
		return usagef("kb status takes no arguments")
	}
	fmt.Fprintf(env.Stdout, "Backend:   %s\n", env.Client.BaseURL())

	if err := env.Client.Ping(ctx); err != nil {
		switch {
		case api.IsConnection(err):
			fmt.Fprintln(env.Stdout, "Status:    unreachable")
		case api.StatusCode(err) != 0:
			fmt.Fprintf(env.Stdout, "Status:    error (HTTP %d)\n", api.StatusCode(err))
		default:
			fmt.Fprintln(env.Stdout, "Status:    error")
		}
		return err
	}
	fmt.Fprintln(env.Stdout, "Status:    online")

	docs, err := env.Client.ListDocuments(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Documents: %d\n", len(docs))
	return nil
}

func runTheme(ctx context.Context, env *Env, args []string) error {
	if env.Store == nil {
		return fmt.Errorf("no preference store configured")
	}

	switch len(args) {
	case 0:
		saved, ok, err := env.Store.Theme(ctx)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(env.Stdout, "%s (saved)\n", saved)
			return nil
		}
		fmt.Fprintf(env.Stdout, "%s (terminal default)\n", prefs.Resolve("", false, env.SystemDark))
		return nil
	case 1:
		theme, err := prefs.ParseTheme(args[0])
		if err != nil {
			return usagef("%v", err)
		}
		if err := env.Store.SetTheme(ctx, theme); err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "Theme set to %s\n", theme)
		return nil
	}
	return usagef("kb theme [light|dark]")
}
