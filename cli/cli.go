// Package cli is the scriptable front-end: one-shot chat, document management
// and uploads against the same backend the TUI talks to.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"knowledge-center/api"
	"knowledge-center/prefs"
)

// ErrUsage marks errors caused by bad arguments.
var ErrUsage = errors.New("usage error")

const usageText = `kb - knowledge base client

Usage:
  kb [global flags]                      Start the terminal UI
  kb chat [--raw] <message...>           Ask a question
  kb docs list [--json]                  List documents
  kb docs edit <id> [--name N] [--category C] [--description D]
                                         Change document metadata
  kb docs rename <id> <name>             Change the display name
  kb docs rm <id> [--yes]                Delete a document
  kb upload [--name N] [--id ID] <path|glob>...
                                         Upload .pdf/.pptx files (globs like docs/**/*.pdf)
  kb upload --watch <dir>                Upload new files as they appear
  kb status                              Check the backend
  kb theme [light|dark]                  Show or set the saved theme

Global flags:
  --config PATH      config file (default: $KB_CONFIG or the user config dir)
  --api URL          backend base URL (default: http://localhost:8080/api)
  --log-level LEVEL  debug, info, warn or error
`

// Global holds the flags that come before the command.
type Global struct {
	ConfigPath string
	APIURL     string
	LogLevel   string
}

// ParseGlobal splits global flags from the command and its arguments.
func ParseGlobal(args []string) (Global, []string, error) {
	var g Global
	fs := flag.NewFlagSet("kb", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&g.ConfigPath, "config", "", "config file")
	fs.StringVar(&g.APIURL, "api", "", "backend base URL")
	fs.StringVar(&g.LogLevel, "log-level", "", "log level")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return g, []string{"help"}, nil
		}
		return g, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return g, fs.Args(), nil
}

// Env is what commands run against.
type Env struct {
	Client *api.Client
	Store  prefs.Store
	// SystemDark reports the terminal background for kb theme.
	SystemDark    bool
	MarkdownStyle string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}

// Run executes one command. args starts with the command name.
func Run(ctx context.Context, env *Env, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command", ErrUsage)
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "chat", "ask":
		return runChat(ctx, env, rest)
	case "docs", "documents":
		return runDocs(ctx, env, rest)
	case "upload":
		return runUpload(ctx, env, rest)
	case "status":
		return runStatus(ctx, env, rest)
	case "theme":
		return runTheme(ctx, env, rest)
	case "help", "-h", "--help":
		fmt.Fprint(env.Stdout, usageText)
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
}

// Usage writes the help text.
func Usage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// parseFlags parses fs allowing flags after positional arguments, which the
// flag package alone does not.
func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	fs.SetOutput(io.Discard)
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUsage, err)
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if rest[0] == "--" {
			return append(positional, rest[1:]...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func usagef(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, a...))
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
