package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"knowledge-center/api"
	"knowledge-center/cli"
	"knowledge-center/config"
	"knowledge-center/prefs"
	"knowledge-center/session"
	"knowledge-center/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	global, rest, err := cli.ParseGlobal(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kb: %v\n\n", err)
		cli.Usage(os.Stderr)
		return 2
	}

	cfg, err := config.Load(global.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kb: %v\n", err)
		return 1
	}
	if global.APIURL != "" {
		cfg.API.BaseURL = global.APIURL
	}
	if global.LogLevel != "" {
		cfg.Log.Level = global.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "kb: %v\n", err)
		return 1
	}

	interactive := len(rest) == 0

	// the TUI owns the terminal, so its logs go to a file
	var logOut io.Writer = os.Stderr
	if interactive {
		f, err := openLogFile(cfg.Log.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kb: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	logger := setupLogging(logLevel(cfg.Log.Level, interactive), logOut, interactive)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := api.NewClient(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout(),
		UserAgent: cfg.API.UserAgent,
		Logger:    logger,
	})
	store := openStore(ctx, cfg, logger)
	systemDark := lipgloss.HasDarkBackground()

	if !interactive {
		env := &cli.Env{
			Client:        client,
			Store:         store,
			SystemDark:    systemDark,
			MarkdownStyle: markdownStyle(cfg, prefs.Load(ctx, store, cfg.UI.Theme, systemDark)),
			Stdin:         os.Stdin,
			Stdout:        os.Stdout,
			Stderr:        os.Stderr,
			Logger:        logger,
		}
		if err := cli.Run(ctx, env, rest); err != nil {
			fmt.Fprintf(os.Stderr, "kb: %v\n", err)
			if errors.Is(err, cli.ErrUsage) {
				return 2
			}
			return 1
		}
		return 0
	}

	logger.Info("starting", "api", cfg.API.BaseURL, "config", cfg.Path)

	conv := session.NewConversation(client, logger)
	lib := session.NewLibrary(client, logger)
	up := session.NewUploader(client, logger)
	defer conv.Close()
	defer lib.Close()
	defer up.Close()

	app := tui.New(ctx, tui.Options{
		Conversation:       conv,
		Library:            lib,
		Uploader:           up,
		Theme:              prefs.Load(ctx, store, cfg.UI.Theme, systemDark),
		Store:              store,
		MarkdownStyleDark:  cfg.UI.MarkdownStyleDark,
		MarkdownStyleLight: cfg.UI.MarkdownStyleLight,
		BaseURL:            client.BaseURL(),
		Ping:               client.Ping,
		Logger:             logger,
	})

	program := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error("tui exited", "error", err)
		fmt.Fprintf(os.Stderr, "kb: %v\n", err)
		return 1
	}
	return 0
}

// logLevel fills in the default when no level was configured: the TUI logs
// to a file at info, the CLI keeps stderr quiet at warn.
func logLevel(configured string, interactive bool) string {
	switch {
	case configured != "":
		return configured
	case interactive:
		return "info"
	}
	return "warn"
}

func setupLogging(level string, w io.Writer, asJSON bool) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if asJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// openStore returns the configured preference store, falling back to the
// local file when Redis cannot be reached.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) prefs.Store {
	opts := prefs.Options{
		Backend: cfg.Prefs.Backend,
		Path:    cfg.Prefs.Path,
		Redis: prefs.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Profile:  cfg.Prefs.Profile,
		},
	}
	store, err := prefs.Open(ctx, opts)
	if err == nil {
		return store
	}
	logger.Warn("preference store unavailable, using local file", "backend", opts.Backend, "error", err)
	return prefs.NewFileStore(cfg.Prefs.Path)
}

func markdownStyle(cfg *config.Config, theme prefs.Theme) string {
	if theme.IsDark() {
		return cfg.UI.MarkdownStyleDark
	}
	return cfg.UI.MarkdownStyleLight
}
