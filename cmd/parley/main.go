// Command parley is a terminal chat client with account sign-in.
//
// Usage:
//
//	FIREBASE_API_KEY=... parley [flags] [command]
//
// Commands:
//
//	chat      Open the chat interface (default)
//	login     Sign in from the command line
//	register  Create an account from the command line
//	logout    Forget the stored session
//	whoami    Show the signed-in user
//
// Flags:
//
//	-config string     Path to config file (default: ~/.parley/config.toml)
//	-dir string        Data directory (default: ~/.parley)
//	-store string      Session store: json, sqlite
//	-backend string    Chat backend: remote, gemini
//	-chat-url string   Base URL of the remote chat service
//	-model string      Gemini model ID
//	-log-level string  Log level: debug, info, warn, error
//	-cooldown duration Pause enforced after each reply
//
// Settings are resolved from defaults, the config file, a .env file in the
// working directory, the environment (PARLEY_*, FIREBASE_API_KEY,
// GEMINI_API_KEY) and flags, each overriding the previous.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fwojciec/parley"
	bt "github.com/fwojciec/parley/bubbletea"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fl, args, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	command := "chat"
	switch len(args) {
	case 0:
	case 1:
		command = args[0]
	default:
		return fmt.Errorf("unexpected arguments: %v", args[1:])
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dotenv, err := godotenv.Read(".env")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := resolveConfig(home, fl, dotenv, os.Environ())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Info("starting", "command", command, "store", cfg.Store, "backend", cfg.Backend)

	c, err := wire(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	switch command {
	case "chat":
		return runChat(ctx, c)
	case "login":
		auth, err := c.authenticator()
		if err != nil {
			return err
		}
		return login(ctx, newTerminalPrompter(), auth, c.sessions, os.Stdout)
	case "register":
		auth, err := c.authenticator()
		if err != nil {
			return err
		}
		return register(ctx, newTerminalPrompter(), auth, c.sessions, os.Stdout)
	case "logout":
		return logout(c.sessions, os.Stdout)
	case "whoami":
		return whoami(c.sessions, os.Stdout)
	default:
		return fmt.Errorf("unknown command %q: must be chat, login, register, logout or whoami", command)
	}
}

func runChat(ctx context.Context, c *components) error {
	auth, err := c.authenticator()
	if err != nil {
		return err
	}
	chat, err := c.chatService(ctx)
	if err != nil {
		return err
	}
	app := bt.New(ctx, bt.Config{
		Sessions:           c.sessions,
		Auth:               auth,
		Chat:               chat,
		Theme:              parley.DefaultTheme(),
		Cooldown:           c.cfg.Cooldown,
		TypewriterInterval: c.cfg.Typewriter,
	})
	if err := bt.Run(ctx, app, c.watch()); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

// openLogger writes structured logs to the log file; the TUI owns the
// terminal.
func openLogger(cfg Config) (*slog.Logger, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parley: logging disabled: %v\n", err)
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}
