package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/chatapi"
	"github.com/fwojciec/parley/firebase"
	"github.com/fwojciec/parley/fsnotify"
	"github.com/fwojciec/parley/gemini"
	parleyjson "github.com/fwojciec/parley/json"
	"github.com/fwojciec/parley/ratelimit"
	"github.com/fwojciec/parley/sqlite"
	"golang.org/x/time/rate"
)

// components owns the adapters built from a Config.
type components struct {
	cfg       Config
	logger    *slog.Logger
	sessions  parley.SessionStore
	watchPath string
	db        *sqlite.DB
	closers   []func() error
}

// wire builds the session store. Other adapters are created on demand.
func wire(ctx context.Context, cfg Config, logger *slog.Logger) (*components, error) {
	c := &components{cfg: cfg, logger: logger}
	switch cfg.Store {
	case StoreSQLite:
		db, err := c.database(ctx)
		if err != nil {
			return nil, err
		}
		c.sessions = sqlite.NewSessionStore(db)
	default:
		store := parleyjson.NewSessionStore(cfg.SessionPath(), parleyjson.WithLogger(logger))
		c.sessions = store
		c.watchPath = store.Path()
	}
	return c, nil
}

func (c *components) database(ctx context.Context) (*sqlite.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	db, err := sqlite.Open(ctx, c.cfg.DBPath(), sqlite.WithLogger(c.logger))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	c.db = db
	c.closers = append(c.closers, db.Close)
	return db, nil
}

// authenticator returns the identity provider client behind a rate limiter.
func (c *components) authenticator() (parley.Authenticator, error) {
	if err := c.cfg.ValidateAuth(); err != nil {
		return nil, err
	}
	fb := firebase.New(c.cfg.FirebaseAPIKey, firebase.WithLogger(c.logger))
	return ratelimit.New(fb, ratelimit.WithLimit(rate.Limit(c.cfg.AuthRate), c.cfg.AuthBurst)), nil
}

// chatService returns the configured chat backend.
func (c *components) chatService(ctx context.Context) (parley.ChatService, error) {
	if err := c.cfg.ValidateChat(); err != nil {
		return nil, err
	}
	switch c.cfg.Backend {
	case BackendGemini:
		db, err := c.database(ctx)
		if err != nil {
			return nil, err
		}
		var opts []gemini.Option
		if c.cfg.Model != "" {
			opts = append(opts, gemini.WithModel(c.cfg.Model))
		}
		if c.cfg.SystemPrompt != "" {
			opts = append(opts, gemini.WithSystemPrompt(c.cfg.SystemPrompt))
		}
		opts = append(opts, gemini.WithLogger(c.logger))
		backend, err := gemini.New(ctx, c.cfg.GeminiAPIKey, sqlite.NewConversationLog(db), opts...)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return backend, nil
	default:
		sessions := c.sessions
		return chatapi.New(c.cfg.ChatURL,
			chatapi.WithLogger(c.logger),
			chatapi.WithToken(func() string {
				s, err := sessions.Get()
				if err != nil || s == nil {
					return ""
				}
				return s.Token
			}),
		), nil
	}
}

// watch reports changes to the session file. It returns a nil channel when
// the store has no file to watch or the watcher cannot start.
func (c *components) watch() <-chan struct{} {
	if c.watchPath == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher(c.watchPath, fsnotify.WithLogger(c.logger))
	if err != nil {
		c.logger.Warn("session watcher disabled", "path", c.watchPath, "error", err)
		return nil
	}
	c.closers = append(c.closers, w.Close)
	return w.Changes()
}

// Close releases everything wire and the accessors opened, newest first.
func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}
