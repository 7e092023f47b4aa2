package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage and backend choices.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"

	BackendRemote = "remote"
	BackendGemini = "gemini"
)

// Config is the resolved runtime configuration.
type Config struct {
	Dir            string        `toml:"dir"`
	Store          string        `toml:"store"`
	Backend        string        `toml:"backend"`
	ChatURL        string        `toml:"chat_url"`
	FirebaseAPIKey string        `toml:"firebase_api_key"`
	GeminiAPIKey   string        `toml:"gemini_api_key"`
	Model          string        `toml:"model"`
	SystemPrompt   string        `toml:"system_prompt"`
	Cooldown       time.Duration `toml:"cooldown"`
	Typewriter     time.Duration `toml:"typewriter"`
	LogLevel       string        `toml:"log_level"`
	AuthRate       float64       `toml:"auth_rate"`
	AuthBurst      int           `toml:"auth_burst"`
}

// defaultConfig returns the built-in defaults rooted at dir.
func defaultConfig(dir string) Config {
	return Config{
		Dir:        dir,
		Store:      StoreJSON,
		Backend:    BackendRemote,
		Cooldown:   2 * time.Second,
		Typewriter: 15 * time.Millisecond,
		LogLevel:   "info",
		AuthRate:   0.5,
		AuthBurst:  5,
	}
}

// SessionPath is the session file of the json store.
func (c Config) SessionPath() string { return filepath.Join(c.Dir, "session.json") }

// DBPath is the sqlite database file.
func (c Config) DBPath() string { return filepath.Join(c.Dir, "parley.db") }

// LogPath is the log file.
func (c Config) LogPath() string { return filepath.Join(c.Dir, "parley.log") }

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return l, nil
}

// Validate checks the settings every command depends on.
func (c Config) Validate() error {
	var errs []error
	if c.Dir == "" {
		errs = append(errs, errors.New("data directory is not set"))
	}
	switch c.Store {
	case StoreJSON, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q: must be %q or %q", c.Store, StoreJSON, StoreSQLite))
	}
	switch c.Backend {
	case BackendRemote, BackendGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q: must be %q or %q", c.Backend, BackendRemote, BackendGemini))
	}
	if c.Cooldown < 0 {
		errs = append(errs, errors.New("cooldown must not be negative"))
	}
	if c.Typewriter < 0 {
		errs = append(errs, errors.New("typewriter interval must not be negative"))
	}
	if c.AuthRate <= 0 || c.AuthBurst <= 0 {
		errs = append(errs, errors.New("auth rate and burst must be positive"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateChat checks the settings needed to run the chat backend.
func (c Config) ValidateChat() error {
	switch c.Backend {
	case BackendRemote:
		if c.ChatURL == "" {
			return errors.New("chat URL not set (use -chat-url, PARLEY_CHAT_URL or chat_url in the config file)")
		}
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY not set (required by the gemini backend)")
		}
	}
	return nil
}

// ValidateAuth checks the settings needed to sign in.
func (c Config) ValidateAuth() error {
	if c.FirebaseAPIKey == "" {
		return errors.New("FIREBASE_API_KEY not set (use the environment, .env or firebase_api_key in the config file)")
	}
	return nil
}

// loadFile overlays the TOML file at path onto cfg. A missing file is not
// an error.
func loadFile(path string, cfg *Config) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment values onto cfg.
func applyEnv(cfg *Config, env map[string]string) error {
	str := func(key string, dst *string) {
		if v := env[key]; v != "" {
			*dst = v
		}
	}
	str("PARLEY_DIR", &cfg.Dir)
	str("PARLEY_STORE", &cfg.Store)
	str("PARLEY_BACKEND", &cfg.Backend)
	str("PARLEY_CHAT_URL", &cfg.ChatURL)
	str("PARLEY_MODEL", &cfg.Model)
	str("PARLEY_SYSTEM_PROMPT", &cfg.SystemPrompt)
	str("PARLEY_LOG_LEVEL", &cfg.LogLevel)
	str("FIREBASE_API_KEY", &cfg.FirebaseAPIKey)
	str("GEMINI_API_KEY", &cfg.GeminiAPIKey)

	if v := env["PARLEY_COOLDOWN"]; v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("PARLEY_COOLDOWN: %w", err)
		}
		cfg.Cooldown = d
	}
	if v := env["PARLEY_TYPEWRITER"]; v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("PARLEY_TYPEWRITER: %w", err)
		}
		cfg.Typewriter = d
	}
	return nil
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// environ converts os.Environ-style pairs to a map. Later entries win.
func environ(pairs []string, base map[string]string) map[string]string {
	env := make(map[string]string, len(base)+len(pairs))
	for k, v := range base {
		env[k] = v
	}
	for _, p := range pairs {
		if k, v, ok := strings.Cut(p, "="); ok {
			env[k] = v
		}
	}
	return env
}

// flags holds command-line overrides. Only flags that were set apply.
type flags struct {
	config   string
	dir      string
	store    string
	backend  string
	chatURL  string
	model    string
	logLevel string
	cooldown time.Duration
	set      map[string]bool
}

func parseFlags(args []string) (flags, []string, error) {
	fl := flags{set: make(map[string]bool)}
	fs := flag.NewFlagSet("parley", flag.ContinueOnError)
	fs.StringVar(&fl.config, "config", "", "Path to config file (default: ~/.parley/config.toml)")
	fs.StringVar(&fl.dir, "dir", "", "Data directory (default: ~/.parley)")
	fs.StringVar(&fl.store, "store", "", "Session store: json, sqlite")
	fs.StringVar(&fl.backend, "backend", "", "Chat backend: remote, gemini")
	fs.StringVar(&fl.chatURL, "chat-url", "", "Base URL of the remote chat service")
	fs.StringVar(&fl.model, "model", "", "Gemini model ID")
	fs.StringVar(&fl.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.DurationVar(&fl.cooldown, "cooldown", 0, "Pause enforced after each reply")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: parley [flags] [chat|login|register|logout|whoami]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return flags{}, nil, err
	}
	fs.Visit(func(f *flag.Flag) { fl.set[f.Name] = true })
	return fl, fs.Args(), nil
}

func (f flags) apply(cfg *Config) {
	if f.set["dir"] {
		cfg.Dir = f.dir
	}
	if f.set["store"] {
		cfg.Store = f.store
	}
	if f.set["backend"] {
		cfg.Backend = f.backend
	}
	if f.set["chat-url"] {
		cfg.ChatURL = f.chatURL
	}
	if f.set["model"] {
		cfg.Model = f.model
	}
	if f.set["log-level"] {
		cfg.LogLevel = f.logLevel
	}
	if f.set["cooldown"] {
		cfg.Cooldown = f.cooldown
	}
}

// resolveConfig layers defaults, the config file, .env values, the process
// environment and flags, in that order. Env values are passed in; the
// environment is only read in main.
func resolveConfig(home string, fl flags, dotenv map[string]string, osEnv []string) (Config, error) {
	cfg := defaultConfig(filepath.Join(home, ".parley"))
	env := environ(osEnv, dotenv)

	path := fl.config
	if path == "" {
		path = env["PARLEY_CONFIG"]
	}
	if path == "" {
		path = filepath.Join(cfg.Dir, "config.toml")
	}
	if err := loadFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, err
	}
	fl.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
