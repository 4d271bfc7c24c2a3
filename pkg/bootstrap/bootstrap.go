// Package bootstrap wires configuration, logging and shared clients for the
// classification pipeline.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/cache"
	infrasentry "github.com/nnatashok/vsp-poc-1-sub000/pkg/infrastructure/sentry"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/llm"
)

// Toggles enables or disables individual classifier stages.
type Toggles struct {
	Category     bool
	FitnessLevel bool
	Vibe         bool
	Spirit       bool
	Equipment    bool
}

// Config holds the full run configuration. Flags take precedence; unset flags
// fall back to environment variables.
type Config struct {
	InputPath         string
	OutputPath        string
	CacheDir          string
	EmbeddingCacheDir string

	MaxWorkouts  int
	NumProcesses int

	Stages          Toggles
	IncludeImage    bool
	EnableWebSearch bool
	ForceRefresh    bool
	SkipEmbeddings  bool

	Model string

	OpenAIAPIKey        string
	YouTubeAPIKey       string
	SpotifyClientID     string
	SpotifyClientSecret string
	SentryDSN           string
}

// LoadEnv reads a .env file when present and fills credential fields from the
// environment.
func (c *Config) LoadEnv() {
	_ = godotenv.Load()

	c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	c.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")
	c.SpotifyClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	c.SpotifyClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	c.SentryDSN = os.Getenv("SENTRY_DSN")
	if c.Model == "" {
		c.Model = os.Getenv("OPENAI_MODEL")
	}
	if c.Model == "" {
		c.Model = openai.GPT4o
	}
	if c.NumProcesses <= 0 {
		c.NumProcesses = envInt("NUM_PROCESSES", 4)
	}
}

// Validate checks the startup-fatal conditions: missing credentials, an
// unreadable input or an unwritable output.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache dir is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if _, err := os.Stat(c.InputPath); err != nil {
		return fmt.Errorf("input not readable: %w", err)
	}
	f, err := os.OpenFile(c.OutputPath, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("output not writable: %w", err)
	}
	f.Close()
	return nil
}

// Service holds initialized dependencies shared by all workers. Workers never
// mutate it after construction.
type Service struct {
	Executor *llm.Executor
	Cache    *cache.Store
	HTTP     *http.Client
	Config   *Config
}

// NewService initializes logging, sentry, the OpenAI client and the cache
// store.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	InitLogger()
	log := slog.With("component", "bootstrap")

	if err := infrasentry.Init(infrasentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: os.Getenv("SENTRY_ENVIRONMENT"),
	}, log); err != nil {
		log.Warn("Sentry init failed, continuing without it", "error", err)
	}

	store, err := cache.NewStore(cfg.CacheDir, cfg.ForceRefresh)
	if err != nil {
		return nil, fmt.Errorf("cache init: %w", err)
	}

	client := openai.NewClient(cfg.OpenAIAPIKey)

	log.Info("Service initialized",
		"cache_dir", cfg.CacheDir,
		"model", cfg.Model,
		"processes", cfg.NumProcesses,
	)

	return &Service{
		Executor: llm.NewExecutor(client, cfg.Model),
		Cache:    store,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
		Config:   cfg,
	}, nil
}

// GetSlogHandlerOptions returns the standard handler options.
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{Level: level}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message
type ComponentHandler struct {
	slog.Handler
	component string
}

// WithGroup implements slog.Handler
func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{
		Handler:   h.Handler.WithGroup(name),
		component: h.component,
	}
}

// WithAttrs implements slog.Handler
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newComp := h.component
	for _, a := range attrs {
		if a.Key == "component" {
			newComp = a.Value.String()
		}
	}
	return &ComponentHandler{
		Handler:   h.Handler.WithAttrs(attrs),
		component: newComp,
	}
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	comp := h.component

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			comp = a.Value.String()
			return false // stop
		}
		return true
	})

	if comp != "" {
		newMsg := fmt.Sprintf("[%s] %s", comp, r.Message)
		newRecord := slog.NewRecord(r.Time, r.Level, newMsg, r.PC)
		r.Attrs(func(a slog.Attr) bool {
			newRecord.AddAttrs(a)
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

// InitLogger configures structured JSON logging. LOG_LEVEL selects the level.
func InitLogger() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewJSONHandler(os.Stderr, GetSlogHandlerOptions(level))
	slog.SetDefault(slog.New(&ComponentHandler{Handler: handler}))
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
