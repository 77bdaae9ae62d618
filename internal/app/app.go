package app

import (
	"fmt"
	"strings"
	"time"

	"bookreviews/pkg/ai"
	"bookreviews/pkg/events"
	"bookreviews/pkg/storage"
	"bookreviews/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	SessionTTL    time.Duration

	PublicObjectURL string

	// Pre-built collaborators override the defaults above. Tests inject
	// in-memory implementations here.
	Store     store.Store
	Sessions  store.SessionStore
	Generator ai.TextGenerator
	Objects   storage.ObjectStore
	Events    events.Publisher
}

// App is the core application service wiring storage, sessions, the
// completion collaborator, object storage, and the event publisher.
type App struct {
	store     store.Store
	sessions  store.SessionStore
	generator ai.TextGenerator
	objects   storage.ObjectStore
	events    events.Publisher

	publicObjectURL string
}

// New constructs the application. Store and session fallbacks are built from
// DatabaseURL/JWTSecret when not injected.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return nil, fmt.Errorf("jwt secret required")
		}
		var revoker store.TokenRevoker
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
		} else {
			revoker = store.NewMemoryTokenRevoker()
		}
		sessionStore = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL, revoker)
	}

	publisher := cfg.Events
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &App{
		store:           dataStore,
		sessions:        sessionStore,
		generator:       cfg.Generator,
		objects:         cfg.Objects,
		events:          publisher,
		publicObjectURL: strings.TrimRight(cfg.PublicObjectURL, "/"),
	}, nil
}
