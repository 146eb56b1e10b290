package config

import (
	"context"
	"log"
	"os"
	"time"

	"pong-platform/backend/internal/auth"
	"pong-platform/backend/internal/challenge"
	"pong-platform/backend/internal/db"
	"pong-platform/backend/internal/gamesession"
	"pong-platform/backend/internal/locks"
	"pong-platform/backend/internal/notify"
	"pong-platform/backend/internal/recovery"
	redisClient "pong-platform/backend/internal/redis"
	"pong-platform/backend/internal/server/matchmaking"
	wsgate "pong-platform/backend/internal/server/websocket"
	"pong-platform/backend/internal/social"
	"pong-platform/backend/internal/tournament"
)

// AppConfig holds every service dependency the HTTP/WS routers wire up.
type AppConfig struct {
	Database    *db.DB
	Redis       *redisClient.Client
	LockManager *locks.LockManager

	AuthService *auth.Service
	Social      *social.Store
	Hub         *notify.Hub
	Sessions    *gamesession.Registry
	Gateway     *wsgate.Gateway
	Matcher     *matchmaking.Matcher
	Challenge   *challenge.Service
	Tournament  *tournament.Service
	Recovery    *recovery.Recovery
}

// GetEnv returns an environment variable value or a fallback.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// AuthConfig controls the token lifecycle parameters sourced from
// environment, kept separate from db/redis Config so cmd/server's
// LoadConfig can build it without importing internal/auth itself.
type AuthConfig struct {
	JWTSecret    string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	CookieSecure bool
	CookieDomain string
}

// InitializeServices wires every component in SPEC_FULL.md's dependency
// graph: persistence and locking first, then the domain services that
// depend on them, in the order each needs its collaborators to already
// exist.
func InitializeServices(dbConfig db.Config, redisConfig redisClient.Config, authConfig AuthConfig) (*AppConfig, error) {
	database, err := db.New(dbConfig)
	if err != nil {
		return nil, err
	}

	redis, err := redisClient.New(redisConfig)
	if err != nil {
		return nil, err
	}

	lockManager := locks.NewLockManager(redis.Client)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if cleaned, err := lockManager.CleanupOrphanedLocks(ctx); err != nil {
		log.Printf("[LOCK] warning: failed to cleanup orphaned locks on startup: %v", err)
	} else if cleaned > 0 {
		log.Printf("[LOCK] cleaned up %d orphaned locks on startup", cleaned)
	}

	authService := auth.NewService(authConfig.JWTSecret, database.DB, auth.Config{
		AccessTTL:    authConfig.AccessTTL,
		RefreshTTL:   authConfig.RefreshTTL,
		CookieSecure: authConfig.CookieSecure,
		CookieDomain: authConfig.CookieDomain,
	})

	socialStore := social.NewStore(database.DB)
	sessions := gamesession.NewRegistry()
	hub := notify.NewHub(socialStore.FriendIDs)
	gateway := wsgate.NewGateway(hub, sessions)
	matcher := matchmaking.NewMatcher(database.DB, lockManager, sessions, hub, gateway, socialStore)
	gateway.SetMatcher(matcher)
	challengeService := challenge.NewService(database.DB, hub, socialStore, sessions, gateway)
	hub.CancelPendingRequests = challengeService.CancelPendingForDisconnect
	tournamentService := tournament.NewService(database.DB, sessions, gateway, hub, socialStore)
	tableRecovery := recovery.New(database.DB)

	cfg := &AppConfig{
		Database:    database,
		Redis:       redis,
		LockManager: lockManager,
		AuthService: authService,
		Social:      socialStore,
		Hub:         hub,
		Sessions:    sessions,
		Gateway:     gateway,
		Matcher:     matcher,
		Challenge:   challengeService,
		Tournament:  tournamentService,
		Recovery:    tableRecovery,
	}

	return cfg, nil
}

// RecoverOnStartup forfeits any match left STARTED by a crashed
// process, since a Pong match has no resumable mid-point to restore.
func (cfg *AppConfig) RecoverOnStartup() {
	log.Println("[RECOVERY] starting orphaned-game sweep")
	if err := cfg.Recovery.ForfeitOrphanedGames(); err != nil {
		log.Printf("[RECOVERY] warning: %v", err)
	}
	log.Println("[RECOVERY] sweep complete")
}

// Cleanup releases resources on shutdown.
func (cfg *AppConfig) Cleanup() {
	log.Println("[SERVER] cleaning up resources")
	if cfg.Redis != nil {
		if err := cfg.Redis.Close(); err != nil {
			log.Printf("[SERVER] error closing redis connection: %v", err)
		}
	}
	if cfg.Database != nil {
		if err := cfg.Database.Close(); err != nil {
			log.Printf("[SERVER] error closing database connection: %v", err)
		}
	}
	log.Println("[SERVER] cleanup complete")
}
