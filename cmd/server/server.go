package main

import (
	"log"
	"time"

	"pong-platform/backend/internal/auth"
	"pong-platform/backend/internal/challenge"
	"pong-platform/backend/internal/db"
	"pong-platform/backend/internal/gamesession"
	"pong-platform/backend/internal/middleware"
	"pong-platform/backend/internal/notify"
	"pong-platform/backend/internal/server/config"
	"pong-platform/backend/internal/server/handlers"
	"pong-platform/backend/internal/server/matchmaking"
	wsgate "pong-platform/backend/internal/server/websocket"
	"pong-platform/backend/internal/social"
	"pong-platform/backend/internal/tournament"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server holds every dependency the router needs; each field is owned
// by internal/server/config.AppConfig and only re-exposed here for the
// handlers that take them directly.
type Server struct {
	cfg Config
	db  *db.DB

	authService *auth.Service
	social      *social.Store
	hub         *notify.Hub
	sessions    *gamesession.Registry
	gateway     *wsgate.Gateway
	matcher     *matchmaking.Matcher
	challenge   *challenge.Service
	tournament  *tournament.Service
	app         *config.AppConfig

	authLimiter *middleware.RateLimiter
}

// NewServer wires every domain service via internal/server/config and
// returns a ready-to-run Server.
func NewServer(cfg Config) (*Server, error) {
	app, err := config.InitializeServices(cfg.DBConfig, redisConfigFromEnv(), cfg.Auth)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:         cfg,
		db:          app.Database,
		authService: app.AuthService,
		social:      app.Social,
		hub:         app.Hub,
		sessions:    app.Sessions,
		gateway:     app.Gateway,
		matcher:     app.Matcher,
		challenge:   app.Challenge,
		tournament:  app.Tournament,
		app:         app,
		authLimiter: middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig),
	}, nil
}

// Run starts the server and blocks until it exits.
func (s *Server) Run() error {
	if err := s.db.AutoMigrate(); err != nil {
		return err
	}

	s.app.RecoverOnStartup()

	if s.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := s.setupRoutes()

	log.Printf("[SERVER] starting on port %s", s.cfg.ServerPort)
	return r.Run(":" + s.cfg.ServerPort)
}

func (s *Server) setupRoutes() *gin.Engine {
	r := gin.Default()

	corsConfig := cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400 * time.Second,
	}
	r.Use(cors.New(corsConfig))

	r.POST("/auth/register", func(c *gin.Context) { handlers.HandleRegister(c, s.db, s.authService) })
	r.POST("/auth/login", s.authLimiter.GinMiddleware(), func(c *gin.Context) { handlers.HandleLogin(c, s.db, s.authService) })
	r.POST("/auth/verify-2fa", s.authLimiter.GinMiddleware(), func(c *gin.Context) { handlers.HandleVerifyTwoFactor(c, s.db, s.authService) })
	r.POST("/auth/logout", func(c *gin.Context) { handlers.HandleLogout(c, s.authService) })

	r.GET("/history/matches/:username", func(c *gin.Context) { handlers.HandleMatchHistory(c, s.db) })

	authorized := r.Group("/")
	authorized.Use(s.authService.GinMiddleware(), auth.RequireAuth())
	{
		authorized.GET("/auth/me", func(c *gin.Context) { handlers.HandleGetCurrentUser(c, s.db) })
		authorized.POST("/auth/2fa/enable", func(c *gin.Context) { handlers.HandleEnableTwoFactor(c, s.db) })
		authorized.POST("/auth/2fa/confirm", func(c *gin.Context) { handlers.HandleConfirmTwoFactor(c, s.db) })

		authorized.POST("/challenge", func(c *gin.Context) { handlers.HandleChallengePlayer(c, s.challenge) })
		authorized.POST("/challenge/:request_id/accept", func(c *gin.Context) { handlers.HandleAcceptChallenge(c, s.challenge) })
		authorized.POST("/challenge/:request_id/reject", func(c *gin.Context) { handlers.HandleRejectChallenge(c, s.challenge) })
		authorized.POST("/challenge/:request_id/cancel", func(c *gin.Context) { handlers.HandleCancelChallenge(c, s.challenge) })

		authorized.POST("/tournament", func(c *gin.Context) { handlers.HandleCreateTournament(c, s.tournament) })
		authorized.GET("/tournament/:id", func(c *gin.Context) { handlers.HandleGetTournament(c, s.tournament) })
	}

	wsAuth := r.Group("/ws")
	wsAuth.Use(wsgate.AuthGate(s.authService))
	{
		wsAuth.GET("/notification", s.gateway.HandleNotification)
		wsAuth.GET("/matchmaking", s.gateway.HandleMatchmaking)
		wsAuth.GET("/tournament", s.gateway.HandleTournament)
		wsAuth.GET("/pong/:game_id", func(c *gin.Context) { s.gateway.HandlePong(c, c.Param("game_id")) })
	}

	return r
}

// Close cleanly shuts down the server.
func (s *Server) Close() error {
	s.authLimiter.Stop()
	s.app.Cleanup()
	return nil
}
