package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/themattbirch/screen-time-guardian/internal/handler"
	"github.com/themattbirch/screen-time-guardian/internal/logging"
	"github.com/themattbirch/screen-time-guardian/internal/middleware"
	"github.com/themattbirch/screen-time-guardian/internal/service"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Timer  *handler.TimerHandler
	Events *handler.EventsHandler
}

func New(
	authService *service.AuthService,
	handlers Handlers,
	corsOrigins []string,
	logger *slog.Logger,
) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	engine := gin.New()
	engine.Use(logging.RequestLogger(logger), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", handlers.Auth.Register)
	auth.POST("/login", handlers.Auth.Login)
	api.GET("/sounds", handlers.Timer.GetSounds)

	authed := api.Group("")
	authed.Use(middleware.Auth(authService))
	authed.GET("/auth/me", handlers.Auth.Me)

	timer := authed.Group("/timer")
	timer.GET("/state", handlers.Timer.GetState)
	timer.POST("/start", handlers.Timer.Start)
	timer.POST("/pause", handlers.Timer.Pause)
	timer.POST("/resume", handlers.Timer.Resume)
	timer.POST("/reset", handlers.Timer.Reset)
	timer.POST("/visibility", handlers.Timer.Visibility)

	authed.GET("/settings", handlers.Timer.GetSettings)
	authed.PUT("/settings", handlers.Timer.UpdateSettings)
	authed.GET("/achievements", handlers.Timer.GetAchievements)
	authed.GET("/statistics", handlers.Timer.GetStatistics)
	authed.POST("/notifications/permission", handlers.Timer.SetNotificationPermission)
	authed.GET("/events", handlers.Events.Stream)

	return engine
}
