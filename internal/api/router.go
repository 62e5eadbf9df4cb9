package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wfunc/secret-mission/internal/config"
	"github.com/wfunc/secret-mission/internal/game"
	"github.com/wfunc/secret-mission/internal/logger"
	"github.com/wfunc/secret-mission/internal/middleware"
	"github.com/wfunc/secret-mission/internal/service"
	"github.com/wfunc/secret-mission/internal/websocket"
)

// Router API路由器
type Router struct {
	engine         *gin.Engine
	db             *gorm.DB
	gameHandler    *GameHandler
	missionHandler *MissionHandler
	playerHandler  *PlayerHandler
	authHandler    *AuthHandler
	authMiddleware *middleware.AuthMiddleware
	wsHandler      *websocket.Handler
	log            *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(
	db *gorm.DB,
	gameService *game.Service,
	services *service.Services,
	wsHandler *websocket.Handler,
	cfg *config.Config,
) *Router {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())

	router := &Router{
		engine:         engine,
		db:             db,
		gameHandler:    NewGameHandler(gameService, cfg),
		missionHandler: NewMissionHandler(gameService),
		playerHandler:  NewPlayerHandler(gameService),
		authHandler:    NewAuthHandler(services.Auth),
		authMiddleware: middleware.NewAuthMiddleware(services.Auth),
		wsHandler:      wsHandler,
		log:            logger.GetModuleLogger("api"),
	}

	router.setupRoutes()
	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	api := r.engine.Group("/api")
	{
		games := api.Group("/games")
		{
			games.POST("/create", r.gameHandler.CreateGame)
			games.POST("/join", r.gameHandler.JoinGame)
			games.GET("/:gameId", r.gameHandler.GetGame)
			games.POST("/:gameId/end", r.gameHandler.EndGame)
			games.GET("/:gameId/qr", r.gameHandler.GameQR)
		}

		missions := api.Group("/missions")
		{
			missions.POST("/submit", r.missionHandler.SubmitMission)
			missions.GET("/player/:playerId", r.missionHandler.GetPlayerMission)
		}

		players := api.Group("/players")
		{
			players.POST("/:playerId/action", r.playerHandler.PlayerAction)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)

			authRequired := auth.Group("")
			authRequired.Use(r.authMiddleware.RequireAuth())
			{
				authRequired.GET("/profile", r.authHandler.GetProfile)
			}
		}
	}

	// WebSocket路由
	if r.wsHandler != nil {
		r.engine.GET("/ws", r.wsHandler.Handle)
	}

	// API文档（仅在 -tags swagger 时启用UI）
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// requestLogger 请求日志中间件
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogRequest(c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	sqlDB, err := r.db.DB()
	if err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// Run 运行服务器
func (r *Router) Run(addr string) error {
	r.log.Info("Starting API server", zap.String("address", addr))
	return r.engine.Run(addr)
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
