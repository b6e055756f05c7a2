package app

import (
	"valentine_week_backend/docs"
	"valentine_week_backend/internal/config"
	"valentine_week_backend/internal/middleware"
	"valentine_week_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 进度接口，启用鉴权时 token 必须属于路径中的用户
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(&cfg.Auth, cfg.Progress.DefaultUserID))
	{
		a.registerProgressRoutes(authGroup, c)

		// 旧版单用户接口
		a.registerLegacyRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/", c.health.Index)
		public.GET("/health", c.health.HealthCheck)
		public.GET("/days", c.day.ListDays)
	}
}

func (a *App) registerProgressRoutes(group *gin.RouterGroup, c *controllers) {
	progress := group.Group("/progress/:user_id")
	{
		progress.GET("", c.progress.GetProgress)
		progress.POST("", c.progress.InitProgress)
		progress.POST("/complete/:day_number", c.progress.CompleteDay)
		progress.PUT("/replay", c.progress.SetReplayMode)
		progress.POST("/reset", c.progress.ResetProgress)
		progress.GET("/history", c.progress.GetHistory)
		progress.GET("/ws", c.progress.Subscribe)
	}
}

func (a *App) registerLegacyRoutes(group *gin.RouterGroup, c *controllers) {
	group.GET("/progress", c.progress.GetDefaultProgress)
	group.POST("/progress/complete", c.progress.CompleteDefaultDay)
	group.POST("/progress/reset", c.progress.ResetDefaultProgress)
}
