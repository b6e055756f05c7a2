package controller

import (
	"net/http"
	"valentine_week_backend/internal/util"
	"valentine_week_backend/pkg/database"
	"valentine_week_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const apiMessage = "Valentine's Week App API"

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Redis: rdb}
}

// Index godoc
// @Summary API 根路径
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func (c *HealthController) Index(ctx *gin.Context) {
	util.Document(ctx, gin.H{"message": apiMessage})
}

// @Summary 健康检查
// @Description 检查数据库和 Redis 状态
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	// 检查数据库连接
	if err := database.Ping(c.DB); err != nil {
		logger.Log.Error("Database health check failed", zap.Error(err))
		util.Error(ctx, http.StatusServiceUnavailable, util.KindInternal, "Database unavailable")
		return
	}

	components := gin.H{"database": "up"}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx.Request.Context()).Err(); err != nil {
			logger.Log.Error("Redis health check failed", zap.Error(err))
			util.Error(ctx, http.StatusServiceUnavailable, util.KindInternal, "Redis unavailable")
			return
		}
		components["redis"] = "up"
	}

	util.Document(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
