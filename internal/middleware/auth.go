package middleware

import (
	"strings"
	"valentine_week_backend/internal/config"
	"valentine_week_backend/internal/util"
	"valentine_week_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func tokenFromRequest(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	// websocket 握手无法带 header，允许走 query
	return c.Query("token")
}

// AuthMiddleware 未启用鉴权时直接放行；启用后要求 token 中的 user_id 与路径一致，
// 路径中没有用户时（旧版单用户接口）与 defaultUserID 比较
func AuthMiddleware(cfg *config.AuthConfig, defaultUserID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.Secret)
		if err != nil {
			logger.Log.Debug("JWT parse failed", zap.Error(err), zap.String("path", c.FullPath()))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		subject := c.Param("user_id")
		if subject == "" {
			subject = defaultUserID
		}
		if subject != claims.UserID {
			util.Forbidden(c)
			c.Abort()
			return
		}

		c.Set(util.ClaimsKey, claims)
		c.Next()
	}
}
