// @title Valentine's Week 后端 API
// @version 1.0
// @description 情人节周打卡应用的进度服务。

// @host localhost:8001
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"fmt"
	"log"
	"valentine_week_backend/internal/app"
	"valentine_week_backend/internal/config"
	"valentine_week_backend/internal/util"
	"valentine_week_backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	issueToken := flag.String("issue-token", "", "为指定用户签发 JWT 并退出")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *issueToken != "" {
		if !util.ValidUserID(*issueToken) {
			log.Fatalf("invalid user id %q", *issueToken)
		}
		if cfg.Auth.Secret == "" {
			log.Fatal("auth.secret is empty, cannot sign token")
		}
		token, err := util.GenerateJWT(*issueToken, cfg.Auth.Secret, cfg.Auth.ExpireTime)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Println(token)
		return
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer logger.Log.Sync()

	// 迁移在初始化数据库时已完成
	if *migrateOnly {
		application.Close()
		log.Println("数据库迁移完成，退出程序")
		return
	}

	if err := application.Run(); err != nil {
		logger.Log.Error("Server stopped with error", zap.Error(err))
		logger.Log.Sync()
		log.Fatal(err)
	}
}
