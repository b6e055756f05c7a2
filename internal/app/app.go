package app

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	"valentine_week_backend/internal/config"
	"valentine_week_backend/internal/controller"
	"valentine_week_backend/internal/middleware"
	"valentine_week_backend/internal/repository"
	"valentine_week_backend/internal/service"
	"valentine_week_backend/pkg/configwatcher"
	"valentine_week_backend/pkg/database"
	"valentine_week_backend/pkg/logger"
	"valentine_week_backend/pkg/monitoring"
	"valentine_week_backend/pkg/security"
	"valentine_week_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)

	// 结束后台任务（限流清理等）
	stopBackground context.CancelFunc
}

type repositories struct {
	progress *repository.ProgressRepository
	events   *repository.CompletionEventRepository
	cache    repository.ProgressCache
}

type services struct {
	progress *service.ProgressService
	syncHub  *service.SyncHub
}

type controllers struct {
	progress *controller.ProgressController
	day      *controller.DayController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	repos := &repositories{
		progress: repository.NewProgressRepository(db),
		events:   repository.NewCompletionEventRepository(db),
	}
	// 未启用 Redis 时不走缓存
	if rdb != nil {
		repos.cache = repository.NewRedisProgressCache(rdb, cfg.Redis.CacheTTL)
	}
	return repos
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	s := &services{}

	s.progress = service.NewProgressService(repos.progress, repos.events, repos.cache, cfg.Progress)

	s.syncHub = service.NewSyncHub(rdb)
	if err := s.syncHub.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("start sync hub: %w", err)
	}
	s.progress.SetNotifier(s.syncHub)

	return s, nil
}

func (a *App) initControllers(s *services, cfg *config.Config) *controllers {
	return &controllers{
		progress: controller.NewProgressController(s.progress, s.syncHub, &cfg.Progress),
		day:      controller.NewDayController(s.progress),
		health:   controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(ctx context.Context, router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS))
	router.Use(security.Secure())
	if cfg.RateLimit.MaxRequests > 0 {
		limiter := security.NewRateLimiter(cfg.RateLimit)
		go limiter.Run(ctx)
		router.Use(limiter.Middleware())
	}

	router.Use(middleware.RequestID())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func gormLogLevel(cfg *config.Config) gormlogger.LogLevel {
	if cfg.Server.Mode == "debug" {
		return gormlogger.Info
	}
	return gormlogger.Warn
}

// NewApp 初始化日志、存储、服务和路由
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	db, err := database.InitDB(&cfg.Database, gormLogLevel(cfg))
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	rdb, err := database.InitRedis(context.Background(), &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("initialize redis: %w", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb, cfg)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		return nil, err
	}
	app.services = services
	controllers := app.initControllers(services, cfg)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, fmt.Errorf("initialize tracing: %w", err)
		}
		app.tracer = tp
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		router.Use(gin.Logger())
	}
	app.Router = router

	bgCtx, stop := context.WithCancel(context.Background())
	app.stopBackground = stop
	app.setupMiddlewares(bgCtx, router, cfg)
	app.registerRoutes(router, controllers, cfg)

	app.RegisterConfigCallback(logger.SetLevel)

	return app, nil
}

// Close 释放后台资源，Run 退出前调用
func (a *App) Close() {
	if a.stopBackground != nil {
		a.stopBackground()
	}
	if a.services != nil && a.services.syncHub != nil {
		a.services.syncHub.Stop()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

func (a *App) watchConfig(ctx context.Context) {
	if a.Config.ConfigFile == "" {
		return
	}
	go func() {
		err := configwatcher.WatchConfig(ctx, a.Config.ConfigFile, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() error {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a.watchConfig(ctx)

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	select {
	case <-ctx.Done():
	case err := <-errCh:
		a.Close()
		return fmt.Errorf("listen: %w", err)
	}
	logger.Log.Info("Shutting down server...")

	// 先断开 WebSocket，Shutdown 不会等待被劫持的连接
	a.services.syncHub.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	a.Close()
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info("Server exiting")
	return nil
}
