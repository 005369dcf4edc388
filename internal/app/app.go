package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edforge_backend/internal/config"
	"edforge_backend/internal/controller"
	"edforge_backend/internal/repository"
	"edforge_backend/internal/service"
	"edforge_backend/pkg/database"
	"edforge_backend/pkg/logger"
	"edforge_backend/pkg/monitoring"
	"edforge_backend/pkg/security"
	"edforge_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	content    *repository.ContentRepository
	progress   *repository.ProgressRepository
	attempt    *repository.AttemptRepository
	submission *repository.SubmissionRepository
}

type services struct {
	storage    service.StorageProvider
	aggregator *service.AggregatorService
	progress   *service.ProgressService
	attempt    *service.AttemptService
	submission *service.SubmissionService
}

type controllers struct {
	progress   *controller.ProgressController
	attempt    *controller.AttemptController
	submission *controller.SubmissionController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		content:    repository.NewContentRepository(db),
		progress:   repository.NewProgressRepository(db),
		attempt:    repository.NewAttemptRepository(db),
		submission: repository.NewSubmissionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	storage, err := service.NewStorageService(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	s.storage = storage

	cacheTTL := time.Duration(cfg.Engine.AggregateCacheTTLSecs) * time.Second
	s.aggregator = service.NewAggregatorService(repos.content, repos.progress, rdb, cacheTTL)
	s.progress = service.NewProgressService(repos.content, repos.progress, s.aggregator)
	s.attempt = service.NewAttemptService(repos.content, repos.attempt, s.progress, cfg.Engine)
	s.submission = service.NewSubmissionService(repos.content, repos.submission, s.storage, s.progress, cfg.Engine)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		progress:   controller.NewProgressController(s.progress),
		attempt:    controller.NewAttemptController(s.attempt),
		submission: controller.NewSubmissionController(s.submission),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())

	// bound every store call behind the request; writes time out and
	// report failure rather than hang
	writeTimeout := time.Duration(cfg.Engine.ProgressWriteTimeoutMs) * time.Millisecond
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), writeTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
}

// ApplyEngineConfig swaps in reloaded engine thresholds. New attempts
// and grades pick them up; in-flight requests finish on the old ones.
func (a *App) ApplyEngineConfig(engine config.EngineConfig) {
	a.services.attempt.Engine = engine
	a.services.submission.Engine = engine
	a.services.aggregator.CacheTTL = time.Duration(engine.AggregateCacheTTLSecs) * time.Second
	logger.Log.Info("Engine config reloaded",
		zap.Int("examPassingThreshold", engine.ExamPassingThreshold),
		zap.Int("quizPassingThreshold", engine.QuizPassingThreshold),
		zap.Int("assignmentPassPercent", engine.AssignmentPassPercent))
}

// startBackgroundTasks runs the attempt sweeper: attempts whose time
// budget ran out are auto-submitted server-side even if the client
// never came back.
func (a *App) startBackgroundTasks(s *services) {
	interval := time.Duration(a.Config.Engine.SweepIntervalSeconds) * time.Second
	go func() {
		ticker := time.NewTicker(interval)
		for range ticker.C {
			if err := s.attempt.SweepExpired(); err != nil {
				logger.Log.Error("attempt sweep error", zap.Error(err))
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		_, err := tracing.InitTracer("assessment-engine", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
