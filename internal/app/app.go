package app

import (
	"context"
	"edu_collaborate_backend/internal/config"
	"edu_collaborate_backend/internal/controller"
	"edu_collaborate_backend/internal/repository"
	"edu_collaborate_backend/internal/service"
	"edu_collaborate_backend/pkg/database"
	"edu_collaborate_backend/pkg/logger"
	"edu_collaborate_backend/pkg/monitoring"
	"edu_collaborate_backend/pkg/security"
	"edu_collaborate_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	classroom  *repository.ClassroomRepository
	assignment *repository.AssignmentRepository
	submission *repository.SubmissionRepository
	quiz       *repository.QuizRepository
}

type services struct {
	auth       *service.AuthService
	user       *service.UserService
	classroom  *service.ClassroomService
	storage    *service.StorageService
	ai         *service.AIService
	extraction *service.ExtractionService
	assignment *service.AssignmentService
	attempt    *service.AttemptService
	review     *service.ReviewService
	quiz       *service.QuizService
	notifyHub  *service.NotifyHub
}

type controllers struct {
	auth         *controller.AuthController
	user         *controller.UserController
	assignment   *controller.AssignmentController
	attempt      *controller.AttemptController
	review       *controller.ReviewController
	quiz         *controller.QuizController
	notification *controller.NotificationController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置文件热更新入口，依次执行已注册的回调
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("Configuration reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		classroom:  repository.NewClassroomRepository(db),
		assignment: repository.NewAssignmentRepository(db),
		submission: repository.NewSubmissionRepository(db),
		quiz:       repository.NewQuizRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.ai = service.NewAIService(cfg.AI)
	s.extraction = service.NewExtractionService(s.ai, cfg.Extraction)

	s.auth = service.NewAuthService(repos.user, repos.classroom, cfg)
	s.user = service.NewUserService(repos.user, repos.classroom)
	s.classroom = service.NewClassroomService(repos.classroom)

	s.assignment = service.NewAssignmentService(repos.assignment, repos.classroom)
	s.attempt = service.NewAttemptService(repos.assignment, repos.submission, s.extraction, s.storage, rdb, cfg.Extraction)
	s.quiz = service.NewQuizService(repos.quiz, repos.classroom)

	s.notifyHub = service.NewNotifyHub(rdb)
	go s.notifyHub.Run()

	s.review = service.NewReviewService(repos.assignment, repos.submission, s.ai, s.notifyHub)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		user:         controller.NewUserController(s.user, s.classroom),
		assignment:   controller.NewAssignmentController(s.assignment),
		attempt:      controller.NewAttemptController(s.attempt),
		review:       controller.NewReviewController(s.review),
		quiz:         controller.NewQuizController(s.quiz),
		notification: controller.NewNotificationController(s.notifyHub),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 6000
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

	// AI 接入参数支持热更新，其余配置需重启生效
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		services.ai.SetConfig(newCfg.AI)
	})
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("edu-collaborate", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

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

	if a.services != nil && a.services.notifyHub != nil {
		a.services.notifyHub.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
