package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hospital-records/config"
	deliveryHttp "hospital-records/internal/delivery/http"
	"hospital-records/internal/delivery/http/handler"
	"hospital-records/internal/delivery/http/middleware"
	"hospital-records/internal/infrastructure/cache"
	"hospital-records/internal/infrastructure/database"
	"hospital-records/internal/infrastructure/metrics"
	"hospital-records/internal/repository"
	"hospital-records/internal/service"
	"hospital-records/internal/usecase"
	"hospital-records/pkg/jwt"
	"hospital-records/pkg/validator"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config       *config.Config
	DB           *gorm.DB
	RedisClient  *redis.Client
	Server       *http.Server
	Log          *logrus.Logger
	SequenceLock *service.SequenceLockService
	MajorityScan *service.MajorityScanService
}

// LoadConfig reads the configuration and configures the global logger from it.
func LoadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	setupLogger(cfg.LogLevel)
	logrus.Info("Configuration loaded successfully")
	return cfg, nil
}

// New creates a new App instance with all dependencies initialized
func New(configPath string) (*App, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Log:    logrus.StandardLogger(),
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Initialize Redis (optional)
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	// Initialize all layers
	if err := app.initialize(); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

func (app *App) initialize() error {
	cfg := app.Config
	log := app.Log
	now := time.Now

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	tx := database.NewTransactor(app.DB)
	employeeRepo := repository.NewEmployeeRepository()
	patientRepo := repository.NewPatientRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	identityMetrics := metrics.NewIdentityMetrics()
	app.SequenceLock = service.NewSequenceLockService(app.RedisClient, log, cfg.Identity.LockTTL, cfg.Identity.LockWait)
	validationService := service.NewValidationService(patientRepo, now)
	duplicateChecker := service.NewDuplicateChecker(employeeRepo, patientRepo)
	identifierService := service.NewIdentifierService(employeeRepo, patientRepo, now)
	auditService := service.NewAuditService(log, auditLogRepo)

	app.MajorityScan = service.NewMajorityScanService(tx, patientRepo, identityMetrics, log, now)
	if err := app.MajorityScan.Start(cfg.Jobs.MajorityScanCron); err != nil {
		return err
	}

	// Initialize usecases
	employeeUsecase := usecase.NewEmployeeUsecase(tx, log, employeeRepo, validationService, duplicateChecker,
		identifierService, app.SequenceLock, auditService, identityMetrics, now, cfg.Identity.MaxKeyAttempts)
	patientUsecase := usecase.NewPatientUsecase(tx, log, patientRepo, validationService, duplicateChecker,
		identifierService, app.SequenceLock, auditService, identityMetrics, now, cfg.Identity.MaxKeyAttempts)
	auditLogUsecase := usecase.NewAuditLogUsecase(tx, log, auditLogRepo)

	// Initialize handlers
	employeeHandler := handler.NewEmployeeHandler(employeeUsecase, customValidator)
	patientHandler := handler.NewPatientHandler(patientUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)
	healthHandler := handler.NewHealthHandler(app.DB, app.RedisClient)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, app.RedisClient)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigin)
	loggingMiddleware := middleware.NewLoggingMiddleware(log)

	// Initialize router
	router := deliveryHttp.NewRouter(employeeHandler, patientHandler, auditLogHandler, healthHandler,
		identityMetrics.Handler(), authMiddleware, corsMiddleware, loggingMiddleware)

	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close stops background jobs, then closes database and redis connections.
func (app *App) Close() {
	if app.MajorityScan != nil {
		app.MajorityScan.Stop()
	}
	if app.SequenceLock != nil {
		app.SequenceLock.Stop()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}

// IssueToken signs an access token for an operator. When Redis is
// configured the token is registered so the auth middleware accepts it.
func IssueToken(cfg *config.Config, userID uuid.UUID, email, role string) (string, error) {
	jwtService := jwt.NewJWTService(cfg.JWT)
	token, tokenID, err := jwtService.GenerateAccessToken(userID, email, role)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return "", err
	}
	if redisClient == nil {
		return token, nil
	}
	defer redisClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	key := middleware.AccessTokenKey(userID, tokenID)
	if err := redisClient.Set(ctx, key, email, jwtService.GetAccessExpiry()).Err(); err != nil {
		return "", fmt.Errorf("failed to register token: %w", err)
	}
	return token, nil
}
