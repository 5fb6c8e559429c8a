package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vitalvision/backend/internal/audit"
	"github.com/vitalvision/backend/internal/azure"
	"github.com/vitalvision/backend/internal/config"
	"github.com/vitalvision/backend/internal/handler"
	"github.com/vitalvision/backend/internal/middleware"
	"github.com/vitalvision/backend/internal/notify"
	"github.com/vitalvision/backend/internal/pdf"
	"github.com/vitalvision/backend/internal/reminder"
	"github.com/vitalvision/backend/internal/repository"
	"github.com/vitalvision/backend/internal/security"
	"github.com/vitalvision/backend/internal/service"
	"github.com/vitalvision/backend/pkg/api"
	"go.uber.org/zap"
)

var (
	logger *zap.Logger
	pool   *pgxpool.Pool
	cfg    *config.Config
)

func main() {
	// Load configuration
	var err error
	cfg, err = config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize Zap logger
	logger, err = newLogger(cfg.Server.Environment, cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	ranges, err := cfg.RangeTable()
	if err != nil {
		logger.Fatal("Invalid vital ranges", zap.Error(err))
	}
	schedulerCfg, err := cfg.Reminder.SchedulerConfig()
	if err != nil {
		logger.Fatal("Invalid reminder configuration", zap.Error(err))
	}
	loc := schedulerCfg.Location

	// Initialize database connection pool with pgx
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Invalid database URL", zap.Error(err))
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	pool, err = pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// Test database connection
	if err := pool.Ping(context.Background()); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	logger.Info("Successfully connected to database")

	// Initialize event stream and device broker
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("Redis unreachable, events will be retried per publish", zap.Error(err))
	}
	publisher := notify.NewStreamPublisher(redisClient, cfg.Redis.MaxLen, logger)

	mqttClient, err := notify.NewMQTTClient(cfg.MQTT, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
	}
	defer mqttClient.Disconnect()

	// Initialize Azure clients
	openAIClient, err := azure.NewOpenAIClient(
		cfg.Azure.OpenAI.Endpoint,
		cfg.Azure.OpenAI.APIKey,
		cfg.Azure.OpenAI.Deployment,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to initialize Azure OpenAI client", zap.Error(err))
	}

	speechClient, err := azure.NewSpeechServiceClient(
		cfg.Azure.Speech.SubscriptionKey,
		cfg.Azure.Speech.Region,
		cfg.Azure.Speech.Voice,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to initialize Azure Speech Service client", zap.Error(err))
	}

	blobClient, err := azure.NewBlobStorageClient(
		cfg.Azure.Storage.AccountName,
		cfg.Azure.Storage.AccountKey,
		cfg.Azure.Storage.ReportContainer,
		cfg.Azure.Storage.AnnouncementContainer,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to initialize Azure Blob Storage client", zap.Error(err))
	}

	// Initialize repositories
	patientRepo := repository.NewPatientRepository(pool, logger)
	if key, _ := cfg.Security.Key(); key != nil {
		encryptor, err := security.NewEncryptor(key)
		if err != nil {
			logger.Fatal("Failed to initialize field encryption", zap.Error(err))
		}
		patientRepo.WithSealer(encryptor)
	}
	vitalRepo := repository.NewVitalRepository(pool, logger)
	alertRepo := repository.NewAlertRepository(pool, logger)
	medicationRepo := repository.NewMedicationRepository(pool, logger)
	appointmentRepo := repository.NewAppointmentRepository(pool, logger)
	notificationRepo := repository.NewNotificationRepository(pool, logger)
	reportRepo := repository.NewReportRepository(pool, logger)

	auditLogger := audit.NewLogger(pool, logger)

	// Reminder delivery: the visual channel is primary, voice and haptic
	// feedback follow it
	dispatcher := notify.NewDispatcher(
		cfg.Reminder.MailboxSize,
		30*time.Second,
		logger,
		notify.NewVisualChannel(notificationRepo, publisher, cfg.Redis.ReminderStream, logger),
		notify.NewSpokenChannel(speechClient, blobClient, notificationRepo, cfg.Azure.Speech.Language, logger),
		notify.NewHapticChannel(mqttClient, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS, logger),
	)

	scheduler := reminder.NewScheduler(schedulerCfg, dispatcher, logger)
	if err := service.PrimeScheduler(context.Background(), scheduler, medicationRepo, appointmentRepo, time.Now(), loc, logger); err != nil {
		logger.Fatal("Failed to load reminder schedules", zap.Error(err))
	}

	// Initialize services
	reportDeps := service.ReportDeps{
		Patients:     patientRepo,
		Vitals:       vitalRepo,
		Alerts:       alertRepo,
		Medications:  medicationRepo,
		Appointments: appointmentRepo,
		Reports:      reportRepo,
	}
	patientService := service.NewPatientService(patientRepo, notificationRepo, auditLogger, logger)
	vitalService := service.NewVitalService(vitalRepo, alertRepo, ranges, publisher, cfg.Redis.AlertStream, auditLogger, logger)
	medicationService := service.NewMedicationService(medicationRepo, scheduler, auditLogger, logger)
	appointmentService := service.NewAppointmentService(appointmentRepo, scheduler, auditLogger, loc, logger)
	insightService := service.NewInsightService(openAIClient, patientRepo, vitalRepo, logger)
	reportService := service.NewReportService(reportDeps, blobClient, pdf.NewPDFGenerator(logger), auditLogger, loc, logger)
	privacyService := service.NewPrivacyService(reportDeps, notificationRepo, scheduler, auditLogger, logger)

	// Initialize handlers
	handlers := handler.Handlers{
		Health:      handler.NewHealthHandler(pool, logger),
		Profile:     handler.NewProfileHandler(patientService, privacyService, logger),
		Vital:       handler.NewVitalHandler(vitalService, logger),
		Medication:  handler.NewMedicationHandler(medicationService, logger),
		Appointment: handler.NewAppointmentHandler(appointmentService, logger),
		Insight:     handler.NewInsightHandler(insightService, logger),
		Caregiver: handler.NewCaregiverHandler(handler.CaregiverDeps{
			Patients:     patientService,
			Vitals:       vitalService,
			Medications:  medicationService,
			Appointments: appointmentService,
			Insights:     insightService,
			Reports:      reportService,
		}, logger),
		Report: handler.NewReportHandler(patientService, reportService, logger),
	}

	doc, err := api.GetSwagger()
	if err != nil {
		logger.Fatal("Failed to load OpenAPI document", zap.Error(err))
	}
	validator, err := middleware.OpenAPIValidationMiddleware(doc, logger)
	if err != nil {
		logger.Fatal("Failed to build request validator", zap.Error(err))
	}

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	r := gin.New()

	// Add recovery middleware (must be first)
	r.Use(middleware.RecoveryMiddleware(logger))

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "traceparent"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID", "X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.TracingMiddleware())
	r.Use(middleware.RequestLoggingMiddleware(logger))
	r.Use(middleware.ErrorLoggingMiddleware(logger))
	r.Use(middleware.SlowRequestLoggingMiddleware(logger, 1*time.Second))

	handler.RegisterHandlers(r, handlers,
		middleware.JWTMiddleware(middleware.AuthConfig{
			Secret: []byte(cfg.Auth.JWTSecret),
			Issuer: cfg.Auth.Issuer,
		}),
		validator,
	)

	// Start the reminder loop
	runner := reminder.NewRunner(scheduler, cfg.Reminder.RunnerConfig(), logger)
	runner.Start(context.Background())

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// No reminder fires after the runner stops; queued ones are still
	// delivered before the dispatcher closes
	runner.Stop()
	dispatcher.Close()

	logger.Info("Server exited")
}

// newLogger builds the production or development logger, adjusted by the
// configured level and encoding
func newLogger(environment string, lc config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if environment == "production" {
		zc = zap.NewProductionConfig()
	}

	if lc.Level != "" {
		level, err := zap.ParseAtomicLevel(lc.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}
	if lc.Format == "json" || lc.Format == "console" {
		zc.Encoding = lc.Format
	}

	return zc.Build()
}
