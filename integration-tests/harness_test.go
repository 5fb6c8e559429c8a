package integration_tests

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vitalvision/backend/internal/audit"
	"github.com/vitalvision/backend/internal/azure"
	"github.com/vitalvision/backend/internal/handler"
	"github.com/vitalvision/backend/internal/middleware"
	"github.com/vitalvision/backend/internal/migrations"
	"github.com/vitalvision/backend/internal/notify"
	"github.com/vitalvision/backend/internal/pdf"
	"github.com/vitalvision/backend/internal/reminder"
	"github.com/vitalvision/backend/internal/repository"
	"github.com/vitalvision/backend/internal/security"
	"github.com/vitalvision/backend/internal/service"
	"github.com/vitalvision/backend/internal/vitals"
	"github.com/vitalvision/backend/pkg/api"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

const (
	testIssuer     = "vitalvision"
	alertStream    = "vitalvision:alerts"
	reminderStream = "vitalvision:reminders"
)

var testSecret = []byte("integration-test-secret")

// setupTestDatabase starts PostgreSQL in a container and applies the schema
func setupTestDatabase(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("vitalvision_it"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Should be able to start PostgreSQL")

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := pgxpool.New(ctx, connString)
	require.NoError(t, err, "Should be able to connect to database")
	require.NoError(t, db.Ping(ctx), "Should be able to ping database")

	all, err := migrations.All()
	require.NoError(t, err)
	for _, m := range all {
		for _, stmt := range migrations.Statements(m.Up) {
			_, err := db.Exec(ctx, stmt)
			require.NoError(t, err, "migration %d", m.Version)
		}
	}

	cleanup := func() {
		db.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return db, cleanup
}

// fakeSynthesizer returns fixed audio for any text
type fakeSynthesizer struct{}

func (fakeSynthesizer) TextToSpeech(_ context.Context, text, _ string) ([]byte, error) {
	return []byte("ID3" + text), nil
}

// recordingPublisher stores MQTT publications
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(topic string, _ byte, _ bool, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

// unavailableAssistant fails every completion
type unavailableAssistant struct{}

func (unavailableAssistant) Prompt(context.Context, string, string) (string, error) {
	return "", errors.New("assistant offline")
}

// testEnv is the backend wired like main, with containers and fakes behind it
type testEnv struct {
	pool       *pgxpool.Pool
	redis      *redis.Client
	blobs      *azure.MockBlobStorageClient
	devices    *recordingPublisher
	scheduler  *reminder.Scheduler
	dispatcher *notify.Dispatcher
	router     *gin.Engine
}

func setupEnv(t *testing.T) *testEnv {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	logger := zap.NewNop()

	pool, cleanup := setupTestDatabase(t, ctx)
	t.Cleanup(cleanup)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })
	publisher := notify.NewStreamPublisher(redisClient, 1000, logger)

	encryptor, err := security.NewEncryptor([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	patientRepo := repository.NewPatientRepository(pool, logger).WithSealer(encryptor)
	vitalRepo := repository.NewVitalRepository(pool, logger)
	alertRepo := repository.NewAlertRepository(pool, logger)
	medicationRepo := repository.NewMedicationRepository(pool, logger)
	appointmentRepo := repository.NewAppointmentRepository(pool, logger)
	notificationRepo := repository.NewNotificationRepository(pool, logger)
	reportRepo := repository.NewReportRepository(pool, logger)
	auditLogger := audit.NewLogger(pool, logger)

	blobs := azure.NewMockBlobStorageClient(logger)
	devices := &recordingPublisher{}
	dispatcher := notify.NewDispatcher(16, 5*time.Second, logger,
		notify.NewVisualChannel(notificationRepo, publisher, reminderStream, logger),
		notify.NewSpokenChannel(fakeSynthesizer{}, blobs, notificationRepo, "es-ES", logger),
		notify.NewHapticChannel(devices, "vitalvision/patients", 1, logger),
	)
	t.Cleanup(dispatcher.Close)

	scheduler := reminder.NewScheduler(reminder.Config{
		Lookahead:   time.Hour,
		Granularity: time.Minute,
		Location:    time.UTC,
	}, dispatcher, logger)

	reportDeps := service.ReportDeps{
		Patients:     patientRepo,
		Vitals:       vitalRepo,
		Alerts:       alertRepo,
		Medications:  medicationRepo,
		Appointments: appointmentRepo,
		Reports:      reportRepo,
	}
	patientService := service.NewPatientService(patientRepo, notificationRepo, auditLogger, logger)
	vitalService := service.NewVitalService(vitalRepo, alertRepo, vitals.DefaultTable(), publisher, alertStream, auditLogger, logger)
	medicationService := service.NewMedicationService(medicationRepo, scheduler, auditLogger, logger)
	appointmentService := service.NewAppointmentService(appointmentRepo, scheduler, auditLogger, time.UTC, logger)
	insightService := service.NewInsightService(unavailableAssistant{}, patientRepo, vitalRepo, logger)
	reportService := service.NewReportService(reportDeps, blobs, pdf.NewPDFGenerator(logger), auditLogger, time.UTC, logger)
	privacyService := service.NewPrivacyService(reportDeps, notificationRepo, scheduler, auditLogger, logger)

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
	require.NoError(t, err)
	validator, err := middleware.OpenAPIValidationMiddleware(doc, logger)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.ErrorLoggingMiddleware(logger))
	handler.RegisterHandlers(router, handlers,
		middleware.JWTMiddleware(middleware.AuthConfig{Secret: testSecret, Issuer: testIssuer}),
		validator,
	)

	return &testEnv{
		pool:       pool,
		redis:      redisClient,
		blobs:      blobs,
		devices:    devices,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		router:     router,
	}
}

// token issues a bearer token for userID with role
func token(t *testing.T, userID string, role model.Role) string {
	t.Helper()
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role:  role,
		Email: userID + "@example.com",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

// do sends an authenticated request; body may be empty
func (e *testEnv) do(method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
