package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicore/clinic-api/internal/config"
	"github.com/clinicore/clinic-api/internal/email"
	appointmentHandler "github.com/clinicore/clinic-api/internal/handler/appointment"
	auditHandler "github.com/clinicore/clinic-api/internal/handler/audit"
	authHandler "github.com/clinicore/clinic-api/internal/handler/auth"
	doctorHandler "github.com/clinicore/clinic-api/internal/handler/doctor"
	healthHandler "github.com/clinicore/clinic-api/internal/handler/health"
	patientHandler "github.com/clinicore/clinic-api/internal/handler/patient"
	prescriptionHandler "github.com/clinicore/clinic-api/internal/handler/prescription"
	reportHandler "github.com/clinicore/clinic-api/internal/handler/report"
	scheduleHandler "github.com/clinicore/clinic-api/internal/handler/schedule"
	"github.com/clinicore/clinic-api/internal/lock"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/repository/postgres"
	"github.com/clinicore/clinic-api/internal/router"
	appointmentService "github.com/clinicore/clinic-api/internal/service/appointment"
	auditService "github.com/clinicore/clinic-api/internal/service/audit"
	authService "github.com/clinicore/clinic-api/internal/service/auth"
	doctorService "github.com/clinicore/clinic-api/internal/service/doctor"
	patientService "github.com/clinicore/clinic-api/internal/service/patient"
	prescriptionService "github.com/clinicore/clinic-api/internal/service/prescription"
	reportService "github.com/clinicore/clinic-api/internal/service/report"
	scheduleService "github.com/clinicore/clinic-api/internal/service/schedule"
	"github.com/clinicore/clinic-api/internal/worker"
	"github.com/clinicore/clinic-api/pkg/auth"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
	"github.com/clinicore/clinic-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	// Repositories
	scheduleRepo := postgres.NewScheduleRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	userRepo := postgres.NewUserRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Slot locking: Redis when configured, in-process otherwise.
	var locker lock.Locker
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		locker = lock.NewRedisLocker(client, cfg.Lock.TTL, cfg.Lock.MaxWait)
		log.Info("using redis slot locker", "addr", cfg.Redis.Addr)
	} else {
		locker = lock.NewKeyedLocker(cfg.Lock.MaxWait)
		log.Info("using in-process slot locker")
	}

	smtpCfg, err := email.LoadSMTPConfig()
	if err != nil {
		log.Fatal(err, "failed to load smtp configuration")
	}
	mailer := email.NewService(smtpCfg, log)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour, cfg.JWT.Issuer)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	r := router.NewRouter(log, authMiddleware, router.Config{
		RateLimitPerSecond: cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:     cfg.RateLimit.Burst,
		CORS:               middleware.DefaultCORSConfig(),
	})
	m := metrics.NewMetrics("clinic", r.Registry())

	// Services
	auditor := auditService.NewService(auditRepo, log)
	scheduleSvc := scheduleService.NewService(scheduleRepo, appointmentRepo, doctorRepo, auditor, m)
	appointmentSvc := appointmentService.NewService(
		appointmentRepo, scheduleRepo, doctorRepo, patientRepo,
		locker, mailer, auditor, m, log,
	)
	reportSvc := reportService.NewService(appointmentRepo, doctorRepo, patientRepo)
	doctorSvc := doctorService.NewService(doctorRepo, auditor)
	patientSvc := patientService.NewService(patientRepo, auditor)
	prescriptionSvc := prescriptionService.NewService(prescriptionRepo, appointmentRepo, doctorRepo, patientRepo, auditor)
	authSvc := authService.NewService(userRepo, security.NewBcryptHasher(0), tokens)

	r.AddPublic(
		authHandler.NewHandler(authSvc),
		healthHandler.NewHandler(db),
	)
	r.AddProtected(
		scheduleHandler.NewHandler(scheduleSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		doctorHandler.NewHandler(doctorSvc),
		patientHandler.NewHandler(patientSvc),
		prescriptionHandler.NewHandler(prescriptionSvc),
		reportHandler.NewHandler(reportSvc),
		auditHandler.NewHandler(auditor),
	)
	r.Setup()

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	cleanup := worker.NewAuditCleanupWorker(auditRepo, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval, log)
	go cleanup.Start(workerCtx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "forced shutdown")
	}
	log.Info("server stopped")
}
