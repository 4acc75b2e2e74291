package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/citamed/citamed/internal/config"
	"github.com/citamed/citamed/internal/handler/v1"
	"github.com/citamed/citamed/internal/repository"
	"github.com/citamed/citamed/internal/service"
	"github.com/citamed/citamed/pkg/auth"
	"github.com/citamed/citamed/pkg/database"
	"github.com/citamed/citamed/pkg/logger"
	"github.com/citamed/citamed/pkg/metrics"
	"github.com/citamed/citamed/pkg/tokenstore"
	"github.com/citamed/citamed/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("loading config: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("building logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	tokens, cleanup, err := newTokenStore(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	jwtManager := auth.NewJWTManager(cfg.JWT)
	collector := metrics.NewCollector("citamed")

	userRepo := repository.NewUserRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	escalationRepo := repository.NewEscalationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, log)
	defer auditSvc.Shutdown()

	schedulingSvc := service.NewSchedulingService(doctorRepo, scheduleRepo, cfg.Scheduling.AutoProvisionDoctors, log)
	emergencySvc := service.NewEmergencyService(escalationRepo, apptRepo, auditSvc, log)
	bookingSvc := service.NewBookingService(apptRepo, schedulingSvc, emergencySvc, auditSvc, log)
	authSvc := service.NewAuthService(userRepo, jwtManager, tokens, auditSvc, log)
	doctorSvc := service.NewDoctorService(doctorRepo)

	router := v1.NewRouter(v1.RouterDeps{
		Config:       cfg,
		Log:          log,
		JWT:          jwtManager,
		Collector:    collector,
		Auth:         v1.NewAuthHandler(authSvc, jwtManager),
		Appointments: v1.NewAppointmentHandler(bookingSvc, emergencySvc, collector),
		Doctors:      v1.NewDoctorHandler(doctorSvc),
		Triage:       v1.NewTriageHandler(),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}

// newTokenStore selects Redis when configured, falling back to the
// in-process store for single-instance deployments.
func newTokenStore(cfg *config.Config, log *zap.Logger) (tokenstore.Store, func(), error) {
	if !cfg.Redis.Enabled {
		log.Info("redis disabled, using in-memory refresh token store")
		return tokenstore.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Warn("closing redis client", zap.Error(err))
		}
	}
	return tokenstore.NewRedisStore(client), cleanup, nil
}
