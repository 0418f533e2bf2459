package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily_trivia_bot/internal/app"
	"daily_trivia_bot/internal/infra/config"
	idb "daily_trivia_bot/internal/infra/database"
	"daily_trivia_bot/internal/infra/httpserver"
	"daily_trivia_bot/internal/infra/logger"
	"daily_trivia_bot/internal/infra/scheduler"
	"daily_trivia_bot/internal/infra/sms"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Get()
	log.WithField("environment", cfg.Environment).Info("Daily trivia bot starting")

	// Database
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	log.Info("Database connection established")

	// Repositories
	userRepo := idb.NewPostgresUserRepository(db)
	deliveryRepo := idb.NewPostgresDeliveryRepository(db)
	questionRepo := idb.NewPostgresQuestionRepository(db)

	// Transport
	smsClient := sms.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.TwilioBaseURL)

	// Services
	scheduleService := app.NewScheduleService(userRepo, deliveryRepo, log)
	dispatchService := app.NewDispatchService(
		userRepo, deliveryRepo, questionRepo, nil, smsClient, log,
		cfg.DispatchCatchUp, cfg.SendTimeout,
	)
	answerService := app.NewAnswerService(userRepo, deliveryRepo, questionRepo, log)
	adminService := app.NewAdminService(userRepo, deliveryRepo, questionRepo, smsClient, log, cfg.SendTimeout)

	// Scheduler
	triviaScheduler := scheduler.NewTriviaScheduler(
		scheduleService,
		dispatchService,
		log,
		cfg.CronSpecPopulate,
		cfg.CronSpecDispatch,
		cfg.CronSpecSweep,
	)
	triviaScheduler.Start()

	// HTTP server (webhook + admin API)
	router := httpserver.NewRouter(cfg, answerService, adminService, scheduleService, dispatchService, log)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	triviaScheduler.Stop()
	log.Info("Shut down gracefully")
}
