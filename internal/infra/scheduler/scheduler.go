package scheduler

import (
	"context"
	"time"

	"daily_trivia_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TriviaScheduler owns the three periodic jobs: queue population, dispatch,
// and the abandoned-answer sweep. It is constructed once per process and
// carries no global state, so tests can build fresh instances.
type TriviaScheduler struct {
	cronEngine       *cron.Cron
	scheduleService  app.ScheduleService
	dispatchService  app.DispatchService
	logger           *logrus.Logger
	cronSpecPopulate string
	cronSpecDispatch string
	cronSpecSweep    string
}

func NewTriviaScheduler(
	scheduleService app.ScheduleService,
	dispatchService app.DispatchService,
	logger *logrus.Logger,
	cronSpecPopulate string, // e.g. "40 23 * * *" (23:40 UTC daily)
	cronSpecDispatch string, // e.g. "* * * * *" (every minute)
	cronSpecSweep string, // e.g. "15 * * * *" (hourly)
) *TriviaScheduler {
	return &TriviaScheduler{
		// All specs are interpreted in UTC: population targets "before any
		// timezone's local midnight", which only makes sense on a UTC clock.
		cronEngine:       cron.New(cron.WithLocation(time.UTC)),
		scheduleService:  scheduleService,
		dispatchService:  dispatchService,
		logger:           logger,
		cronSpecPopulate: cronSpecPopulate,
		cronSpecDispatch: cronSpecDispatch,
		cronSpecSweep:    cronSpecSweep,
	}
}

func (s *TriviaScheduler) Start() {
	s.logger.Info("Starting trivia scheduler")

	// Populate tomorrow's queue before midnight UTC so the earliest local
	// delivery times (minutes after UTC midnight) already have entries.
	_, err := s.cronEngine.AddFunc(s.cronSpecPopulate, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		tomorrow := time.Now().UTC().AddDate(0, 0, 1)
		if err := s.scheduleService.PopulateQueue(ctx, tomorrow); err != nil {
			s.logger.WithError(err).Error("Queue population job failed")
		}
	})
	if err != nil {
		s.logger.WithError(err).Fatal("Could not add queue population cron job")
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecDispatch, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.dispatchService.RunDispatchCycle(ctx, time.Now().UTC()); err != nil && err != context.Canceled {
			s.logger.WithError(err).Error("Dispatch cycle failed")
		}
	})
	if err != nil {
		s.logger.WithError(err).Fatal("Could not add dispatch cron job")
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecSweep, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := s.dispatchService.SweepAbandoned(ctx, time.Now().UTC()); err != nil {
			s.logger.WithError(err).Error("Abandoned-answer sweep failed")
		}
	})
	if err != nil {
		s.logger.WithError(err).Fatal("Could not add sweep cron job")
	}

	s.cronEngine.Start()
	s.logger.Info("Trivia scheduler started with jobs")
}

// Stop halts scheduling and waits for any in-flight job to finish. Unclaimed
// due entries simply stay pending for the next process.
func (s *TriviaScheduler) Stop() {
	s.logger.Info("Stopping trivia scheduler")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Trivia scheduler gracefully stopped")
}
