package app

import (
	"context"
	"fmt"
	"time"

	"daily_trivia_bot/internal/domain/delivery"
	"daily_trivia_bot/internal/domain/user"
	idb "daily_trivia_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// ScheduleService populates the delivery queue ahead of time.
type ScheduleService interface {
	// PopulateQueue creates one pending queue entry per active user for the
	// given calendar day. Safe to re-run: existing (user, day) entries are
	// skipped, and the unique constraint closes the check/insert race.
	PopulateQueue(ctx context.Context, forDate time.Time) error
}

type ScheduleServiceImpl struct {
	userRepo     user.Repository
	deliveryRepo delivery.Repository
	logger       *logrus.Logger
}

func NewScheduleService(ur user.Repository, dr delivery.Repository, logger *logrus.Logger) *ScheduleServiceImpl {
	return &ScheduleServiceImpl{
		userRepo:     ur,
		deliveryRepo: dr,
		logger:       logger,
	}
}

func (s *ScheduleServiceImpl) PopulateQueue(ctx context.Context, forDate time.Time) error {
	day := delivery.DateOnly(forDate)
	logCtx := s.logger.WithField("delivery_date", day.Format("2006-01-02"))
	logCtx.Info("Populating delivery queue")

	activeUsers, err := s.userRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active users: %w", err)
	}
	if len(activeUsers) == 0 {
		logCtx.Info("No active users, nothing to schedule")
		return nil
	}

	var scheduled, skipped, failed int
	for _, u := range activeUsers {
		userLog := logCtx.WithField("user_id", u.ID)

		// A single user's bad timezone or time string must not abort the
		// whole run.
		scheduledAt, err := delivery.LocalInstant(day, u.DeliveryTime, u.Timezone)
		if err != nil {
			userLog.WithError(err).Error("Skipping user with unschedulable delivery preference")
			failed++
			continue
		}

		existing, err := s.deliveryRepo.GetEntryByUserAndDate(ctx, u.ID, day)
		if err != nil && err != idb.ErrQueueEntryNotFound {
			userLog.WithError(err).Error("Failed to check for existing queue entry")
			failed++
			continue
		}
		if existing != nil {
			skipped++
			continue
		}

		entry := &delivery.QueueEntry{
			UserID:       u.ID,
			DeliveryDate: day,
			ScheduledAt:  scheduledAt,
			Status:       delivery.StatusPending,
		}
		if err := s.deliveryRepo.CreateEntry(ctx, entry); err != nil {
			if err == idb.ErrDuplicateQueueEntry {
				// Lost the race to a concurrent run; the entry exists, which
				// is all we wanted.
				skipped++
				continue
			}
			userLog.WithError(err).Error("Failed to create queue entry")
			failed++
			continue
		}
		scheduled++
	}

	logCtx.WithFields(logrus.Fields{
		"scheduled": scheduled,
		"skipped":   skipped,
		"failed":    failed,
	}).Info("Delivery queue population finished")
	return nil
}
