package app

import (
	"context"
	"fmt"
	"time"

	"daily_trivia_bot/internal/domain/delivery"
	"daily_trivia_bot/internal/domain/question"
	"daily_trivia_bot/internal/domain/sms"
	"daily_trivia_bot/internal/domain/user"
	idb "daily_trivia_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

const (
	reasonMissedWindow     = "missed delivery window"
	reasonUserInactive     = "user inactive"
	reasonDuplicatePending = "duplicate pending answer"
	reasonNoQuestion       = "no question available"
)

// DispatchService drains due queue entries: claims each one, resolves a
// question, sends it, and records the pending answer.
type DispatchService interface {
	RunDispatchCycle(ctx context.Context, now time.Time) error
	// SweepAbandoned purges outstanding answers older than the abandonment
	// window. Abandoned questions are never scored or retried.
	SweepAbandoned(ctx context.Context, now time.Time) error
}

type DispatchServiceImpl struct {
	userRepo      user.Repository
	deliveryRepo  delivery.Repository
	questionStore question.Store
	generator     question.Generator // optional, may be nil
	smsClient     sms.Client
	logger        *logrus.Logger

	// catchUpWindow bounds how late a pending entry may still be sent.
	// Entries older than this are failed instead, so nobody gets yesterday's
	// question at breakfast.
	catchUpWindow time.Duration
	// sendTimeout bounds one transport call so a hanging send cannot stall
	// the rest of the cycle.
	sendTimeout time.Duration
	// abandonAfter is how long an outstanding answer may wait before the
	// sweep treats it as abandoned.
	abandonAfter time.Duration
}

func NewDispatchService(
	ur user.Repository,
	dr delivery.Repository,
	qs question.Store,
	gen question.Generator,
	client sms.Client,
	logger *logrus.Logger,
	catchUpWindow time.Duration,
	sendTimeout time.Duration,
) *DispatchServiceImpl {
	return &DispatchServiceImpl{
		userRepo:      ur,
		deliveryRepo:  dr,
		questionStore: qs,
		generator:     gen,
		smsClient:     client,
		logger:        logger,
		catchUpWindow: catchUpWindow,
		sendTimeout:   sendTimeout,
		abandonAfter:  24 * time.Hour,
	}
}

func (s *DispatchServiceImpl) RunDispatchCycle(ctx context.Context, now time.Time) error {
	due, err := s.deliveryRepo.ListDueEntries(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list due queue entries: %w", err)
	}
	if len(due) == 0 {
		return nil
	}
	s.logger.WithField("due_count", len(due)).Info("Dispatch cycle starting")

	for _, entry := range due {
		// Leave un-started entries pending for the next run on shutdown.
		if ctx.Err() != nil {
			s.logger.Info("Dispatch cycle interrupted, leaving remaining entries pending")
			return ctx.Err()
		}
		s.processEntry(ctx, entry, now)
	}
	return nil
}

// processEntry handles one due entry end to end. All failures land on the
// entry itself; nothing here aborts the cycle.
func (s *DispatchServiceImpl) processEntry(ctx context.Context, entry *delivery.QueueEntry, now time.Time) {
	logCtx := s.logger.WithFields(logrus.Fields{
		"entry_id": entry.ID,
		"user_id":  entry.UserID,
	})

	claimed, err := s.deliveryRepo.ClaimEntry(ctx, entry.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to claim queue entry")
		return
	}
	if !claimed {
		// Another run already owns this entry.
		logCtx.Debug("Queue entry already claimed, skipping")
		return
	}

	if now.Sub(entry.ScheduledAt) > s.catchUpWindow {
		logCtx.WithField("scheduled_at", entry.ScheduledAt).Warn("Entry missed its delivery window, failing without send")
		s.failEntry(ctx, logCtx, entry.ID, reasonMissedWindow)
		return
	}

	u, err := s.userRepo.GetByID(ctx, entry.UserID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to load user for queue entry")
		s.failEntry(ctx, logCtx, entry.ID, fmt.Sprintf("load user: %v", err))
		return
	}
	if !u.IsActive {
		s.failEntry(ctx, logCtx, entry.ID, reasonUserInactive)
		return
	}

	outstanding, err := s.deliveryRepo.ListOutstandingByUser(ctx, u.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to check outstanding answers")
		s.failEntry(ctx, logCtx, entry.ID, fmt.Sprintf("check outstanding: %v", err))
		return
	}
	if len(outstanding) > 0 {
		// The user still owes an answer; sending another question would
		// break the one-outstanding-question rule.
		logCtx.WithField("outstanding", len(outstanding)).Warn("User already has an outstanding question, not sending")
		s.failEntry(ctx, logCtx, entry.ID, reasonDuplicatePending)
		return
	}

	q, err := s.resolveQuestion(ctx, u)
	if err != nil {
		logCtx.WithError(err).Error("No question could be resolved for user")
		s.failEntry(ctx, logCtx, entry.ID, reasonNoQuestion)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	err = s.smsClient.Send(sendCtx, u.PhoneNumber, FormatQuestion(q))
	cancel()
	if err != nil {
		// Single attempt by design: a timed-out or rejected send is failed,
		// never retried. Repeated sends read as spam.
		logCtx.WithError(err).Error("SMS send failed")
		s.failEntry(ctx, logCtx, entry.ID, fmt.Sprintf("send: %v", err))
		return
	}

	if err := s.deliveryRepo.MarkEntrySent(ctx, entry.ID, q.ID, now); err != nil {
		logCtx.WithError(err).Error("Failed to mark queue entry sent")
	}
	if err := s.deliveryRepo.CreatePendingAnswer(ctx, &delivery.PendingAnswer{
		UserID:      u.ID,
		QuestionID:  q.ID,
		DeliveredAt: now,
	}); err != nil {
		logCtx.WithError(err).Error("Failed to create pending answer record")
	}
	if err := s.questionStore.IncrementTimesUsed(ctx, q.ID); err != nil {
		logCtx.WithError(err).Warn("Failed to bump question usage count")
	}

	u.LastDeliveredAt.Time = now
	u.LastDeliveredAt.Valid = true
	u.CategoryCursor++
	if err := s.userRepo.Update(ctx, u); err != nil {
		logCtx.WithError(err).Error("Failed to update user after send")
	}

	logCtx.WithField("question_id", q.ID).Info("Question delivered")
}

// resolveQuestion picks the next unseen question for the user's current
// category, widening to all their categories and finally falling back to
// generation when the pool is exhausted.
func (s *DispatchServiceImpl) resolveQuestion(ctx context.Context, u *user.User) (*question.Question, error) {
	seen, err := s.deliveryRepo.AnsweredQuestionIDs(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seen questions: %w", err)
	}

	category := u.NextCategory()
	if category != "" {
		q, err := s.questionStore.PickUnseen(ctx, []string{category}, seen)
		if err == nil {
			return q, nil
		}
		if err != idb.ErrNoQuestionAvailable {
			return nil, err
		}
	}

	if len(u.Categories) > 1 {
		q, err := s.questionStore.PickUnseen(ctx, u.Categories, seen)
		if err == nil {
			return q, nil
		}
		if err != idb.ErrNoQuestionAvailable {
			return nil, err
		}
	}

	if s.generator != nil && category != "" {
		genCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		q, err := s.generator.Generate(genCtx, category)
		if err != nil {
			return nil, fmt.Errorf("question generation failed: %w", err)
		}
		if err := s.questionStore.Create(ctx, q); err != nil {
			return nil, fmt.Errorf("failed to store generated question: %w", err)
		}
		return q, nil
	}

	return nil, idb.ErrNoQuestionAvailable
}

func (s *DispatchServiceImpl) failEntry(ctx context.Context, logCtx *logrus.Entry, entryID int64, reason string) {
	if err := s.deliveryRepo.MarkEntryFailed(ctx, entryID, reason); err != nil {
		logCtx.WithError(err).Error("Failed to mark queue entry failed")
	}
}

func (s *DispatchServiceImpl) SweepAbandoned(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-s.abandonAfter)
	purged, err := s.deliveryRepo.DeleteAbandoned(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to sweep abandoned answers: %w", err)
	}
	if purged > 0 {
		s.logger.WithField("purged", purged).Info("Swept abandoned pending answers")
	}
	return nil
}
