package app

import (
	"context"
	"fmt"
	"time"

	"daily_trivia_bot/internal/domain/delivery"
	"daily_trivia_bot/internal/domain/question"
	"daily_trivia_bot/internal/domain/scoring"
	"daily_trivia_bot/internal/domain/user"
	idb "daily_trivia_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// OutcomeKind classifies what reconciling one reply did.
type OutcomeKind int

const (
	// OutcomeScored means this call recorded the answer and updated stats.
	OutcomeScored OutcomeKind = iota
	// OutcomeAlreadyAnswered means another delivery of the same reply won the
	// conditional update first; nothing was mutated.
	OutcomeAlreadyAnswered
	// OutcomeNothingPending means the user has no outstanding question. No
	// state is mutated and no fresh question is fabricated.
	OutcomeNothingPending
)

// Outcome is the reconciler's result, handed back to the transport layer for
// message formatting.
type Outcome struct {
	Kind          OutcomeKind
	IsCorrect     bool
	CorrectOption string
	CorrectText   string
	Explanation   string
	Points        int
	TotalScore    int
	WinningStreak int
	PlayStreak    int
}

// AnswerService reconciles inbound replies against outstanding questions and
// handles the non-answer command set.
type AnswerService interface {
	// HandleInbound is the webhook entry point: looks up the sender, decodes
	// the body once, and returns the reply text to send back.
	HandleInbound(ctx context.Context, phoneNumber string, rawBody string) (string, error)
	// ReconcileAnswer scores one answer letter against the user's single
	// outstanding question. Duplicate deliveries of the same reply are
	// detected via the conditional reply write and reported as
	// OutcomeAlreadyAnswered without a second mutation.
	ReconcileAnswer(ctx context.Context, u *user.User, letter string) (*Outcome, error)
}

type AnswerServiceImpl struct {
	userRepo      user.Repository
	deliveryRepo  delivery.Repository
	questionStore question.Store
	logger        *logrus.Logger
	now           func() time.Time
}

func NewAnswerService(ur user.Repository, dr delivery.Repository, qs question.Store, logger *logrus.Logger) *AnswerServiceImpl {
	return &AnswerServiceImpl{
		userRepo:      ur,
		deliveryRepo:  dr,
		questionStore: qs,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *AnswerServiceImpl) HandleInbound(ctx context.Context, phoneNumber string, rawBody string) (string, error) {
	logCtx := s.logger.WithField("phone_number", phoneNumber)

	u, err := s.userRepo.GetByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		if err == idb.ErrUserNotFound {
			logCtx.Info("Inbound message from unknown number")
			return notSignedUpMessage, nil
		}
		return "", fmt.Errorf("failed to look up user by phone: %w", err)
	}

	cmd := ParseCommand(rawBody)
	switch cmd.Kind {
	case CommandAnswer:
		outcome, err := s.ReconcileAnswer(ctx, u, cmd.Letter)
		if err != nil {
			return "", err
		}
		return FormatOutcome(outcome), nil
	case CommandHelp:
		return helpMessage, nil
	case CommandScore:
		return FormatScore(u), nil
	case CommandStop:
		return s.handleStop(ctx, u, logCtx)
	case CommandRestart:
		return s.handleRestart(ctx, u, logCtx)
	default:
		return unknownMessage, nil
	}
}

func (s *AnswerServiceImpl) ReconcileAnswer(ctx context.Context, u *user.User, letter string) (*Outcome, error) {
	logCtx := s.logger.WithFields(logrus.Fields{
		"user_id": u.ID,
		"reply":   letter,
	})

	outstanding, err := s.deliveryRepo.ListOutstandingByUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outstanding answers: %w", err)
	}
	if len(outstanding) == 0 {
		// A reply with nothing pending gets a neutral response and no state
		// mutation. Never hand the user a fresh question they didn't ask for.
		logCtx.Info("Reply received with no outstanding question")
		return &Outcome{Kind: OutcomeNothingPending}, nil
	}
	if len(outstanding) > 1 {
		// Should be impossible given the one-outstanding invariant; take the
		// newest and make noise so the upstream bug gets found.
		logCtx.WithField("outstanding_count", len(outstanding)).
			Error("Invariant violation: user has multiple outstanding answers")
	}
	pending := outstanding[0]

	q, err := s.questionStore.GetByID(ctx, pending.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question %d: %w", pending.QuestionID, err)
	}

	isCorrect := letter == q.CorrectOption
	// Points are computed from the streaks BEFORE this answer: the reward
	// reflects the streak the user is extending into.
	points := scoring.Points(isCorrect, u.WinningStreak, u.PlayStreak)

	won, err := s.deliveryRepo.RecordReply(ctx, pending.ID, letter, isCorrect, points, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to record reply: %w", err)
	}
	if !won {
		// A concurrent delivery of the same webhook event got here first.
		// Benign no-op: report it without touching user stats.
		logCtx.Info("Reply already recorded by a concurrent request")
		return &Outcome{Kind: OutcomeAlreadyAnswered}, nil
	}

	u.WinningStreak, u.PlayStreak = scoring.NextStreaks(isCorrect, u.WinningStreak, u.PlayStreak)
	u.QuestionsAnswered++
	if isCorrect {
		u.CorrectAnswers++
	}
	u.TotalScore += points
	u.LastAnsweredAt.Time = s.now()
	u.LastAnsweredAt.Valid = true
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user stats: %w", err)
	}

	logCtx.WithFields(logrus.Fields{
		"correct": isCorrect,
		"points":  points,
	}).Info("Answer reconciled")

	return &Outcome{
		Kind:          OutcomeScored,
		IsCorrect:     isCorrect,
		CorrectOption: q.CorrectOption,
		CorrectText:   q.Option(q.CorrectOption),
		Explanation:   q.Explanation,
		Points:        points,
		TotalScore:    u.TotalScore,
		WinningStreak: u.WinningStreak,
		PlayStreak:    u.PlayStreak,
	}, nil
}

func (s *AnswerServiceImpl) handleStop(ctx context.Context, u *user.User, logCtx *logrus.Entry) (string, error) {
	if !u.IsActive {
		return stoppedMessage, nil
	}
	u.IsActive = false
	if err := s.userRepo.Update(ctx, u); err != nil {
		return "", fmt.Errorf("failed to deactivate user: %w", err)
	}
	logCtx.WithField("user_id", u.ID).Info("User paused via STOP")
	return stoppedMessage, nil
}

func (s *AnswerServiceImpl) handleRestart(ctx context.Context, u *user.User, logCtx *logrus.Entry) (string, error) {
	if u.IsActive {
		return restartedMessage, nil
	}
	u.IsActive = true
	if err := s.userRepo.Update(ctx, u); err != nil {
		return "", fmt.Errorf("failed to reactivate user: %w", err)
	}
	logCtx.WithField("user_id", u.ID).Info("User resumed via RESTART")
	return restartedMessage, nil
}
