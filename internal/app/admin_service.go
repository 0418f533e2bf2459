package app

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"daily_trivia_bot/internal/domain/delivery"
	"daily_trivia_bot/internal/domain/question"
	"daily_trivia_bot/internal/domain/sms"
	"daily_trivia_bot/internal/domain/user"
	idb "daily_trivia_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for admin operations
var ErrUserAlreadyExists = fmt.Errorf("user with this phone number already exists")
var ErrUserAlreadyInactive = fmt.Errorf("user is already inactive")
var ErrInvalidSignup = fmt.Errorf("invalid signup request")

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// AdminService covers operator-facing user management and queue inspection.
type AdminService struct {
	userRepo      user.Repository
	deliveryRepo  delivery.Repository
	questionStore question.Store
	smsClient     sms.Client
	logger        *logrus.Logger
	sendTimeout   time.Duration
}

func NewAdminService(
	ur user.Repository,
	dr delivery.Repository,
	qs question.Store,
	client sms.Client,
	logger *logrus.Logger,
	sendTimeout time.Duration,
) *AdminService {
	return &AdminService{
		userRepo:      ur,
		deliveryRepo:  dr,
		questionStore: qs,
		smsClient:     client,
		logger:        logger,
		sendTimeout:   sendTimeout,
	}
}

// SignupUser creates a new subscriber and immediately sends a welcome
// question so the first interaction happens right away rather than at the
// next day's scheduled time.
func (s *AdminService) SignupUser(ctx context.Context, phoneNumber, deliveryTime, timezone string, categories []string) (*user.User, error) {
	if !e164Pattern.MatchString(phoneNumber) {
		return nil, fmt.Errorf("%w: phone number must be E.164, got %q", ErrInvalidSignup, phoneNumber)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: at least one category is required", ErrInvalidSignup)
	}
	// Validate the delivery preference up front so the populator never
	// trips over it later.
	if _, err := delivery.LocalInstant(time.Now().UTC(), deliveryTime, timezone); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignup, err)
	}

	_, err := s.userRepo.GetByPhoneNumber(ctx, phoneNumber)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if err != idb.ErrUserNotFound {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	newUser := &user.User{
		PhoneNumber:  phoneNumber,
		Categories:   categories,
		DeliveryTime: deliveryTime,
		Timezone:     timezone,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if err == idb.ErrDuplicatePhoneNumber {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendWelcomeQuestion(ctx, newUser)
	return newUser, nil
}

// sendWelcomeQuestion delivers the first question outside the daily queue.
// Failure here is logged but does not fail the signup; the user just waits
// for tomorrow's scheduled question instead.
func (s *AdminService) sendWelcomeQuestion(ctx context.Context, u *user.User) {
	logCtx := s.logger.WithField("user_id", u.ID)

	q, err := s.questionStore.PickUnseen(ctx, u.Categories, nil)
	if err != nil {
		logCtx.WithError(err).Warn("No welcome question available")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	if err := s.smsClient.Send(sendCtx, u.PhoneNumber, "Welcome to Daily Trivia! Here's your first question:\n\n"+FormatQuestion(q)); err != nil {
		logCtx.WithError(err).Warn("Welcome question send failed")
		return
	}

	now := time.Now()
	if err := s.deliveryRepo.CreatePendingAnswer(ctx, &delivery.PendingAnswer{
		UserID:      u.ID,
		QuestionID:  q.ID,
		DeliveredAt: now,
	}); err != nil {
		logCtx.WithError(err).Error("Failed to create pending answer for welcome question")
		return
	}
	if err := s.questionStore.IncrementTimesUsed(ctx, q.ID); err != nil {
		logCtx.WithError(err).Warn("Failed to bump question usage count")
	}

	u.LastDeliveredAt.Time = now
	u.LastDeliveredAt.Valid = true
	if err := s.userRepo.Update(ctx, u); err != nil {
		logCtx.WithError(err).Error("Failed to update user after welcome question")
	}
	logCtx.WithField("question_id", q.ID).Info("Welcome question delivered")
}

// DeactivateUser soft-deactivates a subscriber; their queue entries fail
// harmlessly at dispatch time and no new ones are created.
func (s *AdminService) DeactivateUser(ctx context.Context, phoneNumber string) (*user.User, error) {
	target, err := s.userRepo.GetByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		if err == idb.ErrUserNotFound {
			return nil, idb.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user for deactivation: %w", err)
	}
	if !target.IsActive {
		return target, ErrUserAlreadyInactive
	}

	target.IsActive = false
	if err := s.userRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to deactivate user: %w", err)
	}
	return target, nil
}

// ReactivateUser re-enables a previously paused subscriber.
func (s *AdminService) ReactivateUser(ctx context.Context, phoneNumber string) (*user.User, error) {
	target, err := s.userRepo.GetByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		if err == idb.ErrUserNotFound {
			return nil, idb.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user for reactivation: %w", err)
	}
	if target.IsActive {
		return target, nil
	}

	target.IsActive = true
	if err := s.userRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to reactivate user: %w", err)
	}
	return target, nil
}

func (s *AdminService) ListActiveUsers(ctx context.Context) ([]*user.User, error) {
	return s.userRepo.ListActive(ctx)
}

func (s *AdminService) ListAllUsers(ctx context.Context) ([]*user.User, error) {
	return s.userRepo.ListAll(ctx)
}

// QueueStatus reports how the given day's queue entries are distributed
// across statuses, surfacing failed sends to operators.
func (s *AdminService) QueueStatus(ctx context.Context, day time.Time) (map[delivery.Status]int, error) {
	return s.deliveryRepo.CountEntriesByStatus(ctx, delivery.DateOnly(day))
}

// AddQuestion inserts operator-authored trivia content.
func (s *AdminService) AddQuestion(ctx context.Context, q *question.Question) error {
	switch q.CorrectOption {
	case "A", "B", "C", "D":
	default:
		return fmt.Errorf("correct option must be A-D, got %q", q.CorrectOption)
	}
	if q.Text == "" || q.Category == "" {
		return fmt.Errorf("question text and category are required")
	}
	return s.questionStore.Create(ctx, q)
}
