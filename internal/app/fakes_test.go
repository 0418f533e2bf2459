package app

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"daily_trivia_bot/internal/domain/delivery"
	"daily_trivia_bot/internal/domain/question"
	"daily_trivia_bot/internal/domain/user"
	idb "daily_trivia_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// In-memory fakes implementing the repository interfaces with the same
// conditional-update semantics the postgres implementations provide.

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*user.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*user.User)}
}

func copyUser(u *user.User) *user.User {
	cp := *u
	cp.Categories = append([]string(nil), u.Categories...)
	return &cp
}

func (r *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.PhoneNumber == u.PhoneNumber {
			return idb.ErrDuplicatePhoneNumber
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = copyUser(u)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, idb.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *fakeUserRepo) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PhoneNumber == phoneNumber {
			return copyUser(u), nil
		}
	}
	return nil, idb.ErrUserNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return idb.ErrUserNotFound
	}
	u.UpdatedAt = time.Now()
	r.users[u.ID] = copyUser(u)
	return nil
}

func (r *fakeUserRepo) ListActive(ctx context.Context) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*user.User, 0)
	for _, u := range r.users {
		if u.IsActive {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) ListAll(ctx context.Context) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*user.User, 0)
	for _, u := range r.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeDeliveryRepo struct {
	mu      sync.Mutex
	entries map[int64]*delivery.QueueEntry
	answers map[int64]*delivery.PendingAnswer
	nextID  int64
}

func newFakeDeliveryRepo() *fakeDeliveryRepo {
	return &fakeDeliveryRepo{
		entries: make(map[int64]*delivery.QueueEntry),
		answers: make(map[int64]*delivery.PendingAnswer),
	}
}

func (r *fakeDeliveryRepo) CreateEntry(ctx context.Context, e *delivery.QueueEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entries {
		if existing.UserID == e.UserID && existing.DeliveryDate.Equal(e.DeliveryDate) {
			return idb.ErrDuplicateQueueEntry
		}
	}
	r.nextID++
	e.ID = r.nextID
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	r.entries[e.ID] = &cp
	return nil
}

func (r *fakeDeliveryRepo) GetEntryByUserAndDate(ctx context.Context, userID int64, day time.Time) (*delivery.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.UserID == userID && e.DeliveryDate.Equal(day) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, idb.ErrQueueEntryNotFound
}

func (r *fakeDeliveryRepo) ListDueEntries(ctx context.Context, now time.Time) ([]*delivery.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*delivery.QueueEntry, 0)
	for _, e := range r.entries {
		if e.Status == delivery.StatusPending && !e.ScheduledAt.After(now) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *fakeDeliveryRepo) ClaimEntry(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.Status != delivery.StatusPending {
		return false, nil
	}
	e.Status = delivery.StatusSending
	e.Attempts++
	e.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeDeliveryRepo) MarkEntrySent(ctx context.Context, id int64, questionID int64, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return idb.ErrQueueEntryNotFound
	}
	e.Status = delivery.StatusSent
	e.QuestionID.Int64 = questionID
	e.QuestionID.Valid = true
	e.SentAt.Time = sentAt
	e.SentAt.Valid = true
	e.LastError.Valid = false
	return nil
}

func (r *fakeDeliveryRepo) MarkEntryFailed(ctx context.Context, id int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return idb.ErrQueueEntryNotFound
	}
	e.Status = delivery.StatusFailed
	e.LastError.String = reason
	e.LastError.Valid = true
	return nil
}

func (r *fakeDeliveryRepo) CountEntriesByStatus(ctx context.Context, day time.Time) (map[delivery.Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[delivery.Status]int)
	for _, e := range r.entries {
		if e.DeliveryDate.Equal(day) {
			counts[e.Status]++
		}
	}
	return counts, nil
}

func (r *fakeDeliveryRepo) CreatePendingAnswer(ctx context.Context, p *delivery.PendingAnswer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.answers {
		if existing.UserID == p.UserID && existing.Outstanding() {
			return idb.ErrDuplicateOutstandingAnswer
		}
	}
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.answers[p.ID] = &cp
	return nil
}

func (r *fakeDeliveryRepo) ListOutstandingByUser(ctx context.Context, userID int64) ([]*delivery.PendingAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*delivery.PendingAnswer, 0)
	for _, p := range r.answers {
		if p.UserID == userID && p.Outstanding() {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeliveredAt.After(out[j].DeliveredAt) })
	return out, nil
}

func (r *fakeDeliveryRepo) RecordReply(ctx context.Context, id int64, reply string, isCorrect bool, points int, answeredAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.answers[id]
	if !ok {
		return false, idb.ErrPendingAnswerNotFound
	}
	if p.Reply.Valid {
		return false, nil
	}
	p.Reply.String = reply
	p.Reply.Valid = true
	p.IsCorrect.Bool = isCorrect
	p.IsCorrect.Valid = true
	p.PointsAwarded.Int64 = int64(points)
	p.PointsAwarded.Valid = true
	p.AnsweredAt.Time = answeredAt
	p.AnsweredAt.Valid = true
	return true, nil
}

func (r *fakeDeliveryRepo) AnsweredQuestionIDs(ctx context.Context, userID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0)
	for _, p := range r.answers {
		if p.UserID == userID {
			ids = append(ids, p.QuestionID)
		}
	}
	return ids, nil
}

func (r *fakeDeliveryRepo) DeleteAbandoned(ctx context.Context, deliveredBefore time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, p := range r.answers {
		if p.Outstanding() && p.DeliveredAt.Before(deliveredBefore) {
			delete(r.answers, id)
			removed++
		}
	}
	return removed, nil
}

type fakeQuestionStore struct {
	mu        sync.Mutex
	questions map[int64]*question.Question
	nextID    int64
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{questions: make(map[int64]*question.Question)}
}

func (s *fakeQuestionStore) Create(ctx context.Context, q *question.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	q.ID = s.nextID
	cp := *q
	s.questions[q.ID] = &cp
	return nil
}

func (s *fakeQuestionStore) GetByID(ctx context.Context, id int64) (*question.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, idb.ErrQuestionNotFound
	}
	cp := *q
	return &cp, nil
}

func (s *fakeQuestionStore) PickUnseen(ctx context.Context, categories []string, excludeIDs []int64) (*question.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	excluded := make(map[int64]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	inCategory := make(map[string]bool, len(categories))
	for _, c := range categories {
		inCategory[c] = true
	}

	var best *question.Question
	for _, q := range s.questions {
		if !inCategory[q.Category] || excluded[q.ID] {
			continue
		}
		if best == nil || q.TimesUsed < best.TimesUsed {
			best = q
		}
	}
	if best == nil {
		return nil, idb.ErrNoQuestionAvailable
	}
	cp := *best
	return &cp, nil
}

func (s *fakeQuestionStore) IncrementTimesUsed(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return idb.ErrQuestionNotFound
	}
	q.TimesUsed++
	return nil
}

func (s *fakeQuestionStore) ListByCategory(ctx context.Context, category string) ([]*question.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*question.Question, 0)
	for _, q := range s.questions {
		if q.Category == category {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

type sentMessage struct {
	PhoneNumber string
	Body        string
}

type fakeSMSClient struct {
	mu      sync.Mutex
	sent    []sentMessage
	sendErr error
}

func (c *fakeSMSClient) Send(ctx context.Context, phoneNumber string, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, sentMessage{PhoneNumber: phoneNumber, Body: body})
	return nil
}

func (c *fakeSMSClient) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}
