package delivery

import (
	"context"
	"time"
)

// Repository defines operations for QueueEntry and PendingAnswer rows.
// All cross-process coordination happens through the conditional updates
// here; callers check the returned claim/update flags instead of taking locks.
type Repository interface {
	// QueueEntry methods
	CreateEntry(ctx context.Context, e *QueueEntry) error // ErrDuplicateQueueEntry on (user, day) conflict
	GetEntryByUserAndDate(ctx context.Context, userID int64, day time.Time) (*QueueEntry, error)
	ListDueEntries(ctx context.Context, now time.Time) ([]*QueueEntry, error)
	// ClaimEntry atomically transitions an entry PENDING -> SENDING and bumps
	// its attempt counter. Returns false when the entry was already claimed
	// or is no longer pending.
	ClaimEntry(ctx context.Context, id int64) (bool, error)
	MarkEntrySent(ctx context.Context, id int64, questionID int64, sentAt time.Time) error
	MarkEntryFailed(ctx context.Context, id int64, reason string) error
	CountEntriesByStatus(ctx context.Context, day time.Time) (map[Status]int, error) // For admin/overview

	// PendingAnswer methods
	CreatePendingAnswer(ctx context.Context, p *PendingAnswer) error
	// ListOutstandingByUser returns the user's unanswered rows, newest first.
	// More than one element indicates an upstream invariant violation.
	ListOutstandingByUser(ctx context.Context, userID int64) ([]*PendingAnswer, error)
	// RecordReply writes the answer onto a pending row only if its reply is
	// still null, returning whether this call won the write.
	RecordReply(ctx context.Context, id int64, reply string, isCorrect bool, points int, answeredAt time.Time) (bool, error)
	// AnsweredQuestionIDs lists every question ever delivered to the user, so
	// the selector can avoid repeats.
	AnsweredQuestionIDs(ctx context.Context, userID int64) ([]int64, error)
	// DeleteAbandoned purges outstanding rows delivered before the cutoff and
	// returns how many were removed.
	DeleteAbandoned(ctx context.Context, deliveredBefore time.Time) (int64, error)
}
